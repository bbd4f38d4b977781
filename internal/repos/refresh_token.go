package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkarlberg/slotbase-backend/internal/logger"
	"github.com/mkarlberg/slotbase-backend/internal/types"
)

type RefreshTokenRepo interface {
	DeleteByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (int64, error)
	DeleteByTenantAndUser(ctx context.Context, tx *gorm.DB, tenantID, userID uuid.UUID) (int64, error)
}

type refreshTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRefreshTokenRepo(db *gorm.DB, baseLog *logger.Logger) RefreshTokenRepo {
	return &refreshTokenRepo{
		db:  db,
		log: baseLog.With("repo", "RefreshTokenRepo"),
	}
}

func (r *refreshTokenRepo) DeleteByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if tenantID == uuid.Nil {
		return 0, nil
	}
	res := transaction.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Delete(&types.RefreshToken{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *refreshTokenRepo) DeleteByTenantAndUser(ctx context.Context, tx *gorm.DB, tenantID, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if tenantID == uuid.Nil || userID == uuid.Nil {
		return 0, nil
	}
	res := transaction.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Delete(&types.RefreshToken{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
