package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkarlberg/slotbase-backend/internal/logger"
	"github.com/mkarlberg/slotbase-backend/internal/types"
)

type TenantMembershipRepo interface {
	Get(ctx context.Context, tx *gorm.DB, tenantID, userID uuid.UUID) (*types.TenantMembership, error)
	// Deactivate flags the membership inactive and stamps deleted_at; the row
	// stays so the link history survives a soft user delete.
	Deactivate(ctx context.Context, tx *gorm.DB, tenantID, userID uuid.UUID) (int64, error)
	DeleteByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (int64, error)
	DeleteByTenantAndUser(ctx context.Context, tx *gorm.DB, tenantID, userID uuid.UUID) (int64, error)
}

type tenantMembershipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTenantMembershipRepo(db *gorm.DB, baseLog *logger.Logger) TenantMembershipRepo {
	return &tenantMembershipRepo{
		db:  db,
		log: baseLog.With("repo", "TenantMembershipRepo"),
	}
}

func (r *tenantMembershipRepo) Get(ctx context.Context, tx *gorm.DB, tenantID, userID uuid.UUID) (*types.TenantMembership, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if tenantID == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	var m types.TenantMembership
	err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Limit(1).
		Find(&m).Error
	if err != nil {
		return nil, err
	}
	if m.ID == uuid.Nil {
		return nil, nil
	}
	return &m, nil
}

func (r *tenantMembershipRepo) Deactivate(ctx context.Context, tx *gorm.DB, tenantID, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if tenantID == uuid.Nil || userID == uuid.Nil {
		return 0, nil
	}
	now := time.Now()
	res := transaction.WithContext(ctx).
		Model(&types.TenantMembership{}).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Updates(map[string]interface{}{
			"is_active":  false,
			"deleted_at": now,
			"updated_at": now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *tenantMembershipRepo) DeleteByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if tenantID == uuid.Nil {
		return 0, nil
	}
	res := transaction.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Delete(&types.TenantMembership{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *tenantMembershipRepo) DeleteByTenantAndUser(ctx context.Context, tx *gorm.DB, tenantID, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if tenantID == uuid.Nil || userID == uuid.Nil {
		return 0, nil
	}
	res := transaction.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Delete(&types.TenantMembership{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
