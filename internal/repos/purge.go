package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkarlberg/slotbase-backend/internal/logger"
)

// PurgeRepo is the scoped resource-delete contract the deletion plans run
// against: one call deletes every row of a model within a scope and reports
// how many rows went away. Plans only ever see the count or the error.
type PurgeRepo interface {
	DeleteTenantScoped(ctx context.Context, tx *gorm.DB, model interface{}, tenantID uuid.UUID) (int64, error)
	DeleteCreatedBy(ctx context.Context, tx *gorm.DB, model interface{}, tenantID, userID uuid.UUID) (int64, error)
}

type purgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPurgeRepo(db *gorm.DB, baseLog *logger.Logger) PurgeRepo {
	return &purgeRepo{
		db:  db,
		log: baseLog.With("repo", "PurgeRepo"),
	}
}

func (r *purgeRepo) DeleteTenantScoped(ctx context.Context, tx *gorm.DB, model interface{}, tenantID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if tenantID == uuid.Nil {
		return 0, nil
	}
	res := transaction.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Delete(model)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *purgeRepo) DeleteCreatedBy(ctx context.Context, tx *gorm.DB, model interface{}, tenantID, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if tenantID == uuid.Nil || userID == uuid.Nil {
		return 0, nil
	}
	res := transaction.WithContext(ctx).
		Where("tenant_id = ? AND created_by = ?", tenantID, userID).
		Delete(model)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
