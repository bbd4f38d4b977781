package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkarlberg/slotbase-backend/internal/logger"
	"github.com/mkarlberg/slotbase-backend/internal/types"
)

type TenantRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Tenant, error)
	// HardDelete physically removes the tenant row. Returns rows affected so
	// callers can tell an already-gone tenant from a deleted one.
	HardDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
	// SoftDelete is the fallback when HardDelete fails: flag the row deleted
	// without removing it.
	SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type tenantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTenantRepo(db *gorm.DB, baseLog *logger.Logger) TenantRepo {
	return &tenantRepo{
		db:  db,
		log: baseLog.With("repo", "TenantRepo"),
	}
}

func (r *tenantRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Tenant, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var tenant types.Tenant
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&tenant).Error
	if err != nil {
		return nil, err
	}
	if tenant.ID == uuid.Nil {
		return nil, nil
	}
	return &tenant, nil
}

func (r *tenantRepo) HardDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return 0, nil
	}
	res := transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Tenant{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *tenantRepo) SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	now := time.Now()
	return transaction.WithContext(ctx).
		Model(&types.Tenant{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"deleted_at": now,
			"status":     types.TenantStatusDeleted,
			"is_active":  false,
			"updated_at": now,
		}).Error
}
