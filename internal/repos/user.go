package repos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkarlberg/slotbase-backend/internal/logger"
	"github.com/mkarlberg/slotbase-backend/internal/types"
)

type UserRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error)
	// SoftDelete stamps deleted_at without touching the row otherwise.
	SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
	// Anonymize overwrites PII in place: email becomes a placeholder derived
	// from a truncated user id, names become generic, deleted_at is set.
	Anonymize(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
	// DeleteOrphans removes users that no longer have any tenant membership
	// rows at all and returns the count removed.
	DeleteOrphans(ctx context.Context, tx *gorm.DB) (int64, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{
		db:  db,
		log: baseLog.With("repo", "UserRepo"),
	}
}

func (r *userRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var user types.User
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == uuid.Nil {
		return nil, nil
	}
	return &user, nil
}

func (r *userRepo) SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return 0, nil
	}
	now := time.Now()
	res := transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"deleted_at": now,
			"updated_at": now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *userRepo) Anonymize(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return 0, nil
	}
	now := time.Now()
	res := transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"email":      AnonymizedEmail(id),
			"first_name": "Deleted",
			"last_name":  "User",
			"deleted_at": now,
			"updated_at": now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *userRepo) DeleteOrphans(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Where("id NOT IN (?)",
			transaction.Session(&gorm.Session{NewDB: true}).
				Model(&types.TenantMembership{}).
				Distinct("user_id")).
		Delete(&types.User{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// AnonymizedEmail derives the stable placeholder address an anonymized user
// record keeps, incorporating a truncated form of the user id.
func AnonymizedEmail(id uuid.UUID) string {
	short := strings.ReplaceAll(id.String(), "-", "")
	if len(short) > 12 {
		short = short[:12]
	}
	return fmt.Sprintf("deleted-%s@anonymized.invalid", short)
}
