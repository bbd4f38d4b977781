package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mkarlberg/slotbase-backend/internal/logger"
	"github.com/mkarlberg/slotbase-backend/internal/types"
)

type DeletionJobRepo interface {
	Create(ctx context.Context, tx *gorm.DB, jobs []*types.DeletionJob) ([]*types.DeletionJob, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.DeletionJob, error)
	// ClaimOldestQueued atomically transitions the oldest queued job to
	// running and returns it, or (nil, nil) when nothing is queued.
	ClaimOldestQueued(ctx context.Context, tx *gorm.DB) (*types.DeletionJob, error)
	// UpdateRunning applies updates only while the job is still running,
	// mirroring the claim's conditional update. Returns false when the row
	// was not running anymore (terminal statuses are immutable), so callers
	// know they have lost ownership of the job.
	UpdateRunning(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) (bool, error)
	// HasRunnableForTarget reports whether a queued or running job already
	// exists for the given target.
	HasRunnableForTarget(ctx context.Context, tx *gorm.DB, targetType string, targetID uuid.UUID) (bool, error)
	// FailStaleRunning marks running jobs whose heartbeat predates cutoff as
	// failed and returns how many were swept.
	FailStaleRunning(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type deletionJobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDeletionJobRepo(db *gorm.DB, baseLog *logger.Logger) DeletionJobRepo {
	return &deletionJobRepo{
		db:  db,
		log: baseLog.With("repo", "DeletionJobRepo"),
	}
}

func (r *deletionJobRepo) Create(ctx context.Context, tx *gorm.DB, jobs []*types.DeletionJob) ([]*types.DeletionJob, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(jobs) == 0 {
		return []*types.DeletionJob{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *deletionJobRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.DeletionJob, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var job types.DeletionJob
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == uuid.Nil {
		return nil, nil
	}
	return &job, nil
}

func (r *deletionJobRepo) ClaimOldestQueued(ctx context.Context, tx *gorm.DB) (*types.DeletionJob, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()
	var claimed *types.DeletionJob
	err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		q := txx.Model(&types.DeletionJob{}).
			Where("status = ?", types.DeletionJobStatusQueued).
			Order("queued_at ASC")
		// sqlite (tests) has no row locks; the status guard on the update
		// below still keeps the claim single-winner.
		if txx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		var job types.DeletionJob
		qErr := q.First(&job).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		res := txx.Model(&types.DeletionJob{}).
			Where("id = ? AND status = ?", job.ID, types.DeletionJobStatusQueued).
			Updates(map[string]interface{}{
				"status":       types.DeletionJobStatusRunning,
				"started_at":   now,
				"current_step": "Starting...",
				"progress":     0,
				"heartbeat_at": now,
				"updated_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// lost the race to a concurrent poller
			return nil
		}
		job.Status = types.DeletionJobStatusRunning
		job.StartedAt = &now
		job.CurrentStep = "Starting..."
		job.Progress = 0
		job.HeartbeatAt = &now
		job.UpdatedAt = now
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *deletionJobRepo) UpdateRunning(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return false, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	res := transaction.WithContext(ctx).
		Model(&types.DeletionJob{}).
		Where("id = ? AND status = ?", id, types.DeletionJobStatusRunning).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *deletionJobRepo) HasRunnableForTarget(ctx context.Context, tx *gorm.DB, targetType string, targetID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if targetType == "" || targetID == uuid.Nil {
		return false, nil
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.DeletionJob{}).
		Where("target_type = ? AND target_id = ? AND status IN ?",
			targetType, targetID,
			[]string{types.DeletionJobStatusQueued, types.DeletionJobStatusRunning}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *deletionJobRepo) FailStaleRunning(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()
	res := transaction.WithContext(ctx).
		Model(&types.DeletionJob{}).
		Where("status = ? AND heartbeat_at IS NOT NULL AND heartbeat_at < ?",
			types.DeletionJobStatusRunning, cutoff).
		Updates(map[string]interface{}{
			"status":        types.DeletionJobStatusFailed,
			"error_message": "worker lost: no heartbeat before cutoff",
			"current_step":  "",
			"progress":      100,
			"completed_at":  now,
			"updated_at":    now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
