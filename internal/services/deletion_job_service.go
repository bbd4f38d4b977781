package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkarlberg/slotbase-backend/internal/logger"
	"github.com/mkarlberg/slotbase-backend/internal/repos"
	"github.com/mkarlberg/slotbase-backend/internal/types"
)

// MinReasonLength is the shortest accepted justification for a destructive
// job. Enforced here, at enqueue time; the job core trusts queued jobs.
const MinReasonLength = 10

type DeletionJobService interface {
	// EnqueueTenantWipe queues a full wipe of tenant data. The confirmation
	// phrase must match the tenant name exactly.
	EnqueueTenantWipe(ctx context.Context, tenantID, requestedBy uuid.UUID, reason, confirmation string) (*types.DeletionJob, error)
	// EnqueueUserDeletion queues a user removal within a tenant with the
	// given mode (soft_delete, hard_delete or anonymize).
	EnqueueUserDeletion(ctx context.Context, tenantID, userID uuid.UUID, mode string, requestedBy uuid.UUID, reason string) (*types.DeletionJob, error)
	// GetJob serves the status read contract; safe to poll.
	GetJob(ctx context.Context, id uuid.UUID) (*types.DeletionJob, error)
	// CancelJob cancels a job that has not started yet. Running jobs cannot
	// be cancelled.
	CancelJob(ctx context.Context, id uuid.UUID) (*types.DeletionJob, error)
}

type deletionJobService struct {
	db          *gorm.DB
	log         *logger.Logger
	jobs        repos.DeletionJobRepo
	tenants     repos.TenantRepo
	users       repos.UserRepo
	memberships repos.TenantMembershipRepo
}

func NewDeletionJobService(
	db *gorm.DB,
	baseLog *logger.Logger,
	jobRepo repos.DeletionJobRepo,
	tenantRepo repos.TenantRepo,
	userRepo repos.UserRepo,
	membershipRepo repos.TenantMembershipRepo,
) DeletionJobService {
	return &deletionJobService{
		db:          db,
		log:         baseLog.With("service", "DeletionJobService"),
		jobs:        jobRepo,
		tenants:     tenantRepo,
		users:       userRepo,
		memberships: membershipRepo,
	}
}

func (s *deletionJobService) EnqueueTenantWipe(ctx context.Context, tenantID, requestedBy uuid.UUID, reason, confirmation string) (*types.DeletionJob, error) {
	if tenantID == uuid.Nil {
		return nil, fmt.Errorf("missing tenant id")
	}
	if requestedBy == uuid.Nil {
		return nil, fmt.Errorf("missing requesting user")
	}
	if err := validateReason(reason); err != nil {
		return nil, err
	}

	tenant, err := s.tenants.GetByID(ctx, nil, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load tenant: %w", err)
	}
	if tenant == nil {
		return nil, fmt.Errorf("tenant not found")
	}
	if strings.TrimSpace(confirmation) != tenant.Name {
		return nil, fmt.Errorf("confirmation phrase does not match tenant name")
	}

	has, err := s.jobs.HasRunnableForTarget(ctx, nil, types.DeletionTargetTenant, tenantID)
	if err != nil {
		return nil, err
	}
	if has {
		return nil, fmt.Errorf("a deletion job for this tenant is already queued or running")
	}

	job := s.newJob(types.DeletionTargetTenant, tenantID, &tenantID, "", requestedBy, reason)
	if _, err := s.jobs.Create(ctx, nil, []*types.DeletionJob{job}); err != nil {
		return nil, fmt.Errorf("create deletion job: %w", err)
	}
	s.log.Info("Tenant wipe enqueued", "job_id", job.ID, "tenant_id", tenantID, "requested_by", requestedBy)
	return job, nil
}

func (s *deletionJobService) EnqueueUserDeletion(ctx context.Context, tenantID, userID uuid.UUID, mode string, requestedBy uuid.UUID, reason string) (*types.DeletionJob, error) {
	if tenantID == uuid.Nil || userID == uuid.Nil {
		return nil, fmt.Errorf("missing tenant or user id")
	}
	if requestedBy == uuid.Nil {
		return nil, fmt.Errorf("missing requesting user")
	}
	switch mode {
	case types.DeletionModeSoftDelete, types.DeletionModeHardDelete, types.DeletionModeAnonymize:
	default:
		return nil, fmt.Errorf("invalid deletion mode: %q", mode)
	}
	if err := validateReason(reason); err != nil {
		return nil, err
	}

	membership, err := s.memberships.Get(ctx, nil, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("load membership: %w", err)
	}
	if membership == nil {
		return nil, fmt.Errorf("user has no membership in this tenant")
	}

	has, err := s.jobs.HasRunnableForTarget(ctx, nil, types.DeletionTargetUser, userID)
	if err != nil {
		return nil, err
	}
	if has {
		return nil, fmt.Errorf("a deletion job for this user is already queued or running")
	}

	job := s.newJob(types.DeletionTargetUser, userID, &tenantID, mode, requestedBy, reason)
	if _, err := s.jobs.Create(ctx, nil, []*types.DeletionJob{job}); err != nil {
		return nil, fmt.Errorf("create deletion job: %w", err)
	}
	s.log.Info("User deletion enqueued", "job_id", job.ID, "tenant_id", tenantID, "target_id", userID, "mode", mode, "requested_by", requestedBy)
	return job, nil
}

func (s *deletionJobService) GetJob(ctx context.Context, id uuid.UUID) (*types.DeletionJob, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing job id")
	}
	job, err := s.jobs.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("job not found")
	}
	return job, nil
}

func (s *deletionJobService) CancelJob(ctx context.Context, id uuid.UUID) (*types.DeletionJob, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing job id")
	}
	now := time.Now()
	res := s.db.WithContext(ctx).
		Model(&types.DeletionJob{}).
		Where("id = ? AND status = ?", id, types.DeletionJobStatusQueued).
		Updates(map[string]interface{}{
			"status":       types.DeletionJobStatusCancelled,
			"completed_at": now,
			"updated_at":   now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("job is not queued; only queued jobs can be cancelled")
	}
	return s.GetJob(ctx, id)
}

func (s *deletionJobService) newJob(targetType string, targetID uuid.UUID, tenantID *uuid.UUID, mode string, requestedBy uuid.UUID, reason string) *types.DeletionJob {
	now := time.Now()
	return &types.DeletionJob{
		ID:          uuid.New(),
		TargetType:  targetType,
		TargetID:    targetID,
		TenantID:    tenantID,
		Mode:        mode,
		Status:      types.DeletionJobStatusQueued,
		Progress:    0,
		RequestedBy: requestedBy,
		Reason:      strings.TrimSpace(reason),
		QueuedAt:    now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func validateReason(reason string) error {
	if len(strings.TrimSpace(reason)) < MinReasonLength {
		return fmt.Errorf("reason must be at least %d characters", MinReasonLength)
	}
	return nil
}
