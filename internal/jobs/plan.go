package jobs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkarlberg/slotbase-backend/internal/logger"
	"github.com/mkarlberg/slotbase-backend/internal/repos"
	"github.com/mkarlberg/slotbase-backend/internal/types"
)

// Step is one resource-scoped delete within a plan. Run returns how many rows
// it removed; a Run error is recorded into the summary and never aborts the
// remaining steps.
type Step struct {
	Resource string
	Label    string
	Run      func(ctx context.Context, tx *gorm.DB) (int64, error)
}

// Plan is the ordered step list for one (target type, mode) pair. Dependency
// order is encoded by list position. Finalize, when set, is the closing slice
// of the plan (orphan cleanup and target removal for a tenant wipe); it
// records its own counts and errors directly into the summary.
type Plan struct {
	Steps         []Step
	FinalizeLabel string
	Finalize      func(ctx context.Context, tx *gorm.DB, sum *Summary)
}

// TotalSteps reserves one progress slice past the delete steps for the
// closing work, so progress reaches 100 only at the very end.
func (p *Plan) TotalSteps() int {
	return len(p.Steps) + 1
}

// Planner resolves a deletion job to its plan. Resolution failure is the one
// fatal job error: no steps run, the job fails with a single message.
type Planner struct {
	log         *logger.Logger
	purge       repos.PurgeRepo
	tenants     repos.TenantRepo
	users       repos.UserRepo
	memberships repos.TenantMembershipRepo
	tokens      repos.RefreshTokenRepo
}

func NewPlanner(
	baseLog *logger.Logger,
	purge repos.PurgeRepo,
	tenants repos.TenantRepo,
	users repos.UserRepo,
	memberships repos.TenantMembershipRepo,
	tokens repos.RefreshTokenRepo,
) *Planner {
	return &Planner{
		log:         baseLog.With("component", "Planner"),
		purge:       purge,
		tenants:     tenants,
		users:       users,
		memberships: memberships,
		tokens:      tokens,
	}
}

func (p *Planner) Resolve(job *types.DeletionJob) (*Plan, error) {
	switch job.TargetType {
	case types.DeletionTargetTenant:
		return p.tenantWipePlan(job), nil
	case types.DeletionTargetUser:
		if job.TenantID == nil || *job.TenantID == uuid.Nil {
			return nil, fmt.Errorf("user deletion job %s has no tenant scope", job.ID)
		}
		switch job.Mode {
		case types.DeletionModeSoftDelete:
			return p.userSoftDeletePlan(job), nil
		case types.DeletionModeHardDelete:
			return p.userHardDeletePlan(job), nil
		case types.DeletionModeAnonymize:
			return p.userAnonymizePlan(job), nil
		default:
			return nil, fmt.Errorf("Unknown deletion mode: %s", job.Mode)
		}
	default:
		return nil, fmt.Errorf("Unknown target type: %s", job.TargetType)
	}
}
