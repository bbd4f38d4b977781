package jobs

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mkarlberg/slotbase-backend/internal/types"
)

// userSoftDeletePlan deactivates the membership link and stamps the user
// record deleted. No rows are removed.
func (p *Planner) userSoftDeletePlan(job *types.DeletionJob) *Plan {
	tenantID := *job.TenantID
	userID := job.TargetID

	return &Plan{
		Steps: []Step{
			{
				Resource: "tenant_memberships",
				Label:    "Deactivating tenant membership...",
				Run: func(ctx context.Context, tx *gorm.DB) (int64, error) {
					n, err := p.memberships.Deactivate(ctx, tx, tenantID, userID)
					if err != nil {
						return 0, err
					}
					if n == 0 {
						return 0, fmt.Errorf("membership record not found for user %s in tenant %s", userID, tenantID)
					}
					if _, err := p.users.SoftDelete(ctx, tx, userID); err != nil {
						return 0, err
					}
					// membership deactivation and the deleted_at stamp are
					// updates, not deletions; nothing counts toward the total
					return 0, nil
				},
			},
		},
		FinalizeLabel: "Finishing...",
	}
}

// userHardDeletePlan removes everything the user created inside the tenant,
// then their refresh tokens and the membership link. The global user record
// stays: the user may belong to other tenants, and user jobs deliberately do
// not run the orphan sweep.
func (p *Planner) userHardDeletePlan(job *types.DeletionJob) *Plan {
	tenantID := *job.TenantID
	userID := job.TargetID

	created := []struct {
		resource string
		label    string
		model    interface{}
	}{
		{"bookings", "Deleting bookings...", &types.Booking{}},
		{"invoices", "Deleting invoices...", &types.Invoice{}},
		{"services", "Deleting services...", &types.Service{}},
		{"customers", "Deleting customers...", &types.Customer{}},
		{"projects", "Deleting projects...", &types.Project{}},
		{"staff", "Deleting staff...", &types.StaffMember{}},
	}

	steps := make([]Step, 0, len(created)+2)
	for _, sc := range created {
		model := sc.model
		steps = append(steps, Step{
			Resource: sc.resource,
			Label:    sc.label,
			Run: func(ctx context.Context, tx *gorm.DB) (int64, error) {
				return p.purge.DeleteCreatedBy(ctx, tx, model, tenantID, userID)
			},
		})
	}
	steps = append(steps, Step{
		Resource: "refresh_tokens",
		Label:    "Deleting refresh tokens...",
		Run: func(ctx context.Context, tx *gorm.DB) (int64, error) {
			return p.tokens.DeleteByTenantAndUser(ctx, tx, tenantID, userID)
		},
	})
	steps = append(steps, Step{
		Resource: "tenant_memberships",
		Label:    "Deleting tenant membership...",
		Run: func(ctx context.Context, tx *gorm.DB) (int64, error) {
			return p.memberships.DeleteByTenantAndUser(ctx, tx, tenantID, userID)
		},
	})

	return &Plan{
		Steps:         steps,
		FinalizeLabel: "Finishing...",
	}
}

// userAnonymizePlan overwrites the user's PII in place and deactivates the
// membership link. No rows are removed.
func (p *Planner) userAnonymizePlan(job *types.DeletionJob) *Plan {
	tenantID := *job.TenantID
	userID := job.TargetID

	return &Plan{
		Steps: []Step{
			{
				Resource: "users",
				Label:    "Anonymizing user...",
				Run: func(ctx context.Context, tx *gorm.DB) (int64, error) {
					n, err := p.users.Anonymize(ctx, tx, userID)
					if err != nil {
						return 0, err
					}
					if n == 0 {
						return 0, fmt.Errorf("user record not found: %s", userID)
					}
					if _, err := p.memberships.Deactivate(ctx, tx, tenantID, userID); err != nil {
						return 0, err
					}
					return 0, nil
				},
			},
		},
		FinalizeLabel: "Finishing...",
	}
}
