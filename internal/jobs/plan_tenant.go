package jobs

import (
	"context"

	"gorm.io/gorm"

	"github.com/mkarlberg/slotbase-backend/internal/types"
)

// tenantWipePlan deletes everything a tenant owns. Step order matters:
// financial records reference bookings, bookings reference services and
// customers, and the membership links go last so the closing orphan-user
// sweep sees the final state.
func (p *Planner) tenantWipePlan(job *types.DeletionJob) *Plan {
	tenantID := job.TargetID

	scoped := []struct {
		resource string
		label    string
		model    interface{}
	}{
		{"bookings", "Deleting bookings...", &types.Booking{}},
		{"invoices", "Deleting invoices...", &types.Invoice{}},
		{"payments", "Deleting payments...", &types.Payment{}},
		{"services", "Deleting services...", &types.Service{}},
		{"customers", "Deleting customers...", &types.Customer{}},
		{"staff", "Deleting staff...", &types.StaffMember{}},
		{"projects", "Deleting projects...", &types.Project{}},
		{"timesheets", "Deleting timesheets...", &types.Timesheet{}},
		{"audit_logs", "Deleting audit log entries...", &types.AuditLogEntry{}},
	}

	steps := make([]Step, 0, len(scoped)+2)
	for _, sc := range scoped {
		model := sc.model
		steps = append(steps, Step{
			Resource: sc.resource,
			Label:    sc.label,
			Run: func(ctx context.Context, tx *gorm.DB) (int64, error) {
				return p.purge.DeleteTenantScoped(ctx, tx, model, tenantID)
			},
		})
	}
	steps = append(steps, Step{
		Resource: "refresh_tokens",
		Label:    "Deleting refresh tokens...",
		Run: func(ctx context.Context, tx *gorm.DB) (int64, error) {
			return p.tokens.DeleteByTenant(ctx, tx, tenantID)
		},
	})
	steps = append(steps, Step{
		Resource: "tenant_memberships",
		Label:    "Deleting tenant memberships...",
		Run: func(ctx context.Context, tx *gorm.DB) (int64, error) {
			return p.memberships.DeleteByTenant(ctx, tx, tenantID)
		},
	})

	return &Plan{
		Steps:         steps,
		FinalizeLabel: "Removing tenant...",
		Finalize: func(ctx context.Context, tx *gorm.DB, sum *Summary) {
			// Users whose only memberships pointed at this tenant are now
			// parentless; remove them before the tenant record itself.
			orphans, err := p.users.DeleteOrphans(ctx, tx)
			if err != nil {
				sum.AddErrorf("Failed to delete from users: %v", err)
			} else {
				sum.Record("users", orphans)
			}

			n, err := p.tenants.HardDelete(ctx, tx, tenantID)
			if err != nil {
				sum.AddErrorf("Failed to hard-delete tenant: %v", err)
				// fall back to flagging the row deleted in place
				if sErr := p.tenants.SoftDelete(ctx, tx, tenantID); sErr != nil {
					sum.AddErrorf("Failed to soft-delete tenant after hard-delete failure: %v", sErr)
				}
				return
			}
			sum.Record("tenant", n)
		},
	}
}
