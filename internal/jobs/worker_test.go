package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mkarlberg/slotbase-backend/internal/repos"
	"github.com/mkarlberg/slotbase-backend/internal/services"
	"github.com/mkarlberg/slotbase-backend/internal/types"
)

type capturingEmitter struct {
	mu     sync.Mutex
	events []services.AuditEvent
}

func (c *capturingEmitter) LogAsync(event services.AuditEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *capturingEmitter) all() []services.AuditEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]services.AuditEvent(nil), c.events...)
}

func (e *testEnv) seedQueuedJob(t *testing.T, tenantID uuid.UUID, queuedAt time.Time) *types.DeletionJob {
	t.Helper()
	job := &types.DeletionJob{
		ID:          uuid.New(),
		TargetType:  types.DeletionTargetTenant,
		TargetID:    tenantID,
		TenantID:    &tenantID,
		Status:      types.DeletionJobStatusQueued,
		RequestedBy: uuid.New(),
		Reason:      "compliance request for testing",
		QueuedAt:    queuedAt,
		CreatedAt:   queuedAt,
		UpdatedAt:   queuedAt,
	}
	require.NoError(t, e.db.Create(job).Error)
	return job
}

func (e *testEnv) worker(t *testing.T, audit services.AuditEmitter) *Worker {
	t.Helper()
	return NewWorker(e.db, e.log, e.jobRepo, e.executor(t), audit, time.Second)
}

func TestWorkerProcessesOldestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.seedTenant(t, "first")
	second := env.seedTenant(t, "second")
	base := time.Now().Add(-time.Minute)
	olderJob := env.seedQueuedJob(t, first.ID, base)
	newerJob := env.seedQueuedJob(t, second.ID, base.Add(10*time.Second))

	worker := env.worker(t, nil)

	worker.Tick(ctx)
	require.Equal(t, types.DeletionJobStatusCompleted, reloadJob(t, env.db, olderJob.ID).Status)
	require.Equal(t, types.DeletionJobStatusQueued, reloadJob(t, env.db, newerJob.ID).Status)

	worker.Tick(ctx)
	require.Equal(t, types.DeletionJobStatusCompleted, reloadJob(t, env.db, newerJob.ID).Status)

	// queue drained, a further tick is a no-op
	worker.Tick(ctx)
}

func TestClaimIsSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tenant := env.seedTenant(t, "acme")
	env.seedQueuedJob(t, tenant.ID, time.Now())

	job, err := env.jobRepo.ClaimOldestQueued(ctx, nil)
	require.NoError(t, err)
	require.NotNil(t, job)
	require.Equal(t, types.DeletionJobStatusRunning, job.Status)
	require.NotNil(t, job.StartedAt)
	require.Equal(t, "Starting...", job.CurrentStep)
	require.Equal(t, 0, job.Progress)

	again, err := env.jobRepo.ClaimOldestQueued(ctx, nil)
	require.NoError(t, err)
	require.Nil(t, again)
}

func TestWorkerSkipsCancelledJobs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tenant := env.seedTenant(t, "acme")
	job := env.seedQueuedJob(t, tenant.ID, time.Now())
	require.NoError(t, env.db.Model(&types.DeletionJob{}).
		Where("id = ?", job.ID).
		Update("status", types.DeletionJobStatusCancelled).Error)

	env.worker(t, nil).Tick(ctx)

	stored := reloadJob(t, env.db, job.ID)
	require.Equal(t, types.DeletionJobStatusCancelled, stored.Status)
	require.Nil(t, stored.StartedAt)
}

// panickingPurgeRepo blows up on the first tenant-scoped delete.
type panickingPurgeRepo struct {
	repos.PurgeRepo
}

func (r *panickingPurgeRepo) DeleteTenantScoped(ctx context.Context, tx *gorm.DB, model interface{}, tenantID uuid.UUID) (int64, error) {
	panic("simulated executor crash")
}

func TestWorkerRecoversFromPanic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tenant := env.seedTenant(t, "acme")
	job := env.seedQueuedJob(t, tenant.ID, time.Now())

	planner := NewPlanner(env.log, &panickingPurgeRepo{PurgeRepo: env.purge}, env.tenants, env.users, env.memberships, env.tokens)
	executor := NewExecutor(env.db, env.log, env.jobRepo, planner)
	emitter := &capturingEmitter{}
	worker := NewWorker(env.db, env.log, env.jobRepo, executor, emitter, time.Second)

	worker.Tick(ctx)

	stored := reloadJob(t, env.db, job.ID)
	require.Equal(t, types.DeletionJobStatusFailed, stored.Status)
	require.Equal(t, 100, stored.Progress)
	require.Contains(t, stored.ErrorMessage, "panic:")
	require.NotNil(t, stored.CompletedAt)

	// same failed shape as a fatal plan error: one summary entry
	sum := decodeSummary(t, stored)
	require.Len(t, sum.Errors, 1)
	require.Contains(t, sum.Errors[0], "panic: simulated executor crash")
	require.Empty(t, sum.DeletedTables)
	require.Zero(t, sum.TotalDeleted)

	events := emitter.all()
	require.Len(t, events, 1)
	require.Equal(t, "update", events[0].Action)
}

func TestWorkerEmitsAuditOnCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tenant := env.seedTenant(t, "acme")
	env.seedBookings(t, tenant.ID, uuid.New(), 2)
	job := env.seedQueuedJob(t, tenant.ID, time.Now())

	emitter := &capturingEmitter{}
	env.worker(t, emitter).Tick(ctx)

	events := emitter.all()
	require.Len(t, events, 1)
	event := events[0]
	require.Equal(t, "delete", event.Action)
	require.Equal(t, "delete_job", event.Resource)
	require.Equal(t, job.ID.String(), event.ResourceID)
	require.Equal(t, tenant.ID, event.TenantID)
	require.Equal(t, types.DeletionTargetTenant, event.Metadata["target_type"])
	require.Contains(t, event.Metadata, "summary")
}

func TestWorkerStartStop(t *testing.T) {
	env := newTestEnv(t)

	tenant := env.seedTenant(t, "acme")
	env.seedQueuedJob(t, tenant.ID, time.Now())

	worker := NewWorker(env.db, env.log, env.jobRepo, env.executor(t), nil, 10*time.Millisecond)
	worker.Start(context.Background())
	defer worker.Stop()

	deadline := time.After(2 * time.Second)
	for {
		var remaining int64
		require.NoError(t, env.db.Model(&types.DeletionJob{}).
			Where("status = ?", types.DeletionJobStatusQueued).
			Count(&remaining).Error)
		if remaining == 0 {
			return
		}
		select {
		case <-deadline:
			t.Fatal("worker never drained the queue")
		case <-time.After(20 * time.Millisecond):
		}
	}
}
