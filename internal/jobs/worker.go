package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkarlberg/slotbase-backend/internal/logger"
	"github.com/mkarlberg/slotbase-backend/internal/repos"
	"github.com/mkarlberg/slotbase-backend/internal/services"
	"github.com/mkarlberg/slotbase-backend/internal/types"
)

// Worker is the single-threaded poller: one claim and one full job execution
// per tick. The interval is injected so tests call Tick directly instead of
// waiting on the ticker.
type Worker struct {
	db       *gorm.DB
	log      *logger.Logger
	jobs     repos.DeletionJobRepo
	executor *Executor
	audit    services.AuditEmitter
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewWorker(db *gorm.DB, baseLog *logger.Logger, jobRepo repos.DeletionJobRepo, executor *Executor, audit services.AuditEmitter, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Worker{
		db:       db,
		log:      baseLog.With("component", "DeletionWorker"),
		jobs:     jobRepo,
		executor: executor,
		audit:    audit,
		interval: interval,
	}
}

func (w *Worker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		w.log.Info("Deletion worker started", "interval", w.interval)
		for {
			select {
			case <-ctx.Done():
				w.log.Info("Deletion worker stopped")
				return
			case <-ticker.C:
				w.Tick(ctx)
			}
		}
	}()
}

// Stop cancels the poll loop and waits for an in-flight tick to return.
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	if w.done != nil {
		<-w.done
	}
}

// Tick claims at most one queued job and runs it to its terminal state.
// Every failure mode here is swallowed after logging: the poll loop itself
// must never crash.
func (w *Worker) Tick(ctx context.Context) {
	job, err := w.jobs.ClaimOldestQueued(ctx, w.db)
	if err != nil {
		w.log.Warn("ClaimOldestQueued failed", "error", err)
		return
	}
	if job == nil {
		return
	}
	w.log.Info("Claimed deletion job", "job_id", job.ID, "target_type", job.TargetType, "target_id", job.TargetID, "mode", job.Mode)

	func() {
		defer func() {
			if r := recover(); r != nil {
				w.log.Error("Deletion job panicked", "job_id", job.ID, "panic", r)
				w.failAfterPanic(ctx, job, r)
			}
		}()
		w.executor.Execute(ctx, job)
	}()

	w.emitAudit(job)
}

// failAfterPanic terminalizes a job whose executor died mid-flight, writing
// the same failed shape a fatal plan error produces: one summary error plus
// the joined error_message. If even this update fails the job stays running
// until the stale sweep catches it.
func (w *Worker) failAfterPanic(ctx context.Context, job *types.DeletionJob, recovered interface{}) {
	now := time.Now()
	sum := NewSummary()
	sum.AddErrorf("panic: %v", recovered)
	summaryJSON := sum.JSON()
	msg := sum.ErrorMessage()
	ok, err := w.jobs.UpdateRunning(ctx, nil, job.ID, map[string]interface{}{
		"status":        types.DeletionJobStatusFailed,
		"progress":      100,
		"current_step":  "",
		"summary":       summaryJSON,
		"error_message": msg,
		"completed_at":  now,
		"updated_at":    now,
	})
	if err != nil {
		w.log.Error("Failed to mark panicked job failed; job left running for the stale sweep", "job_id", job.ID, "error", err)
		return
	}
	if !ok {
		// already terminal (stale sweep won); the row's state wins
		if cur, gerr := w.jobs.GetByID(ctx, nil, job.ID); gerr == nil && cur != nil {
			*job = *cur
		}
		return
	}
	job.Status = types.DeletionJobStatusFailed
	job.Progress = 100
	job.Summary = summaryJSON
	job.ErrorMessage = msg
	job.CompletedAt = &now
}

func (w *Worker) emitAudit(job *types.DeletionJob) {
	if w.audit == nil {
		return
	}
	action := "update"
	if job.Status == types.DeletionJobStatusCompleted {
		action = "delete"
	}
	tenantID := job.TargetID
	if job.TenantID != nil && *job.TenantID != uuid.Nil {
		tenantID = *job.TenantID
	}
	metadata := map[string]interface{}{
		"target_type": job.TargetType,
		"target_id":   job.TargetID.String(),
		"mode":        job.Mode,
		"status":      job.Status,
	}
	if len(job.Summary) > 0 {
		var sum map[string]interface{}
		if err := json.Unmarshal(job.Summary, &sum); err == nil {
			metadata["summary"] = sum
		}
	}
	w.audit.LogAsync(services.AuditEvent{
		TenantID:   tenantID,
		UserID:     job.RequestedBy,
		Action:     action,
		Resource:   "delete_job",
		ResourceID: job.ID.String(),
		Metadata:   metadata,
	})
}
