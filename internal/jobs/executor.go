package jobs

import (
	"context"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/mkarlberg/slotbase-backend/internal/logger"
	"github.com/mkarlberg/slotbase-backend/internal/repos"
	"github.com/mkarlberg/slotbase-backend/internal/types"
)

// Executor runs one claimed deletion job to its terminal state. The job is
// never wrapped in a single transaction: every step commits on its own so a
// poller watching the job row sees forward motion, and a step failure leaves
// the earlier deletions in place with the gap recorded in the summary.
type Executor struct {
	db      *gorm.DB
	log     *logger.Logger
	jobs    repos.DeletionJobRepo
	planner *Planner
}

func NewExecutor(db *gorm.DB, baseLog *logger.Logger, jobRepo repos.DeletionJobRepo, planner *Planner) *Executor {
	return &Executor{
		db:      db,
		log:     baseLog.With("component", "DeletionExecutor"),
		jobs:    jobRepo,
		planner: planner,
	}
}

// Execute assumes job has already been claimed (status running). It always
// leaves the job in a terminal state; step errors are folded into the
// summary, and only the summary decides completed vs failed.
func (e *Executor) Execute(ctx context.Context, job *types.DeletionJob) {
	sum := NewSummary()

	plan, err := e.planner.Resolve(job)
	if err != nil {
		e.log.Warn("Plan resolution failed", "job_id", job.ID, "target_type", job.TargetType, "mode", job.Mode, "error", err)
		sum.AddError(err.Error())
		e.finish(ctx, job, sum)
		return
	}

	total := plan.TotalSteps()
	for i, step := range plan.Steps {
		if !e.reportProgress(ctx, job, step.Label, percent(i+1, total)) {
			e.abandon(ctx, job)
			return
		}
		count, runErr := step.Run(ctx, nil)
		if runErr != nil {
			e.log.Warn("Deletion step failed", "job_id", job.ID, "resource", step.Resource, "error", runErr)
			sum.AddErrorf("Failed to delete from %s: %v", step.Resource, runErr)
			continue
		}
		sum.Record(step.Resource, count)
	}

	if !e.reportProgress(ctx, job, plan.FinalizeLabel, percent(total, total)) {
		e.abandon(ctx, job)
		return
	}
	if plan.Finalize != nil {
		plan.Finalize(ctx, nil, sum)
	}

	e.finish(ctx, job, sum)
}

// abandon reloads the job after a guarded write found the row no longer
// running, meaning something else (the stale sweep) already terminalized it.
// The terminal state on the row wins; this run stops writing.
func (e *Executor) abandon(ctx context.Context, job *types.DeletionJob) {
	e.log.Warn("Job no longer running, stopping execution", "job_id", job.ID)
	if cur, err := e.jobs.GetByID(ctx, nil, job.ID); err == nil && cur != nil {
		*job = *cur
	}
}

func percent(counter, total int) int {
	if total <= 0 {
		return 100
	}
	return int(math.Round(float64(counter) / float64(total) * 100))
}

// reportProgress persists the step label and percentage before the step runs
// so a concurrent status poll observes motion even mid-step. Progress only
// ever moves forward within a run. Returns false when the row is no longer
// running: the executor must then stop, because a terminal status is already
// on the row and must not be disturbed.
func (e *Executor) reportProgress(ctx context.Context, job *types.DeletionJob, label string, pct int) bool {
	if pct < job.Progress {
		pct = job.Progress
	}
	now := time.Now()
	ok, err := e.jobs.UpdateRunning(ctx, nil, job.ID, map[string]interface{}{
		"current_step": label,
		"progress":     pct,
		"heartbeat_at": now,
		"updated_at":   now,
	})
	if err != nil {
		// progress is cosmetic relative to the deletions themselves
		e.log.Warn("Failed to persist job progress", "job_id", job.ID, "error", err)
		return true
	}
	if !ok {
		return false
	}
	job.CurrentStep = label
	job.Progress = pct
	job.HeartbeatAt = &now
	job.UpdatedAt = now
	return true
}

// finish writes the terminal status, summary and joined error message,
// guarded on the row still being running so an already-terminal status (a
// stale sweep racing a long step) is never overwritten.
func (e *Executor) finish(ctx context.Context, job *types.DeletionJob, sum *Summary) {
	status := types.DeletionJobStatusCompleted
	if sum.Failed() {
		status = types.DeletionJobStatusFailed
	}
	now := time.Now()
	summaryJSON := sum.JSON()
	errMsg := sum.ErrorMessage()

	ok, err := e.jobs.UpdateRunning(ctx, nil, job.ID, map[string]interface{}{
		"status":        status,
		"progress":      100,
		"current_step":  "",
		"summary":       summaryJSON,
		"error_message": errMsg,
		"completed_at":  now,
		"heartbeat_at":  now,
		"updated_at":    now,
	})
	if err != nil {
		e.log.Error("Failed to persist terminal job state", "job_id", job.ID, "status", status, "error", err)
	}
	if err == nil && !ok {
		e.abandon(ctx, job)
		return
	}

	job.Status = status
	job.Progress = 100
	job.CurrentStep = ""
	job.Summary = summaryJSON
	job.ErrorMessage = errMsg
	job.CompletedAt = &now
	job.HeartbeatAt = &now
	job.UpdatedAt = now

	e.log.Info("Deletion job finished",
		"job_id", job.ID,
		"target_type", job.TargetType,
		"target_id", job.TargetID,
		"status", status,
		"total_deleted", sum.TotalDeleted,
		"errors", len(sum.Errors),
	)
}
