package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/mkarlberg/slotbase-backend/internal/logger"
	"github.com/mkarlberg/slotbase-backend/internal/repos"
)

// Sweeper is the crash-recovery policy for jobs stuck in running: a worker
// that dies mid-job stops heartbeating, and once the heartbeat is older than
// the cutoff the job is marked failed. Swept jobs are never requeued; the
// partially deleted state is surfaced, not retried.
type Sweeper struct {
	db     *gorm.DB
	log    *logger.Logger
	jobs   repos.DeletionJobRepo
	cron   *cron.Cron
	cutoff time.Duration
}

func NewSweeper(db *gorm.DB, baseLog *logger.Logger, jobRepo repos.DeletionJobRepo, cutoff time.Duration) *Sweeper {
	if cutoff <= 0 {
		cutoff = 10 * time.Minute
	}
	return &Sweeper{
		db:     db,
		log:    baseLog.With("component", "StaleJobSweeper"),
		jobs:   jobRepo,
		cron:   cron.New(),
		cutoff: cutoff,
	}
}

func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc("@every 1m", func() {
		s.Sweep(context.Background())
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("Stale job sweeper started", "cutoff", s.cutoff)
	return nil
}

func (s *Sweeper) Stop() {
	s.cron.Stop()
	s.log.Info("Stale job sweeper stopped")
}

func (s *Sweeper) Sweep(ctx context.Context) {
	swept, err := s.jobs.FailStaleRunning(ctx, s.db, time.Now().Add(-s.cutoff))
	if err != nil {
		s.log.Warn("Stale job sweep failed", "error", err)
		return
	}
	if swept > 0 {
		s.log.Warn("Swept stale running jobs", "count", swept, "cutoff", s.cutoff)
	}
}
