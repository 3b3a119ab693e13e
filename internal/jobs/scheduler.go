package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/SWENT-team09-2025/joinme-backend/internal/idempotency"
)

// Cron schedules.
const (
	// idempotencyCleanupSchedule runs the record cleanup hourly.
	idempotencyCleanupSchedule = "@every 1h"

	// checkpointSweepSchedule runs the stale cascade checkpoint sweep hourly.
	checkpointSweepSchedule = "@every 1h"
)

// jobTimeout bounds a single job run.
const jobTimeout = 2 * time.Minute

// CheckpointSweeper removes stale cascade checkpoints. Stores with native
// expiry (Redis) don't need one; pass nil to skip the job.
type CheckpointSweeper interface {
	SweepOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// Scheduler runs periodic maintenance jobs: idempotency record cleanup and
// stale cascade checkpoint sweeps.
type Scheduler struct {
	cron     *cron.Cron
	idemRepo idempotency.Repository
	sweeper  CheckpointSweeper
	metrics  *Metrics
	logger   *slog.Logger
}

// NewScheduler creates a job scheduler. metrics may be nil; sweeper may be nil
// when checkpoints expire natively.
func NewScheduler(idemRepo idempotency.Repository, sweeper CheckpointSweeper, metrics *Metrics, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:     cron.New(),
		idemRepo: idemRepo,
		sweeper:  sweeper,
		metrics:  metrics,
		logger:   logger,
	}
}

// Start registers and starts the cron jobs.
func (s *Scheduler) Start() error {
	if s.idemRepo != nil {
		if _, err := s.cron.AddFunc(idempotencyCleanupSchedule, s.runIdempotencyCleanup); err != nil {
			return err
		}
	}
	if s.sweeper != nil {
		if _, err := s.cron.AddFunc(checkpointSweepSchedule, s.runCheckpointSweep); err != nil {
			return err
		}
	}
	s.cron.Start()
	s.logger.Info("job scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		s.logger.Info("job scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runIdempotencyCleanup() {
	s.runJob(JobTypeIdempotencyCleanup, func(ctx context.Context) (int64, error) {
		return idempotency.CleanupOldRecords(ctx, s.idemRepo, idempotency.DefaultExpiry)
	})
}

func (s *Scheduler) runCheckpointSweep() {
	s.runJob(JobTypeCheckpointSweep, func(ctx context.Context) (int64, error) {
		return s.sweeper.SweepOlderThan(ctx, idempotency.CheckpointTTL)
	})
}

// runJob executes one job run with timeout, metrics, and logging.
func (s *Scheduler) runJob(jobType string, run func(ctx context.Context) (int64, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	affected, err := run(ctx)
	elapsed := time.Since(start)

	if s.metrics != nil {
		s.metrics.ObserveJobDuration(jobType, elapsed.Seconds())
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncJobsTotal(jobType, StatusFailure)
			s.metrics.IncJobErrors(jobType, "run_error")
		}
		s.logger.Error("background job failed", "job_type", jobType, "error", err)
		return
	}
	if s.metrics != nil {
		s.metrics.IncJobsTotal(jobType, StatusSuccess)
	}
	s.logger.Debug("background job completed", "job_type", jobType, "affected", affected, "duration_ms", elapsed.Milliseconds())
}
