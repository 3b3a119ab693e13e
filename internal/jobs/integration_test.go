package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/SWENT-team09-2025/joinme-backend/internal/idempotency"
)

// TestSchedulerJobRuns drives both maintenance jobs directly and verifies the
// success metrics they emit.
func TestSchedulerJobRuns(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics()
	if err := m.Register(reg); err != nil {
		t.Fatalf("failed to register job metrics: %v", err)
	}

	repo := idempotency.NewInMemoryRepository()
	if err := repo.Store(context.Background(), &idempotency.Record{
		Key:                "key-1",
		Method:             "POST",
		Route:              "/events",
		Status:             idempotency.StatusCompleted,
		ResponseBody:       `{}`,
		ResponseStatusCode: 201,
	}); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	checkpoints := idempotency.NewInMemoryCheckpointStore()

	s := NewScheduler(repo, checkpoints, m, slog.Default())

	s.runIdempotencyCleanup()
	s.runCheckpointSweep()

	if got := getCounterVecValue(m.jobsTotal, JobTypeIdempotencyCleanup, StatusSuccess); got != 1 {
		t.Errorf("cleanup success count = %f, want 1", got)
	}
	if got := getCounterVecValue(m.jobsTotal, JobTypeCheckpointSweep, StatusSuccess); got != 1 {
		t.Errorf("sweep success count = %f, want 1", got)
	}
	if got := getHistogramVecSampleCount(m.jobsDuration, JobTypeIdempotencyCleanup); got != 1 {
		t.Errorf("cleanup duration samples = %d, want 1", got)
	}

	// Fresh records survive the cleanup.
	if _, err := repo.Get(context.Background(), "key-1"); err != nil {
		t.Errorf("fresh record removed by cleanup: %v", err)
	}
}

type failingSweeper struct{}

func (failingSweeper) SweepOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	return 0, errors.New("store unavailable")
}

func TestSchedulerJobFailureMetrics(t *testing.T) {
	m := NewMetrics()
	s := NewScheduler(nil, failingSweeper{}, m, slog.Default())

	s.runCheckpointSweep()

	if got := getCounterVecValue(m.jobsTotal, JobTypeCheckpointSweep, StatusFailure); got != 1 {
		t.Errorf("sweep failure count = %f, want 1", got)
	}
	if got := getCounterVecValue(m.jobErrors, JobTypeCheckpointSweep, "run_error"); got != 1 {
		t.Errorf("sweep error count = %f, want 1", got)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	s := NewScheduler(idempotency.NewInMemoryRepository(), idempotency.NewInMemoryCheckpointStore(), nil, slog.Default())

	if err := s.Start(); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop() returned error: %v", err)
	}
}
