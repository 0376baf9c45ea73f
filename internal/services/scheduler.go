package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/naufalarizq/kama-smartbox/internal/logging"
	"github.com/sirupsen/logrus"
)

// ErrRunInProgress is returned by TryRun when a pipeline run is already in
// flight. Overlapping firings are skipped, never queued.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// Scheduler fires the enrichment pipeline on a fixed interval and once
// immediately at start. The manual trigger goes through the same TryRun
// entry point, so at most one run is ever in flight.
type Scheduler struct {
	logger   *logrus.Logger
	pipeline *EnrichmentPipeline
	interval time.Duration

	running sync.Mutex
}

func NewScheduler(logger *logrus.Logger, pipeline *EnrichmentPipeline, interval time.Duration) *Scheduler {
	return &Scheduler{
		logger:   logger,
		pipeline: pipeline,
		interval: interval,
	}
}

// TryRun executes one pipeline run unless another is in flight, in which
// case it reports ErrRunInProgress without blocking.
func (s *Scheduler) TryRun(ctx context.Context) (RunStats, error) {
	if !s.running.TryLock() {
		return RunStats{}, ErrRunInProgress
	}
	defer s.running.Unlock()

	return s.pipeline.Run(ctx)
}

// Start blocks until ctx is cancelled, firing the pipeline immediately and
// then every interval. A failed run is logged and retried at the next tick;
// the scheduler never crashes the process.
func (s *Scheduler) Start(ctx context.Context) {
	s.fire(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.LogInfo(s.logger, "Scheduler stopped")
			return
		case <-ticker.C:
			s.fire(ctx)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context) {
	if _, err := s.TryRun(ctx); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			logging.LogInfo(s.logger, "Previous run still in progress, skipping this firing")
			return
		}
		logging.LogError(s.logger, "Pipeline run failed", err)
	}
}
