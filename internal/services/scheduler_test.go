package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/naufalarizq/kama-smartbox/internal/clients"
	"github.com/naufalarizq/kama-smartbox/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingSource parks FetchNewReadings until released, holding the run
// lock open so a second trigger can be observed overlapping.
type blockingSource struct {
	enterOnce sync.Once
	entered   chan struct{}
	release   chan struct{}
}

func (b *blockingSource) FetchNewReadings(ctx context.Context, _ *time.Time) ([]models.SensorReading, error) {
	b.enterOnce.Do(func() { close(b.entered) })
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return nil, nil
}

func TestTryRunRejectsOverlappingRuns(t *testing.T) {
	src := &blockingSource{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	dst := newFakeDestination()
	pred := &fakePredictor{predict: func(clients.FeatureRow) float64 { return 0 }}
	rec := &fakeRecommender{}

	p := newTestPipeline(src, dst, pred, rec)
	s := NewScheduler(p.logger, p, time.Hour)

	done := make(chan RunStats, 1)
	go func() {
		stats, _ := s.TryRun(context.Background())
		done <- stats
	}()

	// Wait for the first run to be inside the pipeline body.
	select {
	case <-src.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first run never started")
	}

	_, err := s.TryRun(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(src.release)
	select {
	case stats := <-done:
		assert.Equal(t, RunSkipped, stats.Outcome)
	case <-time.After(2 * time.Second):
		t.Fatal("first run never finished")
	}

	// With the first run finished the trigger works again.
	stats, err := s.TryRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RunSkipped, stats.Outcome)
}
