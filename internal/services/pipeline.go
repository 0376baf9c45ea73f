package services

import (
	"context"
	"sync"
	"time"

	"github.com/naufalarizq/kama-smartbox/internal/clients"
	"github.com/naufalarizq/kama-smartbox/internal/logging"
	"github.com/naufalarizq/kama-smartbox/internal/models"
	"github.com/naufalarizq/kama-smartbox/internal/observability"
	"github.com/sirupsen/logrus"
)

// Outcome of a single pipeline run.
const (
	RunCompleted = "completed"
	RunSkipped   = "skipped"
	RunAborted   = "aborted"
)

type RunStats struct {
	Outcome                string        `json:"outcome"`
	RowsFound              int           `json:"rows_found"`
	RowsInserted           int           `json:"rows_inserted"`
	RowsEnriched           int           `json:"rows_enriched"`
	RecommendationFailures int           `json:"recommendation_failures"`
	Duration               time.Duration `json:"duration_ns"`
}

type SourceStore interface {
	FetchNewReadings(ctx context.Context, since *time.Time) ([]models.SensorReading, error)
}

type DestinationStore interface {
	LatestCaptureTimestamp(ctx context.Context) (*time.Time, error)
	InsertIfAbsent(ctx context.Context, readings []models.SensorReading) ([]int64, error)
	SelectForEnrichment(ctx context.Context, ids []int64) ([]models.EnrichedReading, error)
	ApplyEnrichment(ctx context.Context, updates []models.EnrichmentUpdate) error
}

type Predictor interface {
	PredictSpoilage(ctx context.Context, rows []clients.FeatureRow) ([]float64, error)
}

type Recommender interface {
	Recommend(ctx context.Context, foodCategory, spoilageSummary string) (string, error)
}

// AlertPublisher receives rows predicted already-spoiled after a run has
// been persisted. Failures are logged, never fatal.
type AlertPublisher interface {
	PublishSpoiled(rows []models.EnrichedReading, updates []models.EnrichmentUpdate) error
}

// EnrichmentPipeline moves new readings from the realtime store into the
// server store, predicts a spoilage horizon for each, asks for a disposal
// recommendation for bad rows, and persists the whole batch at once.
type EnrichmentPipeline struct {
	logger      *logrus.Logger
	source      SourceStore
	destination DestinationStore
	predictor   Predictor
	recommender Recommender
	alerts      AlertPublisher
	metrics     *observability.Metrics

	storeTimeout     time.Duration
	recommendWorkers int
}

type PipelineOption func(*EnrichmentPipeline)

func WithAlertPublisher(a AlertPublisher) PipelineOption {
	return func(p *EnrichmentPipeline) { p.alerts = a }
}

func WithMetrics(m *observability.Metrics) PipelineOption {
	return func(p *EnrichmentPipeline) { p.metrics = m }
}

func WithRecommendWorkers(n int) PipelineOption {
	return func(p *EnrichmentPipeline) {
		if n > 0 {
			p.recommendWorkers = n
		}
	}
}

func WithStoreTimeout(d time.Duration) PipelineOption {
	return func(p *EnrichmentPipeline) {
		if d > 0 {
			p.storeTimeout = d
		}
	}
}

func NewEnrichmentPipeline(
	logger *logrus.Logger,
	source SourceStore,
	destination DestinationStore,
	predictor Predictor,
	recommender Recommender,
	opts ...PipelineOption,
) *EnrichmentPipeline {
	p := &EnrichmentPipeline{
		logger:           logger,
		source:           source,
		destination:      destination,
		predictor:        predictor,
		recommender:      recommender,
		storeTimeout:     30 * time.Second,
		recommendWorkers: 4,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one full enrichment pass. Store and prediction errors abort
// the run before any enrichment is written; recommendation errors only cost
// the affected row its text. The returned error is non-nil exactly when the
// outcome is aborted.
func (p *EnrichmentPipeline) Run(ctx context.Context) (RunStats, error) {
	start := time.Now()
	stats, err := p.run(ctx)
	stats.Duration = time.Since(start)

	if p.metrics != nil {
		p.metrics.RunsTotal.WithLabelValues(stats.Outcome).Inc()
		p.metrics.RowsTransferred.Add(float64(stats.RowsInserted))
		p.metrics.RowsEnriched.Add(float64(stats.RowsEnriched))
		p.metrics.RecommendationFailures.Add(float64(stats.RecommendationFailures))
		p.metrics.RunDuration.Observe(stats.Duration.Seconds())
	}

	logging.LogRun(p.logger, map[string]interface{}{
		"outcome":                 stats.Outcome,
		"rows_found":              stats.RowsFound,
		"rows_inserted":           stats.RowsInserted,
		"rows_enriched":           stats.RowsEnriched,
		"recommendation_failures": stats.RecommendationFailures,
		"duration":                stats.Duration.String(),
	})

	return stats, err
}

func (p *EnrichmentPipeline) run(ctx context.Context) (RunStats, error) {
	var stats RunStats

	// Transferring
	var since *time.Time
	var err error
	{
		callCtx, cancel := context.WithTimeout(ctx, p.storeTimeout)
		since, err = p.destination.LatestCaptureTimestamp(callCtx)
		cancel()
	}
	if err != nil {
		stats.Outcome = RunAborted
		return stats, err
	}

	var readings []models.SensorReading
	{
		callCtx, cancel := context.WithTimeout(ctx, p.storeTimeout)
		readings, err = p.source.FetchNewReadings(callCtx, since)
		cancel()
	}
	if err != nil {
		stats.Outcome = RunAborted
		return stats, err
	}
	stats.RowsFound = len(readings)
	if len(readings) == 0 {
		stats.Outcome = RunSkipped
		return stats, nil
	}

	var insertedIDs []int64
	{
		callCtx, cancel := context.WithTimeout(ctx, p.storeTimeout)
		insertedIDs, err = p.destination.InsertIfAbsent(callCtx, readings)
		cancel()
	}
	if err != nil {
		stats.Outcome = RunAborted
		return stats, err
	}
	stats.RowsInserted = len(insertedIDs)
	if len(insertedIDs) == 0 {
		// All rows were duplicates, e.g. a race with a concurrent run.
		stats.Outcome = RunSkipped
		return stats, nil
	}

	// Selecting
	var rows []models.EnrichedReading
	{
		callCtx, cancel := context.WithTimeout(ctx, p.storeTimeout)
		rows, err = p.destination.SelectForEnrichment(callCtx, insertedIDs)
		cancel()
	}
	if err != nil {
		stats.Outcome = RunAborted
		return stats, err
	}
	if len(rows) == 0 {
		stats.Outcome = RunSkipped
		return stats, nil
	}

	// Predicting
	features := make([]clients.FeatureRow, 0, len(rows))
	for _, row := range rows {
		features = append(features, clients.FeatureRow{
			Temperature:  row.Temperature,
			Humidity:     row.Humidity,
			GasLevel:     row.GasLevel,
			FoodCategory: row.FoodCategory,
		})
	}
	predictions, err := p.predictor.PredictSpoilage(ctx, features)
	if err != nil {
		stats.Outcome = RunAborted
		return stats, err
	}

	// Recommending
	updates := make([]models.EnrichmentUpdate, len(rows))
	for i, row := range rows {
		updates[i] = models.EnrichmentUpdate{
			ID:                 row.ID,
			PredictedSpoilDays: predictions[i],
		}
	}
	stats.RecommendationFailures = p.recommendSpoiled(ctx, rows, updates)

	// Persisting
	{
		callCtx, cancel := context.WithTimeout(ctx, p.storeTimeout)
		err = p.destination.ApplyEnrichment(callCtx, updates)
		cancel()
	}
	if err != nil {
		stats.Outcome = RunAborted
		return stats, err
	}
	stats.RowsEnriched = len(updates)
	stats.Outcome = RunCompleted

	if p.alerts != nil {
		if err := p.alerts.PublishSpoiled(rows, updates); err != nil {
			logging.LogWarn(p.logger, "failed to publish spoilage alerts", err)
		}
	}

	return stats, nil
}

// recommendSpoiled fills RecommendationText for every bad row, fanning the
// calls out over a bounded worker pool. Ordering between calls carries no
// meaning; each worker writes only its own slot. Returns the failure count.
func (p *EnrichmentPipeline) recommendSpoiled(ctx context.Context, rows []models.EnrichedReading, updates []models.EnrichmentUpdate) int {
	var (
		wg       sync.WaitGroup
		failures int64
		mu       sync.Mutex
	)
	pool := make(chan struct{}, p.recommendWorkers)

	for i := range rows {
		if rows[i].Status != models.StatusBad {
			continue
		}
		wg.Add(1)
		pool <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-pool }()

			summary := models.SpoilageSummary(updates[i].PredictedSpoilDays)
			text, err := p.recommender.Recommend(ctx, rows[i].FoodCategory, summary)
			if err != nil {
				logging.LogWarn(p.logger, "recommendation skipped for reading", err)
				mu.Lock()
				failures++
				mu.Unlock()
				return
			}
			updates[i].RecommendationText = &text
		}(i)
	}
	wg.Wait()

	return int(failures)
}
