package stores

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/naufalarizq/kama-smartbox/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SensorReading{}, &models.EnrichedReading{}))
	return db
}

func reading(id int64, status models.Status, recordedAt time.Time) models.SensorReading {
	return models.SensorReading{
		ID:           id,
		Battery:      90,
		Temperature:  25,
		Humidity:     60,
		GasLevel:     400,
		Status:       status,
		FoodCategory: "fruits",
		RecordedAt:   recordedAt,
	}
}

func TestFetchNewReadings(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	rows := []models.SensorReading{
		reading(1, models.StatusGood, base),
		reading(2, models.StatusWarning, base.Add(time.Minute)),
		reading(3, models.StatusBad, base.Add(2*time.Minute)),
	}
	require.NoError(t, db.Create(&rows).Error)

	src := NewSourceStore(db)

	all, err := src.FetchNewReadings(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(1), all[0].ID)
	assert.Equal(t, int64(3), all[2].ID)

	since := base
	newer, err := src.FetchNewReadings(ctx, &since)
	require.NoError(t, err)
	require.Len(t, newer, 2)
	assert.Equal(t, int64(2), newer[0].ID)
	assert.Equal(t, int64(3), newer[1].ID)
}

func TestFetchNewReadingsRejectsUnknownStatus(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	row := reading(1, "fresh", base)
	require.NoError(t, db.Create(&row).Error)

	_, err := NewSourceStore(db).FetchNewReadings(ctx, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown status label")
}

func TestLatestCaptureTimestamp(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	dest := NewDestinationStore(db)

	latest, err := dest.LatestCaptureTimestamp(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	_, err = dest.InsertIfAbsent(ctx, []models.SensorReading{
		reading(1, models.StatusGood, base),
		reading(2, models.StatusGood, base.Add(time.Hour)),
	})
	require.NoError(t, err)

	latest, err = dest.LatestCaptureTimestamp(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.Equal(base.Add(time.Hour)))
}

func TestInsertIfAbsentIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	dest := NewDestinationStore(db)
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	batch := []models.SensorReading{
		reading(1, models.StatusGood, base),
		reading(2, models.StatusBad, base.Add(time.Minute)),
	}

	inserted, err := dest.InsertIfAbsent(ctx, batch)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, inserted)

	// Re-running with the same input inserts nothing and errors nothing.
	inserted, err = dest.InsertIfAbsent(ctx, batch)
	require.NoError(t, err)
	assert.Empty(t, inserted)

	// Overlapping input reports only the genuinely new row.
	batch = append(batch, reading(3, models.StatusGood, base.Add(2*time.Minute)))
	inserted, err = dest.InsertIfAbsent(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, inserted)

	var count int64
	require.NoError(t, db.Model(&models.EnrichedReading{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestInsertIfAbsentReportsOnlyRowsItWon(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	dest := NewDestinationStore(db)
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	// Another writer owns row 1 already; the conflict clause will skip it
	// and the returned set must not claim it.
	stolen := models.NewEnrichedReading(reading(1, models.StatusBad, base))
	require.NoError(t, db.Create(&stolen).Error)

	inserted, err := dest.InsertIfAbsent(ctx, []models.SensorReading{
		reading(1, models.StatusBad, base),
		reading(2, models.StatusGood, base.Add(time.Minute)),
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, inserted)
}

func TestSelectForEnrichmentSweepsUnpredictedRows(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	dest := NewDestinationStore(db)
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	// Row 1 was transferred by an earlier aborted run, never enriched.
	_, err := dest.InsertIfAbsent(ctx, []models.SensorReading{
		reading(1, models.StatusGood, base),
	})
	require.NoError(t, err)

	// Row 2 was transferred and enriched.
	_, err = dest.InsertIfAbsent(ctx, []models.SensorReading{
		reading(2, models.StatusGood, base.Add(time.Minute)),
	})
	require.NoError(t, err)
	require.NoError(t, dest.ApplyEnrichment(ctx, []models.EnrichmentUpdate{
		{ID: 2, PredictedSpoilDays: 1.5},
	}))

	// Row 3 is this run's insert.
	inserted, err := dest.InsertIfAbsent(ctx, []models.SensorReading{
		reading(3, models.StatusGood, base.Add(2*time.Minute)),
	})
	require.NoError(t, err)

	rows, err := dest.SelectForEnrichment(ctx, inserted)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].ID)
	assert.Equal(t, int64(3), rows[1].ID)
}

func TestApplyEnrichmentUpdatesOnlyEnrichmentColumns(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	dest := NewDestinationStore(db)
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	_, err := dest.InsertIfAbsent(ctx, []models.SensorReading{
		reading(1, models.StatusBad, base),
		reading(2, models.StatusGood, base.Add(time.Minute)),
	})
	require.NoError(t, err)

	rec := "compost it"
	require.NoError(t, dest.ApplyEnrichment(ctx, []models.EnrichmentUpdate{
		{ID: 1, PredictedSpoilDays: -2.5, RecommendationText: &rec},
		{ID: 2, PredictedSpoilDays: 3.0},
	}))

	var got []models.EnrichedReading
	require.NoError(t, db.Order("id").Find(&got).Error)
	require.Len(t, got, 2)

	require.NotNil(t, got[0].PredictedSpoilDays)
	assert.Equal(t, -2.5, *got[0].PredictedSpoilDays)
	require.NotNil(t, got[0].RecommendationText)
	assert.Equal(t, "compost it", *got[0].RecommendationText)
	assert.Equal(t, models.StatusBad, got[0].Status)
	assert.Equal(t, 25.0, got[0].Temperature)

	require.NotNil(t, got[1].PredictedSpoilDays)
	assert.Equal(t, 3.0, *got[1].PredictedSpoilDays)
	assert.Nil(t, got[1].RecommendationText)
}
