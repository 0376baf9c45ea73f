package stores

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/naufalarizq/kama-smartbox/internal/models"
	"gorm.io/gorm"
)

// DestinationStore owns the server table holding transferred readings and
// their enrichment columns.
type DestinationStore struct {
	db *gorm.DB
}

func NewDestinationStore(db *gorm.DB) *DestinationStore {
	return &DestinationStore{db: db}
}

// LatestCaptureTimestamp returns the transfer cursor: the newest recorded_at
// present in the destination, or nil when the table is empty.
func (d *DestinationStore) LatestCaptureTimestamp(ctx context.Context) (*time.Time, error) {
	var latest []time.Time
	err := d.db.WithContext(ctx).
		Model(&models.EnrichedReading{}).
		Order("recorded_at DESC").
		Limit(1).
		Pluck("recorded_at", &latest).Error
	if err != nil {
		return nil, storeErr("latest capture timestamp", err)
	}
	if len(latest) == 0 {
		return nil, nil
	}
	return &latest[0], nil
}

// InsertIfAbsent copies readings into the server table, silently skipping
// identifiers already present, and reports the identifiers it actually
// inserted. RETURNING makes the database the authority on that set, so a
// row claimed by a concurrent run in the same instant is never reported
// here, and re-running with overlapping input never duplicates rows.
func (d *DestinationStore) InsertIfAbsent(ctx context.Context, readings []models.SensorReading) ([]int64, error) {
	if len(readings) == 0 {
		return nil, nil
	}

	placeholders := make([]string, 0, len(readings))
	args := make([]interface{}, 0, len(readings)*8)
	for _, r := range readings {
		row := models.NewEnrichedReading(r)
		placeholders = append(placeholders, "(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			row.ID, row.Battery, row.Temperature, row.Humidity,
			row.GasLevel, string(row.Status), row.FoodCategory, row.RecordedAt,
		)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (id, battery, temperature, humidity, gas_level, status, jenis_makanan, recorded_at) VALUES %s ON CONFLICT (id) DO NOTHING RETURNING id",
		models.EnrichedReading{}.TableName(),
		strings.Join(placeholders, ", "),
	)

	var insertedIDs []int64
	if err := d.db.WithContext(ctx).Raw(query, args...).Scan(&insertedIDs).Error; err != nil {
		return nil, storeErr("insert if absent", err)
	}

	return insertedIDs, nil
}

// SelectForEnrichment reads back the rows to predict this run: the ones just
// inserted plus any row a previous aborted run left without a prediction.
func (d *DestinationStore) SelectForEnrichment(ctx context.Context, ids []int64) ([]models.EnrichedReading, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []models.EnrichedReading
	err := d.db.WithContext(ctx).
		Where("id IN ? OR predicted_spoil IS NULL", ids).
		Order("recorded_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, storeErr("select for enrichment", err)
	}

	return rows, nil
}

// ApplyEnrichment writes the prediction (and recommendation, when present)
// for each row in one transaction: either the whole batch becomes visible or
// none of it does.
func (d *DestinationStore) ApplyEnrichment(ctx context.Context, updates []models.EnrichmentUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			cols := map[string]interface{}{
				"predicted_spoil":     u.PredictedSpoilDays,
				"recommendation_text": u.RecommendationText,
			}
			if err := tx.Model(&models.EnrichedReading{}).
				Where("id = ?", u.ID).
				Updates(cols).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storeErr("apply enrichment", err)
	}

	return nil
}
