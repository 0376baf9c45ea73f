package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/naufalarizq/kama-smartbox/internal/models"
	"gorm.io/gorm"
)

// ErrStoreUnavailable marks connect/query/transaction failures on either
// store. The pipeline treats anything wrapping it as fatal to the run.
var ErrStoreUnavailable = errors.New("store unavailable")

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
}

// SourceStore reads the append-only realtime table. It never writes.
type SourceStore struct {
	db *gorm.DB
}

func NewSourceStore(db *gorm.DB) *SourceStore {
	return &SourceStore{db: db}
}

// FetchNewReadings returns readings recorded strictly after since, oldest
// first. A nil since means the destination is empty and everything is new.
func (s *SourceStore) FetchNewReadings(ctx context.Context, since *time.Time) ([]models.SensorReading, error) {
	var readings []models.SensorReading

	q := s.db.WithContext(ctx).Order("recorded_at ASC")
	if since != nil {
		q = q.Where("recorded_at > ?", *since)
	}
	if err := q.Find(&readings).Error; err != nil {
		return nil, storeErr("fetch new readings", err)
	}

	for _, r := range readings {
		if _, err := models.ParseStatus(string(r.Status)); err != nil {
			return nil, fmt.Errorf("fetch new readings: row %d: %w", r.ID, err)
		}
	}

	return readings, nil
}
