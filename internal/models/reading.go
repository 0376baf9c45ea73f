package models

import (
	"fmt"
	"time"
)

// Status is the coarse three-level food-safety classification assigned by
// the firmware/classifier side before a reading reaches the source store.
type Status string

const (
	StatusGood    Status = "good"
	StatusWarning Status = "warning"
	StatusBad     Status = "bad"
)

// ParseStatus is the one place the label contract is enforced; adapters
// reject rows carrying anything outside the three labels.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusGood, StatusWarning, StatusBad:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status label %q", s)
}

// DefaultFoodCategory is used when a reading arrives without jenis_makanan.
const DefaultFoodCategory = "fruits"

// SensorReading is a row of the append-only realtime table written by the
// ingest endpoint. Immutable once recorded.
type SensorReading struct {
	ID           int64     `gorm:"column:id;primaryKey" json:"id"`
	Battery      float64   `gorm:"column:battery" json:"battery"`
	Temperature  float64   `gorm:"column:temperature" json:"temperature"`
	Humidity     float64   `gorm:"column:humidity" json:"humidity"`
	GasLevel     float64   `gorm:"column:gas_level" json:"gas_level"`
	Status       Status    `gorm:"column:status" json:"status"`
	FoodCategory string    `gorm:"column:jenis_makanan;default:fruits" json:"jenis_makanan"`
	RecordedAt   time.Time `gorm:"column:recorded_at" json:"recorded_at"`
}

func (SensorReading) TableName() string { return "kama_realtime" }

// EnrichedReading is a row of the server table. The pipeline copies a
// SensorReading into it verbatim (enrichment columns NULL), then fills
// PredictedSpoilDays for every row and RecommendationText for bad rows.
type EnrichedReading struct {
	ID                 int64     `gorm:"column:id;primaryKey" json:"id"`
	Battery            float64   `gorm:"column:battery" json:"battery"`
	Temperature        float64   `gorm:"column:temperature" json:"temperature"`
	Humidity           float64   `gorm:"column:humidity" json:"humidity"`
	GasLevel           float64   `gorm:"column:gas_level" json:"gas_level"`
	Status             Status    `gorm:"column:status" json:"status"`
	FoodCategory       string    `gorm:"column:jenis_makanan" json:"jenis_makanan"`
	RecordedAt         time.Time `gorm:"column:recorded_at" json:"recorded_at"`
	PredictedSpoilDays *float64  `gorm:"column:predicted_spoil" json:"predicted_spoil"`
	RecommendationText *string   `gorm:"column:recommendation_text" json:"recommendation_text"`
}

func (EnrichedReading) TableName() string { return "kama_server" }

// NewEnrichedReading copies a source reading into a destination row with the
// enrichment columns unset and the food category defaulted.
func NewEnrichedReading(r SensorReading) EnrichedReading {
	category := r.FoodCategory
	if category == "" {
		category = DefaultFoodCategory
	}
	return EnrichedReading{
		ID:           r.ID,
		Battery:      r.Battery,
		Temperature:  r.Temperature,
		Humidity:     r.Humidity,
		GasLevel:     r.GasLevel,
		Status:       r.Status,
		FoodCategory: category,
		RecordedAt:   r.RecordedAt,
	}
}

// SpoilageSummary renders a predicted horizon for prompts and logs.
// Negative values mean the food spoiled that many days ago; values under a
// day are phrased in hours.
func SpoilageSummary(days float64) string {
	switch {
	case days < 0:
		return fmt.Sprintf("already spoiled %.1f days ago", -days)
	case days < 1:
		return fmt.Sprintf("spoils within %.0f hours", days*24)
	default:
		return fmt.Sprintf("spoils within %.1f days", days)
	}
}

// EnrichmentUpdate is one row of the batched write-back performed at the end
// of a pipeline run.
type EnrichmentUpdate struct {
	ID                 int64
	PredictedSpoilDays float64
	RecommendationText *string
}
