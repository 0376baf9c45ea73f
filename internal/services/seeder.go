package services

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/naufalarizq/kama-smartbox/internal/models"
	"gorm.io/gorm"
)

const seedBatchSize = 100

var seedCategories = []string{"fruits", "vegetables", "meat", "dairy"}

// ReadingSeeder inserts plausible fake sensor readings into the realtime
// table for local development, so the pipeline has something to transfer.
type ReadingSeeder struct {
	db *gorm.DB
}

func NewReadingSeeder(db *gorm.DB) *ReadingSeeder {
	return &ReadingSeeder{db: db}
}

func (s *ReadingSeeder) Seed(ctx context.Context, count int) error {
	readings := make([]models.SensorReading, 0, count)
	now := time.Now()

	for i := 0; i < count; i++ {
		gas := gofakeit.Float64Range(200, 900)
		status := models.StatusGood
		switch {
		case gas > 700:
			status = models.StatusBad
		case gas > 500:
			status = models.StatusWarning
		}

		readings = append(readings, models.SensorReading{
			Battery:      gofakeit.Float64Range(50, 100),
			Temperature:  gofakeit.Float64Range(20, 32),
			Humidity:     gofakeit.Float64Range(50, 90),
			GasLevel:     gas,
			Status:       status,
			FoodCategory: seedCategories[gofakeit.Number(0, len(seedCategories)-1)],
			RecordedAt:   now.Add(-time.Duration(count-i) * time.Second),
		})
	}

	for i := 0; i < len(readings); i += seedBatchSize {
		end := i + seedBatchSize
		if end > len(readings) {
			end = len(readings)
		}

		batch := readings[i:end]
		if err := s.db.WithContext(ctx).
			Omit("id").
			Create(&batch).Error; err != nil {
			return fmt.Errorf("failed to save batch of fake readings: %w", err)
		}
	}

	return nil
}
