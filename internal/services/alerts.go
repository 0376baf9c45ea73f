package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/naufalarizq/kama-smartbox/internal/models"
	"github.com/streadway/amqp"
)

const AlertQueueName = "kama_spoilage_alerts"

// SpoilageAlert is the message the dashboard side consumes for readings the
// model predicts as already spoiled.
type SpoilageAlert struct {
	ReadingID          int64     `json:"reading_id"`
	FoodCategory       string    `json:"jenis_makanan"`
	PredictedSpoilDays float64   `json:"predicted_spoil"`
	HasRecommendation  bool      `json:"has_recommendation"`
	RecordedAt         time.Time `json:"recorded_at"`
}

// amqpPublisher is the part of *amqp.Channel the publisher uses; tests
// substitute it.
type amqpPublisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// SpoilageAlertPublisher pushes one message per already-spoiled reading to
// RabbitMQ after a run has been persisted.
type SpoilageAlertPublisher struct {
	ch amqpPublisher
}

func NewSpoilageAlertPublisher(ch *amqp.Channel) *SpoilageAlertPublisher {
	return &SpoilageAlertPublisher{ch: ch}
}

func (p *SpoilageAlertPublisher) PublishSpoiled(rows []models.EnrichedReading, updates []models.EnrichmentUpdate) error {
	for i := range updates {
		if updates[i].PredictedSpoilDays >= 0 {
			continue
		}

		alert := SpoilageAlert{
			ReadingID:          updates[i].ID,
			FoodCategory:       rows[i].FoodCategory,
			PredictedSpoilDays: updates[i].PredictedSpoilDays,
			HasRecommendation:  updates[i].RecommendationText != nil,
			RecordedAt:         rows[i].RecordedAt,
		}
		body, err := json.Marshal(alert)
		if err != nil {
			return fmt.Errorf("failed to marshal spoilage alert: %w", err)
		}

		if err := p.ch.Publish("", AlertQueueName, false, false, amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		}); err != nil {
			return fmt.Errorf("failed to publish spoilage alert: %w", err)
		}
	}

	return nil
}
