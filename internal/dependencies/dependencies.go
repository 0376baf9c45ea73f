package dependencies

import (
	"github.com/naufalarizq/kama-smartbox/internal/clients"
	"github.com/naufalarizq/kama-smartbox/internal/stores"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
	"gorm.io/gorm"
)

// Dependencies holds everything constructed once at startup and injected
// into the pipeline. No package-level singletons.
type Dependencies struct {
	Logger *logrus.Logger

	SourceDB *gorm.DB
	DestDB   *gorm.DB

	Source      *stores.SourceStore
	Destination *stores.DestinationStore

	Predictor   *clients.PredictionClient
	Recommender *clients.RecommendationClient

	RabbitConn *amqp.Connection
	RabbitCh   *amqp.Channel
}
