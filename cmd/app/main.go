package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/naufalarizq/kama-smartbox/internal/clients"
	"github.com/naufalarizq/kama-smartbox/internal/config"
	"github.com/naufalarizq/kama-smartbox/internal/dependencies"
	"github.com/naufalarizq/kama-smartbox/internal/infrastructure/database"
	"github.com/naufalarizq/kama-smartbox/internal/infrastructure/rabbitmq"
	"github.com/naufalarizq/kama-smartbox/internal/logging"
	"github.com/naufalarizq/kama-smartbox/internal/observability"
	"github.com/naufalarizq/kama-smartbox/internal/server"
	"github.com/naufalarizq/kama-smartbox/internal/services"
	"github.com/naufalarizq/kama-smartbox/internal/stores"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := logrus.New()

	cfg, err := config.GetConfig()
	if err != nil {
		logging.LogFatal(logger, "Configuration loading error", err)
	}
	if err := cfg.ValidateForService(); err != nil {
		logging.LogFatal(logger, "Configuration validation error", err)
	}

	sourceDB, err := database.ConnectDatabase(cfg.SourceDbDSN)
	if err != nil {
		logging.LogFatal(logger, "Source database connection error", err)
	}
	destDB, err := database.ConnectDatabase(cfg.DestDbDSN)
	if err != nil {
		logging.LogFatal(logger, "Destination database connection error", err)
	}

	deps := &dependencies.Dependencies{
		Logger:      logger,
		SourceDB:    sourceDB,
		DestDB:      destDB,
		Source:      stores.NewSourceStore(sourceDB),
		Destination: stores.NewDestinationStore(destDB),
		Predictor:   clients.NewPredictionClient(cfg.PredictionURL, cfg.RequestTimeout),
		Recommender: clients.NewRecommendationClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.RequestTimeout),
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	opts := []services.PipelineOption{
		services.WithMetrics(metrics),
		services.WithRecommendWorkers(cfg.RecommendWorkers),
		services.WithStoreTimeout(cfg.RequestTimeout),
	}

	if cfg.RabbitMQURL != "" {
		rabbitCh, rabbitConn, err := rabbitmq.SetupRabbitMQ(cfg.RabbitMQURL, services.AlertQueueName)
		if err != nil {
			logging.LogFatal(logger, "RabbitMQ connection error", err)
		}
		deps.RabbitConn = rabbitConn
		deps.RabbitCh = rabbitCh
		opts = append(opts, services.WithAlertPublisher(services.NewSpoilageAlertPublisher(rabbitCh)))
	}

	pipeline := services.NewEnrichmentPipeline(
		logger,
		deps.Source,
		deps.Destination,
		deps.Predictor,
		deps.Recommender,
		opts...,
	)
	scheduler := services.NewScheduler(logger, pipeline, cfg.RunInterval)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.New(logger, scheduler, registry),
	}
	go func() {
		logger.Infof("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.LogFatal(logger, "HTTP server error", err)
		}
	}()

	logger.Println("Application is starting...")

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logging.LogInfo(logger, "Received shutdown signal, closing application...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logging.LogError(logger, "Error stopping HTTP server", err)
		}
	}()

	scheduler.Start(ctx)

	if deps.RabbitCh != nil {
		if err := rabbitmq.CloseRabbitMQ(deps.RabbitCh, deps.RabbitConn); err != nil {
			logging.LogError(logger, "RabbitMQ shutdown error", err)
		}
	}
	if err := database.CloseDatabase(sourceDB); err != nil {
		logging.LogError(logger, "Source database shutdown error", err)
	}
	if err := database.CloseDatabase(destDB); err != nil {
		logging.LogError(logger, "Destination database shutdown error", err)
	}

	logging.LogInfo(logger, "Graceful shutdown completed successfully")
}
