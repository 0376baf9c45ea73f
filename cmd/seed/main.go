package main

import (
	"context"
	"flag"

	"github.com/naufalarizq/kama-smartbox/internal/config"
	"github.com/naufalarizq/kama-smartbox/internal/infrastructure/database"
	"github.com/naufalarizq/kama-smartbox/internal/logging"
	"github.com/naufalarizq/kama-smartbox/internal/services"
	"github.com/sirupsen/logrus"
)

// Inserts fake sensor readings into the realtime table so the enrichment
// pipeline has data to work with during local development.
func main() {
	count := flag.Int("count", 50, "number of fake readings to insert")
	flag.Parse()

	logger := logrus.New()

	cfg, err := config.GetConfig()
	if err != nil {
		logging.LogFatal(logger, "Configuration loading error", err)
	}

	db, err := database.ConnectDatabase(cfg.SourceDbDSN)
	if err != nil {
		logging.LogFatal(logger, "Source database connection error", err)
	}
	defer func() {
		if err := database.CloseDatabase(db); err != nil {
			logging.LogError(logger, "Error closing database", err)
		}
	}()

	seeder := services.NewReadingSeeder(db)
	if err := seeder.Seed(context.Background(), *count); err != nil {
		logging.LogFatal(logger, "Seeding error", err)
	}

	logger.Infof("Inserted %d fake readings", *count)
}
