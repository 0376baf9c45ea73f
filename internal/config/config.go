package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	SourceDbDSN string
	DestDbDSN   string

	PredictionURL string
	GeminiAPIKey  string
	GeminiModel   string

	RabbitMQURL string

	HTTPAddr         string
	RunInterval      time.Duration
	RequestTimeout   time.Duration
	RecommendWorkers int
}

func GetConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// A missing .env is fine when everything comes from the environment.
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("HTTP_ADDR", ":8090")
	v.SetDefault("RUN_INTERVAL", "5m")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("RECOMMEND_WORKERS", 4)

	cfg := &Config{
		SourceDbDSN:      v.GetString("SOURCE_DB_DSN"),
		DestDbDSN:        v.GetString("DEST_DB_DSN"),
		PredictionURL:    v.GetString("PREDICTION_URL"),
		GeminiAPIKey:     v.GetString("GEMINI_API_KEY"),
		GeminiModel:      v.GetString("GEMINI_MODEL"),
		RabbitMQURL:      v.GetString("RABBITMQ_URL"),
		HTTPAddr:         v.GetString("HTTP_ADDR"),
		RunInterval:      v.GetDuration("RUN_INTERVAL"),
		RequestTimeout:   v.GetDuration("REQUEST_TIMEOUT"),
		RecommendWorkers: v.GetInt("RECOMMEND_WORKERS"),
	}

	if cfg.SourceDbDSN == "" || cfg.DestDbDSN == "" {
		return nil, fmt.Errorf("SOURCE_DB_DSN and DEST_DB_DSN are required")
	}
	if cfg.RecommendWorkers <= 0 {
		cfg.RecommendWorkers = 1
	}

	return cfg, nil
}

// ValidateForService checks the keys the enrichment service itself needs on
// top of the store DSNs. The seed command skips these.
func (c *Config) ValidateForService() error {
	if c.PredictionURL == "" {
		return fmt.Errorf("PREDICTION_URL is required")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.RunInterval <= 0 {
		return fmt.Errorf("RUN_INTERVAL must be positive")
	}
	return nil
}
