package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver  string // "mysql" or "sqlite"
	DBDSN     string
	Port      string
	JWTSecret string

	// TaxRate is the policy rate applied to each ingested batch. Default 0.
	TaxRate float64

	// IngestMaxRetries bounds the optimistic-conflict retry loop.
	IngestMaxRetries int

	// FeedInterval is how often the change feed polls the outbox.
	FeedInterval time.Duration
}

// Load reads configuration from the environment. A missing .env file is
// fine; explicit env vars win either way.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBDriver:         getEnv("DB_DRIVER", "mysql"),
		DBDSN:            getEnv("DB_DSN", "root:root@tcp(127.0.0.1:3306)/tab_engine?charset=utf8mb4&parseTime=True&loc=Local"),
		Port:             getEnv("PORT", "8080"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		TaxRate:          getEnvFloat("TAX_RATE", 0),
		IngestMaxRetries: getEnvInt("INGEST_MAX_RETRIES", 5),
		FeedInterval:     getEnvDuration("FEED_INTERVAL", 250*time.Millisecond),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
