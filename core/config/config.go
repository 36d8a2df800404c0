package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"basegraph.app/issuesearch/core/db"
)

type Config struct {
	OTel      OTelConfig
	Typesense TypesenseConfig
	Redis     RedisConfig
	Search    SearchConfig
	Env       string
	LogLevel  string
	NodeID    int64
	DB        db.Config
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
	Environment    string
	// SampleRatio outside (0, 1] samples every trace.
	SampleRatio float64
}

type TypesenseConfig struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
	// Concurrency bounds the facet count requests in flight per search.
	Concurrency int
}

type RedisConfig struct {
	URL           string
	ViewKeyPrefix string
}

type SearchConfig struct {
	// TimeZone is the IANA zone creation date histograms are bucketed in.
	TimeZone string
	// FixturePath, when set, serves searches from a JSON file of issue
	// documents instead of Typesense.
	FixturePath string
}

type ServiceType string

const (
	ServiceTypeCLI ServiceType = "cli"
)

// Load loads configuration from environment variables.
// In development, it loads from service-specific .env files:
//   - .env.cli for the issuesearch command
//
// Falls back to .env if service-specific file doesn't exist.
func Load(serviceType ServiceType) (Config, error) {
	if getEnv("ISSUESEARCH_ENV", "development") == "development" {
		// Try service-specific env file first, fall back to .env
		envFile := fmt.Sprintf(".env.%s", serviceType)
		if err := godotenv.Load(envFile); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	cfg := Config{
		Env:      getEnv("ISSUESEARCH_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", ""),
		NodeID:   int64(getEnvInt("NODE_ID", 1)),
		DB: db.Config{
			DSN:      getEnv("DATABASE_URL", ""),
			MaxConns: getEnvInt32("DB_MAX_CONNS", 10),
			MinConns: getEnvInt32("DB_MIN_CONNS", 2),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "issuesearch"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			Environment:    getEnv("ISSUESEARCH_ENV", "development"),
			SampleRatio:    getEnvFloat("OTEL_TRACES_SAMPLER_ARG", 1),
		},
		Typesense: TypesenseConfig{
			URL:         getEnv("TYPESENSE_URL", ""),
			APIKey:      getEnv("TYPESENSE_API_KEY", ""),
			Collection:  getEnv("TYPESENSE_COLLECTION", "issues"),
			Timeout:     getEnvDuration("TYPESENSE_TIMEOUT", 5*time.Second),
			Concurrency: getEnvInt("TYPESENSE_CONCURRENCY", 8),
		},
		Redis: RedisConfig{
			URL:           getEnv("REDIS_URL", ""),
			ViewKeyPrefix: getEnv("REDIS_VIEW_KEY_PREFIX", "issuesearch:view:"),
		},
		Search: SearchConfig{
			TimeZone:    getEnv("SEARCH_TIMEZONE", "UTC"),
			FixturePath: getEnv("SEARCH_FIXTURE_PATH", ""),
		},
	}

	if _, err := cfg.Search.Location(); err != nil {
		return Config{}, err
	}

	if cfg.Search.FixturePath == "" && !cfg.Typesense.Enabled() {
		return Config{}, fmt.Errorf("TYPESENSE_URL and TYPESENSE_API_KEY are required unless SEARCH_FIXTURE_PATH is set")
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c Config) DBEnabled() bool {
	return c.DB.DSN != ""
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c TypesenseConfig) Enabled() bool {
	return c.URL != "" && c.APIKey != ""
}

func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}

// Location resolves TimeZone.
func (c SearchConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("loading SEARCH_TIMEZONE %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt32(key string, fallback int32) int32 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(i)
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
