package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Statistics recompute modes
const (
	StatsRecomputeSync  = "sync"
	StatsRecomputeAsync = "async"
)

// Config holds application configuration
type Config struct {
	DatabaseURL         string
	ServerPort          string
	FrontendURL         string
	EnableHSTS          bool
	RedisURL            string
	RabbitMQURL         string
	RabbitMQPrefetch    int
	DetectorURL         string
	DetectorTimeout     time.Duration
	DetectorConnections int
	ConfidenceThreshold float64
	SuggestionCap       int
	ConsumptionRatio    float64
	StatsRecomputeMode  string
	MaxFrameBytes       int64
	RateLimit           string
	JWTSecret           string
	JWTIssuer           string
	JWKSURL             string
	WorkerDebugMode     bool
	ServerDebugMode     bool
	OTELEnabled         bool
	OTELEndpoint        string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:3000"),
		EnableHSTS:          getEnvBool("ENABLE_HSTS", false),
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RabbitMQURL:         getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch:    getEnvInt("RABBITMQ_PREFETCH", 1),
		DetectorURL:         getEnv("DETECTOR_URL", ""),
		DetectorTimeout:     getEnvDuration("DETECTOR_TIMEOUT", 10*time.Second),
		DetectorConnections: getEnvInt("DETECTOR_CONNECTIONS", 4),
		ConfidenceThreshold: getEnvFloat("CONFIDENCE_THRESHOLD", 0.5),
		SuggestionCap:       getEnvInt("SUGGESTION_CAP", 2),
		ConsumptionRatio:    getEnvFloat("CONSUMPTION_RATIO", 2.5),
		StatsRecomputeMode:  strings.ToLower(getEnv("STATS_RECOMPUTE_MODE", StatsRecomputeSync)),
		MaxFrameBytes:       int64(getEnvInt("MAX_FRAME_BYTES", 8<<20)),
		RateLimit:           getEnv("RATE_LIMIT", "600-M"),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTIssuer:           getEnv("JWT_ISSUER", ""),
		JWKSURL:             getEnv("JWKS_URL", ""),
		WorkerDebugMode:     getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:     getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:         getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:        getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	switch cfg.StatsRecomputeMode {
	case StatsRecomputeSync:
	case StatsRecomputeAsync:
		if cfg.RabbitMQURL == "" {
			return nil, fmt.Errorf("RABBITMQ_URL is required when STATS_RECOMPUTE_MODE is async")
		}
	default:
		return nil, fmt.Errorf("STATS_RECOMPUTE_MODE must be %q or %q, got %q", StatsRecomputeSync, StatsRecomputeAsync, cfg.StatsRecomputeMode)
	}

	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold >= 1 {
		return nil, fmt.Errorf("CONFIDENCE_THRESHOLD must be in [0, 1), got %v", cfg.ConfidenceThreshold)
	}
	if cfg.SuggestionCap <= 0 {
		return nil, fmt.Errorf("SUGGESTION_CAP must be positive, got %d", cfg.SuggestionCap)
	}
	if cfg.ConsumptionRatio <= 0 {
		return nil, fmt.Errorf("CONSUMPTION_RATIO must be positive, got %v", cfg.ConsumptionRatio)
	}
	if cfg.MaxFrameBytes <= 0 {
		return nil, fmt.Errorf("MAX_FRAME_BYTES must be positive, got %d", cfg.MaxFrameBytes)
	}

	return cfg, nil
}

// AsyncStatistics reports whether statistics are recomputed by the worker
func (c *Config) AsyncStatistics() bool {
	return c.StatsRecomputeMode == StatsRecomputeAsync
}

// AuthConfigured reports whether a token verification key source is set
func (c *Config) AuthConfigured() bool {
	return c.JWTSecret != "" || c.JWKSURL != ""
}

// AllowedOrigins splits FRONTEND_URL into CORS origins
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.FrontendURL, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
