package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const devSessionSecret = "dev-session-secret-change-in-production-32"

// DefaultSessionMaxAge keeps the session cookie until the backend rejects its token.
// Browsers cap persistent cookies well below this, so it reads as "never" in practice.
const DefaultSessionMaxAge = 10 * 365 * 24 * time.Hour

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SessionConfig struct {
	Secret     string
	CookieName string
	Secure     bool
	MaxAge     time.Duration
}

type ObservabilityConfig struct {
	ServiceName  string
	MetricsAddr  string
	PprofAddr    string
	OTLPEndpoint string
}

type Config struct {
	Env               string
	ServerPort        string
	LogLevel          string
	API               APIConfig
	Session           SessionConfig
	Observability     ObservabilityConfig
	DirectoryCacheTTL time.Duration
}

// IsDevelopment reports whether insecure defaults are acceptable.
func (c *Config) IsDevelopment() bool {
	return c.Env == "" || c.Env == "development" || c.Env == "test"
}

func Load() (*Config, error) {
	apiTimeout, err := getDurationOrDefault("API_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	maxAge, err := getDurationOrDefault("SESSION_MAX_AGE", DefaultSessionMaxAge)
	if err != nil {
		return nil, err
	}
	if maxAge < 0 {
		return nil, fmt.Errorf("invalid SESSION_MAX_AGE: must not be negative")
	}
	cacheTTL, err := getDurationOrDefault("DIRECTORY_CACHE_TTL", time.Minute)
	if err != nil {
		return nil, err
	}
	secure, err := strconv.ParseBool(getEnvOrDefault("COOKIE_SECURE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid COOKIE_SECURE: %w", err)
	}

	cfg := &Config{
		Env:        getEnvOrDefault("APP_ENV", "development"),
		ServerPort: getEnvOrDefault("SERVER_PORT", "8091"),
		LogLevel:   getEnvOrDefault("LOG_LEVEL", "info"),
		API: APIConfig{
			BaseURL: strings.TrimRight(getEnvOrDefault("MEDILIVE_API_URL", "http://localhost:8000/api"), "/"),
			Timeout: apiTimeout,
		},
		Session: SessionConfig{
			Secret:     os.Getenv("SESSION_SECRET"),
			CookieName: getEnvOrDefault("SESSION_COOKIE_NAME", "medilive_session"),
			Secure:     secure,
			MaxAge:     maxAge,
		},
		Observability: ObservabilityConfig{
			ServiceName:  getEnvOrDefault("OTEL_SERVICE_NAME", "medilive-templui"),
			MetricsAddr:  getEnvOrDefault("METRICS_ADDR", ":9092"),
			PprofAddr:    getEnvOrDefault("PPROF_ADDR", ":6060"),
			OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
		DirectoryCacheTTL: cacheTTL,
	}

	if cfg.Session.Secret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("SESSION_SECRET environment variable is required")
		}
		cfg.Session.Secret = devSessionSecret
	}
	if len(cfg.Session.Secret) < 32 {
		return nil, fmt.Errorf("SESSION_SECRET must be at least 32 characters")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
