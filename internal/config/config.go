package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
// Values come from a .env file, then environment variables, then defaults.
type Config struct {
	// Server
	Port     int    `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// External services
	DirectoryAPIURL string `mapstructure:"DIRECTORY_API_URL"`
	DecisionAPIURL  string `mapstructure:"DECISION_API_URL"`
	StrategyAPIURL  string `mapstructure:"STRATEGY_API_URL"`

	// HTTP client
	HTTPTimeout time.Duration `mapstructure:"HTTP_TIMEOUT"`

	// Resilience
	MaxRetries     int           `mapstructure:"MAX_RETRIES"`
	InitialBackoff time.Duration `mapstructure:"INITIAL_BACKOFF"`

	// Wizard sessions
	SessionTTL time.Duration `mapstructure:"SESSION_TTL"`

	// Observability
	OTLPEndpoint   string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TracingEnabled bool   `mapstructure:"TRACING_ENABLED"`

	// JWT / Auth
	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	ServiceTokenTTL time.Duration `mapstructure:"SERVICE_TOKEN_TTL"`
	AuthRequired    bool          `mapstructure:"AUTH_REQUIRED"`

	// HTTP surface
	CORSAllowedOrigins string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RateLimitRequests  int           `mapstructure:"RATE_LIMIT_REQUESTS"`
	RateLimitWindow    time.Duration `mapstructure:"RATE_LIMIT_WINDOW"`
}

var defaults = map[string]any{
	"PORT":      8080,
	"LOG_LEVEL": "info",

	// os três colaboradores respondem no mesmo host por padrão
	"DIRECTORY_API_URL": "http://localhost:6012",
	"DECISION_API_URL":  "http://localhost:6012",
	"STRATEGY_API_URL":  "http://localhost:6012",

	"HTTP_TIMEOUT":    "10s",
	"MAX_RETRIES":     3,
	"INITIAL_BACKOFF": "100ms",
	"SESSION_TTL":     "30m",

	"OTEL_EXPORTER_OTLP_ENDPOINT": "localhost:4317",
	"TRACING_ENABLED":             false,

	"JWT_SECRET":        "bfa-default-dev-secret-change-me",
	"SERVICE_TOKEN_TTL": "5m",
	"AUTH_REQUIRED":     false,

	"CORS_ALLOWED_ORIGINS": "*",
	"RATE_LIMIT_REQUESTS":  60,
	"RATE_LIMIT_WINDOW":    "1m",
}

// Load reads configuration from envFile (ignored when missing) and the
// environment. Environment variables win over the file.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", envFile, err)
	}

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.RateLimitRequests > 0 && c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow)
	}
	return nil
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
