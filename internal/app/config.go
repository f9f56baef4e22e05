package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/denguechat/denguechat-admin/internal/dashboard"
	"github.com/denguechat/denguechat-admin/internal/i18n"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"60s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"45s"`
	AppRateLimit      int           `envconfig:"APP_RATE_LIMIT" default:"120"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	APIBaseURL   string        `envconfig:"API_BASE_URL" required:"true"`
	APITimeout   time.Duration `envconfig:"API_TIMEOUT" default:"15s"`
	APIRateLimit float64       `envconfig:"API_RATE_LIMIT" default:"20"`
	APIRateBurst int           `envconfig:"API_RATE_BURST" default:"40"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"720h"`
	LookupTTL     time.Duration `envconfig:"LOOKUP_TTL" default:"5m"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	// PGDSN enables the persistent audit log; empty keeps events in the
	// application log only.
	PGDSN          string        `envconfig:"PG_DSN"`
	AuditRetention time.Duration `envconfig:"AUDIT_RETENTION" default:"2160h"`

	WorkerConcurrency int    `envconfig:"WORKER_CONCURRENCY" default:"5"`
	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR" default:":9091"`

	GotenbergURL string `envconfig:"GOTENBERG_URL"`

	DefaultLanguage string `envconfig:"DEFAULT_LANGUAGE" default:"es"`

	ReportRiskURL          string `envconfig:"REPORT_RISK_URL"`
	ReportVisitsURL        string `envconfig:"REPORT_VISITS_URL"`
	ReportBreedingSitesURL string `envconfig:"REPORT_BREEDING_SITES_URL"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret must be provided")
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	if cfg.APIBaseURL == "" {
		return nil, errors.New("api base url must be provided")
	}
	if cfg.AuditRetention < time.Hour {
		return nil, fmt.Errorf("audit retention must be at least 1h, got %s", cfg.AuditRetention)
	}
	if !i18n.IsSupported(cfg.DefaultLanguage) {
		cfg.DefaultLanguage = i18n.Default()
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// Reports lists the embedded analytics reports in display order.
func (c *Config) Reports() []dashboard.Report {
	return []dashboard.Report{
		{Title: "Risk map", URL: c.ReportRiskURL},
		{Title: "Visits", URL: c.ReportVisitsURL},
		{Title: "Breeding sites", URL: c.ReportBreedingSitesURL},
	}
}
