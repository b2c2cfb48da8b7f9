package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config captures runtime configuration sourced from environment variables.
// It is read once at startup and treated as immutable afterwards.
type Config struct {
	Environment  string
	HTTPPort     string
	DatabasePath string
	LogDir       string
	Debug        bool

	Delivery     DeliveryConfig
	Providers    ProvidersConfig
	Organization OrganizationConfig

	// TriggersFile optionally points at a YAML file of trigger rules.
	TriggersFile string
}

// DeliveryConfig bounds retries and schedules the background jobs.
type DeliveryConfig struct {
	MaxAttempts       int
	BackoffDelay      time.Duration
	ProviderTimeout   time.Duration
	Retention         time.Duration
	SweepSchedule     string
	RetentionSchedule string
	SweepConcurrency  int
}

// ProvidersConfig holds credentials for every delivery provider. A provider
// whose credentials are empty is not registered.
type ProvidersConfig struct {
	ResendAPIKey     string
	ResendFrom       string
	ResendBaseURL    string
	ResendRatePerSec int
	ShoutrrrURL      string
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	SMTPFrom         string
}

// OrganizationConfig feeds the system template variables.
type OrganizationConfig struct {
	Name    string
	Email   string
	Phone   string
	Website string
}

// Load reads env vars and falls back to defaults so the server can boot with zero configuration.
func Load() (Config, error) {
	cfg := Config{
		Environment:  getEnv("NOTIFIER_ENV", "development"),
		HTTPPort:     getEnv("NOTIFIER_HTTP_PORT", "8080"),
		DatabasePath: getEnv("NOTIFIER_DB_PATH", filepath.Join("data", "notifier.db")),
		LogDir:       getEnv("NOTIFIER_LOG_DIR", filepath.Join("data", "logs")),
		TriggersFile: getEnv("NOTIFIER_TRIGGERS_FILE", ""),
		Delivery: DeliveryConfig{
			SweepSchedule:     getEnv("NOTIFIER_SWEEP_SCHEDULE", "@every 5m"),
			RetentionSchedule: getEnv("NOTIFIER_RETENTION_SCHEDULE", "@daily"),
		},
		Providers: ProvidersConfig{
			ResendAPIKey:  getEnv("NOTIFIER_RESEND_API_KEY", ""),
			ResendFrom:    getEnv("NOTIFIER_RESEND_FROM", ""),
			ResendBaseURL: getEnv("NOTIFIER_RESEND_BASE_URL", ""),
			ShoutrrrURL:   getEnv("NOTIFIER_SHOUTRRR_URL", ""),
			SMTPHost:      getEnv("NOTIFIER_SMTP_HOST", ""),
			SMTPUsername:  getEnv("NOTIFIER_SMTP_USERNAME", ""),
			SMTPPassword:  getEnv("NOTIFIER_SMTP_PASSWORD", ""),
			SMTPFrom:      getEnv("NOTIFIER_SMTP_FROM", ""),
		},
		Organization: OrganizationConfig{
			Name:    getEnv("NOTIFIER_ORG_NAME", "Luxe Staycations"),
			Email:   getEnv("NOTIFIER_ORG_EMAIL", ""),
			Phone:   getEnv("NOTIFIER_ORG_PHONE", ""),
			Website: getEnv("NOTIFIER_ORG_WEBSITE", ""),
		},
	}

	var err error
	if cfg.Debug, err = getEnvBool("NOTIFIER_DEBUG", false); err != nil {
		return Config{}, err
	}
	if cfg.Delivery.MaxAttempts, err = getEnvInt("NOTIFIER_MAX_ATTEMPTS", 3); err != nil {
		return Config{}, err
	}
	if cfg.Delivery.SweepConcurrency, err = getEnvInt("NOTIFIER_SWEEP_CONCURRENCY", 4); err != nil {
		return Config{}, err
	}
	if cfg.Delivery.BackoffDelay, err = getEnvDuration("NOTIFIER_BACKOFF_DELAY", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Delivery.ProviderTimeout, err = getEnvDuration("NOTIFIER_PROVIDER_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Delivery.Retention, err = getEnvDuration("NOTIFIER_RETENTION", 30*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.Providers.ResendRatePerSec, err = getEnvInt("NOTIFIER_RESEND_RATE_PER_SEC", 2); err != nil {
		return Config{}, err
	}
	if cfg.Providers.SMTPPort, err = getEnvInt("NOTIFIER_SMTP_PORT", 587); err != nil {
		return Config{}, err
	}

	if cfg.Delivery.MaxAttempts < 1 {
		return Config{}, fmt.Errorf("NOTIFIER_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.Delivery.BackoffDelay < 0 {
		return Config{}, fmt.Errorf("NOTIFIER_BACKOFF_DELAY must not be negative")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
