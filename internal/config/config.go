package config

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

type Config struct {
	Addr        string // API bind address, e.g. "127.0.0.1:8080" or ":8080" in Docker
	LogDir      string
	LogLevel    string // debug, info, warn, error
	DatabaseURL string // empty means in-memory store

	// Monitored dependencies. An empty URL (or datastore key) leaves that
	// category absent from every snapshot.
	FrontendURL  string
	BackendURL   string
	DatastoreURL string
	DatastoreKey string

	CheckInterval time.Duration
	RetentionDays int

	RetryAttempts int           // snapshot write attempts per cycle
	RetryBackoff  time.Duration // pause between write attempts

	AllowedOrigins []string
	PublicAPIKeys  []string
	AdminAPIKeys   []string
	PublicRPM      int
	PublicBurst    int
	AdminRPM       int
	AdminBurst     int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_ADDR", "127.0.0.1:8080")
	v.SetDefault("LOG_DIR", "logs")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HEALTH_CHECK_INTERVAL_MINUTES", 5)
	v.SetDefault("HEALTH_CHECK_RETENTION_DAYS", 30)
	v.SetDefault("RETRY_ATTEMPTS", 2)
	v.SetDefault("RETRY_BACKOFF_MS", 300)
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("PUBLIC_RPM", 120)
	v.SetDefault("PUBLIC_BURST", 60)
	v.SetDefault("ADMIN_RPM", 600)
	v.SetDefault("ADMIN_BURST", 120)
}

// FromEnv reads the process environment on top of built-in defaults.
func FromEnv() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := Config{
		Addr:        v.GetString("API_ADDR"),
		LogDir:      v.GetString("LOG_DIR"),
		LogLevel:    strings.ToLower(v.GetString("LOG_LEVEL")),
		DatabaseURL: v.GetString("DATABASE_URL"),

		FrontendURL:  strings.TrimSpace(v.GetString("FRONTEND_URL_HEALTH_CHECK")),
		BackendURL:   strings.TrimSpace(v.GetString("BACKEND_URL_HEALTH_CHECK")),
		DatastoreURL: strings.TrimSpace(v.GetString("DATASTORE_URL_HEALTH_CHECK")),
		DatastoreKey: strings.TrimSpace(v.GetString("DATASTORE_KEY_HEALTH_CHECK")),

		CheckInterval: time.Duration(v.GetInt("HEALTH_CHECK_INTERVAL_MINUTES")) * time.Minute,
		RetentionDays: v.GetInt("HEALTH_CHECK_RETENTION_DAYS"),

		RetryAttempts: v.GetInt("RETRY_ATTEMPTS"),
		RetryBackoff:  time.Duration(v.GetInt("RETRY_BACKOFF_MS")) * time.Millisecond,

		AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
		PublicAPIKeys:  splitList(v.GetString("PUBLIC_API_KEYS")),
		AdminAPIKeys:   splitList(v.GetString("ADMIN_API_KEYS")),
		PublicRPM:      v.GetInt("PUBLIC_RPM"),
		PublicBurst:    v.GetInt("PUBLIC_BURST"),
		AdminRPM:       v.GetInt("ADMIN_RPM"),
		AdminBurst:     v.GetInt("ADMIN_BURST"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects values the service cannot run with. Probe URLs are not
// checked here: a malformed one surfaces as a down probe, not a boot failure.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.LogDir, validation.Required),
		validation.Field(&c.LogLevel, validation.Required, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.CheckInterval, validation.Required.Error("must be at least 1 minute"), validation.Min(time.Minute)),
		validation.Field(&c.RetentionDays, validation.Required, validation.Min(1)),
		validation.Field(&c.RetryAttempts, validation.Required, validation.Min(1)),
		validation.Field(&c.RetryBackoff, validation.Min(time.Duration(0))),
		validation.Field(&c.PublicRPM, validation.Min(0)),
		validation.Field(&c.PublicBurst, validation.Min(0)),
		validation.Field(&c.AdminRPM, validation.Min(0)),
		validation.Field(&c.AdminBurst, validation.Min(0)),
	)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
