// Package config defines the server configuration and how it is loaded.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DevJWTSecret is the signing key used when none is configured. It is public,
// so Validate refuses it once the admin login is enabled.
const DevJWTSecret = "empatia-dev-secret"

// MinJWTSecretLen is the shortest signing key accepted with the admin login enabled.
const MinJWTSecretLen = 32

// Storage backends accepted by the server.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config contains process configuration.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Storage selects the response store: sqlite or memory.
	Storage       string `koanf:"storage"`
	SQLitePath    string `koanf:"sqlite_path"`
	MigrationsDir string `koanf:"migrations_dir"`

	// StaticDir, when set, is served at / for the questionnaire front end.
	StaticDir string `koanf:"static_dir"`

	// StaticMaxAge is the browser cache lifetime of static assets; 0 disables it.
	StaticMaxAge time.Duration `koanf:"static_max_age"`

	JWTSecret         string        `koanf:"jwt_secret"`
	AdminPasswordHash string        `koanf:"admin_password_hash"`
	AdminTokenTTL     time.Duration `koanf:"admin_token_ttl"`

	// RedisAddr enables the statistics cache when non-empty.
	RedisAddr     string        `koanf:"redis_addr"`
	StatsCacheTTL time.Duration `koanf:"stats_cache_ttl"`

	// TimelineDays is the default window of the daily timeline.
	TimelineDays int `koanf:"timeline_days"`

	// Timezone is the IANA zone used to cut the timeline into calendar days.
	Timezone string `koanf:"timezone"`

	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Addr:            ":8080",
		LogLevel:        "info",
		Storage:         StorageSQLite,
		SQLitePath:      "./data/empatia.db",
		JWTSecret:       DevJWTSecret,
		StaticMaxAge:    time.Hour,
		AdminTokenTTL:   12 * time.Hour,
		StatsCacheTTL:   time.Minute,
		TimelineDays:    30,
		Timezone:        "UTC",
		ShutdownTimeout: 10 * time.Second,
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("addr must not be empty")
	}
	switch c.Storage {
	case StorageSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return errors.New("sqlite_path must not be empty")
		}
	case StorageMemory:
	default:
		return errors.Errorf("unknown storage %q", c.Storage)
	}
	if c.AdminPasswordHash != "" {
		secret := strings.TrimSpace(c.JWTSecret)
		if secret == "" || secret == DevJWTSecret {
			return errors.New("jwt_secret must be set when admin_password_hash is configured")
		}
		if len(secret) < MinJWTSecretLen {
			return errors.Errorf("jwt_secret must be at least %d bytes", MinJWTSecretLen)
		}
	}
	if c.TimelineDays <= 0 {
		return errors.New("timeline_days must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone; an empty value means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "timezone %q", c.Timezone)
	}
	return loc, nil
}
