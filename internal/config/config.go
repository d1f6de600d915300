package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/viper"
)

type AutocancelConfig struct {
	// Master switch for the background sweep. Checked once per tick.
	Enabled bool `mapstructure:"enabled"`
	// Cron expression for the sweep cadence.
	Cron string `mapstructure:"cron"`
	// Seconds a reservation must be past its start before absence is judged.
	GraceSeconds uint `mapstructure:"grace_seconds"`
	// How far back to look for presence pings, in hours.
	LookbackHours uint `mapstructure:"lookback_hours"`
	// Soft deadline for a single sweep tick, in seconds. Zero disables it.
	TickTimeoutSeconds uint `mapstructure:"tick_timeout_seconds"`
}

func (a AutocancelConfig) Grace() time.Duration {
	return time.Duration(a.GraceSeconds) * time.Second
}

func (a AutocancelConfig) Lookback() time.Duration {
	return time.Duration(a.LookbackHours) * time.Hour
}

func (a AutocancelConfig) TickTimeout() time.Duration {
	return time.Duration(a.TickTimeoutSeconds) * time.Second
}

type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// Enabled reports whether SMTP delivery is configured at all.
func (e EmailConfig) Enabled() bool {
	return e.Host != ""
}

type Config struct {
	// Secret key for signing session tokens. Must be set in production.
	Secret string `mapstructure:"secret"`
	// Session token TTL in hours.
	TokenTTLHours uint   `mapstructure:"token_ttl_hours"`
	LogLevel      string `mapstructure:"log_level"`

	// Minutes after a reservation's start during which the owner may still
	// edit or cancel it. Superusers are not bound by this.
	GraceMinutes uint `mapstructure:"grace_minutes"`

	// Reservations whose end is older than this many days are purged by the
	// retention sweep. Zero keeps everything.
	RetentionDays uint `mapstructure:"retention_days"`

	// Base URL for the application, used when rendering check-in URLs.
	BaseURL string `mapstructure:"base_url"`

	Autocancel AutocancelConfig `mapstructure:"autocancel"`
	Email      EmailConfig      `mapstructure:"email"`
	Storage    Storage          `mapstructure:"storage"`
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

func (c *Config) EditGrace() time.Duration {
	return time.Duration(c.GraceMinutes) * time.Minute
}

var Cfg *Config

// Check if running in Docker container by checking for the presence of /.dockerenv file
func runningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}

func getConfigPath() string {
	if runningInDocker() {
		return "/app/instance"
	}
	return "./instance"
}

// LoadConfig reads configuration from environment variables and an optional
// config file, and returns a Config struct.
func LoadConfig(configFile ...string) (*Config, error) {
	var cfg Config

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(getConfigPath())
	v.AddConfigPath(".")
	v.SetEnvPrefix("")

	if len(configFile) > 0 {
		for _, path := range configFile {
			v.SetConfigFile(path)
		}
	}

	for k, val := range Defaults() {
		v.SetDefault(k, val)
	}

	// Load configuration from environment variables
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if len(configFile) > 0 || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// No config file anywhere on the search path; env and defaults apply.
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %v", err)
	}

	// Convert relative sqlite path to the instance folder
	if cfg.Storage.SQLite != nil {
		switch path := cfg.Storage.SQLite.Path; {
		case path == "":
			return nil, fmt.Errorf("storage.sqlite.path must not be empty")
		case path == ":memory:":
			// In-memory database, do nothing
		case !os.IsPathSeparator(path[0]):
			cfg.Storage.SQLite.Path = fmt.Sprintf("%s/%s", getConfigPath(), path)
		}
	}

	// Warn if secret is missing - this is a critical security setting for production
	if cfg.Secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("SECRET configuration variable is required in production")
		} else {
			slog.Warn("Secret is not set. Do not use in production.")
		}
	}

	return &cfg, nil
}
