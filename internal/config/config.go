package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Metrics  MetricsConfig
	Backup   BackupConfig
}

type AppConfig struct {
	Env  string
	Port string
}

// DatabaseConfig selects the repository variant. Backend is "sqlite" or
// "memory"; Path is ignored for memory.
type DatabaseConfig struct {
	Backend string
	Path    string
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

type MetricsConfig struct {
	Enabled bool
}

type BackupConfig struct {
	Enabled       bool
	Interval      time.Duration
	RetentionDays int
	Passphrase    string
	S3            S3Config
}

type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.backend", BackendSQLite)
	v.SetDefault("database.path", "homekeep.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("http.read_timeout", 5*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)
	v.SetDefault("http.idle_timeout", 120*time.Second)
	v.SetDefault("http.rate_limit_requests", 120)
	v.SetDefault("http.rate_limit_window", time.Minute)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("backup.enabled", false)
	v.SetDefault("backup.interval", 24*time.Hour)
	v.SetDefault("backup.retention_days", 30)
	v.SetDefault("backup.s3.region", "us-east-1")
}

// Load reads configuration. Priority (highest to lowest):
// 1. Environment variables with HOMEKEEP_ prefix (e.g., HOMEKEEP_DATABASE_PATH)
// 2. the file at path, or homekeep.{toml,yaml} in . or /etc/homekeep
// 3. Built-in defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("homekeep")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/homekeep")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("HOMEKEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Backend: strings.ToLower(v.GetString("database.backend")),
			Path:    v.GetString("database.path"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
		},
		Backup: BackupConfig{
			Enabled:       v.GetBool("backup.enabled"),
			Interval:      v.GetDuration("backup.interval"),
			RetentionDays: v.GetInt("backup.retention_days"),
			Passphrase:    v.GetString("backup.passphrase"),
			S3: S3Config{
				Endpoint:  v.GetString("backup.s3.endpoint"),
				Bucket:    v.GetString("backup.s3.bucket"),
				Region:    v.GetString("backup.s3.region"),
				AccessKey: v.GetString("backup.s3.access_key"),
				SecretKey: v.GetString("backup.s3.secret_key"),
			},
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Backend {
	case BackendSQLite:
		if c.Database.Path == "" {
			return errors.New("database.path is required for the sqlite backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("database.backend must be %q or %q, got %q", BackendSQLite, BackendMemory, c.Database.Backend)
	}

	if c.App.Port == "" {
		return errors.New("app.port is required")
	}
	for name, d := range map[string]time.Duration{
		"http.read_timeout":  c.HTTP.ReadTimeout,
		"http.write_timeout": c.HTTP.WriteTimeout,
		"http.idle_timeout":  c.HTTP.IdleTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.HTTP.RateLimitRequests <= 0 || c.HTTP.RateLimitWindow <= 0 {
		return errors.New("http.rate_limit_requests and http.rate_limit_window must be positive")
	}

	if c.Backup.Enabled {
		if c.Backup.Interval <= 0 {
			return errors.New("backup.interval must be positive")
		}
		if c.Backup.RetentionDays <= 0 {
			return errors.New("backup.retention_days must be positive")
		}
	}
	return nil
}

// BackupConfigured reports whether backups can run: enabled, on SQLite,
// with a bucket, credentials and a passphrase.
func (c *Config) BackupConfigured() bool {
	b := c.Backup
	return b.Enabled &&
		c.Database.Backend == BackendSQLite &&
		b.Passphrase != "" &&
		b.S3.Bucket != "" &&
		b.S3.AccessKey != "" &&
		b.S3.SecretKey != ""
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}
