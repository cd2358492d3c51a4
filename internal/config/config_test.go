package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, BackendSQLite, cfg.Database.Backend)
	assert.Equal(t, "homekeep.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, 120*time.Second, cfg.HTTP.IdleTimeout)
	assert.Equal(t, 120, cfg.HTTP.RateLimitRequests)
	assert.True(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.BackupConfigured())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOMEKEEP_DATABASE_BACKEND", "memory")
	t.Setenv("HOMEKEEP_APP_PORT", "9000")
	t.Setenv("HOMEKEEP_HTTP_READ_TIMEOUT", "2s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Database.Backend)
	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, 2*time.Second, cfg.HTTP.ReadTimeout)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "homekeep.yaml")
	err := os.WriteFile(path, []byte(`
log:
  level: debug
  format: json
backup:
  enabled: true
  passphrase: hunter2
  s3:
    bucket: homes
    access_key: AK
    secret_key: SK
`), 0o600)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.BackupConfigured())
	assert.Equal(t, 24*time.Hour, cfg.Backup.Interval)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:      AppConfig{Port: "8080"},
			Database: DatabaseConfig{Backend: BackendSQLite, Path: "x.db"},
			HTTP: HTTPConfig{
				ReadTimeout: time.Second, WriteTimeout: time.Second, IdleTimeout: time.Second,
				RateLimitRequests: 1, RateLimitWindow: time.Second,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"memory backend", func(c *Config) { c.Database = DatabaseConfig{Backend: BackendMemory} }, false},
		{"unknown backend", func(c *Config) { c.Database.Backend = "postgres" }, true},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }, true},
		{"zero read timeout", func(c *Config) { c.HTTP.ReadTimeout = 0 }, true},
		{"negative idle timeout", func(c *Config) { c.HTTP.IdleTimeout = -time.Second }, true},
		{"zero rate limit", func(c *Config) { c.HTTP.RateLimitRequests = 0 }, true},
		{"backup without interval", func(c *Config) {
			c.Backup = BackupConfig{Enabled: true, RetentionDays: 1}
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBackupConfiguredRequiresSQLite(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Backend: BackendMemory},
		Backup: BackupConfig{
			Enabled: true, Passphrase: "p",
			S3: S3Config{Bucket: "b", AccessKey: "a", SecretKey: "s"},
		},
	}
	assert.False(t, cfg.BackupConfigured())
}
