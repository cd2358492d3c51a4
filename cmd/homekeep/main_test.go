package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "homekeep dev\n", out)
}

func TestMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "homekeep.db")
	t.Setenv("HOMEKEEP_DATABASE_PATH", path)
	t.Setenv("HOMEKEEP_LOG_LEVEL", "error")

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, path+" at schema version")
}

func TestMigrateRejectsMemoryBackend(t *testing.T) {
	t.Setenv("HOMEKEEP_DATABASE_BACKEND", "memory")
	t.Setenv("HOMEKEEP_LOG_LEVEL", "error")

	_, err := execute(t, "migrate")
	assert.ErrorContains(t, err, "sqlite backend")
}

func TestExportJSON(t *testing.T) {
	t.Setenv("HOMEKEEP_DATABASE_BACKEND", "memory")
	t.Setenv("HOMEKEEP_LOG_LEVEL", "error")

	out, err := execute(t, "export", "--format", "json")
	require.NoError(t, err)

	var snap map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Contains(t, snap, "exported_at")
}

func TestExportUnknownFormat(t *testing.T) {
	t.Setenv("HOMEKEEP_DATABASE_BACKEND", "memory")
	t.Setenv("HOMEKEEP_LOG_LEVEL", "error")

	_, err := execute(t, "export", "--format", "csv")
	assert.Error(t, err)
}

func TestBackupListDisabled(t *testing.T) {
	t.Setenv("HOMEKEEP_DATABASE_BACKEND", "memory")
	t.Setenv("HOMEKEEP_LOG_LEVEL", "error")

	_, err := execute(t, "backup", "list")
	assert.Error(t, err)
}
