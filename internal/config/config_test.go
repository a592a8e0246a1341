package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AWS_REGION", "")
	t.Setenv("REGION", "")

	cfg, err := Load(NewViper(), "")

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("ASSUME_ROLE_MODE", "true")
	t.Setenv("TEST_MODE_TOKEN", "DRYRUN")
	t.Setenv("MAX_HISTORY_PAGES", "5")
	t.Setenv("HISTORY_PAGE_SIZE", "25")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AWS_REGION", "eu-west-1")

	cfg, err := Load(NewViper(), "")

	require.NoError(t, err)
	assert.True(t, cfg.AssumeRoleMode)
	assert.Equal(t, "DRYRUN", cfg.TestModeToken)
	assert.Equal(t, 5, cfg.MaxHistoryPages)
	assert.Equal(t, int32(25), cfg.HistoryPageSize)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "eu-west-1", cfg.Region)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s3pab.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
assume_role_mode: true
role_session_name: local-run
log_format: json
`), 0o600))

	cfg, err := Load(NewViper(), path)

	require.NoError(t, err)
	assert.True(t, cfg.AssumeRoleMode)
	assert.Equal(t, "local-run", cfg.RoleSessionName)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "TESTMODE", cfg.TestModeToken)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("HISTORY_PAGE_SIZE", "500")
	t.Setenv("LOG_FORMAT", "xml")

	_, err := Load(NewViper(), "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HistoryPageSize")
	assert.Contains(t, err.Error(), "LogFormat")
}
