package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pedalrc/pedalrc/internal/config"
)

func TestDefaultAppConfig(t *testing.T) {
	cfg := config.DefaultAppConfig()
	require.Equal(t, 256, cfg.HistoryCap)
	require.Equal(t, 5*time.Second, cfg.SinkTimeout)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadAppConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.LoadAppConfig(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	require.Equal(t, config.DefaultAppConfig(), cfg)
}

func TestLoadAppConfigOverlaysOnlySetFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pedalrc.yml")
	require.NoError(t, os.WriteFile(path, []byte("history_cap: 64\n"), 0o644))

	cfg, err := config.LoadAppConfig(path)
	require.NoError(t, err)
	require.Equal(t, 64, cfg.HistoryCap)
	require.Equal(t, 5*time.Second, cfg.SinkTimeout)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadAppConfigMalformedYAMLErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pedalrc.yml")
	require.NoError(t, os.WriteFile(path, []byte("history_cap: [unterminated\n"), 0o644))

	_, err := config.LoadAppConfig(path)
	require.Error(t, err)
}
