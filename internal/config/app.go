package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig holds the small set of process-wide settings that sit
// outside the pattern grammar itself — the split texpand makes
// between its YAML `config.yml` app settings and its rule-bearing
// match files.
type AppConfig struct {
	// HistoryCap overrides the soft cap on retained history entries.
	// Zero means "use the default".
	HistoryCap int `yaml:"history_cap"`

	// SinkTimeout bounds how long a dispatched command may run before
	// it is treated as hung, mirroring chzchzchz-pedals' cmdTimeout.
	SinkTimeout time.Duration `yaml:"sink_timeout"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
}

// DefaultAppConfig returns the settings used when no pedalrc.yml is
// present or a field is left unset.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		HistoryCap:  256,
		SinkTimeout: 5 * time.Second,
		LogLevel:    "info",
	}
}

// LoadAppConfig reads path (if it exists) and overlays it on
// DefaultAppConfig. A missing file is not an error.
func LoadAppConfig(path string) (AppConfig, error) {
	cfg := DefaultAppConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	var overlay AppConfig
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if overlay.HistoryCap > 0 {
		cfg.HistoryCap = overlay.HistoryCap
	}
	if overlay.SinkTimeout > 0 {
		cfg.SinkTimeout = overlay.SinkTimeout
	}
	if overlay.LogLevel != "" {
		cfg.LogLevel = overlay.LogLevel
	}
	return cfg, nil
}
