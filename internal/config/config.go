// Package config loads the dashboard configuration from .brainboard.yaml at
// the data root via Viper. A missing file yields the defaults.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ThresholdHours configures one status's alert thresholds in whole hours.
type ThresholdHours struct {
	Yellow int `yaml:"yellow"`
	Red    int `yaml:"red"`
}

// Config holds every tunable of the dashboard process.
type Config struct {
	// DataDir is the root directory holding the store document, idea log,
	// and auxiliary resource files.
	DataDir string
	// Listen is the HTTP listen address for the API and websocket endpoint.
	Listen string
	// Debounce is the file-watch coalescing window.
	Debounce time.Duration
	// SweepInterval is the period of the stuck-task monitor.
	SweepInterval time.Duration
	// PollInterval is the subscriber polling fallback period.
	PollInterval time.Duration
	// Thresholds maps status name to alert thresholds, overriding the
	// built-in defaults per status.
	Thresholds map[string]ThresholdHours
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		DataDir:       ".",
		Listen:        "127.0.0.1:8177",
		Debounce:      300 * time.Millisecond,
		SweepInterval: 5 * time.Minute,
		PollInterval:  30 * time.Second,
		Thresholds:    map[string]ThresholdHours{},
	}
}

// Load reads .brainboard.yaml from the given directory. Missing file returns
// defaults; a malformed file is an error.
func Load(dir string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName(".brainboard")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("listen", cfg.Listen)
	v.SetDefault("debounce_ms", int(cfg.Debounce/time.Millisecond))
	v.SetDefault("sweep_interval_minutes", int(cfg.SweepInterval/time.Minute))
	v.SetDefault("poll_interval_seconds", int(cfg.PollInterval/time.Second))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .brainboard.yaml: %w", err)
	}

	cfg.DataDir = v.GetString("data_dir")
	cfg.Listen = v.GetString("listen")
	cfg.Debounce = time.Duration(v.GetInt("debounce_ms")) * time.Millisecond
	cfg.SweepInterval = time.Duration(v.GetInt("sweep_interval_minutes")) * time.Minute
	cfg.PollInterval = time.Duration(v.GetInt("poll_interval_seconds")) * time.Second

	// Per-status threshold overrides, e.g. thresholds.review.red: 8.
	if v.IsSet("thresholds") {
		var thresholds map[string]ThresholdHours
		if err := v.UnmarshalKey("thresholds", &thresholds); err != nil {
			return nil, fmt.Errorf("parsing thresholds: %w", err)
		}
		cfg.Thresholds = thresholds
	}

	return cfg, nil
}
