package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/erg0nix/synapse/internal/core"
)

type RetryConfig struct {
	MaxAttempts int `toml:"max_attempts"`
	BackoffMs   int `toml:"backoff_ms"`
}

type DiagramConfig struct {
	// TierThresholds are the upper bounds of the lower weight tiers, in
	// ascending order. With [2, 5]: counts 1-2 map to tier 1, 3-5 to
	// tier 2, 6+ to tier 3.
	TierThresholds []int `toml:"tier_thresholds"`
}

type Config struct {
	Endpoint       string              `toml:"endpoint"`
	Model          string              `toml:"model"`
	DataDir        string              `toml:"data_dir"`
	ContentDir     string              `toml:"content_dir"`
	HistoryWindow  int                 `toml:"history_window"`
	TimeoutSeconds int                 `toml:"timeout_seconds"`
	Retry          RetryConfig         `toml:"retry"`
	Sampling       core.SamplingConfig `toml:"sampling"`
	Diagram        DiagramConfig       `toml:"diagram"`
}

func Default() Config {
	dataDir := defaultDataDir()
	return Config{
		Endpoint:       "http://127.0.0.1:11434",
		Model:          "gemma3:12b",
		DataDir:        dataDir,
		ContentDir:     filepath.Join(dataDir, "content"),
		HistoryWindow:  8,
		TimeoutSeconds: 300,
		Retry: RetryConfig{
			MaxAttempts: 3,
			BackoffMs:   500,
		},
		Diagram: DiagramConfig{
			TierThresholds: []int{2, 5},
		},
	}
}

func LoadOrCreate(path string) (Config, error) {
	config := Default()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return config, err
			}

			configData, err := toml.Marshal(config)
			if err != nil {
				return config, err
			}

			if err := os.WriteFile(path, configData, 0o644); err != nil {
				return config, err
			}

			return config, nil
		}

		return config, err
	}

	configData, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}

	if err := toml.Unmarshal(configData, &config); err != nil {
		return config, fmt.Errorf("parse %s: %w", path, err)
	}

	config.DataDir = expandPath(config.DataDir)
	config.ContentDir = expandPath(config.ContentDir)
	config.Endpoint = strings.TrimSpace(config.Endpoint)

	if config.ContentDir == "" {
		config.ContentDir = filepath.Join(config.DataDir, "content")
	}

	return config, config.validate()
}

func (c Config) SessionsDir() string {
	return filepath.Join(c.DataDir, "sessions")
}

func (c Config) validate() error {
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	if c.Model == "" {
		return errors.New("model is required")
	}
	if c.HistoryWindow < 0 {
		return fmt.Errorf("history_window must be non-negative, got %d", c.HistoryWindow)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if len(c.Diagram.TierThresholds) == 0 {
		return errors.New("diagram.tier_thresholds must not be empty")
	}
	prev := 0
	for _, threshold := range c.Diagram.TierThresholds {
		if threshold <= prev {
			return fmt.Errorf("diagram.tier_thresholds must be strictly ascending, got %v", c.Diagram.TierThresholds)
		}
		prev = threshold
	}
	return nil
}

func defaultDataDir() string {
	homeDir, _ := os.UserHomeDir()

	if homeDir == "" {
		return ".synapse"
	}

	return filepath.Join(homeDir, ".synapse")
}

func expandPath(path string) string {
	if path == "" {
		return ""
	}

	if strings.HasPrefix(path, "~") {
		homeDir, _ := os.UserHomeDir()

		if homeDir != "" {
			trimmed := strings.TrimPrefix(path, "~")
			trimmed = strings.TrimPrefix(trimmed, string(os.PathSeparator))

			return filepath.Join(homeDir, trimmed)
		}
	}

	return path
}
