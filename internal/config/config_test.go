package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadOrCreate_WritesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	defaults := Default()
	if cfg.Endpoint != defaults.Endpoint || cfg.Model != defaults.Model {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if cfg.HistoryWindow != 8 || cfg.Retry.MaxAttempts != 3 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	// Second load reads the written file and round-trips.
	again, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if again.Endpoint != cfg.Endpoint || again.HistoryWindow != cfg.HistoryWindow {
		t.Fatalf("round-trip mismatch: %+v vs %+v", again, cfg)
	}
}

func TestLoadOrCreate_ParsesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
endpoint = "http://localhost:9999 "
model = "qwen3:8b"
history_window = 4
timeout_seconds = 60

[retry]
max_attempts = 5
backoff_ms = 100

[sampling]
temperature = 0.7
top_k = 50

[diagram]
tier_thresholds = [3, 9]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Endpoint != "http://localhost:9999" {
		t.Fatalf("endpoint not trimmed: %q", cfg.Endpoint)
	}
	if cfg.Model != "qwen3:8b" || cfg.HistoryWindow != 4 || cfg.Retry.MaxAttempts != 5 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Sampling.Temperature == nil || *cfg.Sampling.Temperature != 0.7 {
		t.Fatalf("sampling temperature not parsed: %+v", cfg.Sampling)
	}
	if cfg.Sampling.TopP != nil {
		t.Fatal("unset sampling fields must stay nil")
	}
	if len(cfg.Diagram.TierThresholds) != 2 || cfg.Diagram.TierThresholds[1] != 9 {
		t.Fatalf("thresholds not parsed: %v", cfg.Diagram.TierThresholds)
	}
}

func TestLoadOrCreate_ContentDirDefaultsUnderDataDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
endpoint = "http://localhost:11434"
model = "m"
data_dir = "/tmp/synapse-test"

[diagram]
tier_thresholds = [2, 5]

[retry]
max_attempts = 1
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ContentDir != filepath.Join("/tmp/synapse-test", "content") {
		t.Fatalf("unexpected content dir: %q", cfg.ContentDir)
	}
	if cfg.SessionsDir() != filepath.Join("/tmp/synapse-test", "sessions") {
		t.Fatalf("unexpected sessions dir: %q", cfg.SessionsDir())
	}
}

func TestLoadOrCreate_Invalid(t *testing.T) {
	cases := []struct {
		name string
		data string
		want string
	}{
		{
			name: "empty endpoint",
			data: "endpoint = \"\"\nmodel = \"m\"\n[diagram]\ntier_thresholds = [2]\n[retry]\nmax_attempts = 1\n",
			want: "endpoint",
		},
		{
			name: "empty model",
			data: "endpoint = \"http://x\"\nmodel = \"\"\n[diagram]\ntier_thresholds = [2]\n[retry]\nmax_attempts = 1\n",
			want: "model",
		},
		{
			name: "descending thresholds",
			data: "endpoint = \"http://x\"\nmodel = \"m\"\n[diagram]\ntier_thresholds = [5, 2]\n[retry]\nmax_attempts = 1\n",
			want: "ascending",
		},
		{
			name: "zero retry attempts",
			data: "endpoint = \"http://x\"\nmodel = \"m\"\n[diagram]\ntier_thresholds = [2]\n[retry]\nmax_attempts = 0\n",
			want: "max_attempts",
		},
		{
			name: "negative history window",
			data: "endpoint = \"http://x\"\nmodel = \"m\"\nhistory_window = -1\n[diagram]\ntier_thresholds = [2]\n[retry]\nmax_attempts = 1\n",
			want: "history_window",
		},
		{
			name: "malformed toml",
			data: "endpoint = [broken",
			want: "parse",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.data), 0o644); err != nil {
				t.Fatal(err)
			}

			_, err := LoadOrCreate(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}
