package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/luki/aquadash/internal/sensor"
	"github.com/luki/aquadash/internal/state"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("AQUADASH_ENDPOINT", "")
	t.Setenv("AQUADASH_POLICY", "")
	t.Setenv("AQUADASH_LISTEN", "")
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("watch", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollInterval != 1500*time.Millisecond {
		t.Errorf("PollInterval: got %v", cfg.PollInterval)
	}
	if cfg.StaleAfter != 15*time.Second || cfg.MaxNotifications != 7 {
		t.Errorf("defaults: stale=%v max=%d", cfg.StaleAfter, cfg.MaxNotifications)
	}
	if cfg.NotifyPolicy() != state.Transition {
		t.Errorf("policy: got %v", cfg.NotifyPolicy())
	}
}

func TestLoadPriority(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "tank.yaml")
	yml := `endpoint: http://tank.local/api/data
poll_interval: 2s
stale_after: 30s
policy: per-sensor
thresholds:
  temp:
    min: 22
    max: 28
    danger_min: 20
    danger_max: 31
`
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AQUADASH_ENDPOINT", "http://env.local/api/data")

	cfg, err := Load("watch", []string{"-config", path, "-interval", "3s"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Endpoint != "http://env.local/api/data" {
		t.Errorf("env should override file: %q", cfg.Endpoint)
	}
	if cfg.PollInterval != 3*time.Second {
		t.Errorf("flag should override file: %v", cfg.PollInterval)
	}
	if cfg.StaleAfter != 30*time.Second {
		t.Errorf("file should override default: %v", cfg.StaleAfter)
	}
	if cfg.NotifyPolicy() != state.PerSensor {
		t.Errorf("policy: %v", cfg.NotifyPolicy())
	}
	if cfg.Thresholds.Lookup(sensor.Temp).Min != 22 {
		t.Errorf("temp threshold not loaded: %+v", cfg.Thresholds.Lookup(sensor.Temp))
	}
	if cfg.Thresholds.Lookup(sensor.TDS).DangerMin != 200 {
		t.Errorf("untouched thresholds should keep defaults: %+v", cfg.Thresholds.Lookup(sensor.TDS))
	}
}

func TestLoadPartialThreshold(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "partial.yaml")
	if err := os.WriteFile(path, []byte("thresholds:\n  tds:\n    min: 350\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load("watch", []string{"-config", path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := cfg.Thresholds.Lookup(sensor.TDS)
	if got.Min != 350 || got.Max != 600 || got.DangerMin != 200 || got.DangerMax != 1000 {
		t.Errorf("tds bounds: %+v", got)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bad.yaml")
	yml := "thresholds:\n  ph:\n    min: 8\n    max: 7\n    danger_min: 6\n    danger_max: 9\n"
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load("watch", []string{"-config=" + path}); err == nil || !strings.Contains(err.Error(), "ph") {
		t.Errorf("expected ph threshold error, got %v", err)
	}

	if _, err := Load("watch", []string{"-policy", "sometimes"}); err == nil {
		t.Error("expected policy error")
	}
	if _, err := Load("watch", []string{"-interval", "0s"}); err == nil {
		t.Error("expected interval error")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	if _, err := Load("watch", []string{"-config", filepath.Join(dir, "nope.yaml")}); err == nil {
		t.Error("explicit missing config should fail")
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(path, []byte("poll_interval: [1, 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load("watch", []string{"-config", path}); err == nil {
		t.Error("malformed yaml should fail")
	}
}
