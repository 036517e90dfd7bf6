// Package config loads dashboard settings with priority
// defaults < config file < environment < flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/luki/aquadash/internal/blink"
	"github.com/luki/aquadash/internal/notify"
	"github.com/luki/aquadash/internal/poll"
	"github.com/luki/aquadash/internal/staleness"
	"github.com/luki/aquadash/internal/state"
	"github.com/luki/aquadash/internal/threshold"
)

// Config holds the dashboard configuration.
type Config struct {
	Endpoint         string          `yaml:"endpoint"`
	PollInterval     time.Duration   `yaml:"poll_interval"`
	StaleAfter       time.Duration   `yaml:"stale_after"`
	Policy           string          `yaml:"policy"`
	BlinkPeriod      time.Duration   `yaml:"blink_period"`
	MaxNotifications int             `yaml:"max_notifications"`
	DesktopNotify    bool            `yaml:"desktop_notify"`
	LogFile          string          `yaml:"log_file"`
	Listen           string          `yaml:"listen"`
	Thresholds       threshold.Table `yaml:"-"`

	// Parsed from command line (not YAML)
	ConfigPath string `yaml:"-"`
}

// Default returns the factory configuration.
func Default() *Config {
	return &Config{
		Endpoint:         "http://127.0.0.1:5000/api/data",
		PollInterval:     poll.DefaultInterval,
		StaleAfter:       staleness.DefaultAfter,
		Policy:           state.Transition.String(),
		BlinkPeriod:      blink.DefaultPeriod,
		MaxNotifications: notify.DefaultMax,
		DesktopNotify:    true,
		LogFile:          "aquadash.log",
		Listen:           "127.0.0.1:5000",
		Thresholds:       threshold.Default(),
		ConfigPath:       Path(),
	}
}

// Path returns ~/.config/aquadash/config.yaml (or under XDG_CONFIG_HOME).
// Returns empty string if the home directory cannot be determined.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "aquadash", "config.yaml")
}

// Load builds the configuration for one subcommand from args (without the
// program name or subcommand). A missing default config file is fine; a
// missing file named with -config is an error.
func Load(name string, args []string) (*Config, error) {
	cfg := Default()

	configPath, explicit := scanConfigFlag(args)
	if configPath == "" {
		configPath = cfg.ConfigPath
	}
	if configPath != "" {
		if err := cfg.loadFile(configPath); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}
	cfg.ConfigPath = configPath

	if v := os.Getenv("AQUADASH_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("AQUADASH_POLICY"); v != "" {
		cfg.Policy = v
	}
	if v := os.Getenv("AQUADASH_LISTEN"); v != "" {
		cfg.Listen = v
	}

	fset := flag.NewFlagSet(name, flag.ContinueOnError)
	fset.StringVar(&cfg.ConfigPath, "config", cfg.ConfigPath, "Path to config.yaml")
	fset.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "Sensor data URL to poll")
	fset.DurationVar(&cfg.PollInterval, "interval", cfg.PollInterval, "Poll interval")
	fset.DurationVar(&cfg.StaleAfter, "stale-after", cfg.StaleAfter, "Age after which data counts as stale")
	fset.StringVar(&cfg.Policy, "policy", cfg.Policy, "Notification policy: transition or per-sensor")
	fset.DurationVar(&cfg.BlinkPeriod, "blink-period", cfg.BlinkPeriod, "Blink flip interval for stale series")
	fset.IntVar(&cfg.MaxNotifications, "max-notifications", cfg.MaxNotifications, "Most notifications shown at once")
	fset.BoolVar(&cfg.DesktopNotify, "desktop", cfg.DesktopNotify, "Push OS desktop notifications")
	fset.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Log file path (dashboard mode)")
	fset.StringVar(&cfg.Listen, "listen", cfg.Listen, "Listen address for the reference data source")
	if err := fset.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile merges a YAML file over cfg. Threshold bounds in the file
// replace the defaults one field at a time.
func (cfg *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file struct {
		Thresholds threshold.Overrides `yaml:"thresholds"`
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Thresholds = cfg.Thresholds.Merge(file.Thresholds)
	log.Printf("[config] loaded %s", path)
	return nil
}

// Validate rejects settings the dashboard cannot run with.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return errors.New("config: endpoint is required")
	}
	if _, err := state.ParsePolicy(cfg.Policy); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for name, d := range map[string]time.Duration{
		"poll_interval": cfg.PollInterval,
		"stale_after":   cfg.StaleAfter,
		"blink_period":  cfg.BlinkPeriod,
	} {
		if d <= 0 {
			return fmt.Errorf("config: %s must be positive, got %s", name, d)
		}
	}
	if cfg.MaxNotifications <= 0 {
		return fmt.Errorf("config: max_notifications must be positive, got %d", cfg.MaxNotifications)
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// NotifyPolicy returns the parsed notification policy.
func (cfg *Config) NotifyPolicy() state.Policy {
	p, _ := state.ParsePolicy(cfg.Policy)
	return p
}

// scanConfigFlag finds -config before flag parsing so the file can be read
// first and flags still override it.
func scanConfigFlag(args []string) (string, bool) {
	for i, arg := range args {
		switch {
		case arg == "-config" || arg == "--config":
			if i+1 < len(args) {
				return args[i+1], true
			}
		case strings.HasPrefix(arg, "-config=") || strings.HasPrefix(arg, "--config="):
			return strings.SplitN(arg, "=", 2)[1], true
		}
	}
	return "", false
}
