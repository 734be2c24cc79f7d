// Package config loads the asana server configuration from a YAML file with
// environment overrides.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "asana.yaml"

// Config is the full server configuration.
type Config struct {
	Addr        string `yaml:"addr"`
	DBPath      string `yaml:"db_path"`
	SamplesPath string `yaml:"samples_path"`
	Delimiter   string `yaml:"delimiter"`
	PluginDir   string `yaml:"plugin_dir"`
	// StaticDir is served at / when set.
	StaticDir   string `yaml:"static_dir"`

	Classifier ClassifierConfig  `yaml:"classifier"`
	Smoothing  SmoothingConfig   `yaml:"smoothing"`
	Counters   []CounterConfig   `yaml:"counters"`
	Display    map[string]string `yaml:"display_names"`

	// SessionIdleTimeout closes sessions that received no frame for this long.
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout"`
	ReaperSchedule     string        `yaml:"reaper_schedule"`
	PluginTimeoutMs    int           `yaml:"plugin_timeout_ms"`

	// Tray shows a system tray menu while the server runs.
	Tray bool `yaml:"tray"`
}

// ClassifierConfig tunes the nearest-neighbor classifier.
type ClassifierConfig struct {
	K               int       `yaml:"k"`
	MaxDistanceTopK int       `yaml:"max_distance_top_k"`
	AxesWeights     []float64 `yaml:"axes_weights"`
}

// SmoothingConfig tunes the per-session moving average.
type SmoothingConfig struct {
	Window     int           `yaml:"window"`
	Alpha      float64       `yaml:"alpha"`
	ResetAfter time.Duration `yaml:"reset_after"`
}

// CounterConfig declares one counted class and its hysteresis thresholds.
type CounterConfig struct {
	Class string  `yaml:"class"`
	Enter float64 `yaml:"enter"`
	Exit  float64 `yaml:"exit"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	var cfg Config
	cfg.Smoothing.ResetAfter = 100 * time.Millisecond
	cfg.applyDefaults()
	return cfg
}

// Load reads the file named by $CONFIG_PATH, or asana.yaml, applies ASANA_*
// environment overrides and fills in defaults. A missing file is not an error.
func Load() (Config, error) {
	path := defaultConfigPath
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		path = envPath
	}
	return LoadFile(path)
}

// LoadFile is Load with an explicit file path. The file is decoded over
// Default, so keys it omits keep their default and an explicit
// smoothing.reset_after of 0 disables the reset.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
		log.Printf("Loaded config from %s", path)
	case os.IsNotExist(err):
	default:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	envOverride(&cfg.Addr, "ASANA_ADDR")
	envOverride(&cfg.DBPath, "ASANA_DB_PATH")
	envOverride(&cfg.SamplesPath, "ASANA_SAMPLES_PATH")
	envOverride(&cfg.PluginDir, "ASANA_PLUGIN_DIR")
	envOverride(&cfg.StaticDir, "ASANA_STATIC_DIR")
	if err := envOverrideInt(&cfg.Classifier.K, "ASANA_K"); err != nil {
		return Config{}, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.DBPath == "" {
		c.DBPath = "./asana.db"
	}
	if c.Delimiter == "" {
		c.Delimiter = ","
	}
	if c.PluginDir == "" {
		c.PluginDir = "./plugins"
	}
	if c.Classifier.K == 0 {
		c.Classifier.K = 10
	}
	if c.Classifier.MaxDistanceTopK == 0 {
		c.Classifier.MaxDistanceTopK = 30
	}
	if len(c.Classifier.AxesWeights) == 0 {
		c.Classifier.AxesWeights = []float64{1, 1, 0.2}
	}
	if c.Smoothing.Window == 0 {
		c.Smoothing.Window = 10
	}
	if c.Smoothing.Alpha == 0 {
		c.Smoothing.Alpha = 0.2
	}
	if len(c.Counters) == 0 {
		c.Counters = []CounterConfig{
			{Class: "pushups_down", Enter: 0.6, Exit: 0.4},
			{Class: "squats_down", Enter: 0.6, Exit: 0.4},
		}
	}
	if c.SessionIdleTimeout == 0 {
		c.SessionIdleTimeout = 10 * time.Minute
	}
	if c.ReaperSchedule == "" {
		c.ReaperSchedule = "@every 1m"
	}
	if c.PluginTimeoutMs == 0 {
		c.PluginTimeoutMs = 5000
	}
}

// Validate checks value ranges that defaults cannot repair.
func (c Config) Validate() error {
	if c.Classifier.K < 1 {
		return fmt.Errorf("classifier.k must be positive, got %d", c.Classifier.K)
	}
	if c.Classifier.MaxDistanceTopK < 1 {
		return fmt.Errorf("classifier.max_distance_top_k must be positive, got %d", c.Classifier.MaxDistanceTopK)
	}
	if len(c.Classifier.AxesWeights) != 3 {
		return fmt.Errorf("classifier.axes_weights needs 3 values, got %d", len(c.Classifier.AxesWeights))
	}
	if c.Smoothing.Window < 1 {
		return fmt.Errorf("smoothing.window must be positive, got %d", c.Smoothing.Window)
	}
	if c.Smoothing.Alpha <= 0 || c.Smoothing.Alpha > 1 {
		return fmt.Errorf("smoothing.alpha must be in (0, 1], got %g", c.Smoothing.Alpha)
	}
	if c.Smoothing.ResetAfter < 0 {
		return fmt.Errorf("smoothing.reset_after must not be negative")
	}
	seen := make(map[string]bool)
	for i, cc := range c.Counters {
		if cc.Class == "" {
			return fmt.Errorf("counters[%d]: class is required", i)
		}
		if seen[cc.Class] {
			return fmt.Errorf("counters[%d]: duplicate class %q", i, cc.Class)
		}
		seen[cc.Class] = true
		if cc.Enter <= cc.Exit {
			return fmt.Errorf("counters[%d]: enter %.2f must be greater than exit %.2f", i, cc.Enter, cc.Exit)
		}
	}
	if c.SessionIdleTimeout < 0 {
		return fmt.Errorf("session_idle_timeout must not be negative")
	}
	return nil
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}
