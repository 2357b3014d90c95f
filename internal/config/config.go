package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/adaptive-coach/internal/recorder"
	"github.com/danielpatrickdp/adaptive-coach/internal/state"
)

// #region types
// RecorderConfig sizes the step record buffer and subscriber queues.
type RecorderConfig struct {
	Capacity         int `yaml:"capacity"`
	SubscriberBuffer int `yaml:"subscriber_buffer"`
}

// Config is the coachctl / host configuration.
type Config struct {
	// Enabled is the activation gate; a disabled engine never steps.
	Enabled bool `yaml:"enabled"`
	// Production swaps in a no-op logger.
	Production bool   `yaml:"production"`
	DBPath     string `yaml:"db_path"`
	RecordKey  string `yaml:"record_key"`
	LogLevel   string `yaml:"log_level"`
	// Schedule is a robfig/cron spec, e.g. "@every 15m".
	Schedule string `yaml:"schedule"`
	// Seed fixes the exploration RNG; 0 seeds from the clock.
	Seed        uint64         `yaml:"seed"`
	MaxAbsValue float64        `yaml:"max_abs_value"`
	Recorder    RecorderConfig `yaml:"recorder"`
	// Hyperparameters seed the value store when nothing is persisted yet.
	Hyperparameters state.Config `yaml:"hyperparameters"`
}

// #endregion types

// #region defaults
// Default returns a disabled, development configuration.
func Default() Config {
	rec := recorder.DefaultOptions()
	return Config{
		Enabled:   false,
		DBPath:    "coach.db",
		RecordKey: state.DefaultRecordKey,
		LogLevel:  "info",
		Schedule:  "@every 15m",
		Recorder: RecorderConfig{
			Capacity:         rec.Capacity,
			SubscriberBuffer: rec.SubscriberBuffer,
		},
		Hyperparameters: state.DefaultConfig(),
	}
}

// #endregion defaults

// #region load
// Load reads path (if non-empty) over the defaults, then applies environment
// overrides. Keys missing from the file keep their default values. Enabled is
// only ever taken from the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	cfg.DBPath = envOr("COACH_DB", cfg.DBPath)
	cfg.LogLevel = envOr("COACH_LOG_LEVEL", cfg.LogLevel)
	cfg.Schedule = envOr("COACH_SCHEDULE", cfg.Schedule)
	if raw := os.Getenv("COACH_PRODUCTION"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("COACH_PRODUCTION: %w", err)
		}
		cfg.Production = v
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion load

// #region validate
// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.RecordKey == "" {
		return errors.New("record_key must not be empty")
	}
	if c.Schedule == "" {
		return errors.New("schedule must not be empty")
	}
	if c.Recorder.Capacity <= 0 || c.Recorder.Capacity > recorder.MaxCapacity {
		return fmt.Errorf("recorder.capacity must be in 1..%d, got %d", recorder.MaxCapacity, c.Recorder.Capacity)
	}
	if c.Recorder.SubscriberBuffer <= 0 {
		return fmt.Errorf("recorder.subscriber_buffer must be positive, got %d", c.Recorder.SubscriberBuffer)
	}
	if c.MaxAbsValue < 0 {
		return fmt.Errorf("max_abs_value must not be negative, got %v", c.MaxAbsValue)
	}
	if !c.Hyperparameters.Valid() {
		return fmt.Errorf("invalid hyperparameters %+v", c.Hyperparameters)
	}
	return nil
}

// RecorderOptions converts the recorder section.
func (c Config) RecorderOptions() recorder.Options {
	return recorder.Options{
		Capacity:         c.Recorder.Capacity,
		SubscriberBuffer: c.Recorder.SubscriberBuffer,
	}
}

// #endregion validate
