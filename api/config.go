/*
config.go - Server configuration

PURPOSE:
  YAML-backed configuration for the server binary. Flags in main.go cover
  the common knobs (port, database path); a config file is only needed for
  scheduler and batch tuning.

EXAMPLE (config.yaml):
  port: 8080
  db: ./data/royalty.db
  batch_workers: 4
  scheduler:
    enabled: true
    cadence: monthly
    check_interval: 1h
    tenants:
      - acme-press

SEE ALSO:
  - cmd/server/main.go: Flag handling and startup
*/
package api

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the server's full configuration.
type Config struct {
	Port         int             `yaml:"port"`
	DBPath       string          `yaml:"db"`
	BatchWorkers int             `yaml:"batch_workers"`
	Scheduler    SchedulerConfig `yaml:"scheduler"`
}

// SchedulerConfig controls the period-end batch scheduler.
type SchedulerConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Cadence       Cadence  `yaml:"cadence"`
	CheckInterval Interval `yaml:"check_interval"`
	Tenants       []string `yaml:"tenants"`
}

// Interval is a duration that unmarshals from YAML strings like "1h" or "30m".
type Interval time.Duration

func (i *Interval) UnmarshalYAML(value *yaml.Node) error {
	d, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*i = Interval(d)
	return nil
}

func (i Interval) Duration() time.Duration { return time.Duration(i) }

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Port:         8080,
		DBPath:       "royalty.db",
		BatchWorkers: 0, // orchestrator default
		Scheduler: SchedulerConfig{
			Enabled:       false,
			Cadence:       CadenceMonthly,
			CheckInterval: Interval(1 * time.Hour),
		},
	}
}

// LoadConfig reads a YAML config file, applying defaults for omitted fields.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Scheduler.CheckInterval <= 0 {
		cfg.Scheduler.CheckInterval = Interval(1 * time.Hour)
	}
	if cfg.Scheduler.Cadence == "" {
		cfg.Scheduler.Cadence = CadenceMonthly
	}
	return cfg, nil
}
