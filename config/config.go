package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/chargestation/core/journal"
	"github.com/kilianp07/chargestation/core/metrics"
	"github.com/kilianp07/chargestation/core/model"
)

type Config struct {
	Station StationConfig  `json:"station"`
	Weather string         `json:"weather"`
	Logging LoggingConfig  `json:"logging"`
	Notify  NotifyConfig   `json:"notify"`
	Metrics metrics.Config `json:"metrics"`
	Journal journal.Config `json:"journal"`
	API     APIConfig      `json:"api"`
	Sentry  SentryConfig   `json:"sentry"`
}

// Load reads the file at path, applies K_ prefixed environment overrides
// (K_STATION__COUNT=3 sets station.count) and validates the result. An empty
// path loads defaults and environment overrides only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Station.SetDefaults()
	c.Logging.SetDefaults()
	c.API.SetDefaults()
	if c.Weather == "" {
		c.Weather = model.Sunny.String()
	}
	setJournalDefaults(&c.Journal)
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Station.Validate(); err != nil {
		return fmt.Errorf("station: %w", err)
	}
	if _, err := model.ParseWeather(c.Weather); err != nil {
		return fmt.Errorf("weather: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Notify.Validate(); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	for i, s := range c.Metrics.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics: sink %d has no type", i)
		}
	}
	if err := validateJournal(c.Journal); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	return nil
}

// InitialWeather returns the parsed weather section.
func (c Config) InitialWeather() model.Weather {
	w, err := model.ParseWeather(c.Weather)
	if err != nil {
		return model.Sunny
	}
	return w
}

func setJournalDefaults(c *journal.Config) {
	if c.Backend == "" {
		c.Backend = journal.BackendNone
	}
	if c.Path == "" {
		switch c.Backend {
		case journal.BackendJSONL:
			c.Path = "station_journal.jsonl"
		case journal.BackendSQLite:
			c.Path = "station_journal.db"
		}
	}
}

func validateJournal(c journal.Config) error {
	switch c.Backend {
	case journal.BackendNone:
		return nil
	case journal.BackendJSONL, journal.BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("rotation settings must not be negative")
	}
	return nil
}
