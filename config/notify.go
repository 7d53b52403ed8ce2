package config

import (
	"fmt"

	"github.com/kilianp07/chargestation/core/factory"
)

// NotifyConfig lists the notification sinks. An empty list logs notifications.
type NotifyConfig struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
}

// Validate checks that every sink names its type.
func (c NotifyConfig) Validate() error {
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("sink %d has no type", i)
		}
	}
	return nil
}

// APIConfig configures the HTTP front-end. An empty token disables auth.
type APIConfig struct {
	Addr  string `json:"addr"`
	Token string `json:"token"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}
