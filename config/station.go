package config

import (
	"fmt"

	"github.com/kilianp07/chargestation/core/model"
	"github.com/kilianp07/chargestation/core/station"
)

// DockConfig describes one dock. Source is "grid" or "solar".
type DockConfig struct {
	ID      int     `json:"id"`
	PowerKW float64 `json:"power_kw"`
	Source  string  `json:"source"`
}

// StationConfig is shared by every station of the network. Stations get the
// ids 1..Count. Zero values fall back to the station defaults, so a critical
// threshold of zero cannot be expressed.
type StationConfig struct {
	Count          int          `json:"count"`
	MaxBookings    int          `json:"max_bookings"`
	MaxUsers       int          `json:"max_users"`
	MaxVehicles    int          `json:"max_vehicles"`
	CriticalSoC    float64      `json:"critical_soc"`
	GridCapacityKW float64      `json:"grid_capacity_kw"`
	PeakStart      float64      `json:"peak_start"`
	PeakEnd        float64      `json:"peak_end"`
	Docks          []DockConfig `json:"docks"`
}

// SetDefaults applies sane defaults.
func (c *StationConfig) SetDefaults() {
	if c.Count == 0 {
		c.Count = 1
	}
	if c.MaxBookings == 0 {
		c.MaxBookings = station.DefaultMaxBookings
	}
	if c.CriticalSoC == 0 {
		c.CriticalSoC = station.DefaultCriticalSoC
	}
	if c.GridCapacityKW == 0 {
		c.GridCapacityKW = station.DefaultGridCapacityKW
	}
	if c.PeakStart == 0 && c.PeakEnd == 0 {
		c.PeakStart = station.DefaultPeakStart
		c.PeakEnd = station.DefaultPeakEnd
	}
	if len(c.Docks) == 0 {
		for _, d := range model.DefaultDocks() {
			c.Docks = append(c.Docks, DockConfig{ID: d.ID, PowerKW: d.PowerKW, Source: d.Source.String()})
		}
	}
}

// Validate checks the section by building the station configurations.
func (c StationConfig) Validate() error {
	if c.Count <= 0 {
		return fmt.Errorf("count must be positive")
	}
	if c.MaxUsers < 0 || c.MaxVehicles < 0 {
		return fmt.Errorf("registry limits must not be negative")
	}
	_, err := c.Stations()
	return err
}

// Stations returns one validated station configuration per station id.
func (c StationConfig) Stations() ([]station.Config, error) {
	docks := make([]model.DockSpec, len(c.Docks))
	for i, d := range c.Docks {
		src, err := model.ParseSourceKind(d.Source)
		if err != nil {
			return nil, fmt.Errorf("dock %d: %w", d.ID, err)
		}
		docks[i] = model.DockSpec{ID: d.ID, PowerKW: d.PowerKW, Source: src}
	}
	out := make([]station.Config, c.Count)
	for i := range out {
		sc := station.Config{
			ID:             i + 1,
			Docks:          append([]model.DockSpec(nil), docks...),
			MaxBookings:    c.MaxBookings,
			CriticalSoC:    c.CriticalSoC,
			PeakStart:      c.PeakStart,
			PeakEnd:        c.PeakEnd,
			GridCapacityKW: c.GridCapacityKW,
		}
		if err := sc.Validate(); err != nil {
			return nil, err
		}
		out[i] = sc
	}
	return out, nil
}
