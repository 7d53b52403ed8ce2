package station

import (
	"fmt"

	"github.com/kilianp07/chargestation/core/model"
)

// Defaults applied by DefaultConfig.
const (
	DefaultMaxBookings    = 20
	DefaultCriticalSoC    = 20.0
	DefaultPeakStart      = 12.0
	DefaultPeakEnd        = 18.0
	DefaultGridCapacityKW = 150.0
)

// Config holds the static layout and policy of one station.
type Config struct {
	ID             int
	Docks          []model.DockSpec
	MaxBookings    int
	CriticalSoC    float64
	PeakStart      float64
	PeakEnd        float64
	GridCapacityKW float64
}

// DefaultConfig returns the standard five dock station with the given id.
func DefaultConfig(id int) Config {
	return Config{
		ID:             id,
		Docks:          model.DefaultDocks(),
		MaxBookings:    DefaultMaxBookings,
		CriticalSoC:    DefaultCriticalSoC,
		PeakStart:      DefaultPeakStart,
		PeakEnd:        DefaultPeakEnd,
		GridCapacityKW: DefaultGridCapacityKW,
	}
}

// Validate checks the layout and the peak window.
func (c Config) Validate() error {
	if c.ID <= 0 {
		return fmt.Errorf("station: id must be positive, got %d", c.ID)
	}
	if len(c.Docks) == 0 {
		return fmt.Errorf("station %d: no docks configured", c.ID)
	}
	seen := make(map[int]bool, len(c.Docks))
	for _, d := range c.Docks {
		if d.ID <= 0 {
			return fmt.Errorf("station %d: dock id must be positive, got %d", c.ID, d.ID)
		}
		if seen[d.ID] {
			return fmt.Errorf("station %d: duplicate dock id %d", c.ID, d.ID)
		}
		seen[d.ID] = true
		if d.PowerKW <= 0 {
			return fmt.Errorf("station %d: dock %d power must be positive", c.ID, d.ID)
		}
		if !d.Source.Valid() {
			return fmt.Errorf("station %d: dock %d has unknown energy source", c.ID, d.ID)
		}
	}
	if c.MaxBookings <= 0 {
		return fmt.Errorf("station %d: max bookings must be positive", c.ID)
	}
	if c.CriticalSoC < 0 || c.CriticalSoC > 100 {
		return fmt.Errorf("station %d: critical soc must be within [0,100]", c.ID)
	}
	if c.PeakStart < model.DayStart || c.PeakEnd >= model.DayEnd || c.PeakStart >= c.PeakEnd {
		return fmt.Errorf("station %d: invalid peak window [%v,%v)", c.ID, c.PeakStart, c.PeakEnd)
	}
	if c.GridCapacityKW < 0 {
		return fmt.Errorf("station %d: grid capacity must not be negative", c.ID)
	}
	return nil
}
