package events

import "github.com/kilianp07/chargestation/core/model"

// VehicleDischarged is published after a V2G discharge.
type VehicleDischarged struct {
	StationID int
	VehicleID int
	EnergyKWh float64
	SoCAfter  float64
}

// QueueChanged carries the deferred queue depth after an enqueue or drain.
type QueueChanged struct {
	StationID int
	Depth     int
	Admitted  int
}

// WeatherChanged is published by the network when the weather is set.
// It is not tied to a station and reports station 0.
type WeatherChanged struct {
	Weather model.Weather
}

func (e VehicleDischarged) Station() int { return e.StationID }
func (e QueueChanged) Station() int      { return e.StationID }
func (WeatherChanged) Station() int      { return 0 }
