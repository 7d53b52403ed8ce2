package model

import "math"

// Vehicle represents an electric vehicle known to a station.
type Vehicle struct {
	ID          int     `json:"id"`
	OwnerID     int     `json:"owner_id"`
	SoC         float64 `json:"soc"` // state of charge in percent, 0-100
	CapacityKWh float64 `json:"capacity_kwh"`
	V2G         bool    `json:"v2g"`
}

// NewVehicle clamps SoC into [0,100] and capacity to be non-negative.
func NewVehicle(id, owner int, soc, capacity float64, v2g bool) Vehicle {
	return Vehicle{
		ID:          id,
		OwnerID:     owner,
		SoC:         math.Max(0, math.Min(100, soc)),
		CapacityKWh: math.Max(0, capacity),
		V2G:         v2g,
	}
}

// StoredEnergy returns the kWh held at the current state of charge.
func (v Vehicle) StoredEnergy() float64 {
	return v.SoC / 100 * v.CapacityKWh
}

// Charge adds energy kWh and returns the vehicle with SoC clamped at 100.
func (v Vehicle) Charge(energy float64) Vehicle {
	if v.CapacityKWh <= 0 {
		return v
	}
	v.SoC = math.Min(100, v.SoC+energy/v.CapacityKWh*100)
	return v
}

// DischargeToGrid releases up to energy kWh and returns the updated vehicle
// with the amount actually discharged. Vehicles without V2G support never
// discharge.
func (v Vehicle) DischargeToGrid(energy float64) (Vehicle, float64) {
	if !v.V2G || v.CapacityKWh <= 0 || energy <= 0 {
		return v, 0
	}
	out := math.Min(energy, v.StoredEnergy())
	v.SoC -= out / v.CapacityKWh * 100
	if v.SoC < 0 {
		v.SoC = 0
	}
	return v, out
}
