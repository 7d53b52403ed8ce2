package model

import "fmt"

// Nominal dock power ratings in kW.
const (
	PowerSlow   = 7.0
	PowerMedium = 22.0
	PowerFast   = 50.0
	PowerSolar  = 7.0
)

// ChargingType is the charging speed code requested by a user.
type ChargingType int

const (
	ChargingSlow   ChargingType = 1
	ChargingMedium ChargingType = 2
	ChargingFast   ChargingType = 3
	// ChargingSolar requires a dock backed by a solar source.
	ChargingSolar ChargingType = 4
)

// Valid reports whether t is a known charging code.
func (t ChargingType) Valid() bool { return t >= ChargingSlow && t <= ChargingSolar }

// String returns a human-readable representation of the charging type.
func (t ChargingType) String() string {
	switch t {
	case ChargingSlow:
		return "slow"
	case ChargingMedium:
		return "medium"
	case ChargingFast:
		return "fast"
	case ChargingSolar:
		return "solar"
	default:
		return "unknown"
	}
}

// PowerRating returns the power in kW implied by the charging code.
func (t ChargingType) PowerRating() float64 {
	switch t {
	case ChargingMedium:
		return PowerMedium
	case ChargingFast:
		return PowerFast
	case ChargingSolar:
		return PowerSolar
	default:
		return PowerSlow
	}
}

// BaseRate returns the tariff in dollars per kWh, as a decimal string so
// callers can build exact amounts.
func (t ChargingType) BaseRate() string {
	switch t {
	case ChargingSlow:
		return "0.20"
	case ChargingMedium:
		return "0.30"
	case ChargingFast:
		return "0.40"
	case ChargingSolar:
		return "0.15"
	default:
		return "0"
	}
}

// ParseChargingType validates a numeric charging code.
func ParseChargingType(code int) (ChargingType, error) {
	t := ChargingType(code)
	if !t.Valid() {
		return 0, fmt.Errorf("unknown charging type %d", code)
	}
	return t, nil
}
