package model

import (
	"fmt"
	"strings"
)

// GridCO2Factor is the emission of grid energy in kg CO2 per kWh.
const GridCO2Factor = 0.5

// SourceKind tags the energy source variant of a dock.
type SourceKind int

const (
	SourceGrid SourceKind = iota
	SourceSolar
)

// sourcePolicy is the capability table of one energy source variant.
type sourcePolicy struct {
	name           string
	rateAdjustment float64
	co2            func(energy float64) float64
	availablePower func(base float64, w Weather) float64
}

var sourcePolicies = map[SourceKind]sourcePolicy{
	SourceGrid: {
		name:           "Grid",
		rateAdjustment: 1.0,
		co2:            func(e float64) float64 { return e * GridCO2Factor },
		availablePower: func(base float64, _ Weather) float64 { return base },
	},
	SourceSolar: {
		name:           "Solar",
		rateAdjustment: 0.9,
		co2:            func(float64) float64 { return 0 },
		availablePower: func(base float64, w Weather) float64 {
			switch w {
			case Cloudy:
				return base * 0.5
			case Night:
				return 0
			default:
				return base
			}
		},
	},
}

func (k SourceKind) policy() sourcePolicy {
	if p, ok := sourcePolicies[k]; ok {
		return p
	}
	return sourcePolicies[SourceGrid]
}

// Valid reports whether k is a known variant.
func (k SourceKind) Valid() bool {
	_, ok := sourcePolicies[k]
	return ok
}

// String returns the display name of the source.
func (k SourceKind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return k.policy().name
}

// RateAdjustment is the multiplier applied to the per-kWh tariff.
func (k SourceKind) RateAdjustment() float64 { return k.policy().rateAdjustment }

// CO2 returns the kg of CO2 emitted to produce energy kWh.
func (k SourceKind) CO2(energy float64) float64 { return k.policy().co2(energy) }

// AvailablePower returns the power in kW the source can deliver for a dock
// rated at base kW under weather w.
func (k SourceKind) AvailablePower(base float64, w Weather) float64 {
	return k.policy().availablePower(base, w)
}

// ParseSourceKind parses "grid" or "solar".
func ParseSourceKind(s string) (SourceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "grid":
		return SourceGrid, nil
	case "solar":
		return SourceSolar, nil
	}
	return 0, fmt.Errorf("unknown energy source %q", s)
}
