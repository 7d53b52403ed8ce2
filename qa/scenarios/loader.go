package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/chargestation/core/model"
)

// Step operations.
const (
	OpBook      = "book"
	OpEnqueue   = "enqueue"
	OpDrain     = "drain"
	OpCancel    = "cancel"
	OpComplete  = "complete"
	OpDischarge = "discharge"
	OpWeather   = "weather"
)

type UserDef struct {
	ID      int    `yaml:"id"`
	Name    string `yaml:"name"`
	Premium bool   `yaml:"premium"`
}

func (u UserDef) membership() int {
	if u.Premium {
		return model.MembershipPremium
	}
	return model.MembershipRegular
}

type VehicleDef struct {
	ID          int     `yaml:"id"`
	Owner       int     `yaml:"owner"`
	SoC         float64 `yaml:"soc"`
	CapacityKWh float64 `yaml:"capacity_kwh"`
	V2G         bool    `yaml:"v2g"`
}

// StationDef overrides the default station policy.
type StationDef struct {
	MaxBookings int     `yaml:"max_bookings"`
	CriticalSoC float64 `yaml:"critical_soc"`
	PeakStart   float64 `yaml:"peak_start"`
	PeakEnd     float64 `yaml:"peak_end"`
}

// Step is one operation against the station. A step without expect_error
// must succeed; otherwise the rejection reason must match.
type Step struct {
	Op           string   `yaml:"op"`
	User         int      `yaml:"user"`
	Vehicle      int      `yaml:"vehicle"`
	Start        float64  `yaml:"start"`
	Duration     float64  `yaml:"duration"`
	ChargingType int      `yaml:"charging_type"`
	Booking      int      `yaml:"booking"`
	EnergyKWh    float64  `yaml:"energy_kwh"`
	Weather      string   `yaml:"weather"`
	ExpectError  string   `yaml:"expect_error,omitempty"`
	ExpectDock   *int     `yaml:"expect_dock,omitempty"`
	ExpectStart  *float64 `yaml:"expect_start,omitempty"`
}

func (s Step) request() model.DeferredRequest {
	return model.NewRequest(s.User, s.Vehicle, s.Start, s.Duration, model.ChargingType(s.ChargingType))
}

type Scenario struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Weather     string       `yaml:"weather"`
	Station     StationDef   `yaml:"station,omitempty"`
	Users       []UserDef    `yaml:"users"`
	Vehicles    []VehicleDef `yaml:"vehicles"`
	Steps       []Step       `yaml:"steps"`
}

// Validate checks the operations and the weather names.
func (sc *Scenario) Validate() error {
	if sc.Weather != "" {
		if _, err := model.ParseWeather(sc.Weather); err != nil {
			return fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
	}
	for i, st := range sc.Steps {
		switch st.Op {
		case OpBook, OpEnqueue, OpDrain, OpCancel, OpComplete, OpDischarge:
		case OpWeather:
			if _, err := model.ParseWeather(st.Weather); err != nil {
				return fmt.Errorf("scenario %s step %d: %w", sc.Name, i, err)
			}
		default:
			return fmt.Errorf("scenario %s step %d: unknown op %q", sc.Name, i, st.Op)
		}
	}
	return nil
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a YAML scenario.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}
