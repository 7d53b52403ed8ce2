package scenarios

import (
	"fmt"

	"github.com/kilianp07/chargestation/core/logger"
	"github.com/kilianp07/chargestation/core/model"
	"github.com/kilianp07/chargestation/core/registry"
	"github.com/kilianp07/chargestation/core/station"
)

// StepResult is the outcome of one step.
type StepResult struct {
	Index     int              `json:"index"`
	Op        string           `json:"op"`
	OK        bool             `json:"ok"`
	Reason    string           `json:"reason,omitempty"`
	Error     string           `json:"error,omitempty"`
	BookingID int              `json:"booking_id,omitempty"`
	DockID    int              `json:"dock_id,omitempty"`
	Start     float64          `json:"start,omitempty"`
	Deferred  bool             `json:"deferred,omitempty"`
	Penalty   string           `json:"penalty,omitempty"`
	Invoice   *station.Invoice `json:"invoice,omitempty"`
	Depth     int              `json:"queue_depth,omitempty"`
	Admitted  int              `json:"admitted,omitempty"`
	EnergyKWh float64          `json:"energy_kwh,omitempty"`
	Weather   string           `json:"weather,omitempty"`
	Failures  []string         `json:"failures,omitempty"`
}

// Result gathers the step outcomes and the final station report.
type Result struct {
	Name   string         `json:"name"`
	Passed bool           `json:"passed"`
	Steps  []StepResult   `json:"steps"`
	Report station.Report `json:"report"`
}

// NewStation builds a single station configured by the scenario.
func NewStation(sc *Scenario, log logger.Logger) (*station.Station, error) {
	cfg := station.DefaultConfig(1)
	if sc.Station.MaxBookings > 0 {
		cfg.MaxBookings = sc.Station.MaxBookings
	}
	if sc.Station.CriticalSoC > 0 {
		cfg.CriticalSoC = sc.Station.CriticalSoC
	}
	if sc.Station.PeakStart != 0 || sc.Station.PeakEnd != 0 {
		cfg.PeakStart, cfg.PeakEnd = sc.Station.PeakStart, sc.Station.PeakEnd
	}
	w := model.Sunny
	if sc.Weather != "" {
		parsed, err := model.ParseWeather(sc.Weather)
		if err != nil {
			return nil, err
		}
		w = parsed
	}
	return station.New(cfg, registry.NewMemoryStore(0, 0), model.NewWeatherSignal(w), log)
}

// Run registers the scenario users and vehicles on st, then plays every step
// in order. Expectation mismatches are reported in the result; the error is
// only set when the scenario cannot be set up.
func Run(st *station.Station, sc *Scenario) (Result, error) {
	for _, u := range sc.Users {
		if _, err := st.RegisterUser(u.ID, u.Name, u.membership()); err != nil {
			return Result{}, fmt.Errorf("register user %d: %w", u.ID, err)
		}
	}
	for _, v := range sc.Vehicles {
		if _, err := st.RegisterVehicle(v.ID, v.Owner, v.SoC, v.CapacityKWh, v.V2G); err != nil {
			return Result{}, fmt.Errorf("register vehicle %d: %w", v.ID, err)
		}
	}
	res := Result{Name: sc.Name, Passed: true, Steps: make([]StepResult, 0, len(sc.Steps))}
	for i, step := range sc.Steps {
		sr := play(st, step)
		sr.Index = i
		sr.Failures = check(step, sr)
		if len(sr.Failures) > 0 {
			res.Passed = false
		}
		res.Steps = append(res.Steps, sr)
	}
	res.Report = st.Report()
	return res, nil
}

func play(st *station.Station, step Step) StepResult {
	sr := StepResult{Op: step.Op}
	var err error
	switch step.Op {
	case OpBook:
		var adm station.Admission
		adm, err = st.TryBook(step.request())
		if err == nil {
			sr.BookingID = adm.Booking.ID
			sr.DockID = adm.Booking.DockID
			sr.Start = adm.Booking.StartTime
			sr.Deferred = adm.Booking.Deferred
		}
	case OpEnqueue:
		sr.Depth = st.Enqueue(step.request())
	case OpDrain:
		dr := st.Drain()
		err = dr.Err
		sr.Admitted = len(dr.Admitted)
		sr.Depth = dr.Remaining
		if n := len(dr.Admitted); n > 0 {
			last := dr.Admitted[n-1].Booking
			sr.BookingID, sr.DockID, sr.Start, sr.Deferred = last.ID, last.DockID, last.StartTime, last.Deferred
		}
	case OpCancel:
		sr.BookingID = step.Booking
		penalty, cerr := st.Cancel(step.Booking)
		err = cerr
		if err == nil {
			sr.Penalty = penalty.StringFixed(2)
		}
	case OpComplete:
		sr.BookingID = step.Booking
		inv, cerr := st.Complete(step.Booking)
		err = cerr
		if err == nil {
			sr.Invoice = &inv
			sr.DockID = inv.DockID
			sr.EnergyKWh = inv.EnergyKWh
		}
	case OpDischarge:
		sr.EnergyKWh, err = st.DischargeToGrid(step.Vehicle, step.EnergyKWh)
	case OpWeather:
		var w model.Weather
		w, err = model.ParseWeather(step.Weather)
		if err == nil {
			err = st.Weather().Set(w)
			sr.Weather = w.String()
		}
	default:
		err = fmt.Errorf("%w: unknown op %q", station.ErrInvalidInput, step.Op)
	}
	sr.OK = err == nil
	if err != nil {
		sr.Reason = station.RejectionReason(err)
		sr.Error = err.Error()
	}
	return sr
}

func check(step Step, sr StepResult) []string {
	var failures []string
	if sr.Reason != step.ExpectError {
		want := step.ExpectError
		if want == "" {
			want = "success"
		}
		got := sr.Reason
		if got == "" {
			got = "success"
		}
		failures = append(failures, fmt.Sprintf("expected %s, got %s", want, got))
	}
	if step.ExpectDock != nil && sr.DockID != *step.ExpectDock {
		failures = append(failures, fmt.Sprintf("expected dock %d, got %d", *step.ExpectDock, sr.DockID))
	}
	if step.ExpectStart != nil && sr.Start != *step.ExpectStart {
		failures = append(failures, fmt.Sprintf("expected start %v, got %v", *step.ExpectStart, sr.Start))
	}
	return failures
}
