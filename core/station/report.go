package station

import (
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/chargestation/core/model"
)

// Report aggregates the station activity. Energy, revenue and emissions only
// account for bookings that are no longer active.
type Report struct {
	StationID        int             `json:"station_id"`
	Weather          string          `json:"weather"`
	UtilizationPct   float64         `json:"utilization_pct"`
	AvgDurationHours float64         `json:"avg_duration_hours"`
	GridEnergyKWh    float64         `json:"grid_energy_kwh"`
	SolarEnergyKWh   float64         `json:"solar_energy_kwh"`
	GridPct          float64         `json:"grid_pct"`
	SolarPct         float64         `json:"solar_pct"`
	Revenue          decimal.Decimal `json:"revenue"`
	CO2Kg            float64         `json:"co2_kg"`
	RegularBookings  int             `json:"regular_bookings"`
	PremiumBookings  int             `json:"premium_bookings"`
	ActiveBookings   int             `json:"active_bookings"`
	TotalBookings    int             `json:"total_bookings"`
	QueueDepth       int             `json:"queue_depth"`
	PowerDrawKW      float64         `json:"power_draw_kw"`
	GridCapacityKW   float64         `json:"grid_capacity_kw"`
}

// Report computes the analytics of the station.
func (s *Station) Report() Report {
	w := s.weather.Current()
	s.mu.Lock()
	defer s.mu.Unlock()

	r := Report{
		StationID:      s.cfg.ID,
		Weather:        w.String(),
		Revenue:        decimal.Zero,
		TotalBookings:  len(s.bookings),
		QueueDepth:     len(s.queue),
		PowerDrawKW:    s.powerDraw(w),
		GridCapacityKW: s.cfg.GridCapacityKW,
	}

	occupied := make([]float64, len(s.docks))
	for i, d := range s.docks {
		occupied[i] = d.OccupiedHours
	}
	latest := s.baseline
	var durations []float64
	for _, b := range s.bookings {
		latest = math.Max(latest, b.End())
		if u, ok := s.registry.LookupUser(b.UserID); ok {
			if u.Premium() {
				r.PremiumBookings++
			} else {
				r.RegularBookings++
			}
		}
		if b.Active() {
			r.ActiveBookings++
			continue
		}
		durations = append(durations, b.Duration)
		r.Revenue = r.Revenue.Add(b.Cost)
		di := s.dockIndex(b.DockID)
		if di < 0 {
			continue
		}
		src := s.docks[di].Source
		if src == model.SourceSolar {
			r.SolarEnergyKWh += b.EnergyKWh
		} else {
			r.GridEnergyKWh += b.EnergyKWh
		}
		r.CO2Kg += src.CO2(b.EnergyKWh)
	}

	if span := latest - s.baseline; len(s.bookings) > 0 && span > 0 {
		r.UtilizationPct = floats.Sum(occupied) / (span * float64(len(s.docks))) * 100
	}
	if len(durations) > 0 {
		r.AvgDurationHours = stat.Mean(durations, nil)
	}
	if total := r.GridEnergyKWh + r.SolarEnergyKWh; total > 0 {
		r.GridPct = r.GridEnergyKWh / total * 100
		r.SolarPct = r.SolarEnergyKWh / total * 100
	}
	return r
}

// DockStatus is a snapshot of one dock.
type DockStatus struct {
	ID            int     `json:"id"`
	PowerKW       float64 `json:"power_kw"`
	AvailableKW   float64 `json:"available_kw"`
	Source        string  `json:"source"`
	Occupied      bool    `json:"occupied"`
	VehicleID     int     `json:"vehicle_id,omitempty"`
	OccupiedHours float64 `json:"occupied_hours"`
}

// Docks returns the status of every dock by ascending id.
func (s *Station) Docks() []DockStatus {
	w := s.weather.Current()
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]DockStatus, len(s.docks))
	for i, d := range s.docks {
		res[i] = DockStatus{
			ID:            d.ID,
			PowerKW:       d.PowerKW,
			AvailableKW:   d.AvailablePower(w),
			Source:        d.Source.String(),
			Occupied:      d.Occupied,
			VehicleID:     d.VehicleID,
			OccupiedHours: d.OccupiedHours,
		}
	}
	return res
}

// Session is the progress of an active booking.
type Session struct {
	BookingID      int     `json:"booking_id"`
	VehicleID      int     `json:"vehicle_id"`
	DockID         int     `json:"dock_id"`
	ElapsedHours   float64 `json:"elapsed_hours"`
	EnergyKWh      float64 `json:"energy_kwh"`
	RemainingHours float64 `json:"remaining_hours"`
}

// LiveSessions reports the progress of active bookings, taking the current
// time as one hour after the baseline.
func (s *Station) LiveSessions() []Session {
	w := s.weather.Current()
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.baseline + 1
	var res []Session
	for _, b := range s.bookings {
		if !b.Active() {
			continue
		}
		di := s.dockIndex(b.DockID)
		if di < 0 {
			s.logger.Errorf("station %d: booking %d references unknown dock %d", s.cfg.ID, b.ID, b.DockID)
			continue
		}
		elapsed := math.Min(math.Max(now-b.StartTime, 0), b.Duration)
		res = append(res, Session{
			BookingID:      b.ID,
			VehicleID:      b.VehicleID,
			DockID:         b.DockID,
			ElapsedHours:   elapsed,
			EnergyKWh:      s.docks[di].AvailablePower(w) * elapsed,
			RemainingHours: b.Duration - elapsed,
		})
	}
	return res
}

// UserBookings returns every booking of a user in id order.
func (s *Station) UserBookings(userID int) []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []model.Booking
	for _, b := range s.bookings {
		if b.UserID == userID {
			res = append(res, b)
		}
	}
	return res
}

// Bookings returns a snapshot of the ledger in id order.
func (s *Station) Bookings() []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Booking(nil), s.bookings...)
}

// PowerDraw returns the power in kW currently delivered by occupied docks.
func (s *Station) PowerDraw() float64 {
	w := s.weather.Current()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.powerDraw(w)
}

func (s *Station) powerDraw(w model.Weather) float64 {
	draw := make([]float64, 0, len(s.docks))
	for _, d := range s.docks {
		if d.Occupied {
			draw = append(draw, d.AvailablePower(w))
		}
	}
	return floats.Sum(draw)
}
