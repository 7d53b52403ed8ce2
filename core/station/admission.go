package station

import (
	"math"

	"github.com/kilianp07/chargestation/core/events"
	"github.com/kilianp07/chargestation/core/journal"
	"github.com/kilianp07/chargestation/core/model"
)

// Admission is the outcome of a successful booking request.
type Admission struct {
	Booking  model.Booking `json:"booking"`
	Critical bool          `json:"critical"`
}

// TryBook validates the request and allocates a dock. On failure the
// station is left untouched and the caller may enqueue the request.
func (s *Station) TryBook(req model.DeferredRequest) (Admission, error) {
	w := s.weather.Current()
	s.mu.Lock()
	out := s.newOutbox()
	adm, err := s.admit(out, req, w)
	s.mu.Unlock()
	s.flush(out)
	return adm, err
}

// admit runs the admission pipeline. Callers hold s.mu.
func (s *Station) admit(out *outbox, req model.DeferredRequest, w model.Weather) (Admission, error) {
	adm, err := s.allocate(out, req, w)
	if err != nil {
		reason := RejectionReason(err)
		s.logger.Debugf("station %d: rejected request of user %d at %.2f: %v", s.cfg.ID, req.UserID, req.StartTime, err)
		out.events = append(out.events, events.BookingRejected{StationID: s.cfg.ID, Request: req, Reason: reason, Err: err})
		s.record(out, journal.Record{
			Kind:      journal.KindRejected,
			UserID:    req.UserID,
			VehicleID: req.VehicleID,
			Start:     req.StartTime,
			Duration:  req.Duration,
			Reason:    reason,
		})
	}
	return adm, err
}

func (s *Station) allocate(out *outbox, req model.DeferredRequest, w model.Weather) (Admission, error) {
	if len(s.bookings) >= s.cfg.MaxBookings {
		return Admission{}, ErrCapacityExceeded
	}
	if !(req.StartTime >= model.DayStart && req.StartTime < model.DayEnd) {
		return Admission{}, ErrStartTimeOutOfRange
	}
	if !(req.Duration > 0) || math.IsInf(req.Duration, 1) {
		return Admission{}, ErrInvalidDuration
	}
	if !req.ChargingType.Valid() {
		return Admission{}, ErrUnknownChargingType
	}
	user, ok := s.registry.LookupUser(req.UserID)
	if !ok || !user.Registered {
		return Admission{}, ErrUserNotFound
	}
	vehicle, ok := s.registry.LookupVehicle(req.VehicleID)
	if !ok || vehicle.OwnerID != user.ID {
		return Admission{}, ErrVehicleNotFound
	}

	critical := user.Premium() || vehicle.SoC < s.cfg.CriticalSoC
	start := req.StartTime
	deferred := false
	if s.inPeak(start) && !critical {
		start = s.cfg.PeakEnd
		deferred = true
	}

	power := req.PowerKW
	if power <= 0 {
		power = req.ChargingType.PowerRating()
	}
	idx := s.findDock(start, req.Duration, power, req.ChargingType, w)
	if idx < 0 {
		return Admission{}, ErrNoAvailableDock
	}

	dock := &s.docks[idx]
	b := model.Booking{
		ID:             len(s.bookings) + 1,
		StationID:      s.cfg.ID,
		UserID:         user.ID,
		VehicleID:      vehicle.ID,
		DockID:         dock.ID,
		StartTime:      start,
		RequestedStart: req.StartTime,
		Deferred:       deferred,
		Duration:       req.Duration,
		ChargingType:   req.ChargingType,
		Status:         model.BookingActive,
	}
	s.bookings = append(s.bookings, b)
	dock.Occupy(vehicle.ID)
	if !s.hasBaseline {
		s.baseline = req.StartTime
		s.hasBaseline = true
	}

	if deferred {
		s.logger.Infof("station %d: booking %d deferred from %.2f to %.2f", s.cfg.ID, b.ID, req.StartTime, start)
		s.notify(out, user.ID, model.NotifyDeferred, "Your booking has been deferred due to peak hours. New start time:", start, true)
	}
	s.notify(out, user.ID, model.NotifyScheduled, "Upcoming charging session scheduled at:", start, true)
	s.logger.Infof("station %d: booking %d admitted on dock %d at %.2f for %.2fh", s.cfg.ID, b.ID, dock.ID, start, b.Duration)
	out.events = append(out.events, events.BookingAdmitted{StationID: s.cfg.ID, Booking: b, Source: dock.Source})
	s.record(out, journal.Record{
		Kind:      journal.KindAdmitted,
		BookingID: b.ID,
		UserID:    b.UserID,
		VehicleID: b.VehicleID,
		DockID:    b.DockID,
		Start:     b.StartTime,
		Duration:  b.Duration,
	})
	return Admission{Booking: b, Critical: critical}, nil
}

// findDock returns the index of the dock to allocate or -1. Docks are
// scanned by ascending id. During peak hours a non-solar request prefers a
// solar dock so grid capacity stays free.
func (s *Station) findDock(start, duration, power float64, t model.ChargingType, w model.Weather) int {
	first, firstSolar := -1, -1
	for i := range s.docks {
		d := &s.docks[i]
		if d.Occupied || d.AvailablePower(w) < power {
			continue
		}
		if t == model.ChargingSolar && d.Source != model.SourceSolar {
			continue
		}
		if s.conflicts(d.ID, start, duration) {
			continue
		}
		if first < 0 {
			first = i
		}
		if firstSolar < 0 && d.Source == model.SourceSolar {
			firstSolar = i
		}
	}
	if s.inPeak(start) && t != model.ChargingSolar && firstSolar >= 0 {
		return firstSolar
	}
	return first
}

// conflicts reports whether an active booking on the dock overlaps the interval.
func (s *Station) conflicts(dockID int, start, duration float64) bool {
	for _, b := range s.bookings {
		if b.Active() && b.DockID == dockID && b.Overlaps(start, duration) {
			return true
		}
	}
	return false
}
