package station

import (
	"github.com/shopspring/decimal"

	"github.com/kilianp07/chargestation/core/events"
	"github.com/kilianp07/chargestation/core/journal"
	"github.com/kilianp07/chargestation/core/model"
)

// Cancellation penalties, charged by how soon the booking was due to start
// relative to the station baseline.
var (
	PenaltyUnderOneHour   = decimal.NewFromInt(5)
	PenaltyUnderFourHours = decimal.NewFromInt(2)
)

// CancellationPenalty returns the penalty for a booking starting
// timeToStart hours after the baseline.
func CancellationPenalty(timeToStart float64) decimal.Decimal {
	switch {
	case timeToStart < 1:
		return PenaltyUnderOneHour
	case timeToStart < 4:
		return PenaltyUnderFourHours
	default:
		return decimal.Zero
	}
}

// Cancel cancels an active booking, frees its dock and returns the penalty.
// Energy and cost of the booking are left untouched.
func (s *Station) Cancel(bookingID int) (decimal.Decimal, error) {
	s.mu.Lock()
	out := s.newOutbox()
	i := s.activeBooking(bookingID)
	if i < 0 {
		s.mu.Unlock()
		return decimal.Zero, ErrBookingNotFound
	}
	b := &s.bookings[i]
	di := s.dockIndex(b.DockID)
	if di < 0 {
		s.mu.Unlock()
		return decimal.Zero, ErrDockMissing
	}

	penalty := CancellationPenalty(b.StartTime - s.baseline)
	b.Status = model.BookingCancelled
	s.docks[di].Release()

	s.logger.Infof("station %d: booking %d cancelled, penalty $%s", s.cfg.ID, b.ID, penalty.StringFixed(2))
	s.notify(out, b.UserID, model.NotifyCancelled, "Booking cancelled. Penalty charged: $", penalty.InexactFloat64(), true)
	out.events = append(out.events, events.BookingCancelled{StationID: s.cfg.ID, Booking: *b, Penalty: penalty})
	s.record(out, journal.Record{
		Kind:      journal.KindCancelled,
		BookingID: b.ID,
		UserID:    b.UserID,
		VehicleID: b.VehicleID,
		DockID:    b.DockID,
		Start:     b.StartTime,
		Duration:  b.Duration,
		Amount:    penalty,
	})
	s.mu.Unlock()
	s.flush(out)
	return penalty, nil
}
