package station

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kilianp07/chargestation/core/events"
	"github.com/kilianp07/chargestation/core/journal"
	"github.com/kilianp07/chargestation/core/model"
)

var (
	solarChargingDiscount = decimal.RequireFromString("0.85")
	peakSurcharge         = decimal.RequireFromString("1.2")
	premiumDiscount       = decimal.RequireFromString("0.85")
)

// Invoice itemizes a settled session.
type Invoice struct {
	BookingID    int                `json:"booking_id"`
	UserID       int                `json:"user_id"`
	VehicleID    int                `json:"vehicle_id"`
	DockID       int                `json:"dock_id"`
	Source       string             `json:"source"`
	ChargingType model.ChargingType `json:"charging_type"`
	Weather      string             `json:"weather"`
	EnergyKWh    float64            `json:"energy_kwh"`
	Rate         decimal.Decimal    `json:"rate_per_kwh"`
	PeakRate     bool               `json:"peak_rate"`
	Premium      bool               `json:"premium"`
	Total        decimal.Decimal    `json:"total"`
	SoCAfter     float64            `json:"soc_after"`
}

// Rate returns the per kWh tariff of a session of type t on a dock fed by
// source, starting at an hour that is in the peak window when peak is set.
func Rate(t model.ChargingType, source model.SourceKind, peak bool) decimal.Decimal {
	rate := decimal.RequireFromString(t.BaseRate())
	if t == model.ChargingSolar {
		rate = rate.Mul(solarChargingDiscount)
	}
	if peak {
		rate = rate.Mul(peakSurcharge)
	}
	return rate.Mul(decimal.NewFromFloat(source.RateAdjustment()))
}

// Complete settles an active booking using the weather at completion time.
// Nothing is mutated when the booking's dock or vehicle cannot be resolved.
func (s *Station) Complete(bookingID int) (Invoice, error) {
	w := s.weather.Current()
	s.mu.Lock()
	out := s.newOutbox()
	inv, err := s.settle(out, bookingID, w)
	s.mu.Unlock()
	s.flush(out)
	return inv, err
}

func (s *Station) settle(out *outbox, bookingID int, w model.Weather) (Invoice, error) {
	i := s.activeBooking(bookingID)
	if i < 0 {
		return Invoice{}, ErrBookingNotFound
	}
	b := &s.bookings[i]
	di := s.dockIndex(b.DockID)
	if di < 0 {
		return Invoice{}, ErrDockMissing
	}
	dock := &s.docks[di]

	energy := dock.AvailablePower(w) * b.Duration
	peak := s.inPeak(b.StartTime)
	rate := Rate(b.ChargingType, dock.Source, peak)
	cost := decimal.NewFromFloat(energy).Mul(rate)
	user, _ := s.registry.LookupUser(b.UserID)
	premium := user.Premium()
	if premium {
		cost = cost.Mul(premiumDiscount)
	}

	socAfter := 0.0
	if v, ok := s.registry.LookupVehicle(b.VehicleID); ok {
		charged := v.Charge(energy)
		if err := s.registry.UpdateSoC(v.ID, charged.SoC); err != nil {
			return Invoice{}, fmt.Errorf("%w: persist soc of vehicle %d: %v", ErrConsistencyFault, v.ID, err)
		}
		socAfter = charged.SoC
	}

	b.Status = model.BookingCompleted
	b.EnergyKWh = energy
	b.Cost = cost
	dock.OccupiedHours += b.Duration
	dock.Release()

	inv := Invoice{
		BookingID:    b.ID,
		UserID:       b.UserID,
		VehicleID:    b.VehicleID,
		DockID:       dock.ID,
		Source:       dock.Source.String(),
		ChargingType: b.ChargingType,
		Weather:      w.String(),
		EnergyKWh:    energy,
		Rate:         rate,
		PeakRate:     peak,
		Premium:      premium,
		Total:        cost,
		SoCAfter:     socAfter,
	}
	s.logger.Debugw("session settled", map[string]any{
		"station_id": s.cfg.ID,
		"booking_id": inv.BookingID,
		"user_id":    inv.UserID,
		"vehicle_id": inv.VehicleID,
		"energy_kwh": inv.EnergyKWh,
		"rate":       inv.Rate.String(),
		"total":      inv.Total.StringFixed(2),
	})
	s.notify(out, b.UserID, model.NotifyEnergy, "Charging session completed. Energy consumed:", energy, true)
	s.notify(out, b.UserID, model.NotifyCost, "Total cost for the session: $", cost.Round(2).InexactFloat64(), true)
	out.events = append(out.events, events.BookingSettled{
		StationID: s.cfg.ID,
		Booking:   *b,
		Source:    dock.Source,
		Rate:      rate,
		CO2Kg:     dock.Source.CO2(energy),
	})
	s.record(out, journal.Record{
		Kind:      journal.KindSettled,
		BookingID: b.ID,
		UserID:    b.UserID,
		VehicleID: b.VehicleID,
		DockID:    b.DockID,
		Start:     b.StartTime,
		Duration:  b.Duration,
		EnergyKWh: energy,
		Amount:    cost,
	})
	return inv, nil
}
