package events

import (
	"github.com/shopspring/decimal"

	"github.com/kilianp07/chargestation/core/model"
)

// Event is implemented by every station event.
type Event interface {
	Station() int
}

// BookingAdmitted is published when a booking is created.
type BookingAdmitted struct {
	StationID int
	Booking   model.Booking
	Source    model.SourceKind
}

// BookingRejected is published when admission fails.
type BookingRejected struct {
	StationID int
	Request   model.DeferredRequest
	Reason    string
	Err       error
}

// BookingCancelled is published when an active booking is cancelled.
type BookingCancelled struct {
	StationID int
	Booking   model.Booking
	Penalty   decimal.Decimal
}

// BookingSettled is published when a booking completes.
type BookingSettled struct {
	StationID int
	Booking   model.Booking
	Source    model.SourceKind
	Rate      decimal.Decimal
	CO2Kg     float64
}

func (e BookingAdmitted) Station() int  { return e.StationID }
func (e BookingRejected) Station() int  { return e.StationID }
func (e BookingCancelled) Station() int { return e.StationID }
func (e BookingSettled) Station() int   { return e.StationID }
