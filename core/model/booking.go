package model

import "github.com/shopspring/decimal"

// Hours of the day are expressed as fractional hours on a 24h clock.
const (
	DayStart = 0.0
	DayEnd   = 24.0
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus int

const (
	BookingActive BookingStatus = iota
	BookingCancelled
	BookingCompleted
)

// String returns a human-readable representation of the status.
func (s BookingStatus) String() string {
	switch s {
	case BookingActive:
		return "active"
	case BookingCancelled:
		return "cancelled"
	case BookingCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Booking is one admitted charging session. It only refers to users,
// vehicles and docks by id.
type Booking struct {
	ID             int             `json:"id"`
	StationID      int             `json:"station_id"`
	UserID         int             `json:"user_id"`
	VehicleID      int             `json:"vehicle_id"`
	DockID         int             `json:"dock_id"`
	StartTime      float64         `json:"start_time"`
	RequestedStart float64         `json:"requested_start"`
	Deferred       bool            `json:"deferred"`
	Duration       float64         `json:"duration"`
	ChargingType   ChargingType    `json:"charging_type"`
	Status         BookingStatus   `json:"status"`
	EnergyKWh      float64         `json:"energy_kwh"`
	Cost           decimal.Decimal `json:"cost"`
}

// Active reports whether the booking still holds its dock.
func (b Booking) Active() bool { return b.Status == BookingActive }

// End returns the exclusive end of the booking interval.
func (b Booking) End() float64 { return b.StartTime + b.Duration }

// Overlaps reports whether [start, start+duration) intersects the booking
// interval. Touching endpoints do not conflict.
func (b Booking) Overlaps(start, duration float64) bool {
	return start < b.End() && start+duration > b.StartTime
}

// DeferredRequest is a booking request waiting in the station queue. It has
// no booking id until admitted.
type DeferredRequest struct {
	UserID       int          `json:"user_id" yaml:"user_id"`
	VehicleID    int          `json:"vehicle_id" yaml:"vehicle_id"`
	StartTime    float64      `json:"start_time" yaml:"start_time"`
	Duration     float64      `json:"duration" yaml:"duration"`
	PowerKW      float64      `json:"power_kw" yaml:"power_kw"`
	ChargingType ChargingType `json:"charging_type" yaml:"charging_type"`
}

// NewRequest builds a request whose power rating follows the charging code.
func NewRequest(userID, vehicleID int, start, duration float64, t ChargingType) DeferredRequest {
	return DeferredRequest{
		UserID:       userID,
		VehicleID:    vehicleID,
		StartTime:    start,
		Duration:     duration,
		PowerKW:      t.PowerRating(),
		ChargingType: t,
	}
}
