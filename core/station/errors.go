package station

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by a station operation wraps exactly
// one of them.
var (
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrNoAvailableDock  = errors.New("no available dock")
	ErrConsistencyFault = errors.New("consistency fault")
)

// Specific rejections.
var (
	ErrStartTimeOutOfRange = fmt.Errorf("%w: start time outside [0,24)", ErrInvalidInput)
	ErrInvalidDuration     = fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	ErrUnknownChargingType = fmt.Errorf("%w: unknown charging type", ErrInvalidInput)
	ErrNegativeEnergy      = fmt.Errorf("%w: energy must not be negative", ErrInvalidInput)
	ErrDuplicateID         = fmt.Errorf("%w: id already registered", ErrInvalidInput)
	ErrUserNotFound        = fmt.Errorf("%w: user", ErrNotFound)
	ErrVehicleNotFound     = fmt.Errorf("%w: vehicle", ErrNotFound)
	ErrBookingNotFound     = fmt.Errorf("%w: active booking", ErrNotFound)
	ErrStationNotFound     = fmt.Errorf("%w: station", ErrNotFound)
	ErrDockMissing         = fmt.Errorf("%w: booking references unknown dock", ErrConsistencyFault)
)

// RejectionReason maps an error to a stable label suitable for metric labels
// and journal entries.
func RejectionReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStartTimeOutOfRange):
		return "start_out_of_range"
	case errors.Is(err, ErrInvalidDuration):
		return "invalid_duration"
	case errors.Is(err, ErrUnknownChargingType):
		return "unknown_charging_type"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrVehicleNotFound):
		return "vehicle_not_found"
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, ErrNoAvailableDock):
		return "no_available_dock"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConsistencyFault):
		return "consistency_fault"
	default:
		return "unknown"
	}
}
