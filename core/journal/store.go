// Package journal keeps an append-only audit trail of station decisions.
// It is never read back to rebuild station state.
package journal

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Kind labels a journal entry.
type Kind string

const (
	KindAdmitted   Kind = "admitted"
	KindRejected   Kind = "rejected"
	KindCancelled  Kind = "cancelled"
	KindSettled    Kind = "settled"
	KindDischarged Kind = "discharged"
)

// Record captures one station decision.
type Record struct {
	Timestamp time.Time       `json:"timestamp"`
	StationID int             `json:"station_id"`
	Kind      Kind            `json:"kind"`
	BookingID int             `json:"booking_id,omitempty"`
	UserID    int             `json:"user_id,omitempty"`
	VehicleID int             `json:"vehicle_id,omitempty"`
	DockID    int             `json:"dock_id,omitempty"`
	Start     float64         `json:"start,omitempty"`
	Duration  float64         `json:"duration,omitempty"`
	EnergyKWh float64         `json:"energy_kwh,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason,omitempty"`
}

// LogQuery defines filters for retrieving records. Zero values match everything.
type LogQuery struct {
	Start     time.Time
	End       time.Time
	StationID int
	UserID    int
	Kind      Kind
}

// Match reports whether r satisfies every filter of q.
func (q LogQuery) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.StationID != 0 && r.StationID != q.StationID {
		return false
	}
	if q.UserID != 0 && r.UserID != q.UserID {
		return false
	}
	if q.Kind != "" && r.Kind != q.Kind {
		return false
	}
	return true
}

// LogStore persists Records and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q LogQuery) ([]Record, error)
	Close() error
}

// NopStore discards every record.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error              { return nil }
func (NopStore) Query(context.Context, LogQuery) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                      { return nil }
