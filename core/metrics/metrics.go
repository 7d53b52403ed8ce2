package metrics

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdmissionEvent describes a booking accepted by a station.
type AdmissionEvent struct {
	StationID    int
	BookingID    int
	UserID       int
	DockID       int
	Source       string
	ChargingType string
	Start        float64
	Duration     float64
	Deferred     bool
	Time         time.Time
}

// MetricsSink records station activity for observability purposes.
type MetricsSink interface {
	RecordAdmission(ev AdmissionEvent) error
}

// RejectionEvent captures a refused booking request.
type RejectionEvent struct {
	StationID int
	UserID    int
	Reason    string
	Time      time.Time
}

// RejectionRecorder records refused requests.
type RejectionRecorder interface {
	RecordRejection(ev RejectionEvent) error
}

// CancellationEvent captures a cancelled booking and the penalty charged.
type CancellationEvent struct {
	StationID int
	BookingID int
	Penalty   decimal.Decimal
	Time      time.Time
}

// CancellationRecorder records cancellations.
type CancellationRecorder interface {
	RecordCancellation(ev CancellationEvent) error
}

// SettlementEvent captures a completed charging session.
type SettlementEvent struct {
	StationID int
	BookingID int
	DockID    int
	Source    string
	EnergyKWh float64
	Cost      decimal.Decimal
	CO2Kg     float64
	Time      time.Time
}

// SettlementRecorder records settled sessions.
type SettlementRecorder interface {
	RecordSettlement(ev SettlementEvent) error
}

// DischargeEvent captures energy returned to the grid by a V2G vehicle.
type DischargeEvent struct {
	StationID int
	VehicleID int
	EnergyKWh float64
	SoCAfter  float64
	Time      time.Time
}

// DischargeRecorder records V2G discharges.
type DischargeRecorder interface {
	RecordDischarge(ev DischargeEvent) error
}

// QueueDepthRecorder records the size of a station's deferred queue.
type QueueDepthRecorder interface {
	RecordQueueDepth(stationID, depth int) error
}

// NopSink implements MetricsSink and every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordAdmission(AdmissionEvent) error       { return nil }
func (NopSink) RecordRejection(RejectionEvent) error       { return nil }
func (NopSink) RecordCancellation(CancellationEvent) error { return nil }
func (NopSink) RecordSettlement(SettlementEvent) error     { return nil }
func (NopSink) RecordDischarge(DischargeEvent) error       { return nil }
func (NopSink) RecordQueueDepth(int, int) error            { return nil }
