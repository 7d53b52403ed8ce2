package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/chargestation/core/events"
	coremetrics "github.com/kilianp07/chargestation/core/metrics"
	"github.com/kilianp07/chargestation/infra/logger"
	"github.com/kilianp07/chargestation/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for events.
// It stops when the context is canceled or the bus is closed.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[events.Event], sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	log := logger.New("metrics-collector")
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := Record(sink, ev, time.Now()); err != nil {
					log.Errorf("record %T: %v", ev, err)
				}
			}
		}
	}()
}

// Record translates a station event into the matching sink call. Sinks that
// do not implement the optional recorder for an event ignore it.
func Record(sink coremetrics.MetricsSink, ev events.Event, now time.Time) error {
	switch e := ev.(type) {
	case events.BookingAdmitted:
		b := e.Booking
		return sink.RecordAdmission(coremetrics.AdmissionEvent{
			StationID:    e.StationID,
			BookingID:    b.ID,
			UserID:       b.UserID,
			DockID:       b.DockID,
			Source:       e.Source.String(),
			ChargingType: b.ChargingType.String(),
			Start:        b.StartTime,
			Duration:     b.Duration,
			Deferred:     b.Deferred,
			Time:         now,
		})
	case events.BookingRejected:
		if r, ok := sink.(coremetrics.RejectionRecorder); ok {
			return r.RecordRejection(coremetrics.RejectionEvent{StationID: e.StationID, UserID: e.Request.UserID, Reason: e.Reason, Time: now})
		}
	case events.BookingCancelled:
		if r, ok := sink.(coremetrics.CancellationRecorder); ok {
			return r.RecordCancellation(coremetrics.CancellationEvent{StationID: e.StationID, BookingID: e.Booking.ID, Penalty: e.Penalty, Time: now})
		}
	case events.BookingSettled:
		if r, ok := sink.(coremetrics.SettlementRecorder); ok {
			return r.RecordSettlement(coremetrics.SettlementEvent{
				StationID: e.StationID,
				BookingID: e.Booking.ID,
				DockID:    e.Booking.DockID,
				Source:    e.Source.String(),
				EnergyKWh: e.Booking.EnergyKWh,
				Cost:      e.Booking.Cost,
				CO2Kg:     e.CO2Kg,
				Time:      now,
			})
		}
	case events.VehicleDischarged:
		if r, ok := sink.(coremetrics.DischargeRecorder); ok {
			return r.RecordDischarge(coremetrics.DischargeEvent{StationID: e.StationID, VehicleID: e.VehicleID, EnergyKWh: e.EnergyKWh, SoCAfter: e.SoCAfter, Time: now})
		}
	case events.QueueChanged:
		if r, ok := sink.(coremetrics.QueueDepthRecorder); ok {
			return r.RecordQueueDepth(e.StationID, e.Depth)
		}
	}
	return nil
}
