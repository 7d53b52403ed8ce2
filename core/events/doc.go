// Package events defines the station events emitted on the event bus.
//
// Available event types:
//   - BookingAdmitted: a request was admitted onto a dock
//   - BookingRejected: admission failed, with the rejection reason
//   - BookingCancelled: an active booking was cancelled with a penalty
//   - BookingSettled: a booking completed and was invoiced
//   - VehicleDischarged: energy returned to the grid by a V2G vehicle
//   - QueueChanged: the deferred queue depth changed
//   - WeatherChanged: the operator changed the weather condition
package events
