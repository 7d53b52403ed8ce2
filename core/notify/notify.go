// Package notify delivers user-facing station notifications. Delivery is
// fire-and-forget from the station's point of view: a failing sink is logged
// and never rolls back a booking.
package notify

import (
	"errors"

	"github.com/kilianp07/chargestation/core/logger"
	"github.com/kilianp07/chargestation/core/model"
)

// NotificationSink delivers a notification to a user.
type NotificationSink interface {
	Notify(n model.Notification) error
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) Notify(model.Notification) error { return nil }

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	Log logger.Logger
}

// Notify logs the notification with its structured fields.
func (l LogNotifier) Notify(n model.Notification) error {
	if l.Log == nil {
		return nil
	}
	fields := map[string]any{
		"station_id": n.StationID,
		"user_id":    n.UserID,
		"kind":       string(n.Kind),
	}
	if n.HasValue {
		fields["value"] = n.Value
	}
	l.Log.Debugw(n.Message, fields)
	return nil
}

// MultiNotifier fans a notification out to several sinks. Every sink is
// attempted; the errors are joined.
type MultiNotifier struct {
	Sinks []NotificationSink
}

// NewMultiNotifier creates a MultiNotifier with the provided sinks.
func NewMultiNotifier(sinks ...NotificationSink) *MultiNotifier {
	return &MultiNotifier{Sinks: sinks}
}

func (m *MultiNotifier) Notify(n model.Notification) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.Notify(n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Closer is implemented by sinks holding a connection.
type Closer interface {
	Close() error
}

// Close closes every sink implementing Closer.
func (m *MultiNotifier) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if c, ok := s.(Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
