package model

import "time"

// NotificationKind classifies user notifications.
type NotificationKind string

const (
	NotifyDeferred   NotificationKind = "deferred"
	NotifyScheduled  NotificationKind = "scheduled"
	NotifyCancelled  NotificationKind = "cancelled"
	NotifyEnergy     NotificationKind = "energy"
	NotifyCost       NotificationKind = "cost"
	NotifyDischarged NotificationKind = "discharged"
)

// Notification is a message addressed to one user. Value is optional and
// only meaningful when HasValue is set.
type Notification struct {
	StationID int              `json:"station_id"`
	UserID    int              `json:"user_id"`
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	Value     float64          `json:"value,omitempty"`
	HasValue  bool             `json:"has_value"`
	Time      time.Time        `json:"time"`
}
