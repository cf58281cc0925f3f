package models

import "time"

// NotificationKind names the lifecycle events delivered to notification sinks.
type NotificationKind string

const (
	NotificationStarted   NotificationKind = "verification.started"
	NotificationCompleted NotificationKind = "verification.completed"
	NotificationFailed    NotificationKind = "verification.failed"
)

// Notification is a fire-and-forget lifecycle event.
type Notification struct {
	Kind       NotificationKind `json:"kind"`
	Owner      OwnerRef         `json:"owner"`
	Reference  string           `json:"reference"`
	Driver     string           `json:"driver"`
	Status     Status           `json:"status,omitempty"`
	Event      string           `json:"event,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}
