package models

import "time"

// EventNotification is the message published for each lifecycle change.
type EventNotification struct {
	Action     string     `json:"action"`
	EventID    string     `json:"eventId"`
	Title      string     `json:"title,omitempty"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
	Approved   bool       `json:"approved"`
	OccurredAt time.Time  `json:"occurredAt"`
}
