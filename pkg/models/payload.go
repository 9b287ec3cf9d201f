package models

import "time"

// Payload is the fixed content carried by an alarm notification
type Payload struct {
	AlarmID string    // Alarm the trigger belongs to
	Title   string    // Notification title
	Body    string    // Notification body
	Sound   bool      // Whether the host should play a sound
	FireAt  time.Time // The fire instant this notification stands for
	Missed  bool      // Catch-up notification for an instant that passed unnoticed
}

// NewPayload builds the notification content for an alarm firing at the given instant
func NewPayload(a Alarm, fireAt time.Time) Payload {
	body := a.Info
	if body == "" {
		body = "Alarm"
	}
	return Payload{
		AlarmID: a.ID,
		Title:   a.Time,
		Body:    body,
		Sound:   true,
		FireAt:  fireAt,
	}
}
