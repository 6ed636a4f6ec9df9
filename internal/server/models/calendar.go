package models

import "time"

// CalendarEntry is a scheduled event for a pet. Entries with a non-nil
// AlarmAt produce an alarm message on the day the alarm is due.
type CalendarEntry struct {
	ID          string
	OwnerID     string
	PetID       string
	ScheduledAt time.Time
	AlarmAt     *time.Time
	Text        string
}

// AlarmMessage is the payload handed to the message queue for one due entry.
type AlarmMessage struct {
	OwnerID     string    `json:"ownerId"`
	PetID       string    `json:"petId"`
	Text        string    `json:"text"`
	ScheduledAt time.Time `json:"scheduledTime"`
	AlarmAt     time.Time `json:"alarmTime"`
}

// NewAlarmMessage maps a calendar entry with an alarm onto its message.
func NewAlarmMessage(e *CalendarEntry) AlarmMessage {
	m := AlarmMessage{
		OwnerID:     e.OwnerID,
		PetID:       e.PetID,
		Text:        e.Text,
		ScheduledAt: e.ScheduledAt,
	}
	if e.AlarmAt != nil {
		m.AlarmAt = *e.AlarmAt
	}
	return m
}
