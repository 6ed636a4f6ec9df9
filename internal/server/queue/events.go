// Package queue publishes domain messages to Redis Streams for downstream
// delivery workers.
package queue

import "time"

// Event types
const (
	AlarmDue = "alarm.due"
)

// Event is the envelope written to the "event" field of every stream entry.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}
