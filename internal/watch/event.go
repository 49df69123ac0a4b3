package watch

import "time"

// EventType classifies a surfaced filesystem notification.
type EventType string

const (
	EventAdd    EventType = "add"
	EventChange EventType = "change"
)

// Event is one settled filesystem notification. Repeated activity on the
// same path collapses to the most recent event before a batch is emitted.
type Event struct {
	Type      EventType `json:"type"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}
