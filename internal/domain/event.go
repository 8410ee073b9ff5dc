package domain

import "time"

// StreamEvent is one progress event for an execution. Events are immutable
// once created and serialize as {event, data, timestamp} on the wire.
type StreamEvent struct {
	ExecutionID string         `json:"-"`
	Event       EventKind      `json:"event"`
	Data        map[string]any `json:"data"`
	Timestamp   time.Time      `json:"timestamp"`
}

// NewStreamEvent stamps an event with the current time
func NewStreamEvent(executionID string, kind EventKind, data map[string]any) StreamEvent {
	return StreamEvent{
		ExecutionID: executionID,
		Event:       kind,
		Data:        data,
		Timestamp:   time.Now().UTC(),
	}
}
