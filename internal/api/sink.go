package api

import "image"

// EventSink adapts the hub to the scheduler's sink interface so session
// health shows up on the event stream. Frames are dropped here; pixels are
// rendered by the display manager, never sent over the network.
type EventSink struct {
	hub *Hub
}

// NewEventSink creates a sink broadcasting on hub.
func NewEventSink(hub *Hub) *EventSink {
	return &EventSink{hub: hub}
}

// PublishFrame is a no-op.
func (s *EventSink) PublishFrame(string, *image.RGBA) {}

// PublishDegraded reports a persistently failing session.
func (s *EventSink) PublishDegraded(sessionID string) {
	s.hub.Broadcast(Event{Type: EventSessionDegraded, SessionID: sessionID})
}
