package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventDispatch EventType = "dispatch"
	EventMessage  EventType = "message"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// DispatchEvent is emitted after a reducer has committed a new state.
type DispatchEvent struct {
	EventBase
	Kind ActionKind `json:"kind"`
	// Depth is 0 for an external dispatch and grows by one per follow-up level.
	Depth   int  `json:"depth"`
	Changed bool `json:"changed"`
	Cells   int  `json:"cells"`
}

// MessageEvent is emitted when an outbound message is delivered.
type MessageEvent struct {
	EventBase
	Kind MessageKind `json:"kind"`
}

// LifecycleHooks defines callbacks for editor observability.
type LifecycleHooks struct {
	OnDispatch func(context.Context, *DispatchEvent)
	OnMessage  func(context.Context, *MessageEvent)
}
