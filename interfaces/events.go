package interfaces

import (
	"context"
	"time"
)

// EventKind names a domain event emitted by a mutating façade operation.
type EventKind string

const (
	// EventTicketCreated is emitted once per successful create.
	EventTicketCreated EventKind = "TicketCreated"

	// EventLockStatusChanged is emitted on every SetLock, including ones
	// that leave the observable lock state unchanged.
	EventLockStatusChanged EventKind = "LockStatusChanged"

	// EventTicketTransferred is emitted once per successful transfer.
	EventTicketTransferred EventKind = "TicketTransferred"
)

// Event is a domain event. Every event carries the ticket id and the acting
// principal; creation additionally carries the event name, transfer carries
// both old and new owner.
type Event struct {
	Kind   EventKind `json:"kind"`
	Ticket TicketID  `json:"ticket"`
	Actor  Principal `json:"actor"`
	Time   time.Time `json:"time"`

	// EventName is set for EventTicketCreated.
	EventName string `json:"event_name,omitempty"`

	// NewOwner is set for EventTicketTransferred; Actor is the old owner.
	NewOwner Principal `json:"new_owner,omitzero"`
}

// EventSink receives emitted domain events. Sinks are best-effort observers:
// a sink failure is logged by the emitter and never fails the mutation that
// produced the event.
type EventSink interface {
	// Record persists one event.
	Record(ctx context.Context, event Event) error

	// Available checks if the sink is accessible.
	Available(ctx context.Context) bool

	// Name returns identifier for logging.
	Name() string

	// LocationURI returns the URI identifying this sink.
	LocationURI() string
}
