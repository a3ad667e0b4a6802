package interfaces

import "context"

// CapabilityGateway is the boundary with the external encrypted-compute
// platform. The registry uses it to turn sealed inputs into handles and to
// manage which principals may later decrypt a handle. All calls are
// synchronous and fail-fast; the registry never retries them.
type CapabilityGateway interface {
	// Ingest validates proof against ciphertext and proofCtx and registers
	// the ciphertext with the platform. Returns ErrInvalidProof if the proof
	// does not verify.
	Ingest(ctx context.Context, ciphertext, proof []byte, proofCtx ProofContext) (Handle, error)

	// MaterializeBool produces a handle for a registry-chosen plaintext
	// boolean without external ciphertext, implicitly self-granted to the
	// registry.
	MaterializeBool(ctx context.Context, value bool) (Handle, error)

	// Grant authorizes principal to later decrypt handle. Granting an
	// already-granted capability is a no-op.
	Grant(ctx context.Context, handle Handle, principal Principal) error

	// Revoke withdraws a previously granted capability. Revoking a grant
	// that does not exist is a no-op.
	Revoke(ctx context.Context, handle Handle, principal Principal) error
}

// TicketStore owns the canonical ticket table. It performs no authorization
// checks; gating callers is the registry façade's job.
type TicketStore interface {
	// Create validates the display fields, assigns the next sequential id
	// and persists the ticket. The ID and Exists fields of the argument are
	// ignored. Returns ErrInvalidInput if any required string field is empty.
	Create(ctx context.Context, ticket Ticket) (TicketID, error)

	// Get returns the ticket, or ErrNotFound.
	Get(ctx context.Context, id TicketID) (Ticket, error)

	// Exists reports whether the id was ever created.
	Exists(ctx context.Context, id TicketID) (bool, error)

	// SetOwner replaces the ticket's owner. Returns ErrNotFound if absent.
	SetOwner(ctx context.Context, id TicketID, newOwner Principal) error

	// SetLockHandle replaces the ticket's lock handle. Returns ErrNotFound
	// if absent.
	SetLockHandle(ctx context.Context, id TicketID, handle Handle) error

	// Count returns the number of tickets ever created, which equals the
	// next id to assign.
	Count(ctx context.Context) (uint64, error)
}

// OwnershipIndex is the derived reverse mapping from principal to the set of
// ticket ids it owns. Removal uses swap-with-last-and-pop, so index order
// among an owner's tickets is not stable across removals; callers must not
// depend on it.
type OwnershipIndex interface {
	// Add appends id to owner's set. The façade guarantees each id is added
	// exactly once per ownership interval.
	Add(ctx context.Context, owner Principal, id TicketID) error

	// Remove deletes id from owner's set, reporting whether it was found.
	// A false return indicates an internal consistency bug, not a user
	// error.
	Remove(ctx context.Context, owner Principal, id TicketID) (bool, error)

	// List returns owner's current ticket ids in current internal order.
	List(ctx context.Context, owner Principal) ([]TicketID, error)
}

// AtomicTransferrer is an optional store capability: moving a ticket between
// owners (record owner field plus both index sides) in one native
// transaction. The façade prefers it over the remove/add/compensate path
// when the store advertises it.
type AtomicTransferrer interface {
	// TransferOwner atomically re-owns the ticket from -> to, updating the
	// ownership index on both sides. Returns ErrNotFound if absent.
	TransferOwner(ctx context.Context, id TicketID, from, to Principal) error
}

// CreateTicketRequest carries the inputs of the façade create operation.
type CreateTicketRequest struct {
	EventName string
	Venue     string
	Date      string

	// SealedSeat is the platform-sealed encrypted seat number, produced by
	// the caller out-of-band.
	SealedSeat []byte

	// Proof binds SealedSeat to this registry and the caller.
	Proof []byte

	Caller Principal
}

// TicketRegistry is the public operation surface. It is the sole mutation
// boundary over the store, the index and the gateway; all mutating
// operations execute atomically and in total order with respect to each
// other.
type TicketRegistry interface {
	// CreateTicket ingests the sealed seat, creates the ticket (initially
	// locked), indexes it under the caller and grants the caller capability
	// on both handles.
	CreateTicket(ctx context.Context, req CreateTicketRequest) (TicketID, error)

	// SeatHandle returns the opaque seat handle for the caller to decrypt
	// out-of-band. Owner-gated.
	SeatHandle(ctx context.Context, id TicketID, caller Principal) (Handle, error)

	// LockHandle returns the opaque lock handle for the caller to decrypt
	// out-of-band. Owner-gated.
	LockHandle(ctx context.Context, id TicketID, caller Principal) (Handle, error)

	// SetLock materializes a fresh lock handle with the desired state and
	// installs it. Owner-gated. Idempotent at the observable-state level;
	// handle identity is not stable across repeated calls.
	SetLock(ctx context.Context, id TicketID, caller Principal, locked bool) error

	// Transfer re-owns the ticket to newOwner and grants newOwner capability
	// on both handles. The previous owner's capability is not revoked.
	// Owner-gated; rejects the null principal and self-transfer.
	Transfer(ctx context.Context, id TicketID, caller, newOwner Principal) error

	// OwnedTickets lists the ids currently owned by principal.
	OwnedTickets(ctx context.Context, principal Principal) ([]TicketID, error)

	// Metadata returns the public projection; unauthenticated.
	Metadata(ctx context.Context, id TicketID) (TicketMetadata, error)

	// Count returns the number of tickets ever created.
	Count(ctx context.Context) (uint64, error)
}
