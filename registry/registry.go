package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ruteri/encrypted-ticket-registry/interfaces"
	"github.com/ruteri/encrypted-ticket-registry/metrics"
)

// Config collects the façade's dependencies.
type Config struct {
	// Principal identifies this registry instance toward the capability
	// gateway; ingest proofs are bound to it.
	Principal interfaces.Principal

	Gateway interfaces.CapabilityGateway
	Store   interfaces.TicketStore
	Index   interfaces.OwnershipIndex

	// Sinks receive emitted domain events. May be empty.
	Sinks []interfaces.EventSink

	Log *slog.Logger
}

// Registry implements interfaces.TicketRegistry.
type Registry struct {
	principal interfaces.Principal
	gateway   interfaces.CapabilityGateway
	store     interfaces.TicketStore
	index     interfaces.OwnershipIndex
	sinks     []interfaces.EventSink
	log       *slog.Logger

	// mu serializes mutations; reads take it briefly so they never observe a
	// half-applied transfer.
	mu sync.Mutex
}

// New creates the registry façade.
func New(cfg *Config) *Registry {
	return &Registry{
		principal: cfg.Principal,
		gateway:   cfg.Gateway,
		store:     cfg.Store,
		index:     cfg.Index,
		sinks:     cfg.Sinks,
		log:       cfg.Log,
	}
}

// CreateTicket ingests the sealed seat, materializes the initial lock state
// (locked), persists the ticket under the caller and grants the caller
// capability on both handles.
func (r *Registry) CreateTicket(ctx context.Context, req interfaces.CreateTicketRequest) (id interfaces.TicketID, err error) {
	defer func() { metrics.RecordOperation("create_ticket", err) }()

	if req.EventName == "" || req.Venue == "" || req.Date == "" {
		return 0, fmt.Errorf("%w: event name, venue and date must be non-empty", interfaces.ErrInvalidInput)
	}
	if req.Caller.IsZero() {
		return 0, fmt.Errorf("%w: caller must not be the null principal", interfaces.ErrInvalidInput)
	}
	if len(req.SealedSeat) == 0 || len(req.Proof) == 0 {
		return 0, fmt.Errorf("%w: sealed seat and proof must be non-empty", interfaces.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seatHandle, err := r.gateway.Ingest(ctx, req.SealedSeat, req.Proof, interfaces.ProofContext{
		Registry:  r.principal,
		Submitter: req.Caller,
	})
	if err != nil {
		return 0, fmt.Errorf("seat ingest failed: %w", err)
	}

	// Every new ticket starts locked.
	lockHandle, err := r.gateway.MaterializeBool(ctx, true)
	if err != nil {
		return 0, fmt.Errorf("failed to materialize initial lock state: %w", err)
	}

	id, err = r.store.Create(ctx, interfaces.Ticket{
		EventName:  req.EventName,
		Venue:      req.Venue,
		Date:       req.Date,
		SeatHandle: seatHandle,
		LockHandle: lockHandle,
		Owner:      req.Caller,
	})
	if err != nil {
		return 0, err
	}

	if err := r.index.Add(ctx, req.Caller, id); err != nil {
		// The ticket row exists but is not listed under its owner. Nothing to
		// compensate with since tickets are never deleted; surface loudly.
		r.log.Error("Ownership index add failed after create, index is inconsistent",
			slog.Uint64("ticket", uint64(id)), "err", err)
		return 0, fmt.Errorf("failed to index ticket %d: %w", id, err)
	}

	if err := r.gateway.Grant(ctx, seatHandle, req.Caller); err != nil {
		return 0, fmt.Errorf("failed to grant seat capability: %w", err)
	}
	if err := r.gateway.Grant(ctx, lockHandle, req.Caller); err != nil {
		return 0, fmt.Errorf("failed to grant lock capability: %w", err)
	}

	r.emit(ctx, interfaces.Event{
		Kind:      interfaces.EventTicketCreated,
		Ticket:    id,
		Actor:     req.Caller,
		EventName: req.EventName,
	})

	r.log.Info("Ticket created",
		slog.Uint64("ticket", uint64(id)),
		slog.String("owner", req.Caller.String()),
		slog.String("event", req.EventName))

	return id, nil
}

// SeatHandle returns the opaque seat handle. Owner-gated.
func (r *Registry) SeatHandle(ctx context.Context, id interfaces.TicketID, caller interfaces.Principal) (h interfaces.Handle, err error) {
	defer func() { metrics.RecordOperation("seat_handle", err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, err := r.authorize(ctx, id, caller)
	if err != nil {
		return interfaces.Handle{}, err
	}
	return ticket.SeatHandle, nil
}

// LockHandle returns the opaque lock handle. Owner-gated.
func (r *Registry) LockHandle(ctx context.Context, id interfaces.TicketID, caller interfaces.Principal) (h interfaces.Handle, err error) {
	defer func() { metrics.RecordOperation("lock_handle", err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, err := r.authorize(ctx, id, caller)
	if err != nil {
		return interfaces.Handle{}, err
	}
	return ticket.LockHandle, nil
}

// SetLock materializes a fresh handle holding the desired lock state,
// installs it and grants it to the owner. Repeating the call with the same
// state is allowed; each call issues a fresh handle and a fresh event.
func (r *Registry) SetLock(ctx context.Context, id interfaces.TicketID, caller interfaces.Principal, locked bool) (err error) {
	defer func() { metrics.RecordOperation("set_lock", err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.authorize(ctx, id, caller); err != nil {
		return err
	}

	handle, err := r.gateway.MaterializeBool(ctx, locked)
	if err != nil {
		return fmt.Errorf("failed to materialize lock state: %w", err)
	}

	if err := r.store.SetLockHandle(ctx, id, handle); err != nil {
		return err
	}
	if err := r.gateway.Grant(ctx, handle, caller); err != nil {
		return fmt.Errorf("failed to grant lock capability: %w", err)
	}

	r.emit(ctx, interfaces.Event{
		Kind:   interfaces.EventLockStatusChanged,
		Ticket: id,
		Actor:  caller,
	})

	r.log.Info("Lock state changed",
		slog.Uint64("ticket", uint64(id)),
		slog.Bool("locked", locked),
		slog.String("owner", caller.String()))

	return nil
}

// Lock is SetLock with the locked state.
func (r *Registry) Lock(ctx context.Context, id interfaces.TicketID, caller interfaces.Principal) error {
	return r.SetLock(ctx, id, caller, true)
}

// Unlock is SetLock with the unlocked state.
func (r *Registry) Unlock(ctx context.Context, id interfaces.TicketID, caller interfaces.Principal) error {
	return r.SetLock(ctx, id, caller, false)
}

// Transfer re-owns the ticket to newOwner, keeps the index consistent on both
// sides and grants newOwner capability on both handles. The previous owner's
// capability is not revoked.
func (r *Registry) Transfer(ctx context.Context, id interfaces.TicketID, caller, newOwner interfaces.Principal) (err error) {
	defer func() { metrics.RecordOperation("transfer", err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, err := r.authorize(ctx, id, caller)
	if err != nil {
		return err
	}
	if newOwner.IsZero() {
		return fmt.Errorf("%w: cannot transfer to the null principal", interfaces.ErrInvalidInput)
	}
	if newOwner == caller {
		return fmt.Errorf("%w: cannot transfer to the current owner", interfaces.ErrInvalidInput)
	}

	if at, ok := r.store.(interfaces.AtomicTransferrer); ok {
		if err := at.TransferOwner(ctx, id, caller, newOwner); err != nil {
			return err
		}
	} else if err := r.transferCompensating(ctx, id, caller, newOwner); err != nil {
		return err
	}

	if err := r.gateway.Grant(ctx, ticket.SeatHandle, newOwner); err != nil {
		return fmt.Errorf("failed to grant seat capability to new owner: %w", err)
	}
	if err := r.gateway.Grant(ctx, ticket.LockHandle, newOwner); err != nil {
		return fmt.Errorf("failed to grant lock capability to new owner: %w", err)
	}

	r.emit(ctx, interfaces.Event{
		Kind:     interfaces.EventTicketTransferred,
		Ticket:   id,
		Actor:    caller,
		NewOwner: newOwner,
	})

	r.log.Info("Ticket transferred",
		slog.Uint64("ticket", uint64(id)),
		slog.String("from", caller.String()),
		slog.String("to", newOwner.String()))

	return nil
}

// transferCompensating moves ownership over a store without native atomic
// transfer. Each step that fails undoes the steps before it, so the record is
// never owned by one principal while indexed under another.
func (r *Registry) transferCompensating(ctx context.Context, id interfaces.TicketID, from, to interfaces.Principal) error {
	found, err := r.index.Remove(ctx, from, id)
	if err != nil {
		return fmt.Errorf("failed to unindex ticket %d: %w", id, err)
	}
	if !found {
		return fmt.Errorf("ownership index inconsistent: id %d not indexed under %s", id, from)
	}

	if err := r.index.Add(ctx, to, id); err != nil {
		if undoErr := r.index.Add(ctx, from, id); undoErr != nil {
			r.log.Error("Transfer compensation failed", slog.Uint64("ticket", uint64(id)), "err", undoErr)
		}
		return fmt.Errorf("failed to index ticket %d under new owner: %w", id, err)
	}

	if err := r.store.SetOwner(ctx, id, to); err != nil {
		if _, undoErr := r.index.Remove(ctx, to, id); undoErr != nil {
			r.log.Error("Transfer compensation failed", slog.Uint64("ticket", uint64(id)), "err", undoErr)
		}
		if undoErr := r.index.Add(ctx, from, id); undoErr != nil {
			r.log.Error("Transfer compensation failed", slog.Uint64("ticket", uint64(id)), "err", undoErr)
		}
		return err
	}

	return nil
}

// OwnedTickets lists the ids currently owned by principal, in current index
// order.
func (r *Registry) OwnedTickets(ctx context.Context, principal interfaces.Principal) (ids []interfaces.TicketID, err error) {
	defer func() { metrics.RecordOperation("owned_tickets", err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.index.List(ctx, principal)
}

// Metadata returns the public projection of the ticket.
func (r *Registry) Metadata(ctx context.Context, id interfaces.TicketID) (md interfaces.TicketMetadata, err error) {
	defer func() { metrics.RecordOperation("metadata", err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, err := r.store.Get(ctx, id)
	if err != nil {
		return interfaces.TicketMetadata{}, err
	}
	return ticket.Metadata(), nil
}

// Count returns the number of tickets ever created.
func (r *Registry) Count(ctx context.Context) (n uint64, err error) {
	defer func() { metrics.RecordOperation("count", err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.store.Count(ctx)
}

// authorize loads the ticket and checks caller is its current owner. Callers
// must hold r.mu.
func (r *Registry) authorize(ctx context.Context, id interfaces.TicketID, caller interfaces.Principal) (interfaces.Ticket, error) {
	ticket, err := r.store.Get(ctx, id)
	if err != nil {
		return interfaces.Ticket{}, err
	}
	if ticket.Owner != caller {
		return interfaces.Ticket{}, fmt.Errorf("%w: %s is not the owner of ticket %d", interfaces.ErrNotAuthorized, caller, id)
	}
	return ticket, nil
}

// emit fans the event out to all sinks. Sink failures are logged and counted,
// never propagated.
func (r *Registry) emit(ctx context.Context, event interfaces.Event) {
	event.Time = time.Now().UTC()
	metrics.RecordEvent(string(event.Kind))

	for _, sink := range r.sinks {
		if err := sink.Record(ctx, event); err != nil {
			metrics.RecordSinkFailure(sink.Name())
			r.log.Warn("Event sink write failed",
				slog.String("sink", sink.Name()),
				slog.String("kind", string(event.Kind)),
				"err", err)
		}
	}
}
