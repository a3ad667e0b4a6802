package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/ruteri/encrypted-ticket-registry/interfaces"
)

// MemStore is an in-memory ticket arena indexed by sequential id. Ids are
// never reused; tickets are never deleted.
type MemStore struct {
	mu      sync.RWMutex
	tickets []interfaces.Ticket
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Create validates the display fields, assigns the next sequential id and
// appends the ticket to the arena.
func (s *MemStore) Create(ctx context.Context, ticket interfaces.Ticket) (interfaces.TicketID, error) {
	if err := validateFields(ticket); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := interfaces.TicketID(len(s.tickets))
	ticket.ID = id
	ticket.Exists = true
	s.tickets = append(s.tickets, ticket)

	return id, nil
}

// Get returns the ticket, or interfaces.ErrNotFound.
func (s *MemStore) Get(ctx context.Context, id interfaces.TicketID) (interfaces.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if int(id) >= len(s.tickets) {
		return interfaces.Ticket{}, fmt.Errorf("%w: id %d", interfaces.ErrNotFound, id)
	}
	return s.tickets[id], nil
}

// Exists reports whether the id was ever created.
func (s *MemStore) Exists(ctx context.Context, id interfaces.TicketID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int(id) < len(s.tickets), nil
}

// SetOwner replaces the ticket's owner.
func (s *MemStore) SetOwner(ctx context.Context, id interfaces.TicketID, newOwner interfaces.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if int(id) >= len(s.tickets) {
		return fmt.Errorf("%w: id %d", interfaces.ErrNotFound, id)
	}
	s.tickets[id].Owner = newOwner
	return nil
}

// SetLockHandle replaces the ticket's lock handle.
func (s *MemStore) SetLockHandle(ctx context.Context, id interfaces.TicketID, handle interfaces.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if int(id) >= len(s.tickets) {
		return fmt.Errorf("%w: id %d", interfaces.ErrNotFound, id)
	}
	s.tickets[id].LockHandle = handle
	return nil
}

// Count returns the number of tickets ever created.
func (s *MemStore) Count(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return uint64(len(s.tickets)), nil
}

func validateFields(ticket interfaces.Ticket) error {
	if ticket.EventName == "" {
		return fmt.Errorf("%w: empty event name", interfaces.ErrInvalidInput)
	}
	if ticket.Venue == "" {
		return fmt.Errorf("%w: empty venue", interfaces.ErrInvalidInput)
	}
	if ticket.Date == "" {
		return fmt.Errorf("%w: empty date", interfaces.ErrInvalidInput)
	}
	return nil
}
