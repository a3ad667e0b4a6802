// Package index maintains the derived reverse mapping from principal to the
// set of ticket ids it owns. The mapping is non-authoritative: the ticket
// store's owner field is the source of truth, and the registry façade keeps
// the two consistent on every ownership-changing operation.
package index

import (
	"context"
	"sync"

	"github.com/ruteri/encrypted-ticket-registry/interfaces"
)

// Index is an in-memory ownership index.
type Index struct {
	mu      sync.RWMutex
	byOwner map[interfaces.Principal][]interfaces.TicketID
}

// New creates an empty ownership index.
func New() *Index {
	return &Index{
		byOwner: make(map[interfaces.Principal][]interfaces.TicketID),
	}
}

// Add appends id to owner's set.
func (ix *Index) Add(ctx context.Context, owner interfaces.Principal, id interfaces.TicketID) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.byOwner[owner] = append(ix.byOwner[owner], id)
	return nil
}

// Remove deletes id from owner's set using swap-with-last-and-pop: the
// removed slot is filled by the current last element, so index order among
// an owner's tickets is not stable across removals. Reports whether the id
// was found.
func (ix *Index) Remove(ctx context.Context, owner interfaces.Principal, id interfaces.TicketID) (bool, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ids := ix.byOwner[owner]
	for i, existing := range ids {
		if existing != id {
			continue
		}

		last := len(ids) - 1
		ids[i] = ids[last]
		ids = ids[:last]

		if len(ids) == 0 {
			delete(ix.byOwner, owner)
		} else {
			ix.byOwner[owner] = ids
		}
		return true, nil
	}

	return false, nil
}

// List returns owner's current ticket ids in current internal order:
// insertion order except where disturbed by prior removals.
func (ix *Index) List(ctx context.Context, owner interfaces.Principal) ([]interfaces.TicketID, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	ids := ix.byOwner[owner]
	out := make([]interfaces.TicketID, len(ids))
	copy(out, ids)
	return out, nil
}
