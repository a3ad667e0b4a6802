package store

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ruteri/encrypted-ticket-registry/index"
	"github.com/ruteri/encrypted-ticket-registry/interfaces"
)

// Backend bundles a ticket store with its ownership index and an optional
// closer for the underlying resource.
type Backend struct {
	Store interfaces.TicketStore
	Index interfaces.OwnershipIndex

	closer func() error
}

// Close releases the backend's underlying resource, if any.
func (b *Backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer()
}

// NewBackendFromURI creates a store backend from a location URI.
//
// Supported schemes:
//   - mem:// - in-memory arena plus in-memory ownership index
//   - bolt:///path/to.db - bbolt database implementing both
//
// Returns an error if the URI is invalid or the scheme is unsupported.
func NewBackendFromURI(locationURI string, log *slog.Logger) (*Backend, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "mem":
		return &Backend{
			Store: NewMemStore(),
			Index: index.New(),
		}, nil

	case "bolt":
		path := u.Path
		if u.Host != "" {
			path = u.Host + "/" + strings.TrimPrefix(path, "/")
		}
		if path == "" {
			return nil, fmt.Errorf("%w: empty path in bolt URI %s", interfaces.ErrInvalidLocationURI, locationURI)
		}

		bs, err := NewBoltStore(path, log)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Store:  bs,
			Index:  bs,
			closer: bs.Close,
		}, nil

	default:
		return nil, fmt.Errorf("%w: unsupported store scheme %s", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}
