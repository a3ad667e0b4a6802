package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"

	bolt "go.etcd.io/bbolt"

	"github.com/ruteri/encrypted-ticket-registry/interfaces"
)

var (
	ticketsBucket = []byte("tickets")
	ownersBucket  = []byte("owners")
	metaBucket    = []byte("meta")

	nextIDKey = []byte("next_id")
)

// BoltStore is a bbolt-backed ticket store. It implements both the ticket
// table and the ownership index over one database, and advertises native
// atomic transfer: the record's owner field and both index sides move in a
// single write transaction.
type BoltStore struct {
	db  *bolt.DB
	log *slog.Logger
}

// NewBoltStore opens (creating if needed) the database at path.
func NewBoltStore(path string, log *slog.Logger) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{ticketsBucket, ownersBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BoltStore{db: db, log: log}, nil
}

// Close releases the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Create validates the display fields, assigns the next sequential id and
// persists the ticket.
func (s *BoltStore) Create(ctx context.Context, ticket interfaces.Ticket) (interfaces.TicketID, error) {
	if err := validateFields(ticket); err != nil {
		return 0, err
	}

	var id interfaces.TicketID
	err := s.db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket(metaBucket)

		next := uint64(0)
		if raw := meta.Get(nextIDKey); raw != nil {
			next = binary.BigEndian.Uint64(raw)
		}
		id = interfaces.TicketID(next)

		ticket.ID = id
		ticket.Exists = true
		if err := putTicket(tx, ticket); err != nil {
			return err
		}

		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], next+1)
		return meta.Put(nextIDKey, buf[:])
	})
	if err != nil {
		return 0, fmt.Errorf("failed to persist ticket: %w", err)
	}

	s.log.Debug("Created ticket",
		slog.Uint64("id", uint64(id)),
		slog.String("owner", ticket.Owner.String()))

	return id, nil
}

// Get returns the ticket, or interfaces.ErrNotFound.
func (s *BoltStore) Get(ctx context.Context, id interfaces.TicketID) (interfaces.Ticket, error) {
	var ticket interfaces.Ticket
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		ticket, err = getTicket(tx, id)
		return err
	})
	return ticket, err
}

// Exists reports whether the id was ever created.
func (s *BoltStore) Exists(ctx context.Context, id interfaces.TicketID) (bool, error) {
	var exists bool
	err := s.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket(ticketsBucket).Get(idKey(id)) != nil
		return nil
	})
	return exists, err
}

// SetOwner replaces the ticket's owner.
func (s *BoltStore) SetOwner(ctx context.Context, id interfaces.TicketID, newOwner interfaces.Principal) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		ticket, err := getTicket(tx, id)
		if err != nil {
			return err
		}
		ticket.Owner = newOwner
		return putTicket(tx, ticket)
	})
}

// SetLockHandle replaces the ticket's lock handle.
func (s *BoltStore) SetLockHandle(ctx context.Context, id interfaces.TicketID, handle interfaces.Handle) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		ticket, err := getTicket(tx, id)
		if err != nil {
			return err
		}
		ticket.LockHandle = handle
		return putTicket(tx, ticket)
	})
}

// Count returns the number of tickets ever created.
func (s *BoltStore) Count(ctx context.Context) (uint64, error) {
	var count uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		if raw := tx.Bucket(metaBucket).Get(nextIDKey); raw != nil {
			count = binary.BigEndian.Uint64(raw)
		}
		return nil
	})
	return count, err
}

// Add appends id to owner's persisted id list.
func (s *BoltStore) Add(ctx context.Context, owner interfaces.Principal, id interfaces.TicketID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return indexAdd(tx, owner, id)
	})
}

// Remove deletes id from owner's persisted id list using
// swap-with-last-and-pop, reporting whether it was found.
func (s *BoltStore) Remove(ctx context.Context, owner interfaces.Principal, id interfaces.TicketID) (bool, error) {
	var found bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		var err error
		found, err = indexRemove(tx, owner, id)
		return err
	})
	return found, err
}

// List returns owner's current ticket ids in current internal order.
func (s *BoltStore) List(ctx context.Context, owner interfaces.Principal) ([]interfaces.TicketID, error) {
	var ids []interfaces.TicketID
	err := s.db.View(func(tx *bolt.Tx) error {
		ids = decodeIDList(tx.Bucket(ownersBucket).Get(owner.Bytes()))
		return nil
	})
	return ids, err
}

// TransferOwner implements interfaces.AtomicTransferrer: the owner field and
// both index sides change in one transaction, so a crash can never leave the
// record owned by one principal while indexed under another.
func (s *BoltStore) TransferOwner(ctx context.Context, id interfaces.TicketID, from, to interfaces.Principal) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		ticket, err := getTicket(tx, id)
		if err != nil {
			return err
		}

		found, err := indexRemove(tx, from, id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("ownership index inconsistent: id %d not indexed under %s", id, from)
		}

		if err := indexAdd(tx, to, id); err != nil {
			return err
		}

		ticket.Owner = to
		return putTicket(tx, ticket)
	})
}

func idKey(id interfaces.TicketID) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(id))
	return buf[:]
}

func getTicket(tx *bolt.Tx, id interfaces.TicketID) (interfaces.Ticket, error) {
	raw := tx.Bucket(ticketsBucket).Get(idKey(id))
	if raw == nil {
		return interfaces.Ticket{}, fmt.Errorf("%w: id %d", interfaces.ErrNotFound, id)
	}

	var ticket interfaces.Ticket
	if err := json.Unmarshal(raw, &ticket); err != nil {
		return interfaces.Ticket{}, fmt.Errorf("failed to decode ticket %d: %w", id, err)
	}
	return ticket, nil
}

func putTicket(tx *bolt.Tx, ticket interfaces.Ticket) error {
	raw, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("failed to encode ticket %d: %w", ticket.ID, err)
	}
	return tx.Bucket(ticketsBucket).Put(idKey(ticket.ID), raw)
}

func indexAdd(tx *bolt.Tx, owner interfaces.Principal, id interfaces.TicketID) error {
	bucket := tx.Bucket(ownersBucket)
	ids := decodeIDList(bucket.Get(owner.Bytes()))
	ids = append(ids, id)
	return bucket.Put(owner.Bytes(), encodeIDList(ids))
}

func indexRemove(tx *bolt.Tx, owner interfaces.Principal, id interfaces.TicketID) (bool, error) {
	bucket := tx.Bucket(ownersBucket)
	ids := decodeIDList(bucket.Get(owner.Bytes()))

	for i, existing := range ids {
		if existing != id {
			continue
		}

		last := len(ids) - 1
		ids[i] = ids[last]
		ids = ids[:last]

		if len(ids) == 0 {
			return true, bucket.Delete(owner.Bytes())
		}
		return true, bucket.Put(owner.Bytes(), encodeIDList(ids))
	}

	return false, nil
}

func encodeIDList(ids []interfaces.TicketID) []byte {
	out := make([]byte, 8*len(ids))
	for i, id := range ids {
		binary.BigEndian.PutUint64(out[8*i:], uint64(id))
	}
	return out
}

func decodeIDList(raw []byte) []interfaces.TicketID {
	ids := make([]interfaces.TicketID, 0, len(raw)/8)
	for i := 0; i+8 <= len(raw); i += 8 {
		ids = append(ids, interfaces.TicketID(binary.BigEndian.Uint64(raw[i:])))
	}
	return ids
}
