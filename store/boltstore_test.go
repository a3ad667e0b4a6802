package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/encrypted-ticket-registry/interfaces"
)

func openBolt(t *testing.T) *BoltStore {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "tickets.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestBoltStore_CreateGetCount(t *testing.T) {
	s := openBolt(t)
	ctx := context.Background()
	alice := testPrincipal(1)

	for i := 0; i < 3; i++ {
		id, err := s.Create(ctx, testTicket(alice))
		require.NoError(t, err)
		assert.Equal(t, interfaces.TicketID(i), id)
	}

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	got, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Concert", got.EventName)
	assert.Equal(t, alice, got.Owner)
	assert.True(t, got.Exists)

	_, err = s.Get(ctx, 42)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestBoltStore_CreateValidation(t *testing.T) {
	s := openBolt(t)
	ctx := context.Background()

	ticket := testTicket(testPrincipal(1))
	ticket.Venue = ""

	_, err := s.Create(ctx, ticket)
	assert.ErrorIs(t, err, interfaces.ErrInvalidInput)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestBoltStore_Mutations(t *testing.T) {
	s := openBolt(t)
	ctx := context.Background()
	alice := testPrincipal(1)
	bob := testPrincipal(2)

	id, err := s.Create(ctx, testTicket(alice))
	require.NoError(t, err)

	require.NoError(t, s.SetOwner(ctx, id, bob))
	require.NoError(t, s.SetLockHandle(ctx, id, testHandle(7)))

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, bob, got.Owner)
	assert.Equal(t, testHandle(7), got.LockHandle)

	assert.ErrorIs(t, s.SetOwner(ctx, 42, bob), interfaces.ErrNotFound)
	assert.ErrorIs(t, s.SetLockHandle(ctx, 42, testHandle(7)), interfaces.ErrNotFound)
}

func TestBoltStore_OwnershipIndex(t *testing.T) {
	s := openBolt(t)
	ctx := context.Background()
	alice := testPrincipal(1)

	for i := 0; i < 4; i++ {
		require.NoError(t, s.Add(ctx, alice, interfaces.TicketID(i)))
	}

	ids, err := s.List(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []interfaces.TicketID{0, 1, 2, 3}, ids)

	// Swap-and-pop: removing from the middle moves the last id into the hole.
	found, err := s.Remove(ctx, alice, 1)
	require.NoError(t, err)
	assert.True(t, found)

	ids, err = s.List(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []interfaces.TicketID{0, 3, 2}, ids)

	found, err = s.Remove(ctx, alice, 42)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBoltStore_TransferOwner(t *testing.T) {
	s := openBolt(t)
	ctx := context.Background()
	alice := testPrincipal(1)
	bob := testPrincipal(2)

	id, err := s.Create(ctx, testTicket(alice))
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx, alice, id))

	require.NoError(t, s.TransferOwner(ctx, id, alice, bob))

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, bob, got.Owner)

	aliceIDs, err := s.List(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, aliceIDs)

	bobIDs, err := s.List(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, []interfaces.TicketID{id}, bobIDs)

	// Absent id fails without touching the index.
	assert.ErrorIs(t, s.TransferOwner(ctx, 42, alice, bob), interfaces.ErrNotFound)
}

func TestBoltStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tickets.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	alice := testPrincipal(1)

	s, err := NewBoltStore(path, logger)
	require.NoError(t, err)

	id, err := s.Create(ctx, testTicket(alice))
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx, alice, id))
	require.NoError(t, s.Close())

	reopened, err := NewBoltStore(path, logger)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Concert", got.EventName)

	ids, err := reopened.List(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []interfaces.TicketID{id}, ids)

	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}
