package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/encrypted-ticket-registry/interfaces"
)

func testPrincipal(b byte) interfaces.Principal {
	var p interfaces.Principal
	p[19] = b
	return p
}

func testHandle(b byte) interfaces.Handle {
	var h interfaces.Handle
	h[31] = b
	return h
}

func testTicket(owner interfaces.Principal) interfaces.Ticket {
	return interfaces.Ticket{
		EventName:  "Concert",
		Venue:      "Arena",
		Date:       "2026-09-01",
		SeatHandle: testHandle(1),
		LockHandle: testHandle(2),
		Owner:      owner,
	}
}

func TestMemStore_SequentialIDs(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	alice := testPrincipal(1)

	for i := 0; i < 5; i++ {
		ticket := testTicket(alice)
		ticket.EventName = fmt.Sprintf("Event %d", i)

		id, err := s.Create(ctx, ticket)
		require.NoError(t, err)
		assert.Equal(t, interfaces.TicketID(i), id)

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), count)
	}
}

func TestMemStore_CreateValidation(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	alice := testPrincipal(1)

	tests := []struct {
		name   string
		mutate func(*interfaces.Ticket)
	}{
		{"empty event name", func(tk *interfaces.Ticket) { tk.EventName = "" }},
		{"empty venue", func(tk *interfaces.Ticket) { tk.Venue = "" }},
		{"empty date", func(tk *interfaces.Ticket) { tk.Date = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := testTicket(alice)
			tt.mutate(&ticket)

			_, err := s.Create(ctx, ticket)
			assert.ErrorIs(t, err, interfaces.ErrInvalidInput)

			count, err := s.Count(ctx)
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestMemStore_GetAndExists(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	alice := testPrincipal(1)

	id, err := s.Create(ctx, testTicket(alice))
	require.NoError(t, err)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Concert", got.EventName)
	assert.Equal(t, alice, got.Owner)
	assert.True(t, got.Exists)
	assert.Equal(t, id, got.ID)

	exists, err := s.Exists(ctx, id)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = s.Get(ctx, 999)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	exists, err = s.Exists(ctx, 999)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemStore_SetOwnerAndLockHandle(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	alice := testPrincipal(1)
	bob := testPrincipal(2)

	id, err := s.Create(ctx, testTicket(alice))
	require.NoError(t, err)

	require.NoError(t, s.SetOwner(ctx, id, bob))
	require.NoError(t, s.SetLockHandle(ctx, id, testHandle(9)))

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, bob, got.Owner)
	assert.Equal(t, testHandle(9), got.LockHandle)
	// Seat handle untouched.
	assert.Equal(t, testHandle(1), got.SeatHandle)

	assert.ErrorIs(t, s.SetOwner(ctx, 999, bob), interfaces.ErrNotFound)
	assert.ErrorIs(t, s.SetLockHandle(ctx, 999, testHandle(9)), interfaces.ErrNotFound)
}
