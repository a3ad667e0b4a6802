package store

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/encrypted-ticket-registry/interfaces"
)

func TestNewBackendFromURI(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("mem", func(t *testing.T) {
		backend, err := NewBackendFromURI("mem://", logger)
		require.NoError(t, err)
		defer backend.Close()

		assert.IsType(t, &MemStore{}, backend.Store)
		assert.NotNil(t, backend.Index)
	})

	t.Run("bolt", func(t *testing.T) {
		uri := "bolt://" + filepath.Join(t.TempDir(), "tickets.db")
		backend, err := NewBackendFromURI(uri, logger)
		require.NoError(t, err)
		defer backend.Close()

		bs, ok := backend.Store.(*BoltStore)
		require.True(t, ok)
		// The bolt backend serves both roles from one database.
		assert.Equal(t, bs, backend.Index)
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		_, err := NewBackendFromURI("redis://localhost", logger)
		assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
	})

	t.Run("bolt without path", func(t *testing.T) {
		_, err := NewBackendFromURI("bolt://", logger)
		assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
	})
}
