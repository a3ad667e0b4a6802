package gateway

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/encrypted-ticket-registry/interfaces"
)

func testSeed() []byte {
	return bytes.Repeat([]byte{0x42}, 32)
}

func testPrincipal(b byte) interfaces.Principal {
	var p interfaces.Principal
	p[19] = b
	return p
}

func TestSimpleGateway_SeedLength(t *testing.T) {
	_, err := NewSimpleGateway([]byte("short"), testPrincipal(0xff))
	assert.Error(t, err)
}

func TestSimpleGateway_SealIngestReveal(t *testing.T) {
	ctx := context.Background()
	registry := testPrincipal(0xff)
	alice := testPrincipal(1)

	gw, err := NewSimpleGateway(testSeed(), registry)
	require.NoError(t, err)

	ciphertext, proof, err := gw.SealSeat(42, alice)
	require.NoError(t, err)

	handle, err := gw.Ingest(ctx, ciphertext, proof, gw.ProofContext(alice))
	require.NoError(t, err)
	assert.False(t, handle.IsZero())

	// No grant yet: reveal must fail.
	_, err = gw.RevealSeat(ctx, handle, alice)
	assert.ErrorIs(t, err, interfaces.ErrNoCapability)

	require.NoError(t, gw.Grant(ctx, handle, alice))

	seat, err := gw.RevealSeat(ctx, handle, alice)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), seat)
}

func TestSimpleGateway_IngestRejections(t *testing.T) {
	ctx := context.Background()
	registry := testPrincipal(0xff)
	alice := testPrincipal(1)
	bob := testPrincipal(2)

	gw, err := NewSimpleGateway(testSeed(), registry)
	require.NoError(t, err)

	ciphertext, proof, err := gw.SealSeat(7, alice)
	require.NoError(t, err)

	tests := []struct {
		name       string
		ciphertext []byte
		proof      []byte
		proofCtx   interfaces.ProofContext
	}{
		{
			name:       "tampered ciphertext",
			ciphertext: append([]byte{0x00}, ciphertext[1:]...),
			proof:      proof,
			proofCtx:   gw.ProofContext(alice),
		},
		{
			name:       "tampered proof",
			ciphertext: ciphertext,
			proof:      append([]byte{0x00}, proof[1:]...),
			proofCtx:   gw.ProofContext(alice),
		},
		{
			name:       "wrong submitter context",
			ciphertext: ciphertext,
			proof:      proof,
			proofCtx:   gw.ProofContext(bob),
		},
		{
			name:       "empty proof",
			ciphertext: ciphertext,
			proof:      nil,
			proofCtx:   gw.ProofContext(alice),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gw.Ingest(ctx, tt.ciphertext, tt.proof, tt.proofCtx)
			assert.ErrorIs(t, err, interfaces.ErrInvalidProof)
		})
	}
}

func TestSimpleGateway_MaterializeBool(t *testing.T) {
	ctx := context.Background()
	registry := testPrincipal(0xff)
	alice := testPrincipal(1)

	gw, err := NewSimpleGateway(testSeed(), registry)
	require.NoError(t, err)

	locked, err := gw.MaterializeBool(ctx, true)
	require.NoError(t, err)

	unlocked, err := gw.MaterializeBool(ctx, false)
	require.NoError(t, err)

	// Fresh handle per call even for the same value.
	again, err := gw.MaterializeBool(ctx, true)
	require.NoError(t, err)
	assert.False(t, locked.Equal(again))

	require.NoError(t, gw.Grant(ctx, locked, alice))
	require.NoError(t, gw.Grant(ctx, unlocked, alice))

	v, err := gw.RevealBool(ctx, locked, alice)
	require.NoError(t, err)
	assert.True(t, v)

	v, err = gw.RevealBool(ctx, unlocked, alice)
	require.NoError(t, err)
	assert.False(t, v)
}

func TestSimpleGateway_GrantRevoke(t *testing.T) {
	ctx := context.Background()
	registry := testPrincipal(0xff)
	alice := testPrincipal(1)

	gw, err := NewSimpleGateway(testSeed(), registry)
	require.NoError(t, err)

	handle, err := gw.MaterializeBool(ctx, true)
	require.NoError(t, err)

	// Granting twice is a no-op.
	require.NoError(t, gw.Grant(ctx, handle, alice))
	require.NoError(t, gw.Grant(ctx, handle, alice))

	_, err = gw.RevealBool(ctx, handle, alice)
	require.NoError(t, err)

	require.NoError(t, gw.Revoke(ctx, handle, alice))
	_, err = gw.RevealBool(ctx, handle, alice)
	assert.ErrorIs(t, err, interfaces.ErrNoCapability)

	// Revoking an absent grant is a no-op.
	require.NoError(t, gw.Revoke(ctx, handle, alice))

	// Granting on an unknown handle is an error.
	unknown := interfaces.Handle{0x01}
	err = gw.Grant(ctx, unknown, alice)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, interfaces.ErrInvalidProof))
}

func TestSimpleGateway_RevealTypeMismatch(t *testing.T) {
	ctx := context.Background()
	registry := testPrincipal(0xff)
	alice := testPrincipal(1)

	gw, err := NewSimpleGateway(testSeed(), registry)
	require.NoError(t, err)

	boolHandle, err := gw.MaterializeBool(ctx, true)
	require.NoError(t, err)
	require.NoError(t, gw.Grant(ctx, boolHandle, alice))

	_, err = gw.RevealSeat(ctx, boolHandle, alice)
	assert.Error(t, err)
}
