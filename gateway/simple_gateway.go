package gateway

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/hkdf"

	"github.com/ruteri/encrypted-ticket-registry/interfaces"
)

// Domain separation labels for key and handle derivation.
const (
	sealInfo  = "ticket-registry/seal"
	proofInfo = "ticket-registry/proof"
	seatLabel = "seat"
	boolLabel = "bool"
)

// SimpleGateway is a deterministic in-process stand-in for the
// encrypted-compute platform. It derives all keys from a master seed,
// suitable for development and testing.
//
// Because it is the platform, it also exposes the out-of-band decrypt
// surface (RevealSeat, RevealBool) that authorized principals would normally
// call against the real platform directly. The registry façade never calls
// these.
type SimpleGateway struct {
	masterSeed []byte
	registry   interfaces.Principal

	mu        sync.RWMutex
	plaintext map[interfaces.Handle][]byte
	grants    map[interfaces.Handle]map[interfaces.Principal]struct{}
	boolNonce uint64
}

// NewSimpleGateway creates a gateway for the given registry address. The
// master seed must be at least 32 bytes long.
func NewSimpleGateway(masterSeed []byte, registry interfaces.Principal) (*SimpleGateway, error) {
	if len(masterSeed) < 32 {
		return nil, errors.New("master seed must be at least 32 bytes")
	}

	return &SimpleGateway{
		masterSeed: masterSeed,
		registry:   registry,
		plaintext:  make(map[interfaces.Handle][]byte),
		grants:     make(map[interfaces.Handle]map[interfaces.Principal]struct{}),
	}, nil
}

// Ingest verifies proof against ciphertext and proofCtx, unseals the
// ciphertext and registers it under a fresh handle. Returns
// interfaces.ErrInvalidProof if the proof does not verify or the ciphertext
// does not unseal.
func (g *SimpleGateway) Ingest(ctx context.Context, ciphertext, proof []byte, proofCtx interfaces.ProofContext) (interfaces.Handle, error) {
	expected := g.proofFor(ciphertext, proofCtx)
	if subtle.ConstantTimeCompare(expected, proof) != 1 {
		return interfaces.Handle{}, fmt.Errorf("%w: proof does not bind ciphertext to context", interfaces.ErrInvalidProof)
	}

	plaintext, err := g.unseal(ciphertext, proofCtx)
	if err != nil {
		return interfaces.Handle{}, fmt.Errorf("%w: %v", interfaces.ErrInvalidProof, err)
	}
	if len(plaintext) != 4 {
		return interfaces.Handle{}, fmt.Errorf("%w: sealed seat must be a 32-bit integer", interfaces.ErrInvalidProof)
	}

	handle := interfaces.Handle(crypto.Keccak256Hash([]byte(seatLabel), ciphertext))

	g.mu.Lock()
	defer g.mu.Unlock()
	g.plaintext[handle] = plaintext
	if g.grants[handle] == nil {
		g.grants[handle] = make(map[interfaces.Principal]struct{})
	}

	return handle, nil
}

// MaterializeBool registers a registry-chosen boolean under a fresh handle.
// Every call yields a distinct handle even for the same value.
func (g *SimpleGateway) MaterializeBool(ctx context.Context, value bool) (interfaces.Handle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var nonce [8]byte
	binary.BigEndian.PutUint64(nonce[:], g.boolNonce)
	g.boolNonce++

	handle := interfaces.Handle(crypto.Keccak256Hash([]byte(boolLabel), g.registry.Bytes(), nonce[:]))

	plaintext := []byte{0}
	if value {
		plaintext[0] = 1
	}
	g.plaintext[handle] = plaintext
	g.grants[handle] = make(map[interfaces.Principal]struct{})

	return handle, nil
}

// Grant authorizes principal to decrypt handle. Idempotent.
func (g *SimpleGateway) Grant(ctx context.Context, handle interfaces.Handle, principal interfaces.Principal) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.plaintext[handle]; !ok {
		return fmt.Errorf("grant on unknown handle %s", handle)
	}

	g.grants[handle][principal] = struct{}{}
	return nil
}

// Revoke withdraws principal's capability on handle. Revoking a grant that
// does not exist is a no-op.
func (g *SimpleGateway) Revoke(ctx context.Context, handle interfaces.Handle, principal interfaces.Principal) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if grants, ok := g.grants[handle]; ok {
		delete(grants, principal)
	}
	return nil
}

// RevealSeat is the platform's out-of-band decrypt for seat handles. It
// requires a prior grant for the calling principal.
func (g *SimpleGateway) RevealSeat(ctx context.Context, handle interfaces.Handle, principal interfaces.Principal) (uint32, error) {
	plaintext, err := g.reveal(handle, principal)
	if err != nil {
		return 0, err
	}
	if len(plaintext) != 4 {
		return 0, fmt.Errorf("handle %s does not reference a seat number", handle)
	}
	return binary.BigEndian.Uint32(plaintext), nil
}

// RevealBool is the platform's out-of-band decrypt for boolean handles. It
// requires a prior grant for the calling principal.
func (g *SimpleGateway) RevealBool(ctx context.Context, handle interfaces.Handle, principal interfaces.Principal) (bool, error) {
	plaintext, err := g.reveal(handle, principal)
	if err != nil {
		return false, err
	}
	if len(plaintext) != 1 {
		return false, fmt.Errorf("handle %s does not reference a boolean", handle)
	}
	return plaintext[0] == 1, nil
}

func (g *SimpleGateway) reveal(handle interfaces.Handle, principal interfaces.Principal) ([]byte, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	plaintext, ok := g.plaintext[handle]
	if !ok {
		return nil, fmt.Errorf("unknown handle %s", handle)
	}
	if _, ok := g.grants[handle][principal]; !ok {
		return nil, fmt.Errorf("%w: %s on %s", interfaces.ErrNoCapability, principal, handle)
	}

	return plaintext, nil
}

// SealSeat seals a seat number for submission to this gateway, producing the
// ciphertext and the proof binding it to the registry and the submitter. In
// production the platform SDK does this on the caller's machine; the dev
// gateway shares its seed with the caller, so the helper lives here.
func (g *SimpleGateway) SealSeat(seat uint32, submitter interfaces.Principal) (ciphertext, proof []byte, err error) {
	proofCtx := interfaces.ProofContext{Registry: g.registry, Submitter: submitter}

	var plaintext [4]byte
	binary.BigEndian.PutUint32(plaintext[:], seat)

	aead, err := g.sealAEAD(proofCtx)
	if err != nil {
		return nil, nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext = aead.Seal(nonce, nonce, plaintext[:], nil)
	return ciphertext, g.proofFor(ciphertext, proofCtx), nil
}

// ProofContext returns the context callers must bind their proofs to when
// submitting to this gateway.
func (g *SimpleGateway) ProofContext(submitter interfaces.Principal) interfaces.ProofContext {
	return interfaces.ProofContext{Registry: g.registry, Submitter: submitter}
}

func (g *SimpleGateway) unseal(ciphertext []byte, proofCtx interfaces.ProofContext) ([]byte, error) {
	aead, err := g.sealAEAD(proofCtx)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < aead.NonceSize() {
		return nil, errors.New("ciphertext shorter than nonce")
	}

	nonce, sealed := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	return aead.Open(nil, nonce, sealed, nil)
}

// sealAEAD derives the per-context sealing key from the master seed.
func (g *SimpleGateway) sealAEAD(proofCtx interfaces.ProofContext) (cipher.AEAD, error) {
	key := g.deriveKey(sealInfo, proofCtx)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// proofFor computes the proof binding ciphertext to proofCtx: a keccak hash
// keyed with an HKDF-derived proof key.
func (g *SimpleGateway) proofFor(ciphertext []byte, proofCtx interfaces.ProofContext) []byte {
	key := g.deriveKey(proofInfo, proofCtx)
	return crypto.Keccak256(key, ciphertext)
}

func (g *SimpleGateway) deriveKey(info string, proofCtx interfaces.ProofContext) []byte {
	reader := hkdf.New(sha256.New, g.masterSeed, nil,
		append(append([]byte(info), proofCtx.Registry.Bytes()...), proofCtx.Submitter.Bytes()...))

	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		// HKDF cannot fail for a 32-byte read with SHA-256.
		panic(err)
	}
	return key
}
