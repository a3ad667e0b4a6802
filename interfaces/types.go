package interfaces

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// TicketID identifies a ticket. IDs are assigned sequentially starting at 0
// and are never reused.
type TicketID uint64

// Principal is an identity capable of owning tickets and authorizing
// operations. It is a 20-byte address in the host ledger's address scheme.
type Principal common.Address

// NewPrincipalFromHex parses a principal from a hex string, with or without
// a 0x prefix.
func NewPrincipalFromHex(addr string) (Principal, error) {
	if !common.IsHexAddress(addr) {
		return Principal{}, fmt.Errorf("invalid principal address: %s", addr)
	}
	return Principal(common.HexToAddress(addr)), nil
}

// String returns the checksummed hex representation of the principal.
func (p Principal) String() string {
	return common.Address(p).Hex()
}

// Bytes returns the raw 20-byte address.
func (p Principal) Bytes() []byte {
	return p[:]
}

// IsZero reports whether this is the null principal.
func (p Principal) IsZero() bool {
	return p == Principal{}
}

// MarshalText encodes the principal as checksummed hex for JSON and logs.
func (p Principal) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a hex-encoded principal.
func (p *Principal) UnmarshalText(text []byte) error {
	parsed, err := NewPrincipalFromHex(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Handle is an opaque 32-byte reference to a ciphertext held by the external
// encrypted-compute platform. A handle carries no plaintext information to
// holders without a capability grant.
type Handle [32]byte

// NewHandleFromBytes creates a handle from a 32-byte slice.
func NewHandleFromBytes(source []byte) (Handle, error) {
	if len(source) != 32 {
		return Handle{}, errors.New("invalid handle length: must be 32 bytes")
	}

	var h Handle
	copy(h[:], source)
	return h, nil
}

// NewHandleFromHex creates a handle from a 64-character hex string, with or
// without a 0x prefix.
func NewHandleFromHex(source string) (Handle, error) {
	clean := strings.TrimPrefix(source, "0x")
	if len(clean) != 64 {
		return Handle{}, errors.New("invalid handle length: hex string must be 64 characters")
	}

	raw, err := hex.DecodeString(clean)
	if err != nil {
		return Handle{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewHandleFromBytes(raw)
}

// String returns the hex representation of the handle.
func (h Handle) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns the raw 32-byte handle.
func (h Handle) Bytes() []byte {
	return h[:]
}

// Equal compares two handles.
func (h Handle) Equal(other Handle) bool {
	return bytes.Equal(h[:], other[:])
}

// IsZero reports whether the handle is unset.
func (h Handle) IsZero() bool {
	return h == Handle{}
}

// MarshalText encodes the handle as hex for JSON and logs.
func (h Handle) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText parses a hex-encoded handle.
func (h *Handle) UnmarshalText(text []byte) error {
	parsed, err := NewHandleFromHex(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Ticket is the canonical record held by the ticket store. EventName, Venue
// and Date are public display strings; SeatHandle and LockHandle reference
// encrypted values on the platform. SeatHandle is immutable after creation,
// LockHandle is replaced (never mutated in place) on every lock or unlock.
type Ticket struct {
	ID         TicketID  `json:"id"`
	EventName  string    `json:"event_name"`
	Venue      string    `json:"venue"`
	Date       string    `json:"date"`
	SeatHandle Handle    `json:"seat_handle"`
	LockHandle Handle    `json:"lock_handle"`
	Owner      Principal `json:"owner"`
	Exists     bool      `json:"exists"`
}

// TicketMetadata is the public, unauthenticated projection of a ticket.
type TicketMetadata struct {
	EventName string    `json:"event_name"`
	Venue     string    `json:"venue"`
	Date      string    `json:"date"`
	Owner     Principal `json:"owner"`
	Exists    bool      `json:"exists"`
}

// Metadata returns the public projection of the ticket.
func (t Ticket) Metadata() TicketMetadata {
	return TicketMetadata{
		EventName: t.EventName,
		Venue:     t.Venue,
		Date:      t.Date,
		Owner:     t.Owner,
		Exists:    t.Exists,
	}
}

// ProofContext binds an ingestion proof to the registry instance and the
// submitting principal, preventing ciphertext replay across registries or
// submitters.
type ProofContext struct {
	// Registry is the address identifying this registry deployment.
	Registry Principal

	// Submitter is the principal submitting the ciphertext.
	Submitter Principal
}
