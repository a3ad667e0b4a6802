package interfaces

import "errors"

var (
	// ErrInvalidInput is returned for malformed caller input: an empty
	// required string field, or a null/self/zero principal where a distinct
	// one is required. The operation leaves no state change behind.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when an operation references a ticket id that
	// was never created.
	ErrNotFound = errors.New("ticket not found")

	// ErrNotAuthorized is returned when the caller is not the current owner
	// of the ticket for an owner-gated operation.
	ErrNotAuthorized = errors.New("caller is not the ticket owner")

	// ErrInvalidProof is returned when the encrypted-compute platform rejects
	// a ciphertext+proof pair at ingestion. The ticket is not created.
	ErrInvalidProof = errors.New("ciphertext proof verification failed")

	// ErrNoCapability is returned by the platform when a principal attempts
	// an out-of-band decrypt on a handle it was never granted.
	ErrNoCapability = errors.New("no capability for handle")

	// ErrInvalidLocationURI is returned when a store or journal location URI
	// is malformed or names an unsupported scheme.
	ErrInvalidLocationURI = errors.New("invalid location URI")
)
