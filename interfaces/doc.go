// Package interfaces defines the core types and component contracts for the
// encrypted ticket registry, separating interface definitions from
// implementations.
//
// The registry never handles plaintext for the encrypted ticket fields. Seat
// numbers and lock flags live behind opaque handles owned by an external
// encrypted-compute platform; the registry only moves handles around and
// issues capability grants on them. Decryption is an out-of-band operation
// the owning principal performs directly against the platform.
//
// # Component Interfaces
//
//   - CapabilityGateway: Boundary with the encrypted-compute platform:
//     proof-checked ciphertext ingestion, handle materialization, and
//     capability grants/revocations.
//   - TicketStore: Canonical append-only ticket table keyed by sequential id.
//   - OwnershipIndex: Derived principal-to-ticket-set reverse mapping.
//   - TicketRegistry: The façade enforcing validation, authorization and
//     index consistency across store, index and gateway.
//   - EventSink: Observer for emitted domain events.
//
// # Type Definitions
//
//   - TicketID: Sequential, never-reused ticket identifier
//   - Principal: 20-byte address identifying an owning identity
//   - Handle: Opaque 32-byte reference to platform-held ciphertext
//   - Ticket/TicketMetadata: Canonical record and its public projection
//   - Event: Domain event emitted by mutating façade operations
//
// # Error Types
//
// The four failure kinds every operation maps to:
//
//   - ErrInvalidInput: Empty required field, null/self principal
//   - ErrNotFound: Referenced ticket id was never created
//   - ErrNotAuthorized: Caller is not the current owner
//   - ErrInvalidProof: Platform rejected ciphertext+proof at ingestion
//
// Components should depend on these interfaces rather than concrete
// implementations:
//
//	func New(
//	    store interfaces.TicketStore,
//	    index interfaces.OwnershipIndex,
//	    gateway interfaces.CapabilityGateway,
//	) *TicketRegistry {
//	    // ...
//	}
package interfaces
