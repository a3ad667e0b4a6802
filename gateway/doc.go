// Package gateway implements the capability gateway: the registry's boundary
// with the external encrypted-compute platform.
//
// The platform holds all ciphertexts and all plaintext; the registry only
// ever sees opaque handles. The gateway contract covers proof-checked
// ciphertext ingestion, materialization of registry-chosen booleans, and
// capability grants and revocations on handles.
//
// Two implementations are provided:
//
//   - SimpleGateway: a deterministic in-process platform suitable for
//     development and testing. It derives sealing and proof keys from a
//     master seed via HKDF and exposes the platform's out-of-band decrypt
//     surface (RevealSeat, RevealBool) so end-to-end flows can be exercised
//     without a real platform.
//
//   - Client: an HTTP client for a remote platform exposing the same
//     operations.
//
// MockGateway provides a testify mock for component tests.
package gateway
