// Package store provides the canonical ticket table backends.
//
// Two backends are available, selected by location URI through the factory:
//
//   - mem:// - an in-memory arena, for development and tests.
//   - bolt:///path/to.db - a bbolt-backed store that also implements the
//     ownership index and native atomic transfer inside a single database
//     transaction.
//
// The store performs input validation (non-empty display fields) and id
// assignment, but no authorization: gating callers on ownership is the
// registry façade's job.
package store
