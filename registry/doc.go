// Package registry implements the ticket registry façade, the sole mutation
// boundary over the ticket store, the ownership index and the capability
// gateway.
//
// All mutating operations (CreateTicket, SetLock, Transfer) execute under one
// mutex, giving the serialized single-writer model: no two mutations
// interleave, and reads never observe a partially applied mutation. Every
// operation validates its inputs and the caller's authority before touching
// any state.
//
// Mutations emit domain events (TicketCreated, LockStatusChanged,
// TicketTransferred) to the configured journal sinks. Sinks are best-effort
// observers: a sink failure is logged and counted but never fails the
// mutation that produced the event.
package registry
