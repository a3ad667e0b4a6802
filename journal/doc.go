// Package journal provides the event sinks the registry emits domain events
// to. Sinks are best-effort observers of mutations; they never gate or fail
// the operation that produced the event.
//
// Two backends are provided: a local JSON-lines file and an S3 bucket writing
// one object per event. A multi-sink fans one event out to several backends
// and succeeds if at least one write succeeds. Sinks are created from
// location URIs via Factory.
package journal
