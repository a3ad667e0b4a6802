// Package httpserver exposes the ticket registry façade over HTTP.
//
// The API maps 1:1 onto the façade operations. Authenticated routes identify
// the caller through the X-Registry-Principal header; public routes (metadata,
// count, owned listing) take no credentials. When the server hosts the
// in-process dev platform gateway it additionally serves the platform handle
// API consumed by gateway.Client.
//
// The server carries the usual operational surface: /livez, /readyz, /drain
// and /undrain with an atomic readiness flag, optional pprof, request logging
// and a separate Prometheus metrics listener.
package httpserver
