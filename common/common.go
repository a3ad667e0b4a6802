// Package common holds process-wide identity and logger setup shared by
// the server and client binaries.
package common

// PackageName is used as the metrics namespace and the default service tag.
const PackageName = "encrypted_ticket_registry"

// Version is set at build time via -ldflags.
var Version = "dev"
