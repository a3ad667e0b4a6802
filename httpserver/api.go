package httpserver

import "github.com/ruteri/encrypted-ticket-registry/interfaces"

// PrincipalHeader carries the calling principal's address on authenticated
// routes.
const PrincipalHeader = "X-Registry-Principal"

// CreateTicketRequest is the body of POST /api/tickets. The caller comes from
// the principal header, not the body.
type CreateTicketRequest struct {
	EventName  string `json:"event_name"`
	Venue      string `json:"venue"`
	Date       string `json:"date"`
	SealedSeat []byte `json:"sealed_seat"`
	Proof      []byte `json:"proof"`
}

// CreateTicketResponse is the body of a successful create.
type CreateTicketResponse struct {
	ID interfaces.TicketID `json:"id"`
}

// HandleResponse carries an opaque handle.
type HandleResponse struct {
	Handle interfaces.Handle `json:"handle"`
}

// TransferRequest is the body of POST /api/tickets/{id}/transfer.
type TransferRequest struct {
	NewOwner interfaces.Principal `json:"new_owner"`
}

// CountResponse is the body of GET /api/public/tickets/count.
type CountResponse struct {
	Count uint64 `json:"count"`
}

// OwnedResponse is the body of GET /api/public/owned/{principal}.
type OwnedResponse struct {
	Tickets []interfaces.TicketID `json:"tickets"`
}

// IngestRequest is the body of POST /api/handles/ingest on the platform
// surface.
type IngestRequest struct {
	Ciphertext []byte               `json:"ciphertext"`
	Proof      []byte               `json:"proof"`
	Registry   interfaces.Principal `json:"registry"`
	Submitter  interfaces.Principal `json:"submitter"`
}

// MaterializeBoolRequest is the body of POST /api/handles/materialize-bool.
type MaterializeBoolRequest struct {
	Value bool `json:"value"`
}

// CapabilityRequest is the body of grant and revoke calls on the platform
// surface.
type CapabilityRequest struct {
	Principal interfaces.Principal `json:"principal"`
}
