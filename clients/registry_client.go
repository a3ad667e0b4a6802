// Package clients provides the HTTP client for the registry server, used by
// the CLI and by integration tests.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ruteri/encrypted-ticket-registry/httpserver"
	"github.com/ruteri/encrypted-ticket-registry/interfaces"
)

// RegistryClient calls the registry server's HTTP API. Methods map 1:1 onto
// façade operations; façade error kinds are reconstructed from the response
// status so errors.Is works across the wire.
type RegistryClient struct {
	// ServerAddr is the base URL of the registry server.
	ServerAddr string

	// Caller identifies the acting principal on authenticated calls.
	Caller interfaces.Principal

	// HTTPClient is used for requests. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// CreateTicket submits a sealed seat with its proof and the public display
// fields.
func (c *RegistryClient) CreateTicket(ctx context.Context, eventName, venue, date string, sealedSeat, proof []byte) (interfaces.TicketID, error) {
	req := httpserver.CreateTicketRequest{
		EventName:  eventName,
		Venue:      venue,
		Date:       date,
		SealedSeat: sealedSeat,
		Proof:      proof,
	}

	var resp httpserver.CreateTicketResponse
	if err := c.do(ctx, http.MethodPost, "/api/tickets", true, req, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// SeatHandle fetches the opaque seat handle of a ticket owned by the caller.
func (c *RegistryClient) SeatHandle(ctx context.Context, id interfaces.TicketID) (interfaces.Handle, error) {
	var resp httpserver.HandleResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/tickets/%d/seat-handle", id), true, nil, &resp); err != nil {
		return interfaces.Handle{}, err
	}
	return resp.Handle, nil
}

// LockHandle fetches the opaque lock handle of a ticket owned by the caller.
func (c *RegistryClient) LockHandle(ctx context.Context, id interfaces.TicketID) (interfaces.Handle, error) {
	var resp httpserver.HandleResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/tickets/%d/lock-handle", id), true, nil, &resp); err != nil {
		return interfaces.Handle{}, err
	}
	return resp.Handle, nil
}

// Lock sets the ticket's lock state to locked.
func (c *RegistryClient) Lock(ctx context.Context, id interfaces.TicketID) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/tickets/%d/lock", id), true, nil, nil)
}

// Unlock sets the ticket's lock state to unlocked.
func (c *RegistryClient) Unlock(ctx context.Context, id interfaces.TicketID) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/tickets/%d/unlock", id), true, nil, nil)
}

// Transfer re-owns the ticket to newOwner.
func (c *RegistryClient) Transfer(ctx context.Context, id interfaces.TicketID, newOwner interfaces.Principal) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/tickets/%d/transfer", id), true,
		httpserver.TransferRequest{NewOwner: newOwner}, nil)
}

// Metadata fetches the public projection of a ticket.
func (c *RegistryClient) Metadata(ctx context.Context, id interfaces.TicketID) (interfaces.TicketMetadata, error) {
	var resp interfaces.TicketMetadata
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/public/tickets/%d", id), false, nil, &resp); err != nil {
		return interfaces.TicketMetadata{}, err
	}
	return resp, nil
}

// Count fetches the number of tickets ever created.
func (c *RegistryClient) Count(ctx context.Context) (uint64, error) {
	var resp httpserver.CountResponse
	if err := c.do(ctx, http.MethodGet, "/api/public/tickets/count", false, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// OwnedTickets fetches the ids owned by principal.
func (c *RegistryClient) OwnedTickets(ctx context.Context, principal interfaces.Principal) ([]interfaces.TicketID, error) {
	var resp httpserver.OwnedResponse
	if err := c.do(ctx, http.MethodGet, "/api/public/owned/"+principal.String(), false, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tickets, nil
}

func (c *RegistryClient) do(ctx context.Context, method, path string, authenticated bool, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.ServerAddr+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		req.Header.Set(httpserver.PrincipalHeader, c.Caller.String())
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not request registry endpoint %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("registry endpoint %s: %w: %s", path, errorForStatus(resp.StatusCode), string(bodyBytes))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not parse registry response: %w", err)
	}
	return nil
}

// errorForStatus reverses the server's error-to-status mapping. A 400 cannot
// be split back into InvalidInput vs InvalidProof, so it surfaces as
// InvalidInput.
func errorForStatus(status int) error {
	switch status {
	case http.StatusBadRequest:
		return interfaces.ErrInvalidInput
	case http.StatusNotFound:
		return interfaces.ErrNotFound
	case http.StatusForbidden:
		return interfaces.ErrNotAuthorized
	default:
		return errors.New(http.StatusText(status))
	}
}
