package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ruteri/encrypted-ticket-registry/interfaces"
)

// maxBodySize is the maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

// Handler processes HTTP requests for the ticket registry service. All
// registry semantics live in the façade; the handler only translates between
// HTTP and façade calls.
type Handler struct {
	registry interfaces.TicketRegistry

	// gateway, when set, enables the platform handle API on this server.
	gateway interfaces.CapabilityGateway

	log *slog.Logger
}

// NewHandler creates an HTTP request handler over the given façade. Pass a
// non-nil gateway to expose the platform handle API alongside the registry
// API.
func NewHandler(registry interfaces.TicketRegistry, gateway interfaces.CapabilityGateway, log *slog.Logger) *Handler {
	return &Handler{
		registry: registry,
		gateway:  gateway,
		log:      log,
	}
}

// HandleCreateTicket processes POST /api/tickets.
func (h *Handler) HandleCreateTicket(w http.ResponseWriter, r *http.Request) {
	caller, err := callerPrincipal(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req CreateTicketRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	id, err := h.registry.CreateTicket(r.Context(), interfaces.CreateTicketRequest{
		EventName:  req.EventName,
		Venue:      req.Venue,
		Date:       req.Date,
		SealedSeat: req.SealedSeat,
		Proof:      req.Proof,
		Caller:     caller,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, CreateTicketResponse{ID: id})
}

// HandleMetadata processes GET /api/public/tickets/{id}.
func (h *Handler) HandleMetadata(w http.ResponseWriter, r *http.Request) {
	id, err := ticketID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	md, err := h.registry.Metadata(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, md)
}

// HandleCount processes GET /api/public/tickets/count.
func (h *Handler) HandleCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.registry.Count(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, CountResponse{Count: count})
}

// HandleOwned processes GET /api/public/owned/{principal}.
func (h *Handler) HandleOwned(w http.ResponseWriter, r *http.Request) {
	principal, err := interfaces.NewPrincipalFromHex(chi.URLParam(r, "principal"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ids, err := h.registry.OwnedTickets(r.Context(), principal)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []interfaces.TicketID{}
	}

	h.writeJSON(w, http.StatusOK, OwnedResponse{Tickets: ids})
}

// HandleSeatHandle processes GET /api/tickets/{id}/seat-handle.
func (h *Handler) HandleSeatHandle(w http.ResponseWriter, r *http.Request) {
	h.handleReadHandle(w, r, h.registry.SeatHandle)
}

// HandleLockHandle processes GET /api/tickets/{id}/lock-handle.
func (h *Handler) HandleLockHandle(w http.ResponseWriter, r *http.Request) {
	h.handleReadHandle(w, r, h.registry.LockHandle)
}

func (h *Handler) handleReadHandle(w http.ResponseWriter, r *http.Request, read func(ctx context.Context, id interfaces.TicketID, caller interfaces.Principal) (interfaces.Handle, error)) {
	id, caller, err := ticketIDAndCaller(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	handle, err := read(r.Context(), id, caller)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, HandleResponse{Handle: handle})
}

// HandleLock processes POST /api/tickets/{id}/lock.
func (h *Handler) HandleLock(w http.ResponseWriter, r *http.Request) {
	h.handleSetLock(w, r, true)
}

// HandleUnlock processes POST /api/tickets/{id}/unlock.
func (h *Handler) HandleUnlock(w http.ResponseWriter, r *http.Request) {
	h.handleSetLock(w, r, false)
}

func (h *Handler) handleSetLock(w http.ResponseWriter, r *http.Request, locked bool) {
	id, caller, err := ticketIDAndCaller(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.registry.SetLock(r.Context(), id, caller, locked); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// HandleTransfer processes POST /api/tickets/{id}/transfer.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	id, caller, err := ticketIDAndCaller(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req TransferRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if err := h.registry.Transfer(r.Context(), id, caller, req.NewOwner); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// HandleIngest processes POST /api/handles/ingest on the platform surface.
func (h *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	handle, err := h.gateway.Ingest(r.Context(), req.Ciphertext, req.Proof, interfaces.ProofContext{
		Registry:  req.Registry,
		Submitter: req.Submitter,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, HandleResponse{Handle: handle})
}

// HandleMaterializeBool processes POST /api/handles/materialize-bool.
func (h *Handler) HandleMaterializeBool(w http.ResponseWriter, r *http.Request) {
	var req MaterializeBoolRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	handle, err := h.gateway.MaterializeBool(r.Context(), req.Value)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, HandleResponse{Handle: handle})
}

// HandleGrant processes POST /api/handles/{handle}/grant.
func (h *Handler) HandleGrant(w http.ResponseWriter, r *http.Request) {
	h.handleCapability(w, r, h.gateway.Grant)
}

// HandleRevoke processes POST /api/handles/{handle}/revoke.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	h.handleCapability(w, r, h.gateway.Revoke)
}

func (h *Handler) handleCapability(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, handle interfaces.Handle, principal interfaces.Principal) error) {
	handle, err := interfaces.NewHandleFromHex(chi.URLParam(r, "handle"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req CapabilityRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if err := op(r.Context(), handle, req.Principal); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// writeError maps façade errors onto HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, interfaces.ErrInvalidInput), errors.Is(err, interfaces.ErrInvalidProof):
		status = http.StatusBadRequest
	case errors.Is(err, interfaces.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, interfaces.ErrNotAuthorized):
		status = http.StatusForbidden
	}

	if status == http.StatusInternalServerError {
		h.log.Error("Request failed", slog.String("path", r.URL.Path), "err", err)
	}

	http.Error(w, err.Error(), status)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func callerPrincipal(r *http.Request) (interfaces.Principal, error) {
	raw := r.Header.Get(PrincipalHeader)
	if raw == "" {
		return interfaces.Principal{}, fmt.Errorf("missing %s header", PrincipalHeader)
	}
	return interfaces.NewPrincipalFromHex(raw)
}

func ticketID(r *http.Request) (interfaces.TicketID, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ticket id %q: %w", raw, err)
	}
	return interfaces.TicketID(id), nil
}

func ticketIDAndCaller(r *http.Request) (interfaces.TicketID, interfaces.Principal, error) {
	id, err := ticketID(r)
	if err != nil {
		return 0, interfaces.Principal{}, err
	}
	caller, err := callerPrincipal(r)
	if err != nil {
		return 0, interfaces.Principal{}, err
	}
	return id, caller, nil
}
