package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/encrypted-ticket-registry/gateway"
	"github.com/ruteri/encrypted-ticket-registry/index"
	"github.com/ruteri/encrypted-ticket-registry/interfaces"
	"github.com/ruteri/encrypted-ticket-registry/registry"
	"github.com/ruteri/encrypted-ticket-registry/store"
)

var (
	registryAddr = testPrincipal(0xAA)
	alice        = testPrincipal(1)
	bob          = testPrincipal(2)
)

func testPrincipal(b byte) interfaces.Principal {
	var p interfaces.Principal
	p[19] = b
	return p
}

type testServer struct {
	srv     *httptest.Server
	gateway *gateway.SimpleGateway
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}
	gw, err := gateway.NewSimpleGateway(seed, registryAddr)
	require.NoError(t, err)

	reg := registry.New(&registry.Config{
		Principal: registryAddr,
		Gateway:   gw,
		Store:     store.NewMemStore(),
		Index:     index.New(),
		Log:       log,
	})

	srv, err := New(&HTTPServerConfig{
		ListenAddr:               "127.0.0.1:0",
		Log:                      log,
		DrainDuration:            time.Millisecond,
		GracefulShutdownDuration: time.Second,
	}, NewHandler(reg, gw, log))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.getRouter())
	t.Cleanup(ts.Close)

	return &testServer{srv: ts, gateway: gw}
}

func (ts *testServer) request(t *testing.T, method, path string, caller *interfaces.Principal, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, ts.srv.URL+path, reader)
	require.NoError(t, err)
	if caller != nil {
		req.Header.Set(PrincipalHeader, caller.String())
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (ts *testServer) createTicket(t *testing.T, caller interfaces.Principal, eventName string, seat uint32) interfaces.TicketID {
	t.Helper()

	ciphertext, proof, err := ts.gateway.SealSeat(seat, caller)
	require.NoError(t, err)

	resp := ts.request(t, http.MethodPost, "/api/tickets", &caller, CreateTicketRequest{
		EventName:  eventName,
		Venue:      "Arena",
		Date:       "2026-09-01",
		SealedSeat: ciphertext,
		Proof:      proof,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var created CreateTicketResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	return created.ID
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHandler_CreateAndMetadata(t *testing.T) {
	ts := newTestServer(t)

	id := ts.createTicket(t, alice, "Concert", 42)
	assert.Equal(t, interfaces.TicketID(0), id)

	resp := ts.request(t, http.MethodGet, fmt.Sprintf("/api/public/tickets/%d", id), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	md := decodeBody[interfaces.TicketMetadata](t, resp)
	assert.Equal(t, "Concert", md.EventName)
	assert.Equal(t, alice, md.Owner)
	assert.True(t, md.Exists)
}

func TestHandler_Count(t *testing.T) {
	ts := newTestServer(t)

	ts.createTicket(t, alice, "A", 1)
	ts.createTicket(t, bob, "B", 2)

	resp := ts.request(t, http.MethodGet, "/api/public/tickets/count", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, uint64(2), decodeBody[CountResponse](t, resp).Count)
}

func TestHandler_Owned(t *testing.T) {
	ts := newTestServer(t)

	id := ts.createTicket(t, alice, "Concert", 42)

	resp := ts.request(t, http.MethodGet, "/api/public/owned/"+alice.String(), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []interfaces.TicketID{id}, decodeBody[OwnedResponse](t, resp).Tickets)

	resp = ts.request(t, http.MethodGet, "/api/public/owned/"+bob.String(), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeBody[OwnedResponse](t, resp).Tickets)
}

func TestHandler_ReadHandles(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	id := ts.createTicket(t, alice, "Concert", 42)

	resp := ts.request(t, http.MethodGet, fmt.Sprintf("/api/tickets/%d/seat-handle", id), &alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	seatHandle := decodeBody[HandleResponse](t, resp).Handle

	seat, err := ts.gateway.RevealSeat(ctx, seatHandle, alice)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), seat)

	resp = ts.request(t, http.MethodGet, fmt.Sprintf("/api/tickets/%d/lock-handle", id), &alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	lockHandle := decodeBody[HandleResponse](t, resp).Handle

	locked, err := ts.gateway.RevealBool(ctx, lockHandle, alice)
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestHandler_LockUnlockTransfer(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	id := ts.createTicket(t, alice, "Concert", 42)

	resp := ts.request(t, http.MethodPost, fmt.Sprintf("/api/tickets/%d/unlock", id), &alice, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.request(t, http.MethodGet, fmt.Sprintf("/api/tickets/%d/lock-handle", id), &alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	locked, err := ts.gateway.RevealBool(ctx, decodeBody[HandleResponse](t, resp).Handle, alice)
	require.NoError(t, err)
	assert.False(t, locked)

	resp = ts.request(t, http.MethodPost, fmt.Sprintf("/api/tickets/%d/transfer", id), &alice, TransferRequest{NewOwner: bob})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.request(t, http.MethodGet, fmt.Sprintf("/api/public/tickets/%d", id), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, bob, decodeBody[interfaces.TicketMetadata](t, resp).Owner)
}

func TestHandler_ErrorMapping(t *testing.T) {
	ts := newTestServer(t)

	id := ts.createTicket(t, alice, "Concert", 42)

	tests := []struct {
		name   string
		method string
		path   string
		caller *interfaces.Principal
		body   any
		status int
	}{
		{"metadata of absent id", http.MethodGet, "/api/public/tickets/999", nil, nil, http.StatusNotFound},
		{"lock by non-owner", http.MethodPost, fmt.Sprintf("/api/tickets/%d/lock", id), &bob, nil, http.StatusForbidden},
		{"seat handle by non-owner", http.MethodGet, fmt.Sprintf("/api/tickets/%d/seat-handle", id), &bob, nil, http.StatusForbidden},
		{"transfer to self", http.MethodPost, fmt.Sprintf("/api/tickets/%d/transfer", id), &alice, TransferRequest{NewOwner: alice}, http.StatusBadRequest},
		{"transfer of absent id", http.MethodPost, "/api/tickets/999/transfer", &alice, TransferRequest{NewOwner: bob}, http.StatusNotFound},
		{"missing principal header", http.MethodPost, fmt.Sprintf("/api/tickets/%d/lock", id), nil, nil, http.StatusBadRequest},
		{"malformed ticket id", http.MethodGet, "/api/public/tickets/abc", nil, nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.request(t, tt.method, tt.path, tt.caller, tt.body)
			resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestHandler_CreateWithBadProof(t *testing.T) {
	ts := newTestServer(t)

	ciphertext, proof, err := ts.gateway.SealSeat(42, alice)
	require.NoError(t, err)
	proof[0] ^= 0xFF

	resp := ts.request(t, http.MethodPost, "/api/tickets", &alice, CreateTicketRequest{
		EventName:  "Concert",
		Venue:      "Arena",
		Date:       "2026-09-01",
		SealedSeat: ciphertext,
		Proof:      proof,
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// The remote gateway client talks to the platform surface served here.
func TestHandler_PlatformSurface(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	client := &gateway.Client{ServerAddr: ts.srv.URL}

	ciphertext, proof, err := ts.gateway.SealSeat(7, alice)
	require.NoError(t, err)

	handle, err := client.Ingest(ctx, ciphertext, proof, ts.gateway.ProofContext(alice))
	require.NoError(t, err)

	require.NoError(t, client.Grant(ctx, handle, alice))
	seat, err := ts.gateway.RevealSeat(ctx, handle, alice)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), seat)

	require.NoError(t, client.Revoke(ctx, handle, alice))
	_, err = ts.gateway.RevealSeat(ctx, handle, alice)
	assert.ErrorIs(t, err, interfaces.ErrNoCapability)

	boolHandle, err := client.MaterializeBool(ctx, true)
	require.NoError(t, err)
	require.NoError(t, client.Grant(ctx, boolHandle, bob))
	locked, err := ts.gateway.RevealBool(ctx, boolHandle, bob)
	require.NoError(t, err)
	assert.True(t, locked)

	// Tampered proof maps to 400 and back to ErrInvalidProof in the client.
	proof[0] ^= 0xFF
	_, err = client.Ingest(ctx, ciphertext, proof, ts.gateway.ProofContext(alice))
	assert.ErrorIs(t, err, interfaces.ErrInvalidProof)
}

func TestServer_HealthAndDrain(t *testing.T) {
	ts := newTestServer(t)

	get := func(path string) int {
		resp, err := http.Get(ts.srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, get("/livez"))
	assert.Equal(t, http.StatusOK, get("/readyz"))
	assert.Equal(t, http.StatusOK, get("/drain"))
	assert.Equal(t, http.StatusServiceUnavailable, get("/readyz"))
	assert.Equal(t, http.StatusOK, get("/undrain"))
	assert.Equal(t, http.StatusOK, get("/readyz"))
}
