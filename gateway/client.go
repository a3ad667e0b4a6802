package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ruteri/encrypted-ticket-registry/interfaces"
)

// Client implements interfaces.CapabilityGateway over HTTP against a remote
// encrypted-compute platform.
type Client struct {
	// ServerAddr is the base URL of the platform API.
	ServerAddr string

	// HTTPClient is used for requests. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

type ingestRequest struct {
	Ciphertext []byte               `json:"ciphertext"`
	Proof      []byte               `json:"proof"`
	Registry   interfaces.Principal `json:"registry"`
	Submitter  interfaces.Principal `json:"submitter"`
}

type handleResponse struct {
	Handle interfaces.Handle `json:"handle"`
}

type materializeBoolRequest struct {
	Value bool `json:"value"`
}

type capabilityRequest struct {
	Principal interfaces.Principal `json:"principal"`
}

// Ingest submits ciphertext+proof for verification and registration. A 400
// response from the platform surfaces as interfaces.ErrInvalidProof.
func (c *Client) Ingest(ctx context.Context, ciphertext, proof []byte, proofCtx interfaces.ProofContext) (interfaces.Handle, error) {
	req := ingestRequest{
		Ciphertext: ciphertext,
		Proof:      proof,
		Registry:   proofCtx.Registry,
		Submitter:  proofCtx.Submitter,
	}

	var resp handleResponse
	if err := c.post(ctx, "/api/handles/ingest", req, &resp); err != nil {
		return interfaces.Handle{}, err
	}
	return resp.Handle, nil
}

// MaterializeBool asks the platform for a fresh handle on a plaintext bool.
func (c *Client) MaterializeBool(ctx context.Context, value bool) (interfaces.Handle, error) {
	var resp handleResponse
	if err := c.post(ctx, "/api/handles/materialize-bool", materializeBoolRequest{Value: value}, &resp); err != nil {
		return interfaces.Handle{}, err
	}
	return resp.Handle, nil
}

// Grant authorizes principal to decrypt handle.
func (c *Client) Grant(ctx context.Context, handle interfaces.Handle, principal interfaces.Principal) error {
	return c.post(ctx, fmt.Sprintf("/api/handles/%s/grant", handle), capabilityRequest{Principal: principal}, nil)
}

// Revoke withdraws principal's capability on handle.
func (c *Client) Revoke(ctx context.Context, handle interfaces.Handle, principal interfaces.Principal) error {
	return c.post(ctx, fmt.Sprintf("/api/handles/%s/revoke", handle), capabilityRequest{Principal: principal}, nil)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ServerAddr+path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not request platform endpoint %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %s", interfaces.ErrInvalidProof, string(bodyBytes))
	}
	if resp.StatusCode != http.StatusOK {
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("platform endpoint %s returned non-200 response: %d", path, resp.StatusCode)
		}
		return fmt.Errorf("platform endpoint %s returned error %d: %s", path, resp.StatusCode, string(bodyBytes))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not parse platform response: %w", err)
	}
	return nil
}
