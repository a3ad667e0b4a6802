package gateway

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ruteri/encrypted-ticket-registry/interfaces"
)

// MockGateway mocks the CapabilityGateway interface
type MockGateway struct {
	mock.Mock
}

// Ingest mocks the Ingest method
func (m *MockGateway) Ingest(ctx context.Context, ciphertext, proof []byte, proofCtx interfaces.ProofContext) (interfaces.Handle, error) {
	args := m.Called(ctx, ciphertext, proof, proofCtx)
	return args.Get(0).(interfaces.Handle), args.Error(1)
}

// MaterializeBool mocks the MaterializeBool method
func (m *MockGateway) MaterializeBool(ctx context.Context, value bool) (interfaces.Handle, error) {
	args := m.Called(ctx, value)
	return args.Get(0).(interfaces.Handle), args.Error(1)
}

// Grant mocks the Grant method
func (m *MockGateway) Grant(ctx context.Context, handle interfaces.Handle, principal interfaces.Principal) error {
	args := m.Called(ctx, handle, principal)
	return args.Error(0)
}

// Revoke mocks the Revoke method
func (m *MockGateway) Revoke(ctx context.Context, handle interfaces.Handle, principal interfaces.Principal) error {
	args := m.Called(ctx, handle, principal)
	return args.Error(0)
}
