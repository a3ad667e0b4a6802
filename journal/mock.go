package journal

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ruteri/encrypted-ticket-registry/interfaces"
)

// MockSink implements interfaces.EventSink for testing.
type MockSink struct {
	mock.Mock
}

func (m *MockSink) Record(ctx context.Context, event interfaces.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockSink) Available(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockSink) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockSink) LocationURI() string {
	args := m.Called()
	return args.String(0)
}
