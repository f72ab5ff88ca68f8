package testing

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRemote is a mock for executing commands on another node.
type MockRemote struct {
	mock.Mock
}

// Execute runs a mock remote command.
func (m *MockRemote) Execute(ctx context.Context, command string) (string, error) {
	args := m.Called(ctx, command)
	return args.String(0), args.Error(1)
}

// Host returns the mock remote host.
func (m *MockRemote) Host() string {
	return "10.0.0.11"
}
