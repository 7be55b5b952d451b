package ldap

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/isometry/ssoadmin/internal/logging"
)

// MockDirectory implements the Directory interface for testing session
// operations without a live server.
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) Search(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	args := m.Called(ctx, req)
	if res := args.Get(0); res != nil {
		return res.(*SearchResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDirectory) SearchWithPaging(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	args := m.Called(ctx, req)
	if res := args.Get(0); res != nil {
		return res.(*SearchResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDirectory) Add(ctx context.Context, req *AddRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockDirectory) Modify(ctx context.Context, req *ModifyRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockDirectory) Delete(ctx context.Context, dn string) error {
	args := m.Called(ctx, dn)
	return args.Error(0)
}

func (m *MockDirectory) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDirectory) CheckBind(ctx context.Context, username, password string) error {
	args := m.Called(ctx, username, password)
	return args.Error(0)
}

func (m *MockDirectory) BaseDN(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockDirectory) Stats() PoolStats {
	args := m.Called()
	return args.Get(0).(PoolStats)
}

func (m *MockDirectory) Close() error {
	args := m.Called()
	return args.Error(0)
}

// newTestSession builds a session over a mock directory with a fixed
// schema layout.
func newTestSession(dir Directory) *directorySession {
	return &directorySession{
		dir:    dir,
		host:   "sso.example.com",
		baseDN: "dc=sso,dc=example,dc=com",
		domain: "sso.example.com",
		log:    logging.Nop(),
	}
}
