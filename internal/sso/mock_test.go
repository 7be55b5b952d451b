package sso

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTransport implements the Transport interface for registry tests.
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Open(ctx context.Context, host string, creds Credentials, policy TLSPolicy) (Session, error) {
	args := m.Called(ctx, host, creds, policy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	sess, ok := args.Get(0).(Session)
	if !ok {
		return nil, args.Error(1)
	}
	return sess, args.Error(1)
}

// MockSession implements the Session interface for client tests.
type MockSession struct {
	mock.Mock
}

func (m *MockSession) Alive(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSession) ValidateCredentials(ctx context.Context, creds Credentials) error {
	args := m.Called(ctx, creds)
	return args.Error(0)
}

func (m *MockSession) DefaultDomain() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockSession) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSession) ListPersonUsers(ctx context.Context, domain string) ([]PersonUser, error) {
	args := m.Called(ctx, domain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	users, ok := args.Get(0).([]PersonUser)
	if !ok {
		return nil, args.Error(1)
	}
	return users, args.Error(1)
}

func (m *MockSession) CreatePersonUser(ctx context.Context, user NewPersonUser) (PersonUser, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return PersonUser{}, args.Error(1)
	}
	created, ok := args.Get(0).(PersonUser)
	if !ok {
		return PersonUser{}, args.Error(1)
	}
	return created, args.Error(1)
}

func (m *MockSession) UpdatePersonUser(ctx context.Context, id PrincipalID, update PersonUserUpdate) (PersonUser, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return PersonUser{}, args.Error(1)
	}
	updated, ok := args.Get(0).(PersonUser)
	if !ok {
		return PersonUser{}, args.Error(1)
	}
	return updated, args.Error(1)
}

func (m *MockSession) DeletePersonUser(ctx context.Context, id PrincipalID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSession) ResetPersonUserPassword(ctx context.Context, id PrincipalID, password string) error {
	args := m.Called(ctx, id, password)
	return args.Error(0)
}

func (m *MockSession) UnlockPersonUser(ctx context.Context, id PrincipalID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockSession) ListGroups(ctx context.Context, domain string) ([]Group, error) {
	args := m.Called(ctx, domain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	groups, ok := args.Get(0).([]Group)
	if !ok {
		return nil, args.Error(1)
	}
	return groups, args.Error(1)
}

func (m *MockSession) CreateGroup(ctx context.Context, group NewGroup) (Group, error) {
	args := m.Called(ctx, group)
	if args.Get(0) == nil {
		return Group{}, args.Error(1)
	}
	created, ok := args.Get(0).(Group)
	if !ok {
		return Group{}, args.Error(1)
	}
	return created, args.Error(1)
}

func (m *MockSession) UpdateGroup(ctx context.Context, id PrincipalID, update GroupUpdate) (Group, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return Group{}, args.Error(1)
	}
	updated, ok := args.Get(0).(Group)
	if !ok {
		return Group{}, args.Error(1)
	}
	return updated, args.Error(1)
}

func (m *MockSession) DeleteGroup(ctx context.Context, id PrincipalID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSession) AddGroupMember(ctx context.Context, group PrincipalID, member PrincipalID, kind PrincipalKind) error {
	args := m.Called(ctx, group, member, kind)
	return args.Error(0)
}

func (m *MockSession) RemoveGroupMember(ctx context.Context, group PrincipalID, member PrincipalID, kind PrincipalKind) error {
	args := m.Called(ctx, group, member, kind)
	return args.Error(0)
}

func (m *MockSession) ListPersonUsersInGroup(ctx context.Context, group PrincipalID) ([]PersonUser, error) {
	args := m.Called(ctx, group)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	users, ok := args.Get(0).([]PersonUser)
	if !ok {
		return nil, args.Error(1)
	}
	return users, args.Error(1)
}

func (m *MockSession) ListGroupsInGroup(ctx context.Context, group PrincipalID) ([]Group, error) {
	args := m.Called(ctx, group)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	groups, ok := args.Get(0).([]Group)
	if !ok {
		return nil, args.Error(1)
	}
	return groups, args.Error(1)
}

func (m *MockSession) GetPasswordPolicy(ctx context.Context) (PasswordPolicy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return PasswordPolicy{}, args.Error(1)
	}
	policy, ok := args.Get(0).(PasswordPolicy)
	if !ok {
		return PasswordPolicy{}, args.Error(1)
	}
	return policy, args.Error(1)
}

func (m *MockSession) SetPasswordPolicy(ctx context.Context, policy PasswordPolicy) (PasswordPolicy, error) {
	args := m.Called(ctx, policy)
	if args.Get(0) == nil {
		return PasswordPolicy{}, args.Error(1)
	}
	applied, ok := args.Get(0).(PasswordPolicy)
	if !ok {
		return PasswordPolicy{}, args.Error(1)
	}
	return applied, args.Error(1)
}

func (m *MockSession) GetLockoutPolicy(ctx context.Context) (LockoutPolicy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return LockoutPolicy{}, args.Error(1)
	}
	policy, ok := args.Get(0).(LockoutPolicy)
	if !ok {
		return LockoutPolicy{}, args.Error(1)
	}
	return policy, args.Error(1)
}

func (m *MockSession) SetLockoutPolicy(ctx context.Context, policy LockoutPolicy) (LockoutPolicy, error) {
	args := m.Called(ctx, policy)
	if args.Get(0) == nil {
		return LockoutPolicy{}, args.Error(1)
	}
	applied, ok := args.Get(0).(LockoutPolicy)
	if !ok {
		return LockoutPolicy{}, args.Error(1)
	}
	return applied, args.Error(1)
}

func (m *MockSession) GetTokenLifetime(ctx context.Context) (TokenLifetime, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return TokenLifetime{}, args.Error(1)
	}
	lifetime, ok := args.Get(0).(TokenLifetime)
	if !ok {
		return TokenLifetime{}, args.Error(1)
	}
	return lifetime, args.Error(1)
}

func (m *MockSession) SetTokenLifetime(ctx context.Context, lifetime TokenLifetime) (TokenLifetime, error) {
	args := m.Called(ctx, lifetime)
	if args.Get(0) == nil {
		return TokenLifetime{}, args.Error(1)
	}
	applied, ok := args.Get(0).(TokenLifetime)
	if !ok {
		return TokenLifetime{}, args.Error(1)
	}
	return applied, args.Error(1)
}

func (m *MockSession) ListIdentitySources(ctx context.Context) ([]IdentitySource, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	sources, ok := args.Get(0).([]IdentitySource)
	if !ok {
		return nil, args.Error(1)
	}
	return sources, args.Error(1)
}

func (m *MockSession) AddLDAPIdentitySource(ctx context.Context, source NewLDAPIdentitySource) (IdentitySource, error) {
	args := m.Called(ctx, source)
	if args.Get(0) == nil {
		return IdentitySource{}, args.Error(1)
	}
	added, ok := args.Get(0).(IdentitySource)
	if !ok {
		return IdentitySource{}, args.Error(1)
	}
	return added, args.Error(1)
}

func (m *MockSession) UpdateLDAPIdentitySource(ctx context.Context, name string, update LDAPIdentitySourceUpdate) (IdentitySource, error) {
	args := m.Called(ctx, name, update)
	if args.Get(0) == nil {
		return IdentitySource{}, args.Error(1)
	}
	updated, ok := args.Get(0).(IdentitySource)
	if !ok {
		return IdentitySource{}, args.Error(1)
	}
	return updated, args.Error(1)
}

func (m *MockSession) RemoveIdentitySource(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// testCredentials returns the credentials used throughout the tests.
func testCredentials() Credentials {
	return Credentials{Username: "admin", Password: "hunter2"}
}

// openTestConnection wires a registry around a single mock session and
// returns an established connection to it.
func openTestConnection(t *testing.T, session *MockSession) (*Registry, *Connection) {
	t.Helper()

	transport := &MockTransport{}
	transport.On("Open", mock.Anything, "vc1", testCredentials(), TLSPolicy{}).Return(session, nil).Once()

	registry := NewRegistry(transport)
	conn, err := registry.Connect(context.Background(), "vc1", testCredentials(), TLSPolicy{})
	require.NoError(t, err)
	require.NotNil(t, conn)

	return registry, conn
}
