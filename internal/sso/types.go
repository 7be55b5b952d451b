package sso

import (
	"context"
	"log/slog"
	"time"
)

// Credentials identifies the administrative user a session binds as.
type Credentials struct {
	Username string
	Password string
}

// Validate checks that the credentials are usable for authentication.
func (c Credentials) Validate() error {
	if c.Username == "" {
		return Errorf("validate credentials", ErrorKindValidation, "username is required")
	}
	if c.Password == "" {
		return Errorf("validate credentials", ErrorKindValidation, "password is required")
	}
	return nil
}

// LogValue keeps the password out of log output.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("username", c.Username),
		slog.String("password", "********"),
	)
}

// TLSPolicy is the certificate-validation policy applied when opening a
// session. The zero value validates the full chain against the system roots.
type TLSPolicy struct {
	// SkipVerify disables chain validation entirely. Explicit opt-in only.
	SkipVerify bool
	// Thumbprint pins the server certificate by its SHA-256 fingerprint
	// (hex, case-insensitive, optional colons). Checked even when chain
	// validation is skipped.
	Thumbprint string
	// CACertificates holds additional PEM-encoded roots to trust.
	CACertificates []string
}

// PrincipalKind distinguishes the two principal variants.
type PrincipalKind string

const (
	PrincipalKindPersonUser PrincipalKind = "user"
	PrincipalKindGroup      PrincipalKind = "group"
)

// PrincipalID identifies a principal within a server: (name, domain).
type PrincipalID struct {
	Name   string
	Domain string
}

func (id PrincipalID) String() string {
	return id.Name + "@" + id.Domain
}

// Principal is a person user or a group returned by a query. Principals
// carry a non-owning reference to the connection that produced them; the
// reference routes follow-up operations and is re-validated before each
// dispatch.
type Principal interface {
	PrincipalID() PrincipalID
	PrincipalKind() PrincipalKind
	connection() *Connection
}

// PersonUser is a person account within a domain.
type PersonUser struct {
	ID           PrincipalID
	FirstName    string
	LastName     string
	EmailAddress string
	Description  string
	Disabled     bool
	Locked       bool
	// ExternalID is the server-assigned object identifier, when exposed.
	ExternalID string

	conn *Connection
}

func (u PersonUser) PrincipalID() PrincipalID     { return u.ID }
func (u PersonUser) PrincipalKind() PrincipalKind { return PrincipalKindPersonUser }
func (u PersonUser) connection() *Connection      { return u.conn }

// NewPersonUser describes a person user to create.
type NewPersonUser struct {
	Name         string
	Domain       string // empty selects the server's default domain
	Password     string
	FirstName    string
	LastName     string
	EmailAddress string
	Description  string
}

// PersonUserUpdate carries the fields to change on a person user. Nil
// fields keep the current value.
type PersonUserUpdate struct {
	FirstName    *string
	LastName     *string
	EmailAddress *string
	Description  *string
	Enabled      *bool
}

// Group is a group principal within a domain.
type Group struct {
	ID          PrincipalID
	Description string

	conn *Connection
}

func (g Group) PrincipalID() PrincipalID     { return g.ID }
func (g Group) PrincipalKind() PrincipalKind { return PrincipalKindGroup }
func (g Group) connection() *Connection      { return g.conn }

// NewGroup describes a group to create.
type NewGroup struct {
	Name        string
	Domain      string // empty selects the server's default domain
	Description string
}

// GroupUpdate carries the fields to change on a group. Nil fields keep the
// current value.
type GroupUpdate struct {
	Description *string
}

// PasswordPolicy is the server-wide password format and lifetime policy.
type PasswordPolicy struct {
	Description                    string
	ProhibitedPreviousPasswords    int
	MinLength                      int
	MaxLength                      int
	MinAlphabeticCount             int
	MinUppercaseCount              int
	MinLowercaseCount              int
	MinNumericCount                int
	MinSpecialCharCount            int
	MaxIdenticalAdjacentCharacters int
	PasswordLifetimeDays           int
}

// PasswordPolicyUpdate overrides individual password policy fields. Nil
// fields fall back to the value on the base policy.
type PasswordPolicyUpdate struct {
	Description                    *string
	ProhibitedPreviousPasswords    *int
	MinLength                      *int
	MaxLength                      *int
	MinAlphabeticCount             *int
	MinUppercaseCount              *int
	MinLowercaseCount              *int
	MinNumericCount                *int
	MinSpecialCharCount            *int
	MaxIdenticalAdjacentCharacters *int
	PasswordLifetimeDays           *int
}

// Apply merges the update over base and returns the combined policy.
func (u PasswordPolicyUpdate) Apply(base PasswordPolicy) PasswordPolicy {
	merged := base
	if u.Description != nil {
		merged.Description = *u.Description
	}
	if u.ProhibitedPreviousPasswords != nil {
		merged.ProhibitedPreviousPasswords = *u.ProhibitedPreviousPasswords
	}
	if u.MinLength != nil {
		merged.MinLength = *u.MinLength
	}
	if u.MaxLength != nil {
		merged.MaxLength = *u.MaxLength
	}
	if u.MinAlphabeticCount != nil {
		merged.MinAlphabeticCount = *u.MinAlphabeticCount
	}
	if u.MinUppercaseCount != nil {
		merged.MinUppercaseCount = *u.MinUppercaseCount
	}
	if u.MinLowercaseCount != nil {
		merged.MinLowercaseCount = *u.MinLowercaseCount
	}
	if u.MinNumericCount != nil {
		merged.MinNumericCount = *u.MinNumericCount
	}
	if u.MinSpecialCharCount != nil {
		merged.MinSpecialCharCount = *u.MinSpecialCharCount
	}
	if u.MaxIdenticalAdjacentCharacters != nil {
		merged.MaxIdenticalAdjacentCharacters = *u.MaxIdenticalAdjacentCharacters
	}
	if u.PasswordLifetimeDays != nil {
		merged.PasswordLifetimeDays = *u.PasswordLifetimeDays
	}
	return merged
}

// LockoutPolicy is the server-wide account lockout policy.
type LockoutPolicy struct {
	Description           string
	MaxFailedAttempts     int
	FailedAttemptInterval time.Duration
	AutoUnlockInterval    time.Duration
}

// LockoutPolicyUpdate overrides individual lockout policy fields. Nil
// fields fall back to the value on the base policy.
type LockoutPolicyUpdate struct {
	Description           *string
	MaxFailedAttempts     *int
	FailedAttemptInterval *time.Duration
	AutoUnlockInterval    *time.Duration
}

// Apply merges the update over base and returns the combined policy.
func (u LockoutPolicyUpdate) Apply(base LockoutPolicy) LockoutPolicy {
	merged := base
	if u.Description != nil {
		merged.Description = *u.Description
	}
	if u.MaxFailedAttempts != nil {
		merged.MaxFailedAttempts = *u.MaxFailedAttempts
	}
	if u.FailedAttemptInterval != nil {
		merged.FailedAttemptInterval = *u.FailedAttemptInterval
	}
	if u.AutoUnlockInterval != nil {
		merged.AutoUnlockInterval = *u.AutoUnlockInterval
	}
	return merged
}

// TokenLifetime is the maximum validity of issued security tokens, with
// separate limits for Holder-of-Key and Bearer tokens.
type TokenLifetime struct {
	MaxHoKTokenLifetime    time.Duration
	MaxBearerTokenLifetime time.Duration
}

// TokenLifetimeUpdate overrides individual token lifetime fields. Nil
// fields fall back to the value on the base object.
type TokenLifetimeUpdate struct {
	MaxHoKTokenLifetime    *time.Duration
	MaxBearerTokenLifetime *time.Duration
}

// Apply merges the update over base and returns the combined lifetimes.
func (u TokenLifetimeUpdate) Apply(base TokenLifetime) TokenLifetime {
	merged := base
	if u.MaxHoKTokenLifetime != nil {
		merged.MaxHoKTokenLifetime = *u.MaxHoKTokenLifetime
	}
	if u.MaxBearerTokenLifetime != nil {
		merged.MaxBearerTokenLifetime = *u.MaxBearerTokenLifetime
	}
	return merged
}

// IdentitySourceKind discriminates the identity source variants.
type IdentitySourceKind string

const (
	IdentitySourceLocalOS  IdentitySourceKind = "localos"
	IdentitySourceSystem   IdentitySourceKind = "system"
	IdentitySourceExternal IdentitySourceKind = "external"
)

// LDAPServerType is the flavor of an external LDAP identity source.
type LDAPServerType string

const (
	LDAPServerTypeActiveDirectory LDAPServerType = "ActiveDirectory"
	LDAPServerTypeOpenLDAP        LDAPServerType = "OpenLDAP"
)

// IdentitySource is one domain the server can authenticate users against.
// Kind selects the variant; Details is non-nil only for external sources.
// Every server carries exactly one localos and one system source.
type IdentitySource struct {
	Name         string
	Kind         IdentitySourceKind
	Alias        string         // external sources only
	ServerType   LDAPServerType // external sources only
	AuthUsername string         // bind identity for external sources
	Details      *LDAPSourceDetails
}

// LDAPSourceDetails holds the connection settings of an external LDAP
// identity source.
type LDAPSourceDetails struct {
	FriendlyName string
	UserBaseDN   string
	GroupBaseDN  string
	PrimaryURL   string
	FailoverURL  string
	Certificates []string // PEM-encoded server certificates
}

// NewLDAPIdentitySource describes an external LDAP identity source to
// register.
type NewLDAPIdentitySource struct {
	Name            string
	Alias           string
	ServerType      LDAPServerType
	Details         LDAPSourceDetails
	AuthCredentials Credentials
}

// Validate checks the client-enforceable constraints before dispatch.
func (s NewLDAPIdentitySource) Validate() error {
	const op = "add identity source"
	if s.Name == "" {
		return Errorf(op, ErrorKindValidation, "domain name is required")
	}
	switch s.ServerType {
	case LDAPServerTypeActiveDirectory, LDAPServerTypeOpenLDAP:
	default:
		return Errorf(op, ErrorKindValidation, "unsupported server type %q", s.ServerType)
	}
	if s.Details.PrimaryURL == "" {
		return Errorf(op, ErrorKindValidation, "primary URL is required")
	}
	if s.Details.UserBaseDN == "" {
		return Errorf(op, ErrorKindValidation, "user base DN is required")
	}
	if s.Details.GroupBaseDN == "" {
		return Errorf(op, ErrorKindValidation, "group base DN is required")
	}
	return nil
}

// LDAPIdentitySourceUpdate carries the fields to change on an external
// identity source. Nil fields keep the registered value; a non-nil
// Certificates slice replaces the full certificate list.
type LDAPIdentitySourceUpdate struct {
	FriendlyName    *string
	UserBaseDN      *string
	GroupBaseDN     *string
	PrimaryURL      *string
	FailoverURL     *string
	Certificates    []string
	AuthCredentials *Credentials
}

// Transport opens authenticated sessions against directory servers. The
// production implementation speaks LDAP; tests substitute mocks.
type Transport interface {
	Open(ctx context.Context, host string, creds Credentials, policy TLSPolicy) (Session, error)
}

// Session is one authenticated administrative channel to a server. All
// typed remote operations of the client surface run over it. Methods
// return errors already classified into the taxonomy where the transport
// can tell; everything else is normalized by the caller.
type Session interface {
	// Alive reports whether the session still answers on the wire.
	Alive(ctx context.Context) error
	// ValidateCredentials re-authenticates creds against the server
	// without disturbing the session.
	ValidateCredentials(ctx context.Context, creds Credentials) error
	// DefaultDomain is the server's own (system) domain name.
	DefaultDomain() string
	Close(ctx context.Context) error

	ListPersonUsers(ctx context.Context, domain string) ([]PersonUser, error)
	CreatePersonUser(ctx context.Context, user NewPersonUser) (PersonUser, error)
	UpdatePersonUser(ctx context.Context, id PrincipalID, update PersonUserUpdate) (PersonUser, error)
	DeletePersonUser(ctx context.Context, id PrincipalID) error
	ResetPersonUserPassword(ctx context.Context, id PrincipalID, password string) error
	UnlockPersonUser(ctx context.Context, id PrincipalID) (bool, error)

	ListGroups(ctx context.Context, domain string) ([]Group, error)
	CreateGroup(ctx context.Context, group NewGroup) (Group, error)
	UpdateGroup(ctx context.Context, id PrincipalID, update GroupUpdate) (Group, error)
	DeleteGroup(ctx context.Context, id PrincipalID) error

	AddGroupMember(ctx context.Context, group PrincipalID, member PrincipalID, kind PrincipalKind) error
	RemoveGroupMember(ctx context.Context, group PrincipalID, member PrincipalID, kind PrincipalKind) error
	ListPersonUsersInGroup(ctx context.Context, group PrincipalID) ([]PersonUser, error)
	ListGroupsInGroup(ctx context.Context, group PrincipalID) ([]Group, error)

	GetPasswordPolicy(ctx context.Context) (PasswordPolicy, error)
	SetPasswordPolicy(ctx context.Context, policy PasswordPolicy) (PasswordPolicy, error)
	GetLockoutPolicy(ctx context.Context) (LockoutPolicy, error)
	SetLockoutPolicy(ctx context.Context, policy LockoutPolicy) (LockoutPolicy, error)
	GetTokenLifetime(ctx context.Context) (TokenLifetime, error)
	SetTokenLifetime(ctx context.Context, lifetime TokenLifetime) (TokenLifetime, error)

	ListIdentitySources(ctx context.Context) ([]IdentitySource, error)
	AddLDAPIdentitySource(ctx context.Context, source NewLDAPIdentitySource) (IdentitySource, error)
	UpdateLDAPIdentitySource(ctx context.Context, name string, update LDAPIdentitySourceUpdate) (IdentitySource, error)
	RemoveIdentitySource(ctx context.Context, name string) error
}
