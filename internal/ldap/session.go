package ldap

import (
	"context"
	"strings"

	"github.com/isometry/ssoadmin/internal/logging"
	"github.com/isometry/ssoadmin/internal/sso"
)

// directorySession implements sso.Session over a pooled directory
// client. Typed operations live in users.go, groups.go, membership.go,
// policies.go, and idsources.go; this file holds the session lifecycle
// and the schema layout shared by all of them.
type directorySession struct {
	dir    Directory
	host   string
	baseDN string
	domain string
	log    logging.Logger
}

// Alive reports whether the session still answers on the wire.
func (s *directorySession) Alive(ctx context.Context) error {
	return s.wrap("check session", s.dir.Ping(ctx))
}

// ValidateCredentials re-authenticates creds on a dedicated connection
// without disturbing the session's pooled binds.
func (s *directorySession) ValidateCredentials(ctx context.Context, creds sso.Credentials) error {
	return s.wrap("validate credentials", s.dir.CheckBind(ctx, creds.Username, creds.Password))
}

// DefaultDomain is the server's own domain, derived from the DC
// components of its naming context.
func (s *directorySession) DefaultDomain() string {
	return s.domain
}

func (s *directorySession) Close(ctx context.Context) error {
	return s.wrap("close session", s.dir.Close())
}

func (s *directorySession) wrap(op string, err error) error {
	return wrapError(op, s.host, err)
}

// Schema layout. Principals live in fixed containers below the domain
// base; policies and identity sources below the server base.

// resolveDomain substitutes the server's own domain for an empty one.
func (s *directorySession) resolveDomain(domain string) string {
	if domain == "" {
		return s.domain
	}
	return domain
}

func (s *directorySession) baseDNForDomain(domain string) string {
	if domain == "" || strings.EqualFold(domain, s.domain) {
		return s.baseDN
	}
	return domainToBaseDN(domain)
}

func (s *directorySession) usersContainer(domain string) string {
	return "cn=Users," + s.baseDNForDomain(domain)
}

func (s *directorySession) groupsContainer(domain string) string {
	return "cn=Groups," + s.baseDNForDomain(domain)
}

func (s *directorySession) policiesContainer() string {
	return "cn=Policies," + s.baseDN
}

func (s *directorySession) sourcesContainer() string {
	return "cn=IdentitySources," + s.baseDN
}

func (s *directorySession) userDN(id sso.PrincipalID) string {
	return "cn=" + EscapeDNValue(id.Name) + "," + s.usersContainer(id.Domain)
}

func (s *directorySession) groupDN(id sso.PrincipalID) string {
	return "cn=" + EscapeDNValue(id.Name) + "," + s.groupsContainer(id.Domain)
}

func (s *directorySession) principalDN(id sso.PrincipalID, kind sso.PrincipalKind) string {
	if kind == sso.PrincipalKindGroup {
		return s.groupDN(id)
	}
	return s.userDN(id)
}

// domainForEntry resolves the domain a returned entry belongs to by
// walking its DN back to the DC components.
func (s *directorySession) domainForEntry(dn string) string {
	if domain := domainFromBaseDN(dn); domain != "" {
		return domain
	}
	return s.domain
}
