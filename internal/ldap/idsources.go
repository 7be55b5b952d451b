package ldap

import (
	"context"

	"github.com/go-ldap/ldap/v3"

	"github.com/isometry/ssoadmin/internal/sso"
)

// Identity sources are entries below cn=IdentitySources. The localos
// and system entries are fixed; only external LDAP sources are
// registered, reconfigured, or removed through this session.

var identitySourceAttributes = []string{
	"cn",
	"ssoSourceKind",
	"ssoSourceAlias",
	"ssoSourceServerType",
	"ssoSourceFriendlyName",
	"ssoSourceUserBaseDN",
	"ssoSourceGroupBaseDN",
	"ssoSourcePrimaryURL",
	"ssoSourceFailoverURL",
	"ssoSourceAuthUsername",
	"ssoSourceCertificate",
}

func (s *directorySession) ListIdentitySources(ctx context.Context) ([]sso.IdentitySource, error) {
	const op = "list identity sources"

	res, err := s.dir.SearchWithPaging(ctx, &SearchRequest{
		BaseDN:     s.sourcesContainer(),
		Scope:      ScopeSingleLevel,
		Filter:     "(ssoSourceKind=*)",
		Attributes: identitySourceAttributes,
	})
	if err != nil {
		return nil, s.wrap(op, err)
	}

	sources := make([]sso.IdentitySource, 0, len(res.Entries))
	for _, entry := range res.Entries {
		sources = append(sources, entryToIdentitySource(entry))
	}
	return sources, nil
}

func (s *directorySession) AddLDAPIdentitySource(ctx context.Context, source sso.NewLDAPIdentitySource) (sso.IdentitySource, error) {
	const op = "add identity source"

	attrs := map[string][]string{
		"objectClass":          {"top", "ssoIdentitySource"},
		"cn":                   {source.Name},
		"ssoSourceKind":        {string(sso.IdentitySourceExternal)},
		"ssoSourceServerType":  {string(source.ServerType)},
		"ssoSourceUserBaseDN":  {source.Details.UserBaseDN},
		"ssoSourceGroupBaseDN": {source.Details.GroupBaseDN},
		"ssoSourcePrimaryURL":  {source.Details.PrimaryURL},
	}
	if source.Alias != "" {
		attrs["ssoSourceAlias"] = []string{source.Alias}
	}
	if source.Details.FriendlyName != "" {
		attrs["ssoSourceFriendlyName"] = []string{source.Details.FriendlyName}
	}
	if source.Details.FailoverURL != "" {
		attrs["ssoSourceFailoverURL"] = []string{source.Details.FailoverURL}
	}
	if source.AuthCredentials.Username != "" {
		attrs["ssoSourceAuthUsername"] = []string{source.AuthCredentials.Username}
	}
	if source.AuthCredentials.Password != "" {
		// Write-only; never read back into IdentitySource.
		attrs["ssoSourceAuthPassword"] = []string{source.AuthCredentials.Password}
	}
	if len(source.Details.Certificates) > 0 {
		attrs["ssoSourceCertificate"] = source.Details.Certificates
	}

	if err := s.dir.Add(ctx, &AddRequest{DN: s.sourceDN(source.Name), Attributes: attrs}); err != nil {
		return sso.IdentitySource{}, s.wrap(op, err)
	}
	return s.getIdentitySource(ctx, op, source.Name)
}

// UpdateLDAPIdentitySource applies the non-nil fields of update to an
// external source. A non-nil certificate slice replaces the full list.
func (s *directorySession) UpdateLDAPIdentitySource(ctx context.Context, name string, update sso.LDAPIdentitySourceUpdate) (sso.IdentitySource, error) {
	const op = "update identity source"

	current, err := s.identitySourceEntry(ctx, op, name)
	if err != nil {
		return sso.IdentitySource{}, err
	}
	if kind := current.GetAttributeValue("ssoSourceKind"); kind != string(sso.IdentitySourceExternal) {
		return sso.IdentitySource{}, &sso.Error{
			Operation: op,
			Kind:      sso.ErrorKindValidation,
			Server:    s.host,
			Message:   "identity source " + name + " is not an external LDAP source",
		}
	}

	replace := make(map[string][]string)
	setAttr := func(attr string, value *string) {
		if value == nil {
			return
		}
		if *value == "" {
			replace[attr] = nil
		} else {
			replace[attr] = []string{*value}
		}
	}
	setAttr("ssoSourceFriendlyName", update.FriendlyName)
	setAttr("ssoSourceUserBaseDN", update.UserBaseDN)
	setAttr("ssoSourceGroupBaseDN", update.GroupBaseDN)
	setAttr("ssoSourcePrimaryURL", update.PrimaryURL)
	setAttr("ssoSourceFailoverURL", update.FailoverURL)
	if update.Certificates != nil {
		replace["ssoSourceCertificate"] = update.Certificates
	}
	if update.AuthCredentials != nil {
		replace["ssoSourceAuthUsername"] = []string{update.AuthCredentials.Username}
		replace["ssoSourceAuthPassword"] = []string{update.AuthCredentials.Password}
	}

	if len(replace) > 0 {
		if err := s.dir.Modify(ctx, &ModifyRequest{DN: current.DN, ReplaceAttributes: replace}); err != nil {
			return sso.IdentitySource{}, s.wrap(op, err)
		}
	}
	return s.getIdentitySource(ctx, op, name)
}

// RemoveIdentitySource deletes an external source. The localos and
// system sources are permanent and removal is refused.
func (s *directorySession) RemoveIdentitySource(ctx context.Context, name string) error {
	const op = "remove identity source"

	current, err := s.identitySourceEntry(ctx, op, name)
	if err != nil {
		return err
	}
	switch current.GetAttributeValue("ssoSourceKind") {
	case string(sso.IdentitySourceLocalOS), string(sso.IdentitySourceSystem):
		return &sso.Error{
			Operation: op,
			Kind:      sso.ErrorKindValidation,
			Server:    s.host,
			Message:   "identity source " + name + " is built in and cannot be removed",
		}
	}
	return s.wrap(op, s.dir.Delete(ctx, current.DN))
}

func (s *directorySession) sourceDN(name string) string {
	return "cn=" + EscapeDNValue(name) + "," + s.sourcesContainer()
}

func (s *directorySession) getIdentitySource(ctx context.Context, op, name string) (sso.IdentitySource, error) {
	entry, err := s.identitySourceEntry(ctx, op, name)
	if err != nil {
		return sso.IdentitySource{}, err
	}
	return entryToIdentitySource(entry), nil
}

func (s *directorySession) identitySourceEntry(ctx context.Context, op, name string) (*ldap.Entry, error) {
	res, err := s.dir.Search(ctx, &SearchRequest{
		BaseDN:     s.sourceDN(name),
		Scope:      ScopeBaseObject,
		Filter:     "(ssoSourceKind=*)",
		Attributes: identitySourceAttributes,
		SizeLimit:  1,
	})
	if err != nil {
		return nil, s.wrap(op, err)
	}
	if len(res.Entries) == 0 {
		return nil, &sso.Error{
			Operation: op,
			Kind:      sso.ErrorKindNotFound,
			Server:    s.host,
			Message:   "identity source " + name + " not found",
		}
	}
	return res.Entries[0], nil
}

func entryToIdentitySource(entry *ldap.Entry) sso.IdentitySource {
	source := sso.IdentitySource{
		Name:         entry.GetAttributeValue("cn"),
		Kind:         sso.IdentitySourceKind(entry.GetAttributeValue("ssoSourceKind")),
		Alias:        entry.GetAttributeValue("ssoSourceAlias"),
		ServerType:   sso.LDAPServerType(entry.GetAttributeValue("ssoSourceServerType")),
		AuthUsername: entry.GetAttributeValue("ssoSourceAuthUsername"),
	}
	if source.Kind == sso.IdentitySourceExternal {
		source.Details = &sso.LDAPSourceDetails{
			FriendlyName: entry.GetAttributeValue("ssoSourceFriendlyName"),
			UserBaseDN:   entry.GetAttributeValue("ssoSourceUserBaseDN"),
			GroupBaseDN:  entry.GetAttributeValue("ssoSourceGroupBaseDN"),
			PrimaryURL:   entry.GetAttributeValue("ssoSourcePrimaryURL"),
			FailoverURL:  entry.GetAttributeValue("ssoSourceFailoverURL"),
			Certificates: entry.GetAttributeValues("ssoSourceCertificate"),
		}
	}
	return source
}
