package ldap

import (
	"context"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/isometry/ssoadmin/internal/sso"
)

func sourceEntry(name, kind string, attrs map[string][]string) *ldap.Entry {
	dn := "cn=" + name + ",cn=IdentitySources,dc=sso,dc=example,dc=com"
	merged := map[string][]string{
		"cn":            {name},
		"ssoSourceKind": {kind},
	}
	for k, v := range attrs {
		merged[k] = v
	}
	return ldap.NewEntry(dn, merged)
}

func TestListIdentitySources(t *testing.T) {
	dir := &MockDirectory{}
	session := newTestSession(dir)

	dir.On("SearchWithPaging", mock.Anything, mock.MatchedBy(func(req *SearchRequest) bool {
		return req.BaseDN == "cn=IdentitySources,dc=sso,dc=example,dc=com" &&
			req.Filter == "(ssoSourceKind=*)"
	})).Return(&SearchResult{Entries: []*ldap.Entry{
		sourceEntry("localos", "localos", nil),
		sourceEntry("sso.example.com", "system", nil),
		sourceEntry("corp.example.com", "external", map[string][]string{
			"ssoSourceAlias":        {"CORP"},
			"ssoSourceServerType":   {"ActiveDirectory"},
			"ssoSourceFriendlyName": {"Corporate AD"},
			"ssoSourceUserBaseDN":   {"cn=Users,dc=corp,dc=example,dc=com"},
			"ssoSourceGroupBaseDN":  {"cn=Groups,dc=corp,dc=example,dc=com"},
			"ssoSourcePrimaryURL":   {"ldaps://dc1.corp.example.com:636"},
			"ssoSourceFailoverURL":  {"ldaps://dc2.corp.example.com:636"},
			"ssoSourceAuthUsername": {"svc-bind@corp.example.com"},
			"ssoSourceCertificate":  {"-----BEGIN CERTIFICATE-----\nAAA\n-----END CERTIFICATE-----"},
		}),
	}}, nil)

	sources, err := session.ListIdentitySources(context.Background())
	require.NoError(t, err)
	require.Len(t, sources, 3)

	assert.Equal(t, sso.IdentitySourceLocalOS, sources[0].Kind)
	assert.Nil(t, sources[0].Details)

	assert.Equal(t, sso.IdentitySourceSystem, sources[1].Kind)
	assert.Nil(t, sources[1].Details)

	external := sources[2]
	assert.Equal(t, sso.IdentitySourceExternal, external.Kind)
	assert.Equal(t, "CORP", external.Alias)
	assert.Equal(t, sso.LDAPServerTypeActiveDirectory, external.ServerType)
	assert.Equal(t, "svc-bind@corp.example.com", external.AuthUsername)
	require.NotNil(t, external.Details)
	assert.Equal(t, "Corporate AD", external.Details.FriendlyName)
	assert.Equal(t, "ldaps://dc1.corp.example.com:636", external.Details.PrimaryURL)
	assert.Equal(t, "ldaps://dc2.corp.example.com:636", external.Details.FailoverURL)
	assert.Len(t, external.Details.Certificates, 1)

	dir.AssertExpectations(t)
}

func TestAddLDAPIdentitySource(t *testing.T) {
	dir := &MockDirectory{}
	session := newTestSession(dir)

	dir.On("Add", mock.Anything, mock.MatchedBy(func(req *AddRequest) bool {
		return req.DN == "cn=corp.example.com,cn=IdentitySources,dc=sso,dc=example,dc=com" &&
			req.Attributes["ssoSourceKind"][0] == "external" &&
			req.Attributes["ssoSourceServerType"][0] == "OpenLDAP" &&
			req.Attributes["ssoSourceAuthPassword"][0] == "bind-secret"
	})).Return(nil)
	dir.On("Search", mock.Anything, mock.Anything).
		Return(&SearchResult{Entries: []*ldap.Entry{
			sourceEntry("corp.example.com", "external", map[string][]string{
				"ssoSourceServerType": {"OpenLDAP"},
				"ssoSourceUserBaseDN": {"ou=people,dc=corp,dc=example,dc=com"},
			}),
		}}, nil)

	source, err := session.AddLDAPIdentitySource(context.Background(), sso.NewLDAPIdentitySource{
		Name:       "corp.example.com",
		ServerType: sso.LDAPServerTypeOpenLDAP,
		Details: sso.LDAPSourceDetails{
			UserBaseDN:  "ou=people,dc=corp,dc=example,dc=com",
			GroupBaseDN: "ou=groups,dc=corp,dc=example,dc=com",
			PrimaryURL:  "ldaps://ldap.corp.example.com",
		},
		AuthCredentials: sso.Credentials{Username: "cn=bind,dc=corp,dc=example,dc=com", Password: "bind-secret"},
	})
	require.NoError(t, err)
	assert.Equal(t, "corp.example.com", source.Name)
	assert.Equal(t, sso.IdentitySourceExternal, source.Kind)

	dir.AssertExpectations(t)
}

func TestUpdateLDAPIdentitySource(t *testing.T) {
	dir := &MockDirectory{}
	session := newTestSession(dir)

	current := sourceEntry("corp.example.com", "external", map[string][]string{
		"ssoSourcePrimaryURL": {"ldaps://old.corp.example.com"},
	})
	updated := sourceEntry("corp.example.com", "external", map[string][]string{
		"ssoSourcePrimaryURL": {"ldaps://new.corp.example.com"},
	})

	dir.On("Search", mock.Anything, mock.Anything).
		Return(&SearchResult{Entries: []*ldap.Entry{current}}, nil).Once()
	dir.On("Modify", mock.Anything, mock.MatchedBy(func(req *ModifyRequest) bool {
		return req.ReplaceAttributes["ssoSourcePrimaryURL"][0] == "ldaps://new.corp.example.com"
	})).Return(nil).Once()
	dir.On("Search", mock.Anything, mock.Anything).
		Return(&SearchResult{Entries: []*ldap.Entry{updated}}, nil).Once()

	primary := "ldaps://new.corp.example.com"
	source, err := session.UpdateLDAPIdentitySource(context.Background(), "corp.example.com", sso.LDAPIdentitySourceUpdate{
		PrimaryURL: &primary,
	})
	require.NoError(t, err)
	require.NotNil(t, source.Details)
	assert.Equal(t, "ldaps://new.corp.example.com", source.Details.PrimaryURL)

	dir.AssertExpectations(t)
}

func TestUpdateIdentitySourceRejectsBuiltIn(t *testing.T) {
	dir := &MockDirectory{}
	session := newTestSession(dir)

	dir.On("Search", mock.Anything, mock.Anything).
		Return(&SearchResult{Entries: []*ldap.Entry{sourceEntry("localos", "localos", nil)}}, nil)

	alias := "LOCAL"
	_, err := session.UpdateLDAPIdentitySource(context.Background(), "localos", sso.LDAPIdentitySourceUpdate{
		FriendlyName: &alias,
	})
	require.Error(t, err)
	assert.True(t, sso.IsValidationError(err))
	dir.AssertNotCalled(t, "Modify", mock.Anything, mock.Anything)
}

func TestRemoveIdentitySource(t *testing.T) {
	t.Run("external source is removed", func(t *testing.T) {
		dir := &MockDirectory{}
		session := newTestSession(dir)

		entry := sourceEntry("corp.example.com", "external", nil)
		dir.On("Search", mock.Anything, mock.Anything).
			Return(&SearchResult{Entries: []*ldap.Entry{entry}}, nil)
		dir.On("Delete", mock.Anything, entry.DN).Return(nil)

		err := session.RemoveIdentitySource(context.Background(), "corp.example.com")
		require.NoError(t, err)
		dir.AssertExpectations(t)
	})

	t.Run("built-in sources are permanent", func(t *testing.T) {
		for _, kind := range []string{"localos", "system"} {
			dir := &MockDirectory{}
			session := newTestSession(dir)

			dir.On("Search", mock.Anything, mock.Anything).
				Return(&SearchResult{Entries: []*ldap.Entry{sourceEntry("builtin", kind, nil)}}, nil)

			err := session.RemoveIdentitySource(context.Background(), "builtin")
			require.Error(t, err)
			assert.True(t, sso.IsValidationError(err))
			dir.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		}
	})

	t.Run("missing source", func(t *testing.T) {
		dir := &MockDirectory{}
		session := newTestSession(dir)

		dir.On("Search", mock.Anything, mock.Anything).Return(&SearchResult{}, nil)

		err := session.RemoveIdentitySource(context.Background(), "ghost")
		require.Error(t, err)
		assert.True(t, sso.IsNotFoundError(err))
	})
}
