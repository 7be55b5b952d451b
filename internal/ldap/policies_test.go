package ldap

import (
	"context"
	"testing"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/isometry/ssoadmin/internal/sso"
)

func TestGetPasswordPolicy(t *testing.T) {
	dir := &MockDirectory{}
	session := newTestSession(dir)

	entry := ldap.NewEntry("cn=PasswordPolicy,cn=Policies,dc=sso,dc=example,dc=com", map[string][]string{
		"description":                        {"Default password policy"},
		"ssoPasswordProhibitedPreviousCount": {"5"},
		"ssoPasswordMinLength":               {"8"},
		"ssoPasswordMaxLength":               {"20"},
		"ssoPasswordMinAlphabetic":           {"2"},
		"ssoPasswordMinUppercase":            {"1"},
		"ssoPasswordMinLowercase":            {"1"},
		"ssoPasswordMinNumeric":              {"1"},
		"ssoPasswordMinSpecial":              {"1"},
		"ssoPasswordMaxIdenticalAdjacent":    {"3"},
		"ssoPasswordLifetimeDays":            {"90"},
	})

	dir.On("Search", mock.Anything, mock.MatchedBy(func(req *SearchRequest) bool {
		return req.BaseDN == "cn=PasswordPolicy,cn=Policies,dc=sso,dc=example,dc=com" &&
			req.Scope == ScopeBaseObject
	})).Return(&SearchResult{Entries: []*ldap.Entry{entry}}, nil)

	policy, err := session.GetPasswordPolicy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Default password policy", policy.Description)
	assert.Equal(t, 5, policy.ProhibitedPreviousPasswords)
	assert.Equal(t, 8, policy.MinLength)
	assert.Equal(t, 20, policy.MaxLength)
	assert.Equal(t, 3, policy.MaxIdenticalAdjacentCharacters)
	assert.Equal(t, 90, policy.PasswordLifetimeDays)

	dir.AssertExpectations(t)
}

func TestSetPasswordPolicy(t *testing.T) {
	dir := &MockDirectory{}
	session := newTestSession(dir)

	dir.On("Modify", mock.Anything, mock.MatchedBy(func(req *ModifyRequest) bool {
		return req.DN == "cn=PasswordPolicy,cn=Policies,dc=sso,dc=example,dc=com" &&
			req.ReplaceAttributes["ssoPasswordMinLength"][0] == "12" &&
			req.ReplaceAttributes["ssoPasswordLifetimeDays"][0] == "60"
	})).Return(nil)
	dir.On("Search", mock.Anything, mock.Anything).
		Return(&SearchResult{Entries: []*ldap.Entry{
			ldap.NewEntry("cn=PasswordPolicy,cn=Policies,dc=sso,dc=example,dc=com", map[string][]string{
				"ssoPasswordMinLength":    {"12"},
				"ssoPasswordLifetimeDays": {"60"},
			}),
		}}, nil)

	applied, err := session.SetPasswordPolicy(context.Background(), sso.PasswordPolicy{
		MinLength:            12,
		PasswordLifetimeDays: 60,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, applied.MinLength)
	assert.Equal(t, 60, applied.PasswordLifetimeDays)

	dir.AssertExpectations(t)
}

func TestGetLockoutPolicy(t *testing.T) {
	dir := &MockDirectory{}
	session := newTestSession(dir)

	entry := ldap.NewEntry("cn=LockoutPolicy,cn=Policies,dc=sso,dc=example,dc=com", map[string][]string{
		"description":                        {"Default lockout policy"},
		"ssoLockoutMaxFailedAttempts":        {"5"},
		"ssoLockoutFailedAttemptIntervalSec": {"180"},
		"ssoLockoutAutoUnlockIntervalSec":    {"300"},
	})

	dir.On("Search", mock.Anything, mock.MatchedBy(func(req *SearchRequest) bool {
		return req.BaseDN == "cn=LockoutPolicy,cn=Policies,dc=sso,dc=example,dc=com"
	})).Return(&SearchResult{Entries: []*ldap.Entry{entry}}, nil)

	policy, err := session.GetLockoutPolicy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, policy.MaxFailedAttempts)
	assert.Equal(t, 3*time.Minute, policy.FailedAttemptInterval)
	assert.Equal(t, 5*time.Minute, policy.AutoUnlockInterval)

	dir.AssertExpectations(t)
}

func TestSetLockoutPolicy(t *testing.T) {
	dir := &MockDirectory{}
	session := newTestSession(dir)

	dir.On("Modify", mock.Anything, mock.MatchedBy(func(req *ModifyRequest) bool {
		return req.ReplaceAttributes["ssoLockoutMaxFailedAttempts"][0] == "3" &&
			req.ReplaceAttributes["ssoLockoutFailedAttemptIntervalSec"][0] == "120" &&
			req.ReplaceAttributes["ssoLockoutAutoUnlockIntervalSec"][0] == "600"
	})).Return(nil)
	dir.On("Search", mock.Anything, mock.Anything).
		Return(&SearchResult{Entries: []*ldap.Entry{
			ldap.NewEntry("cn=LockoutPolicy,cn=Policies,dc=sso,dc=example,dc=com", map[string][]string{
				"ssoLockoutMaxFailedAttempts":        {"3"},
				"ssoLockoutFailedAttemptIntervalSec": {"120"},
				"ssoLockoutAutoUnlockIntervalSec":    {"600"},
			}),
		}}, nil)

	applied, err := session.SetLockoutPolicy(context.Background(), sso.LockoutPolicy{
		MaxFailedAttempts:     3,
		FailedAttemptInterval: 2 * time.Minute,
		AutoUnlockInterval:    10 * time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, applied.MaxFailedAttempts)
	assert.Equal(t, 2*time.Minute, applied.FailedAttemptInterval)
	assert.Equal(t, 10*time.Minute, applied.AutoUnlockInterval)

	dir.AssertExpectations(t)
}

func TestGetTokenLifetime(t *testing.T) {
	dir := &MockDirectory{}
	session := newTestSession(dir)

	entry := ldap.NewEntry("cn=TokenPolicy,cn=Policies,dc=sso,dc=example,dc=com", map[string][]string{
		"ssoTokenMaxHoKLifetimeSec":    {"2592000"},
		"ssoTokenMaxBearerLifetimeSec": {"300"},
	})

	dir.On("Search", mock.Anything, mock.MatchedBy(func(req *SearchRequest) bool {
		return req.BaseDN == "cn=TokenPolicy,cn=Policies,dc=sso,dc=example,dc=com"
	})).Return(&SearchResult{Entries: []*ldap.Entry{entry}}, nil)

	lifetime, err := session.GetTokenLifetime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, lifetime.MaxHoKTokenLifetime)
	assert.Equal(t, 5*time.Minute, lifetime.MaxBearerTokenLifetime)

	dir.AssertExpectations(t)
}

func TestSetTokenLifetime(t *testing.T) {
	dir := &MockDirectory{}
	session := newTestSession(dir)

	dir.On("Modify", mock.Anything, mock.MatchedBy(func(req *ModifyRequest) bool {
		return req.ReplaceAttributes["ssoTokenMaxHoKLifetimeSec"][0] == "3600" &&
			req.ReplaceAttributes["ssoTokenMaxBearerLifetimeSec"][0] == "60"
	})).Return(nil)
	dir.On("Search", mock.Anything, mock.Anything).
		Return(&SearchResult{Entries: []*ldap.Entry{
			ldap.NewEntry("cn=TokenPolicy,cn=Policies,dc=sso,dc=example,dc=com", map[string][]string{
				"ssoTokenMaxHoKLifetimeSec":    {"3600"},
				"ssoTokenMaxBearerLifetimeSec": {"60"},
			}),
		}}, nil)

	applied, err := session.SetTokenLifetime(context.Background(), sso.TokenLifetime{
		MaxHoKTokenLifetime:    time.Hour,
		MaxBearerTokenLifetime: time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, applied.MaxHoKTokenLifetime)
	assert.Equal(t, time.Minute, applied.MaxBearerTokenLifetime)

	dir.AssertExpectations(t)
}

func TestGetPasswordPolicyMissingEntry(t *testing.T) {
	dir := &MockDirectory{}
	session := newTestSession(dir)

	dir.On("Search", mock.Anything, mock.Anything).Return(&SearchResult{}, nil)

	_, err := session.GetPasswordPolicy(context.Background())
	require.Error(t, err)
	assert.True(t, sso.IsNotFoundError(err))
}
