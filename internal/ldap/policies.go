package ldap

import (
	"context"
	"strconv"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/isometry/ssoadmin/internal/sso"
)

// Server policies are single well-known entries below cn=Policies.
// Durations travel as integer seconds.
const (
	passwordPolicyRDN = "cn=PasswordPolicy"
	lockoutPolicyRDN  = "cn=LockoutPolicy"
	tokenPolicyRDN    = "cn=TokenPolicy"
)

var passwordPolicyAttributes = []string{
	"description",
	"ssoPasswordProhibitedPreviousCount",
	"ssoPasswordMinLength",
	"ssoPasswordMaxLength",
	"ssoPasswordMinAlphabetic",
	"ssoPasswordMinUppercase",
	"ssoPasswordMinLowercase",
	"ssoPasswordMinNumeric",
	"ssoPasswordMinSpecial",
	"ssoPasswordMaxIdenticalAdjacent",
	"ssoPasswordLifetimeDays",
}

var lockoutPolicyAttributes = []string{
	"description",
	"ssoLockoutMaxFailedAttempts",
	"ssoLockoutFailedAttemptIntervalSec",
	"ssoLockoutAutoUnlockIntervalSec",
}

var tokenPolicyAttributes = []string{
	"ssoTokenMaxHoKLifetimeSec",
	"ssoTokenMaxBearerLifetimeSec",
}

func (s *directorySession) GetPasswordPolicy(ctx context.Context) (sso.PasswordPolicy, error) {
	const op = "get password policy"

	entry, err := s.policyEntry(ctx, op, passwordPolicyRDN, passwordPolicyAttributes)
	if err != nil {
		return sso.PasswordPolicy{}, err
	}
	return entryToPasswordPolicy(entry), nil
}

// SetPasswordPolicy replaces the full policy attribute set and returns
// the applied policy.
func (s *directorySession) SetPasswordPolicy(ctx context.Context, policy sso.PasswordPolicy) (sso.PasswordPolicy, error) {
	const op = "set password policy"

	err := s.dir.Modify(ctx, &ModifyRequest{
		DN: passwordPolicyRDN + "," + s.policiesContainer(),
		ReplaceAttributes: map[string][]string{
			"description":                        textValues(policy.Description),
			"ssoPasswordProhibitedPreviousCount": intValues(policy.ProhibitedPreviousPasswords),
			"ssoPasswordMinLength":               intValues(policy.MinLength),
			"ssoPasswordMaxLength":               intValues(policy.MaxLength),
			"ssoPasswordMinAlphabetic":           intValues(policy.MinAlphabeticCount),
			"ssoPasswordMinUppercase":            intValues(policy.MinUppercaseCount),
			"ssoPasswordMinLowercase":            intValues(policy.MinLowercaseCount),
			"ssoPasswordMinNumeric":              intValues(policy.MinNumericCount),
			"ssoPasswordMinSpecial":              intValues(policy.MinSpecialCharCount),
			"ssoPasswordMaxIdenticalAdjacent":    intValues(policy.MaxIdenticalAdjacentCharacters),
			"ssoPasswordLifetimeDays":            intValues(policy.PasswordLifetimeDays),
		},
	})
	if err != nil {
		return sso.PasswordPolicy{}, s.wrap(op, err)
	}
	return s.GetPasswordPolicy(ctx)
}

func (s *directorySession) GetLockoutPolicy(ctx context.Context) (sso.LockoutPolicy, error) {
	const op = "get lockout policy"

	entry, err := s.policyEntry(ctx, op, lockoutPolicyRDN, lockoutPolicyAttributes)
	if err != nil {
		return sso.LockoutPolicy{}, err
	}
	return entryToLockoutPolicy(entry), nil
}

func (s *directorySession) SetLockoutPolicy(ctx context.Context, policy sso.LockoutPolicy) (sso.LockoutPolicy, error) {
	const op = "set lockout policy"

	err := s.dir.Modify(ctx, &ModifyRequest{
		DN: lockoutPolicyRDN + "," + s.policiesContainer(),
		ReplaceAttributes: map[string][]string{
			"description":                        textValues(policy.Description),
			"ssoLockoutMaxFailedAttempts":        intValues(policy.MaxFailedAttempts),
			"ssoLockoutFailedAttemptIntervalSec": secondValues(policy.FailedAttemptInterval),
			"ssoLockoutAutoUnlockIntervalSec":    secondValues(policy.AutoUnlockInterval),
		},
	})
	if err != nil {
		return sso.LockoutPolicy{}, s.wrap(op, err)
	}
	return s.GetLockoutPolicy(ctx)
}

func (s *directorySession) GetTokenLifetime(ctx context.Context) (sso.TokenLifetime, error) {
	const op = "get token lifetime"

	entry, err := s.policyEntry(ctx, op, tokenPolicyRDN, tokenPolicyAttributes)
	if err != nil {
		return sso.TokenLifetime{}, err
	}
	return entryToTokenLifetime(entry), nil
}

func (s *directorySession) SetTokenLifetime(ctx context.Context, lifetime sso.TokenLifetime) (sso.TokenLifetime, error) {
	const op = "set token lifetime"

	err := s.dir.Modify(ctx, &ModifyRequest{
		DN: tokenPolicyRDN + "," + s.policiesContainer(),
		ReplaceAttributes: map[string][]string{
			"ssoTokenMaxHoKLifetimeSec":    secondValues(lifetime.MaxHoKTokenLifetime),
			"ssoTokenMaxBearerLifetimeSec": secondValues(lifetime.MaxBearerTokenLifetime),
		},
	})
	if err != nil {
		return sso.TokenLifetime{}, s.wrap(op, err)
	}
	return s.GetTokenLifetime(ctx)
}

func (s *directorySession) policyEntry(ctx context.Context, op, rdn string, attributes []string) (*ldap.Entry, error) {
	res, err := s.dir.Search(ctx, &SearchRequest{
		BaseDN:     rdn + "," + s.policiesContainer(),
		Scope:      ScopeBaseObject,
		Filter:     "(objectClass=*)",
		Attributes: attributes,
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
			Message:   "policy entry " + rdn + " not found",
		}
	}
	return res.Entries[0], nil
}

func entryToPasswordPolicy(entry *ldap.Entry) sso.PasswordPolicy {
	return sso.PasswordPolicy{
		Description:                    entry.GetAttributeValue("description"),
		ProhibitedPreviousPasswords:    intAttr(entry, "ssoPasswordProhibitedPreviousCount"),
		MinLength:                      intAttr(entry, "ssoPasswordMinLength"),
		MaxLength:                      intAttr(entry, "ssoPasswordMaxLength"),
		MinAlphabeticCount:             intAttr(entry, "ssoPasswordMinAlphabetic"),
		MinUppercaseCount:              intAttr(entry, "ssoPasswordMinUppercase"),
		MinLowercaseCount:              intAttr(entry, "ssoPasswordMinLowercase"),
		MinNumericCount:                intAttr(entry, "ssoPasswordMinNumeric"),
		MinSpecialCharCount:            intAttr(entry, "ssoPasswordMinSpecial"),
		MaxIdenticalAdjacentCharacters: intAttr(entry, "ssoPasswordMaxIdenticalAdjacent"),
		PasswordLifetimeDays:           intAttr(entry, "ssoPasswordLifetimeDays"),
	}
}

func entryToLockoutPolicy(entry *ldap.Entry) sso.LockoutPolicy {
	return sso.LockoutPolicy{
		Description:           entry.GetAttributeValue("description"),
		MaxFailedAttempts:     intAttr(entry, "ssoLockoutMaxFailedAttempts"),
		FailedAttemptInterval: secondsAttr(entry, "ssoLockoutFailedAttemptIntervalSec"),
		AutoUnlockInterval:    secondsAttr(entry, "ssoLockoutAutoUnlockIntervalSec"),
	}
}

func entryToTokenLifetime(entry *ldap.Entry) sso.TokenLifetime {
	return sso.TokenLifetime{
		MaxHoKTokenLifetime:    secondsAttr(entry, "ssoTokenMaxHoKLifetimeSec"),
		MaxBearerTokenLifetime: secondsAttr(entry, "ssoTokenMaxBearerLifetimeSec"),
	}
}

func intAttr(entry *ldap.Entry, name string) int {
	v, _ := strconv.Atoi(entry.GetAttributeValue(name))
	return v
}

func secondsAttr(entry *ldap.Entry, name string) time.Duration {
	return time.Duration(intAttr(entry, name)) * time.Second
}

func intValues(v int) []string {
	return []string{strconv.Itoa(v)}
}

func secondValues(d time.Duration) []string {
	return []string{strconv.Itoa(int(d / time.Second))}
}

func textValues(v string) []string {
	if v == "" {
		return nil
	}
	return []string{v}
}
