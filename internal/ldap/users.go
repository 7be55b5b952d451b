package ldap

import (
	"context"
	"strconv"

	"github.com/go-ldap/ldap/v3"

	"github.com/isometry/ssoadmin/internal/sso"
)

// userAccountControl flags.
const (
	uacAccountDisabled = 0x0002
	uacNormalAccount   = 0x0200
)

var personUserAttributes = []string{
	"cn",
	"givenName",
	"sn",
	"mail",
	"description",
	"userAccountControl",
	"lockoutTime",
	"objectGUID",
	"objectSid",
}

const personUserFilter = "(objectClass=user)"

func (s *directorySession) ListPersonUsers(ctx context.Context, domain string) ([]sso.PersonUser, error) {
	const op = "list users"

	res, err := s.dir.SearchWithPaging(ctx, &SearchRequest{
		BaseDN:     s.usersContainer(domain),
		Scope:      ScopeSingleLevel,
		Filter:     personUserFilter,
		Attributes: personUserAttributes,
	})
	if err != nil {
		return nil, s.wrap(op, err)
	}

	users := make([]sso.PersonUser, 0, len(res.Entries))
	for _, entry := range res.Entries {
		users = append(users, s.entryToPersonUser(entry))
	}
	return users, nil
}

func (s *directorySession) CreatePersonUser(ctx context.Context, user sso.NewPersonUser) (sso.PersonUser, error) {
	const op = "create user"

	id := sso.PrincipalID{Name: user.Name, Domain: s.resolveDomain(user.Domain)}
	attrs := map[string][]string{
		"objectClass":        {"top", "person", "organizationalPerson", "user"},
		"cn":                 {user.Name},
		"userAccountControl": {strconv.Itoa(uacNormalAccount)},
	}
	if user.FirstName != "" {
		attrs["givenName"] = []string{user.FirstName}
	}
	if user.LastName != "" {
		attrs["sn"] = []string{user.LastName}
	}
	if user.EmailAddress != "" {
		attrs["mail"] = []string{user.EmailAddress}
	}
	if user.Description != "" {
		attrs["description"] = []string{user.Description}
	}
	if user.Password != "" {
		attrs["userPassword"] = []string{user.Password}
	}

	if err := s.dir.Add(ctx, &AddRequest{DN: s.userDN(id), Attributes: attrs}); err != nil {
		return sso.PersonUser{}, s.wrap(op, err)
	}
	return s.getPersonUser(ctx, op, id)
}

// UpdatePersonUser applies the non-nil fields of update and returns the
// resulting user. Pointer fields set to the empty string clear the
// attribute.
func (s *directorySession) UpdatePersonUser(ctx context.Context, id sso.PrincipalID, update sso.PersonUserUpdate) (sso.PersonUser, error) {
	const op = "update user"

	entry, err := s.personUserEntry(ctx, op, id)
	if err != nil {
		return sso.PersonUser{}, err
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
	setAttr("givenName", update.FirstName)
	setAttr("sn", update.LastName)
	setAttr("mail", update.EmailAddress)
	setAttr("description", update.Description)

	if update.Enabled != nil {
		uac, _ := strconv.Atoi(entry.GetAttributeValue("userAccountControl"))
		if uac == 0 {
			uac = uacNormalAccount
		}
		if *update.Enabled {
			uac &^= uacAccountDisabled
		} else {
			uac |= uacAccountDisabled
		}
		replace["userAccountControl"] = []string{strconv.Itoa(uac)}
	}

	if len(replace) > 0 {
		if err := s.dir.Modify(ctx, &ModifyRequest{DN: entry.DN, ReplaceAttributes: replace}); err != nil {
			return sso.PersonUser{}, s.wrap(op, err)
		}
	}
	return s.getPersonUser(ctx, op, id)
}

func (s *directorySession) DeletePersonUser(ctx context.Context, id sso.PrincipalID) error {
	const op = "delete user"
	return s.wrap(op, s.dir.Delete(ctx, s.userDN(id)))
}

func (s *directorySession) ResetPersonUserPassword(ctx context.Context, id sso.PrincipalID, password string) error {
	const op = "reset user password"

	err := s.dir.Modify(ctx, &ModifyRequest{
		DN:                s.userDN(id),
		ReplaceAttributes: map[string][]string{"userPassword": {password}},
	})
	return s.wrap(op, err)
}

// UnlockPersonUser clears a lockout and reports whether the account was
// locked to begin with.
func (s *directorySession) UnlockPersonUser(ctx context.Context, id sso.PrincipalID) (bool, error) {
	const op = "unlock user"

	entry, err := s.personUserEntry(ctx, op, id)
	if err != nil {
		return false, err
	}

	lockout, _ := strconv.ParseInt(entry.GetAttributeValue("lockoutTime"), 10, 64)
	if lockout <= 0 {
		return false, nil
	}

	err = s.dir.Modify(ctx, &ModifyRequest{
		DN:                entry.DN,
		ReplaceAttributes: map[string][]string{"lockoutTime": {"0"}},
	})
	if err != nil {
		return false, s.wrap(op, err)
	}
	return true, nil
}

// getPersonUser reads back a single user entry by DN.
func (s *directorySession) getPersonUser(ctx context.Context, op string, id sso.PrincipalID) (sso.PersonUser, error) {
	entry, err := s.personUserEntry(ctx, op, id)
	if err != nil {
		return sso.PersonUser{}, err
	}
	return s.entryToPersonUser(entry), nil
}

func (s *directorySession) personUserEntry(ctx context.Context, op string, id sso.PrincipalID) (*ldap.Entry, error) {
	res, err := s.dir.Search(ctx, &SearchRequest{
		BaseDN:     s.userDN(id),
		Scope:      ScopeBaseObject,
		Filter:     personUserFilter,
		Attributes: personUserAttributes,
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
			Message:   "user " + id.String() + " not found",
		}
	}
	return res.Entries[0], nil
}

func (s *directorySession) entryToPersonUser(entry *ldap.Entry) sso.PersonUser {
	uac, _ := strconv.Atoi(entry.GetAttributeValue("userAccountControl"))
	lockout, _ := strconv.ParseInt(entry.GetAttributeValue("lockoutTime"), 10, 64)

	externalID := ExtractGUID(entry)
	if externalID == "" {
		externalID = ExtractSID(entry)
	}

	return sso.PersonUser{
		ID: sso.PrincipalID{
			Name:   entry.GetAttributeValue("cn"),
			Domain: s.domainForEntry(entry.DN),
		},
		FirstName:    entry.GetAttributeValue("givenName"),
		LastName:     entry.GetAttributeValue("sn"),
		EmailAddress: entry.GetAttributeValue("mail"),
		Description:  entry.GetAttributeValue("description"),
		Disabled:     uac&uacAccountDisabled != 0,
		Locked:       lockout > 0,
		ExternalID:   externalID,
	}
}
