package ldap

import (
	"context"

	"github.com/go-ldap/ldap/v3"

	"github.com/isometry/ssoadmin/internal/sso"
)

var groupAttributes = []string{
	"cn",
	"description",
	"objectGUID",
	"objectSid",
}

const groupFilter = "(objectClass=group)"

func (s *directorySession) ListGroups(ctx context.Context, domain string) ([]sso.Group, error) {
	const op = "list groups"

	res, err := s.dir.SearchWithPaging(ctx, &SearchRequest{
		BaseDN:     s.groupsContainer(domain),
		Scope:      ScopeSingleLevel,
		Filter:     groupFilter,
		Attributes: groupAttributes,
	})
	if err != nil {
		return nil, s.wrap(op, err)
	}

	groups := make([]sso.Group, 0, len(res.Entries))
	for _, entry := range res.Entries {
		groups = append(groups, s.entryToGroup(entry))
	}
	return groups, nil
}

func (s *directorySession) CreateGroup(ctx context.Context, group sso.NewGroup) (sso.Group, error) {
	const op = "create group"

	id := sso.PrincipalID{Name: group.Name, Domain: s.resolveDomain(group.Domain)}
	attrs := map[string][]string{
		"objectClass": {"top", "group"},
		"cn":          {group.Name},
	}
	if group.Description != "" {
		attrs["description"] = []string{group.Description}
	}

	if err := s.dir.Add(ctx, &AddRequest{DN: s.groupDN(id), Attributes: attrs}); err != nil {
		return sso.Group{}, s.wrap(op, err)
	}
	return s.getGroup(ctx, op, id)
}

// UpdateGroup applies the non-nil fields of update and returns the
// resulting group.
func (s *directorySession) UpdateGroup(ctx context.Context, id sso.PrincipalID, update sso.GroupUpdate) (sso.Group, error) {
	const op = "update group"

	if update.Description != nil {
		values := []string{*update.Description}
		if *update.Description == "" {
			values = nil
		}
		err := s.dir.Modify(ctx, &ModifyRequest{
			DN:                s.groupDN(id),
			ReplaceAttributes: map[string][]string{"description": values},
		})
		if err != nil {
			return sso.Group{}, s.wrap(op, err)
		}
	}
	return s.getGroup(ctx, op, id)
}

func (s *directorySession) DeleteGroup(ctx context.Context, id sso.PrincipalID) error {
	const op = "delete group"
	return s.wrap(op, s.dir.Delete(ctx, s.groupDN(id)))
}

func (s *directorySession) getGroup(ctx context.Context, op string, id sso.PrincipalID) (sso.Group, error) {
	entry, err := s.groupEntry(ctx, op, id)
	if err != nil {
		return sso.Group{}, err
	}
	return s.entryToGroup(entry), nil
}

func (s *directorySession) groupEntry(ctx context.Context, op string, id sso.PrincipalID) (*ldap.Entry, error) {
	res, err := s.dir.Search(ctx, &SearchRequest{
		BaseDN:     s.groupDN(id),
		Scope:      ScopeBaseObject,
		Filter:     groupFilter,
		Attributes: append(groupAttributes, "member"),
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
			Message:   "group " + id.String() + " not found",
		}
	}
	return res.Entries[0], nil
}

func (s *directorySession) entryToGroup(entry *ldap.Entry) sso.Group {
	return sso.Group{
		ID: sso.PrincipalID{
			Name:   entry.GetAttributeValue("cn"),
			Domain: s.domainForEntry(entry.DN),
		},
		Description: entry.GetAttributeValue("description"),
	}
}
