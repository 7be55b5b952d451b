package ldap

import (
	"context"
	"fmt"

	"github.com/go-ldap/ldap/v3"

	"github.com/isometry/ssoadmin/internal/sso"
)

// AddGroupMember adds a member value to a group. The directory rejects
// duplicate values, which surfaces as a remote operation error.
func (s *directorySession) AddGroupMember(ctx context.Context, group, member sso.PrincipalID, kind sso.PrincipalKind) error {
	const op = "add group member"

	err := s.dir.Modify(ctx, &ModifyRequest{
		DN:            s.groupDN(group),
		AddAttributes: map[string][]string{"member": {s.principalDN(member, kind)}},
	})
	return s.wrap(op, err)
}

// RemoveGroupMember removes a member value from a group. Removing an
// absent value surfaces as a not-found error.
func (s *directorySession) RemoveGroupMember(ctx context.Context, group, member sso.PrincipalID, kind sso.PrincipalKind) error {
	const op = "remove group member"

	err := s.dir.Modify(ctx, &ModifyRequest{
		DN:               s.groupDN(group),
		DeleteAttributes: map[string][]string{"member": {s.principalDN(member, kind)}},
	})
	return s.wrap(op, err)
}

// ListPersonUsersInGroup lists the person users directly in a group,
// resolved through the memberOf backlink.
func (s *directorySession) ListPersonUsersInGroup(ctx context.Context, group sso.PrincipalID) ([]sso.PersonUser, error) {
	const op = "list users in group"

	res, err := s.dir.SearchWithPaging(ctx, &SearchRequest{
		BaseDN:     s.usersContainer(group.Domain),
		Scope:      ScopeSingleLevel,
		Filter:     memberOfFilter(personUserFilter, s.groupDN(group)),
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

// ListGroupsInGroup lists the groups directly in a group.
func (s *directorySession) ListGroupsInGroup(ctx context.Context, group sso.PrincipalID) ([]sso.Group, error) {
	const op = "list groups in group"

	res, err := s.dir.SearchWithPaging(ctx, &SearchRequest{
		BaseDN:     s.groupsContainer(group.Domain),
		Scope:      ScopeSingleLevel,
		Filter:     memberOfFilter(groupFilter, s.groupDN(group)),
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

// memberOfFilter combines an object-class filter with a direct
// membership condition on the given group DN.
func memberOfFilter(classFilter, groupDN string) string {
	return fmt.Sprintf("(&%s(memberOf=%s))", classFilter, ldap.EscapeFilter(groupDN))
}
