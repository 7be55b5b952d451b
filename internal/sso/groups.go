package sso

import (
	"context"
)

// FindGroups returns the groups of a domain whose names match pattern
// (MatchName semantics), filtered client-side over the full domain
// listing. An empty domain selects the server's own domain.
func (c *Client) FindGroups(ctx context.Context, domain, pattern string) ([]Group, error) {
	const op = "find groups"

	sess, err := c.guard(op)
	if err != nil {
		return nil, err
	}

	groups, err := sess.ListGroups(ctx, c.resolveDomain(domain))
	if err != nil {
		return nil, Normalize(op, c.conn.host, err)
	}

	groups = FilterByName(groups, pattern, func(g Group) string { return g.ID.Name })
	for i := range groups {
		groups[i].conn = c.conn
	}
	return groups, nil
}

// CreateGroup creates a group. The server rejects duplicate names with a
// remote-operation error.
func (c *Client) CreateGroup(ctx context.Context, group NewGroup) (Group, error) {
	const op = "create group"

	sess, err := c.guard(op)
	if err != nil {
		return Group{}, err
	}
	if group.Name == "" {
		return Group{}, Errorf(op, ErrorKindValidation, "group name is required")
	}
	group.Domain = c.resolveDomain(group.Domain)

	created, err := sess.CreateGroup(ctx, group)
	if err != nil {
		return Group{}, Normalize(op, c.conn.host, err)
	}
	created.conn = c.conn

	c.log.Info("Group created", map[string]any{
		"principal": created.ID.String(),
		"server":    c.conn.host,
	})
	return created, nil
}

// UpdateGroup applies the non-nil fields of update to a group and returns
// the updated principal.
func (c *Client) UpdateGroup(ctx context.Context, group Group, update GroupUpdate) (Group, error) {
	const op = "update group"

	sess, err := c.guardPrincipal(op, group)
	if err != nil {
		return Group{}, err
	}

	updated, err := sess.UpdateGroup(ctx, group.ID, update)
	if err != nil {
		return Group{}, Normalize(op, c.conn.host, err)
	}
	updated.conn = c.conn
	return updated, nil
}

// DeleteGroup removes a group from its domain.
func (c *Client) DeleteGroup(ctx context.Context, group Group) error {
	const op = "delete group"

	sess, err := c.guardPrincipal(op, group)
	if err != nil {
		return err
	}

	if err := sess.DeleteGroup(ctx, group.ID); err != nil {
		return Normalize(op, c.conn.host, err)
	}

	c.log.Info("Group deleted", map[string]any{
		"principal": group.ID.String(),
		"server":    c.conn.host,
	})
	return nil
}

// AddGroupMember adds a principal (person user or group) to a group.
// Adding a member that is already present is rejected by the server with
// a remote-operation error.
func (c *Client) AddGroupMember(ctx context.Context, group Group, member Principal) error {
	const op = "add group member"

	sess, err := c.guardMembership(op, group, member)
	if err != nil {
		return err
	}

	if err := sess.AddGroupMember(ctx, group.ID, member.PrincipalID(), member.PrincipalKind()); err != nil {
		return Normalize(op, c.conn.host, err)
	}

	c.log.Info("Group member added", map[string]any{
		"group":  group.ID.String(),
		"member": member.PrincipalID().String(),
		"kind":   string(member.PrincipalKind()),
	})
	return nil
}

// RemoveGroupMember removes a principal (person user or group) from a
// group. Removing a member that is not present yields a not-found error.
func (c *Client) RemoveGroupMember(ctx context.Context, group Group, member Principal) error {
	const op = "remove group member"

	sess, err := c.guardMembership(op, group, member)
	if err != nil {
		return err
	}

	if err := sess.RemoveGroupMember(ctx, group.ID, member.PrincipalID(), member.PrincipalKind()); err != nil {
		return Normalize(op, c.conn.host, err)
	}

	c.log.Info("Group member removed", map[string]any{
		"group":  group.ID.String(),
		"member": member.PrincipalID().String(),
		"kind":   string(member.PrincipalKind()),
	})
	return nil
}

// FindPersonUsersInGroup returns the person-user members of a group whose
// names match pattern (MatchName semantics).
func (c *Client) FindPersonUsersInGroup(ctx context.Context, group Group, pattern string) ([]PersonUser, error) {
	const op = "find person users in group"

	sess, err := c.guardPrincipal(op, group)
	if err != nil {
		return nil, err
	}

	users, err := sess.ListPersonUsersInGroup(ctx, group.ID)
	if err != nil {
		return nil, Normalize(op, c.conn.host, err)
	}

	users = FilterByName(users, pattern, func(u PersonUser) string { return u.ID.Name })
	for i := range users {
		users[i].conn = c.conn
	}
	return users, nil
}

// FindGroupsInGroup returns the group members of a group whose names match
// pattern (MatchName semantics).
func (c *Client) FindGroupsInGroup(ctx context.Context, group Group, pattern string) ([]Group, error) {
	const op = "find groups in group"

	sess, err := c.guardPrincipal(op, group)
	if err != nil {
		return nil, err
	}

	groups, err := sess.ListGroupsInGroup(ctx, group.ID)
	if err != nil {
		return nil, Normalize(op, c.conn.host, err)
	}

	groups = FilterByName(groups, pattern, func(g Group) string { return g.ID.Name })
	for i := range groups {
		groups[i].conn = c.conn
	}
	return groups, nil
}

// guardMembership validates both ends of a membership mutation before any
// remote call: both principals routed through this connection, and no
// group made a member of itself.
func (c *Client) guardMembership(op string, group Group, member Principal) (Session, error) {
	if member.PrincipalKind() == PrincipalKindGroup && member.PrincipalID() == group.ID {
		return nil, Errorf(op, ErrorKindValidation, "group %s cannot be a member of itself", group.ID)
	}
	if owner := member.connection(); owner != nil && owner != c.conn {
		return nil, Errorf(op, ErrorKindValidation,
			"member %s belongs to a different connection", member.PrincipalID())
	}
	return c.guardPrincipal(op, group)
}
