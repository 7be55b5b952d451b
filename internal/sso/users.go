package sso

import (
	"context"
)

// FindPersonUsers returns the person users of a domain whose names match
// pattern (MatchName semantics: glob when the pattern carries '*' or '?',
// exact equality otherwise, everything on an empty pattern). Matching runs
// client-side over the full domain listing. An empty domain selects the
// server's own domain.
func (c *Client) FindPersonUsers(ctx context.Context, domain, pattern string) ([]PersonUser, error) {
	const op = "find person users"

	sess, err := c.guard(op)
	if err != nil {
		return nil, err
	}

	users, err := sess.ListPersonUsers(ctx, c.resolveDomain(domain))
	if err != nil {
		return nil, Normalize(op, c.conn.host, err)
	}

	users = FilterByName(users, pattern, func(u PersonUser) string { return u.ID.Name })
	for i := range users {
		users[i].conn = c.conn
	}
	return users, nil
}

// CreatePersonUser creates a person user. The server rejects duplicate
// names with a remote-operation error.
func (c *Client) CreatePersonUser(ctx context.Context, user NewPersonUser) (PersonUser, error) {
	const op = "create person user"

	sess, err := c.guard(op)
	if err != nil {
		return PersonUser{}, err
	}
	if user.Name == "" {
		return PersonUser{}, Errorf(op, ErrorKindValidation, "user name is required")
	}
	if user.Password == "" {
		return PersonUser{}, Errorf(op, ErrorKindValidation, "password is required")
	}
	user.Domain = c.resolveDomain(user.Domain)

	created, err := sess.CreatePersonUser(ctx, user)
	if err != nil {
		return PersonUser{}, Normalize(op, c.conn.host, err)
	}
	created.conn = c.conn

	c.log.Info("Person user created", map[string]any{
		"principal": created.ID.String(),
		"server":    c.conn.host,
	})
	return created, nil
}

// UpdatePersonUser applies the non-nil fields of update to a person user
// and returns the updated principal.
func (c *Client) UpdatePersonUser(ctx context.Context, user PersonUser, update PersonUserUpdate) (PersonUser, error) {
	const op = "update person user"

	sess, err := c.guardPrincipal(op, user)
	if err != nil {
		return PersonUser{}, err
	}

	updated, err := sess.UpdatePersonUser(ctx, user.ID, update)
	if err != nil {
		return PersonUser{}, Normalize(op, c.conn.host, err)
	}
	updated.conn = c.conn
	return updated, nil
}

// DeletePersonUser removes a person user from its domain.
func (c *Client) DeletePersonUser(ctx context.Context, user PersonUser) error {
	const op = "delete person user"

	sess, err := c.guardPrincipal(op, user)
	if err != nil {
		return err
	}

	if err := sess.DeletePersonUser(ctx, user.ID); err != nil {
		return Normalize(op, c.conn.host, err)
	}

	c.log.Info("Person user deleted", map[string]any{
		"principal": user.ID.String(),
		"server":    c.conn.host,
	})
	return nil
}

// ResetPersonUserPassword sets a new password for a person user.
func (c *Client) ResetPersonUserPassword(ctx context.Context, user PersonUser, newPassword string) error {
	const op = "reset person user password"

	sess, err := c.guardPrincipal(op, user)
	if err != nil {
		return err
	}
	if newPassword == "" {
		return Errorf(op, ErrorKindValidation, "new password is required")
	}

	if err := sess.ResetPersonUserPassword(ctx, user.ID, newPassword); err != nil {
		return Normalize(op, c.conn.host, err)
	}
	return nil
}

// UnlockPersonUser clears an account lockout. Returns true when a lock
// was actually cleared, false when the account was not locked.
func (c *Client) UnlockPersonUser(ctx context.Context, user PersonUser) (bool, error) {
	const op = "unlock person user"

	sess, err := c.guardPrincipal(op, user)
	if err != nil {
		return false, err
	}

	unlocked, err := sess.UnlockPersonUser(ctx, user.ID)
	if err != nil {
		return false, Normalize(op, c.conn.host, err)
	}
	return unlocked, nil
}
