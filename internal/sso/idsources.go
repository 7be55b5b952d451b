package sso

import (
	"context"
)

// IdentitySources returns every identity source registered on the server:
// the localos source, the system source, and any external LDAP sources.
func (c *Client) IdentitySources(ctx context.Context) ([]IdentitySource, error) {
	const op = "list identity sources"

	sess, err := c.guard(op)
	if err != nil {
		return nil, err
	}

	sources, err := sess.ListIdentitySources(ctx)
	if err != nil {
		return nil, Normalize(op, c.conn.host, err)
	}
	return sources, nil
}

// AddLDAPIdentitySource registers an external Active-Directory-style LDAP
// identity source with primary/secondary URL and certificate list.
// Registering a domain name that already exists is rejected by the server
// with a remote-operation error.
func (c *Client) AddLDAPIdentitySource(ctx context.Context, source NewLDAPIdentitySource) (IdentitySource, error) {
	const op = "add identity source"

	sess, err := c.guard(op)
	if err != nil {
		return IdentitySource{}, err
	}
	if err := source.Validate(); err != nil {
		return IdentitySource{}, err
	}

	added, err := sess.AddLDAPIdentitySource(ctx, source)
	if err != nil {
		return IdentitySource{}, Normalize(op, c.conn.host, err)
	}

	c.log.Info("Identity source registered", map[string]any{
		"source": added.Name,
		"server": c.conn.host,
	})
	return added, nil
}

// UpdateLDAPIdentitySource applies the non-nil fields of update to the
// named external identity source. A non-nil certificate slice replaces
// the registered certificate list wholesale.
func (c *Client) UpdateLDAPIdentitySource(ctx context.Context, name string, update LDAPIdentitySourceUpdate) (IdentitySource, error) {
	const op = "update identity source"

	sess, err := c.guard(op)
	if err != nil {
		return IdentitySource{}, err
	}
	if name == "" {
		return IdentitySource{}, Errorf(op, ErrorKindValidation, "identity source name is required")
	}

	updated, err := sess.UpdateLDAPIdentitySource(ctx, name, update)
	if err != nil {
		return IdentitySource{}, Normalize(op, c.conn.host, err)
	}

	c.log.Info("Identity source updated", map[string]any{
		"source": name,
		"server": c.conn.host,
	})
	return updated, nil
}

// RemoveIdentitySource deletes the named identity source. The localos and
// system sources cannot be removed; attempting to yields a validation
// error.
func (c *Client) RemoveIdentitySource(ctx context.Context, name string) error {
	const op = "remove identity source"

	sess, err := c.guard(op)
	if err != nil {
		return err
	}
	if name == "" {
		return Errorf(op, ErrorKindValidation, "identity source name is required")
	}

	if err := sess.RemoveIdentitySource(ctx, name); err != nil {
		return Normalize(op, c.conn.host, err)
	}

	c.log.Info("Identity source removed", map[string]any{
		"source": name,
		"server": c.conn.host,
	})
	return nil
}
