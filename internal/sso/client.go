package sso

import (
	"github.com/isometry/ssoadmin/internal/logging"
)

// Client is the typed administrative surface of one connection: principal
// CRUD, group membership, policy get/set and identity-source federation.
// Operations are issued sequentially by the caller; the client keeps no
// internal queue and retries nothing.
type Client struct {
	conn *Connection
	log  logging.Logger
}

// Connection returns the handle this client dispatches through.
func (c *Client) Connection() *Connection { return c.conn }

// guard gates an operation on the connection still being established.
// Disconnected handles fail here, before any remote call.
func (c *Client) guard(op string) (Session, error) {
	if err := c.conn.ensureConnected(op); err != nil {
		return nil, err
	}
	return c.conn.session, nil
}

// guardPrincipal additionally checks that a principal produced by an
// earlier query is routed back through its owning connection.
func (c *Client) guardPrincipal(op string, p Principal) (Session, error) {
	if owner := p.connection(); owner != nil && owner != c.conn {
		return nil, Errorf(op, ErrorKindValidation,
			"principal %s belongs to a different connection", p.PrincipalID())
	}
	return c.guard(op)
}

// resolveDomain substitutes the server's own domain for an empty domain
// argument. Callers must hold a live session (guard first).
func (c *Client) resolveDomain(domain string) string {
	if domain == "" {
		return c.conn.session.DefaultDomain()
	}
	return domain
}
