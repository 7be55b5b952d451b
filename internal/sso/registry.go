package sso

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/isometry/ssoadmin/internal/logging"
)

// DefaultPort is the directory service port assumed when a host carries
// no explicit port.
const DefaultPort = 636

// Connection is the handle for one authenticated server session. Handles
// are shared: connecting twice to the same (host, port, user) identity
// returns the same handle with its reference count bumped. A handle stays
// usable until the final disconnect tears the session down.
type Connection struct {
	id        string
	host      string
	port      int
	user      string
	session   Session
	client    *Client
	connected atomic.Bool
	log       logging.Logger
}

// ID is a process-unique identifier for the handle, for logs and listings.
func (c *Connection) ID() string { return c.id }

// Host is the server this handle is bound to, normalized to lower case
// and stripped of any explicit port.
func (c *Connection) Host() string { return c.host }

// Port is the service port in effect for this handle; DefaultPort when
// the host carried none.
func (c *Connection) Port() int { return c.port }

// User is the authenticated administrative user.
func (c *Connection) User() string { return c.user }

// Connected reports whether the underlying session is still established.
// The flag flips exactly once, at final teardown.
func (c *Connection) Connected() bool { return c.connected.Load() }

// Client returns the typed operation surface bound to this connection.
func (c *Connection) Client() *Client { return c.client }

func (c *Connection) String() string {
	if c.port != DefaultPort {
		return c.user + "@" + net.JoinHostPort(c.host, strconv.Itoa(c.port))
	}
	return c.user + "@" + c.host
}

func (c *Connection) key() connKey {
	return connKey{host: c.host, port: c.port, user: strings.ToLower(c.user)}
}

// ensureConnected gates every operation dispatched through this handle.
// A torn-down handle fails here, before any remote call.
func (c *Connection) ensureConnected(op string) error {
	if !c.connected.Load() {
		return &Error{
			Operation: op,
			Kind:      ErrorKindNotConnected,
			Server:    c.host,
			Message:   "connection has been disconnected",
		}
	}
	return nil
}

// connKey is the registry identity: (host, port, authenticated user) with
// host and user case-folded and the default port applied, so "vc1" and
// "vc1:636" share one identity.
type connKey struct {
	host string
	port int
	user string
}

type registryEntry struct {
	conn *Connection
	refs int
}

// Registry tracks active authenticated connections, deduplicated by
// (host, port, user) with reference counting. It is an explicit instance
// owned by the caller, never package-global state.
type Registry struct {
	mu        sync.Mutex
	transport Transport
	log       logging.Logger
	entries   map[connKey]*registryEntry
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used by the registry and the clients it
// creates.
func WithLogger(log logging.Logger) RegistryOption {
	return func(r *Registry) {
		r.log = log
	}
}

// NewRegistry creates an empty registry dispatching through transport.
func NewRegistry(transport Transport, opts ...RegistryOption) *Registry {
	r := &Registry{
		transport: transport,
		entries:   make(map[connKey]*registryEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = logging.OrNop(r.log)
	return r
}

// Connect opens (or reuses) an authenticated session to host. A connect
// to an identity that is already registered re-validates the supplied
// credentials against the live session, increments the reference count
// and returns the existing handle; no second transport session is opened.
//
// The registry lock spans the transport dial so concurrent connects and
// disconnects on one identity cannot race the reference count.
func (r *Registry) Connect(ctx context.Context, host string, creds Credentials, policy TLSPolicy) (*Connection, error) {
	const op = "connect"

	if strings.TrimSpace(host) == "" {
		return nil, Errorf(op, ErrorKindValidation, "host is required")
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	host, port, err := splitHostPort(strings.ToLower(strings.TrimSpace(host)))
	if err != nil {
		return nil, Errorf(op, ErrorKindValidation, "invalid host: %v", err)
	}
	key := connKey{host: host, port: port, user: strings.ToLower(creds.Username)}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[key]; ok {
		if err := e.conn.session.Alive(ctx); err != nil {
			// The registered session has died underneath us. Tear the
			// stale entry down and fall through to a fresh open; holders
			// of the old handle start seeing NotConnectedError.
			r.log.Warn("Registered session no longer alive, reopening", map[string]any{
				"connection": e.conn.String(),
				"error":      err.Error(),
			})
			e.conn.connected.Store(false)
			_ = e.conn.session.Close(ctx)
			delete(r.entries, key)
		} else {
			if err := e.conn.session.ValidateCredentials(ctx, creds); err != nil {
				return nil, Normalize(op, host, err)
			}
			e.refs++
			r.log.Debug("Reusing registered session", map[string]any{
				"connection": e.conn.String(),
				"refs":       e.refs,
			})
			return e.conn, nil
		}
	}

	session, err := r.transport.Open(ctx, dialTarget(host, port), creds, policy)
	if err != nil {
		return nil, Normalize(op, host, err)
	}

	conn := &Connection{
		id:      uuid.NewString(),
		host:    host,
		port:    port,
		user:    creds.Username,
		session: session,
		log:     r.log,
	}
	conn.connected.Store(true)
	conn.client = &Client{conn: conn, log: r.log}

	r.entries[key] = &registryEntry{conn: conn, refs: 1}
	r.log.Info("Session established", map[string]any{
		"connection": conn.String(),
		"id":         conn.id,
	})
	return conn, nil
}

// Disconnect releases one reference on the handle. The transport session
// is closed and the registry entry removed only when the count reaches
// zero. Disconnecting an already-disconnected handle is a no-op.
func (r *Registry) Disconnect(ctx context.Context, conn *Connection) error {
	const op = "disconnect"

	if conn == nil {
		return Errorf(op, ErrorKindValidation, "connection is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !conn.Connected() {
		return nil
	}

	e, ok := r.entries[conn.key()]
	if !ok || e.conn != conn {
		// The handle was superseded by a reopen; nothing left to release.
		return nil
	}

	e.refs--
	if e.refs > 0 {
		r.log.Debug("Released shared session reference", map[string]any{
			"connection": conn.String(),
			"refs":       e.refs,
		})
		return nil
	}

	delete(r.entries, conn.key())
	conn.connected.Store(false)
	r.log.Info("Session closed", map[string]any{
		"connection": conn.String(),
	})

	if err := conn.session.Close(ctx); err != nil {
		return Normalize(op, conn.host, err)
	}
	return nil
}

// Active returns a snapshot of the live handles, ordered by host then user.
func (r *Registry) Active() []*Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns := make([]*Connection, 0, len(r.entries))
	for _, e := range r.entries {
		conns = append(conns, e.conn)
	}
	sort.Slice(conns, func(i, j int) bool {
		if conns[i].host != conns[j].host {
			return conns[i].host < conns[j].host
		}
		if conns[i].port != conns[j].port {
			return conns[i].port < conns[j].port
		}
		return conns[i].user < conns[j].user
	})
	return conns
}

// RefCount reports the number of logical holders of a handle; zero for
// handles no longer registered.
func (r *Registry) RefCount(conn *Connection) int {
	if conn == nil {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[conn.key()]; ok && e.conn == conn {
		return e.refs
	}
	return 0
}

// splitHostPort separates an optional ":port" suffix from host, applying
// DefaultPort to bare hosts.
func splitHostPort(host string) (string, int, error) {
	if !strings.Contains(host, ":") {
		return host, DefaultPort, nil
	}
	h, p, err := net.SplitHostPort(host)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(p)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port %q", p)
	}
	return h, port, nil
}

// dialTarget renders the transport endpoint for an identity. The default
// port stays implicit so the transport can run endpoint discovery on the
// bare host.
func dialTarget(host string, port int) string {
	if port == DefaultPort {
		return host
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
