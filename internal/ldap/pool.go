package ldap

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/google/uuid"

	"github.com/isometry/ssoadmin/internal/logging"
	"github.com/isometry/ssoadmin/internal/sso"
)

// connectionPool maintains authenticated directory connections for one
// session. Connections are recycled through a buffered channel; a
// background checker closes broken idle connections and aged ones are
// re-authenticated on checkout.
type connectionPool struct {
	config Config
	creds  sso.Credentials
	policy sso.TLSPolicy
	log    logging.Logger

	servers []*ServerInfo

	mu          sync.RWMutex
	closed      bool
	connections chan *PooledConnection

	activeConns  int64
	totalCreated int64
	totalErrors  int64
	startTime    time.Time

	healthStop chan struct{}
	healthWg   sync.WaitGroup
}

// newConnectionPool resolves endpoints for host, opens and authenticates
// an initial connection, and starts the health checker. A pool whose
// initial connection fails is never returned half-open.
func newConnectionPool(ctx context.Context, cfg Config, host string, port int, creds sso.Credentials, policy sso.TLSPolicy, log logging.Logger) (*connectionPool, error) {
	servers, err := resolveServers(ctx, cfg, host, port, log)
	if err != nil {
		return nil, err
	}

	pool := &connectionPool{
		config:      cfg,
		creds:       creds,
		policy:      policy,
		log:         logging.OrNop(log),
		servers:     servers,
		connections: make(chan *PooledConnection, cfg.PoolSize),
		startTime:   time.Now(),
		healthStop:  make(chan struct{}),
	}

	initial, err := pool.createConnection(ctx)
	if err != nil {
		return nil, err
	}
	pool.connections <- initial

	pool.healthWg.Add(1)
	go pool.healthChecker()

	return pool, nil
}

// resolveServers builds the endpoint list: explicit URLs win, then SRV
// discovery on the host, then a direct fallback endpoint.
func resolveServers(ctx context.Context, cfg Config, host string, port int, log logging.Logger) ([]*ServerInfo, error) {
	if len(cfg.URLs) > 0 {
		servers := make([]*ServerInfo, 0, len(cfg.URLs))
		for _, raw := range cfg.URLs {
			info, err := ParseURL(raw)
			if err != nil {
				return nil, err
			}
			servers = append(servers, info)
		}
		return servers, nil
	}

	if host == "" {
		return nil, fmt.Errorf("host is required when no URLs are configured")
	}

	discovery := NewSRVDiscovery(log)
	if servers, err := discovery.Discover(ctx, host); err == nil {
		return servers, nil
	}
	return fallbackServers(host, port, cfg.UseTLS), nil
}

// Get checks out a healthy authenticated connection, re-authenticating
// aged ones and replacing broken ones.
func (p *connectionPool) Get(ctx context.Context) (*PooledConnection, error) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, fmt.Errorf("connection pool is closed")
	}
	p.mu.RUnlock()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case conn := <-p.connections:
			if !p.isUsable(conn) {
				p.closeConnection(conn)
				continue
			}
			if p.needsReAuthentication(conn) {
				if err := p.authenticate(conn.conn, conn.server); err != nil {
					p.closeConnection(conn)
					continue
				}
				conn.mu.Lock()
				conn.authTime = time.Now()
				conn.mu.Unlock()
			}
			atomic.AddInt64(&p.activeConns, 1)
			return conn, nil
		default:
			conn, err := p.createConnection(ctx)
			if err != nil {
				return nil, err
			}
			atomic.AddInt64(&p.activeConns, 1)
			return conn, nil
		}
	}
}

// Put returns a connection to the pool, discarding it when the pool is
// closed, full, or the connection was marked broken.
func (p *connectionPool) Put(conn *PooledConnection) {
	if conn == nil {
		return
	}
	atomic.AddInt64(&p.activeConns, -1)

	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()

	conn.mu.Lock()
	healthy := conn.healthy && !conn.conn.IsClosing()
	conn.lastUsed = time.Now()
	conn.mu.Unlock()

	if closed || !healthy {
		p.closeConnection(conn)
		return
	}

	select {
	case p.connections <- conn:
	default:
		p.closeConnection(conn)
	}
}

// Close shuts down the pool and every pooled connection.
func (p *connectionPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	close(p.healthStop)
	p.healthWg.Wait()

	for {
		select {
		case conn := <-p.connections:
			p.closeConnection(conn)
		default:
			return nil
		}
	}
}

// Stats reports pool health counters.
func (p *connectionPool) Stats() PoolStats {
	return PoolStats{
		Total:   len(p.connections),
		Active:  atomic.LoadInt64(&p.activeConns),
		Created: atomic.LoadInt64(&p.totalCreated),
		Errors:  atomic.LoadInt64(&p.totalErrors),
		Uptime:  time.Since(p.startTime),
	}
}

// CheckBind authenticates the given credentials on a dedicated
// connection and discards it. Pool connections keep their own bind state.
func (p *connectionPool) CheckBind(ctx context.Context, username, password string) error {
	var lastErr error
	for _, server := range p.servers {
		conn, err := p.dial(ctx, server)
		if err != nil {
			lastErr = err
			continue
		}
		err = p.bindWith(conn, server, sso.Credentials{Username: username, Password: password})
		_ = conn.Close()
		return err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no directory servers available")
	}
	return lastErr
}

// createConnection tries each endpoint in order and returns the first
// connection that dials and authenticates.
func (p *connectionPool) createConnection(ctx context.Context) (*PooledConnection, error) {
	var lastErr error
	for _, server := range p.servers {
		conn, err := p.createSingleConnection(ctx, server)
		if err != nil {
			atomic.AddInt64(&p.totalErrors, 1)
			p.log.Debug("connection attempt failed", map[string]any{
				"server": server.Host,
				"port":   server.Port,
				"error":  err.Error(),
			})
			lastErr = err
			continue
		}
		atomic.AddInt64(&p.totalCreated, 1)
		return conn, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no directory servers available")
	}
	return nil, lastErr
}

func (p *connectionPool) createSingleConnection(ctx context.Context, server *ServerInfo) (*PooledConnection, error) {
	conn, err := p.dial(ctx, server)
	if err != nil {
		return nil, err
	}

	if err := p.authenticate(conn, server); err != nil {
		_ = conn.Close()
		return nil, err
	}

	now := time.Now()
	pooled := &PooledConnection{
		conn:          conn,
		server:        server,
		id:            uuid.NewString(),
		createdAt:     now,
		lastUsed:      now,
		authenticated: true,
		authTime:      now,
		healthy:       true,
	}
	p.log.Debug("connection established", map[string]any{
		"connection_id": pooled.id,
		"server":        server.Host,
		"port":          server.Port,
		"tls":           server.UseTLS,
	})
	return pooled, nil
}

// dial opens and secures a connection without binding. Plaintext
// endpoints are upgraded with StartTLS; the upgrade is mandatory.
func (p *connectionPool) dial(ctx context.Context, server *ServerInfo) (*ldap.Conn, error) {
	tlsConfig, err := buildTLSConfig(p.policy, server.Host)
	if err != nil {
		return nil, err
	}

	dialer := &net.Dialer{Timeout: p.config.ConnectTimeout}
	opts := []ldap.DialOpt{ldap.DialWithDialer(dialer)}
	if server.UseTLS {
		opts = append(opts, ldap.DialWithTLSConfig(tlsConfig))
	}

	conn, err := ldap.DialURL(ServerURL(server), opts...)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", server.Host, err)
	}

	if !server.UseTLS {
		if err := conn.StartTLS(tlsConfig); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("StartTLS with %s: %w", server.Host, err)
		}
	}

	conn.SetTimeout(p.config.RequestTimeout)

	if err := ctx.Err(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

// authenticate binds the connection with the pool's session credentials.
func (p *connectionPool) authenticate(conn *ldap.Conn, server *ServerInfo) error {
	return p.bindWith(conn, server, p.creds)
}

func (p *connectionPool) bindWith(conn *ldap.Conn, server *ServerInfo, creds sso.Credentials) error {
	switch p.config.AuthMethod {
	case AuthKerberos:
		return kerberosBind(conn, p.config, creds, server)
	default:
		return conn.Bind(creds.Username, creds.Password)
	}
}

// isUsable reports whether a pooled connection can be handed out.
func (p *connectionPool) isUsable(conn *PooledConnection) bool {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	return conn.healthy && !conn.conn.IsClosing()
}

// needsReAuthentication reports whether the connection's bind has aged
// out and must be refreshed before use.
func (p *connectionPool) needsReAuthentication(conn *PooledConnection) bool {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	return !conn.authenticated || time.Since(conn.authTime) > p.config.MaxConnectionAge
}

func (p *connectionPool) closeConnection(conn *PooledConnection) {
	if conn == nil || conn.conn == nil {
		return
	}
	_ = conn.conn.Close()
}

// healthChecker periodically inspects idle connections and drops the
// broken ones. At most three connections are checked per tick to bound
// the work done while requests wait.
func (p *connectionPool) healthChecker() {
	defer p.healthWg.Done()

	ticker := time.NewTicker(p.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.healthStop:
			return
		case <-ticker.C:
			p.checkIdleConnections()
		}
	}
}

func (p *connectionPool) checkIdleConnections() {
	for i := 0; i < 3; i++ {
		select {
		case conn := <-p.connections:
			if p.isHealthy(conn) {
				select {
				case p.connections <- conn:
				default:
					p.closeConnection(conn)
				}
			} else {
				p.log.Debug("dropping unhealthy connection", map[string]any{
					"connection_id": conn.id,
					"server":        conn.server.Host,
				})
				p.closeConnection(conn)
			}
		default:
			return
		}
	}
}

// isHealthy probes a connection with a root DSE read.
func (p *connectionPool) isHealthy(conn *PooledConnection) bool {
	conn.mu.Lock()
	closing := conn.conn.IsClosing()
	conn.mu.Unlock()
	if closing {
		return false
	}

	req := ldap.NewSearchRequest(
		"",
		ldap.ScopeBaseObject,
		ldap.NeverDerefAliases,
		1, 5, false,
		"(objectClass=*)",
		[]string{"supportedLDAPVersion"},
		nil,
	)
	_, err := conn.conn.Search(req)
	return err == nil
}
