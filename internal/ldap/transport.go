package ldap

import (
	"context"
	"net"
	"strconv"

	"github.com/isometry/ssoadmin/internal/logging"
	"github.com/isometry/ssoadmin/internal/sso"
)

// Transport opens administrative directory sessions over LDAP. It
// implements sso.Transport; one Transport serves any number of hosts.
type Transport struct {
	config Config
	log    logging.Logger
}

// NewTransport creates a transport. Unset config fields are filled from
// defaults; the config is validated once here so Open never works from
// a bad one.
func NewTransport(cfg Config, log logging.Logger) (*Transport, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	return &Transport{
		config: cfg,
		log:    logging.OrNop(log),
	}, nil
}

// Open dials host (optionally carrying a ":port" suffix), authenticates
// creds under the TLS policy, and resolves the server's naming context.
// The returned session owns a connection pool and stays usable until
// Close.
func (t *Transport) Open(ctx context.Context, host string, creds sso.Credentials, policy sso.TLSPolicy) (sso.Session, error) {
	host, port := splitEndpoint(host, t.config.Port)
	log := t.log.With(map[string]any{"server": host})

	pool, err := newConnectionPool(ctx, t.config, host, port, creds, policy, log)
	if err != nil {
		return nil, wrapError("connect", host, err)
	}

	dir := newDirectoryClient(pool, t.config, log)

	baseDN, err := dir.BaseDN(ctx)
	if err != nil {
		_ = dir.Close()
		return nil, wrapError("connect", host, err)
	}

	domain := domainFromBaseDN(baseDN)
	if domain == "" {
		// Directories without DC naming fall back to the dialed host.
		domain = host
	}

	log.Debug("session established", map[string]any{
		"base_dn": baseDN,
		"domain":  domain,
	})

	return &directorySession{
		dir:    dir,
		host:   host,
		baseDN: baseDN,
		domain: domain,
		log:    log,
	}, nil
}

// splitEndpoint separates an optional ":port" suffix from a dial target,
// falling back to the configured port for bare hosts.
func splitEndpoint(endpoint string, defaultPort int) (string, int) {
	h, p, err := net.SplitHostPort(endpoint)
	if err != nil {
		return endpoint, defaultPort
	}
	if port, err := strconv.Atoi(p); err == nil && port >= 1 && port <= 65535 {
		return h, port
	}
	return endpoint, defaultPort
}
