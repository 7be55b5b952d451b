// Package cli implements the ssoadm command tree and interactive console.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/isometry/ssoadmin/internal/config"
	"github.com/isometry/ssoadmin/internal/ldap"
	"github.com/isometry/ssoadmin/internal/logging"
	"github.com/isometry/ssoadmin/internal/sso"
)

// App carries the state shared by every command invocation: the session
// registry, the resolved configuration and the I/O streams. In console
// mode one App lives across all entered lines, so sessions opened by
// connect stay available to later commands.
type App struct {
	registry *sso.Registry
	cfg      *config.Config
	log      logging.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	jsonOut bool
	target  string
	console bool
}

func newApp() *App {
	return &App{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// init resolves the configuration and builds the transport and registry.
// Repeated calls are no-ops, so commands dispatched from the console keep
// the sessions opened earlier.
func (a *App) init(configPath, logLevel, logFormat string) error {
	if a.registry != nil {
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.New(a.stderr, cfg.LogFormat, cfg.LogLevel)
	transport, err := ldap.NewTransport(transportConfig(cfg), log)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	a.registry = sso.NewRegistry(transport, sso.WithLogger(log))
	return nil
}

func transportConfig(cfg *config.Config) ldap.Config {
	return ldap.Config{
		Port:           cfg.Port,
		AuthMethod:     ldap.AuthMethod(cfg.Auth),
		KerberosRealm:  cfg.KerberosRealm,
		KerberosConfig: cfg.KerberosConfig,
		KerberosKeytab: cfg.KerberosKeytab,
		KerberosCCache: cfg.KerberosCCache,
		PoolSize:       cfg.PoolSize,
		ConnectTimeout: cfg.ConnectTimeout.Std(),
		RequestTimeout: cfg.RequestTimeout.Std(),
	}
}

// connections returns the sessions a management command addresses: every
// active session, or the subset selected by --on.
func (a *App) connections() ([]*sso.Connection, error) {
	conns := a.registry.Active()
	if len(conns) == 0 {
		return nil, errors.New("no active sessions: run connect first")
	}
	if a.target == "" {
		return conns, nil
	}
	var matched []*sso.Connection
	for _, conn := range conns {
		if connMatches(conn, a.target) {
			matched = append(matched, conn)
		}
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("no active session matches %q", a.target)
	}
	return matched, nil
}

// connMatches reports whether spec selects conn. Accepted forms: host,
// host:port and user@host. An empty spec selects everything.
func connMatches(conn *sso.Connection, spec string) bool {
	spec = strings.ToLower(strings.TrimSpace(spec))
	if spec == "" {
		return true
	}
	hostPort := net.JoinHostPort(conn.Host(), strconv.Itoa(conn.Port()))
	return spec == conn.Host() || spec == hostPort || spec == strings.ToLower(conn.String())
}

// closeAll drains every session the console holds, unwinding refcounts
// until the underlying transports close.
func (a *App) closeAll(ctx context.Context) {
	if a.registry == nil {
		return
	}
	for _, conn := range a.registry.Active() {
		for {
			if err := a.registry.Disconnect(ctx, conn); err != nil {
				fmt.Fprintf(a.stderr, "%s: %v\n", conn, err)
				break
			}
			if a.registry.RefCount(conn) == 0 {
				break
			}
		}
	}
}
