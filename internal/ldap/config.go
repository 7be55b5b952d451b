package ldap

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
)

// Connection pool limits.
const (
	// MaxPoolSize is the maximum allowed connections in a pool. The limit
	// stays well below typical directory server connection ceilings while
	// leaving room for concurrent fan-out across sessions.
	MaxPoolSize = 100
)

// AuthMethod selects how sessions authenticate to the directory.
type AuthMethod string

const (
	AuthSimple   AuthMethod = "simple"   // username/password bind
	AuthKerberos AuthMethod = "kerberos" // GSSAPI bind via gokrb5
)

// String returns the string representation of the auth method.
func (m AuthMethod) String() string {
	return string(m)
}

// Config carries the transport settings shared by every session the
// transport opens. Per-session identity and TLS policy arrive with each
// Open call.
type Config struct {
	// URLs lists explicit directory endpoints (ldap:// or ldaps://).
	// When empty, endpoints are discovered via DNS SRV records for the
	// host passed to Open, falling back to a direct connection.
	URLs []string `yaml:"urls"`

	// Port is used when building a direct endpoint from a bare hostname.
	Port   int  `yaml:"port" default:"636"`
	UseTLS bool `yaml:"use_tls" default:"true"`

	AuthMethod AuthMethod `yaml:"auth_method" default:"simple"`

	// Kerberos settings, consulted when AuthMethod is AuthKerberos.
	KerberosRealm  string `yaml:"kerberos_realm"`
	KerberosConfig string `yaml:"kerberos_config" default:"/etc/krb5.conf"`
	KerberosKeytab string `yaml:"kerberos_keytab"`
	KerberosCCache string `yaml:"kerberos_ccache"`
	KerberosSPN    string `yaml:"kerberos_spn"`

	ConnectTimeout time.Duration `yaml:"connect_timeout" default:"10s"`
	RequestTimeout time.Duration `yaml:"request_timeout" default:"30s"`

	PoolSize            int           `yaml:"pool_size" default:"5"`
	MaxConnectionAge    time.Duration `yaml:"max_connection_age" default:"5m"`
	HealthCheckInterval time.Duration `yaml:"health_check_interval" default:"30s"`

	MaxRetries int           `yaml:"max_retries" default:"3"`
	RetryDelay time.Duration `yaml:"retry_delay" default:"1s"`

	// PageSize bounds paged searches for full listings.
	PageSize int `yaml:"page_size" default:"1000"`
}

// DefaultConfig returns a Config with production defaults applied.
func DefaultConfig() Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		panic(fmt.Sprintf("ldap: applying config defaults: %v", err))
	}
	return cfg
}

// withDefaults fills unset fields from the default tags and validates
// the result.
func (c Config) withDefaults() (Config, error) {
	if err := defaults.Set(&c); err != nil {
		return c, fmt.Errorf("applying config defaults: %w", err)
	}
	if err := c.validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	switch c.AuthMethod {
	case AuthSimple, AuthKerberos:
	default:
		return fmt.Errorf("unsupported auth method %q", c.AuthMethod)
	}
	if c.PoolSize < 1 || c.PoolSize > MaxPoolSize {
		return fmt.Errorf("pool size must be between 1 and %d, got %d", MaxPoolSize, c.PoolSize)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative, got %d", c.MaxRetries)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}
	for _, raw := range c.URLs {
		if _, err := ParseURL(raw); err != nil {
			return err
		}
	}
	return nil
}
