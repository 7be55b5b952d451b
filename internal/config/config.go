// Package config resolves the ssoadm configuration from YAML files,
// SSOADM_* environment variables and built-in defaults. Values from a
// config file override the environment; defaults fill whatever remains.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"github.com/isometry/ssoadmin/internal/sso"
)

// Auth method names accepted by the transport.
const (
	AuthSimple   = "simple"
	AuthKerberos = "kerberos"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "5m".
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// TLSConfig is the certificate-validation part of the configuration.
type TLSConfig struct {
	// SkipVerify disables chain validation entirely.
	SkipVerify bool `yaml:"skip_verify"`
	// Thumbprint pins the server certificate by SHA-256 fingerprint.
	Thumbprint string `yaml:"thumbprint"`
	// CAFile names a PEM bundle of additional roots to trust.
	CAFile string `yaml:"ca_file"`
}

// Config carries everything ssoadm needs to open sessions: the default
// server and identity, TLS policy, auth method, and transport tuning.
// Passwords are never stored here; they arrive by flag, environment or
// prompt.
type Config struct {
	Server   string `yaml:"server"`
	Port     int    `yaml:"port" default:"636"`
	Username string `yaml:"username"`

	TLS TLSConfig `yaml:"tls"`

	Auth           string `yaml:"auth" default:"simple"`
	KerberosRealm  string `yaml:"kerberos_realm"`
	KerberosConfig string `yaml:"kerberos_config"`
	KerberosKeytab string `yaml:"kerberos_keytab"`
	KerberosCCache string `yaml:"kerberos_ccache"`

	PoolSize       int      `yaml:"pool_size" default:"5"`
	ConnectTimeout Duration `yaml:"connect_timeout"`
	RequestTimeout Duration `yaml:"request_timeout"`

	LogLevel  string `yaml:"log_level" default:"info"`
	LogFormat string `yaml:"log_format" default:"text"`
}

// DefaultPath returns the per-user config file, ~/.ssoadm/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ssoadm", "config.yaml")
}

// Load resolves the effective configuration. An empty path falls back to
// $SSOADM_CONFIG, then to the per-user config file when one exists; a
// missing explicit file is an error, a missing fallback file is not.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	applyEnv(cfg)

	explicit := path != ""
	if path == "" {
		path = os.Getenv("SSOADM_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case explicit || !os.IsNotExist(err):
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply config defaults: %w", err)
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = Duration(10 * time.Second)
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = Duration(30 * time.Second)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the transport would
// reject later anyway.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	switch c.Auth {
	case AuthSimple, AuthKerberos:
	default:
		return fmt.Errorf("unsupported auth method %q: use %s or %s", c.Auth, AuthSimple, AuthKerberos)
	}
	if c.PoolSize < 1 {
		return fmt.Errorf("pool size must be positive, got %d", c.PoolSize)
	}
	if err := validateThumbprint(c.TLS.Thumbprint); err != nil {
		return err
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q: use text or json", c.LogFormat)
	}
	return nil
}

// TLSPolicy builds the session TLS policy, reading the CA bundle when
// one is configured.
func (c *Config) TLSPolicy() (sso.TLSPolicy, error) {
	policy := sso.TLSPolicy{
		SkipVerify: c.TLS.SkipVerify,
		Thumbprint: c.TLS.Thumbprint,
	}
	if c.TLS.CAFile != "" {
		pem, err := os.ReadFile(c.TLS.CAFile)
		if err != nil {
			return sso.TLSPolicy{}, fmt.Errorf("read CA file: %w", err)
		}
		policy.CACertificates = []string{string(pem)}
	}
	return policy, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server, "SSOADM_SERVER")
	setInt(&cfg.Port, "SSOADM_PORT")
	setString(&cfg.Username, "SSOADM_USERNAME")
	setBool(&cfg.TLS.SkipVerify, "SSOADM_SKIP_VERIFY")
	setString(&cfg.TLS.Thumbprint, "SSOADM_THUMBPRINT")
	setString(&cfg.TLS.CAFile, "SSOADM_CA_FILE")
	setString(&cfg.Auth, "SSOADM_AUTH")
	setString(&cfg.KerberosRealm, "SSOADM_KERBEROS_REALM")
	setString(&cfg.KerberosConfig, "SSOADM_KERBEROS_CONFIG")
	setString(&cfg.KerberosKeytab, "SSOADM_KERBEROS_KEYTAB")
	setString(&cfg.KerberosCCache, "SSOADM_KERBEROS_CCACHE")
	setInt(&cfg.PoolSize, "SSOADM_POOL_SIZE")
	setDuration(&cfg.ConnectTimeout, "SSOADM_CONNECT_TIMEOUT")
	setDuration(&cfg.RequestTimeout, "SSOADM_REQUEST_TIMEOUT")
	setString(&cfg.LogLevel, "SSOADM_LOG_LEVEL")
	setString(&cfg.LogFormat, "SSOADM_LOG_FORMAT")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}

func validateThumbprint(thumbprint string) error {
	if thumbprint == "" {
		return nil
	}
	cleaned := strings.ToLower(thumbprint)
	cleaned = strings.ReplaceAll(cleaned, ":", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if len(cleaned) != 64 {
		return fmt.Errorf("thumbprint must be a SHA-256 fingerprint (64 hex digits), got %d", len(cleaned))
	}
	if _, err := hex.DecodeString(cleaned); err != nil {
		return fmt.Errorf("thumbprint is not valid hex: %w", err)
	}
	return nil
}
