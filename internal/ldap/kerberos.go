package ldap

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/go-ldap/ldap/v3/gssapi"
	krb5client "github.com/jcmturner/gokrb5/v8/client"

	"github.com/isometry/ssoadmin/internal/sso"
)

// kerberosBind performs a GSSAPI bind on an open connection. Credential
// material is resolved in precedence order: explicit credential cache,
// default credential cache, explicit keytab, default keytab, password.
func kerberosBind(conn *ldap.Conn, cfg Config, creds sso.Credentials, server *ServerInfo) error {
	gssapiClient, err := newGSSAPIClient(cfg, creds)
	if err != nil {
		return fmt.Errorf("creating GSSAPI client: %w", err)
	}
	defer func() {
		_ = gssapiClient.DeleteSecContext()
	}()

	spn, err := buildServicePrincipal(cfg, server)
	if err != nil {
		return fmt.Errorf("building service principal: %w", err)
	}

	if err := conn.GSSAPIBind(gssapiClient, spn, ""); err != nil {
		return fmt.Errorf("GSSAPI bind failed: %w", err)
	}
	return nil
}

// newGSSAPIClient creates a GSSAPI client from the first usable
// credential source.
func newGSSAPIClient(cfg Config, creds sso.Credentials) (ldap.GSSAPIClient, error) {
	krb5conf := cfg.KerberosConfig
	if krb5conf == "" {
		krb5conf = "/etc/krb5.conf"
	}
	if !fileExists(krb5conf) {
		return nil, fmt.Errorf("kerberos configuration file not found at %s", krb5conf)
	}

	if cfg.KerberosCCache != "" && fileExists(cfg.KerberosCCache) {
		return gssapi.NewClientFromCCache(cfg.KerberosCCache, krb5conf, krb5client.DisablePAFXFAST(true))
	}
	if defaultCCache := defaultCCachePath(); fileExists(defaultCCache) {
		return gssapi.NewClientFromCCache(defaultCCache, krb5conf, krb5client.DisablePAFXFAST(true))
	}

	principal, realm, err := principalAndRealm(cfg, creds.Username)
	if err != nil {
		return nil, err
	}

	if cfg.KerberosKeytab != "" && fileExists(cfg.KerberosKeytab) {
		return gssapi.NewClientWithKeytab(principal, realm, cfg.KerberosKeytab, krb5conf, krb5client.DisablePAFXFAST(true))
	}
	if principal != "" {
		if defaultKeytab := defaultKeytabPath(); fileExists(defaultKeytab) {
			return gssapi.NewClientWithKeytab(principal, realm, defaultKeytab, krb5conf, krb5client.DisablePAFXFAST(true))
		}
	}

	if principal != "" && creds.Password != "" {
		return gssapi.NewClientWithPassword(principal, realm, creds.Password, krb5conf, krb5client.DisablePAFXFAST(true))
	}

	return nil, fmt.Errorf("no usable Kerberos credentials: provide a credential cache, keytab, or password")
}

// buildServicePrincipal constructs the LDAP service principal name for a
// server. An explicit SPN in the configuration overrides construction.
func buildServicePrincipal(cfg Config, server *ServerInfo) (string, error) {
	if cfg.KerberosSPN != "" {
		return cfg.KerberosSPN, nil
	}
	if server == nil || server.Host == "" {
		return "", fmt.Errorf("server host is required for service principal")
	}

	host := server.Host
	if colon := strings.Index(host, ":"); colon != -1 {
		host = host[:colon]
	}
	return "ldap/" + host, nil
}

// principalAndRealm splits a bind identity into Kerberos principal and
// realm. A user@REALM identity supplies both; otherwise the realm must
// come from the configuration.
func principalAndRealm(cfg Config, username string) (string, string, error) {
	principal := username
	realm := cfg.KerberosRealm

	if at := strings.LastIndex(username, "@"); at != -1 {
		principal = username[:at]
		if realm == "" {
			realm = strings.ToUpper(username[at+1:])
		}
	}

	if principal != "" && realm == "" {
		return "", "", fmt.Errorf("kerberos realm is required: set it explicitly or use a user@REALM identity")
	}
	return principal, realm, nil
}

// defaultCCachePath resolves the credential cache location the way the
// MIT tools do: KRB5CCNAME first, then the per-uid file in /tmp.
func defaultCCachePath() string {
	if env := os.Getenv("KRB5CCNAME"); env != "" {
		return strings.TrimPrefix(env, "FILE:")
	}
	return fmt.Sprintf("/tmp/krb5cc_%d", os.Getuid())
}

func defaultKeytabPath() string {
	if env := os.Getenv("KRB5_KTNAME"); env != "" {
		return strings.TrimPrefix(env, "FILE:")
	}
	return "/etc/krb5.keytab"
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
