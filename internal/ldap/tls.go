package ldap

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/isometry/ssoadmin/internal/sso"
)

// buildTLSConfig turns a session TLS policy into a *tls.Config for the
// given server name. Thumbprint pinning replaces chain validation: the
// handshake is accepted only when the presented leaf certificate matches
// the pinned SHA-256 fingerprint.
func buildTLSConfig(policy sso.TLSPolicy, serverName string) (*tls.Config, error) {
	cfg := &tls.Config{
		ServerName: serverName,
		MinVersion: tls.VersionTLS12,
	}

	if len(policy.CACertificates) > 0 {
		pool, err := x509.SystemCertPool()
		if err != nil {
			pool = x509.NewCertPool()
		}
		for i, pem := range policy.CACertificates {
			if !pool.AppendCertsFromPEM([]byte(pem)) {
				return nil, fmt.Errorf("CA certificate %d is not valid PEM", i)
			}
		}
		cfg.RootCAs = pool
	}

	if policy.SkipVerify {
		cfg.InsecureSkipVerify = true
	}

	if policy.Thumbprint != "" {
		pinned, err := normalizeThumbprint(policy.Thumbprint)
		if err != nil {
			return nil, err
		}
		// Chain validation is bypassed so the pin alone decides; the
		// callback rejects any leaf that does not match.
		cfg.InsecureSkipVerify = true
		cfg.VerifyPeerCertificate = func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
			if len(rawCerts) == 0 {
				return fmt.Errorf("server presented no certificate")
			}
			sum := sha256.Sum256(rawCerts[0])
			presented := hex.EncodeToString(sum[:])
			if presented != pinned {
				return fmt.Errorf("certificate thumbprint mismatch: got %s", presented)
			}
			return nil
		}
	}

	return cfg, nil
}

// normalizeThumbprint canonicalizes a SHA-256 fingerprint to lowercase
// hex without separators.
func normalizeThumbprint(thumbprint string) (string, error) {
	cleaned := strings.ToLower(thumbprint)
	cleaned = strings.ReplaceAll(cleaned, ":", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")

	if len(cleaned) != sha256.Size*2 {
		return "", fmt.Errorf("thumbprint must be a SHA-256 fingerprint (%d hex digits), got %d", sha256.Size*2, len(cleaned))
	}
	if _, err := hex.DecodeString(cleaned); err != nil {
		return "", fmt.Errorf("thumbprint is not valid hex: %w", err)
	}
	return cleaned, nil
}
