package ldap

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/isometry/ssoadmin/internal/sso"
)

func TestBuildTLSConfigDefaults(t *testing.T) {
	cfg, err := buildTLSConfig(sso.TLSPolicy{}, "dc1.example.com")
	if err != nil {
		t.Fatalf("buildTLSConfig: %v", err)
	}
	if cfg.ServerName != "dc1.example.com" {
		t.Errorf("ServerName = %q", cfg.ServerName)
	}
	if cfg.InsecureSkipVerify {
		t.Error("InsecureSkipVerify set without a policy asking for it")
	}
	if cfg.VerifyPeerCertificate != nil {
		t.Error("VerifyPeerCertificate set without a thumbprint")
	}
	if cfg.RootCAs != nil {
		t.Error("RootCAs set without CA certificates")
	}
}

func TestBuildTLSConfigSkipVerify(t *testing.T) {
	cfg, err := buildTLSConfig(sso.TLSPolicy{SkipVerify: true}, "dc1.example.com")
	if err != nil {
		t.Fatalf("buildTLSConfig: %v", err)
	}
	if !cfg.InsecureSkipVerify {
		t.Error("InsecureSkipVerify not set")
	}
}

func TestBuildTLSConfigRejectsBadCA(t *testing.T) {
	policy := sso.TLSPolicy{CACertificates: []string{"not a certificate"}}
	if _, err := buildTLSConfig(policy, "dc1.example.com"); err == nil {
		t.Error("expected error for malformed CA PEM")
	}
}

func TestBuildTLSConfigThumbprintPinning(t *testing.T) {
	leaf := []byte("fake DER certificate bytes")
	sum := sha256.Sum256(leaf)
	pin := hex.EncodeToString(sum[:])

	cfg, err := buildTLSConfig(sso.TLSPolicy{Thumbprint: strings.ToUpper(pin)}, "dc1.example.com")
	if err != nil {
		t.Fatalf("buildTLSConfig: %v", err)
	}
	if !cfg.InsecureSkipVerify {
		t.Error("pinning must bypass chain validation")
	}
	if cfg.VerifyPeerCertificate == nil {
		t.Fatal("VerifyPeerCertificate not set")
	}

	if err := cfg.VerifyPeerCertificate([][]byte{leaf}, nil); err != nil {
		t.Errorf("matching leaf rejected: %v", err)
	}
	if err := cfg.VerifyPeerCertificate([][]byte{[]byte("some other certificate")}, nil); err == nil {
		t.Error("mismatched leaf accepted")
	}
	if err := cfg.VerifyPeerCertificate(nil, nil); err == nil {
		t.Error("empty chain accepted")
	}
}

func TestBuildTLSConfigRejectsBadThumbprint(t *testing.T) {
	if _, err := buildTLSConfig(sso.TLSPolicy{Thumbprint: "abc123"}, "dc1.example.com"); err == nil {
		t.Error("expected error for short thumbprint")
	}
}

func TestNormalizeThumbprint(t *testing.T) {
	valid := strings.Repeat("ab", 32)

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"already canonical", valid, valid, false},
		{"uppercase", strings.ToUpper(valid), valid, false},
		{"colon separated", strings.TrimSuffix(strings.Repeat("AB:", 32), ":"), valid, false},
		{"space separated", strings.TrimSpace(strings.Repeat("ab ", 32)), valid, false},
		{"too short", "abcdef", "", true},
		{"too long", valid + "ab", "", true},
		{"not hex", strings.Repeat("zz", 32), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeThumbprint(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("normalizeThumbprint(%q) succeeded, want error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalizeThumbprint(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("normalizeThumbprint(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
