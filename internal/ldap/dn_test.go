package ldap

import "testing"

func TestEscapeDNValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "alice", "alice"},
		{"comma", "Smith, John", `Smith\, John`},
		{"plus", "a+b", `a\+b`},
		{"quote", `say "hi"`, `say \"hi\"`},
		{"backslash", `a\b`, `a\\b`},
		{"angle brackets", "<tag>", `\<tag\>`},
		{"semicolon", "a;b", `a\;b`},
		{"equals", "a=b", `a\=b`},
		{"leading hash", "#comment", `\#comment`},
		{"interior hash", "a#b", "a#b"},
		{"leading space", " x", `\ x`},
		{"trailing space", "x ", `x\ `},
		{"interior space", "a b", "a b"},
		{"null byte", "a\x00b", `a\00b`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeDNValue(tt.input); got != tt.want {
				t.Errorf("EscapeDNValue(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestUnescapeDNValue(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`Smith\, John`, "Smith, John"},
		{`a\\b`, `a\b`},
		{`\#comment`, "#comment"},
		{`\ x`, " x"},
		{`x\ `, "x "},
		{`a\00b`, "a\x00b"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		if got := UnescapeDNValue(tt.input); got != tt.want {
			t.Errorf("UnescapeDNValue(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestEscapeDNValueRoundTrip(t *testing.T) {
	values := []string{
		"alice",
		"Smith, John",
		`back\slash`,
		"#lead",
		" padded ",
		"равенство=x",
	}
	for _, v := range values {
		if got := UnescapeDNValue(EscapeDNValue(v)); got != v {
			t.Errorf("round trip of %q produced %q", v, got)
		}
	}
}

func TestNeedsDNEscaping(t *testing.T) {
	if NeedsDNEscaping("alice") {
		t.Error("plain value flagged as needing escape")
	}
	if !NeedsDNEscaping("a,b") {
		t.Error("comma value not flagged")
	}
}

func TestDomainFromBaseDN(t *testing.T) {
	tests := []struct {
		baseDN string
		want   string
	}{
		{"dc=sso,dc=example,dc=com", "sso.example.com"},
		{"DC=EXAMPLE,DC=COM", "EXAMPLE.COM"},
		{"cn=alice,cn=Users,dc=example,dc=com", "example.com"},
		{"dc=single", "single"},
		{"o=example corp", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := domainFromBaseDN(tt.baseDN); got != tt.want {
			t.Errorf("domainFromBaseDN(%q) = %q, want %q", tt.baseDN, got, tt.want)
		}
	}
}

func TestDomainToBaseDN(t *testing.T) {
	tests := []struct {
		domain string
		want   string
	}{
		{"sso.example.com", "dc=sso,dc=example,dc=com"},
		{"single", "dc=single"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := domainToBaseDN(tt.domain); got != tt.want {
			t.Errorf("domainToBaseDN(%q) = %q, want %q", tt.domain, got, tt.want)
		}
	}
}
