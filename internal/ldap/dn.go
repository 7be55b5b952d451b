package ldap

import (
	"strings"
)

// EscapeDNValue escapes a value for use in a distinguished name per
// RFC 4514. Filter values use ldap.EscapeFilter instead.
func EscapeDNValue(value string) string {
	if value == "" {
		return value
	}

	var b strings.Builder
	b.Grow(len(value))

	runes := []rune(value)
	for i, r := range runes {
		switch r {
		case ',', '+', '"', '\\', '<', '>', ';', '=':
			b.WriteRune('\\')
			b.WriteRune(r)
		case '#':
			// Only special at the start of a value.
			if i == 0 {
				b.WriteRune('\\')
			}
			b.WriteRune(r)
		case ' ':
			// Only special at the start or end of a value.
			if i == 0 || i == len(runes)-1 {
				b.WriteRune('\\')
			}
			b.WriteRune(r)
		case '\x00':
			b.WriteString(`\00`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// UnescapeDNValue reverses EscapeDNValue.
func UnescapeDNValue(value string) string {
	if !strings.Contains(value, `\`) {
		return value
	}

	var b strings.Builder
	b.Grow(len(value))

	runes := []rune(value)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '\\' || i == len(runes)-1 {
			b.WriteRune(runes[i])
			continue
		}
		next := runes[i+1]
		if next == '0' && i+2 < len(runes) && runes[i+2] == '0' {
			b.WriteRune('\x00')
			i += 2
			continue
		}
		b.WriteRune(next)
		i++
	}
	return b.String()
}

// NeedsDNEscaping reports whether a value contains characters that are
// special in a distinguished name.
func NeedsDNEscaping(value string) bool {
	return value != EscapeDNValue(value)
}

// domainFromBaseDN derives a DNS domain name from the DC components of
// a base DN: "DC=sso,DC=example,DC=com" becomes "sso.example.com".
func domainFromBaseDN(baseDN string) string {
	var labels []string
	for _, part := range strings.Split(baseDN, ",") {
		part = strings.TrimSpace(part)
		if len(part) > 3 && strings.EqualFold(part[:3], "dc=") {
			labels = append(labels, part[3:])
		}
	}
	return strings.Join(labels, ".")
}

// domainToBaseDN renders a DNS domain name as DC components:
// "sso.example.com" becomes "dc=sso,dc=example,dc=com".
func domainToBaseDN(domain string) string {
	labels := strings.Split(domain, ".")
	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		if label == "" {
			continue
		}
		parts = append(parts, "dc="+EscapeDNValue(label))
	}
	return strings.Join(parts, ",")
}
