package ldap

import (
	"fmt"

	"github.com/bwmarrin/go-objectsid"
	"github.com/go-ldap/ldap/v3"
)

// SIDBytesToString converts a binary objectSid to its S-1-5-21-...
// string form. The layout is validated first; objectsid.Decode assumes
// well-formed input.
func SIDBytesToString(b []byte) (string, error) {
	if err := validateSIDBytes(b); err != nil {
		return "", err
	}
	sid := objectsid.Decode(b)
	return sid.String(), nil
}

// validateSIDBytes checks the binary SID layout: revision byte,
// sub-authority count, 6-byte authority, then 4 bytes per sub-authority.
func validateSIDBytes(b []byte) error {
	if len(b) < 8 {
		return fmt.Errorf("binary SID too short: %d bytes", len(b))
	}
	if b[0] != 1 {
		return fmt.Errorf("unsupported SID revision %d", b[0])
	}
	subAuthorities := int(b[1])
	if want := 8 + subAuthorities*4; len(b) != want {
		return fmt.Errorf("binary SID length %d does not match %d sub-authorities", len(b), subAuthorities)
	}
	return nil
}

// ValidateSIDString checks the basic shape of a SID string.
func ValidateSIDString(s string) error {
	if len(s) < 5 || s[:2] != "S-" {
		return fmt.Errorf("invalid SID format: %q", s)
	}
	return nil
}

// ExtractSID reads the objectSid attribute of an entry, returning ""
// when the attribute is absent or malformed. A string-valued attribute
// is accepted when it already looks like a SID, which keeps entry
// fixtures simple.
func ExtractSID(entry *ldap.Entry) string {
	if entry == nil {
		return ""
	}

	raw := entry.GetRawAttributeValue("objectSid")
	if len(raw) == 0 {
		return ""
	}

	if s, err := SIDBytesToString(raw); err == nil {
		return s
	}
	if s := entry.GetAttributeValue("objectSid"); ValidateSIDString(s) == nil {
		return s
	}
	return ""
}
