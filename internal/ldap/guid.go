package ldap

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// Directory servers store objectGUID in a mixed-endian layout: the
// first three groups are little-endian, the final eight bytes are
// big-endian.

const guidBytesLength = 16

var (
	hyphenatedGUIDRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	compactGUIDRegex    = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)
)

// IsValidGUID reports whether a string is a hyphenated or compact GUID.
func IsValidGUID(guid string) bool {
	return hyphenatedGUIDRegex.MatchString(guid) || compactGUIDRegex.MatchString(guid)
}

// NormalizeGUID converts a GUID string to lowercase hyphenated form.
func NormalizeGUID(guid string) (string, error) {
	guid = strings.TrimSpace(guid)
	switch {
	case hyphenatedGUIDRegex.MatchString(guid):
		return strings.ToLower(guid), nil
	case compactGUIDRegex.MatchString(guid):
		guid = strings.ToLower(guid)
		return fmt.Sprintf("%s-%s-%s-%s-%s",
			guid[0:8], guid[8:12], guid[12:16], guid[16:20], guid[20:32]), nil
	default:
		return "", fmt.Errorf("invalid GUID format: %s", guid)
	}
}

// GUIDBytesToString converts a 16-byte directory GUID to its hyphenated
// string form, undoing the mixed-endian layout.
func GUIDBytesToString(b []byte) (string, error) {
	if len(b) != guidBytesLength {
		return "", fmt.Errorf("GUID must be %d bytes, got %d", guidBytesLength, len(b))
	}

	reordered := []byte{
		b[3], b[2], b[1], b[0],
		b[5], b[4],
		b[7], b[6],
		b[8], b[9], b[10], b[11], b[12], b[13], b[14], b[15],
	}
	h := hex.EncodeToString(reordered)
	return fmt.Sprintf("%s-%s-%s-%s-%s", h[0:8], h[8:12], h[12:16], h[16:20], h[20:32]), nil
}

// StringToGUIDBytes converts a GUID string to the directory's 16-byte
// mixed-endian form.
func StringToGUIDBytes(guid string) ([]byte, error) {
	normalized, err := NormalizeGUID(guid)
	if err != nil {
		return nil, err
	}

	raw, err := hex.DecodeString(strings.ReplaceAll(normalized, "-", ""))
	if err != nil {
		return nil, fmt.Errorf("decoding GUID hex: %w", err)
	}

	return []byte{
		raw[3], raw[2], raw[1], raw[0],
		raw[5], raw[4],
		raw[7], raw[6],
		raw[8], raw[9], raw[10], raw[11], raw[12], raw[13], raw[14], raw[15],
	}, nil
}

// ExtractGUID reads the objectGUID attribute of an entry, returning ""
// when the attribute is absent or malformed. A string-valued attribute
// is accepted as-is when it already looks like a GUID, which keeps
// entry fixtures simple.
func ExtractGUID(entry *ldap.Entry) string {
	if entry == nil {
		return ""
	}

	raw := entry.GetRawAttributeValue("objectGUID")
	if len(raw) == guidBytesLength {
		if guid, err := GUIDBytesToString(raw); err == nil {
			return guid
		}
		return ""
	}

	if s := entry.GetAttributeValue("objectGUID"); IsValidGUID(s) {
		normalized, _ := NormalizeGUID(s)
		return normalized
	}
	return ""
}
