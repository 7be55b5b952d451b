package ldap

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/go-ldap/ldap/v3"

	"github.com/isometry/ssoadmin/internal/sso"
)

// wrapError classifies a directory failure into the uniform error
// taxonomy. Errors already classified anywhere in the chain pass through
// untouched; LDAP result codes map directly; everything else falls back
// to typed and message checks.
func wrapError(operation, server string, err error) error {
	if err == nil {
		return nil
	}
	var classified *sso.Error
	if errors.As(err, &classified) {
		return err
	}
	return &sso.Error{
		Operation: operation,
		Kind:      classifyError(err),
		Server:    server,
		Message:   sso.RootCause(err).Error(),
		Cause:     err,
	}
}

// classifyError maps a raw transport error to a taxonomy kind.
func classifyError(err error) sso.ErrorKind {
	var ldapErr *ldap.Error
	if errors.As(err, &ldapErr) {
		return kindForResultCode(ldapErr.ResultCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return sso.ErrorKindConnectivity
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return sso.ErrorKindConnectivity
	}

	return kindForMessage(err.Error())
}

// kindForResultCode maps LDAP result codes to taxonomy kinds.
func kindForResultCode(code uint16) sso.ErrorKind {
	switch code {
	case ldap.LDAPResultInvalidCredentials,
		ldap.LDAPResultInappropriateAuthentication,
		ldap.LDAPResultAuthMethodNotSupported,
		ldap.LDAPResultStrongAuthRequired:
		return sso.ErrorKindAuthentication

	case ldap.LDAPResultNoSuchObject,
		ldap.LDAPResultNoSuchAttribute:
		return sso.ErrorKindNotFound

	case ldap.LDAPResultConstraintViolation,
		ldap.LDAPResultInvalidAttributeSyntax,
		ldap.LDAPResultInvalidDNSyntax,
		ldap.LDAPResultNamingViolation,
		ldap.LDAPResultUndefinedAttributeType:
		return sso.ErrorKindValidation

	case ldap.LDAPResultBusy,
		ldap.LDAPResultUnavailable,
		ldap.LDAPResultConnectError,
		ldap.ErrorNetwork:
		return sso.ErrorKindConnectivity

	default:
		// entryAlreadyExists, attributeOrValueExists, access and
		// object-class violations are all server-side rejections of
		// the business operation.
		return sso.ErrorKindRemoteOperation
	}
}

// kindForMessage categorizes by message content when no typed
// information is available.
func kindForMessage(msg string) sso.ErrorKind {
	msg = strings.ToLower(msg)

	switch {
	case strings.Contains(msg, "invalid credentials"),
		strings.Contains(msg, "authentication"),
		strings.Contains(msg, "bind failed"):
		return sso.ErrorKindAuthentication

	case strings.Contains(msg, "no such object"),
		strings.Contains(msg, "not found"),
		strings.Contains(msg, "does not exist"):
		return sso.ErrorKindNotFound

	case strings.Contains(msg, "connection"),
		strings.Contains(msg, "network"),
		strings.Contains(msg, "unreachable"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "certificate"),
		strings.Contains(msg, "tls"):
		return sso.ErrorKindConnectivity

	default:
		return sso.ErrorKindRemoteOperation
	}
}

// isRetryableError reports whether a transport fault is worth retrying.
// Authentication failures, missing entries, and input rejections never
// are; transient network and server-availability faults are.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var ldapErr *ldap.Error
	if errors.As(err, &ldapErr) {
		switch ldapErr.ResultCode {
		case ldap.LDAPResultBusy,
			ldap.LDAPResultUnavailable,
			ldap.LDAPResultConnectError,
			ldap.ErrorNetwork:
			return true
		default:
			return false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout() || !errors.Is(err, context.Canceled)
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "timeout")
}
