package sso

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

// ErrorKind classifies a failed operation into the stable taxonomy callers
// are expected to match on. Every error surfaced by this package carries
// exactly one kind.
type ErrorKind string

const (
	ErrorKindAuthentication  ErrorKind = "authentication"   // credentials rejected
	ErrorKindConnectivity    ErrorKind = "connectivity"     // host unreachable or certificate rejected
	ErrorKindNotConnected    ErrorKind = "not_connected"    // operation on a disconnected handle
	ErrorKindNotFound        ErrorKind = "not_found"        // referenced principal/policy/source absent
	ErrorKindValidation      ErrorKind = "validation"       // malformed or conflicting input
	ErrorKindRemoteOperation ErrorKind = "remote_operation" // server rejected the business operation
)

// Error is the uniform error surfaced by registry and client operations.
type Error struct {
	Operation string    // The operation that failed
	Kind      ErrorKind // Taxonomy kind
	Server    string    // Target server, when known
	Message   string    // Human-readable message, innermost cause first
	Cause     error     // Underlying error chain
}

func (e *Error) Error() string {
	var parts []string

	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("%s failed (%s)", e.Operation, e.Kind))
	} else {
		parts = append(parts, string(e.Kind))
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	if e.Server != "" {
		parts = append(parts, fmt.Sprintf("server: %s", e.Server))
	}

	return strings.Join(parts, " - ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a classified error. cause may be nil.
func NewError(operation string, kind ErrorKind, message string, cause error) *Error {
	return &Error{
		Operation: operation,
		Kind:      kind,
		Message:   message,
		Cause:     cause,
	}
}

// Errorf creates a classified error with a formatted message and no cause.
func Errorf(operation string, kind ErrorKind, format string, args ...any) *Error {
	return &Error{
		Operation: operation,
		Kind:      kind,
		Message:   fmt.Sprintf(format, args...),
	}
}

// RootCause unwraps err to its innermost cause.
func RootCause(err error) error {
	for err != nil {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
	return nil
}

// Normalize translates an arbitrary error into the taxonomy. A classified
// error anywhere in the chain keeps its kind; anything else is classified
// from its innermost cause. The returned error always unwraps to err.
func Normalize(operation, server string, err error) error {
	if err == nil {
		return nil
	}

	var clsErr *Error
	if errors.As(err, &clsErr) {
		if clsErr == err && clsErr.Operation != "" {
			return clsErr
		}
		return &Error{
			Operation: firstNonEmpty(clsErr.Operation, operation),
			Kind:      clsErr.Kind,
			Server:    firstNonEmpty(clsErr.Server, server),
			Message:   clsErr.Message,
			Cause:     err,
		}
	}

	root := RootCause(err)
	return &Error{
		Operation: operation,
		Kind:      classifyCause(err, root),
		Server:    server,
		Message:   root.Error(),
		Cause:     err,
	}
}

// classifyCause maps an unclassified error chain to a taxonomy kind.
// Typed checks run against the whole chain; the message fallback uses the
// innermost cause only.
func classifyCause(chain, root error) ErrorKind {
	var certVerifyErr *tls.CertificateVerificationError
	var unknownAuthErr x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var certInvalidErr x509.CertificateInvalidError
	if errors.As(chain, &certVerifyErr) ||
		errors.As(chain, &unknownAuthErr) ||
		errors.As(chain, &hostnameErr) ||
		errors.As(chain, &certInvalidErr) {
		return ErrorKindConnectivity
	}

	var netErr net.Error
	if errors.As(chain, &netErr) {
		return ErrorKindConnectivity
	}

	if errors.Is(chain, context.DeadlineExceeded) ||
		errors.Is(chain, context.Canceled) ||
		errors.Is(chain, io.EOF) ||
		errors.Is(chain, io.ErrUnexpectedEOF) {
		return ErrorKindConnectivity
	}

	return classifyByMessage(root)
}

// classifyByMessage categorizes an error by message content when no typed
// information is available.
func classifyByMessage(err error) ErrorKind {
	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "unreachable") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "certificate") {
		return ErrorKindConnectivity
	}

	if strings.Contains(errStr, "authentication") ||
		strings.Contains(errStr, "credentials") ||
		strings.Contains(errStr, "password") {
		return ErrorKindAuthentication
	}

	if strings.Contains(errStr, "not found") ||
		strings.Contains(errStr, "no such") ||
		strings.Contains(errStr, "does not exist") {
		return ErrorKindNotFound
	}

	return ErrorKindRemoteOperation
}

// KindOf returns the taxonomy kind of an error, or "" for nil and
// unclassified errors.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var clsErr *Error
	if errors.As(err, &clsErr) {
		return clsErr.Kind
	}
	return ""
}

// IsAuthenticationError checks if an error indicates rejected credentials.
func IsAuthenticationError(err error) bool {
	return KindOf(err) == ErrorKindAuthentication
}

// IsConnectivityError checks if an error indicates an unreachable host or
// failed certificate validation.
func IsConnectivityError(err error) bool {
	return KindOf(err) == ErrorKindConnectivity
}

// IsNotConnectedError checks if an error indicates an operation against a
// disconnected handle.
func IsNotConnectedError(err error) bool {
	return KindOf(err) == ErrorKindNotConnected
}

// IsNotFoundError checks if an error indicates a missing principal, policy
// or identity source.
func IsNotFoundError(err error) bool {
	return KindOf(err) == ErrorKindNotFound
}

// IsValidationError checks if an error indicates malformed input.
func IsValidationError(err error) bool {
	return KindOf(err) == ErrorKindValidation
}

// IsRemoteOperationError checks if an error indicates the server rejected
// the business operation.
func IsRemoteOperationError(err error) bool {
	return KindOf(err) == ErrorKindRemoteOperation
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
