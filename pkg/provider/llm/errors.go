package llm

import "fmt"

// ErrorKind classifies backend failures.
type ErrorKind string

const (
	// KindTransport covers network failures, non-2xx HTTP statuses, and
	// authentication rejections: anything that prevented a usable response
	// from arriving.
	KindTransport ErrorKind = "transport"

	// KindProtocol covers responses that arrived but did not have the
	// expected shape (missing text field, empty choices, invalid JSON).
	KindProtocol ErrorKind = "protocol"
)

// Error is the typed failure returned by every [Backend]. Backend is the
// variant name ("openai", "ollama"), Kind classifies the failure, and Cause
// is the underlying error.
type Error struct {
	Backend string
	Kind    ErrorKind
	Cause   error
}

// Error renders a human-readable cause suitable for display in place of the
// mediator's reply.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Backend, e.Kind, e.Cause)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// NewTransportError wraps cause as a transport-class backend failure.
func NewTransportError(backend string, cause error) *Error {
	return &Error{Backend: backend, Kind: KindTransport, Cause: cause}
}

// NewProtocolError wraps cause as a protocol-class backend failure.
func NewProtocolError(backend string, cause error) *Error {
	return &Error{Backend: backend, Kind: KindProtocol, Cause: cause}
}
