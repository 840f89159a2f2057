package inference

import (
	"errors"
	"fmt"
)

// Kind classifies a generation failure so callers can decide whether a
// retry could help.
type Kind string

const (
	// KindUnreachable means no service answered at the configured address.
	KindUnreachable Kind = "unreachable"
	// KindTimeout means the request exceeded the transport timeout or the
	// caller's context deadline.
	KindTimeout Kind = "timeout"
	// KindTransport covers every other network or encoding failure.
	KindTransport Kind = "transport"
	// KindServer is a 5xx from the endpoint, the only retryable kind.
	KindServer Kind = "server"
	// KindClient is a non-retryable rejection of the request.
	KindClient Kind = "client"
	// KindModelNotFound means the endpoint does not have the requested
	// model; retrying cannot fix it.
	KindModelNotFound Kind = "model_not_found"
	// KindBadResponse means the endpoint answered with a body we could not
	// interpret.
	KindBadResponse Kind = "bad_response"
	// KindEmptyResponse means a well-formed reply carried no completion.
	KindEmptyResponse Kind = "empty_response"
)

// Error is a classified generation failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether another attempt against the same endpoint
// could plausibly succeed.
func (e *Error) Retryable() bool { return e.Kind == KindServer }

func newError(kind Kind, err error, format string, v ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, v...), Err: err}
}

// KindOf extracts the failure kind from err, or "" when err does not
// wrap an *Error.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}
