package wirerpc

import "fmt"

// Code categorizes an Error by what went wrong.
type Code string

const (
	// ErrFraming marks a fatal framing/decode error: bad length prefix,
	// missing ':', payload parse failure, or a missing required field.
	ErrFraming Code = "framing"
	// ErrDispatchMiss marks a non-fatal unknown-identify drop.
	ErrDispatchMiss Code = "dispatch_miss"
	// ErrRegistration marks a fatal service-registration error: a method-id
	// collision, or registration attempted on a live connection. LoadConfig
	// also uses it for a config map that fails to decode.
	ErrRegistration Code = "registration"
	// ErrConnect marks a connect or listen failure: an unresolvable host or
	// invalid port, a failed dial (including exhaustion of every candidate
	// endpoint), a failed or duplicate bind, or an error closing a listener.
	ErrConnect Code = "connect"
	// ErrSerialize marks a failure serializing a user handler's response.
	ErrSerialize Code = "serialize"
	// ErrResponseParse marks a failure parsing a RESPONSE envelope's content
	// into the caller's response_out.
	ErrResponseParse Code = "response_parse"
)

// Error is this framework's structured error type: an operation name, the
// connection it happened on (empty outside a connection context), a
// taxonomy Code, a human message, and an optionally wrapped cause.
type Error struct {
	Op     string
	ConnID string
	Code   Code
	Msg    string
	Inner  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Inner != nil {
		msg = e.Inner.Error()
	}
	switch {
	case e.Op != "" && e.ConnID != "":
		return fmt.Sprintf("wirerpc: %s conn=%s [%s]: %s", e.Op, e.ConnID, e.Code, msg)
	case e.Op != "":
		return fmt.Sprintf("wirerpc: %s [%s]: %s", e.Op, e.Code, msg)
	default:
		return fmt.Sprintf("wirerpc: [%s]: %s", e.Code, msg)
	}
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is reports whether target is an *Error with the same Code, so callers can
// do errors.Is(err, &Error{Code: ErrFraming}) without matching Op/Msg/Inner.
// A target with an empty Code matches any *Error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code == "" {
		return true
	}
	return t.Code == e.Code
}
