// Package gwerrors provides the error codes and error type shared by the
// session (A), FIXP (B), and logger (C) components. It is a leaf package
// with no internal dependencies so it can be imported everywhere without
// creating import cycles.
//
// Import graph: gwerrors <- session, fixp, msglog, sessionreg
package gwerrors

import "fmt"

// Code represents the kind of error a component can report. These mirror
// the error kinds enumerated in the session engine's design: back-pressure
// is always caller-visible and non-fatal, protocol errors are translated
// into state transitions rather than thrown, and only programmer errors
// fail loudly.
type Code int

const (
	// BackPressured indicates the transport refused a reservation; the
	// caller should retry. Not fatal.
	BackPressured Code = iota + 1

	// InvalidMessage indicates malformed framing. Fatal: disconnect.
	InvalidMessage

	// OutOfSequence indicates a sequence number other than the expected
	// one. A FIX gap is answered with a resend request and does not carry
	// this code; it is the disconnect reason for a FIX message numbered
	// lower than expected without PossDupFlag, and for a FIXP application
	// message that does not carry the next expected number.
	OutOfSequence

	// UnexpectedMsgType indicates a message type the session does not
	// expect in its current state. Logged and ignored.
	UnexpectedMsgType

	// AuthenticationRejected indicates a Logon failed credential checks.
	// Fatal: Logout with reason, then disconnect.
	AuthenticationRejected

	// HeartbeatTimeout indicates the peer stopped responding. Fatal:
	// disconnect.
	HeartbeatTimeout

	// SessionDisabled indicates the session has been administratively
	// disabled and rejects user calls.
	SessionDisabled

	// UnknownSession indicates an admin call referenced a session id that
	// is not owned by the calling worker.
	UnknownSession

	// OtherSessionOwner indicates an admin call referenced a session
	// owned by a different worker.
	OtherSessionOwner

	// NotConnected indicates a send was attempted while the session/
	// connection is not in a state that accepts application traffic.
	NotConnected

	// SessionNotLoggedIn indicates an admin acquire/release was attempted
	// on a session that never completed logon.
	SessionNotLoggedIn
)

// String returns a human-readable name for the error code.
func (c Code) String() string {
	switch c {
	case BackPressured:
		return "BackPressured"
	case InvalidMessage:
		return "InvalidMessage"
	case OutOfSequence:
		return "OutOfSequence"
	case UnexpectedMsgType:
		return "UnexpectedMsgType"
	case AuthenticationRejected:
		return "AuthenticationRejected"
	case HeartbeatTimeout:
		return "HeartbeatTimeout"
	case SessionDisabled:
		return "SessionDisabled"
	case UnknownSession:
		return "UnknownSession"
	case OtherSessionOwner:
		return "OtherSessionOwner"
	case NotConnected:
		return "NotConnected"
	case SessionNotLoggedIn:
		return "SessionNotLoggedIn"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by session/FIXP/logger
// operations. It carries enough context to log and to answer admin
// queries without the caller needing to re-derive it.
type Error struct {
	Code      Code
	Message   string
	SessionID string
}

func (e *Error) Error() string {
	if e.SessionID != "" {
		return fmt.Sprintf("%s: %s (session=%s)", e.Code, e.Message, e.SessionID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New constructs an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithSession returns a copy of the error annotated with a session id.
func (e *Error) WithSession(sessionID string) *Error {
	return &Error{Code: e.Code, Message: e.Message, SessionID: sessionID}
}
