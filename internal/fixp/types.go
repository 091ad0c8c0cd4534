// Package fixp implements the FIXP/iLink3 connection state machine: the
// binary-protocol analog of internal/session's FIX lifecycle, with
// Negotiate/Establish/Terminate, keepalive and retransmit in place of
// FIX's Logon/Heartbeat/ResendRequest.
//
// Grounded on the teacher's NFS/SMB connection-state handling, the same
// way internal/session is: one mutable struct advanced by one caller at
// a time, wire replies emitted through an injected transport, wall-clock
// reads through an injected clock.
package fixp

import "github.com/wadaptive/artio-go/pkg/gwerrors"

// State is one of the sixteen FIXP connection lifecycle states.
type State int

const (
	StateConnected State = iota
	StateSentNegotiate
	StateRetryNegotiate
	StateNegotiateRejected
	StateNegotiated
	StateSentEstablish
	StateRetryEstablish
	StateEstablishRejected
	StateEstablished
	StateRetransmitting
	StateAwaitingKeepalive
	StateResendTerminate
	StateResendTerminateAck
	StateUnbinding
	StateSentTerminate
	StateUnbound
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "CONNECTED"
	case StateSentNegotiate:
		return "SENT_NEGOTIATE"
	case StateRetryNegotiate:
		return "RETRY_NEGOTIATE"
	case StateNegotiateRejected:
		return "NEGOTIATE_REJECTED"
	case StateNegotiated:
		return "NEGOTIATED"
	case StateSentEstablish:
		return "SENT_ESTABLISH"
	case StateRetryEstablish:
		return "RETRY_ESTABLISH"
	case StateEstablishRejected:
		return "ESTABLISH_REJECTED"
	case StateEstablished:
		return "ESTABLISHED"
	case StateRetransmitting:
		return "RETRANSMITTING"
	case StateAwaitingKeepalive:
		return "AWAITING_KEEPALIVE"
	case StateResendTerminate:
		return "RESEND_TERMINATE"
	case StateResendTerminateAck:
		return "RESEND_TERMINATE_ACK"
	case StateUnbinding:
		return "UNBINDING"
	case StateSentTerminate:
		return "SENT_TERMINATE"
	case StateUnbound:
		return "UNBOUND"
	default:
		return "UNKNOWN"
	}
}

// Role distinguishes which side initiates Negotiate/Establish.
type Role int

const (
	RoleInitiator Role = iota
	RoleAcceptor
)

// retransmitFillSentinel is the "no retransmit in flight" value for
// RetransmitFillSeqNo.
const retransmitFillSentinel = -1

// Action is the outcome OnMessage reports to the caller.
type Action int

const (
	ActionDeliver Action = iota
	ActionConsume
	ActionDisconnect
)

func (a Action) String() string {
	switch a {
	case ActionDeliver:
		return "DELIVER"
	case ActionConsume:
		return "CONSUME"
	case ActionDisconnect:
		return "DISCONNECT"
	default:
		return "UNKNOWN"
	}
}

// Result is returned by OnMessage.
type Result struct {
	Action  Action
	Reason  gwerrors.Code
	SeqNo   uint64
	Payload []byte // populated when Action == ActionDeliver
}

// Config is the static, per-connection configuration supplied at
// construction.
type Config struct {
	ConnectionID        string
	Role                Role
	KeepAliveIntervalMs int64
}
