// Package session implements the FIX session state machine: the
// lifecycle of one logical counterparty pair from logon through
// heartbeats, resend, logout, and disconnect.
//
// Grounded on the teacher's NFS/SMB connection-state handling — a single
// mutable struct advanced by one caller at a time, side effects (wire
// replies) emitted through an injected transport rather than returned
// as values, and every wall-clock read going through an injected clock
// so tests can replay deterministic time.
package session

import (
	"github.com/wadaptive/artio-go/pkg/fixwire"
	"github.com/wadaptive/artio-go/pkg/gwerrors"
)

// State is one of the eight session lifecycle states.
type State int

const (
	StateConnected State = iota
	StateSentLogon
	StateAwaitingLogon
	StateActive
	StateAwaitingResend
	StateAwaitingLogout
	StateDisconnected
	StateDisabled
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "CONNECTED"
	case StateSentLogon:
		return "SENT_LOGON"
	case StateAwaitingLogon:
		return "AWAITING_LOGON"
	case StateActive:
		return "ACTIVE"
	case StateAwaitingResend:
		return "AWAITING_RESEND"
	case StateAwaitingLogout:
		return "AWAITING_LOGOUT"
	case StateDisconnected:
		return "DISCONNECTED"
	case StateDisabled:
		return "DISABLED"
	default:
		return "UNKNOWN"
	}
}

// Role distinguishes which side of the handshake a session plays; only
// CONNECTED's transition depends on it.
type Role int

const (
	RoleInitiator Role = iota
	RoleAcceptor
)

// PersistenceMode governs whether sequence numbers survive a reconnect.
type PersistenceMode int

const (
	PersistencePersistent PersistenceMode = iota
	PersistenceTransient
)

// Action is the outcome on_message reports to the caller.
type Action int

const (
	// ActionDeliver means an in-sequence application message is ready for
	// the caller to hand to its consumer.
	ActionDeliver Action = iota
	// ActionConsume means the message was an admin message the session
	// handled entirely itself (Heartbeat, TestRequest, ResendRequest...).
	ActionConsume
	// ActionDisconnect means the session has moved to DISCONNECTED or
	// DISABLED; Result.Reason names why.
	ActionDisconnect
	// ActionQueue means an application message arrived outside an open
	// resend gap and was queued for delivery once the gap closes.
	ActionQueue
)

func (a Action) String() string {
	switch a {
	case ActionDeliver:
		return "DELIVER"
	case ActionConsume:
		return "CONSUME"
	case ActionDisconnect:
		return "DISCONNECT"
	case ActionQueue:
		return "QUEUE"
	default:
		return "UNKNOWN"
	}
}

// Result is returned by on_message.
type Result struct {
	Action  Action
	Reason  gwerrors.Code   // meaningful only when Action == ActionDisconnect
	Message *fixwire.Message // populated when Action == ActionDeliver
	Drained []Drained        // queued messages released by this message closing a resend gap, in sequence order
}

// Config is the static, per-session configuration supplied at
// construction. AllowLowerSeqnumLogon defaults to false: an acceptor
// receiving a Logon with a lower-than-expected seqnum is rejected unless
// explicitly configured otherwise.
type Config struct {
	SessionID             string
	ConnectionID          string
	LibraryID             string
	SenderCompID          string
	TargetCompID          string
	Username              string
	Password              string
	Role                  Role
	PersistenceMode       PersistenceMode
	HeartbeatIntervalMs   int64
	AllowLowerSeqnumLogon bool
}
