package session

import (
	"github.com/wadaptive/artio-go/internal/logger"
	"github.com/wadaptive/artio-go/pkg/gwerrors"
	"github.com/wadaptive/artio-go/pkg/sessionreg"
)

// ReplyCode is the outcome of an administrative release/acquire request.
type ReplyCode int

const (
	ReplyOK ReplyCode = iota
	ReplyUnknownSession
	ReplyOtherSessionOwner
	ReplySessionNotLoggedIn
)

func (r ReplyCode) String() string {
	switch r {
	case ReplyOK:
		return "OK"
	case ReplyUnknownSession:
		return "UNKNOWN_SESSION"
	case ReplyOtherSessionOwner:
		return "OTHER_SESSION_OWNER"
	case ReplySessionNotLoggedIn:
		return "SESSION_NOT_LOGGED_IN"
	default:
		return "UNKNOWN"
	}
}

func replyCodeFor(err error) ReplyCode {
	if err == nil {
		return ReplyOK
	}
	if ge, ok := err.(*gwerrors.Error); ok {
		switch ge.Code {
		case gwerrors.OtherSessionOwner:
			return ReplyOtherSessionOwner
		case gwerrors.SessionNotLoggedIn:
			return ReplySessionNotLoggedIn
		}
	}
	return ReplyUnknownSession
}

// ReleaseToGateway hands the session into the gateway-managed pool. A
// session that has not completed logon cannot be released.
func (s *Session) ReleaseToGateway(registry *sessionreg.Registry) (ReplyCode, error) {
	if s.state != StateActive && s.state != StateAwaitingResend {
		err := gwerrors.New(gwerrors.SessionNotLoggedIn, "session has not completed logon").WithSession(s.cfg.SessionID)
		return ReplySessionNotLoggedIn, err
	}
	if err := registry.ReleaseToGateway(s.cfg.SessionID, s.cfg.LibraryID); err != nil {
		return replyCodeFor(err), err
	}
	if err := registry.AckRelease(s.cfg.SessionID); err != nil {
		return replyCodeFor(err), err
	}
	s.log.Info("session released to gateway", logger.SessionID(s.cfg.SessionID))
	return ReplyOK, nil
}

// Acquire assigns an unowned, registered session to newOwnerID and
// attaches it to a fresh connection.
func Acquire(registry *sessionreg.Registry, sessionID, newOwnerID, connectionID string) (*Session, ReplyCode, error) {
	regSession, err := registry.Acquire(sessionID, newOwnerID)
	if err != nil {
		return nil, replyCodeFor(err), err
	}
	s, ok := regSession.(*Session)
	if !ok {
		err := gwerrors.New(gwerrors.UnknownSession, "registered entry is not a FIX session").WithSession(sessionID)
		return nil, ReplyUnknownSession, err
	}
	s.cfg.LibraryID = newOwnerID
	s.cfg.ConnectionID = connectionID
	return s, ReplyOK, nil
}
