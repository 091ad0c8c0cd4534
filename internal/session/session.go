package session

import (
	"log/slog"
	"strconv"

	"github.com/wadaptive/artio-go/internal/clock"
	"github.com/wadaptive/artio-go/internal/logger"
	"github.com/wadaptive/artio-go/pkg/fixwire"
	"github.com/wadaptive/artio-go/pkg/gwerrors"
	"github.com/wadaptive/artio-go/pkg/transport"
)

// adminMsgTypes identifies FIX admin message types for the resend
// coalescing rule in replayRange.
var adminMsgTypes = map[string]bool{
	fixwire.MsgTypeLogon:         true,
	fixwire.MsgTypeLogout:        true,
	fixwire.MsgTypeHeartbeat:     true,
	fixwire.MsgTypeTestRequest:   true,
	fixwire.MsgTypeResendRequest: true,
	fixwire.MsgTypeSequenceReset: true,
	fixwire.MsgTypeReject:        true,
}

// OutboundRecord is one previously sent message, as kept by whatever
// history store the caller wires in for resend replay.
type OutboundRecord struct {
	SeqNum  uint64
	MsgType string
	Message *fixwire.Message
}

// OutboundLog is the replay source a Session consults when the peer
// sends a ResendRequest. It is an external collaborator: this package
// only specifies the interface it needs.
type OutboundLog interface {
	Range(from, to uint64) []OutboundRecord
}

// Drained is a queued application message released once a resend gap
// closes, returned alongside the Result of the message that closed it.
type Drained struct {
	SeqNum  uint64
	Message *fixwire.Message
}

// Session is the FIX session state machine: logon through heartbeats,
// resend, logout, and disconnect. It is mutated by exactly one owning
// worker at a time; cross-worker handoff happens only through
// ReleaseToGateway/Acquire.
type Session struct {
	cfg   Config
	state State

	nextSentSeqNo uint64
	nextRecvSeqNo uint64
	sequenceIndex uint32

	lastSentTimeNs     int64
	lastReceivedTimeNs int64
	heartbeatIntervalNs int64
	testRequestPending  bool

	awaitingResendFrom uint64
	awaitingResendTo   uint64
	queued             []queuedMessage

	lastLogoutSeq        uint64
	disconnectDeadlineNs int64
	lastDisconnectReason gwerrors.Code

	pendingFrames [][]byte

	clock       clock.Clock
	stream      transport.Stream
	outboundLog OutboundLog
	log         *slog.Logger
}

type queuedMessage struct {
	seqNo   uint64
	message *fixwire.Message
}

// New constructs a Session in CONNECTED state with sequence numbers at
// the spec's floor of 1.
func New(cfg Config, clk clock.Clock, stream transport.Stream, outboundLog OutboundLog, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		cfg:                 cfg,
		state:               StateConnected,
		nextSentSeqNo:       1,
		nextRecvSeqNo:       1,
		sequenceIndex:       0,
		heartbeatIntervalNs: cfg.HeartbeatIntervalMs * 1_000_000,
		clock:               clk,
		stream:              stream,
		outboundLog:         outboundLog,
		log:                 log,
	}
}

// SessionID implements sessionreg.Session.
func (s *Session) SessionID() string { return s.cfg.SessionID }

// State returns the session's current lifecycle state.
func (s *Session) State() State { return s.state }

// NextSentSeqNo returns the sequence number the next outbound message
// will carry.
func (s *Session) NextSentSeqNo() uint64 { return s.nextSentSeqNo }

// NextRecvSeqNo returns the sequence number the session next expects
// from the peer.
func (s *Session) NextRecvSeqNo() uint64 { return s.nextRecvSeqNo }

// SequenceIndex returns the reset generation counter.
func (s *Session) SequenceIndex() uint32 { return s.sequenceIndex }

// Connect starts the initiator side of the handshake: emits a Logon and
// moves to SENT_LOGON. resetSeqNum requests ResetSeqNumFlag=Y.
func (s *Session) Connect(resetSeqNum bool) (int64, error) {
	if s.state != StateConnected {
		return 0, gwerrors.New(gwerrors.NotConnected, "connect called outside CONNECTED").WithSession(s.cfg.SessionID)
	}
	if resetSeqNum {
		s.applyReset()
	}
	seq := s.nextSentSeqNo
	msg := fixwire.NewMessage(fixwire.MsgTypeLogon)
	msg.Set(fixwire.TagMsgSeqNum, strconv.FormatUint(seq, 10))
	msg.Set(fixwire.TagHeartBtInt, strconv.FormatInt(s.cfg.HeartbeatIntervalMs/1000, 10))
	if resetSeqNum {
		msg.Set(fixwire.TagResetSeqNumFlg, "Y")
	}
	if s.cfg.Username != "" {
		msg.Set(fixwire.TagUsername, s.cfg.Username)
	}
	if s.cfg.Password != "" {
		msg.Set(fixwire.TagPassword, s.cfg.Password)
	}
	frame, err := s.encodeAndRecord(msg, seq)
	if err != nil {
		return 0, err
	}
	s.nextSentSeqNo++
	s.state = StateSentLogon
	s.log.Info("session connect", logger.SessionID(s.cfg.SessionID), logger.SeqNum(seq))
	return int64(seq), s.emit(frame)
}

// applyReset reverts sequence state to a fresh reconnect and bumps the
// generation counter.
func (s *Session) applyReset() {
	s.nextSentSeqNo = 1
	s.nextRecvSeqNo = 1
	s.sequenceIndex++
}

// OnMessage feeds one decoded, framed-valid message into the state
// machine. receiveTimeNs is the wall-clock time the message arrived.
func (s *Session) OnMessage(msg *fixwire.Message, receiveTimeNs int64) Result {
	s.lastReceivedTimeNs = receiveTimeNs
	s.testRequestPending = false

	switch s.state {
	case StateDisabled:
		return Result{Action: ActionDisconnect, Reason: gwerrors.SessionDisabled}
	case StateDisconnected:
		return Result{Action: ActionDisconnect, Reason: gwerrors.NotConnected}
	case StateConnected:
		return s.onMessageConnected(msg)
	case StateSentLogon:
		return s.onMessageSentLogon(msg)
	case StateActive:
		return s.onMessageActive(msg)
	case StateAwaitingResend:
		return s.onMessageAwaitingResend(msg)
	case StateAwaitingLogout:
		return s.onMessageAwaitingLogout(msg)
	default:
		return Result{Action: ActionDisconnect, Reason: gwerrors.InvalidMessage}
	}
}

func (s *Session) onMessageConnected(msg *fixwire.Message) Result {
	if s.cfg.Role != RoleAcceptor || msg.MsgType != fixwire.MsgTypeLogon {
		s.log.Warn("unexpected message in CONNECTED", logger.SessionID(s.cfg.SessionID), logger.MsgType(msg.MsgType))
		return Result{Action: ActionConsume}
	}

	if s.cfg.Password != "" {
		if pw, _ := msg.Get(fixwire.TagPassword); pw != s.cfg.Password {
			return s.rejectLogon()
		}
	}

	// A PERSISTENT session rejecting an *unrequested* reset needs an
	// out-of-band signal (was a reconnect actually expected?) that the
	// wire alone can't supply, so the bare state machine honors
	// ResetSeqNumFlag=Y unconditionally; the surrounding framework is
	// responsible for only setting it up on a deliberate session restart.
	if reset, _ := msg.Get(fixwire.TagResetSeqNumFlg); reset == "Y" {
		s.applyReset()
	}

	seq, ok := parseSeq(msg)
	if !ok {
		return s.disconnect(gwerrors.InvalidMessage)
	}

	// A Logon carrying a lower-than-expected seqnum is normally a fatal
	// out-of-sequence condition, but some counterparties reconnect without
	// ever intending a full replay; AllowLowerSeqnumLogon opts a session
	// into accepting that case outright instead of disconnecting.
	if seq < s.nextRecvSeqNo && s.cfg.AllowLowerSeqnumLogon {
		s.emitLogonReply()
		s.nextRecvSeqNo = seq + 1
		s.state = StateActive
		s.log.Info("session active", logger.SessionID(s.cfg.SessionID), logger.Transition("logon_low_seqnum", "CONNECTED", "ACTIVE"))
		return Result{Action: ActionConsume}
	}

	gapResult, handled := s.checkSequence(seq, msg)
	if handled {
		return gapResult
	}

	s.emitLogonReply()
	s.nextRecvSeqNo = seq + 1
	s.state = StateActive
	s.log.Info("session active", logger.SessionID(s.cfg.SessionID), logger.Transition("logon", "CONNECTED", "ACTIVE"))
	return Result{Action: ActionConsume}
}

func (s *Session) onMessageSentLogon(msg *fixwire.Message) Result {
	if msg.MsgType != fixwire.MsgTypeLogon {
		s.log.Warn("unexpected message in SENT_LOGON", logger.SessionID(s.cfg.SessionID), logger.MsgType(msg.MsgType))
		return Result{Action: ActionConsume}
	}

	if reset, _ := msg.Get(fixwire.TagResetSeqNumFlg); reset == "Y" {
		s.applyReset()
	}

	seq, ok := parseSeq(msg)
	if !ok {
		return s.disconnect(gwerrors.InvalidMessage)
	}

	if result, handled := s.checkSequence(seq, msg); handled {
		return result
	}

	s.nextRecvSeqNo = seq + 1
	s.state = StateActive
	s.log.Info("session active", logger.SessionID(s.cfg.SessionID), logger.Transition("logon_reply", "SENT_LOGON", "ACTIVE"))
	return Result{Action: ActionConsume}
}

func (s *Session) onMessageActive(msg *fixwire.Message) Result {
	seq, ok := parseSeq(msg)
	if !ok {
		return s.disconnect(gwerrors.InvalidMessage)
	}

	if result, handled := s.checkSequence(seq, msg); handled {
		return result
	}
	s.nextRecvSeqNo = seq + 1

	switch msg.MsgType {
	case fixwire.MsgTypeTestRequest:
		testReqID, _ := msg.Get(fixwire.TagTestReqID)
		s.sendHeartbeat(testReqID)
		return Result{Action: ActionConsume}
	case fixwire.MsgTypeHeartbeat:
		return Result{Action: ActionConsume}
	case fixwire.MsgTypeLogout:
		s.emitLogoutReply()
		s.state = StateAwaitingLogout
		s.disconnectDeadlineNs = s.lastReceivedTimeNs + 2*s.heartbeatIntervalNs
		s.log.Info("logout received", logger.SessionID(s.cfg.SessionID), logger.Transition("logout", "ACTIVE", "AWAITING_LOGOUT"))
		return Result{Action: ActionConsume}
	case fixwire.MsgTypeResendRequest:
		from, to := parseResendRange(msg)
		s.replayRange(from, to)
		return Result{Action: ActionConsume}
	case fixwire.MsgTypeSequenceReset:
		return Result{Action: ActionConsume}
	default:
		return Result{Action: ActionDeliver, Message: msg}
	}
}

func (s *Session) onMessageAwaitingLogout(msg *fixwire.Message) Result {
	if msg.MsgType == fixwire.MsgTypeLogout {
		return s.disconnect(0)
	}
	return Result{Action: ActionConsume}
}

// checkSequence applies invariant 2's generic gap handling. It returns
// handled=true when it fully disposed of the message (gap opened or a
// terminal out-of-sequence error), in which case the caller must not
// also process the message's payload.
func (s *Session) checkSequence(seq uint64, msg *fixwire.Message) (Result, bool) {
	switch {
	case seq == s.nextRecvSeqNo:
		return Result{}, false
	case seq > s.nextRecvSeqNo:
		return s.openResendGap(seq, msg), true
	default: // seq < nextRecvSeqNo
		if possDup, _ := msg.Get(fixwire.TagPossDupFlag); possDup == "Y" {
			return Result{Action: ActionConsume}, true
		}
		return s.disconnect(gwerrors.OutOfSequence), true
	}
}

// openResendGap requests the missing range and moves to AWAITING_RESEND.
// The message that revealed the gap lies outside the requested range, so
// per invariant 3 it queues for delivery once the gap closes rather than
// being dropped.
func (s *Session) openResendGap(seq uint64, msg *fixwire.Message) Result {
	from, to := s.nextRecvSeqNo, seq-1
	s.sendResendRequest(from, to)
	s.awaitingResendFrom, s.awaitingResendTo = from, to
	s.state = StateAwaitingResend
	attrs := logger.ResendRange(from, to)
	s.log.Info("sequence gap detected", logger.SessionID(s.cfg.SessionID), attrs[0], attrs[1])

	if adminMsgTypes[msg.MsgType] {
		return Result{Action: ActionConsume}
	}
	s.queued = append(s.queued, queuedMessage{seqNo: seq, message: msg})
	return Result{Action: ActionQueue}
}

func (s *Session) onMessageAwaitingResend(msg *fixwire.Message) Result {
	seq, ok := parseSeq(msg)
	if !ok {
		return s.disconnect(gwerrors.InvalidMessage)
	}

	if msg.MsgType == fixwire.MsgTypeSequenceReset {
		if gapFill, _ := msg.Get(fixwire.TagGapFillFlag); gapFill == "Y" {
			newSeq, _ := parseUintField(msg, fixwire.TagNewSeqNo)
			if newSeq > s.nextRecvSeqNo {
				s.nextRecvSeqNo = newSeq
			}
			return s.maybeCloseGap()
		}
	}

	switch {
	case seq > s.nextRecvSeqNo:
		s.queued = append(s.queued, queuedMessage{seqNo: seq, message: msg})
		return Result{Action: ActionQueue}
	case seq < s.nextRecvSeqNo:
		if possDup, _ := msg.Get(fixwire.TagPossDupFlag); possDup == "Y" {
			return Result{Action: ActionConsume}
		}
		return s.disconnect(gwerrors.OutOfSequence)
	default: // seq == nextRecvSeqNo: next replayed message in the gap
		s.nextRecvSeqNo++
		isApp := !adminMsgTypes[msg.MsgType]
		result := s.maybeCloseGap()
		if isApp && result.Action != ActionDisconnect {
			result.Action = ActionDeliver
			result.Message = msg
		}
		return result
	}
}

// maybeCloseGap checks whether the resend gap has closed and, if so,
// drains queued application messages in sequence order before returning
// to ACTIVE.
func (s *Session) maybeCloseGap() Result {
	if s.nextRecvSeqNo <= s.awaitingResendTo {
		return Result{Action: ActionConsume}
	}

	var drained []Drained
	for {
		idx := -1
		for i, q := range s.queued {
			if q.seqNo == s.nextRecvSeqNo {
				idx = i
				break
			}
		}
		if idx < 0 {
			break
		}
		drained = append(drained, Drained{SeqNum: s.queued[idx].seqNo, Message: s.queued[idx].message})
		s.nextRecvSeqNo++
		s.queued = append(s.queued[:idx], s.queued[idx+1:]...)
	}

	s.state = StateActive
	s.awaitingResendFrom, s.awaitingResendTo = 0, 0
	s.log.Info("resend gap closed", logger.SessionID(s.cfg.SessionID), logger.Transition("gap_filled", "AWAITING_RESEND", "ACTIVE"))

	result := Result{Action: ActionConsume, Drained: drained}
	if len(drained) > 0 {
		last := drained[len(drained)-1]
		result.Action = ActionDeliver
		result.Message = last.Message
	}
	return result
}

// SendApplication assigns the next outbound sequence number and emits
// an application message. Fails with NotConnected if the session is not
// accepting application traffic.
func (s *Session) SendApplication(msgType string, fields []fixwire.Field) (int64, error) {
	if s.state != StateActive && s.state != StateAwaitingResend {
		return 0, gwerrors.New(gwerrors.NotConnected, "session not active").WithSession(s.cfg.SessionID)
	}

	seq := s.nextSentSeqNo
	msg := fixwire.NewMessage(msgType)
	for _, f := range fields {
		msg.Set(f.Tag, f.Value)
	}
	frame, err := s.encodeAndRecord(msg, seq)
	if err != nil {
		return 0, err
	}
	s.nextSentSeqNo++
	return int64(seq), s.emit(frame)
}

// StartLogout emits a Logout and begins the disconnect timer. A second
// call while AWAITING_LOGOUT is idempotent rather than sending a second
// Logout.
func (s *Session) StartLogout() (int64, error) {
	if s.state == StateAwaitingLogout {
		return int64(s.lastLogoutSeq), nil
	}
	if s.state != StateActive && s.state != StateAwaitingResend {
		return 0, gwerrors.New(gwerrors.NotConnected, "session not active").WithSession(s.cfg.SessionID)
	}

	seq := s.nextSentSeqNo
	msg := fixwire.NewMessage(fixwire.MsgTypeLogout)
	frame, err := s.encodeAndRecord(msg, seq)
	if err != nil {
		return 0, err
	}
	s.nextSentSeqNo++
	s.lastLogoutSeq = seq
	s.state = StateAwaitingLogout
	s.disconnectDeadlineNs = s.clock.NowNanos() + 2*s.heartbeatIntervalNs
	s.log.Info("logout started", logger.SessionID(s.cfg.SessionID), logger.SeqNum(seq))
	return int64(seq), s.emit(frame)
}

// Poll is the driver tick: it flushes any back-pressured frame first,
// then emits heartbeats/test requests and detects peer silence. Returns
// the number of actions taken.
func (s *Session) Poll(nowNs int64) int {
	progress := 0
	if s.flushPending() {
		progress++
	}

	switch s.state {
	case StateAwaitingLogout:
		if nowNs >= s.disconnectDeadlineNs {
			s.disconnect(0)
			progress++
		}
		return progress
	case StateActive, StateAwaitingResend, StateSentLogon:
		if s.heartbeatIntervalNs <= 0 {
			return progress
		}
		if nowNs-s.lastSentTimeNs >= s.heartbeatIntervalNs {
			s.sendHeartbeat("")
			progress++
		}
		silence := nowNs - s.lastReceivedTimeNs
		if silence >= (s.heartbeatIntervalNs*24)/10 {
			s.disconnect(gwerrors.HeartbeatTimeout)
			progress++
		} else if silence >= (s.heartbeatIntervalNs*12)/10 && !s.testRequestPending {
			s.sendTestRequest()
			s.testRequestPending = true
			progress++
		}
	}
	return progress
}

// LastDisconnectReason reports why the session last moved to
// DISCONNECTED; zero means a clean shutdown.
func (s *Session) LastDisconnectReason() gwerrors.Code { return s.lastDisconnectReason }

func (s *Session) disconnect(reason gwerrors.Code) Result {
	s.state = StateDisconnected
	s.lastDisconnectReason = reason
	if s.cfg.PersistenceMode == PersistenceTransient {
		s.nextSentSeqNo, s.nextRecvSeqNo = 1, 1
	}
	s.log.Info("session disconnected", logger.SessionID(s.cfg.SessionID), logger.Reason(reason.String()))
	return Result{Action: ActionDisconnect, Reason: reason}
}

func (s *Session) rejectLogon() Result {
	msg := fixwire.NewMessage(fixwire.MsgTypeLogout)
	frame, _ := fixwire.Encode(msg)
	_ = s.emit(frame)
	return s.disconnect(gwerrors.AuthenticationRejected)
}

func (s *Session) emitLogonReply() {
	msg := fixwire.NewMessage(fixwire.MsgTypeLogon)
	frame, err := s.encodeAndRecord(msg, s.nextSentSeqNo)
	if err != nil {
		return
	}
	s.nextSentSeqNo++
	_ = s.emit(frame)
}

func (s *Session) emitLogoutReply() {
	msg := fixwire.NewMessage(fixwire.MsgTypeLogout)
	frame, err := s.encodeAndRecord(msg, s.nextSentSeqNo)
	if err != nil {
		return
	}
	s.nextSentSeqNo++
	_ = s.emit(frame)
}

func (s *Session) sendHeartbeat(testReqID string) {
	msg := fixwire.NewMessage(fixwire.MsgTypeHeartbeat)
	if testReqID != "" {
		msg.Set(fixwire.TagTestReqID, testReqID)
	}
	frame, err := s.encodeAndRecord(msg, s.nextSentSeqNo)
	if err != nil {
		return
	}
	s.nextSentSeqNo++
	_ = s.emit(frame)
}

func (s *Session) sendTestRequest() {
	msg := fixwire.NewMessage(fixwire.MsgTypeTestRequest)
	msg.Set(fixwire.TagTestReqID, strconv.FormatUint(s.nextSentSeqNo, 10))
	frame, err := s.encodeAndRecord(msg, s.nextSentSeqNo)
	if err != nil {
		return
	}
	s.nextSentSeqNo++
	_ = s.emit(frame)
}

func (s *Session) sendResendRequest(from, to uint64) {
	msg := fixwire.NewMessage(fixwire.MsgTypeResendRequest)
	msg.Set(fixwire.TagBeginSeqNo, strconv.FormatUint(from, 10))
	msg.Set(fixwire.TagEndSeqNo, strconv.FormatUint(to, 10))
	frame, err := s.encodeAndRecord(msg, s.nextSentSeqNo)
	if err != nil {
		return
	}
	s.nextSentSeqNo++
	_ = s.emit(frame)
}

func (s *Session) encodeAndRecord(msg *fixwire.Message, seq uint64) ([]byte, error) {
	msg.Set(fixwire.TagMsgSeqNum, strconv.FormatUint(seq, 10))
	msg.Set(fixwire.TagSenderCompID, s.cfg.SenderCompID)
	msg.Set(fixwire.TagTargetCompID, s.cfg.TargetCompID)
	return fixwire.Encode(msg)
}

// emit tries to send frame immediately, queuing it behind any
// already-pending frame to preserve send ordering when the transport is
// back-pressured.
func (s *Session) emit(frame []byte) error {
	if len(s.pendingFrames) > 0 {
		s.pendingFrames = append(s.pendingFrames, frame)
		return gwerrors.New(gwerrors.BackPressured, "previous send still pending").WithSession(s.cfg.SessionID)
	}
	if err := s.trySend(frame); err != nil {
		s.pendingFrames = append(s.pendingFrames, frame)
		return err
	}
	return nil
}

func (s *Session) trySend(frame []byte) error {
	_, err := s.stream.TryReserve(len(frame))
	if err != nil {
		return err
	}
	copy(s.stream.Claimed(), frame)
	if err := s.stream.Commit(); err != nil {
		return err
	}
	s.lastSentTimeNs = s.clock.NowNanos()
	return nil
}

// flushPending retries the head of the back-pressure queue, returning
// true if at least one frame was drained.
func (s *Session) flushPending() bool {
	drained := false
	for len(s.pendingFrames) > 0 {
		if err := s.trySend(s.pendingFrames[0]); err != nil {
			return drained
		}
		s.pendingFrames = s.pendingFrames[1:]
		drained = true
	}
	return drained
}

func parseSeq(msg *fixwire.Message) (uint64, bool) {
	return parseUintField(msg, fixwire.TagMsgSeqNum)
}

func parseUintField(msg *fixwire.Message, tag int) (uint64, bool) {
	v, ok := msg.Get(tag)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 64)
	return n, err == nil
}

func parseResendRange(msg *fixwire.Message) (uint64, uint64) {
	from, _ := parseUintField(msg, fixwire.TagBeginSeqNo)
	to, _ := parseUintField(msg, fixwire.TagEndSeqNo)
	return from, to
}
