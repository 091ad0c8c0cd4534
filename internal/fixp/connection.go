package fixp

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/wadaptive/artio-go/internal/clock"
	"github.com/wadaptive/artio-go/internal/logger"
	"github.com/wadaptive/artio-go/pkg/fixpwire"
	"github.com/wadaptive/artio-go/pkg/gwerrors"
	"github.com/wadaptive/artio-go/pkg/transport"
)

// OutboundRecord is one previously sent application message, as kept by
// whatever history store the caller wires in for retransmission.
type OutboundRecord struct {
	SeqNo   uint64
	Payload []byte
}

// OutboundLog is the replay source a Connection consults when the peer
// sends a NotApplied. It is an external collaborator: this package only
// specifies the interface it needs.
type OutboundLog interface {
	Range(from uint64, count uint32) []OutboundRecord
}

// Connection is the FIXP connection state machine. It is mutated by
// exactly one owning worker at a time.
type Connection struct {
	cfg   Config
	state State

	uuid     uint64
	lastUUID uint64

	nextSentSeqNo uint64
	nextRecvSeqNo uint64

	retransmitFillSeqNo int64 // sentinel -1 = no retransmit in flight
	nextRetransmitSeqNo uint64
	priorState          State // state to resume once a retransmit clears

	keepAliveIntervalNs int64
	lastSentTimeNs      int64
	lastReceivedTimeNs  int64
	sequenceSentPending bool // a keepalive Sequence was already sent this silence episode

	lastDisconnectReason gwerrors.Code

	// retry state: a send that hit back-pressure is remembered here so
	// Poll can retry it without the peer ever seeing the stall.
	retryFrame        []byte
	retrySuccessState State

	clock       clock.Clock
	stream      transport.Stream
	outboundLog OutboundLog
	log         *slog.Logger
}

// New constructs a Connection in CONNECTED state.
func New(cfg Config, clk clock.Clock, stream transport.Stream, outboundLog OutboundLog, log *slog.Logger) *Connection {
	if log == nil {
		log = slog.Default()
	}
	return &Connection{
		cfg:                 cfg,
		state:               StateConnected,
		retransmitFillSeqNo: retransmitFillSentinel,
		nextSentSeqNo:       1,
		nextRecvSeqNo:       1,
		keepAliveIntervalNs: cfg.KeepAliveIntervalMs * 1_000_000,
		clock:               clk,
		stream:              stream,
		outboundLog:         outboundLog,
		log:                 log,
	}
}

// SessionID satisfies pkg/sessionreg.Session so a FIXP connection can be
// released to and acquired from the gateway-managed pool the same way a
// FIX session is.
func (c *Connection) SessionID() string { return c.cfg.ConnectionID }

// State returns the connection's current lifecycle state.
func (c *Connection) State() State { return c.state }

// UUID returns the connection's currently negotiated UUID (0 before a
// successful Negotiate).
func (c *Connection) UUID() uint64 { return c.uuid }

// LastUUID returns the UUID of the connection's prior incarnation, if
// any (0 if this is the first).
func (c *Connection) LastUUID() uint64 { return c.lastUUID }

// NextSentSeqNo returns the sequence number the next application message
// will carry.
func (c *Connection) NextSentSeqNo() uint64 { return c.nextSentSeqNo }

// NextRecvSeqNo returns the sequence number the connection next expects
// from the peer.
func (c *Connection) NextRecvSeqNo() uint64 { return c.nextRecvSeqNo }

// RetransmitFillSeqNo returns the sentinel-tracked high-water mark of an
// in-flight retransmit, or -1 if none is in flight.
func (c *Connection) RetransmitFillSeqNo() int64 { return c.retransmitFillSeqNo }

// LastDisconnectReason reports why the connection last moved to UNBOUND.
func (c *Connection) LastDisconnectReason() gwerrors.Code { return c.lastDisconnectReason }

// newUUID64 derives a 64-bit connection UUID from a random v4 UUID's
// leading bytes; the schema's uuid field is 64-bit, not the RFC 128-bit
// form.
func newUUID64() uint64 {
	u := uuid.New()
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(u[i])
	}
	return v
}

// Negotiate starts the initiator side: emits Negotiate and moves to
// SENT_NEGOTIATE (or RETRY_NEGOTIATE if the transport is back-pressured).
func (c *Connection) Negotiate() error {
	if c.state != StateConnected {
		return gwerrors.New(gwerrors.NotConnected, "negotiate called outside CONNECTED").WithSession(c.cfg.ConnectionID)
	}
	c.uuid = newUUID64()
	frame := fixpwire.EncodeNegotiate(fixpwire.Negotiate{
		UUID:                c.uuid,
		Timestamp:           c.clock.NowNanos(),
		KeepAliveIntervalMs: uint32(c.cfg.KeepAliveIntervalMs),
	})
	return c.sendOrRetry(frame, StateSentNegotiate, StateRetryNegotiate)
}

// sendOrRetry attempts an immediate send; on success it lands the
// connection in successState, on back-pressure it parks the frame and
// lands in retryState so Poll can keep trying transparently to the peer.
func (c *Connection) sendOrRetry(frame []byte, successState, retryState State) error {
	if err := c.trySend(frame); err != nil {
		c.retryFrame = frame
		c.retrySuccessState = successState
		c.state = retryState
		return err
	}
	c.state = successState
	return nil
}

func (c *Connection) trySend(frame []byte) error {
	_, err := c.stream.TryReserve(len(frame))
	if err != nil {
		return err
	}
	copy(c.stream.Claimed(), frame)
	if err := c.stream.Commit(); err != nil {
		return err
	}
	c.lastSentTimeNs = c.clock.NowNanos()
	return nil
}

// OnMessage feeds one decoded, framed-valid FIXP message into the state
// machine. receiveTimeNs is the wall-clock time the message arrived.
func (c *Connection) OnMessage(raw []byte, receiveTimeNs int64) Result {
	c.lastReceivedTimeNs = receiveTimeNs
	c.sequenceSentPending = false

	templateID, err := fixpwire.PeekTemplateID(raw)
	if err != nil {
		return c.disconnect(gwerrors.InvalidMessage)
	}

	switch c.state {
	case StateUnbound:
		return Result{Action: ActionDisconnect, Reason: gwerrors.NotConnected}
	case StateConnected:
		return c.onConnected(templateID, raw)
	case StateSentNegotiate, StateRetryNegotiate:
		return c.onSentNegotiate(templateID, raw)
	case StateNegotiated:
		return c.onNegotiated(templateID, raw)
	case StateSentEstablish, StateRetryEstablish:
		return c.onSentEstablish(templateID, raw)
	case StateEstablished, StateRetransmitting:
		return c.onEstablished(templateID, raw)
	case StateUnbinding, StateAwaitingKeepalive, StateSentTerminate, StateResendTerminate, StateResendTerminateAck:
		return c.onUnbinding(templateID, raw)
	default:
		return Result{Action: ActionConsume}
	}
}

func (c *Connection) onConnected(templateID uint16, raw []byte) Result {
	if c.cfg.Role != RoleAcceptor || templateID != fixpwire.TemplateNegotiate {
		c.log.Warn("unexpected message in CONNECTED", logger.SessionID(c.cfg.ConnectionID))
		return Result{Action: ActionConsume}
	}
	neg, err := fixpwire.DecodeNegotiate(raw)
	if err != nil {
		return c.disconnect(gwerrors.InvalidMessage)
	}

	c.lastUUID = c.uuid
	c.uuid = neg.UUID
	frame := fixpwire.EncodeNegotiateResponse(fixpwire.NegotiateResponse{
		RequestTimestamp: neg.Timestamp,
		UUID:             c.uuid,
		PreviousUUID:     c.lastUUID,
	})
	if err := c.trySend(frame); err != nil {
		c.retryFrame, c.retrySuccessState = frame, StateNegotiated
		c.state = StateRetryNegotiate
		return Result{Action: ActionConsume}
	}
	c.state = StateNegotiated
	c.log.Info("connection negotiated", logger.SessionID(c.cfg.ConnectionID), logger.Transition("negotiate", "CONNECTED", "NEGOTIATED"))
	return Result{Action: ActionConsume}
}

func (c *Connection) onSentNegotiate(templateID uint16, raw []byte) Result {
	switch templateID {
	case fixpwire.TemplateNegotiateResponse:
		resp, err := fixpwire.DecodeNegotiateResponse(raw)
		if err != nil {
			return c.disconnect(gwerrors.InvalidMessage)
		}
		c.lastUUID = resp.PreviousUUID
		c.state = StateNegotiated
		c.log.Info("connection negotiated", logger.SessionID(c.cfg.ConnectionID), logger.Transition("negotiate_response", "SENT_NEGOTIATE", "NEGOTIATED"))
		return Result{Action: ActionConsume}
	case fixpwire.TemplateNegotiateReject:
		c.state = StateNegotiateRejected
		return c.disconnect(gwerrors.AuthenticationRejected)
	default:
		return Result{Action: ActionConsume}
	}
}

func (c *Connection) onNegotiated(templateID uint16, raw []byte) Result {
	if c.cfg.Role == RoleAcceptor && templateID == fixpwire.TemplateEstablish {
		est, err := fixpwire.DecodeEstablish(raw)
		if err != nil {
			return c.disconnect(gwerrors.InvalidMessage)
		}
		prevNextSent := c.nextSentSeqNo
		c.nextRecvSeqNo = est.NextSeqNo
		frame := fixpwire.EncodeEstablishAck(fixpwire.EstablishAck{
			RequestTimestamp:    est.Timestamp,
			NextSeqNo:           c.nextSentSeqNo,
			PreviousSeqNo:       prevNextSent,
			KeepAliveIntervalMs: uint32(c.cfg.KeepAliveIntervalMs),
		})
		if err := c.trySend(frame); err != nil {
			c.retryFrame, c.retrySuccessState = frame, StateEstablished
			c.state = StateRetryEstablish
			return Result{Action: ActionConsume}
		}
		c.state = StateEstablished
		c.log.Info("connection established", logger.SessionID(c.cfg.ConnectionID), logger.Transition("establish", "NEGOTIATED", "ESTABLISHED"))
		return Result{Action: ActionConsume}
	}
	return Result{Action: ActionConsume}
}

// Establish starts the initiator side of the bind: emits Establish and
// moves to SENT_ESTABLISH (or RETRY_ESTABLISH if back-pressured).
func (c *Connection) Establish() error {
	if c.state != StateNegotiated {
		return gwerrors.New(gwerrors.NotConnected, "establish called outside NEGOTIATED").WithSession(c.cfg.ConnectionID)
	}
	frame := fixpwire.EncodeEstablish(fixpwire.Establish{
		UUID:                c.uuid,
		Timestamp:           c.clock.NowNanos(),
		KeepAliveIntervalMs: uint32(c.cfg.KeepAliveIntervalMs),
		NextSeqNo:           c.nextSentSeqNo,
	})
	return c.sendOrRetry(frame, StateSentEstablish, StateRetryEstablish)
}

func (c *Connection) onSentEstablish(templateID uint16, raw []byte) Result {
	switch templateID {
	case fixpwire.TemplateEstablishAck:
		ack, err := fixpwire.DecodeEstablishAck(raw)
		if err != nil {
			return c.disconnect(gwerrors.InvalidMessage)
		}
		c.nextRecvSeqNo = ack.NextSeqNo
		c.state = StateEstablished
		c.log.Info("connection established", logger.SessionID(c.cfg.ConnectionID), logger.Transition("establish_ack", "SENT_ESTABLISH", "ESTABLISHED"))
		return Result{Action: ActionConsume}
	case fixpwire.TemplateEstablishReject:
		c.state = StateEstablishRejected
		return c.disconnect(gwerrors.AuthenticationRejected)
	default:
		return Result{Action: ActionConsume}
	}
}

func (c *Connection) onEstablished(templateID uint16, raw []byte) Result {
	switch templateID {
	case fixpwire.TemplateSequence:
		return Result{Action: ActionConsume}
	case fixpwire.TemplateNotApplied:
		na, err := fixpwire.DecodeNotApplied(raw)
		if err != nil {
			return c.disconnect(gwerrors.InvalidMessage)
		}
		c.openRetransmit(na.FromSeqNo, na.Count)
		return Result{Action: ActionConsume}
	case fixpwire.TemplateTerminate:
		return c.onPeerTerminate()
	case fixpwire.TemplateApplication:
		app, err := fixpwire.DecodeApplication(raw)
		if err != nil {
			return c.disconnect(gwerrors.InvalidMessage)
		}
		if app.SeqNo != c.nextRecvSeqNo {
			return c.disconnect(gwerrors.OutOfSequence)
		}
		c.nextRecvSeqNo++
		return Result{Action: ActionDeliver, SeqNo: app.SeqNo, Payload: app.Payload}
	default:
		return Result{Action: ActionConsume}
	}
}

// openRetransmit enters RETRANSMITTING and republishes the requested
// range with PossRetransFlag.
func (c *Connection) openRetransmit(from uint64, count uint32) {
	c.priorState = c.state
	c.retransmitFillSeqNo = int64(from) + int64(count) - 1
	c.nextRetransmitSeqNo = from
	c.state = StateRetransmitting

	if c.outboundLog != nil {
		for _, rec := range c.outboundLog.Range(from, count) {
			frame := fixpwire.EncodeApplication(fixpwire.Application{
				SeqNo:           rec.SeqNo,
				PossRetransFlag: true,
				Payload:         rec.Payload,
			})
			if c.trySend(frame) == nil {
				c.nextRetransmitSeqNo = rec.SeqNo + 1
			}
		}
	}
	attrs := logger.ResendRange(from, from+uint64(count)-1)
	c.log.Info("retransmit requested", logger.SessionID(c.cfg.ConnectionID), attrs[0], attrs[1])
}

// NextRetransmitSeqNo returns the cursor into an in-flight retransmit:
// the next originally-requested sequence number still owed to the peer.
func (c *Connection) NextRetransmitSeqNo() uint64 { return c.nextRetransmitSeqNo }

// SendApplication assigns the next outbound sequence number and emits an
// application message. If a retransmit is in flight and this send's
// sequence number clears the gap, the connection returns to its prior
// established state.
func (c *Connection) SendApplication(payload []byte) (uint64, error) {
	if c.state != StateEstablished && c.state != StateRetransmitting {
		return 0, gwerrors.New(gwerrors.NotConnected, "connection not established").WithSession(c.cfg.ConnectionID)
	}
	seq := c.nextSentSeqNo
	frame := fixpwire.EncodeApplication(fixpwire.Application{SeqNo: seq, Payload: payload})
	if err := c.trySend(frame); err != nil {
		return 0, err
	}
	c.nextSentSeqNo++

	if c.state == StateRetransmitting && int64(seq) >= c.retransmitFillSeqNo+1 {
		c.retransmitFillSeqNo = retransmitFillSentinel
		c.state = c.priorState
		c.log.Info("retransmit cleared", logger.SessionID(c.cfg.ConnectionID), logger.Transition("retransmit_cleared", "RETRANSMITTING", c.state.String()))
	}
	return seq, nil
}

func (c *Connection) onPeerTerminate() Result {
	frame := fixpwire.EncodeTerminate(fixpwire.Terminate{UUID: c.uuid})
	if err := c.trySend(frame); err != nil {
		c.retryFrame, c.retrySuccessState = frame, StateUnbound
		c.state = StateResendTerminateAck
		return Result{Action: ActionConsume}
	}
	return c.disconnect(0)
}

func (c *Connection) onUnbinding(templateID uint16, raw []byte) Result {
	if templateID == fixpwire.TemplateTerminate {
		return c.disconnect(0)
	}
	return Result{Action: ActionConsume}
}

// Terminate starts a self-initiated unbind: emits Terminate and enters
// UNBINDING (or RESEND_TERMINATE if back-pressured) to await the peer's
// Terminate in reply.
func (c *Connection) Terminate(reason uint8) error {
	if c.state != StateEstablished && c.state != StateRetransmitting {
		return gwerrors.New(gwerrors.NotConnected, "terminate called while not established").WithSession(c.cfg.ConnectionID)
	}
	frame := fixpwire.EncodeTerminate(fixpwire.Terminate{UUID: c.uuid, Reason: reason})
	return c.sendOrRetry(frame, StateUnbinding, StateResendTerminate)
}

// Poll is the driver tick: it retries any back-pressured send first,
// then emits keepalive Sequence messages and detects peer silence.
// Returns the number of actions taken.
func (c *Connection) Poll(nowNs int64) int {
	progress := 0
	if c.flushRetry() {
		progress++
	}

	if c.keepAliveIntervalNs <= 0 {
		return progress
	}

	switch c.state {
	case StateEstablished, StateRetransmitting:
		silence := nowNs - c.lastReceivedTimeNs
		if silence >= 2*c.keepAliveIntervalNs {
			frame := fixpwire.EncodeTerminate(fixpwire.Terminate{UUID: c.uuid})
			c.state = StateAwaitingKeepalive
			if err := c.trySend(frame); err != nil {
				c.retryFrame, c.retrySuccessState = frame, StateUnbinding
				c.state = StateResendTerminate
			} else {
				c.state = StateUnbinding
			}
			progress++
		} else if silence >= c.keepAliveIntervalNs && !c.sequenceSentPending {
			frame := fixpwire.EncodeSequence(fixpwire.Sequence{NextSeqNo: c.nextSentSeqNo})
			_ = c.trySend(frame)
			c.sequenceSentPending = true
			progress++
		}
	case StateUnbinding, StateAwaitingKeepalive:
		if nowNs-c.lastReceivedTimeNs >= 3*c.keepAliveIntervalNs {
			c.disconnect(gwerrors.HeartbeatTimeout)
			progress++
		}
	}
	return progress
}

func (c *Connection) flushRetry() bool {
	if c.retryFrame == nil {
		return false
	}
	if err := c.trySend(c.retryFrame); err != nil {
		return false
	}
	c.retryFrame = nil
	c.state = c.retrySuccessState
	return true
}

func (c *Connection) disconnect(reason gwerrors.Code) Result {
	c.state = StateUnbound
	c.lastDisconnectReason = reason
	c.log.Info("connection unbound", logger.SessionID(c.cfg.ConnectionID), logger.Reason(reason.String()))
	return Result{Action: ActionDisconnect, Reason: reason}
}
