package session

import (
	"testing"

	"github.com/wadaptive/artio-go/internal/clock"
	"github.com/wadaptive/artio-go/pkg/fixwire"
	"github.com/wadaptive/artio-go/pkg/gwerrors"
	"github.com/wadaptive/artio-go/pkg/transport"
)

func newPair(t *testing.T, heartbeatMs int64) (*Session, *transport.RingStream, *Session, *transport.RingStream, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(0)

	initStream := transport.NewRingStream(1 << 20)
	acceptStream := transport.NewRingStream(1 << 20)

	initiator := New(Config{
		SessionID:           "sess-1",
		SenderCompID:        "INIT",
		TargetCompID:        "ACC",
		Role:                RoleInitiator,
		HeartbeatIntervalMs: heartbeatMs,
	}, clk, initStream, nil, nil)

	acceptor := New(Config{
		SessionID:           "sess-1",
		SenderCompID:        "ACC",
		TargetCompID:        "INIT",
		Role:                RoleAcceptor,
		HeartbeatIntervalMs: heartbeatMs,
	}, clk, acceptStream, nil, nil)

	return initiator, initStream, acceptor, acceptStream, clk
}

// deliver polls every unconsumed record off of from and feeds the
// decoded messages into to, returning the Result of the last one.
func deliver(t *testing.T, from *transport.RingStream, to *Session, nowNs int64) Result {
	t.Helper()
	var last Result
	from.Poll(func(r transport.Record) bool {
		msg, err := fixwire.Decode(r.Payload)
		if err != nil {
			t.Fatalf("decode relayed frame: %v", err)
		}
		last = to.OnMessage(msg, nowNs)
		return true
	})
	return last
}

func TestScenario1InitiatorAcceptorHandshake(t *testing.T) {
	initiator, initStream, acceptor, acceptStream, clk := newPair(t, 30_000)

	if _, err := initiator.Connect(false); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if initiator.State() != StateSentLogon {
		t.Fatalf("initiator state = %v, want SENT_LOGON", initiator.State())
	}

	deliver(t, initStream, acceptor, clk.NowNanos())
	if acceptor.State() != StateActive {
		t.Fatalf("acceptor state = %v, want ACTIVE", acceptor.State())
	}

	deliver(t, acceptStream, initiator, clk.NowNanos())
	if initiator.State() != StateActive {
		t.Fatalf("initiator state = %v, want ACTIVE", initiator.State())
	}

	seq, err := acceptor.SendApplication(fixwire.MsgTypeTestRequest, []fixwire.Field{
		{Tag: fixwire.TagTestReqID, Value: "abc"},
	})
	if err != nil {
		t.Fatalf("SendApplication(TestRequest): %v", err)
	}
	if seq != 2 {
		t.Fatalf("TestRequest seq = %d, want 2", seq)
	}

	var heartbeat *fixwire.Message
	acceptStream.Poll(func(r transport.Record) bool {
		msg, err := fixwire.Decode(r.Payload)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		result := initiator.OnMessage(msg, clk.NowNanos())
		if result.Action != ActionConsume {
			t.Fatalf("TestRequest result = %v, want CONSUME", result.Action)
		}
		return true
	})

	initStream.Poll(func(r transport.Record) bool {
		msg, err := fixwire.Decode(r.Payload)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		heartbeat = msg
		return true
	})

	if heartbeat == nil {
		t.Fatal("expected a Heartbeat reply")
	}
	if heartbeat.MsgType != fixwire.MsgTypeHeartbeat {
		t.Fatalf("reply MsgType = %q, want Heartbeat", heartbeat.MsgType)
	}
	if seqStr, _ := heartbeat.Get(fixwire.TagMsgSeqNum); seqStr != "2" {
		t.Fatalf("Heartbeat seq = %q, want 2", seqStr)
	}
	if testReqID, _ := heartbeat.Get(fixwire.TagTestReqID); testReqID != "abc" {
		t.Fatalf("Heartbeat TestReqID = %q, want abc", testReqID)
	}
}

func TestScenario2GapAndResend(t *testing.T) {
	_, _, acceptor, acceptStream, clk := newPair(t, 30_000)

	acceptor.state = StateActive
	acceptor.nextRecvSeqNo = 5
	acceptor.nextSentSeqNo = 5

	msg7 := fixwire.NewMessage("D")
	msg7.Set(fixwire.TagMsgSeqNum, "7")
	result := acceptor.OnMessage(msg7, clk.NowNanos())
	if result.Action != ActionQueue {
		t.Fatalf("seq=7 result = %v, want QUEUE", result.Action)
	}
	if acceptor.State() != StateAwaitingResend {
		t.Fatalf("state = %v, want AWAITING_RESEND", acceptor.State())
	}

	var resendReq *fixwire.Message
	acceptStream.Poll(func(r transport.Record) bool {
		msg, err := fixwire.Decode(r.Payload)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		resendReq = msg
		return true
	})
	if resendReq == nil || resendReq.MsgType != fixwire.MsgTypeResendRequest {
		t.Fatalf("expected a ResendRequest, got %v", resendReq)
	}
	if from, _ := resendReq.Get(fixwire.TagBeginSeqNo); from != "5" {
		t.Fatalf("BeginSeqNo = %q, want 5", from)
	}
	if to, _ := resendReq.Get(fixwire.TagEndSeqNo); to != "6" {
		t.Fatalf("EndSeqNo = %q, want 6", to)
	}

	msg5 := fixwire.NewMessage("D")
	msg5.Set(fixwire.TagMsgSeqNum, "5")
	msg5.Set(fixwire.TagPossDupFlag, "Y")
	if r := acceptor.OnMessage(msg5, clk.NowNanos()); r.Action != ActionDeliver {
		t.Fatalf("replayed seq=5 result = %v, want DELIVER", r.Action)
	}
	if acceptor.State() != StateAwaitingResend {
		t.Fatalf("state after seq=5 = %v, want AWAITING_RESEND", acceptor.State())
	}

	msg6 := fixwire.NewMessage("D")
	msg6.Set(fixwire.TagMsgSeqNum, "6")
	msg6.Set(fixwire.TagPossDupFlag, "Y")
	final := acceptor.OnMessage(msg6, clk.NowNanos())
	if final.Action != ActionDeliver {
		t.Fatalf("replayed seq=6 result = %v, want DELIVER (drained queue)", final.Action)
	}
	if acceptor.State() != StateActive {
		t.Fatalf("final state = %v, want ACTIVE", acceptor.State())
	}
	if acceptor.NextRecvSeqNo() != 8 {
		t.Fatalf("next_recv_seq_no = %d, want 8", acceptor.NextRecvSeqNo())
	}
}

func TestScenario3LogoutAndReset(t *testing.T) {
	initiator, initStream, acceptor, acceptStream, clk := newPair(t, 30_000)
	initiator.cfg.PersistenceMode = PersistencePersistent
	acceptor.cfg.PersistenceMode = PersistencePersistent

	initiator.Connect(false)
	deliver(t, initStream, acceptor, clk.NowNanos())
	deliver(t, acceptStream, initiator, clk.NowNanos())

	if initiator.State() != StateActive || acceptor.State() != StateActive {
		t.Fatal("handshake did not complete")
	}

	if _, err := initiator.StartLogout(); err != nil {
		t.Fatalf("StartLogout: %v", err)
	}
	deliver(t, initStream, acceptor, clk.NowNanos())
	if acceptor.State() != StateAwaitingLogout {
		t.Fatalf("acceptor state = %v, want AWAITING_LOGOUT", acceptor.State())
	}

	deliver(t, acceptStream, initiator, clk.NowNanos())
	if initiator.State() != StateDisconnected {
		t.Fatalf("initiator state = %v, want DISCONNECTED", initiator.State())
	}

	clk.Advance(2 * 30_000 * 1_000_000)
	acceptor.Poll(clk.NowNanos())
	if acceptor.State() != StateDisconnected {
		t.Fatalf("acceptor state after timer = %v, want DISCONNECTED", acceptor.State())
	}

	if initiator.NextSentSeqNo() <= 2 || initiator.SequenceIndex() != 0 {
		t.Fatalf("PERSISTENT session should carry its sequence numbers across disconnect")
	}

	initiator2 := New(Config{
		SessionID:           "sess-1",
		SenderCompID:        "INIT",
		TargetCompID:        "ACC",
		Role:                RoleInitiator,
		HeartbeatIntervalMs: 30_000,
		PersistenceMode:     PersistencePersistent,
	}, clk, initStream, nil, nil)
	acceptor2 := New(Config{
		SessionID:           "sess-1",
		SenderCompID:        "ACC",
		TargetCompID:        "INIT",
		Role:                RoleAcceptor,
		HeartbeatIntervalMs: 30_000,
		PersistenceMode:     PersistencePersistent,
	}, clk, acceptStream, nil, nil)

	if _, err := initiator2.Connect(true); err != nil {
		t.Fatalf("reconnect Connect: %v", err)
	}
	deliver(t, initStream, acceptor2, clk.NowNanos())
	deliver(t, acceptStream, initiator2, clk.NowNanos())

	if initiator2.SequenceIndex() != 1 || acceptor2.SequenceIndex() != 1 {
		t.Fatalf("sequence_index after reset = %d/%d, want 1/1", initiator2.SequenceIndex(), acceptor2.SequenceIndex())
	}
	if initiator2.NextSentSeqNo() != 2 {
		t.Fatalf("next_sent_seq_no after reset logon = %d, want 2", initiator2.NextSentSeqNo())
	}

	seq, err := initiator2.SendApplication("D", nil)
	if err != nil {
		t.Fatalf("SendApplication after reset: %v", err)
	}
	if seq != 2 {
		t.Fatalf("next app message seq = %d, want 2", seq)
	}
}

func TestScenario4HeartbeatTimeout(t *testing.T) {
	_, _, acceptor, acceptStream, clk := newPair(t, 1_000)
	acceptor.state = StateActive
	acceptor.lastReceivedTimeNs = clk.NowNanos()
	acceptor.lastSentTimeNs = clk.NowNanos()

	clk.Advance(1_200_000_000)
	acceptor.Poll(clk.NowNanos())
	if acceptor.State() != StateActive {
		t.Fatalf("state after 1.2s = %v, want still ACTIVE", acceptor.State())
	}

	var testReq *fixwire.Message
	acceptStream.Poll(func(r transport.Record) bool {
		msg, err := fixwire.Decode(r.Payload)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		testReq = msg
		return true
	})
	if testReq == nil || testReq.MsgType != fixwire.MsgTypeTestRequest {
		t.Fatalf("expected a TestRequest after 1.2x heartbeat interval, got %v", testReq)
	}

	clk.Advance(1_200_000_000)
	acceptor.Poll(clk.NowNanos())
	if acceptor.State() != StateDisconnected {
		t.Fatalf("state after 2.4s total silence = %v, want DISCONNECTED", acceptor.State())
	}
	if acceptor.LastDisconnectReason() != gwerrors.HeartbeatTimeout {
		t.Fatalf("disconnect reason = %v, want HeartbeatTimeout", acceptor.LastDisconnectReason())
	}
}

func TestSendApplicationRejectedWhenNotConnected(t *testing.T) {
	initiator, _, _, _, _ := newPair(t, 30_000)
	_, err := initiator.SendApplication("D", nil)
	if err == nil {
		t.Fatal("expected NotConnected error before logon completes")
	}
	ge, ok := err.(*gwerrors.Error)
	if !ok || ge.Code != gwerrors.NotConnected {
		t.Fatalf("expected NotConnected error, got %v", err)
	}
}

func TestStartLogoutIsIdempotent(t *testing.T) {
	initiator, initStream, acceptor, acceptStream, clk := newPair(t, 30_000)
	initiator.Connect(false)
	deliver(t, initStream, acceptor, clk.NowNanos())
	deliver(t, acceptStream, initiator, clk.NowNanos())

	seq1, err := initiator.StartLogout()
	if err != nil {
		t.Fatalf("StartLogout: %v", err)
	}
	seq2, err := initiator.StartLogout()
	if err != nil {
		t.Fatalf("second StartLogout: %v", err)
	}
	if seq1 != seq2 {
		t.Fatalf("second StartLogout returned %d, want idempotent %d", seq2, seq1)
	}
}
