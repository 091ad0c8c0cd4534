// Package fixpwire implements the binary SBE-style wire codec for the
// FIXP/iLink3 side of the gateway: a fixed message header (block length,
// template id, schema id, version) followed by a per-template fixed
// block, little-endian throughout. Unlike fixwire's tag-value framing,
// every field here has a known offset and width.
package fixpwire

import (
	"encoding/binary"
	"fmt"
)

// SchemaID and Version identify the message schema this codec speaks.
const (
	SchemaID = 1
	Version  = 1
)

// Template IDs, one per FIXP message type this gateway exchanges.
const (
	TemplateNegotiate         = 500
	TemplateNegotiateResponse = 501
	TemplateNegotiateReject   = 502
	TemplateEstablish         = 503
	TemplateEstablishAck      = 504
	TemplateEstablishReject   = 505
	TemplateTerminate         = 506
	TemplateSequence          = 507
	TemplateNotApplied        = 508
	TemplateRetransmitRequest = 509
	TemplateRetransmission    = 510
	TemplateApplication       = 511
)

// headerLen is the size in bytes of the SBE message header: BlockLength,
// TemplateID, SchemaID, Version, each a uint16.
const headerLen = 8

// header is the fixed frame every message starts with.
type header struct {
	BlockLength uint16
	TemplateID  uint16
	SchemaID    uint16
	Version     uint16
}

func putHeader(buf []byte, templateID uint16, blockLength uint16) {
	binary.LittleEndian.PutUint16(buf[0:2], blockLength)
	binary.LittleEndian.PutUint16(buf[2:4], templateID)
	binary.LittleEndian.PutUint16(buf[4:6], SchemaID)
	binary.LittleEndian.PutUint16(buf[6:8], Version)
}

func getHeader(buf []byte) (header, error) {
	if len(buf) < headerLen {
		return header{}, errShortBuffer("header", headerLen, len(buf))
	}
	return header{
		BlockLength: binary.LittleEndian.Uint16(buf[0:2]),
		TemplateID:  binary.LittleEndian.Uint16(buf[2:4]),
		SchemaID:    binary.LittleEndian.Uint16(buf[4:6]),
		Version:     binary.LittleEndian.Uint16(buf[6:8]),
	}, nil
}

// Negotiate is the initiator's bid to establish a new connection UUID.
type Negotiate struct {
	UUID                uint64
	Timestamp           int64
	KeepAliveIntervalMs uint32
}

// NegotiateResponse accepts a Negotiate and echoes the prior connection's
// UUID, if any.
type NegotiateResponse struct {
	RequestTimestamp int64
	UUID             uint64
	PreviousUUID     uint64
}

// NegotiateReject refuses a Negotiate.
type NegotiateReject struct {
	RequestTimestamp int64
	RejectCode       uint8
}

// Establish binds sequence numbers to a negotiated UUID.
type Establish struct {
	UUID                uint64
	Timestamp           int64
	KeepAliveIntervalMs uint32
	NextSeqNo           uint64
}

// EstablishAck confirms an Establish.
type EstablishAck struct {
	RequestTimestamp    int64
	NextSeqNo           uint64
	PreviousSeqNo       uint64
	KeepAliveIntervalMs uint32
}

// EstablishReject refuses an Establish.
type EstablishReject struct {
	RequestTimestamp int64
	RejectCode       uint8
}

// Terminate ends a connection, carried either direction.
type Terminate struct {
	UUID   uint64
	Reason uint8
}

// Sequence is the keepalive/heartbeat-equivalent: "here is my next
// expected sequence number."
type Sequence struct {
	NextSeqNo uint64
}

// NotApplied reports a gap: count messages starting at FromSeqNo never
// arrived.
type NotApplied struct {
	FromSeqNo uint64
	Count     uint32
}

// RetransmitRequest asks the peer to republish a range, optionally from a
// prior (now-terminated) connection via LastUUID.
type RetransmitRequest struct {
	UUID      uint64
	LastUUID  uint64
	FromSeqNo uint64
	Count     uint32
}

// Retransmission is the reply to a RetransmitRequest: an envelope around
// the Count application messages starting at NextSeqNo that follow it on
// the wire (each framed as an Application message with PossRetransFlag).
type Retransmission struct {
	UUID               uint64
	LastUUID           uint64
	RequestedFromSeqNo uint64
	Count              uint32
	NextSeqNo          uint64
}

// Application wraps one sequenced application payload. PossRetransFlag
// marks a message replayed during RETRANSMITTING.
type Application struct {
	SeqNo           uint64
	PossRetransFlag bool
	Payload         []byte
}

func errShortBuffer(what string, want, got int) error {
	return fmt.Errorf("fixpwire: %s: need %d bytes, got %d", what, want, got)
}
