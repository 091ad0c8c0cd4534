package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// These keys are designed to be dialect-agnostic, supporting FIX and FIXP.
// Use these keys consistently across all log statements for log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Dialect & Message
	// ========================================================================
	KeyDialect   = "dialect"    // Wire dialect: fix, fixp
	KeyMsgType   = "msg_type"   // FIX MsgType (35) / FIXP message name
	KeyStatus    = "status"     // Operation status code
	KeyStatusMsg = "status_msg" // Human-readable status message

	// ========================================================================
	// Session & Connection Identification
	// ========================================================================
	KeySessionID    = "session_id"    // Stable session identifier
	KeyConnectionID = "connection_id" // Per-TCP-attach connection identifier
	KeyLibraryID    = "library_id"    // Owning library worker identifier
	KeySenderCompID = "sender_comp_id"
	KeyTargetCompID = "target_comp_id"
	KeyUsername     = "username"

	// ========================================================================
	// Sequencing
	// ========================================================================
	KeySeqNum       = "seq_num"        // MsgSeqNum (34) on the wire
	KeyNextSent     = "next_sent"      // next_sent_seq_no
	KeyNextRecv     = "next_recv"      // next_recv_seq_no
	KeySequenceIdx  = "sequence_index" // generation counter on reset
	KeyResendFrom   = "resend_from"    // BeginSeqNo (7)
	KeyResendTo     = "resend_to"      // EndSeqNo (16)
	KeyGapFillTo    = "gap_fill_to"    // NewSeqNo (36) on SequenceReset-GapFill

	// ========================================================================
	// FIXP Specific
	// ========================================================================
	KeyUUID            = "uuid"
	KeyLastUUID         = "last_uuid"
	KeyRetransmitFill   = "retransmit_fill_seq_no"
	KeyNextRetransmit   = "next_retransmit_seq_no"

	// ========================================================================
	// State Machine
	// ========================================================================
	KeyFromState = "from_state"
	KeyToState   = "to_state"
	KeyEvent     = "event"
	KeyReason    = "reason" // DisconnectReason

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyErrorCode  = "error_code"
	KeyAttempt    = "attempt"

	// ========================================================================
	// Message Logger / Reordering Buffer
	// ========================================================================
	KeyTimestampNs    = "timestamp_ns"
	KeyStreamOrigin   = "stream_origin"
	KeyWatermarkNs    = "watermark_ns"
	KeyBufferPosition = "buffer_position"
	KeyDiscontinuity  = "discontinuity_count"
)

// ----------------------------------------------------------------------------
// Distributed Tracing
// ----------------------------------------------------------------------------

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// ----------------------------------------------------------------------------
// Dialect & Message
// ----------------------------------------------------------------------------

// Dialect returns a slog.Attr for the wire dialect (fix, fixp)
func Dialect(d string) slog.Attr {
	return slog.String(KeyDialect, d)
}

// MsgType returns a slog.Attr for the message type
func MsgType(t string) slog.Attr {
	return slog.String(KeyMsgType, t)
}

// Status returns a slog.Attr for operation status code
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// StatusMsg returns a slog.Attr for human-readable status message
func StatusMsg(msg string) slog.Attr {
	return slog.String(KeyStatusMsg, msg)
}

// ----------------------------------------------------------------------------
// Session & Connection
// ----------------------------------------------------------------------------

// SessionID returns a slog.Attr for session identifier
func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

// ConnectionID returns a slog.Attr for connection identifier
func ConnectionID(id string) slog.Attr {
	return slog.String(KeyConnectionID, id)
}

// LibraryID returns a slog.Attr for the owning library worker identifier
func LibraryID(id string) slog.Attr {
	return slog.String(KeyLibraryID, id)
}

// SenderCompID returns a slog.Attr for SenderCompID (49)
func SenderCompID(id string) slog.Attr {
	return slog.String(KeySenderCompID, id)
}

// TargetCompID returns a slog.Attr for TargetCompID (56)
func TargetCompID(id string) slog.Attr {
	return slog.String(KeyTargetCompID, id)
}

// Username returns a slog.Attr for username (553)
func Username(name string) slog.Attr {
	return slog.String(KeyUsername, name)
}

// ----------------------------------------------------------------------------
// Sequencing
// ----------------------------------------------------------------------------

// SeqNum returns a slog.Attr for MsgSeqNum (34)
func SeqNum(n uint64) slog.Attr {
	return slog.Uint64(KeySeqNum, n)
}

// NextSent returns a slog.Attr for next_sent_seq_no
func NextSent(n uint64) slog.Attr {
	return slog.Uint64(KeyNextSent, n)
}

// NextRecv returns a slog.Attr for next_recv_seq_no
func NextRecv(n uint64) slog.Attr {
	return slog.Uint64(KeyNextRecv, n)
}

// SequenceIndex returns a slog.Attr for the reset generation counter
func SequenceIndex(idx uint32) slog.Attr {
	return slog.Uint64(KeySequenceIdx, uint64(idx))
}

// ResendRange returns slog.Attrs for a ResendRequest range
func ResendRange(from, to uint64) []slog.Attr {
	return []slog.Attr{slog.Uint64(KeyResendFrom, from), slog.Uint64(KeyResendTo, to)}
}

// GapFillTo returns a slog.Attr for SequenceReset-GapFill's NewSeqNo
func GapFillTo(n uint64) slog.Attr {
	return slog.Uint64(KeyGapFillTo, n)
}

// ----------------------------------------------------------------------------
// FIXP Specific
// ----------------------------------------------------------------------------

// UUID returns a slog.Attr for the FIXP connection uuid
func UUID(id uint64) slog.Attr {
	return slog.Uint64(KeyUUID, id)
}

// LastUUID returns a slog.Attr for the previous accepted uuid
func LastUUID(id uint64) slog.Attr {
	return slog.Uint64(KeyLastUUID, id)
}

// RetransmitFill returns a slog.Attr for retransmit_fill_seq_no
func RetransmitFill(n int64) slog.Attr {
	return slog.Int64(KeyRetransmitFill, n)
}

// ----------------------------------------------------------------------------
// State Machine
// ----------------------------------------------------------------------------

// Transition returns slog.Attrs describing a state transition
func Transition(event, from, to string) []slog.Attr {
	return []slog.Attr{slog.String(KeyEvent, event), slog.String(KeyFromState, from), slog.String(KeyToState, to)}
}

// Reason returns a slog.Attr for a disconnect reason
func Reason(r string) slog.Attr {
	return slog.String(KeyReason, r)
}

// ----------------------------------------------------------------------------
// Operation Metadata
// ----------------------------------------------------------------------------

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for numeric error code
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}

// Attempt returns a slog.Attr for retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// ----------------------------------------------------------------------------
// Message Logger / Reordering Buffer
// ----------------------------------------------------------------------------

// TimestampNs returns a slog.Attr for a record's nanosecond timestamp
func TimestampNs(ts int64) slog.Attr {
	return slog.Int64(KeyTimestampNs, ts)
}

// StreamOrigin returns a slog.Attr for which input stream a record came from
func StreamOrigin(origin string) slog.Attr {
	return slog.String(KeyStreamOrigin, origin)
}

// WatermarkNs returns a slog.Attr for the replay watermark timestamp
func WatermarkNs(ts int64) slog.Attr {
	return slog.Int64(KeyWatermarkNs, ts)
}

// BufferPosition returns a slog.Attr for the reordering buffer's live position
func BufferPosition(pos int) slog.Attr {
	return slog.Int(KeyBufferPosition, pos)
}

// Discontinuity returns a slog.Attr for the discontinuity counter
func Discontinuity(n uint64) slog.Attr {
	return slog.Uint64(KeyDiscontinuity, n)
}
