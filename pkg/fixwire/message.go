// Package fixwire implements the tag-value ASCII wire codec for the FIX
// side of the gateway: encoding and decoding SOH-delimited messages for
// the tag set the session state machine inspects directly. Every other
// tag is carried as opaque payload.
package fixwire

// SOH is the FIX field separator (0x01).
const SOH = byte(0x01)

// Tag numbers the session state machine inspects. All other tags pass
// through as opaque fields.
const (
	TagBeginString    = 8
	TagBodyLength     = 9
	TagMsgType        = 35
	TagCheckSum       = 10
	TagMsgSeqNum      = 34
	TagPossDupFlag    = 43
	TagSenderCompID   = 49
	TagSendingTime    = 52
	TagTargetCompID   = 56
	TagEncryptMethod  = 98
	TagHeartBtInt     = 108
	TagTestReqID      = 112
	TagResetSeqNumFlg = 141
	TagBeginSeqNo     = 7
	TagEndSeqNo       = 16
	TagNewSeqNo       = 36
	TagGapFillFlag    = 123
	TagUsername       = 553
	TagPassword       = 554
)

// MsgType values the session state machine dispatches on.
const (
	MsgTypeLogon           = "A"
	MsgTypeLogout          = "5"
	MsgTypeHeartbeat       = "0"
	MsgTypeTestRequest     = "1"
	MsgTypeResendRequest   = "2"
	MsgTypeSequenceReset   = "4"
	MsgTypeReject          = "3"
)

// Field is a single tag=value pair in wire order.
type Field struct {
	Tag   int
	Value string
}

// Message is a decoded (or to-be-encoded) FIX message: BeginString,
// BodyLength, and CheckSum are derived at encode time and are not stored
// as ordinary fields.
type Message struct {
	MsgType string
	Fields  []Field
}

// NewMessage creates an empty message of the given MsgType.
func NewMessage(msgType string) *Message {
	return &Message{MsgType: msgType}
}

// Set appends or replaces a tag's value, preserving first-seen order.
func (m *Message) Set(tag int, value string) *Message {
	for i := range m.Fields {
		if m.Fields[i].Tag == tag {
			m.Fields[i].Value = value
			return m
		}
	}
	m.Fields = append(m.Fields, Field{Tag: tag, Value: value})
	return m
}

// Get returns a field's value and whether it was present.
func (m *Message) Get(tag int) (string, bool) {
	for _, f := range m.Fields {
		if f.Tag == tag {
			return f.Value, true
		}
	}
	return "", false
}
