package fixwire

import (
	"bytes"
	"fmt"
	"strconv"
)

// Decode parses a single framed FIX message. It validates BeginString,
// BodyLength, and CheckSum, then returns the remaining tags (excluding
// the three framing tags) as an ordered Message.
//
// A validation failure here is an InvalidMessage condition for the
// caller: malformed framing is always terminal for the session.
func Decode(data []byte) (*Message, error) {
	fields, err := splitFields(data)
	if err != nil {
		return nil, err
	}
	if len(fields) < 3 {
		return nil, fmt.Errorf("fixwire: decode: too few fields (%d)", len(fields))
	}

	if fields[0].Tag != TagBeginString {
		return nil, fmt.Errorf("fixwire: decode: first tag is %d, want BeginString(8)", fields[0].Tag)
	}
	if fields[1].Tag != TagBodyLength {
		return nil, fmt.Errorf("fixwire: decode: second tag is %d, want BodyLength(9)", fields[1].Tag)
	}
	last := fields[len(fields)-1]
	if last.Tag != TagCheckSum {
		return nil, fmt.Errorf("fixwire: decode: last tag is %d, want CheckSum(10)", last.Tag)
	}

	declaredLen, err := strconv.Atoi(fields[1].Value)
	if err != nil {
		return nil, fmt.Errorf("fixwire: decode: bad BodyLength %q: %w", fields[1].Value, err)
	}

	headEnd, err := fieldEnd(data, 2)
	if err != nil {
		return nil, err
	}
	checksumStart := bytes.LastIndexByte(data[:len(data)-1], SOH) + 1
	actualLen := checksumStart - headEnd
	if actualLen != declaredLen {
		return nil, fmt.Errorf("fixwire: decode: BodyLength mismatch: declared %d, actual %d", declaredLen, actualLen)
	}

	declaredSum, err := strconv.Atoi(last.Value)
	if err != nil {
		return nil, fmt.Errorf("fixwire: decode: bad CheckSum %q: %w", last.Value, err)
	}
	actualSum := checksumOf(data[:checksumStart])
	if actualSum != declaredSum {
		return nil, fmt.Errorf("fixwire: decode: CheckSum mismatch: declared %03d, actual %03d", declaredSum, actualSum)
	}

	body := fields[2 : len(fields)-1]
	if len(body) == 0 || body[0].Tag != TagMsgType {
		return nil, fmt.Errorf("fixwire: decode: first body tag is not MsgType(35)")
	}

	msg := &Message{MsgType: body[0].Value}
	msg.Fields = make([]Field, 0, len(body)-1)
	msg.Fields = append(msg.Fields, body[1:]...)
	return msg, nil
}

// splitFields parses "tag=value" pairs separated by SOH. A trailing SOH
// with no following field is expected and not itself a field.
func splitFields(data []byte) ([]Field, error) {
	var fields []Field
	start := 0
	for start < len(data) {
		idx := bytes.IndexByte(data[start:], SOH)
		if idx < 0 {
			return nil, fmt.Errorf("fixwire: decode: unterminated field at offset %d", start)
		}
		raw := data[start : start+idx]
		eq := bytes.IndexByte(raw, '=')
		if eq < 0 {
			return nil, fmt.Errorf("fixwire: decode: field %q missing '='", raw)
		}
		tag, err := strconv.Atoi(string(raw[:eq]))
		if err != nil {
			return nil, fmt.Errorf("fixwire: decode: bad tag %q: %w", raw[:eq], err)
		}
		fields = append(fields, Field{Tag: tag, Value: string(raw[eq+1:])})
		start += idx + 1
	}
	return fields, nil
}

// fieldEnd returns the byte offset immediately after the nth field's SOH,
// i.e. where the (n)th field (0-indexed) begins.
func fieldEnd(data []byte, n int) (int, error) {
	start := 0
	for i := 0; i < n; i++ {
		idx := bytes.IndexByte(data[start:], SOH)
		if idx < 0 {
			return 0, fmt.Errorf("fixwire: decode: unterminated field at offset %d", start)
		}
		start += idx + 1
	}
	return start, nil
}
