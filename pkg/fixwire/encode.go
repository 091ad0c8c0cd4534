package fixwire

import (
	"bytes"
	"fmt"
	"strconv"
)

// BeginString is the FIX version tag this gateway speaks on the wire.
const BeginString = "FIX.4.4"

// Encode serializes a Message into a framed FIX buffer: BeginString,
// BodyLength, MsgType and fields, then CheckSum.
//
// Per the tag-value wire format, BodyLength (9) covers everything after
// the BodyLength field itself up to and including the SOH before
// CheckSum; CheckSum (10) is the mod-256 sum of every preceding byte
// including its own trailing SOH from the prior field, rendered as a
// zero-padded three-digit decimal.
func Encode(m *Message) ([]byte, error) {
	if m.MsgType == "" {
		return nil, fmt.Errorf("fixwire: encode: empty MsgType")
	}

	var body bytes.Buffer
	if err := writeField(&body, TagMsgType, m.MsgType); err != nil {
		return nil, err
	}
	for _, f := range m.Fields {
		if err := writeField(&body, f.Tag, f.Value); err != nil {
			return nil, err
		}
	}

	var head bytes.Buffer
	if err := writeField(&head, TagBeginString, BeginString); err != nil {
		return nil, err
	}
	if err := writeField(&head, TagBodyLength, strconv.Itoa(body.Len())); err != nil {
		return nil, err
	}

	var framed bytes.Buffer
	framed.Write(head.Bytes())
	framed.Write(body.Bytes())

	checksum := checksumOf(framed.Bytes())
	if err := writeField(&framed, TagCheckSum, fmt.Sprintf("%03d", checksum)); err != nil {
		return nil, err
	}

	return framed.Bytes(), nil
}

// writeField appends "tag=value<SOH>" to buf.
func writeField(buf *bytes.Buffer, tag int, value string) error {
	if _, err := fmt.Fprintf(buf, "%d=%s", tag, value); err != nil {
		return fmt.Errorf("fixwire: write tag %d: %w", tag, err)
	}
	return buf.WriteByte(SOH)
}

// checksumOf computes the FIX checksum: the sum of every byte mod 256.
func checksumOf(data []byte) int {
	var sum int
	for _, b := range data {
		sum += int(b)
	}
	return sum % 256
}
