package fixpwire

import "encoding/binary"

// Each Encode* writes the SBE header followed by the template's fixed
// block; block lengths are declared here rather than computed, matching
// the schema's fixed layout.

const (
	blockLenNegotiate         = 8 + 8 + 4
	blockLenNegotiateResponse = 8 + 8 + 8
	blockLenNegotiateReject   = 8 + 1
	blockLenEstablish         = 8 + 8 + 4 + 8
	blockLenEstablishAck      = 8 + 8 + 8 + 4
	blockLenEstablishReject   = 8 + 1
	blockLenTerminate         = 8 + 1
	blockLenSequence          = 8
	blockLenNotApplied        = 8 + 4
	blockLenRetransmitRequest = 8 + 8 + 8 + 4
	blockLenRetransmission    = 8 + 8 + 8 + 4 + 8
	blockLenApplication       = 8 + 1
)

func EncodeNegotiate(m Negotiate) []byte {
	buf := make([]byte, headerLen+blockLenNegotiate)
	putHeader(buf, TemplateNegotiate, blockLenNegotiate)
	b := buf[headerLen:]
	binary.LittleEndian.PutUint64(b[0:8], m.UUID)
	binary.LittleEndian.PutUint64(b[8:16], uint64(m.Timestamp))
	binary.LittleEndian.PutUint32(b[16:20], m.KeepAliveIntervalMs)
	return buf
}

func EncodeNegotiateResponse(m NegotiateResponse) []byte {
	buf := make([]byte, headerLen+blockLenNegotiateResponse)
	putHeader(buf, TemplateNegotiateResponse, blockLenNegotiateResponse)
	b := buf[headerLen:]
	binary.LittleEndian.PutUint64(b[0:8], uint64(m.RequestTimestamp))
	binary.LittleEndian.PutUint64(b[8:16], m.UUID)
	binary.LittleEndian.PutUint64(b[16:24], m.PreviousUUID)
	return buf
}

func EncodeNegotiateReject(m NegotiateReject) []byte {
	buf := make([]byte, headerLen+blockLenNegotiateReject)
	putHeader(buf, TemplateNegotiateReject, blockLenNegotiateReject)
	b := buf[headerLen:]
	binary.LittleEndian.PutUint64(b[0:8], uint64(m.RequestTimestamp))
	b[8] = m.RejectCode
	return buf
}

func EncodeEstablish(m Establish) []byte {
	buf := make([]byte, headerLen+blockLenEstablish)
	putHeader(buf, TemplateEstablish, blockLenEstablish)
	b := buf[headerLen:]
	binary.LittleEndian.PutUint64(b[0:8], m.UUID)
	binary.LittleEndian.PutUint64(b[8:16], uint64(m.Timestamp))
	binary.LittleEndian.PutUint32(b[16:20], m.KeepAliveIntervalMs)
	binary.LittleEndian.PutUint64(b[20:28], m.NextSeqNo)
	return buf
}

func EncodeEstablishAck(m EstablishAck) []byte {
	buf := make([]byte, headerLen+blockLenEstablishAck)
	putHeader(buf, TemplateEstablishAck, blockLenEstablishAck)
	b := buf[headerLen:]
	binary.LittleEndian.PutUint64(b[0:8], uint64(m.RequestTimestamp))
	binary.LittleEndian.PutUint64(b[8:16], m.NextSeqNo)
	binary.LittleEndian.PutUint64(b[16:24], m.PreviousSeqNo)
	binary.LittleEndian.PutUint32(b[24:28], m.KeepAliveIntervalMs)
	return buf
}

func EncodeEstablishReject(m EstablishReject) []byte {
	buf := make([]byte, headerLen+blockLenEstablishReject)
	putHeader(buf, TemplateEstablishReject, blockLenEstablishReject)
	b := buf[headerLen:]
	binary.LittleEndian.PutUint64(b[0:8], uint64(m.RequestTimestamp))
	b[8] = m.RejectCode
	return buf
}

func EncodeTerminate(m Terminate) []byte {
	buf := make([]byte, headerLen+blockLenTerminate)
	putHeader(buf, TemplateTerminate, blockLenTerminate)
	b := buf[headerLen:]
	binary.LittleEndian.PutUint64(b[0:8], m.UUID)
	b[8] = m.Reason
	return buf
}

func EncodeSequence(m Sequence) []byte {
	buf := make([]byte, headerLen+blockLenSequence)
	putHeader(buf, TemplateSequence, blockLenSequence)
	binary.LittleEndian.PutUint64(buf[headerLen:headerLen+8], m.NextSeqNo)
	return buf
}

func EncodeNotApplied(m NotApplied) []byte {
	buf := make([]byte, headerLen+blockLenNotApplied)
	putHeader(buf, TemplateNotApplied, blockLenNotApplied)
	b := buf[headerLen:]
	binary.LittleEndian.PutUint64(b[0:8], m.FromSeqNo)
	binary.LittleEndian.PutUint32(b[8:12], m.Count)
	return buf
}

func EncodeRetransmitRequest(m RetransmitRequest) []byte {
	buf := make([]byte, headerLen+blockLenRetransmitRequest)
	putHeader(buf, TemplateRetransmitRequest, blockLenRetransmitRequest)
	b := buf[headerLen:]
	binary.LittleEndian.PutUint64(b[0:8], m.UUID)
	binary.LittleEndian.PutUint64(b[8:16], m.LastUUID)
	binary.LittleEndian.PutUint64(b[16:24], m.FromSeqNo)
	binary.LittleEndian.PutUint32(b[24:28], m.Count)
	return buf
}

func EncodeRetransmission(m Retransmission) []byte {
	buf := make([]byte, headerLen+blockLenRetransmission)
	putHeader(buf, TemplateRetransmission, blockLenRetransmission)
	b := buf[headerLen:]
	binary.LittleEndian.PutUint64(b[0:8], m.UUID)
	binary.LittleEndian.PutUint64(b[8:16], m.LastUUID)
	binary.LittleEndian.PutUint64(b[16:24], m.RequestedFromSeqNo)
	binary.LittleEndian.PutUint32(b[24:28], m.Count)
	binary.LittleEndian.PutUint64(b[28:36], m.NextSeqNo)
	return buf
}

func EncodeApplication(m Application) []byte {
	buf := make([]byte, headerLen+blockLenApplication+len(m.Payload))
	putHeader(buf, TemplateApplication, blockLenApplication)
	b := buf[headerLen:]
	binary.LittleEndian.PutUint64(b[0:8], m.SeqNo)
	if m.PossRetransFlag {
		b[8] = 1
	}
	copy(b[blockLenApplication:], m.Payload)
	return buf
}
