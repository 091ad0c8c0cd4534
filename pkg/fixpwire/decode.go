package fixpwire

import "encoding/binary"

// PeekTemplateID reads only the SBE header to let the caller dispatch
// before committing to a full decode.
func PeekTemplateID(data []byte) (uint16, error) {
	h, err := getHeader(data)
	if err != nil {
		return 0, err
	}
	return h.TemplateID, nil
}

func body(data []byte, want int) ([]byte, error) {
	h, err := getHeader(data)
	if err != nil {
		return nil, err
	}
	if int(h.BlockLength) < want {
		return nil, errShortBuffer("block", want, int(h.BlockLength))
	}
	if len(data) < headerLen+want {
		return nil, errShortBuffer("body", headerLen+want, len(data))
	}
	return data[headerLen:], nil
}

func DecodeNegotiate(data []byte) (Negotiate, error) {
	b, err := body(data, blockLenNegotiate)
	if err != nil {
		return Negotiate{}, err
	}
	return Negotiate{
		UUID:                binary.LittleEndian.Uint64(b[0:8]),
		Timestamp:           int64(binary.LittleEndian.Uint64(b[8:16])),
		KeepAliveIntervalMs: binary.LittleEndian.Uint32(b[16:20]),
	}, nil
}

func DecodeNegotiateResponse(data []byte) (NegotiateResponse, error) {
	b, err := body(data, blockLenNegotiateResponse)
	if err != nil {
		return NegotiateResponse{}, err
	}
	return NegotiateResponse{
		RequestTimestamp: int64(binary.LittleEndian.Uint64(b[0:8])),
		UUID:             binary.LittleEndian.Uint64(b[8:16]),
		PreviousUUID:     binary.LittleEndian.Uint64(b[16:24]),
	}, nil
}

func DecodeNegotiateReject(data []byte) (NegotiateReject, error) {
	b, err := body(data, blockLenNegotiateReject)
	if err != nil {
		return NegotiateReject{}, err
	}
	return NegotiateReject{
		RequestTimestamp: int64(binary.LittleEndian.Uint64(b[0:8])),
		RejectCode:       b[8],
	}, nil
}

func DecodeEstablish(data []byte) (Establish, error) {
	b, err := body(data, blockLenEstablish)
	if err != nil {
		return Establish{}, err
	}
	return Establish{
		UUID:                binary.LittleEndian.Uint64(b[0:8]),
		Timestamp:           int64(binary.LittleEndian.Uint64(b[8:16])),
		KeepAliveIntervalMs: binary.LittleEndian.Uint32(b[16:20]),
		NextSeqNo:           binary.LittleEndian.Uint64(b[20:28]),
	}, nil
}

func DecodeEstablishAck(data []byte) (EstablishAck, error) {
	b, err := body(data, blockLenEstablishAck)
	if err != nil {
		return EstablishAck{}, err
	}
	return EstablishAck{
		RequestTimestamp:    int64(binary.LittleEndian.Uint64(b[0:8])),
		NextSeqNo:           binary.LittleEndian.Uint64(b[8:16]),
		PreviousSeqNo:       binary.LittleEndian.Uint64(b[16:24]),
		KeepAliveIntervalMs: binary.LittleEndian.Uint32(b[24:28]),
	}, nil
}

func DecodeEstablishReject(data []byte) (EstablishReject, error) {
	b, err := body(data, blockLenEstablishReject)
	if err != nil {
		return EstablishReject{}, err
	}
	return EstablishReject{
		RequestTimestamp: int64(binary.LittleEndian.Uint64(b[0:8])),
		RejectCode:       b[8],
	}, nil
}

func DecodeTerminate(data []byte) (Terminate, error) {
	b, err := body(data, blockLenTerminate)
	if err != nil {
		return Terminate{}, err
	}
	return Terminate{
		UUID:   binary.LittleEndian.Uint64(b[0:8]),
		Reason: b[8],
	}, nil
}

func DecodeSequence(data []byte) (Sequence, error) {
	b, err := body(data, blockLenSequence)
	if err != nil {
		return Sequence{}, err
	}
	return Sequence{NextSeqNo: binary.LittleEndian.Uint64(b[0:8])}, nil
}

func DecodeNotApplied(data []byte) (NotApplied, error) {
	b, err := body(data, blockLenNotApplied)
	if err != nil {
		return NotApplied{}, err
	}
	return NotApplied{
		FromSeqNo: binary.LittleEndian.Uint64(b[0:8]),
		Count:     binary.LittleEndian.Uint32(b[8:12]),
	}, nil
}

func DecodeRetransmitRequest(data []byte) (RetransmitRequest, error) {
	b, err := body(data, blockLenRetransmitRequest)
	if err != nil {
		return RetransmitRequest{}, err
	}
	return RetransmitRequest{
		UUID:      binary.LittleEndian.Uint64(b[0:8]),
		LastUUID:  binary.LittleEndian.Uint64(b[8:16]),
		FromSeqNo: binary.LittleEndian.Uint64(b[16:24]),
		Count:     binary.LittleEndian.Uint32(b[24:28]),
	}, nil
}

func DecodeRetransmission(data []byte) (Retransmission, error) {
	b, err := body(data, blockLenRetransmission)
	if err != nil {
		return Retransmission{}, err
	}
	return Retransmission{
		UUID:               binary.LittleEndian.Uint64(b[0:8]),
		LastUUID:           binary.LittleEndian.Uint64(b[8:16]),
		RequestedFromSeqNo: binary.LittleEndian.Uint64(b[16:24]),
		Count:              binary.LittleEndian.Uint32(b[24:28]),
		NextSeqNo:          binary.LittleEndian.Uint64(b[28:36]),
	}, nil
}

func DecodeApplication(data []byte) (Application, error) {
	b, err := body(data, blockLenApplication)
	if err != nil {
		return Application{}, err
	}
	payload := make([]byte, len(b)-blockLenApplication)
	copy(payload, b[blockLenApplication:])
	return Application{
		SeqNo:           binary.LittleEndian.Uint64(b[0:8]),
		PossRetransFlag: b[8] == 1,
		Payload:         payload,
	}, nil
}
