package session

import (
	"strconv"

	"github.com/wadaptive/artio-go/pkg/fixwire"
)

// replayRange answers a peer ResendRequest for [from, to] (to==0 means
// "through current"). Application messages are replayed individually
// with PossDupFlag=Y and their original sequence number; contiguous runs
// of admin messages are coalesced into a single SequenceReset-GapFill,
// per the session's resend coalescing policy.
func (s *Session) replayRange(from, to uint64) {
	if s.outboundLog == nil {
		return
	}
	if to == 0 {
		to = s.nextSentSeqNo - 1
	}

	records := s.outboundLog.Range(from, to)
	i := 0
	for i < len(records) {
		if adminMsgTypes[records[i].MsgType] {
			j := i
			for j < len(records) && adminMsgTypes[records[j].MsgType] {
				j++
			}
			newSeqNo := to + 1
			if j < len(records) {
				newSeqNo = records[j].SeqNum
			}
			s.emitGapFill(records[i].SeqNum, newSeqNo)
			i = j
			continue
		}
		s.emitPossDup(records[i])
		i++
	}
}

func (s *Session) emitGapFill(fromSeq, newSeqNo uint64) {
	msg := fixwire.NewMessage(fixwire.MsgTypeSequenceReset)
	msg.Set(fixwire.TagMsgSeqNum, strconv.FormatUint(fromSeq, 10))
	msg.Set(fixwire.TagGapFillFlag, "Y")
	msg.Set(fixwire.TagNewSeqNo, strconv.FormatUint(newSeqNo, 10))
	msg.Set(fixwire.TagPossDupFlag, "Y")
	msg.Set(fixwire.TagSenderCompID, s.cfg.SenderCompID)
	msg.Set(fixwire.TagTargetCompID, s.cfg.TargetCompID)
	frame, err := fixwire.Encode(msg)
	if err != nil {
		return
	}
	_ = s.emit(frame)
}

func (s *Session) emitPossDup(rec OutboundRecord) {
	msg := fixwire.NewMessage(rec.MsgType)
	if rec.Message != nil {
		msg.Fields = append(msg.Fields, rec.Message.Fields...)
	}
	msg.Set(fixwire.TagMsgSeqNum, strconv.FormatUint(rec.SeqNum, 10))
	msg.Set(fixwire.TagPossDupFlag, "Y")
	msg.Set(fixwire.TagSenderCompID, s.cfg.SenderCompID)
	msg.Set(fixwire.TagTargetCompID, s.cfg.TargetCompID)
	frame, err := fixwire.Encode(msg)
	if err != nil {
		return
	}
	_ = s.emit(frame)
}
