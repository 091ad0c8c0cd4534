package transport

import (
	"sync"
	"sync/atomic"
)

// RingStream is an in-memory Stream/Poller used in tests and by the
// single-process CLI tools. It models a bounded publication: writers
// observing a full buffer get ErrBackpressured, matching the spec's
// "producers observing a full buffer must retry" rule, without needing
// the real Aeron-backed transport.
type RingStream struct {
	capacity int

	mu      sync.Mutex
	records []Record
	claimed []byte
	pending bool

	pendingSize atomic.Int64
}

// NewRingStream creates a RingStream that rejects reservations once the
// sum of committed-but-unconsumed payload bytes reaches capacity.
func NewRingStream(capacity int) *RingStream {
	return &RingStream{capacity: capacity}
}

// TryReserve implements Stream.
func (s *RingStream) TryReserve(length int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending {
		return 0, ErrNotReserved
	}
	if int(s.pendingSize.Load())+length > s.capacity {
		return 0, ErrBackpressured
	}

	s.claimed = make([]byte, length)
	s.pending = true
	return int64(len(s.records)), nil
}

// Claimed implements Stream.
func (s *RingStream) Claimed() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claimed
}

// Commit implements Stream. The record metadata defaults to zero values;
// callers that need identity fields populated should use CommitRecord.
func (s *RingStream) Commit() error {
	return s.CommitRecord(Record{})
}

// CommitRecord publishes the pending reservation as the given record,
// using the claimed payload bytes.
func (s *RingStream) CommitRecord(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pending {
		return ErrNotReserved
	}
	rec.Payload = s.claimed
	s.records = append(s.records, rec)
	s.pendingSize.Add(int64(len(rec.Payload)))
	s.claimed = nil
	s.pending = false
	return nil
}

// Abort implements Stream.
func (s *RingStream) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pending {
		return ErrNotReserved
	}
	s.claimed = nil
	s.pending = false
	return nil
}

// Poll implements Poller, delivering every unconsumed record in FIFO
// order and freeing its share of pendingSize as it's delivered.
func (s *RingStream) Poll(handle func(Record) bool) int {
	s.mu.Lock()
	records := s.records
	s.records = nil
	s.mu.Unlock()

	delivered := 0
	for i, rec := range records {
		s.pendingSize.Add(-int64(len(rec.Payload)))
		delivered++
		if !handle(rec) {
			s.mu.Lock()
			s.records = append(records[i+1:], s.records...)
			s.mu.Unlock()
			break
		}
	}
	return delivered
}

// Len returns the number of unconsumed records, for test assertions.
func (s *RingStream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
