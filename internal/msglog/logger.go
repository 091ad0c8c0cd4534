// Package msglog implements the message logger / reordering buffer: it
// merges inbound, outbound, and watermark streams into one
// timestamp-ordered stream, tolerating unbounded relative skew between
// the inbound and outbound paths as long as a watermark eventually
// bounds it.
//
// Grounded on the teacher's in-memory cache's atomic pending-size
// backpressure pattern (bounded buffer, sentinel "full" error instead of
// blocking) generalized from bytes-of-dirty-data to bytes-of-buffered-
// records, with an explicit head-compaction step modeled on a ring
// buffer rather than a Go slice that can simply grow. The backing byte
// range itself is obtained from pkg/bufpool instead of a plain append,
// so regrowth and compaction reuse size-class buffers rather than
// leaving the garbage collector to reclaim one discarded array per
// reallocation.
package msglog

import (
	"sort"

	"github.com/wadaptive/artio-go/pkg/bufpool"
	"github.com/wadaptive/artio-go/pkg/gwerrors"
)

// Origin identifies which input stream a record came from.
type Origin string

const (
	OriginInbound  Origin = "inbound"
	OriginOutbound Origin = "outbound"
)

type record struct {
	seq     uint64 // insertion sequence, for stable tie-breaking
	ts      int64
	origin  Origin
	offset  int
	length  int
}

// Record is an emitted, ordered entry handed to a consumer.
type Record struct {
	TimestampNs int64
	Origin      Origin
	Payload     []byte
}

// Logger is the reordering buffer merging inbound, outbound, and
// watermark streams into one timestamp-ordered sequence. It is not
// safe for concurrent use; callers serialize Append/AdvanceWatermark/
// DoWork the same way a session serializes its own state transitions.
type Logger struct {
	buf  []byte
	head int // start of the used byte range; always 0, drains do not advance it
	tail int // offset one past the newest written byte

	records []record
	nextSeq uint64

	watermarkNs   int64
	lastEmittedNs int64
	discontinuity uint64

	compactionSize int
	maxBufferBytes int
}

// New creates a Logger. compactionSize is the byte threshold that
// triggers a head-relocation after a drain; maxBufferBytes bounds the
// used byte range (see BufferPosition) before Append reports
// back-pressure.
func New(compactionSize, maxBufferBytes int) *Logger {
	return &Logger{
		compactionSize: compactionSize,
		maxBufferBytes: maxBufferBytes,
	}
}

// Append records a timestamped message from the given origin stream.
//
// A message whose timestamp is earlier than the latest already-emitted
// timestamp is a protocol violation: the logger does
// not stall on it, it drops the record and counts a discontinuity.
func (l *Logger) Append(ts int64, origin Origin, payload []byte) error {
	if ts < l.lastEmittedNs {
		l.discontinuity++
		return nil
	}

	if l.tail-l.head+len(payload) > l.maxBufferBytes {
		return gwerrors.New(gwerrors.BackPressured, "reordering buffer full")
	}

	l.ensureCapacity(len(payload))
	offset := l.tail
	l.tail += copy(l.buf[l.tail:], payload)

	l.records = append(l.records, record{
		seq:    l.nextSeq,
		ts:     ts,
		origin: origin,
		offset: offset,
		length: len(payload),
	})
	l.nextSeq++
	return nil
}

// AdvanceWatermark raises the replay watermark; it is a no-op if w is
// not ahead of the current watermark, since a watermark asserts a
// monotonic lower bound on all future message timestamps.
func (l *Logger) AdvanceWatermark(w int64) {
	if w > l.watermarkNs {
		l.watermarkNs = w
	}
}

// DoWork is the cooperative drain: it emits every buffered record whose
// timestamp is at or below the current watermark, in ascending
// timestamp order (ties broken by insertion order within an origin),
// then compacts the buffer if its live range has grown past
// compactionSize. Returns the number of records emitted.
func (l *Logger) DoWork(consume func(Record)) int {
	ready := l.records[:0:0]
	var remaining []record
	for _, r := range l.records {
		if r.ts <= l.watermarkNs {
			ready = append(ready, r)
		} else {
			remaining = append(remaining, r)
		}
	}
	if len(ready) == 0 {
		return 0
	}

	sort.SliceStable(ready, func(i, j int) bool {
		if ready[i].ts != ready[j].ts {
			return ready[i].ts < ready[j].ts
		}
		return ready[i].seq < ready[j].seq
	})

	for _, r := range ready {
		consume(Record{
			TimestampNs: r.ts,
			Origin:      r.origin,
			Payload:     l.buf[r.offset : r.offset+r.length],
		})
		l.lastEmittedNs = r.ts
	}

	l.records = remaining
	l.compact()
	return len(ready)
}

// compact relocates the live byte range to the buffer head once it has
// grown past compactionSize, matching the "buffer_position <=
// compaction_size immediately after a drain" invariant. The relocated
// range is copied into a fresh bufpool buffer and the old one is
// returned to the pool, rather than allocated and discarded.
func (l *Logger) compact() {
	if l.tail-l.head <= l.compactionSize {
		return
	}

	if len(l.records) == 0 {
		if l.buf != nil {
			bufpool.Put(l.buf)
		}
		l.buf = nil
		l.head, l.tail = 0, 0
		return
	}

	firstLiveOffset := l.records[0].offset
	shifted := l.buf[firstLiveOffset:l.tail]

	newBuf := bufpool.Get(len(shifted))
	newBuf = newBuf[:cap(newBuf)]
	n := copy(newBuf, shifted)
	bufpool.Put(l.buf)

	for i := range l.records {
		l.records[i].offset -= firstLiveOffset
	}
	l.buf = newBuf
	l.head = 0
	l.tail = n
}

// ensureCapacity grows the backing buffer, via bufpool, so that at least
// n more bytes can be written starting at l.tail. l.buf is always kept
// sliced to its full pooled capacity; l.tail is the logical write
// cursor within it, so regrowth only happens once the current
// size-class buffer's headroom is exhausted.
func (l *Logger) ensureCapacity(n int) {
	if l.tail+n <= len(l.buf) {
		return
	}

	newBuf := bufpool.Get(l.tail + n)
	newBuf = newBuf[:cap(newBuf)]
	copy(newBuf, l.buf[:l.tail])
	if l.buf != nil {
		bufpool.Put(l.buf)
	}
	l.buf = newBuf
}

// BufferPosition returns the size of the used byte range, from head to
// the write cursor. Bytes of records already emitted stay counted until
// a compaction relocates the live records.
func (l *Logger) BufferPosition() int {
	return l.tail - l.head
}

// Discontinuity returns the count of dropped out-of-order records.
func (l *Logger) Discontinuity() uint64 {
	return l.discontinuity
}

// Pending returns the number of buffered, not-yet-emitted records.
func (l *Logger) Pending() int {
	return len(l.records)
}
