// Package transport abstracts the publication/subscription stream that
// sessions and FIXP connections write onto. The real Aeron-style
// transport is out of scope; this package specifies only the interface
// the session and FIXP state machines depend on, plus an in-memory
// implementation for tests.
package transport

import "errors"

// ErrBackpressured is returned by TryReserve when the stream's buffer is
// full; the caller must retry, generally from the next poll tick.
var ErrBackpressured = errors.New("transport: backpressured")

// ErrNotReserved is a programmer error: Commit or Abort called without a
// preceding successful TryReserve, or a second reservation attempted
// before the first was resolved.
var ErrNotReserved = errors.New("transport: commit/abort without a pending reservation")

// Status is carried on every record dispatched to a consumer.
type Status int

const (
	StatusOK Status = iota
	StatusInvalid
	StatusCatchupReplay
)

// Record is a transport record tagged with its session/connection
// identity fields plus the raw payload bytes.
type Record struct {
	StreamID       string
	SessionID      string
	ConnectionID   string
	LibraryID      string
	MessageType    string
	SequenceIndex  uint32
	SequenceNumber uint64
	Status         Status
	Payload        []byte
}

// Stream is a single multi-producer publication. Each producer reserves
// a contiguous range and must Commit or Abort before issuing another
// reservation on the same stream, per the concurrency model's shared
// resource rule.
type Stream interface {
	// TryReserve reserves len bytes for a pending write. Returns the
	// reservation position on success, or ErrBackpressured if the
	// stream's buffer is full.
	TryReserve(len int) (position int64, err error)

	// Commit publishes the previously reserved range, filled by the
	// caller through Claimed.
	Commit() error

	// Abort releases a previously reserved range without publishing it.
	Abort() error

	// Claimed returns the byte slice backing the current pending
	// reservation, for the caller to fill before Commit.
	Claimed() []byte
}

// Poller is the non-blocking consumer side of a Stream: poll is the only
// progress mechanism, per the spec's "no implicit blocking" rule.
type Poller interface {
	// Poll delivers buffered records to handle, stopping early if handle
	// returns false. Returns the number of records delivered.
	Poll(handle func(Record) bool) int
}
