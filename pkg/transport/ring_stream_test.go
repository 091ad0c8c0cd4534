package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingStreamReserveCommitPoll(t *testing.T) {
	s := NewRingStream(1024)

	pos, err := s.TryReserve(5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)

	copy(s.Claimed(), "hello")
	require.NoError(t, s.CommitRecord(Record{SessionID: "sess-1", Status: StatusOK}))

	var got []Record
	n := s.Poll(func(r Record) bool {
		got = append(got, r)
		return true
	})
	assert.Equal(t, 1, n)
	require.Len(t, got, 1)
	assert.Equal(t, "hello", string(got[0].Payload))
	assert.Equal(t, "sess-1", got[0].SessionID)
}

func TestRingStreamBackpressure(t *testing.T) {
	s := NewRingStream(4)

	pos, err := s.TryReserve(4)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)
	require.NoError(t, s.CommitRecord(Record{}))

	_, err = s.TryReserve(1)
	assert.ErrorIs(t, err, ErrBackpressured)

	// Draining frees capacity for the next reservation.
	s.Poll(func(Record) bool { return true })
	_, err = s.TryReserve(1)
	assert.NoError(t, err)
}

func TestRingStreamDoubleReserveRejected(t *testing.T) {
	s := NewRingStream(16)
	_, err := s.TryReserve(4)
	require.NoError(t, err)

	_, err = s.TryReserve(4)
	assert.ErrorIs(t, err, ErrNotReserved)
}

func TestRingStreamAbortFreesReservation(t *testing.T) {
	s := NewRingStream(16)
	_, err := s.TryReserve(4)
	require.NoError(t, err)
	require.NoError(t, s.Abort())

	_, err = s.TryReserve(8)
	assert.NoError(t, err)
}

func TestRingStreamCommitWithoutReserveRejected(t *testing.T) {
	s := NewRingStream(16)
	assert.ErrorIs(t, s.Commit(), ErrNotReserved)
}

func TestRingStreamPollStopsEarlyPreservesRemainder(t *testing.T) {
	s := NewRingStream(1024)

	for i := 0; i < 3; i++ {
		_, err := s.TryReserve(1)
		require.NoError(t, err)
		require.NoError(t, s.CommitRecord(Record{SequenceNumber: uint64(i + 1)}))
	}

	var seen []uint64
	n := s.Poll(func(r Record) bool {
		seen = append(seen, r.SequenceNumber)
		return len(seen) < 1
	})
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, s.Len())

	var rest []uint64
	s.Poll(func(r Record) bool {
		rest = append(rest, r.SequenceNumber)
		return true
	})
	assert.Equal(t, []uint64{2, 3}, rest)
}
