package sessionreg

import "sync/atomic"

// ClusterGate tracks which cluster node currently holds leadership for a
// set of sessions sharing one replicated transport. Only the leader's
// reservations on that transport are actually transmitted; a non-leader
// poll must return zero progress without touching the stream.
//
// The Raft transport that elects a leader is an external collaborator;
// ClusterGate only exposes the predicate a session/poll loop consults.
// It is a plain injected value, grounded on the teacher's atomic.Int32/
// atomic.Value globals in internal/logger/logger.go for the same
// "read-mostly flag, no lock" shape — but kept as a constructed struct
// rather than a package-level var, since leadership is per-cluster-group
// state that must be injected, not read process-wide.
type ClusterGate struct {
	leaderNodeID atomic.Int64
}

// NewClusterGate creates a gate with no leader (leaderNodeID 0, meaning
// no node claims leadership yet).
func NewClusterGate() *ClusterGate {
	return &ClusterGate{}
}

// SetLeader records which node id currently holds leadership. Called by
// the Raft transport's leadership-change callback.
func (g *ClusterGate) SetLeader(nodeID int64) {
	g.leaderNodeID.Store(nodeID)
}

// Leader returns the current leader's node id, or 0 if none has been set.
func (g *ClusterGate) Leader() int64 {
	return g.leaderNodeID.Load()
}

// IsLeader reports whether nodeID is the current leader.
func (g *ClusterGate) IsLeader(nodeID int64) bool {
	return nodeID != 0 && g.leaderNodeID.Load() == nodeID
}
