// Package sessionreg implements the gateway-managed pool that hands FIX
// sessions between their owning library worker and the admin command
// stream, per the release_to_gateway/acquire two-phase rendez-vous.
package sessionreg

import (
	"sync"

	"github.com/wadaptive/artio-go/pkg/gwerrors"
)

// Session is the minimal surface the registry needs from a live session
// in order to manage cross-worker ownership. internal/session.Session and
// internal/fixp.Connection both implement it.
type Session interface {
	SessionID() string
}

type entry struct {
	session Session
	ownerID string // library_id of the current owner; "" while unowned
	pending bool   // a release has been requested but not yet acked
}

// Registry tracks, for every live session, which library worker currently
// owns it. Ownership only changes on the ack half of a release/acquire
// exchange; a worker observing a session before the ack sees UnknownSession,
// matching the spec's two-phase rendez-vous.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds a freshly created session under the given owning worker.
// Returns an error if a session with the same id is already registered.
func (r *Registry) Register(s Session, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := s.SessionID()
	if _, exists := r.entries[id]; exists {
		return gwerrors.New(gwerrors.UnknownSession, "session already registered").WithSession(id)
	}
	r.entries[id] = &entry{session: s, ownerID: ownerID}
	return nil
}

// ReleaseToGateway begins the two-phase handoff: the owning worker
// surrenders the session into the gateway-managed pool. Ownership does
// not change until AckRelease is called with the same session id, so a
// crash between the two leaves the session owned by the releasing worker.
func (r *Registry) ReleaseToGateway(sessionID, callerLibraryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[sessionID]
	if !ok {
		return gwerrors.New(gwerrors.UnknownSession, "session not found").WithSession(sessionID)
	}
	if e.ownerID != callerLibraryID {
		return gwerrors.New(gwerrors.OtherSessionOwner, "caller does not own session").WithSession(sessionID)
	}
	e.pending = true
	return nil
}

// AckRelease completes a pending release, clearing ownership so the
// session becomes visible to Acquire.
func (r *Registry) AckRelease(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[sessionID]
	if !ok || !e.pending {
		return gwerrors.New(gwerrors.UnknownSession, "no pending release for session").WithSession(sessionID)
	}
	e.pending = false
	e.ownerID = ""
	return nil
}

// Acquire assigns an unowned (released) session to a new owning worker.
// Reply codes map directly onto the admin layer's reply codes: a missing
// session is UnknownSession, a session still owned by someone else is
// OtherSessionOwner.
func (r *Registry) Acquire(sessionID, newOwnerID string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[sessionID]
	if !ok {
		return nil, gwerrors.New(gwerrors.UnknownSession, "session not found").WithSession(sessionID)
	}
	if e.ownerID != "" {
		return nil, gwerrors.New(gwerrors.OtherSessionOwner, "session already owned").WithSession(sessionID)
	}
	e.ownerID = newOwnerID
	return e.session, nil
}

// Owner returns the current owning library_id ("" if unowned) and whether
// the session is known at all.
func (r *Registry) Owner(sessionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[sessionID]
	if !ok {
		return "", false
	}
	return e.ownerID, true
}

// Lookup returns the session if it is currently owned by callerLibraryID.
// A session not owned by the caller is indistinguishable from one that
// does not exist, per the concurrency model's "observed as UNKNOWN_SESSION" rule.
func (r *Registry) Lookup(sessionID, callerLibraryID string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[sessionID]
	if !ok || e.ownerID != callerLibraryID {
		return nil, gwerrors.New(gwerrors.UnknownSession, "session not found").WithSession(sessionID)
	}
	return e.session, nil
}

// Remove deletes a session entirely, e.g. after a TRANSIENT session's
// final DISCONNECTED transition with no reconnect expected.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, sessionID)
}

// ListOwned returns the session ids currently owned by the given worker.
// The returned slice is a copy and safe to modify.
func (r *Registry) ListOwned(libraryID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, e := range r.entries {
		if e.ownerID == libraryID {
			ids = append(ids, id)
		}
	}
	return ids
}

// Summary is a read-only snapshot of one registry entry, for admin listing.
type Summary struct {
	SessionID string
	OwnerID   string // "" if unowned
}

// ListAll returns a snapshot of every registered session and its current
// owner, for the admin command stream's session-list view.
func (r *Registry) ListAll() []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Summary, 0, len(r.entries))
	for id, e := range r.entries {
		out = append(out, Summary{SessionID: id, OwnerID: e.ownerID})
	}
	return out
}

// Count returns the number of registered sessions, owned or not.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
