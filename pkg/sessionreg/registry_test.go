package sessionreg

import (
	"testing"

	"github.com/wadaptive/artio-go/pkg/gwerrors"
)

type fakeSession struct {
	id string
}

func (f *fakeSession) SessionID() string { return f.id }

func codeOf(t *testing.T, err error) gwerrors.Code {
	t.Helper()
	ge, ok := err.(*gwerrors.Error)
	if !ok {
		t.Fatalf("expected *gwerrors.Error, got %T", err)
	}
	return ge.Code
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg.Count() != 0 {
		t.Errorf("expected empty registry, got %d entries", reg.Count())
	}
}

func TestRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	s := &fakeSession{id: "sess-1"}

	if err := reg.Register(s, "worker-a"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, err := reg.Lookup("sess-1", "worker-a")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got != s {
		t.Errorf("Lookup returned a different session")
	}

	if _, err := reg.Lookup("sess-1", "worker-b"); err == nil {
		t.Fatal("expected UnknownSession for a non-owning caller")
	} else if codeOf(t, err) != gwerrors.UnknownSession {
		t.Errorf("expected UnknownSession, got %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	s := &fakeSession{id: "sess-1"}

	if err := reg.Register(s, "worker-a"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := reg.Register(s, "worker-a"); err == nil {
		t.Fatal("expected error registering a duplicate session id")
	}
}

func TestReleaseAcquireRendezvous(t *testing.T) {
	reg := NewRegistry()
	s := &fakeSession{id: "sess-1"}
	if err := reg.Register(s, "worker-a"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Acquire before release (and before ack) must fail: ownership hasn't moved.
	if _, err := reg.Acquire("sess-1", "worker-b"); err == nil {
		t.Fatal("expected Acquire to fail while session still owned")
	} else if codeOf(t, err) != gwerrors.OtherSessionOwner {
		t.Errorf("expected OtherSessionOwner, got %v", err)
	}

	if err := reg.ReleaseToGateway("sess-1", "worker-a"); err != nil {
		t.Fatalf("ReleaseToGateway failed: %v", err)
	}

	// Ownership hasn't changed yet: worker-a still owns it until the ack.
	if owner, ok := reg.Owner("sess-1"); !ok || owner != "worker-a" {
		t.Fatalf("expected worker-a to still own the session pre-ack, got %q", owner)
	}
	if _, err := reg.Acquire("sess-1", "worker-b"); err == nil {
		t.Fatal("expected Acquire to fail before the release is acked")
	}

	if err := reg.AckRelease("sess-1"); err != nil {
		t.Fatalf("AckRelease failed: %v", err)
	}

	got, err := reg.Acquire("sess-1", "worker-b")
	if err != nil {
		t.Fatalf("Acquire failed after ack: %v", err)
	}
	if got != s {
		t.Errorf("Acquire returned a different session")
	}

	owner, ok := reg.Owner("sess-1")
	if !ok || owner != "worker-b" {
		t.Fatalf("expected worker-b to own the session, got %q", owner)
	}
}

func TestReleaseByNonOwnerRejected(t *testing.T) {
	reg := NewRegistry()
	s := &fakeSession{id: "sess-1"}
	if err := reg.Register(s, "worker-a"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := reg.ReleaseToGateway("sess-1", "worker-b"); err == nil {
		t.Fatal("expected OtherSessionOwner for a release by a non-owner")
	} else if codeOf(t, err) != gwerrors.OtherSessionOwner {
		t.Errorf("expected OtherSessionOwner, got %v", err)
	}
}

func TestListOwnedAndRemove(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(&fakeSession{id: "sess-1"}, "worker-a")
	_ = reg.Register(&fakeSession{id: "sess-2"}, "worker-a")
	_ = reg.Register(&fakeSession{id: "sess-3"}, "worker-b")

	owned := reg.ListOwned("worker-a")
	if len(owned) != 2 {
		t.Fatalf("expected 2 sessions owned by worker-a, got %d", len(owned))
	}

	reg.Remove("sess-1")
	if reg.Count() != 2 {
		t.Errorf("expected 2 sessions remaining after Remove, got %d", reg.Count())
	}
	if _, err := reg.Lookup("sess-1", "worker-a"); err == nil {
		t.Fatal("expected Lookup to fail for a removed session")
	}
}

func TestListAll(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(&fakeSession{id: "sess-1"}, "worker-a")
	_ = reg.Register(&fakeSession{id: "sess-2"}, "worker-a")
	_ = reg.ReleaseToGateway("sess-2", "worker-a")
	_ = reg.AckRelease("sess-2")

	all := reg.ListAll()
	if len(all) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(all))
	}

	owners := map[string]string{}
	for _, s := range all {
		owners[s.SessionID] = s.OwnerID
	}
	if owners["sess-1"] != "worker-a" {
		t.Errorf("expected sess-1 owned by worker-a, got %q", owners["sess-1"])
	}
	if owners["sess-2"] != "" {
		t.Errorf("expected sess-2 unowned after release, got %q", owners["sess-2"])
	}
}
