package speakerid

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type allowAllChecker struct{}

func (allowAllChecker) IdentityExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return true, nil
}

type denyChecker struct{}

func (denyChecker) IdentityExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return false, nil
}

func newTestStore(t *testing.T, checker IdentityChecker) *BadgerStore {
	t.Helper()
	s, err := NewBadgerStore(BadgerStoreOptions{InMemory: true, Checker: checker})
	if err != nil {
		t.Fatalf("NewBadgerStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBadgerStore_PutGetRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, allowAllChecker{})
	ctx := context.Background()
	id := uuid.New()
	want := VoicePrint{0.1, -0.5, 0.9}

	if err := s.Put(ctx, id, want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d dims, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dim %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBadgerStore_PutOverwrites(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, allowAllChecker{})
	ctx := context.Background()
	id := uuid.New()

	if err := s.Put(ctx, id, VoicePrint{1, 2, 3}); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	if err := s.Put(ctx, id, VoicePrint{4, 5}); err != nil {
		t.Fatalf("second Put: %v", err)
	}
	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 2 || got[0] != 4 || got[1] != 5 {
		t.Fatalf("got %v, want [4 5]", got)
	}
}

func TestBadgerStore_GetMissing(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, nil)
	if _, err := s.Get(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing: got %v, want ErrNotFound", err)
	}
}

func TestBadgerStore_PutUnknownIdentity(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, denyChecker{})
	err := s.Put(context.Background(), uuid.New(), VoicePrint{1})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Put for unknown identity: got %v, want ErrNotFound", err)
	}
}

func TestBadgerStore_All(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, nil)
	ctx := context.Background()

	prints := map[uuid.UUID]VoicePrint{
		uuid.New(): {1, 0},
		uuid.New(): {0, 1},
		uuid.New(): {1, 1},
	}
	for id, vp := range prints {
		if err := s.Put(ctx, id, vp); err != nil {
			t.Fatalf("Put %s: %v", id, err)
		}
	}

	got, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(got) != len(prints) {
		t.Fatalf("All returned %d prints, want %d", len(got), len(prints))
	}
	for id, want := range prints {
		vp, ok := got[id]
		if !ok {
			t.Fatalf("All missing %s", id)
		}
		if vp[0] != want[0] || vp[1] != want[1] {
			t.Fatalf("print for %s: got %v, want %v", id, vp, want)
		}
	}
}
