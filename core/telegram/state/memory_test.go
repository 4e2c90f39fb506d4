package state

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestStorePutGetClear(t *testing.T) {
	s := NewStore[string](0)
	if s.InProgress(1) {
		t.Fatal("new store should have no sessions")
	}
	if got := s.GetState(1); got != StateIdle {
		t.Fatalf("state = %q, want idle", got)
	}

	s.Put(1, "awaiting", "draft")
	sess, ok := s.Get(1)
	if !ok || sess.State != "awaiting" || sess.Data != "draft" {
		t.Fatalf("unexpected session: %+v ok=%v", sess, ok)
	}
	if !s.InProgress(1) {
		t.Fatal("expected session in progress")
	}
	if s.InProgress(2) {
		t.Fatal("sessions must be per user")
	}

	s.Clear(1)
	if _, ok := s.Get(1); ok {
		t.Fatal("session should be gone after Clear")
	}
}

func TestStoreExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := NewStore[int](10*time.Minute, WithClock[int](clock.now))

	s.Put(1, "a", 1)
	s.Put(2, "b", 2)

	clock.t = clock.t.Add(5 * time.Minute)
	s.Put(2, "b", 3) // refreshes idle clock for user 2

	clock.t = clock.t.Add(6 * time.Minute)
	if _, ok := s.Get(1); ok {
		t.Fatal("user 1 session should be expired")
	}
	if _, ok := s.Get(2); !ok {
		t.Fatal("user 2 session should be live")
	}

	swept := s.Sweep()
	if len(swept) != 1 || swept[0].UserID != 1 || swept[0].Session.Data != 1 {
		t.Fatalf("unexpected sweep result: %+v", swept)
	}
	if again := s.Sweep(); len(again) != 0 {
		t.Fatalf("second sweep should be empty, got %+v", again)
	}
}

func TestStoreZeroTTLNeverExpires(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	s := NewStore[int](0, WithClock[int](clock.now))
	s.Put(1, "a", 1)
	clock.t = clock.t.Add(1000 * time.Hour)
	if _, ok := s.Get(1); !ok {
		t.Fatal("session must not expire without ttl")
	}
	if swept := s.Sweep(); len(swept) != 0 {
		t.Fatalf("nothing should be swept, got %+v", swept)
	}
}
