package database

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type stubPinger struct {
	err   error
	calls int
}

func (p *stubPinger) PingContext(context.Context) error {
	p.calls++
	return p.err
}

func TestWaitReadyReturnsOnFirstPing(t *testing.T) {
	p := &stubPinger{}
	if err := waitReady(context.Background(), p, time.Second); err != nil {
		t.Fatalf("waitReady: %v", err)
	}
	if p.calls != 1 {
		t.Fatalf("calls = %d, want 1", p.calls)
	}
}

func TestWaitReadyTimesOut(t *testing.T) {
	refused := errors.New("connection refused")
	p := &stubPinger{err: refused}

	err := waitReady(context.Background(), p, 50*time.Millisecond)
	if !errors.Is(err, refused) {
		t.Fatalf("err = %v, want wrapped refusal", err)
	}
	if !strings.Contains(err.Error(), "1 attempts") {
		t.Fatalf("unexpected message: %v", err)
	}
}
