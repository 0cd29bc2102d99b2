package infra

import (
	"context"
	"testing"
	"time"
)

func TestChanPool_ReleaseIsIdempotent(t *testing.T) {
	p := NewChanPool(1)

	release, ok := p.Acquire(context.Background())
	if !ok {
		t.Fatalf("expected first acquire to succeed")
	}
	release()
	release()

	if p.InUse() != 0 {
		t.Fatalf("expected 0 slots in use after double release, got %d", p.InUse())
	}
}

func TestChanPool_BlocksWhenFull(t *testing.T) {
	p := NewChanPool(1)
	release, _ := p.Acquire(context.Background())
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, ok := p.Acquire(ctx); ok {
		t.Fatalf("expected acquire to fail while the only slot is held")
	}
}

func TestNewChanPool_MinimumOneSlot(t *testing.T) {
	if got := NewChanPool(0).Cap(); got != 1 {
		t.Fatalf("expected cap 1, got %d", got)
	}
}
