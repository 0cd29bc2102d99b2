package infra

import (
	"context"
	"sync"
	"testing"
	"time"

	"analytics-gateway/middleware/ratelimit/domain"
)

var t0 = time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time                       { return c.now }
func (c fixedClock) After(time.Duration) <-chan time.Time { return nil }

func TestGateStore_GetSameEndpointReturnsSameGate(t *testing.T) {
	s := NewGateStore(MemoryGates(5, 10*time.Second, fixedClock{t0}))

	g1 := s.Get("stats_hourly")
	g2 := s.Get("stats_hourly")
	if g1 != g2 {
		t.Fatalf("expected same gate pointer for same endpoint")
	}
}

func TestGateStore_EndpointsDoNotShareWindows(t *testing.T) {
	s := NewGateStore(MemoryGates(5, 10*time.Second, fixedClock{t0}))
	ctx := context.Background()

	a := s.Get("stats_hourly")
	b := s.Get("stats_daily")

	a.Admit(ctx, t0)
	if dec, _ := a.Admit(ctx, t0); !dec.Delayed() {
		t.Fatalf("expected second call on stats_hourly to be delayed")
	}
	if dec, _ := b.Admit(ctx, t0); dec.Delayed() {
		t.Fatalf("expected first call on stats_daily to proceed")
	}
}

func TestGateStore_SnapshotsAndEndpoints(t *testing.T) {
	s := NewGateStore(MemoryGates(5, 10*time.Second, fixedClock{t0}))
	s.Get("poi").Admit(context.Background(), t0)
	s.Get("index")

	if got := s.Endpoints(); len(got) != 2 || got[0] != "index" || got[1] != "poi" {
		t.Fatalf("expected sorted endpoints [index poi], got %v", got)
	}

	snap := s.Snapshots()["poi"]
	if snap.Count != 1 || snap.Capacity != 5 || !snap.End.Equal(t0.Add(10*time.Second)) {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestMemoryGate_ConcurrentAdmitsAreNotLost(t *testing.T) {
	g := NewMemoryGate(5, time.Hour, t0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = g.Admit(context.Background(), t0)
		}()
	}
	wg.Wait()

	if got := g.Snapshot().Count; got != 50 {
		t.Fatalf("expected count 50, got %d", got)
	}
}

func TestMemoryGate_ResetMovesWindowEnd(t *testing.T) {
	g := NewMemoryGate(5, 10*time.Second, t0)
	now := t0.Add(42 * time.Second)

	dec, err := g.Admit(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dec.WindowEnd.Equal(now.Add(10*time.Second)) || dec.Count != 0 {
		t.Fatalf("expected reset to now+10s with count 0, got %+v", dec)
	}
	var _ domain.Gate = g
}
