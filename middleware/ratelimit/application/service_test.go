package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"analytics-gateway/middleware/ratelimit/domain"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var t0 = time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeGate struct {
	dec domain.Decision
	err error
	at  []time.Time
}

func (g *fakeGate) Admit(_ context.Context, now time.Time) (domain.Decision, error) {
	g.at = append(g.at, now)
	return g.dec, g.err
}

// windowGate usa a regra real de domínio, sem lock (testes sequenciais).
type windowGate struct {
	w domain.RateWindow
}

func (g *windowGate) Admit(_ context.Context, now time.Time) (domain.Decision, error) {
	return g.w.Admit(now), nil
}

// manualClock só dispara After quando o teste chama fire.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	waits  []time.Duration
	timers chan chan time.Time
}

func newManualClock(now time.Time) *manualClock {
	return &manualClock{now: now, timers: make(chan chan time.Time, 16)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.waits = append(c.waits, d)
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	c.timers <- ch
	return ch
}

func (c *manualClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestService_Admit_ProceedsWhenNoGate(t *testing.T) {
	svc := Service{}
	dec := svc.Admit(context.Background())
	if dec.Delayed() {
		t.Fatalf("expected proceed")
	}
	if dec.Delay != 0 {
		t.Fatalf("expected Delay=0 when proceeding, got %s", dec.Delay)
	}
}

func TestService_Admit_UsesClockNow(t *testing.T) {
	gate := &fakeGate{}
	clk := newManualClock(t0)
	svc := Service{Gate: gate, Clock: clk}

	svc.Admit(context.Background())
	clk.advance(3 * time.Second)
	svc.Admit(context.Background())

	if len(gate.at) != 2 || !gate.at[0].Equal(t0) || !gate.at[1].Equal(t0.Add(3*time.Second)) {
		t.Fatalf("expected gate to see clock instants, got %v", gate.at)
	}
}

func TestService_Admit_DelayedGetsDefaultStallDelay(t *testing.T) {
	svc := Service{Gate: &fakeGate{dec: domain.Decision{Verdict: domain.VerdictDelayed, Count: 2}}}
	dec := svc.Admit(context.Background())
	if !dec.Delayed() {
		t.Fatalf("expected delayed")
	}
	if dec.Delay != domain.DefaultStallDelay {
		t.Fatalf("expected default delay %s, got %s", domain.DefaultStallDelay, dec.Delay)
	}
}

func TestService_Admit_DelayedGetsConfiguredStallDelay(t *testing.T) {
	svc := Service{
		Gate:       &fakeGate{dec: domain.Decision{Verdict: domain.VerdictDelayed}},
		StallDelay: 2500 * time.Millisecond,
	}
	if dec := svc.Admit(context.Background()); dec.Delay != 2500*time.Millisecond {
		t.Fatalf("expected delay 2.5s, got %s", dec.Delay)
	}
}

func TestService_Admit_BackendErrorFailsOpen(t *testing.T) {
	var reported error
	svc := Service{
		Gate:    &fakeGate{err: errors.New("redis down")},
		OnError: func(err error) { reported = err },
	}

	dec := svc.Admit(context.Background())
	if dec.Delayed() {
		t.Fatalf("expected proceed on backend error")
	}
	if reported == nil {
		t.Fatalf("expected OnError to be called")
	}
}

func TestService_SequenceFollowsWindow(t *testing.T) {
	clk := newManualClock(t0)
	svc := Service{Gate: &windowGate{w: domain.NewRateWindow(5, 10*time.Second, t0)}, Clock: clk}
	ctx := context.Background()

	want := []bool{false, true, true}
	for i, delayed := range want {
		if got := svc.Admit(ctx).Delayed(); got != delayed {
			t.Fatalf("call %d: expected delayed=%v, got %v", i+1, delayed, got)
		}
	}

	clk.advance(11 * time.Second)
	if svc.Admit(ctx).Delayed() {
		t.Fatalf("expected call crossing the window to proceed")
	}
}

func TestService_Wait_ReturnsOnlyAfterDelay(t *testing.T) {
	clk := newManualClock(t0)
	svc := Service{Clock: clk}
	dec := domain.Decision{Verdict: domain.VerdictDelayed, Delay: 10 * time.Second}

	done := make(chan error, 1)
	go func() { done <- svc.Wait(context.Background(), dec) }()

	timer := <-clk.timers
	select {
	case err := <-done:
		t.Fatalf("expected Wait to block until the timer fires, returned %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	timer <- t0.Add(10 * time.Second)
	if err := <-done; err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(clk.waits) != 1 || clk.waits[0] != 10*time.Second {
		t.Fatalf("expected a single 10s wait, got %v", clk.waits)
	}
}

func TestService_Wait_ProceedDoesNotWait(t *testing.T) {
	clk := newManualClock(t0)
	svc := Service{Clock: clk}

	if err := svc.Wait(context.Background(), domain.Decision{Verdict: domain.VerdictProceed}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(clk.waits) != 0 {
		t.Fatalf("expected no timer, got %v", clk.waits)
	}
}

func TestService_Wait_ContextCancelled(t *testing.T) {
	clk := newManualClock(t0)
	svc := Service{Clock: clk}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.Wait(ctx, domain.Decision{Verdict: domain.VerdictDelayed, Delay: 10 * time.Second})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestService_Now_NilClockUsesSystemClock(t *testing.T) {
	before := time.Now()
	got := Service{}.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Fatalf("expected now between %s and %s, got %s", before, after, got)
	}
}
