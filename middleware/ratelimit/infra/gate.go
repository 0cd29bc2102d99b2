package infra

import (
	"context"
	"sync"
	"time"

	"analytics-gateway/middleware/ratelimit/domain"
)

// MemoryGate guarda a RateWindow de um endpoint dentro do processo.
// O mutex serializa Admit; nenhuma atualização se perde com requisições
// concorrentes.
type MemoryGate struct {
	mu sync.Mutex
	w  domain.RateWindow
}

func NewMemoryGate(capacity int, window time.Duration, start time.Time) *MemoryGate {
	return &MemoryGate{w: domain.NewRateWindow(capacity, window, start)}
}

func (g *MemoryGate) Admit(_ context.Context, now time.Time) (domain.Decision, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.w.Admit(now), nil
}

// Snapshot devolve uma cópia do estado atual da janela.
func (g *MemoryGate) Snapshot() domain.RateWindow {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.w
}
