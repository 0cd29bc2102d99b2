package infra

import (
	"context"
	"sync"

	"analytics-gateway/middleware/ratelimit/domain"
)

type Counters struct {
	Proceeded int64
	Delayed   int64
}

func (c *Counters) add(v domain.Verdict) {
	if v == domain.VerdictDelayed {
		c.Delayed++
		return
	}
	c.Proceeded++
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e para o /debug/gates de uma única réplica.
//
// Não faz expiração.
type MemoryStatsStore struct {
	mu         sync.Mutex
	total      Counters
	byEndpoint map[string]Counters
	byClient   map[string]Counters

	trackClients bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackClients(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackClients = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byEndpoint: make(map[string]Counters),
		byClient:   make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev.Verdict)

	c := s.byEndpoint[ev.Endpoint]
	c.add(ev.Verdict)
	s.byEndpoint[ev.Endpoint] = c

	if s.trackClients && ev.Client != "" {
		k := s.byClient[ev.Client]
		k.add(ev.Verdict)
		s.byClient[ev.Client] = k
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByEndpoint() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byEndpoint))
	for k, v := range s.byEndpoint {
		out[k] = v
	}
	return out
}

func (s *MemoryStatsStore) ByClient() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byClient))
	for k, v := range s.byClient {
		out[k] = v
	}
	return out
}
