package infra

import (
	"sort"
	"sync"
	"time"

	"analytics-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// GateFactory cria o gate de um endpoint.
type GateFactory func(endpoint string) domain.Gate

// MemoryGates cria gates em memória cuja primeira janela começa no instante
// da criação (clock.Now()).
func MemoryGates(capacity int, window time.Duration, clock domain.Clock) GateFactory {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return func(string) domain.Gate {
		return NewMemoryGate(capacity, window, clock.Now())
	}
}

// RedisGates cria gates que compartilham a janela via Redis.
func RedisGates(rdb redis.Scripter, capacity int, window time.Duration, opts ...RedisGateOption) GateFactory {
	return func(endpoint string) domain.Gate {
		return NewRedisGate(rdb, endpoint, capacity, window, opts...)
	}
}

// GateStore mantém exatamente um gate por endpoint.
//
// É criado por quem registra as rotas e vive enquanto o processo viver:
// gates nunca são removidos, e dois endpoints nunca compartilham um gate.
type GateStore struct {
	mu      sync.Mutex
	gates   map[string]domain.Gate
	newGate GateFactory
}

func NewGateStore(factory GateFactory) *GateStore {
	return &GateStore{
		gates:   make(map[string]domain.Gate),
		newGate: factory,
	}
}

// Get devolve o gate do endpoint, criando-o no primeiro uso.
func (s *GateStore) Get(endpoint string) domain.Gate {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g, ok := s.gates[endpoint]; ok {
		return g
	}
	g := s.newGate(endpoint)
	s.gates[endpoint] = g
	return g
}

func (s *GateStore) Endpoints() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.gates))
	for k := range s.gates {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Snapshots devolve o estado das janelas mantidas em memória. Gates remotos
// (Redis) não aparecem.
func (s *GateStore) Snapshots() map[string]domain.RateWindow {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]domain.RateWindow, len(s.gates))
	for k, g := range s.gates {
		if mg, ok := g.(*MemoryGate); ok {
			out[k] = mg.Snapshot()
		}
	}
	return out
}
