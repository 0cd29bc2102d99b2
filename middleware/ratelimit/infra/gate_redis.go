package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"analytics-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// admitScript aplica a mesma ordem de domain.RateWindow.Admit:
// incrementa, depois zera se now > end. A janela nasce no primeiro uso.
//
// KEYS[1] = hash da janela; ARGV[1] = now (ms); ARGV[2] = duração (ms).
// Retorna {count, end_ms}.
var admitScript = redis.NewScript(`
local count = redis.call('HINCRBY', KEYS[1], 'count', 1)
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local ends = tonumber(redis.call('HGET', KEYS[1], 'end'))
if not ends then
  ends = now + window
  redis.call('HSET', KEYS[1], 'end', ends)
end
if now > ends then
  count = 0
  ends = now + window
  redis.call('HSET', KEYS[1], 'count', 0, 'end', ends)
end
return {count, ends}
`)

// RedisGate compartilha a janela de um endpoint entre réplicas.
type RedisGate struct {
	rdb      redis.Scripter
	prefix   string
	key      string
	capacity int
	window   time.Duration
}

type RedisGateOption func(*RedisGate)

func WithGatePrefix(prefix string) RedisGateOption {
	return func(g *RedisGate) { g.prefix = strings.Trim(prefix, ":") }
}

func NewRedisGate(rdb redis.Scripter, endpoint string, capacity int, window time.Duration, opts ...RedisGateOption) *RedisGate {
	if window <= 0 {
		window = domain.DefaultWindow
	}
	g := &RedisGate{
		rdb:      rdb,
		prefix:   "ratelimit:gate",
		capacity: capacity,
		window:   window,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.key = g.prefix + ":" + endpoint
	return g
}

func (g *RedisGate) Key() string { return g.key }

func (g *RedisGate) Admit(ctx context.Context, now time.Time) (domain.Decision, error) {
	res, err := admitScript.Run(ctx, g.rdb, []string{g.key}, now.UnixMilli(), g.window.Milliseconds()).Int64Slice()
	if err != nil {
		return domain.Decision{}, fmt.Errorf("redis gate %s: %w", g.key, err)
	}
	if len(res) != 2 {
		return domain.Decision{}, fmt.Errorf("redis gate %s: unexpected reply %v", g.key, res)
	}

	dec := domain.Decision{
		Verdict:   domain.VerdictProceed,
		Count:     int(res[0]),
		Capacity:  g.capacity,
		WindowEnd: time.UnixMilli(res[1]),
	}
	if dec.Count >= domain.StallThreshold {
		dec.Verdict = domain.VerdictDelayed
	}
	return dec, nil
}
