package application

import (
	"context"
	"errors"
	"time"

	"analytics-gateway/middleware/ratelimit/domain"
)

// ErrNoSlot indica que o timeout de aquisição expirou sem vaga livre.
var ErrNoSlot = errors.New("no worker slot available")

// ConcurrencyService controla quantas requisições de um endpoint executam ao
// mesmo tempo, sem saber nada sobre HTTP.
type ConcurrencyService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire tenta adquirir uma vaga.
//   - `AcquireTimeout <= 0`: espera até conseguir ou até ctx cancelar.
//   - `AcquireTimeout > 0`: desiste com ErrNoSlot quando o timeout expira.
//
// Se o próprio ctx do chamador encerrar, retorna ctx.Err().
func (s ConcurrencyService) Acquire(ctx context.Context) (func(), error) {
	if s.Pool == nil {
		return func() {}, nil
	}

	acqCtx := ctx
	if s.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		acqCtx, cancel = context.WithTimeout(ctx, s.AcquireTimeout)
		defer cancel()
	}

	release, ok := s.Pool.Acquire(acqCtx)
	if ok {
		return release, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, ErrNoSlot
}
