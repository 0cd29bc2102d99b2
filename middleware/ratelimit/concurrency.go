package ratelimit

import (
	"errors"
	"net/http"
	"time"

	"analytics-gateway/middleware/ratelimit/application"
	"analytics-gateway/middleware/ratelimit/domain"
	"analytics-gateway/middleware/ratelimit/infra"
)

type ConcurrencyOptions struct {
	// Max é o número de workers simultâneos do endpoint; 1 reproduz o modelo
	// de um worker por endpoint. 0 desliga o guard.
	Max int
	// Pool permite compartilhar o semáforo com quem o inspeciona (ex:
	// /debug/gates). Se nil, um ChanPool de tamanho Max é criado.
	Pool           domain.SlotPool
	RejectStatus   int
	AcquireTimeout time.Duration
}

func ConcurrencyMiddleware(opts ConcurrencyOptions) Guard {
	if opts.Pool == nil {
		if opts.Max <= 0 {
			return func(next http.Handler) http.Handler { return next }
		}
		opts.Pool = infra.NewChanPool(opts.Max)
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}

	svc := application.ConcurrencyService{
		Pool:           opts.Pool,
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, err := svc.Acquire(r.Context())
			if err != nil {
				if errors.Is(err, application.ErrNoSlot) {
					http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
				}
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
