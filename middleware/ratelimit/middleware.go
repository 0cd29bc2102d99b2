package ratelimit

import (
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"analytics-gateway/middleware/ratelimit/application"
	"analytics-gateway/middleware/ratelimit/domain"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type KeyFunc func(r *http.Request) string

type Options struct {
	// Endpoint é o nome lógico do gate (ex: "stats_hourly"), usado em logs,
	// headers e estatísticas.
	Endpoint string
	Gate     domain.Gate
	Clock    domain.Clock
	// StallDelay é o atraso fixo de uma requisição atrasada (padrão 10s).
	StallDelay time.Duration

	Stats domain.StatsStore

	// KeyFn identifica o cliente apenas para estatísticas/logs; o gate não
	// distingue clientes.
	KeyFn              KeyFunc
	KeyHeader          string
	TrustXForwardedFor bool

	// DelayedStatus é o status da resposta placeholder (padrão 200).
	DelayedStatus int
	// OnDelayed substitui a resposta placeholder. A decisão está disponível
	// via DecisionFromContext.
	OnDelayed http.Handler

	AddRateLimitHeaders bool

	Logger *zerolog.Logger
}

func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		if trustXFF {
			// primeiro IP do X-Forwarded-For (cliente original)
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				ip, _, _ := strings.Cut(xff, ",")
				if ip = strings.TrimSpace(ip); ip != "" {
					return ip
				}
			}
		}

		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}

// PlaceholderHandler responde no lugar do handler real quando a requisição
// foi atrasada: "the number of requests is:N".
func PlaceholderHandler(status int) http.Handler {
	if status == 0 {
		status = http.StatusOK
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dec, _ := DecisionFromContext(r.Context())
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, "the number of requests is:"+formatInt(dec.Count))
	})
}

func Middleware(opts Options) Guard {
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	if opts.OnDelayed == nil {
		opts.OnDelayed = PlaceholderHandler(opts.DelayedStatus)
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("endpoint", opts.Endpoint).Logger()
	}

	svc := application.Service{
		Gate:       opts.Gate,
		Clock:      opts.Clock,
		StallDelay: opts.StallDelay,
		OnError: func(err error) {
			log.Error().Err(err).Msg("gate backend failed, letting request through")
		},
	}
	// sob carga, um aviso por segundo basta
	stallLog := &rate.Sometimes{Interval: time.Second}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			at := svc.Now()
			dec := svc.AdmitAt(ctx, at)

			if opts.Stats != nil {
				err := opts.Stats.Record(ctx, domain.StatsEvent{
					Endpoint: opts.Endpoint,
					Client:   opts.KeyFn(r),
					Verdict:  dec.Verdict,
					Count:    dec.Count,
					Method:   r.Method,
					Path:     r.URL.Path,
					At:       at,
				})
				if err != nil {
					log.Debug().Err(err).Msg("gate stats not recorded")
				}
			}

			if opts.AddRateLimitHeaders {
				h := w.Header()
				h.Set("X-RateLimit-Endpoint", opts.Endpoint)
				h.Set("X-RateLimit-Capacity", formatInt(dec.Capacity))
				h.Set("X-RateLimit-Count", formatInt(dec.Count))
				h.Set("X-RateLimit-Reset", formatUnix(dec.WindowEnd))
			}

			r = r.WithContext(WithDecision(ctx, dec))
			if !dec.Delayed() {
				next.ServeHTTP(w, r)
				return
			}

			stallLog.Do(func() {
				log.Warn().
					Int("count", dec.Count).
					Dur("delay", dec.Delay).
					Str("path", r.URL.Path).
					Msg("request stalled by gate")
			})

			if err := svc.Wait(ctx, dec); err != nil {
				// cliente foi embora durante a espera; não há a quem responder
				log.Debug().Err(err).Msg("stalled request abandoned")
				return
			}

			w.Header().Set("X-RateLimit-Status", domain.VerdictDelayed.String())
			opts.OnDelayed.ServeHTTP(w, r)
		})
	}
}
