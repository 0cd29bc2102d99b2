package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"analytics-gateway/logging"
	"analytics-gateway/middleware/ratelimit"
	"analytics-gateway/middleware/ratelimit/domain"
	"analytics-gateway/middleware/ratelimit/infra"
)

func main() {
	log := logging.New(logging.Config{Level: "debug", Format: "console"})

	// Exemplo: um gate por rota direto no seu webserver, sem banco.
	gates := infra.NewGateStore(infra.MemoryGates(5, domain.DefaultWindow, domain.SystemClock{}))
	stats := infra.NewMemoryStatsStore(infra.WithTrackClients(true))

	guard := func(endpoint string) ratelimit.Guard {
		return ratelimit.Chain(
			ratelimit.Middleware(ratelimit.Options{
				Endpoint:            endpoint,
				Gate:                gates.Get(endpoint),
				StallDelay:          3 * time.Second,
				Stats:               stats,
				KeyHeader:           "X-Api-Key", // ou vazio para usar IP
				AddRateLimitHeaders: true,
				Logger:              &log,
			}),
			ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{Max: 1}),
		)
	}

	mux := http.NewServeMux()
	mux.Handle("/", guard("index")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})))
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		t := stats.Total()
		log.Info().Int64("proceeded", t.Proceeded).Int64("delayed", t.Delayed).Msg("gate stats")
		w.WriteHeader(http.StatusNoContent)
	})

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("example server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server error")
	}
}
