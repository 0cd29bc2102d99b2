package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"analytics-gateway/config"
	"analytics-gateway/logging"
	"analytics-gateway/middleware/ratelimit/domain"
	"analytics-gateway/middleware/ratelimit/infra"
	"analytics-gateway/reports"
	"analytics-gateway/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file (default: $"+config.PathEnvVar+")")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	log := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: os.Stderr})

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	connectCtx, cancelConnect := context.WithTimeout(ctx, 10*time.Second)
	pool, err := reports.Connect(connectCtx, cfg.Database.URL, cfg.Database.MaxConns)
	cancelConnect()
	if err != nil {
		return err
	}
	defer pool.Close()

	var rdb *redis.Client
	if cfg.NeedsRedis() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancelPing := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancelPing()
		if err != nil {
			return fmt.Errorf("redis ping error: %w", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promStats, err := infra.NewPrometheusStatsStore(reg)
	if err != nil {
		return fmt.Errorf("register gate metrics: %w", err)
	}

	stats := infra.MultiStatsStore{promStats}
	if cfg.Stats.Redis {
		stats = append(stats, infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.Stats.Prefix),
			infra.WithStatsTTL(cfg.Stats.TTL),
			infra.WithStatsBucket(cfg.Stats.Bucket),
			infra.WithStatsTrackClients(cfg.Stats.TrackClients),
		))
	}

	clock := domain.SystemClock{}
	var gates *infra.GateStore
	if cfg.Rate.Backend == "redis" {
		gates = infra.NewGateStore(infra.RedisGates(rdb, cfg.Rate.Capacity, cfg.Rate.Window, infra.WithGatePrefix(cfg.Rate.RedisPrefix)))
	} else {
		gates = infra.NewGateStore(infra.MemoryGates(cfg.Rate.Capacity, cfg.Rate.Window, clock))
	}

	h := server.NewRouter(server.Deps{
		Config:  cfg,
		Repo:    reports.NewPostgresRepository(pool),
		Gates:   gates,
		Stats:   stats,
		Clock:   clock,
		Logger:  log,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.Server.ListenAddr).Msg("reportd listening")
	log.Info().
		Bool("enabled", cfg.Rate.Enabled).
		Str("backend", cfg.Rate.Backend).
		Int("capacity", cfg.Rate.Capacity).
		Int("threshold", domain.StallThreshold).
		Dur("window", cfg.Rate.Window).
		Dur("stall_delay", cfg.Rate.StallDelay).
		Msg("gate")
	log.Info().
		Bool("redis", cfg.Stats.Redis).
		Str("bucket", cfg.Stats.Bucket).
		Dur("ttl", cfg.Stats.TTL).
		Bool("track_clients", cfg.Stats.TrackClients).
		Msg("gate stats")
	log.Info().Int("max", cfg.Concurrency.Max).Dur("timeout", cfg.Concurrency.Timeout).Msg("concurrency")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
