package reports

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	hourlyEventsSQL = `
SELECT date, hour, events, poi_id
FROM public.hourly_events
ORDER BY date, hour
LIMIT $1`

	dailyEventsSQL = `
SELECT date, SUM(events) AS events
FROM public.hourly_events
GROUP BY date
ORDER BY date
LIMIT $1`

	hourlyStatsSQL = `
SELECT date, hour, impressions, clicks, CAST(revenue AS bigint) AS revenue, poi_id
FROM public.hourly_stats
ORDER BY date, hour
LIMIT $1`

	dailyStatsSQL = `
SELECT date,
       SUM(impressions) AS impressions,
       SUM(clicks) AS clicks,
       SUM(revenue)::float8 AS revenue
FROM public.hourly_stats
GROUP BY date
ORDER BY date
LIMIT $1`

	poiSQL = `
SELECT poi_id, name, lat, lon
FROM public.poi
ORDER BY poi_id`
)

// Querier é o subconjunto do pgxpool.Pool usado aqui.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type PostgresRepository struct {
	db Querier
}

func NewPostgresRepository(db Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Connect abre um pool e confirma a conexão.
func Connect(ctx context.Context, url string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func (r *PostgresRepository) HourlyEvents(ctx context.Context) ([]HourlyEvent, error) {
	return collect[HourlyEvent](ctx, r.db, "hourly events", hourlyEventsSQL, HourlyLimit)
}

func (r *PostgresRepository) DailyEvents(ctx context.Context) ([]DailyEvent, error) {
	return collect[DailyEvent](ctx, r.db, "daily events", dailyEventsSQL, DailyLimit)
}

func (r *PostgresRepository) HourlyStats(ctx context.Context) ([]HourlyStat, error) {
	return collect[HourlyStat](ctx, r.db, "hourly stats", hourlyStatsSQL, HourlyLimit)
}

func (r *PostgresRepository) DailyStats(ctx context.Context) ([]DailyStat, error) {
	return collect[DailyStat](ctx, r.db, "daily stats", dailyStatsSQL, DailyLimit)
}

func (r *PostgresRepository) POIs(ctx context.Context) ([]POI, error) {
	return collect[POI](ctx, r.db, "poi", poiSQL)
}

func collect[T any](ctx context.Context, db Querier, what, sql string, args ...any) ([]T, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", what, err)
	}
	return out, nil
}
