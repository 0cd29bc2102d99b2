// Package reports expõe as agregações pré-calculadas (eventos, estatísticas e
// pontos de interesse) como JSON.
//
// O acesso a dados fica atrás de Repository; PostgresRepository é a
// implementação usada em produção.
package reports

import (
	"context"
	"time"
)

// Limites das consultas: uma semana de horas e uma semana de dias.
const (
	HourlyLimit = 168
	DailyLimit  = 7
)

type HourlyEvent struct {
	Date   time.Time `json:"date" db:"date"`
	Hour   int       `json:"hour" db:"hour"`
	Events int64     `json:"events" db:"events"`
	POIID  int       `json:"poi_id" db:"poi_id"`
}

type DailyEvent struct {
	Date   time.Time `json:"date" db:"date"`
	Events int64     `json:"events" db:"events"`
}

type HourlyStat struct {
	Date        time.Time `json:"date" db:"date"`
	Hour        int       `json:"hour" db:"hour"`
	Impressions int64     `json:"impressions" db:"impressions"`
	Clicks      int64     `json:"clicks" db:"clicks"`
	Revenue     int64     `json:"revenue" db:"revenue"`
	POIID       int       `json:"poi_id" db:"poi_id"`
}

type DailyStat struct {
	Date        time.Time `json:"date" db:"date"`
	Impressions int64     `json:"impressions" db:"impressions"`
	Clicks      int64     `json:"clicks" db:"clicks"`
	Revenue     float64   `json:"revenue" db:"revenue"`
}

type POI struct {
	POIID int     `json:"poi_id" db:"poi_id"`
	Name  string  `json:"name" db:"name"`
	Lat   float64 `json:"lat" db:"lat"`
	Lon   float64 `json:"lon" db:"lon"`
}

type Repository interface {
	HourlyEvents(ctx context.Context) ([]HourlyEvent, error)
	DailyEvents(ctx context.Context) ([]DailyEvent, error)
	HourlyStats(ctx context.Context) ([]HourlyStat, error)
	DailyStats(ctx context.Context) ([]DailyStat, error)
	POIs(ctx context.Context) ([]POI, error)
}
