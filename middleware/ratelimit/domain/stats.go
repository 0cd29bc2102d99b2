package domain

import (
	"context"
	"time"
)

// StatsEvent representa uma decisão do gate.
//
// Method/Path são strings genéricas; Endpoint é o nome lógico do gate
// (ex: "stats_hourly"), que tem cardinalidade controlada.
//
// Observação: Client pode explodir o número de chaves no Redis; só é gravado
// quando o store foi configurado para rastrear clientes.
type StatsEvent struct {
	Endpoint string
	Client   string
	Verdict  Verdict
	Count    int

	Method string
	Path   string

	At time.Time
}

// StatsStore é a estratégia de persistência das estatísticas do gate.
//
// O middleware trata erro como best-effort (não derruba a request).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
