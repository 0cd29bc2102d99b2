package infra

import (
	"context"

	"analytics-gateway/middleware/ratelimit/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusStatsStore exporta as decisões do gate como métricas.
// Só usa o endpoint como label (cardinalidade controlada).
type PrometheusStatsStore struct {
	decisions *prometheus.CounterVec
	count     *prometheus.GaugeVec
}

func NewPrometheusStatsStore(reg prometheus.Registerer) (*PrometheusStatsStore, error) {
	s := &PrometheusStatsStore{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gate_decisions_total",
			Help: "Total de decisões do gate por endpoint e veredito.",
		}, []string{"endpoint", "verdict"}),
		count: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gate_window_count",
			Help: "Contador da janela atual observado na última decisão.",
		}, []string{"endpoint"}),
	}
	for _, c := range []prometheus.Collector{s.decisions, s.count} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *PrometheusStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.decisions.WithLabelValues(ev.Endpoint, ev.Verdict.String()).Inc()
	s.count.WithLabelValues(ev.Endpoint).Set(float64(ev.Count))
	return nil
}

// MultiStatsStore repassa o evento para todos os stores e devolve o primeiro erro.
type MultiStatsStore []domain.StatsStore

func (m MultiStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	var first error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
