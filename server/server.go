// Package server monta o roteador HTTP do reportd: rotas de relatório, cada
// uma com seu próprio gate, e rotas operacionais sem gate.
package server

import (
	"net/http"
	"sort"
	"time"

	"analytics-gateway/config"
	"analytics-gateway/middleware/ratelimit"
	"analytics-gateway/middleware/ratelimit/domain"
	"analytics-gateway/middleware/ratelimit/infra"
	"analytics-gateway/reports"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

type Deps struct {
	Config config.Config
	Repo   reports.Repository
	// Gates é dono dos gates: um por endpoint, criado aqui na montagem.
	Gates   *infra.GateStore
	Stats   domain.StatsStore
	Clock   domain.Clock
	Logger  zerolog.Logger
	Metrics http.Handler
}

// route liga um endpoint lógico (nome do gate) ao path e ao handler.
type route struct {
	endpoint string
	path     string
	handler  func(reports.Handlers) http.HandlerFunc
}

var routes = []route{
	{"index", "/", func(h reports.Handlers) http.HandlerFunc { return h.Index }},
	{"events_hourly", "/events/hourly", func(h reports.Handlers) http.HandlerFunc { return h.EventsHourly }},
	{"events_daily", "/events/daily", func(h reports.Handlers) http.HandlerFunc { return h.EventsDaily }},
	{"stats_hourly", "/stats/hourly", func(h reports.Handlers) http.HandlerFunc { return h.StatsHourly }},
	{"stats_daily", "/stats/daily", func(h reports.Handlers) http.HandlerFunc { return h.StatsDaily }},
	{"poi", "/poi", func(h reports.Handlers) http.HandlerFunc { return h.POI }},
}

type router struct {
	deps  Deps
	pools map[string]*infra.ChanPool
}

func NewRouter(d Deps) http.Handler {
	if d.Clock == nil {
		d.Clock = domain.SystemClock{}
	}
	if d.Gates == nil {
		d.Gates = infra.NewGateStore(infra.MemoryGates(d.Config.Rate.Capacity, d.Config.Rate.Window, d.Clock))
	}
	rt := &router{deps: d, pools: make(map[string]*infra.ChanPool)}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(hlog.NewHandler(d.Logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, dur time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Int("status", status).
			Int("size", size).
			Dur("duration", dur).
			Msg("request")
	}))

	h := reports.Handlers{
		Repo:         d.Repo,
		QueryTimeout: d.Config.Database.QueryTimeout,
		Logger:       d.Logger,
	}
	for _, rr := range routes {
		r.With(rt.guards(rr.endpoint)).Get(rr.path, rr.handler(h))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		reports.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
	r.Get("/debug/gates", rt.debugGates)

	return r
}

// guards devolve a cadeia do endpoint. O gate vem antes do guard de
// concorrência: uma requisição atrasada não segura vaga de worker.
func (rt *router) guards(endpoint string) ratelimit.Guard {
	cfg := rt.deps.Config
	var guards []ratelimit.Guard

	if cfg.Rate.Enabled {
		log := rt.deps.Logger
		guards = append(guards, ratelimit.Middleware(ratelimit.Options{
			Endpoint:            endpoint,
			Gate:                rt.deps.Gates.Get(endpoint),
			Clock:               rt.deps.Clock,
			StallDelay:          cfg.Rate.StallDelay,
			Stats:               rt.deps.Stats,
			KeyHeader:           cfg.Rate.KeyHeader,
			TrustXForwardedFor:  cfg.Rate.TrustXFF,
			DelayedStatus:       cfg.Rate.DelayedStatus,
			AddRateLimitHeaders: cfg.Rate.AddHeaders,
			Logger:              &log,
		}))
	}

	if cfg.Concurrency.Max > 0 {
		pool := infra.NewChanPool(cfg.Concurrency.Max)
		rt.pools[endpoint] = pool
		guards = append(guards, ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
			Pool:           pool,
			AcquireTimeout: cfg.Concurrency.Timeout,
		}))
	}

	return ratelimit.Chain(guards...)
}

type gateView struct {
	Endpoint     string    `json:"endpoint"`
	Capacity     int       `json:"capacity"`
	Count        int       `json:"count"`
	WindowEnd    time.Time `json:"window_end"`
	WorkersInUse int       `json:"workers_in_use,omitempty"`
	Workers      int       `json:"workers,omitempty"`
}

func (rt *router) debugGates(w http.ResponseWriter, _ *http.Request) {
	snaps := rt.deps.Gates.Snapshots()

	out := make([]gateView, 0, len(snaps))
	for endpoint, win := range snaps {
		v := gateView{
			Endpoint:  endpoint,
			Capacity:  win.Capacity,
			Count:     win.Count,
			WindowEnd: win.End,
		}
		if p, ok := rt.pools[endpoint]; ok {
			v.WorkersInUse = p.InUse()
			v.Workers = p.Cap()
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Endpoint < out[j].Endpoint })

	reports.WriteJSON(w, http.StatusOK, out)
}
