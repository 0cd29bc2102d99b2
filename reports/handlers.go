package reports

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const Welcome = "welcome eq works"

type Handlers struct {
	Repo Repository
	// QueryTimeout limita cada consulta; 0 usa só o contexto da requisição.
	QueryTimeout time.Duration
	Logger       zerolog.Logger
}

func (h Handlers) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, Welcome)
}

func (h Handlers) EventsHourly(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, "events_hourly", h.Repo.HourlyEvents)
}

func (h Handlers) EventsDaily(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, "events_daily", h.Repo.DailyEvents)
}

func (h Handlers) StatsHourly(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, "stats_hourly", h.Repo.HourlyStats)
}

func (h Handlers) StatsDaily(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, "stats_daily", h.Repo.DailyStats)
}

func (h Handlers) POI(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, "poi", h.Repo.POIs)
}

func serve[T any](h Handlers, w http.ResponseWriter, r *http.Request, name string, query func(context.Context) ([]T, error)) {
	ctx := r.Context()
	if h.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.QueryTimeout)
		defer cancel()
	}

	rows, err := query(ctx)
	if err != nil {
		h.Logger.Error().Err(err).Str("report", name).Msg("report query failed")
		WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "report unavailable"})
		return
	}
	if rows == nil {
		rows = []T{}
	}
	WriteJSON(w, http.StatusOK, rows)
}

// WriteJSON escreve v como JSON com o status dado.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
