package reports

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeRepo struct {
	err      error
	deadline bool
}

func (f *fakeRepo) HourlyEvents(ctx context.Context) ([]HourlyEvent, error) {
	_, f.deadline = ctx.Deadline()
	return []HourlyEvent{{Date: day, Hour: 0, Events: 14, POIID: 3}}, f.err
}

func (f *fakeRepo) DailyEvents(context.Context) ([]DailyEvent, error) {
	return []DailyEvent{{Date: day, Events: 3675}}, f.err
}

func (f *fakeRepo) HourlyStats(context.Context) ([]HourlyStat, error) {
	return []HourlyStat{{Date: day, Hour: 1, Impressions: 141397, Clicks: 201, Revenue: 696, POIID: 4}}, f.err
}

func (f *fakeRepo) DailyStats(context.Context) ([]DailyStat, error) {
	return []DailyStat{{Date: day, Impressions: 2764609, Clicks: 3627, Revenue: 13092.1234}}, f.err
}

func (f *fakeRepo) POIs(context.Context) ([]POI, error) {
	if f.err != nil {
		return nil, f.err
	}
	return nil, nil
}

func do(h http.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "http://example/", nil))
	return w
}

func TestHandlers_Index(t *testing.T) {
	w := do(Handlers{}.Index)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, Welcome, w.Body.String())
}

func TestHandlers_StatsHourlyJSON(t *testing.T) {
	h := Handlers{Repo: &fakeRepo{}, Logger: zerolog.Nop()}

	w := do(h.StatsHourly)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var got []HourlyStat
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, int64(201), got[0].Clicks)
	assert.Equal(t, 4, got[0].POIID)
	assert.Contains(t, w.Body.String(), `"poi_id":4`)
}

func TestHandlers_EmptyResultIsEmptyArray(t *testing.T) {
	w := do(Handlers{Repo: &fakeRepo{}}.POI)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestHandlers_RepositoryErrorIs500(t *testing.T) {
	h := Handlers{Repo: &fakeRepo{err: errors.New("connection reset")}, Logger: zerolog.Nop()}

	for name, fn := range map[string]http.HandlerFunc{
		"events_hourly": h.EventsHourly,
		"events_daily":  h.EventsDaily,
		"stats_daily":   h.StatsDaily,
		"poi":           h.POI,
	} {
		w := do(fn)
		assert.Equal(t, http.StatusInternalServerError, w.Code, name)
		assert.JSONEq(t, `{"error":"report unavailable"}`, w.Body.String(), name)
	}
}

func TestHandlers_QueryTimeoutSetsDeadline(t *testing.T) {
	repo := &fakeRepo{}
	do(Handlers{Repo: repo, QueryTimeout: time.Second}.EventsHourly)
	assert.True(t, repo.deadline)

	repo = &fakeRepo{}
	do(Handlers{Repo: repo}.EventsHourly)
	assert.False(t, repo.deadline)
}
