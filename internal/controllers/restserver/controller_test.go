package restserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/metrics"
	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/snapshot"
	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/airquality"
	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fetchedAt = time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)

func minuteSamples(values ...float64) []json.RawMessage {
	out := make([]json.RawMessage, len(values))
	for i, v := range values {
		out[i] = json.RawMessage(fmt.Sprintf(`{"ts":%d,"value":%g}`, fetchedAt.Add(time.Duration(i-len(values))*time.Minute).UnixMilli(), v))
	}
	return out
}

func newTestController(t *testing.T) (*Controller, *snapshot.Cache, *metrics.Metrics) {
	t.Helper()
	logger := zap.NewNop().Sugar()
	cache := snapshot.NewCache(4, "", logger)
	m := metrics.New()

	var wg sync.WaitGroup
	ctrl, err := NewController(context.Background(), &wg, config.RESTServerData{}, cache, nil, m, logger)
	require.NoError(t, err)
	ctrl.handlers.now = func() time.Time { return fetchedAt.Add(42 * time.Second) }
	return ctrl, cache, m
}

func serve(ctrl *Controller, method, target string, body io.Reader) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ctrl.Server.Handler.ServeHTTP(rec, httptest.NewRequest(method, target, body))
	return rec
}

func TestNewControllerDefaults(t *testing.T) {
	ctrl, _, _ := newTestController(t)
	assert.Equal(t, "0.0.0.0:8080", ctrl.Server.Addr)

	var wg sync.WaitGroup
	_, err := NewController(context.Background(), &wg, config.RESTServerData{}, nil, nil, nil, zap.NewNop().Sugar())
	assert.Error(t, err)
}

func TestGetEvalEmptyCache(t *testing.T) {
	ctrl, _, _ := newTestController(t)

	rec := serve(ctrl, http.MethodGet, "/api/eval", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"no sensor data has been fetched yet"}`, rec.Body.String())
}

func TestGetEvalLatest(t *testing.T) {
	ctrl, cache, _ := newTestController(t)

	older := snapshot.New(airquality.RawSeries{"co2": minuteSamples(2200, 2200)}, "test", fetchedAt.Add(-time.Minute))
	latest := snapshot.New(airquality.RawSeries{"co2": minuteSamples(500, 500)}, "test", fetchedAt)
	require.NoError(t, cache.Put(older))
	require.NoError(t, cache.Put(latest))

	rec := serve(ctrl, http.MethodGet, "/api/eval", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, latest.ID.String(), rec.Header().Get("X-Snapshot-Id"))
	assert.Equal(t, "42", rec.Header().Get("X-Snapshot-Age"))

	var resp airquality.EvalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, airquality.StatusExcellent, resp.Status)
	assert.Equal(t, 500.0, resp.Sensors["co2"].Value)
}

func TestPostEval(t *testing.T) {
	ctrl, cache, _ := newTestController(t)

	body := `{"series":[{"name":"CO2","data":[[1700000000000,2100],[1700000060000,2150]]}]}`
	rec := serve(ctrl, http.MethodPost, "/api/eval", strings.NewReader(body))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp airquality.EvalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2150.0, resp.Sensors["co2"].Value)
	assert.Equal(t, airquality.StatusWeak, resp.Status)
	assert.Len(t, resp.Highlights, 2)

	assert.Equal(t, 0, cache.Len(), "posted series are not cached")
}

func TestPostEvalEmptyObject(t *testing.T) {
	ctrl, _, _ := newTestController(t)

	rec := serve(ctrl, http.MethodPost, "/api/eval", strings.NewReader(`{}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"overall":0,"status":"Weak","highlights":[],"sensors":{}}`, rec.Body.String())
}

func TestPostEvalBadBody(t *testing.T) {
	ctrl, _, _ := newTestController(t)

	rec := serve(ctrl, http.MethodPost, "/api/eval", strings.NewReader(`[1,2,3]`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "could not decode series")
}

func TestGetSeries(t *testing.T) {
	ctrl, cache, _ := newTestController(t)
	require.NoError(t, cache.Put(snapshot.New(airquality.RawSeries{
		"co2":  minuteSamples(410, 420, 430, 440, 450),
		"note": nil,
	}, "test", fetchedAt)))

	rec := serve(ctrl, http.MethodGet, "/api/series", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SeriesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Series, 1)
	assert.Len(t, resp.Series["co2"], 5)

	rec = serve(ctrl, http.MethodGet, "/api/series?range=2m", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	points := resp.Series["co2"]
	require.Len(t, points, 3)
	assert.Equal(t, 430.0, points[0].Value)
	assert.Equal(t, 450.0, points[2].Value)

	rec = serve(ctrl, http.MethodGet, "/api/series?range=later", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSnapshots(t *testing.T) {
	ctrl, cache, _ := newTestController(t)

	rec := serve(ctrl, http.MethodGet, "/api/snapshots", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	first := snapshot.New(airquality.RawSeries{"co2": minuteSamples(400)}, "file", fetchedAt.Add(-time.Minute))
	second := snapshot.New(airquality.RawSeries{"rh": minuteSamples(40), "co2": minuteSamples(410)}, "file", fetchedAt)
	require.NoError(t, cache.Put(first))
	require.NoError(t, cache.Put(second))

	rec = serve(ctrl, http.MethodGet, "/api/snapshots", nil)
	var infos []SnapshotInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	require.Len(t, infos, 2)
	assert.Equal(t, second.ID.String(), infos[0].ID)
	assert.Equal(t, []string{"co2", "rh"}, infos[0].Sensors)
	assert.Equal(t, first.ID.String(), infos[1].ID)
}

func TestGetSnapshotEval(t *testing.T) {
	ctrl, cache, _ := newTestController(t)
	s := snapshot.New(airquality.RawSeries{"pm25": minuteSamples(18)}, "file", fetchedAt)
	require.NoError(t, cache.Put(s))

	rec := serve(ctrl, http.MethodGet, "/api/snapshots/"+s.ID.String()+"/eval", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, s.ID.String(), rec.Header().Get("X-Snapshot-Id"))

	var resp airquality.EvalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Sensors["pm25"].AQI)
	assert.Equal(t, int32(63), *resp.Sensors["pm25"].AQI)

	rec = serve(ctrl, http.MethodGet, "/api/snapshots/not-a-uuid/eval", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(ctrl, http.MethodGet, "/api/snapshots/00000000-0000-0000-0000-000000000001/eval", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	ctrl, cache, _ := newTestController(t)

	rec := serve(ctrl, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","snapshots":0}`, rec.Body.String())

	require.NoError(t, cache.Put(snapshot.New(airquality.RawSeries{}, "file", fetchedAt)))
	rec = serve(ctrl, http.MethodGet, "/healthz", nil)
	assert.JSONEq(t, `{"status":"ok","snapshots":1,"lastFetch":"2024-02-01T10:00:00Z"}`, rec.Body.String())

	serve(ctrl, http.MethodGet, "/api/snapshots/not-a-uuid/eval", nil)
	rec = serve(ctrl, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `airguard_http_requests_total{route="/api/snapshots/{id}/eval",status="400"} 1`)
	assert.Contains(t, rec.Body.String(), `airguard_http_requests_total{route="/healthz",status="200"} 2`)
}

func TestMsgPackAndPreflight(t *testing.T) {
	ctrl, _, _ := newTestController(t)

	rec := serve(ctrl, http.MethodPost, "/api/eval?format=msgpack", strings.NewReader(`{"co2":[[1,500]]}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-msgpack", rec.Header().Get("Content-Type"))

	rec = serve(ctrl, http.MethodOptions, "/api/eval", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStartControllerShutsDownWithContext(t *testing.T) {
	logger := zap.NewNop().Sugar()
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	ctrl, err := NewController(ctx, &wg, config.RESTServerData{ListenAddr: "127.0.0.1", HTTPPort: 0}, snapshot.NewCache(1, "", logger), nil, nil, logger)
	require.NoError(t, err)
	ctrl.Server.Addr = "127.0.0.1:0"

	require.NoError(t, ctrl.StartController())
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("REST server did not shut down")
	}
}

func TestTrimToWindow(t *testing.T) {
	points := []airquality.PreparedPoint{{TS: 0, Value: 1}, {TS: 60000, Value: 2}, {TS: 120000, Value: 3}}

	assert.Len(t, trimToWindow(points, 0), 3)
	assert.Len(t, trimToWindow(points, time.Minute), 2)
	assert.Len(t, trimToWindow(points, time.Second), 1)
	assert.Empty(t, trimToWindow(nil, time.Minute))
}
