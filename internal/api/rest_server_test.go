package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/annel0/voxel-world/internal/app"
	"github.com/annel0/voxel-world/internal/storage"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	server  *RestServer
	session *app.Session
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	p := world.DefaultParams()
	p.Seed = 21
	p.ChunkSize = world.Size{Width: 8, Height: 16}
	p.DrawDistance = 1

	reg := prometheus.NewRegistry()
	w, err := world.NewWorld(p, world.WithStorage(storage.NewMemoryStorage()), world.WithMetrics(reg))
	require.NoError(t, err)
	session := app.NewSession(w)
	session.Start(context.Background(), false)

	server := NewRestServer(Config{Session: session, Registerer: reg, Gatherer: reg})
	return &testEnv{server: server, session: session}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, GenericResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)

	var resp GenericResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec, _ := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get("X-Trace-Id"))
}

func TestStatsReportsWorld(t *testing.T) {
	env := newTestEnv(t)
	rec, resp := env.do(t, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	worldStats := data["world"].(map[string]interface{})
	assert.EqualValues(t, 9, worldStats["loaded"])
	assert.EqualValues(t, 21, worldStats["seed"])
	assert.Contains(t, data, "process")
}

func TestBlockLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodPut, "/api/blocks", BlockRequest{X: 2, Y: 15, Z: -3, Block: "stone"})
	require.Equal(t, http.StatusOK, rec.Code, resp.Message)

	rec, resp = env.do(t, http.MethodGet, "/api/blocks?x=2&y=15&z=-3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := resp.Data.(map[string]interface{})
	assert.Equal(t, "Stone", got["name"])
	assert.GreaterOrEqual(t, got["instance"].(float64), float64(0), "верхний блок виден")

	rec, _ = env.do(t, http.MethodDelete, "/api/blocks?x=2&y=15&z=-3", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	_, resp = env.do(t, http.MethodGet, "/api/blocks?x=2&y=15&z=-3", nil)
	assert.Equal(t, "Empty", resp.Data.(map[string]interface{})["name"])
}

func TestBlockErrors(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"неизвестный блок", http.MethodPut, "/api/blocks", BlockRequest{X: 0, Y: 1, Z: 0, Block: "lava"}, http.StatusBadRequest},
		{"пустой блок", http.MethodPut, "/api/blocks", BlockRequest{X: 0, Y: 1, Z: 0, Block: "empty"}, http.StatusBadRequest},
		{"вне высоты", http.MethodPut, "/api/blocks", BlockRequest{X: 0, Y: 16, Z: 0, Block: "stone"}, http.StatusBadRequest},
		{"чанк не загружен", http.MethodPut, "/api/blocks", BlockRequest{X: 500, Y: 1, Z: 0, Block: "3"}, http.StatusConflict},
		{"неверная координата", http.MethodGet, "/api/blocks?x=a&y=1&z=0", nil, http.StatusBadRequest},
		{"клетка не загружена", http.MethodGet, "/api/blocks?x=500&y=1&z=0", nil, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, resp := env.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, rec.Code)
			assert.False(t, resp.Success)
		})
	}
}

func TestObserverStreamsChunks(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/api/observer", map[string]float64{"x": -0.5, "y": 4, "z": 0.5})
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Len(t, data["added"], 3)
	assert.Len(t, data["removed"], 3)

	_, resp = env.do(t, http.MethodGet, "/api/chunks", nil)
	assert.EqualValues(t, 9, resp.Data.(map[string]interface{})["total"])
}

func TestObserverModes(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/api/observer", ObserverRequest{X: 1.5, Z: 1.5, Mode: "ground"})
	require.Equal(t, http.StatusOK, rec.Code, resp.Message)
	ground := env.session.Observer()
	assert.Greater(t, ground.Y, 0.0)

	rec, _ = env.do(t, http.MethodPost, "/api/observer", ObserverRequest{X: 1.5, Y: 0.5, Z: 1.5, Mode: "walk"})
	assert.Equal(t, http.StatusConflict, rec.Code, "внутри рельефа ходить нельзя")
	assert.Equal(t, ground, env.session.Observer())

	rec, _ = env.do(t, http.MethodPost, "/api/observer", ObserverRequest{X: 1.5, Mode: "swim"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParamsUpdate(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodPut, "/api/world/params", map[string]interface{}{"seed": 99})
	require.Equal(t, http.StatusOK, rec.Code, resp.Message)
	assert.EqualValues(t, 99, env.session.Params().Seed)
	assert.Equal(t, 16, env.session.Params().ChunkSize.Height, "остальные поля сохраняются")

	rec, _ = env.do(t, http.MethodPut, "/api/world/params", map[string]interface{}{
		"terrain": map[string]interface{}{"scale": 0},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.EqualValues(t, 99, env.session.Params().Seed)
}

func TestParamsUpdateRejectsOversizedWorld(t *testing.T) {
	env := newTestEnv(t)

	bodies := []map[string]interface{}{
		{"chunk_size": map[string]int{"width": 1 << 22, "height": 1 << 22}},
		{"draw_distance": 1_000_000},
	}
	for _, body := range bodies {
		rec, resp := env.do(t, http.MethodPut, "/api/world/params", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, resp.Success)
	}

	p := env.session.Params()
	assert.Equal(t, world.Size{Width: 8, Height: 16}, p.ChunkSize)
	assert.Equal(t, 1, p.DrawDistance)
	assert.Equal(t, 9, env.session.Stats().Loaded)
}

func TestSaveAndLoad(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodPost, "/api/world/load", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "снапшота ещё нет")

	_, _ = env.do(t, http.MethodPut, "/api/blocks", BlockRequest{X: 1, Y: 15, Z: 1, Block: "CoalOre"})
	rec, resp := env.do(t, http.MethodPost, "/api/world/save", nil)
	require.Equal(t, http.StatusOK, rec.Code, resp.Message)

	rec, _ = env.do(t, http.MethodPost, "/api/world/generate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, env.session.Stats().Overrides)

	rec, _ = env.do(t, http.MethodPost, "/api/world/load", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.session.Stats().Overrides)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	_, _ = env.do(t, http.MethodGet, "/api/stats", nil)

	rec, _ := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "rest_api_http_request_duration_seconds")
	assert.Contains(t, body, "voxelworld_chunks_loaded")
}

func TestServerStartStop(t *testing.T) {
	env := newTestEnv(t)
	env.server.httpSrv.Addr = "127.0.0.1:0"

	done := make(chan error, 1)
	go func() { done <- env.server.Start() }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, env.server.Stop(ctx))
	require.NoError(t, <-done)
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "42с", formatUptime(42*time.Second))
	assert.Equal(t, "2м 5с", formatUptime(125*time.Second))
	assert.Equal(t, "1д 1ч 0м 0с", formatUptime(25*time.Hour))
}
