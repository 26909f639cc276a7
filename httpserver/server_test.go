package httpserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ruteri/balancer-helper-registry/api"
	"github.com/ruteri/balancer-helper-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestServer_HealthAndDrain(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.reg.AddPools(addressOf(env.keeper), []interfaces.ContractAddress{poolA, poolB}))

	srv, err := New(&api.HTTPServerConfig{
		ListenAddr:    "127.0.0.1:0",
		DrainDuration: 10 * time.Second,
		Log:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, env.handler, nil)
	require.NoError(t, err)

	var clock atomic.Time
	clock.Store(time.Unix(1_700_000_000, 0))
	srv.now = clock.Load
	advance := func(d time.Duration) { clock.Store(clock.Load().Add(d)) }

	ts := httptest.NewServer(srv.getRouter())
	defer ts.Close()

	get := func(path string) (int, api.StatusResponse) {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()

		var body api.StatusResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return resp.StatusCode, body
	}

	code, body := get("/livez")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, api.StatusResponse{Status: "alive", PoolCount: 2}, body)

	code, body = get("/readyz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body.Status)

	code, body = get("/drain")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "draining", body.Status)

	code, body = get("/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "draining", body.Status)

	// a drained server stays alive and keeps serving the API
	code, _ = get("/livez")
	assert.Equal(t, http.StatusOK, code)
	code, _ = get("/api/pools/count")
	assert.Equal(t, http.StatusOK, code)

	advance(5 * time.Second)
	_, body = get("/drain")
	assert.Equal(t, "draining", body.Status)

	// the second drain did not restart the drain period
	advance(5 * time.Second)
	code, body = get("/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "drained", body.Status)

	for range 2 {
		code, body = get("/undrain")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ready", body.Status)
	}

	code, body = get("/readyz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, api.StatusResponse{Status: "ready", PoolCount: 2}, body)
}

func TestServer_ShutdownDrains(t *testing.T) {
	env := newTestEnv(t)

	srv, err := New(&api.HTTPServerConfig{
		ListenAddr:               "127.0.0.1:0",
		DrainDuration:            time.Minute,
		GracefulShutdownDuration: time.Second,
		Log:                      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, env.handler, nil)
	require.NoError(t, err)

	srv.RunInBackground()
	srv.Shutdown()

	assert.Equal(t, "draining", srv.readiness())
}

func TestServer_MountsAPI(t *testing.T) {
	env := newTestEnv(t)

	srv, err := New(&api.HTTPServerConfig{
		Log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, env.handler, nil)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.getRouter())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/pools/count")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var count api.PoolCountResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&count))
	assert.Equal(t, uint64(0), count.Count)
}
