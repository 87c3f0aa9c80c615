package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"codeberg.org/mutker/deviceapi/internal/api"
	"codeberg.org/mutker/deviceapi/internal/collector"
	"codeberg.org/mutker/deviceapi/internal/health"
	"codeberg.org/mutker/deviceapi/internal/history"
	"codeberg.org/mutker/deviceapi/internal/logger"
	"codeberg.org/mutker/deviceapi/internal/platform"
	"codeberg.org/mutker/deviceapi/internal/provider"
	"codeberg.org/mutker/deviceapi/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHealth struct{}

func sample(numbers map[string]float64) provider.RawSample {
	return provider.RawSample{Numbers: numbers}
}

func (fakeHealth) CollectCPU(context.Context) (provider.RawSample, error) {
	return sample(map[string]float64{provider.KeyCPUPercent: 21.5}), nil
}

func (fakeHealth) CollectMemory(context.Context) (provider.RawSample, error) {
	return sample(map[string]float64{provider.KeyMemoryPercent: 40}), nil
}

func (fakeHealth) CollectDisk(context.Context) (provider.RawSample, error) {
	return sample(map[string]float64{provider.KeyDiskPercent: 55}), nil
}

func (fakeHealth) CollectUptime(context.Context) (provider.RawSample, error) {
	return sample(map[string]float64{provider.KeyUptimeSeconds: 7200}), nil
}

func (fakeHealth) CollectExtras(context.Context) (provider.RawSample, error) {
	return provider.RawSample{Strings: map[string]string{"device_model": "test-device"}}, nil
}

type fakeCameras struct{}

func (fakeCameras) ListCameras(context.Context) ([]provider.Camera, error) {
	return []provider.Camera{{ID: "cam0", Name: "FaceTime HD"}}, nil
}

type fakeScreenshot struct{}

func (fakeScreenshot) Capture(context.Context) ([]byte, string, error) {
	return []byte("\x89PNG"), "image/png", nil
}

type fakePlayer struct {
	restarted bool
}

func (p *fakePlayer) Status(context.Context) (provider.PlayerStatus, error) {
	return provider.PlayerStatus{Service: "slideshow-player.service", Running: true, State: "active"}, nil
}

func (p *fakePlayer) Restart(context.Context) error {
	p.restarted = true
	return nil
}

type fakeActions struct {
	restartedService string
	rebooted         bool
}

func (a *fakeActions) RestartService(_ context.Context, name string) error {
	a.restartedService = name
	return nil
}

func (a *fakeActions) Reboot(context.Context) error {
	a.rebooted = true
	return nil
}

type testEnv struct {
	registry *registry.Registry
	player   *fakePlayer
	actions  *fakeActions
	history  *history.Repository
}

func newTestServer(t *testing.T, p platform.Platform, bindCamera, withHistory bool) (*httptest.Server, *testEnv) {
	t.Helper()

	env := &testEnv{
		registry: registry.New(p),
		player:   &fakePlayer{},
		actions:  &fakeActions{},
	}

	require.NoError(t, env.registry.RegisterInstance(registry.ContractHealth, fakeHealth{}))
	require.NoError(t, env.registry.RegisterInstance(registry.ContractScreenshot, fakeScreenshot{}))
	require.NoError(t, env.registry.RegisterInstance(registry.ContractPlayer, env.player))
	require.NoError(t, env.registry.RegisterInstance(registry.ContractAction, env.actions))
	if bindCamera {
		require.NoError(t, env.registry.RegisterInstance(registry.ContractCamera, fakeCameras{}))
	}

	facade, err := collector.New(env.registry, collector.Config{
		CacheTTL:        time.Second,
		ProviderTimeout: time.Second,
	})
	require.NoError(t, err)

	engine, err := health.NewEngine(health.DefaultConfig())
	require.NoError(t, err)

	var opts []api.Option
	if withHistory {
		cfg := history.DefaultConfig(filepath.Join(t.TempDir(), "deviceapi.db"))
		cfg.BatchSize = 1
		repo, err := history.NewRepository(cfg, logger.Default())
		require.NoError(t, err)
		t.Cleanup(func() { repo.Close() })
		env.history = repo
		opts = append(opts, api.WithHistory(repo))
	}

	server, err := api.NewServer(
		api.DefaultConfig("127.0.0.1:0"),
		env.registry,
		health.NewService(facade, engine),
		logger.Default(),
		opts...,
	)
	require.NoError(t, err)

	ts := httptest.NewServer(server.Routes())
	t.Cleanup(ts.Close)

	return ts, env
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}

	return resp
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, platform.OrangePi, false, false)

	var metrics collector.NormalizedMetrics
	resp := getJSON(t, ts.URL+"/health", &metrics)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 21.5, metrics.CPUPercent, 0.001)
	assert.EqualValues(t, 7200, metrics.UptimeSeconds)
	assert.Equal(t, platform.OrangePi, metrics.Platform)
	assert.Equal(t, "test-device", metrics.Extras["device_model"])
}

func TestHealthSummaryEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, platform.OrangePi, false, false)

	var summary struct {
		Score   int    `json:"score"`
		Status  string `json:"status"`
		Metrics collector.NormalizedMetrics
	}
	resp := getJSON(t, ts.URL+"/health/summary", &summary)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 100, summary.Score)
	assert.Equal(t, "healthy", summary.Status)
}

func TestPlatformEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, platform.OrangePi, false, false)

	var info struct {
		Platform       string   `json:"platform"`
		ServiceManager string   `json:"service_manager"`
		Capabilities   []string `json:"capabilities"`
	}
	resp := getJSON(t, ts.URL+"/platform", &info)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "orangepi", info.Platform)
	assert.Equal(t, "systemctl", info.ServiceManager)
	assert.Contains(t, info.Capabilities, "health")
	assert.Contains(t, info.Capabilities, "screenshot")
}

func TestUnboundCapabilityIsNotFound(t *testing.T) {
	ts, _ := newTestServer(t, platform.OrangePi, false, false)

	var body struct {
		Code string `json:"code"`
	}
	resp := getJSON(t, ts.URL+"/cameras", &body)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "capability_unavailable", body.Code)
}

func TestCamerasEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, platform.MacOS, true, false)

	var body struct {
		Cameras []provider.Camera `json:"cameras"`
	}
	resp := getJSON(t, ts.URL+"/cameras", &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body.Cameras, 1)
	assert.Equal(t, "cam0", body.Cameras[0].ID)
}

func TestScreenshotEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, platform.OrangePi, false, false)

	resp, err := http.Post(ts.URL+"/screenshot", "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestPlayerEndpoints(t *testing.T) {
	ts, env := newTestServer(t, platform.OrangePi, false, false)

	var status provider.PlayerStatus
	resp := getJSON(t, ts.URL+"/player", &status)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, status.Running)

	restartResp, err := http.Post(ts.URL+"/player/restart", "", nil)
	require.NoError(t, err)
	restartResp.Body.Close()

	assert.Equal(t, http.StatusAccepted, restartResp.StatusCode)
	assert.True(t, env.player.restarted)
}

func TestActionRestartRequiresServiceName(t *testing.T) {
	ts, env := newTestServer(t, platform.OrangePi, false, false)

	resp, err := http.Post(ts.URL+"/actions/restart", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/actions/restart", "application/json",
		strings.NewReader(`{"service":"slideshow-player.service"}`))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "slideshow-player.service", env.actions.restartedService)
}

func TestActionReboot(t *testing.T) {
	ts, env := newTestServer(t, platform.OrangePi, false, false)

	resp, err := http.Post(ts.URL+"/actions/reboot", "", nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.True(t, env.actions.rebooted)
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t, platform.OrangePi, false, false)

	resp, err := http.Post(ts.URL+"/health", "", nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, http.MethodGet, resp.Header.Get("Allow"))
}

func TestLivenessEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, platform.Generic, false, false)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, platform.Generic, false, false)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHistoryEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, platform.OrangePi, false, true)

	// A collection populates the history through the repository only when
	// the facade is wired with a recorder; here we only verify routing and
	// the empty result shape.
	var body struct {
		Count     int                           `json:"count"`
		Snapshots []collector.NormalizedMetrics `json:"snapshots"`
	}
	resp := getJSON(t, ts.URL+"/history?limit=5", &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, body.Count)
}

func TestHistoryEndpointRejectsBadLimit(t *testing.T) {
	ts, _ := newTestServer(t, platform.OrangePi, false, true)

	resp, err := http.Get(ts.URL + "/history?limit=0")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHistoryEndpointAbsentWithoutRepository(t *testing.T) {
	ts, _ := newTestServer(t, platform.OrangePi, false, false)

	resp, err := http.Get(ts.URL + "/history")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
