package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maa-se/internal/taskqueue"
)

type fakeCommands struct {
	runDailyErr     error
	stopped         bool
	configs         map[string]taskqueue.Parameters
	logLevel        string
	updateErr       error
	rateBytesPerSec int64
}

func (f *fakeCommands) RunDaily() error { return f.runDailyErr }
func (f *fakeCommands) StopCore()       { f.stopped = true }
func (f *fakeCommands) UpdateConfig(name string, params taskqueue.Parameters) error {
	if f.configs == nil {
		f.configs = make(map[string]taskqueue.Parameters)
	}
	f.configs[name] = params
	return nil
}
func (f *fakeCommands) GetConfig() (string, error) { return `{"settings":{}}`, nil }
func (f *fakeCommands) SetLogLevel(level string) error { f.logLevel = level; return nil }
func (f *fakeCommands) Update(targetType string) (string, error) {
	if f.updateErr != nil {
		return "", f.updateErr
	}
	return "ClientSuccess", nil
}
func (f *fakeCommands) UpdateResource() (string, error) { return "AlreadyUpdated", nil }
func (f *fakeCommands) SetDownloadRateLimit(bytesPerSec int64) error {
	f.rateBytesPerSec = bytesPerSec
	return nil
}

func newTestServer(t *testing.T, cmds *fakeCommands) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	s := New(logger, cmds, nil, nil)
	ts := httptest.NewServer(s.router)
	t.Cleanup(ts.Close)
	return ts
}

func TestRunDailyEndpoint(t *testing.T) {
	cmds := &fakeCommands{}
	ts := newTestServer(t, cmds)

	resp, err := http.Post(ts.URL+"/api/run_daily", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRunDailyEndpointSurfacesError(t *testing.T) {
	cmds := &fakeCommands{runDailyErr: fmt.Errorf("session already active")}
	ts := newTestServer(t, cmds)

	resp, err := http.Post(ts.URL+"/api/run_daily", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestStopCoreEndpoint(t *testing.T) {
	cmds := &fakeCommands{}
	ts := newTestServer(t, cmds)

	resp, err := http.Post(ts.URL+"/api/stop_core", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, cmds.stopped)
}

func TestUpdateConfigEndpoint(t *testing.T) {
	cmds := &fakeCommands{}
	ts := newTestServer(t, cmds)

	body, _ := json.Marshal(map[string]any{
		"name":   "Fight",
		"params": map[string]any{"enable": true, "index": 1},
	})
	resp, err := http.Post(ts.URL+"/api/update_config", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, cmds.configs, "Fight")
}

func TestGetConfigEndpoint(t *testing.T) {
	cmds := &fakeCommands{}
	ts := newTestServer(t, cmds)

	resp, err := http.Get(ts.URL + "/api/config")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUpdateEndpoint(t *testing.T) {
	cmds := &fakeCommands{}
	ts := newTestServer(t, cmds)

	body, _ := json.Marshal(map[string]string{"target_type": "stable"})
	resp, err := http.Post(ts.URL+"/api/update", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "ClientSuccess", out["result"])
}

func TestSetDownloadRateLimitEndpoint(t *testing.T) {
	cmds := &fakeCommands{}
	ts := newTestServer(t, cmds)

	body, _ := json.Marshal(map[string]int64{"bytes_per_sec": 1 << 20})
	resp, err := http.Post(ts.URL+"/api/download_rate_limit", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1<<20, cmds.rateBytesPerSec)
}
