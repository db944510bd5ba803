package app

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/hordewatch/hordewatch/internal/config"
	"github.com/hordewatch/hordewatch/internal/horde"
)

// poolsOnly serves a fixed pool list and fails everything else.
type poolsOnly struct {
	horde.Fetcher
	pools []horde.DevicePool
}

func (p poolsOnly) Pools(context.Context) ([]horde.DevicePool, error) { return p.pools, nil }

func TestNewLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "hw.log")

	logger, err := NewLogger(path, "debug")
	require.NoError(t, err)
	logger.Debug("hello")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestNewLogger_EmptyPathIsNop(t *testing.T) {
	logger, err := NewLogger("", "info")
	require.NoError(t, err)
	logger.Info("dropped")
}

func TestNewLogger_BadLevel(t *testing.T) {
	_, err := NewLogger(filepath.Join(t.TempDir(), "hw.log"), "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log level")
}

func TestSession_ServesMetrics(t *testing.T) {
	s, err := newSession(config.Default(), zaptest.NewLogger(t), poolsOnly{pools: []horde.DevicePool{{ID: "p1"}}})
	require.NoError(t, err)
	defer s.Close()

	s.Dashboard.Pools.Update(context.Background())

	addr, stop, err := serveMetrics(s.Logger, s.Registry, "127.0.0.1:0")
	require.NoError(t, err)
	defer stop()

	defer http.DefaultClient.CloseIdleConnections()
	resp, err := http.Get("http://" + addr.String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `hordewatch_poll_fetches_total{handler="pools",result="ok"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestSession_BadMetricsAddr(t *testing.T) {
	cfg := config.Default()
	cfg.MetricsAddr = "not-an-address"

	_, err := newSession(cfg, zaptest.NewLogger(t), poolsOnly{})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "serve metrics"))
}

func TestOpen_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("server_url = ["), 0o600))

	_, err := Open(Options{ConfigPath: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestOpen_OverridesServerURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := "log_file = \"" + filepath.ToSlash(filepath.Join(dir, "hw.log")) + "\"\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	s, err := Open(Options{ConfigPath: path, ServerURL: "http://horde.test:8080", LogLevel: "warn"})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "http://horde.test:8080", s.Config.ServerURL)
	assert.Equal(t, "warn", s.Config.LogLevel)
}
