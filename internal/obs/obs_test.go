package obs

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileDisabled(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
}

func TestLoadConfig_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "observability.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enabled: true\naddr: 0.0.0.0:9999\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "0.0.0.0:9999", cfg.Addr)
}

func TestNewControllerMetrics_RegistersDistinctNames(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewControllerMetrics(reg)
	m.AliveSwitches.Set(3)
	m.DeadLinks.Set(1)
	m.RoutingUpdates.Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestHandler_ServesMetricsAndStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewControllerMetrics(reg)
	h := Handler(reg, func() string { return "ok" })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	h.ServeHTTP(rec, req)
	assert.Equal(t, "ok", rec.Body.String())

	rec2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	h.ServeHTTP(rec2, req2)
	assert.Equal(t, http.StatusOK, rec2.Code)
}
