package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huam/biocurate/internal/buildinfo"
	"github.com/huam/biocurate/internal/conf"
	"github.com/huam/biocurate/internal/curation"
	"github.com/huam/biocurate/internal/errors"
	"github.com/huam/biocurate/internal/logger"
	"github.com/huam/biocurate/internal/observability"
)

func testSettings() *conf.Settings {
	return &conf.Settings{
		WebServer: conf.WebServerSettings{Enabled: true, Port: "0", MaxUploadBytes: 4 << 20},
		Metrics:   conf.MetricsSettings{Enabled: true},
	}
}

func newTestServer(t *testing.T, settings *conf.Settings, opts ...ServerOption) *Server {
	t.Helper()
	quiet := logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
	service := curation.New(curation.Config{}, curation.WithLogger(quiet))
	opts = append([]ServerOption{WithLogger(quiet), WithBuildInfo(buildinfo.New("0.9.0", "2026-09-30"))}, opts...)
	s, err := New(settings, service, opts...)
	require.NoError(t, err)
	return s
}

func serve(s *Server, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestConfigFromSettings(t *testing.T) {
	t.Parallel()

	cfg := ConfigFromSettings(&conf.Settings{
		Debug:     true,
		WebServer: conf.WebServerSettings{
			Host: "127.0.0.1", Port: "9090", MaxUploadBytes: 32 << 20,
			AllowedOrigins: []string{"https://herbario.example"},
		},
		Metrics:   conf.MetricsSettings{Enabled: false},
	})
	assert.Equal(t, "127.0.0.1:9090", cfg.Address())
	assert.Equal(t, []string{"https://herbario.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "32M", cfg.BodyLimit)
	assert.False(t, cfg.MetricsEnabled)
	assert.True(t, cfg.Debug)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultConfig().Port, ConfigFromSettings(nil).Port)
}

func TestBodyLimit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "8M", bodyLimit(8<<20))
	assert.Equal(t, "512K", bodyLimit(512<<10))
	assert.Equal(t, "1000B", bodyLimit(1000))
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Port = ""
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.WriteTimeout = 0
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Host = "127.0.0.1"
	assert.Equal(t, "127.0.0.1:8080", cfg.Address())

	cfg = DefaultConfig()
	cfg.Port = "70000"
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.WebServer.Port = ""
	_, err := New(settings, curation.New(curation.Config{}))
	require.Error(t, err)
}

func TestServerHealthAndRequestID(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, testSettings())

	rec := serve(s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"0.9.0"`)
	assert.Contains(t, rec.Body.String(), `"dataset_loaded":false`)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.Equal(t, "nosniff", rec.Header().Get(echo.HeaderXContentTypeOptions))

	rec = serve(s, http.MethodGet, "/api/v2/health", http.Header{echo.HeaderXRequestID: {"req-42"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get(echo.HeaderXRequestID))
	assert.NotNil(t, s.APIController())
}

func TestServerErrorCarriesRequestID(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, testSettings())

	rec := serve(s, http.MethodGet, "/api/v2/taxa/families", http.Header{echo.HeaderXRequestID: {"corr-7"}})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"correlation_id":"corr-7"`)
}

func TestServerMetricsEndpoint(t *testing.T) {
	t.Parallel()

	m, err := observability.NewMetrics()
	require.NoError(t, err)
	s := newTestServer(t, testSettings(), WithMetrics(m))

	rec := serve(s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	disabled := testSettings()
	disabled.Metrics.Enabled = false
	s = newTestServer(t, disabled, WithMetrics(m))
	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "/metrics", nil).Code)
}

func TestServerCORSPreflight(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, testSettings())

	rec := serve(s, http.MethodOptions, "/api/v2/dataset", http.Header{
		echo.HeaderOrigin:                     {"https://herbarium.example"},
		echo.HeaderAccessControlRequestMethod: {http.MethodGet},
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.True(t, strings.Contains(rec.Header().Get(echo.HeaderAccessControlAllowMethods), http.MethodPost))
}

func TestStartWithGracefulShutdownReturnsOnCancel(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.WebServer.Host = "127.0.0.1"
	s := newTestServer(t, settings)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	require.NoError(t, s.StartWithGracefulShutdown(ctx))
}
