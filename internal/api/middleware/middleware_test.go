package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/huam/biocurate/internal/logger"
)

func TestRequestIDReachesHandlerAndLog(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	e := echo.New()
	e.Use(NewRequestID())
	e.Use(NewRequestLogger(logger.NewSlogLogger(&logs, logger.LogLevelInfo, time.UTC)))
	e.GET("/api/v2/codes/:code", func(c echo.Context) error {
		return c.String(http.StatusOK, RequestID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v2/codes/1245", http.NoBody)
	req.Header.Set(echo.HeaderXRequestID, "req-1245")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "req-1245", rec.Body.String())
	assert.Equal(t, "req-1245", rec.Header().Get(echo.HeaderXRequestID))
	assert.Contains(t, logs.String(), "status=200")
	assert.Contains(t, logs.String(), "trace_id=req-1245")
}

func TestSecurityRestrictsOrigins(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.Use(Security([]string{"https://herbario.example"})...)
	e.GET("/api/v2/dataset", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/v2/dataset", http.NoBody)
		req.Header.Set(echo.HeaderOrigin, origin)
		req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, "https://herbario.example",
		preflight("https://herbario.example").Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Empty(t, preflight("https://other.example").Header().Get(echo.HeaderAccessControlAllowOrigin))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v2/dataset", http.NoBody))
	assert.Equal(t, "DENY", rec.Header().Get(echo.HeaderXFrameOptions))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
}

func TestBodyLimitRejectsLargeUploads(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.Use(BodyLimit("1K"))
	e.POST("/api/v2/dataset", func(c echo.Context) error { return c.NoContent(http.StatusAccepted) })

	post := func(size int) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v2/dataset", strings.NewReader(strings.Repeat("x", size)))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusAccepted, post(512))
	assert.Equal(t, http.StatusRequestEntityTooLarge, post(2048))
}
