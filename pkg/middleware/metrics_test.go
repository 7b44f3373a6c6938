package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"vidtube/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountsByRoute(t *testing.T) {
	router := setupTestRouter()
	router.Use(Metrics())
	router.GET("/items/:id", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	counter := httpRequestsTotal.WithLabelValues("GET", "/items/:id", "204")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"1", "2"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/items/"+id, nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusNoContent, w.Code)
	}

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestMetricsHandler_ExposesCounters(t *testing.T) {
	router := setupTestRouter()
	router.Use(Metrics())
	router.GET("/metrics", MetricsHandler())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	router.ServeHTTP(w, req)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/metrics", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), "http_requests_total")
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithOptions(logger.Options{Level: "info", JSON: true, Output: &buf})

	router := setupTestRouter()
	router.Use(RequestLogger(log))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
	assert.Contains(t, buf.String(), `"path":"/ping"`)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/ping", nil)
	router.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}
