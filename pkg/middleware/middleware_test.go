package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"picksheet/pkg/metrics"
	"picksheet/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/fail", func(c *gin.Context) {
		c.Status(http.StatusBadGateway)
		_ = c.Error(errors.New("upstream down"))
	})
	return r
}

func do(r http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestIDGenerated(t *testing.T) {
	r := newEngine(RequestID())
	w := do(r, http.MethodGet, "/ok", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestRequestIDPropagated(t *testing.T) {
	r := newEngine(RequestID())
	w := do(r, http.MethodGet, "/ok", map[string]string{RequestIDHeader: "abc-123"})
	require.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	r := newEngine(RequestID(), Recovery())
	w := do(r, http.MethodGet, "/panic", map[string]string{RequestIDHeader: "req-1"})
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, body.Error)
	require.Equal(t, "req-1", body.RequestID)
}

func TestErrorHandlerWritesBody(t *testing.T) {
	r := newEngine(ErrorHandler())
	w := do(r, http.MethodGet, "/fail", nil)
	require.Equal(t, http.StatusBadGateway, w.Code)

	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, http.StatusBadGateway, body.Code)
}

func TestRateLimit(t *testing.T) {
	r := newEngine(RateLimit(1, 2))

	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ok", nil).Code)
	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ok", nil).Code)

	w := do(r, http.MethodGet, "/ok", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimitDisabled(t *testing.T) {
	r := newEngine(RateLimit(0, 0))
	for i := 0; i < 20; i++ {
		require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ok", nil).Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newEngine(CORS([]string{"https://warehouse.example"}))
	w := do(r, http.MethodOptions, "/ok", map[string]string{
		"Origin":                        "https://warehouse.example",
		"Access-Control-Request-Method": http.MethodGet,
	})
	require.Equal(t, "https://warehouse.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	m := metrics.NewHTTPMetrics("test", prometheus.NewRegistry())
	r := newEngine(HTTPMetrics(m))

	do(r, http.MethodGet, "/ok", nil)
	do(r, http.MethodGet, "/missing", nil)

	require.Equal(t, 1.0, testutil.ToFloat64(m.ReqTotal.WithLabelValues("GET", "/ok", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ReqTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := gin.New()
	r.Use(RequestID(), AccessLog(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/fail", func(c *gin.Context) {
		c.Status(http.StatusBadGateway)
		_ = c.Error(errors.New("upstream down"))
	})

	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ok", nil).Code)
	do(r, http.MethodGet, "/health", nil)
	do(r, http.MethodGet, "/fail", nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, zapcore.DebugLevel, entries[0].Level)
	require.Equal(t, "/ok", entries[0].ContextMap()["route"])
	require.NotEmpty(t, entries[0].ContextMap()["request_id"])
	require.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	require.Equal(t, []interface{}{"upstream down"}, entries[1].ContextMap()["errors"])
}

func TestAccessLogRespectsLevel(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := newEngine(AccessLog(zap.New(core)))

	do(r, http.MethodGet, "/ok", nil)
	do(r, http.MethodGet, "/missing", nil)

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, zapcore.WarnLevel, entries[0].Level)
	require.Equal(t, "/missing", entries[0].ContextMap()["path"])
}
