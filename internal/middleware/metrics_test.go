package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cetinnova/registro-escolar/internal/service"
)

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/students/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/students/42", nil))

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range families {
		if mf.GetName() != "http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "path" {
					found = true
					assert.Equal(t, "/students/:id", label.GetValue())
					assert.False(t, strings.Contains(label.GetValue(), "42"))
				}
			}
		}
	}
	assert.True(t, found)
}

func TestMetricsNilService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(nil))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

type recordedRequest struct {
	method string
	path   string
	status int
}

type requestRecorder struct {
	requests []recordedRequest
}

func (r *requestRecorder) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	r.requests = append(r.requests, recordedRequest{method: method, path: path, status: status})
}

func TestMetricsFoldsUnmatchedAndSkipsScrape(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := &requestRecorder{}
	r := gin.New()
	r.Use(Metrics(rec, "/metrics"))
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/payments/students/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/metrics", "/wp-login.php", "/.env", "/payments/students/12"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, []recordedRequest{
		{method: http.MethodGet, path: "unmatched", status: http.StatusNotFound},
		{method: http.MethodGet, path: "unmatched", status: http.StatusNotFound},
		{method: http.MethodGet, path: "/payments/students/:id", status: http.StatusOK},
	}, rec.requests)
}
