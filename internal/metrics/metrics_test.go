package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, router http.Handler) string {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func newTestRouter(m *Metrics) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/users/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(m.Handler()))
	return router
}

func TestMiddlewareCountsByRoute(t *testing.T) {
	m := New("test")
	router := newTestRouter(m)

	for _, path := range []string{"/users/1", "/users/2", "/missing"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	body := scrape(t, router)
	assert.Contains(t, body, `test_http_requests_total{method="GET",path="/users/:id",status="200"} 2`)
	assert.Contains(t, body, `test_http_requests_total{method="GET",path="unmatched",status="404"} 1`)
	assert.Contains(t, body, "test_http_request_duration_seconds_bucket")
	assert.Contains(t, body, "go_goroutines")
}

func TestObserveClientCall(t *testing.T) {
	m := New("test")
	m.ObserveClientCall("create", "conflict")
	m.ObserveClientCall("create", "conflict")
	m.ObserveClientCall("get", "ok")

	body := scrape(t, newTestRouter(m))
	assert.Contains(t, body, `test_user_client_calls_total{op="create",outcome="conflict"} 2`)
	assert.Contains(t, body, `test_user_client_calls_total{op="get",outcome="ok"} 1`)
}
