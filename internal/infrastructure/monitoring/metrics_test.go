package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCall(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	NewCallTimer(m, "Page", "title").Stop(nil)
	NewCallTimer(m, "Page", "title").Stop(errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Calls.WithLabelValues("Page", "title", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Calls.WithLabelValues("Page", "title", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CallErrors.WithLabelValues("Page", "title")))
}

func TestObjectsGauge(t *testing.T) {
	m := NewMetrics(nil)
	m.ObjectCreated()
	m.ObjectCreated()
	m.ObjectDisposed()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ObjectsLive))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordPush("Page", "close")
	m.RecordWait("window", WaitTimeout)
	m.ObjectCreated()
	NewCallTimer(m, "Page", "close").Stop(nil)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(prometheus.NewRegistry())

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/healthz", "200")))
	m.RecordScript(time.Millisecond)
}
