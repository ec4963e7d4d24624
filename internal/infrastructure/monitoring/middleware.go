package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for target HTTP metrics
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// CallTimer measures one channel call
type CallTimer struct {
	start   time.Time
	metrics *Metrics
	typ     string
	method  string
}

// NewCallTimer starts timing a call
func NewCallTimer(metrics *Metrics, typ, method string) *CallTimer {
	return &CallTimer{
		start:   time.Now(),
		metrics: metrics,
		typ:     typ,
		method:  method,
	}
}

// Stop records the call with a status derived from err
func (t *CallTimer) Stop(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	t.metrics.RecordCall(t.typ, t.method, status, time.Since(t.start))
}
