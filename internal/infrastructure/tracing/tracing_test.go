package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestStartSpanKeepsTraceID(t *testing.T) {
	tracer := New("test", nil)
	defer tracer.Close()

	ctx := WithTraceID(context.Background(), "trace-1")
	span, ctx := tracer.StartSpan(ctx, "outer")
	assert.Equal(t, TraceID("trace-1"), span.TraceID)
	assert.Equal(t, span.SpanID, GetSpanID(ctx))

	child, _ := tracer.StartSpan(ctx, "inner")
	assert.Equal(t, TraceID("trace-1"), child.TraceID)
	assert.Equal(t, span.SpanID, child.ParentID)
}

func TestStartSpanGeneratesTraceID(t *testing.T) {
	tracer := New("test", nil)
	defer tracer.Close()

	span, ctx := tracer.StartSpan(context.Background(), "op")
	assert.NotEmpty(t, span.TraceID)
	assert.Equal(t, span.TraceID, GetTraceID(ctx))
}

func TestInjectExtract(t *testing.T) {
	ctx := WithTraceID(context.Background(), "trace-2")
	header := http.Header{}
	InjectTraceContext(ctx, header)

	traceID, spanID := ExtractTraceContext(header)
	assert.Equal(t, TraceID("trace-2"), traceID)
	assert.Empty(t, spanID)
}

func TestSubmitLogsSpans(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	tracer := New("test", zap.New(core))

	ok, _ := tracer.StartSpan(context.Background(), "ok")
	ok.Finish()
	tracer.Submit(ok)

	failed, _ := tracer.StartSpan(context.Background(), "failed")
	failed.SetError(errors.New("boom"))
	failed.Finish()
	tracer.Submit(failed)

	tracer.Close()
	tracer.Submit(ok)

	assert.Equal(t, 1, logs.FilterMessage("span completed").Len())
	assert.Equal(t, 1, logs.FilterMessage("span completed with error").Len())
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	tracer := New("test", zap.New(core))

	var seen TraceID
	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	router.GET("/ping", func(c *gin.Context) {
		seen = GetTraceID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(TraceHeader, "trace-3")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	tracer.Close()

	assert.Equal(t, TraceID("trace-3"), seen)
	assert.Equal(t, "trace-3", rec.Header().Get(TraceHeader))
	assert.NotEmpty(t, rec.Header().Get(SpanHeader))

	entries := logs.FilterMessage("span completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "trace-3", fields["trace_id"])
	assert.Equal(t, "/ping", fields["operation"])
	assert.Equal(t, "204", fields["http.status"])
}
