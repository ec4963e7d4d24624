/*
Package tracing correlates controller sessions with target logs.

# Overview

A controller opens a session with an X-Trace-ID header. The target's HTTP
middleware adopts that trace ID, or generates one, and records a span for
every request. A WebSocket session is one long request, so its span covers
the whole session and every session log line carries the trace ID.

# Usage

Target side:

	tracer := tracing.New("electron-target", logger)
	defer tracer.Close()
	router.Use(tracing.HTTPMiddleware(tracer))

	func handle(c *gin.Context) {
		traceID := tracing.GetTraceID(c.Request.Context())
	}

Controller side:

	ctx = tracing.WithTraceID(ctx, tracing.NewTraceID())
	header := http.Header{}
	tracing.InjectTraceContext(ctx, header)
	ws, err := transport.DialWebSocket(ctx, endpoint, header)

# Span Collection

Finished spans are submitted to a buffered channel and logged by a collector
goroutine. When the buffer is full the span is dropped with a warning.
*/
package tracing
