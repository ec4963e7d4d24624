// Package main is the entry point of the simulated Electron target.
//
// The target accepts controller sessions over WebSocket and runs each
// launched application in its own scripting context.
//
// Endpoints:
//   - GET /ws       controller session
//   - GET /healthz  readiness check
//   - GET /metrics  Prometheus metrics
//
// Usage:
//
//	./electron-target -port 9333
//
//	# Development mode (colored logs, debug level)
//	./electron-target -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
