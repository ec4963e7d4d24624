/*
Package monitoring collects Prometheus metrics for remote-object traffic.

# Overview

Both sides of a channel record what crosses it: the controller counts calls,
their latency and outcome, the pushes it dispatches, how event waits settle
and how many remote objects are alive. The simulated target additionally
records HTTP requests through a Gin middleware.

Metrics are registered on an explicit prometheus.Registerer so several
connections (and tests) can coexist in one process.

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	timer := monitoring.NewCallTimer(metrics, "ElectronApplication", "close")
	err := doCall()
	timer.Stop(err)

	metrics.RecordWait("window", monitoring.WaitTimeout)

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
*/
package monitoring
