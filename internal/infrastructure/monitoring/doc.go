/*
Package monitoring provides Prometheus metrics for the preview service.

# Overview

Tracks the HTTP surface, websocket protocol traffic, preview sessions,
intent executions and engine selections.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))

	metrics.RecordMessage("inbound", "NAV_REQUEST")
	metrics.RecordIntent("lead.capture", true, time.Since(start))
*/
package monitoring
