/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the chardrv
server, tracking HTTP requests, gRPC calls, WebSocket traffic and the
activity of the character device itself.

# Features

- HTTP request metrics (latency, throughput, size)
- Device metrics (bytes in and out, errors by kind, short transfers,
  open sessions, buffer fill)
- gRPC call metrics (latency, status codes)
- WebSocket connection metrics

Metrics implements device.Recorder, so the device reports into it directly.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	module := device.NewModule(cfg, device.WithModuleRecorder(metrics))

# Metrics Endpoint

Every Metrics value owns its registry, so tests and multiple servers in one
process never collide:

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
