package monitoring

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GriffinCanCode/chardrv/internal/domain/channel"
)

// Metrics holds all Prometheus metrics. Each instance owns its registry.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Device metrics
	BytesWritten   prometheus.Counter
	BytesRead      prometheus.Counter
	DeviceErrors   *prometheus.CounterVec
	ShortTransfers *prometheus.CounterVec
	SessionsOpen   prometheus.Gauge
	FillBytes      prometheus.Gauge
	CapacityBytes  prometheus.Gauge

	// gRPC metrics
	GRPCCalls    *prometheus.CounterVec
	GRPCDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests  int64   `json:"total_requests"`
	TotalErrors    int64   `json:"total_errors"`
	BytesWritten   int64   `json:"bytes_written"`
	BytesRead      int64   `json:"bytes_read"`
	SessionsOpen   int64   `json:"sessions_open"`
	FillBytes      int64   `json:"fill_bytes"`
	CapacityBytes  int64   `json:"capacity_bytes"`
	AvgLatencySecs float64 `json:"avg_latency_seconds"`
	UptimeSecs     float64 `json:"uptime_seconds"`

	totalDuration float64
}

// NewMetrics creates a new metrics collector backed by a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chardrv_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chardrv_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chardrv_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{16, 64, 256, 1024, 4096, 65536},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chardrv_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{16, 64, 256, 1024, 4096, 65536},
			},
			[]string{"method", "path"},
		),

		// Device metrics
		BytesWritten: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "chardrv_device_bytes_written_total",
				Help: "Bytes accepted into the device buffer",
			},
		),
		BytesRead: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "chardrv_device_bytes_read_total",
				Help: "Bytes delivered out of the device buffer",
			},
		),
		DeviceErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chardrv_device_errors_total",
				Help: "Failed device operations by kind",
			},
			[]string{"op", "kind"},
		),
		ShortTransfers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chardrv_device_short_transfers_total",
				Help: "Transfers that moved fewer bytes than requested",
			},
			[]string{"op"},
		),
		SessionsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "chardrv_device_sessions_open",
				Help: "Number of open device sessions",
			},
		),
		FillBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "chardrv_device_fill_bytes",
				Help: "Bytes currently stored in the device buffer",
			},
		),
		CapacityBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "chardrv_device_capacity_bytes",
				Help: "Capacity of the device buffer",
			},
		),

		// gRPC metrics
		GRPCCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chardrv_grpc_calls_total",
				Help: "Total number of gRPC calls",
			},
			[]string{"method", "code"},
		),
		GRPCDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chardrv_grpc_duration_seconds",
				Help:    "gRPC call duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method"},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "chardrv_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chardrv_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "chardrv_uptime_seconds",
			Help: "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry returns the registry the metrics are registered in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.totalDuration += duration.Seconds()
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordGRPCCall records a gRPC call
func (m *Metrics) RecordGRPCCall(method, code string, duration time.Duration) {
	m.GRPCCalls.WithLabelValues(method, code).Inc()
	m.GRPCDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// RecordOpen tracks a new session.
func (m *Metrics) RecordOpen(active int) {
	m.setSessions(active)
}

// RecordRelease tracks a closed session.
func (m *Metrics) RecordRelease(active int) {
	m.setSessions(active)
}

// RecordWrite tracks a write attempt.
func (m *Metrics) RecordWrite(requested, accepted int, err error) {
	if err != nil {
		m.DeviceErrors.WithLabelValues("write", ErrorKind(err)).Inc()
		return
	}
	m.BytesWritten.Add(float64(accepted))
	if accepted < requested {
		m.ShortTransfers.WithLabelValues("write").Inc()
	}

	m.mu.Lock()
	m.snapshot.BytesWritten += int64(accepted)
	m.mu.Unlock()
}

// RecordRead tracks a read.
func (m *Metrics) RecordRead(requested, delivered int) {
	m.BytesRead.Add(float64(delivered))
	if delivered > 0 && delivered < requested {
		m.ShortTransfers.WithLabelValues("read").Inc()
	}

	m.mu.Lock()
	m.snapshot.BytesRead += int64(delivered)
	m.mu.Unlock()
}

// SetFill updates the buffer occupancy gauges.
func (m *Metrics) SetFill(written, capacity int) {
	m.FillBytes.Set(float64(written))
	m.CapacityBytes.Set(float64(capacity))

	m.mu.Lock()
	m.snapshot.FillBytes = int64(written)
	m.snapshot.CapacityBytes = int64(capacity)
	m.mu.Unlock()
}

func (m *Metrics) setSessions(active int) {
	m.SessionsOpen.Set(float64(active))

	m.mu.Lock()
	m.snapshot.SessionsOpen = int64(active)
	m.mu.Unlock()
}

// Snapshot returns the current values for the JSON API.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	if s.TotalRequests > 0 {
		s.AvgLatencySecs = s.totalDuration / float64(s.TotalRequests)
	}
	s.UptimeSecs = time.Since(m.startTime).Seconds()
	return s
}

// ErrorKind names the class of a device error for metric labels.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, channel.ErrBufferFull):
		return "buffer_full"
	case errors.Is(err, channel.ErrCopyFault):
		return "copy_fault"
	case errors.Is(err, channel.ErrInvalidLength):
		return "invalid_length"
	default:
		return "other"
	}
}
