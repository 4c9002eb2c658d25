package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/chardrv/internal/domain/device"
	"github.com/GriffinCanCode/chardrv/internal/infrastructure/logging"
	"github.com/GriffinCanCode/chardrv/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/chardrv/internal/shared/types"
)

// Version is reported by the root banner.
const Version = "0.1.0"

// DefaultMaxWriteBytes caps the body of a single write request.
const DefaultMaxWriteBytes = 1 << 20

// Handlers contains all HTTP handlers
type Handlers struct {
	module        *device.Module
	metrics       *monitoring.Metrics
	ring          *logging.Ring
	logger        *zap.Logger
	maxWriteBytes int64
}

// Option configures Handlers.
type Option func(*Handlers)

// WithMetrics enables the JSON metrics snapshot.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(h *Handlers) { h.metrics = m }
}

// WithRing sets the kernel log served on /dmesg.
func WithRing(r *logging.Ring) Option {
	return func(h *Handlers) { h.ring = r }
}

// WithLogger sets the handler logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Handlers) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithMaxWriteBytes caps write request bodies.
func WithMaxWriteBytes(n int64) Option {
	return func(h *Handlers) {
		if n > 0 {
			h.maxWriteBytes = n
		}
	}
}

// NewHandlers creates a new handler set
func NewHandlers(module *device.Module, opts ...Option) *Handlers {
	h := &Handlers{
		module:        module,
		ring:          logging.NewRing(0),
		logger:        zap.NewNop(),
		maxWriteBytes: DefaultMaxWriteBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the device routes on r.
func (h *Handlers) Register(r gin.IRoutes) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/device", h.Device)
	r.GET("/devices", h.Devices)
	r.GET("/dmesg", h.Dmesg)
	r.GET("/metrics/json", h.MetricsJSON)

	r.POST("/sessions", h.OpenSession)
	r.POST("/sessions/:id/write", h.WriteSession)
	r.GET("/sessions/:id/read", h.ReadSession)
	r.DELETE("/sessions/:id", h.ReleaseSession)
}

// Root serves the service banner.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "chardrv",
		"version": Version,
	})
}

// Health reports whether the device is loaded.
func (h *Handlers) Health(c *gin.Context) {
	d := h.module.Device()
	if d == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"device": gin.H{"loaded": false},
		})
		return
	}

	info := d.Info()
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"device": gin.H{
			"loaded":   true,
			"name":     info.Name,
			"sessions": info.Sessions,
		},
	})
}

// Device describes the registered device.
func (h *Handlers) Device(c *gin.Context) {
	info, ok := DescribeDevice(h.module)
	if !ok {
		respondError(c, device.ErrNotLoaded)
		return
	}
	c.JSON(http.StatusOK, info)
}

// Devices lists every device in the registry, ordered by device number.
func (h *Handlers) Devices(c *gin.Context) {
	own := h.module.Device()
	devs := h.module.Registry().List()
	out := make([]types.DeviceInfo, 0, len(devs))
	for _, d := range devs {
		info := describe(d)
		if d == own {
			info.InstanceID = h.module.InstanceID().String()
		}
		out = append(out, info)
	}
	c.JSON(http.StatusOK, out)
}

// Dmesg serves the tail of the kernel log.
func (h *Handlers) Dmesg(c *gin.Context) {
	c.String(http.StatusOK, h.ring.String())
}

// MetricsJSON serves a snapshot of the counters for dashboards.
func (h *Handlers) MetricsJSON(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "metrics disabled", Code: types.CodeUnavailable})
		return
	}
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

// DescribeDevice converts the module's device into its wire form.
func DescribeDevice(m *device.Module) (*types.DeviceInfo, bool) {
	d := m.Device()
	if d == nil {
		return nil, false
	}
	info := describe(d)
	info.InstanceID = m.InstanceID().String()
	return &info, true
}

func describe(d *device.Device) types.DeviceInfo {
	info := d.Info()
	return types.DeviceInfo{
		Name:      info.Name,
		Major:     info.Dev.Major(),
		Minor:     info.Dev.Minor(),
		Node:      info.Node,
		Mknod:     d.Mknod(),
		Capacity:  info.Capacity,
		Written:   info.Written,
		Available: info.Available,
		Sessions:  info.Sessions,
		ReadMode:  info.ReadMode.String(),
	}
}
