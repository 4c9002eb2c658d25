package monitoring

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GriffinCanCode/chardrv/internal/domain/channel"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestDeviceActivity(t *testing.T) {
	m := NewMetrics()

	m.SetFill(0, 80)
	m.RecordOpen(1)
	m.RecordWrite(10, 10, nil)
	m.RecordWrite(75, 70, nil)
	m.RecordWrite(1, 0, channel.ErrBufferFull)
	m.RecordWrite(4, 0, fmt.Errorf("%w: page fault", channel.ErrCopyFault))
	m.RecordRead(5, 5)
	m.RecordRead(4096, 75)
	m.RecordRead(4096, 0)
	m.SetFill(80, 80)

	body := scrape(t, m)
	assert.Contains(t, body, "chardrv_device_bytes_written_total 80")
	assert.Contains(t, body, "chardrv_device_bytes_read_total 80")
	assert.Contains(t, body, `chardrv_device_errors_total{kind="buffer_full",op="write"} 1`)
	assert.Contains(t, body, `chardrv_device_errors_total{kind="copy_fault",op="write"} 1`)
	assert.Contains(t, body, `chardrv_device_short_transfers_total{op="write"} 1`)
	assert.Contains(t, body, `chardrv_device_short_transfers_total{op="read"} 1`)
	assert.Contains(t, body, "chardrv_device_sessions_open 1")
	assert.Contains(t, body, "chardrv_device_fill_bytes 80")
	assert.Contains(t, body, "chardrv_device_capacity_bytes 80")
	assert.Contains(t, body, "chardrv_uptime_seconds")

	snap := m.Snapshot()
	assert.Equal(t, int64(80), snap.BytesWritten)
	assert.Equal(t, int64(80), snap.BytesRead)
	assert.Equal(t, int64(1), snap.SessionsOpen)
	assert.Equal(t, int64(80), snap.FillBytes)
}

func TestRegistriesAreIndependent(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordWrite(3, 3, nil)

	assert.Contains(t, scrape(t, a), "chardrv_device_bytes_written_total 3")
	assert.Contains(t, scrape(t, b), "chardrv_device_bytes_written_total 0")
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: channel.ErrBufferFull, want: "buffer_full"},
		{err: fmt.Errorf("wrapped: %w", channel.ErrCopyFault), want: "copy_fault"},
		{err: channel.ErrInvalidLength, want: "invalid_length"},
		{err: errors.New("boom"), want: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorKind(tt.err))
		})
	}
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/sessions/:id/read", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	for _, sid := range []string{"sess_a", "sess_b"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/"+sid+"/read", nil))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	body := scrape(t, m)
	assert.Contains(t, body, `chardrv_http_requests_total{method="GET",path="/sessions/:id/read",status="404"} 2`)
	assert.Contains(t, body, `chardrv_http_requests_total{method="GET",path="unmatched",status="404"} 1`)

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(3), snap.TotalErrors)
}

func TestUnaryServerInterceptor(t *testing.T) {
	m := NewMetrics()
	intercept := UnaryServerInterceptor(m)
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	_, err := intercept(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)

	_, err = intercept(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.NotFound, "unknown service")
	})
	require.Error(t, err)

	body := scrape(t, m)
	assert.Contains(t, body, `chardrv_grpc_calls_total{code="OK",method="/grpc.health.v1.Health/Check"} 1`)
	assert.Contains(t, body, `chardrv_grpc_calls_total{code="NotFound",method="/grpc.health.v1.Health/Check"} 1`)
}
