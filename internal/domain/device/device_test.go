package device

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/chardrv/internal/domain/channel"
	"github.com/GriffinCanCode/chardrv/internal/domain/uaccess"
	"github.com/GriffinCanCode/chardrv/internal/shared/id"
)

// MockRecorder is a mock implementation of Recorder.
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordOpen(active int)    { m.Called(active) }
func (m *MockRecorder) RecordRelease(active int) { m.Called(active) }
func (m *MockRecorder) RecordWrite(requested, accepted int, err error) {
	m.Called(requested, accepted, err)
}
func (m *MockRecorder) RecordRead(requested, delivered int) { m.Called(requested, delivered) }
func (m *MockRecorder) SetFill(written, capacity int)       { m.Called(written, capacity) }

func newTestDevice(t *testing.T, capacity int, opts ...Option) *Device {
	t.Helper()
	ch, err := channel.New(capacity)
	require.NoError(t, err)
	return NewDevice("test_drv", MkDev(250, 0), ch, opts...)
}

func writeString(t *testing.T, d *Device, sid id.SessionID, s string) int {
	t.Helper()
	n, err := d.Write(context.Background(), sid, uaccess.NewBuffer([]byte(s)), len(s))
	require.NoError(t, err)
	return n
}

func TestDeviceLifecycle(t *testing.T) {
	ctx := context.Background()
	d := newTestDevice(t, 80)

	sid, err := d.Open(ctx)
	require.NoError(t, err)
	assert.Equal(t, []id.SessionID{sid}, d.Sessions())

	assert.Equal(t, 10, writeString(t, d, sid, "0123456789"))

	dst := uaccess.NewDestination(5)
	n, err := d.Read(ctx, sid, dst, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "01234", string(dst.Bytes()))

	require.NoError(t, d.Release(ctx, sid))
	assert.Empty(t, d.Sessions())

	info := d.Info()
	assert.Equal(t, "test_drv", info.Name)
	assert.Equal(t, "/dev/test_drv", info.Node)
	assert.Equal(t, 80, info.Capacity)
	assert.Equal(t, 10, info.Written)
	assert.Equal(t, 70, info.Available)
	assert.Zero(t, info.Sessions)
	assert.Equal(t, channel.ReadDrain, info.ReadMode)
}

func TestDeviceUnknownSession(t *testing.T) {
	ctx := context.Background()
	d := newTestDevice(t, 8)
	bogus := id.NewSessionID()

	_, err := d.Write(ctx, bogus, uaccess.NewBuffer([]byte("x")), 1)
	assert.ErrorIs(t, err, ErrBadSession)

	_, err = d.Read(ctx, bogus, &bytes.Buffer{}, 1)
	assert.ErrorIs(t, err, ErrBadSession)

	assert.ErrorIs(t, d.Release(ctx, bogus), ErrBadSession)

	sid, err := d.Open(ctx)
	require.NoError(t, err)
	require.NoError(t, d.Release(ctx, sid))
	assert.ErrorIs(t, d.Release(ctx, sid), ErrBadSession)
}

func TestDeviceSessionLimit(t *testing.T) {
	ctx := context.Background()
	d := newTestDevice(t, 8, WithMaxSessions(2))

	first, err := d.Open(ctx)
	require.NoError(t, err)
	_, err = d.Open(ctx)
	require.NoError(t, err)

	_, err = d.Open(ctx)
	assert.ErrorIs(t, err, ErrBusy)

	require.NoError(t, d.Release(ctx, first))
	_, err = d.Open(ctx)
	assert.NoError(t, err)
}

func TestDeviceCancelledContext(t *testing.T) {
	d := newTestDevice(t, 8)
	sid, err := d.Open(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = d.Open(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = d.Write(ctx, sid, uaccess.NewBuffer([]byte("x")), 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, d.Info().Written)

	// Release ignores cancellation so sessions are never leaked.
	assert.NoError(t, d.Release(ctx, sid))
}

func TestDeviceRedrainAcrossSessions(t *testing.T) {
	ctx := context.Background()
	d := newTestDevice(t, 80)

	sid, err := d.Open(ctx)
	require.NoError(t, err)
	writeString(t, d, sid, "abc")
	require.NoError(t, d.Release(ctx, sid))

	sid, err = d.Open(ctx)
	require.NoError(t, err)
	dst := uaccess.NewDestination(2)
	n, err := d.Read(ctx, sid, dst, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "ab", string(dst.Bytes()))
}

func TestDeviceRecordsActivity(t *testing.T) {
	ctx := context.Background()
	rec := new(MockRecorder)
	rec.On("SetFill", 0, 4).Once()
	rec.On("RecordOpen", 1).Once()
	rec.On("RecordWrite", 6, 4, nil).Once()
	rec.On("SetFill", 4, 4).Once()
	rec.On("RecordWrite", 1, 0, channel.ErrBufferFull).Once()
	rec.On("RecordRead", 10, 4).Once()
	rec.On("RecordRelease", 0).Once()

	d := newTestDevice(t, 4, WithRecorder(rec))

	sid, err := d.Open(ctx)
	require.NoError(t, err)

	n, err := d.Write(ctx, sid, uaccess.NewBuffer([]byte("abcdef")), 6)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = d.Write(ctx, sid, uaccess.NewBuffer([]byte("g")), 1)
	assert.ErrorIs(t, err, channel.ErrBufferFull)

	_, err = d.Read(ctx, sid, uaccess.NewDestination(10), 10)
	require.NoError(t, err)

	require.NoError(t, d.Release(ctx, sid))
	rec.AssertExpectations(t)
}

// gaugeRecorder keeps the last reported session count, like a gauge.
type gaugeRecorder struct {
	nopRecorder
	mu     sync.Mutex
	active int
}

func (g *gaugeRecorder) RecordOpen(active int)    { g.set(active) }
func (g *gaugeRecorder) RecordRelease(active int) { g.set(active) }

func (g *gaugeRecorder) set(active int) {
	g.mu.Lock()
	g.active = active
	g.mu.Unlock()
}

func TestDeviceActiveCountMatchesTable(t *testing.T) {
	ctx := context.Background()
	rec := &gaugeRecorder{}
	d := newTestDevice(t, 8, WithRecorder(rec), WithMaxSessions(64))

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				sid, err := d.Open(ctx)
				if !assert.NoError(t, err) {
					return
				}
				assert.NoError(t, d.Release(ctx, sid))
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, d.Sessions())
	assert.Equal(t, 0, rec.active)
}

func TestDeviceCloseSessions(t *testing.T) {
	ctx := context.Background()
	d := newTestDevice(t, 8)
	for i := 0; i < 3; i++ {
		_, err := d.Open(ctx)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, d.closeSessions())
	assert.Empty(t, d.Sessions())
	assert.Zero(t, d.Info().Sessions)
}

func TestDeviceOpenAfterClose(t *testing.T) {
	ctx := context.Background()
	d := newTestDevice(t, 8)
	sid, err := d.Open(ctx)
	require.NoError(t, err)

	d.closeSessions()

	_, err = d.Open(ctx)
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.ErrorIs(t, d.Release(ctx, sid), ErrBadSession)
	assert.Empty(t, d.Sessions())
}
