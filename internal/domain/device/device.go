package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/chardrv/internal/domain/channel"
	"github.com/GriffinCanCode/chardrv/internal/shared/id"
)

// Recorder receives device activity. monitoring.Metrics implements it.
type Recorder interface {
	RecordOpen(active int)
	RecordRelease(active int)
	RecordWrite(requested, accepted int, err error)
	RecordRead(requested, delivered int)
	SetFill(written, capacity int)
}

type nopRecorder struct{}

func (nopRecorder) RecordOpen(int)              {}
func (nopRecorder) RecordRelease(int)           {}
func (nopRecorder) RecordWrite(int, int, error) {}
func (nopRecorder) RecordRead(int, int)         {}
func (nopRecorder) SetFill(int, int)            {}

// DefaultMaxSessions caps the session table when no limit is configured.
const DefaultMaxSessions = 16

// Info describes a device and the state of its channel.
type Info struct {
	Name      string
	Dev       Dev
	Node      string
	Capacity  int
	Written   int
	Available int
	Sessions  int
	ReadMode  channel.ReadMode
}

// Device exposes a Channel through open/read/write/release.
type Device struct {
	name        string
	dev         Dev
	ch          *channel.Channel
	logger      *zap.Logger
	recorder    Recorder
	maxSessions int

	mu       sync.Mutex
	sessions map[id.SessionID]*channel.Session
	closed   bool
}

// Option configures a Device.
type Option func(*Device)

// WithLogger sets the logger used for driver messages.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Device) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithRecorder sets the activity recorder.
func WithRecorder(r Recorder) Option {
	return func(d *Device) {
		if r != nil {
			d.recorder = r
		}
	}
}

// WithMaxSessions caps the number of concurrently open sessions.
func WithMaxSessions(n int) Option {
	return func(d *Device) {
		if n > 0 {
			d.maxSessions = n
		}
	}
}

// NewDevice wraps ch as the device name with number dev.
func NewDevice(name string, dev Dev, ch *channel.Channel, opts ...Option) *Device {
	d := &Device{
		name:        name,
		dev:         dev,
		ch:          ch,
		logger:      zap.NewNop(),
		recorder:    nopRecorder{},
		maxSessions: DefaultMaxSessions,
		sessions:    make(map[id.SessionID]*channel.Session),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.recorder.SetFill(0, ch.Capacity())
	return d
}

// Name returns the device name.
func (d *Device) Name() string { return d.name }

// Dev returns the device number.
func (d *Device) Dev() Dev { return d.dev }

// Node returns the conventional device node path.
func (d *Device) Node() string { return "/dev/" + d.name }

// Mknod returns the command that creates the device node.
func (d *Device) Mknod() string {
	return fmt.Sprintf("mknod %s c %d %d", d.Node(), d.dev.Major(), d.dev.Minor())
}

// Open creates a session.
func (d *Device) Open(ctx context.Context) (id.SessionID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return "", ErrNotLoaded
	}
	if len(d.sessions) >= d.maxSessions {
		d.mu.Unlock()
		return "", fmt.Errorf("%w: limit %d", ErrBusy, d.maxSessions)
	}
	sid := id.NewSessionID()
	d.sessions[sid] = d.ch.Open()
	d.recorder.RecordOpen(len(d.sessions))
	d.mu.Unlock()

	d.logger.Debug("session opened",
		zap.String("device", d.name),
		zap.String("session_id", sid.String()),
	)
	return sid, nil
}

// Write copies up to n bytes from src into the device.
func (d *Device) Write(ctx context.Context, sid id.SessionID, src io.Reader, n int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s, err := d.session(sid)
	if err != nil {
		return 0, err
	}

	written, err := s.Write(src, n)
	d.recorder.RecordWrite(n, written, err)

	switch {
	case errors.Is(err, channel.ErrBufferFull):
		d.logger.Info("buffer full",
			zap.String("device", d.name),
			zap.String("session_id", sid.String()),
		)
	case errors.Is(err, channel.ErrCopyFault):
		d.logger.Info("data copy from user space failed",
			zap.String("device", d.name),
			zap.String("session_id", sid.String()),
			zap.Error(err),
		)
	case err == nil && written < n:
		d.logger.Debug("short write",
			zap.String("device", d.name),
			zap.Int("requested", n),
			zap.Int("accepted", written),
		)
	}
	if err == nil {
		stats := d.ch.Stats()
		d.recorder.SetFill(stats.Written, stats.Capacity)
	}
	return written, err
}

// Read copies up to n stored bytes to dst. Zero means end of data.
func (d *Device) Read(ctx context.Context, sid id.SessionID, dst io.Writer, n int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s, err := d.session(sid)
	if err != nil {
		return 0, err
	}

	delivered, err := s.Read(dst, n)
	if err != nil {
		return 0, err
	}
	d.recorder.RecordRead(n, delivered)
	return delivered, nil
}

// Pending returns how many stored bytes sid has not read yet.
func (d *Device) Pending(sid id.SessionID) (int, error) {
	s, err := d.session(sid)
	if err != nil {
		return 0, err
	}
	return s.Pending(), nil
}

// Release closes a session and resets its read cursor.
func (d *Device) Release(_ context.Context, sid id.SessionID) error {
	d.mu.Lock()
	s, ok := d.sessions[sid]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrBadSession, sid)
	}
	delete(d.sessions, sid)
	d.recorder.RecordRelease(len(d.sessions))
	d.mu.Unlock()

	s.Release()
	d.logger.Debug("session released",
		zap.String("device", d.name),
		zap.String("session_id", sid.String()),
	)
	return nil
}

// Sessions lists open session ids, oldest first.
func (d *Device) Sessions() []id.SessionID {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]id.SessionID, 0, len(d.sessions))
	for sid := range d.sessions {
		out = append(out, sid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Info snapshots the device.
func (d *Device) Info() Info {
	stats := d.ch.Stats()
	return Info{
		Name:      d.name,
		Dev:       d.dev,
		Node:      d.Node(),
		Capacity:  stats.Capacity,
		Written:   stats.Written,
		Available: stats.Available,
		Sessions:  stats.Sessions,
		ReadMode:  stats.Mode,
	}
}

// closeSessions releases every open session and refuses further opens.
// Used at module unload.
func (d *Device) closeSessions() int {
	d.mu.Lock()
	sessions := d.sessions
	d.sessions = make(map[id.SessionID]*channel.Session)
	d.closed = true
	if len(sessions) > 0 {
		d.recorder.RecordRelease(0)
	}
	d.mu.Unlock()

	for _, s := range sessions {
		s.Release()
	}
	return len(sessions)
}

func (d *Device) session(sid id.SessionID) (*channel.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.sessions[sid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBadSession, sid)
	}
	return s, nil
}
