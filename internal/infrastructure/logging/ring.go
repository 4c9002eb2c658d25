package logging

import (
	"sync"

	"github.com/armon/circbuf"
)

// DefaultRingSize is the kernel log ring capacity in bytes.
const DefaultRingSize = 16 * 1024

// Ring is an io.Writer that keeps only the last N bytes written, like the
// kernel's log buffer. It is safe for concurrent use.
type Ring struct {
	mu  sync.Mutex
	buf *circbuf.Buffer
}

// NewRing creates a ring holding size bytes. A non-positive size yields a
// ring that discards everything.
func NewRing(size int) *Ring {
	if size <= 0 {
		return &Ring{}
	}
	b, err := circbuf.NewBuffer(int64(size))
	if err != nil {
		return &Ring{}
	}
	return &Ring{buf: b}
}

// Write appends p, evicting the oldest bytes when full.
func (r *Ring) Write(p []byte) (int, error) {
	if r.buf == nil {
		return len(p), nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

// Sync satisfies zapcore.WriteSyncer.
func (r *Ring) Sync() error { return nil }

// String returns the retained bytes.
func (r *Ring) String() string {
	if r.buf == nil {
		return ""
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

// TotalWritten returns how many bytes were ever written, retained or not.
func (r *Ring) TotalWritten() int64 {
	if r.buf == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.TotalWritten()
}
