package channel

import (
	"fmt"
	"io"
	"sync"

	"github.com/GriffinCanCode/chardrv/internal/domain/uaccess"
)

// DefaultCapacity is the store size of the reference configuration.
const DefaultCapacity = 80

// Option configures a Channel.
type Option func(*Channel)

// WithReadMode selects the read mode. The default is ReadDrain.
func WithReadMode(mode ReadMode) Option {
	return func(c *Channel) {
		c.mode = mode
	}
}

// Channel is a fixed-capacity byte store with a monotonic write cursor.
type Channel struct {
	mu       sync.Mutex
	storage  []byte
	wpos     int
	mode     ReadMode
	sessions int
}

// Stats is a point-in-time view of a Channel.
type Stats struct {
	Capacity  int
	Written   int
	Available int
	Sessions  int
	Mode      ReadMode
}

// New allocates a Channel with the given capacity.
func New(capacity int, opts ...Option) (*Channel, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	c := &Channel{storage: make([]byte, capacity)}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Capacity returns the size of the store.
func (c *Channel) Capacity() int {
	return len(c.storage)
}

// Mode returns the configured read mode.
func (c *Channel) Mode() ReadMode {
	return c.mode
}

// Stats returns the current cursor state.
func (c *Channel) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Capacity:  len(c.storage),
		Written:   c.wpos,
		Available: len(c.storage) - c.wpos,
		Sessions:  c.sessions,
		Mode:      c.mode,
	}
}

// Open attaches a new session. It never fails and does not touch the store.
func (c *Channel) Open() *Session {
	c.mu.Lock()
	c.sessions++
	c.mu.Unlock()

	return &Session{ch: c}
}

// write appends up to n bytes from src at the write cursor.
func (c *Channel) write(src io.Reader, n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	available := len(c.storage) - c.wpos
	if available == 0 {
		return 0, ErrBufferFull
	}
	n = min(n, available)

	// Bytes past wpos are stale, so a failed copy may scribble there freely.
	if _, err := uaccess.CopyFrom(c.storage[c.wpos:c.wpos+n], src); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCopyFault, err)
	}

	c.wpos += n
	return n, nil
}

// read delivers stored bytes to dst and advances the session's read cursor
// by what arrived.
func (c *Channel) read(s *Session, dst io.Writer, n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if s.rpos == c.wpos {
		return 0, nil
	}

	var start int
	switch c.mode {
	case ReadLiteral:
		n = min(n, c.wpos)
	default:
		start = s.rpos
		n = min(n, c.wpos-start)
	}

	// A short delivery is a short read; the error carries nothing the
	// caller can act on beyond the count.
	notCopied, _ := uaccess.CopyTo(dst, c.storage[start:start+n])
	delivered := n - notCopied

	if c.mode == ReadLiteral {
		s.rpos = delivered
	} else {
		s.rpos += delivered
	}
	return delivered, nil
}

// pending returns how many stored bytes s has not read yet.
func (c *Channel) pending(s *Session) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.wpos - s.rpos
}

// release rewinds a session and detaches it once.
func (c *Channel) release(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s.rpos = 0
	if !s.detached {
		s.detached = true
		c.sessions--
	}
}
