package channel

import "io"

// Session is one open/release-bounded attachment to a Channel. Its read
// cursor is guarded by the Channel's mutex.
//
// Calls made after Release are not rejected; the session simply behaves as
// a fresh one with its read cursor at 0.
type Session struct {
	ch       *Channel
	rpos     int
	detached bool
}

// Write appends up to n bytes read from src. It returns the number of bytes
// accepted, which is less than n when the store is nearly full.
func (s *Session) Write(src io.Reader, n int) (int, error) {
	return s.ch.write(src, n)
}

// Read delivers up to n stored bytes to dst. It returns 0 once this session
// has been given everything written so far.
func (s *Session) Read(dst io.Writer, n int) (int, error) {
	return s.ch.read(s, dst, n)
}

// Release resets the read cursor and detaches the session. It always succeeds.
func (s *Session) Release() {
	s.ch.release(s)
}

// Offset returns the session's read cursor.
func (s *Session) Offset() int {
	s.ch.mu.Lock()
	defer s.ch.mu.Unlock()

	return s.rpos
}

// Pending returns how many stored bytes this session has not read yet.
// Zero means a read would report end of data.
func (s *Session) Pending() int {
	return s.ch.pending(s)
}
