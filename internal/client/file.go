package client

import (
	"context"
	"io"

	"github.com/GriffinCanCode/chardrv/internal/shared/id"
	"github.com/GriffinCanCode/chardrv/internal/shared/types"
)

var (
	_ io.Reader = (*File)(nil)
	_ io.Writer = (*File)(nil)
	_ io.Closer = (*File)(nil)
)

// File is an open session used like a file descriptor.
type File struct {
	c   *Client
	ctx context.Context
	sid id.SessionID
}

// OpenFile opens a session bound to ctx.
func (c *Client) OpenFile(ctx context.Context) (*File, error) {
	sid, err := c.Open(ctx)
	if err != nil {
		return nil, err
	}
	return &File{c: c, ctx: ctx, sid: sid}, nil
}

// SessionID returns the session behind f.
func (f *File) SessionID() id.SessionID { return f.sid }

// Read fills p from the device and returns io.EOF at end of data.
func (f *File) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	data, eof, err := f.c.Read(f.ctx, f.sid, min(len(p), types.DefaultReadCount))
	if err != nil {
		return 0, err
	}
	if len(data) == 0 && eof {
		return 0, io.EOF
	}
	return copy(p, data), nil
}

// Write stores all of p, issuing further writes after a short one the way
// a shell does. Once the buffer is full the error wraps channel.ErrBufferFull.
func (f *File) Write(p []byte) (int, error) {
	var total int
	for total < len(p) {
		n, err := f.c.Write(f.ctx, f.sid, p[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.ErrShortWrite
		}
	}
	return total, nil
}

// Close releases the session.
func (f *File) Close() error {
	return f.c.Release(f.ctx, f.sid)
}
