// Package uaccess models memory owned by a caller on the far side of the
// driver boundary. Every transfer across the boundary is fallible: a copy
// reports how many bytes actually moved instead of assuming success.
package uaccess

import (
	"errors"
	"io"
)

// ErrFault is returned when a copy touches caller memory that is not mapped.
var ErrFault = errors.New("uaccess: bad address")

var (
	_ io.Reader = (*Buffer)(nil)
	_ io.Writer = (*Buffer)(nil)
)

// Buffer is a window of caller memory. Reads consume it from the front
// (copy from user), writes fill it from the front (copy to user). Only the
// first mapped bytes are accessible.
type Buffer struct {
	data   []byte
	mapped int
	off    int
}

// NewBuffer wraps data as fully mapped caller memory.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data, mapped: len(data)}
}

// NewDestination allocates size bytes of caller memory to be filled by the driver.
func NewDestination(size int) *Buffer {
	if size < 0 {
		size = 0
	}
	return NewBuffer(make([]byte, size))
}

// Unmap invalidates everything from offset at onward. Copies that reach the
// unmapped part stop short and fault.
func (b *Buffer) Unmap(at int) {
	if at < 0 {
		at = 0
	}
	if at < b.mapped {
		b.mapped = at
	}
}

// Read copies from caller memory into p.
func (b *Buffer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n := b.copyable(len(p))
	copy(p, b.data[b.off:b.off+n])
	b.off += n
	if n < len(p) {
		return n, ErrFault
	}
	return n, nil
}

// Write copies p into caller memory.
func (b *Buffer) Write(p []byte) (int, error) {
	n := b.copyable(len(p))
	copy(b.data[b.off:b.off+n], p[:n])
	b.off += n
	if n < len(p) {
		return n, ErrFault
	}
	return n, nil
}

func (b *Buffer) copyable(want int) int {
	left := b.mapped - b.off
	if left < 0 {
		return 0
	}
	return min(want, left)
}

// Bytes returns the part of the buffer consumed or filled so far.
func (b *Buffer) Bytes() []byte {
	return b.data[:b.off]
}

// Len returns the total size of the window, mapped or not.
func (b *Buffer) Len() int {
	return len(b.data)
}

// CopyFrom fills dst from src. It returns the number of bytes that could not
// be copied, zero on success.
func CopyFrom(dst []byte, src io.Reader) (int, error) {
	n, err := io.ReadFull(src, dst)
	if err != nil {
		return len(dst) - n, err
	}
	return 0, nil
}

// CopyTo delivers src to dst and returns the number of bytes that could not
// be delivered. A partial delivery is reported, not hidden.
func CopyTo(dst io.Writer, src []byte) (int, error) {
	n, err := dst.Write(src)
	if n > len(src) {
		n = len(src)
	}
	if n < len(src) && err == nil {
		err = io.ErrShortWrite
	}
	return len(src) - n, err
}
