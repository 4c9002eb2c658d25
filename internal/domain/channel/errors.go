package channel

import "errors"

var (
	// ErrBufferFull is returned by Write when no capacity is left.
	ErrBufferFull = errors.New("channel: buffer full")
	// ErrCopyFault is returned by Write when the source memory could not be copied.
	ErrCopyFault = errors.New("channel: copy fault")
	// ErrInvalidLength is returned for negative transfer lengths.
	ErrInvalidLength = errors.New("channel: invalid length")
	// ErrInvalidCapacity is returned by New for a non-positive capacity.
	ErrInvalidCapacity = errors.New("channel: invalid capacity")
	// ErrUnknownReadMode is returned by ParseReadMode.
	ErrUnknownReadMode = errors.New("channel: unknown read mode")
)
