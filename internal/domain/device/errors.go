package device

import "errors"

var (
	// ErrBadSession is returned for a session id that is not open.
	ErrBadSession = errors.New("device: bad session")
	// ErrBusy is returned by Open when the session table is full.
	ErrBusy = errors.New("device: too many open sessions")
	// ErrRegionExhausted is returned when no major number is free.
	ErrRegionExhausted = errors.New("device: no free major number")
	// ErrInvalidRegion is returned for a major window outside [1, MaxMajor].
	ErrInvalidRegion = errors.New("device: invalid major range")
	// ErrDeviceExists is returned when a device number is already registered.
	ErrDeviceExists = errors.New("device: already registered")
	// ErrNotRegistered is returned when releasing an unknown device number.
	ErrNotRegistered = errors.New("device: not registered")
	// ErrNotLoaded is returned when using a module that is not initialized.
	ErrNotLoaded = errors.New("device: module not loaded")
)
