package client

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/chardrv/internal/domain/channel"
	"github.com/GriffinCanCode/chardrv/internal/domain/device"
	"github.com/GriffinCanCode/chardrv/internal/shared/types"
)

// ErrUnexpectedStatus is wrapped by APIError when the server sent no
// recognizable error body.
var ErrUnexpectedStatus = errors.New("client: unexpected response status")

// APIError is a failure reported by the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("chardrv: %d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("chardrv: %s (%d %s)", e.Message, e.Status, e.Code)
}

// Unwrap maps the wire code back to the sentinel the server matched, so
// callers can use errors.Is(err, channel.ErrBufferFull).
func (e *APIError) Unwrap() error {
	switch e.Code {
	case types.CodeBufferFull:
		return channel.ErrBufferFull
	case types.CodeCopyFault:
		return channel.ErrCopyFault
	case types.CodeInvalidLength:
		return channel.ErrInvalidLength
	case types.CodeBadSession:
		return device.ErrBadSession
	case types.CodeBusy:
		return device.ErrBusy
	case types.CodeUnavailable:
		return device.ErrNotLoaded
	default:
		return ErrUnexpectedStatus
	}
}

// deviceAnswered reports whether err is the device refusing a request, as
// opposed to the server or the network failing.
func deviceAnswered(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case types.CodeBufferFull, types.CodeCopyFault, types.CodeInvalidLength,
		types.CodeBadSession, types.CodeBusy, types.CodeRateLimited:
		return true
	default:
		return false
	}
}
