package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/chardrv/internal/domain/channel"
	"github.com/GriffinCanCode/chardrv/internal/domain/device"
	"github.com/GriffinCanCode/chardrv/internal/shared/types"
)

// StatusFor maps a device error to an HTTP status and a wire code.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, channel.ErrBufferFull):
		return http.StatusInsufficientStorage, types.CodeBufferFull
	case errors.Is(err, channel.ErrCopyFault):
		return http.StatusBadRequest, types.CodeCopyFault
	case errors.Is(err, channel.ErrInvalidLength):
		return http.StatusBadRequest, types.CodeInvalidLength
	case errors.Is(err, device.ErrBadSession):
		return http.StatusNotFound, types.CodeBadSession
	case errors.Is(err, device.ErrBusy):
		return http.StatusServiceUnavailable, types.CodeBusy
	case errors.Is(err, device.ErrNotLoaded),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, types.CodeUnavailable
	default:
		return http.StatusInternalServerError, types.CodeInternal
	}
}

// respondError records err on the context and writes the error body.
func respondError(c *gin.Context, err error) {
	status, code := StatusFor(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, types.ErrorResponse{
		Success: false,
		Error:   err.Error(),
		Code:    code,
	})
}
