package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/chardrv/internal/domain/channel"
	"github.com/GriffinCanCode/chardrv/internal/domain/device"
	"github.com/GriffinCanCode/chardrv/internal/domain/uaccess"
	"github.com/GriffinCanCode/chardrv/internal/shared/id"
	"github.com/GriffinCanCode/chardrv/internal/shared/types"
)

// loaded returns the device or writes the unavailable error.
func (h *Handlers) loaded(c *gin.Context) (*device.Device, bool) {
	d := h.module.Device()
	if d == nil {
		respondError(c, device.ErrNotLoaded)
		return nil, false
	}
	return d, true
}

func sessionParam(c *gin.Context) (id.SessionID, error) {
	sid, err := id.ParseSessionID(c.Param("id"))
	if err != nil {
		return "", fmt.Errorf("%w: %w", device.ErrBadSession, err)
	}
	return sid, nil
}

// countParam parses ?count=N, returning def when absent.
func countParam(c *gin.Context, def int) (int, error) {
	raw, ok := c.GetQuery("count")
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: count %q", channel.ErrInvalidLength, raw)
	}
	return n, nil
}

// OpenSession opens the device.
func (h *Handlers) OpenSession(c *gin.Context) {
	d, ok := h.loaded(c)
	if !ok {
		return
	}

	sid, err := d.Open(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, types.OpenResponse{Success: true, SessionID: sid.String()})
}

// WriteSession writes the raw request body. A count larger than the body
// describes a caller buffer whose tail is not mapped, so the copy faults.
func (h *Handlers) WriteSession(c *gin.Context) {
	d, ok := h.loaded(c)
	if !ok {
		return
	}
	sid, err := sessionParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxWriteBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, types.ErrorResponse{
				Error: fmt.Sprintf("write larger than %d bytes", tooLarge.Limit),
				Code:  types.CodeInvalidLength,
			})
			return
		}
		respondError(c, fmt.Errorf("%w: %w", channel.ErrCopyFault, err))
		return
	}

	count, err := countParam(c, len(body))
	if err != nil {
		respondError(c, err)
		return
	}

	n, err := d.Write(c.Request.Context(), sid, uaccess.NewBuffer(body), count)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.WriteResponse{Success: true, BytesWritten: n})
}

// ReadSession returns up to count stored bytes as the raw body.
func (h *Handlers) ReadSession(c *gin.Context) {
	d, ok := h.loaded(c)
	if !ok {
		return
	}
	sid, err := sessionParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	count, err := countParam(c, types.DefaultReadCount)
	if err != nil {
		respondError(c, err)
		return
	}

	// Nothing past capacity can ever be delivered, so the destination
	// never needs to be larger.
	dst := uaccess.NewDestination(min(count, d.Info().Capacity))
	n, err := d.Read(c.Request.Context(), sid, dst, count)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header(types.HeaderBytesReturned, strconv.Itoa(n))
	if n == 0 && endOfData(d, sid) {
		c.Header(types.HeaderEndOfData, "true")
	}
	c.Data(http.StatusOK, "application/octet-stream", dst.Bytes())
}

// endOfData reports whether sid has read everything stored. A zero-byte
// read alone does not say so, since count may have been 0.
func endOfData(d *device.Device, sid id.SessionID) bool {
	pending, err := d.Pending(sid)
	return err == nil && pending == 0
}

// ReleaseSession closes a session.
func (h *Handlers) ReleaseSession(c *gin.Context) {
	d, ok := h.loaded(c)
	if !ok {
		return
	}
	sid, err := sessionParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := d.Release(c.Request.Context(), sid); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session_id": sid.String()})
}
