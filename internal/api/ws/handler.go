package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/chardrv/internal/api/http"
	"github.com/GriffinCanCode/chardrv/internal/domain/device"
	"github.com/GriffinCanCode/chardrv/internal/domain/uaccess"
	"github.com/GriffinCanCode/chardrv/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/chardrv/internal/shared/id"
	"github.com/GriffinCanCode/chardrv/internal/shared/types"
)

// MaxFrameBytes caps a single incoming frame.
const MaxFrameBytes = 1 << 20

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler manages WebSocket connections. Each connection is one session.
type Handler struct {
	module  *device.Module
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// NewHandler creates a new WebSocket handler. metrics may be nil.
func NewHandler(module *device.Module, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		module:  module,
		metrics: metrics,
		logger:  logger,
	}
}

// HandleConnection opens a session, upgrades the connection and serves
// frames until the client goes away. The session is released on close.
func (h *Handler) HandleConnection(c *gin.Context) {
	d := h.module.Device()
	if d == nil {
		status, code := apihttp.StatusFor(device.ErrNotLoaded)
		c.AbortWithStatusJSON(status, types.ErrorResponse{Error: device.ErrNotLoaded.Error(), Code: code})
		return
	}

	sid, err := d.Open(c.Request.Context())
	if err != nil {
		status, code := apihttp.StatusFor(err)
		c.AbortWithStatusJSON(status, types.ErrorResponse{Error: err.Error(), Code: code})
		return
	}
	// Release outlives the request context on purpose: close must always run.
	defer func() { _ = d.Release(context.Background(), sid) }()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(MaxFrameBytes)

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	s := &stream{h: h, conn: conn, dev: d, sid: sid}
	s.send(types.WSReply{Type: "system", SessionID: sid.String()})
	s.serve(c.Request.Context())
}

type stream struct {
	h    *Handler
	conn *websocket.Conn
	dev  *device.Device
	sid  id.SessionID
}

func (s *stream) serve(ctx context.Context) {
	for {
		kind, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.h.logger.Debug("WebSocket read error", zap.String("session_id", s.sid.String()), zap.Error(err))
			}
			return
		}

		if kind == websocket.BinaryMessage {
			s.record("in", "binary")
			s.write(ctx, data)
			continue
		}

		var msg types.WSMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			s.record("in", "invalid")
			s.sendError("invalid message", types.CodeInvalidLength)
			continue
		}
		s.record("in", msg.Type)

		switch msg.Type {
		case "write":
			s.write(ctx, []byte(msg.Data))
		case "read":
			count := types.DefaultReadCount
			if msg.Count != nil {
				count = *msg.Count
			}
			s.read(ctx, count)
		case "info":
			info, ok := apihttp.DescribeDevice(s.h.module)
			if !ok {
				s.fail(device.ErrNotLoaded)
				continue
			}
			s.send(types.WSReply{Type: "info", Device: info})
		case "ping":
			s.send(types.WSReply{Type: "pong"})
		default:
			s.sendError("unknown message type", types.CodeInvalidLength)
		}
	}
}

func (s *stream) write(ctx context.Context, data []byte) {
	n, err := s.dev.Write(ctx, s.sid, uaccess.NewBuffer(data), len(data))
	if err != nil {
		s.fail(err)
		return
	}
	s.send(types.WSReply{Type: "written", BytesWritten: n})
}

func (s *stream) read(ctx context.Context, count int) {
	dst := uaccess.NewDestination(min(count, s.dev.Info().Capacity))
	n, err := s.dev.Read(ctx, s.sid, dst, count)
	if err != nil {
		s.fail(err)
		return
	}
	eof := false
	if n == 0 {
		pending, err := s.dev.Pending(s.sid)
		eof = err == nil && pending == 0
	}
	s.send(types.WSReply{Type: "data", Data: dst.Bytes(), Count: n, EndOfData: eof})
}

func (s *stream) fail(err error) {
	_, code := apihttp.StatusFor(err)
	s.sendError(err.Error(), code)
}

func (s *stream) sendError(msg, code string) {
	s.send(types.WSReply{Type: "error", Error: msg, Code: code})
}

func (s *stream) send(reply types.WSReply) {
	reply.Timestamp = time.Now().Unix()
	payload, err := sonic.Marshal(reply)
	if err != nil {
		s.h.logger.Error("WebSocket encode failed", zap.Error(err))
		return
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		s.h.logger.Debug("WebSocket write failed", zap.String("session_id", s.sid.String()), zap.Error(err))
		return
	}
	s.record("out", reply.Type)
}

func (s *stream) record(direction, msgType string) {
	if s.h.metrics != nil {
		s.h.metrics.RecordWSMessage(direction, msgType)
	}
}
