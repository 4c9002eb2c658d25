package types

// Error codes carried in ErrorResponse.Code.
const (
	CodeBufferFull    = "buffer_full"
	CodeCopyFault     = "copy_fault"
	CodeInvalidLength = "invalid_length"
	CodeBadSession    = "bad_session"
	CodeBusy          = "busy"
	CodeRateLimited   = "rate_limited"
	CodeUnavailable   = "unavailable"
	CodeInternal      = "internal"
)

// Response headers of a raw read.
const (
	HeaderBytesReturned = "X-Bytes-Returned"
	HeaderEndOfData     = "X-End-Of-Data"
)

// DefaultReadCount is the read size when the caller names none.
const DefaultReadCount = 4096

// DeviceInfo describes the registered device.
type DeviceInfo struct {
	Name       string `json:"name"`
	Major      uint32 `json:"major"`
	Minor      uint32 `json:"minor"`
	Node       string `json:"node"`
	Mknod      string `json:"mknod"`
	Capacity   int    `json:"capacity"`
	Written    int    `json:"written"`
	Available  int    `json:"available"`
	Sessions   int    `json:"sessions"`
	ReadMode   string `json:"read_mode"`
	InstanceID string `json:"instance_id,omitempty"`
}

// OpenResponse is returned by POST /sessions.
type OpenResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
}

// WriteResponse is returned by a write.
type WriteResponse struct {
	Success      bool `json:"success"`
	BytesWritten int  `json:"bytes_written"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// WSMessage is a JSON text frame sent by a websocket client. A read
// without count uses DefaultReadCount.
type WSMessage struct {
	Type  string `json:"type"`
	Data  string `json:"data,omitempty"`
	Count *int   `json:"count,omitempty"`
}

// WSReply is a JSON frame sent back to a websocket client.
type WSReply struct {
	Type         string      `json:"type"`
	SessionID    string      `json:"session_id,omitempty"`
	BytesWritten int         `json:"bytes_written,omitempty"`
	Data         []byte      `json:"data,omitempty"`
	Count        int         `json:"count,omitempty"`
	EndOfData    bool        `json:"end_of_data,omitempty"`
	Device       *DeviceInfo `json:"device,omitempty"`
	Error        string      `json:"error,omitempty"`
	Code         string      `json:"code,omitempty"`
	Timestamp    int64       `json:"timestamp"`
}
