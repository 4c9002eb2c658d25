// Package types provides the wire structures shared by the chardrv server,
// its websocket stream and the client.
//
// Core Types:
//   - DeviceInfo: device number, node, buffer state and read mode
//   - OpenResponse, WriteResponse: session operations
//   - ErrorResponse: failure body with a stable Code
//
// Stream Types:
//   - WSMessage: client frame (write, read, info, ping)
//   - WSReply: server frame
//
// Example Usage:
//
//	c.JSON(http.StatusInsufficientStorage, types.ErrorResponse{
//	    Error: "buffer full",
//	    Code:  types.CodeBufferFull,
//	})
package types
