// Package ws streams a device session over a WebSocket.
//
// A connection is one session: it is opened before the upgrade and released
// when the connection closes, so a new connection always reads from the
// start of the buffer.
//
// Client frames:
//   - binary: raw bytes to write
//   - {"type":"write","data":"..."}: text to write
//   - {"type":"read","count":N}: read up to N bytes (default 4096)
//   - {"type":"info"}: device description
//   - {"type":"ping"}: keep-alive
//
// Server frames are JSON types.WSReply values: system (greeting with the
// session id), written, data (base64 bytes, end_of_data on a zero read),
// info, pong and error.
package ws
