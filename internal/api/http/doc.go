// Package http exposes the character device over REST.
//
// Sessions map to open file descriptions: POST /sessions opens one, writes
// and reads carry raw octets, DELETE releases it. Reads return
// application/octet-stream with the count in X-Bytes-Returned.
// X-End-Of-Data: true is set when the session has nothing left to read.
// GET /devices lists the cdev table. Failures use types.ErrorResponse
// with a stable code, mapped from the device sentinels by StatusFor.
package http
