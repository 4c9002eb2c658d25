// Package client is the Go client of the chardrv REST API.
//
// Requests go through resty with a sonic JSON codec. Reads retry through a
// go-retryablehttp transport, writes never do. A circuit breaker opens after
// repeated transport or server failures. Device refusals such as a full
// buffer count as healthy answers and come back as *APIError values that
// unwrap to the device sentinels:
//
//	c := client.New(client.DefaultConfig())
//	f, _ := c.OpenFile(ctx)
//	defer f.Close()
//	if _, err := io.WriteString(f, "hello"); errors.Is(err, channel.ErrBufferFull) {
//	    // device is full
//	}
package client
