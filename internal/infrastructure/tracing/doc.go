/*
Package tracing provides lightweight request tracing for the chardrv server.

Spans carry ULID-based ids, propagate through the X-Trace-ID and X-Span-ID
headers (gRPC metadata uses the same keys, lower-cased), and are logged by a
background collector once finished. Failed spans are logged at Warn and
successful ones at Debug.

# Usage

	tracer := tracing.New("chardrv", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(tracing.GRPCUnaryInterceptor(tracer)),
		grpc.ChainStreamInterceptor(tracing.GRPCStreamInterceptor(tracer)),
	)

	span, ctx := tracer.StartSpan(ctx, "operation")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

The HTTP middleware tags spans with the session id when the route has one,
so every read and write of a session can be followed in the log.
*/
package tracing
