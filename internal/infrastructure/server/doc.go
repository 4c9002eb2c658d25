// Package server wires the device module to its front ends.
//
// NewServer is "module load": it builds logging, metrics and tracing, runs
// device.Module.Init and assembles the gin router (REST, /metrics, /stream)
// and the gRPC health service. Shutdown is "module unload": health flips to
// NOT_SERVING, both servers drain, and Module.Cleanup drops every session.
//
//	srv, err := server.NewServer(cfg)
//	if err != nil {
//	    return err
//	}
//	return srv.Run(ctx)
package server
