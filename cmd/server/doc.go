// Package main runs the chardrv daemon.
//
// Starting the process loads the device module: a major number is taken
// from the configured range, the fixed-capacity buffer is allocated and the
// device is registered. The log shows the mknod line for the node. SIGINT
// or SIGTERM unloads it again after draining in-flight requests.
//
// Interfaces:
//   - REST on PORT: /device, /devices, /sessions, /dmesg, /metrics
//   - WebSocket on /stream, one session per connection
//   - gRPC health on GRPC_PORT, service "chardrv"
//
// Configuration comes from the environment (see internal/infrastructure/config)
// and an optional YAML or TOML file.
//
// Usage:
//
//	DEVICE_CAPACITY=80 ./server -port 8000
//	./server -config chardrv.yaml -dev
package main
