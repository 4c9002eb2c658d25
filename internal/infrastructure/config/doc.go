// Package config provides 12-factor configuration management for the chardrv
// server.
//
// Configuration is loaded from environment variables with sensible defaults.
// CONFIG_FILE may name a YAML or TOML file whose keys override the
// environment.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, connection cap, shutdown)
//   - GRPC: health service settings
//   - Device: name, capacity, read mode and major number range of the device
//   - Logging: Log level, output format and kernel log ring size
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, MAX_CONNECTIONS, SHUTDOWN_TIMEOUT
//   - GRPC_PORT, GRPC_ENABLED
//   - DEVICE_NAME, DEVICE_CAPACITY, DEVICE_READ_MODE, DEVICE_MAX_SESSIONS
//   - DEVICE_MAJOR_BASE, DEVICE_MAJOR_COUNT
//   - LOG_LEVEL, LOG_DEV, LOG_RING_SIZE
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - CONFIG_FILE
package config
