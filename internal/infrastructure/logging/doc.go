// Package logging provides structured logging using uber/zap.
//
// Two output modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Every Logger also tees into a Ring, a fixed-size in-memory tail of recent
// output. The server exposes it as the device host's kernel log (GET /dmesg),
// which is where driver messages such as "buffer full" end up.
//
// Example Usage:
//
//	logger, err := logging.New(logging.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	logger.Info("Device registered", zap.Uint32("major", 254))
//	fmt.Print(logger.Ring().String())
package logging
