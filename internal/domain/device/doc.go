// Package device attaches a channel.Channel to a file-like interface, the
// way a character driver attaches its buffer to the kernel.
//
// Pieces:
//   - Dev: a device number (major, minor)
//   - Region: hands out free major numbers from a configured window
//   - Registry: the table of live devices keyed by device number
//   - Device: open/read/write/release over a table of sessions
//   - Module: load/unload lifecycle tying the above together, with ordered
//     rollback when a step fails
//
// Sessions are identified by id.SessionID. Each has its own read cursor;
// the store and write cursor belong to the Channel and are shared.
//
// Example Usage:
//
//	mod := device.NewModule(device.DefaultModuleConfig(), device.WithLogger(logger))
//	if err := mod.Init(); err != nil {
//		return err
//	}
//	defer mod.Cleanup()
//
//	dev := mod.Device()
//	sid, _ := dev.Open(ctx)
//	n, err := dev.Write(ctx, sid, uaccess.NewBuffer(p), len(p))
//	dev.Release(ctx, sid)
package device
