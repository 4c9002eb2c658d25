// Command chardevctl talks to a running chardrv daemon.
//
//	chardevctl echo hello            # echo hello > /dev/char_drv
//	chardevctl write < file          # cat file > /dev/char_drv
//	chardevctl cat                   # cat /dev/char_drv
//	chardevctl info
//	chardevctl dmesg
//	chardevctl -grpc localhost:50061 health
package main
