package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/subcommands"

	"github.com/GriffinCanCode/chardrv/internal/client"
)

// Globals are the flags shared by every command.
type Globals struct {
	Addr     string
	GRPCAddr string
	Timeout  time.Duration
	Retries  int

	// dial overrides the gRPC dialer in tests.
	dial func(ctx context.Context, addr string) (net.Conn, error)
}

// SetFlags registers the global flags on f.
func (g *Globals) SetFlags(f *flag.FlagSet) {
	f.StringVar(&g.Addr, "addr", "http://localhost:8000", "chardrv REST address")
	f.StringVar(&g.GRPCAddr, "grpc", "localhost:50061", "chardrv gRPC health address")
	f.DurationVar(&g.Timeout, "timeout", 10*time.Second, "per-request timeout")
	f.IntVar(&g.Retries, "retries", 3, "retries for reads")
}

// Client builds a REST client from the flags.
func (g *Globals) Client() *client.Client {
	cfg := client.DefaultConfig()
	cfg.BaseURL = g.Addr
	if g.Timeout > 0 {
		cfg.Timeout = g.Timeout
	}
	cfg.RetryMax = g.Retries
	return client.New(cfg)
}

// Register adds every chardevctl command to cmdr.
func Register(cmdr *subcommands.Commander, g *Globals, in io.Reader) {
	cmdr.Register(cmdr.HelpCommand(), "")
	cmdr.Register(cmdr.FlagsCommand(), "")
	cmdr.Register(cmdr.CommandsCommand(), "")

	cmdr.Register(&EchoCommand{g: g}, "device")
	cmdr.Register(&WriteCommand{g: g, in: in}, "device")
	cmdr.Register(&CatCommand{g: g}, "device")
	cmdr.Register(&InfoCommand{g: g}, "device")
	cmdr.Register(&DevicesCommand{g: g}, "device")
	cmdr.Register(&DmesgCommand{g: g}, "device")
	cmdr.Register(&HealthCommand{g: g}, "service")
}

func fail(w io.Writer, name string, err error) subcommands.ExitStatus {
	fmt.Fprintf(w, "chardevctl: %s: %v\n", name, err)
	return subcommands.ExitFailure
}
