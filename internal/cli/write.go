package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/google/subcommands"

	"github.com/GriffinCanCode/chardrv/internal/domain/channel"
)

// EchoCommand writes its arguments to the device like echo > /dev/char_drv.
type EchoCommand struct {
	g         *Globals
	noNewline bool
}

func (*EchoCommand) Name() string     { return "echo" }
func (*EchoCommand) Synopsis() string { return "Write arguments to the device" }
func (*EchoCommand) Usage() string {
	return `echo [-n] <text>...:
	Open a session, write the arguments separated by spaces and release.
	A write that does not fit is truncated; once the buffer is full the
	command fails with "buffer full".
`
}

func (cmd *EchoCommand) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.noNewline, "n", false, "do not write the trailing newline")
}

func (cmd *EchoCommand) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	text := strings.Join(f.Args(), " ")
	if !cmd.noNewline {
		text += "\n"
	}
	return writeAll(ctx, cmd.g, "echo", strings.NewReader(text), outputs(args))
}

// WriteCommand copies standard input to the device.
type WriteCommand struct {
	g  *Globals
	in io.Reader
}

func (*WriteCommand) Name() string     { return "write" }
func (*WriteCommand) Synopsis() string { return "Copy standard input to the device" }
func (*WriteCommand) Usage() string {
	return `write:
	Copy standard input into one session until EOF or a full buffer.
`
}

func (*WriteCommand) SetFlags(*flag.FlagSet) {}

func (cmd *WriteCommand) Execute(ctx context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	return writeAll(ctx, cmd.g, "write", cmd.in, outputs(args))
}

func writeAll(ctx context.Context, g *Globals, name string, src io.Reader, out streams) subcommands.ExitStatus {
	file, err := g.Client().OpenFile(ctx)
	if err != nil {
		return fail(out.err, name, err)
	}
	defer file.Close()

	n, err := io.Copy(file, src)
	if errors.Is(err, channel.ErrBufferFull) {
		fmt.Fprintf(out.out, "%d bytes written\n", n)
		return fail(out.err, name, errors.New("buffer full"))
	}
	if err != nil {
		return fail(out.err, name, err)
	}
	fmt.Fprintf(out.out, "%d bytes written\n", n)
	return subcommands.ExitSuccess
}
