package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/bytedance/sonic"
	"github.com/google/subcommands"
)

// CatCommand reads the device until end of data like cat /dev/char_drv.
type CatCommand struct {
	g *Globals
}

func (*CatCommand) Name() string     { return "cat" }
func (*CatCommand) Synopsis() string { return "Read the device until end of data" }
func (*CatCommand) Usage() string {
	return `cat:
	Open a fresh session and print everything stored from the start.
`
}

func (*CatCommand) SetFlags(*flag.FlagSet) {}

func (cmd *CatCommand) Execute(ctx context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	out := outputs(args)

	file, err := cmd.g.Client().OpenFile(ctx)
	if err != nil {
		return fail(out.err, "cat", err)
	}
	defer file.Close()

	if _, err := io.Copy(out.out, file); err != nil {
		return fail(out.err, "cat", err)
	}
	return subcommands.ExitSuccess
}

// InfoCommand prints the device description.
type InfoCommand struct {
	g      *Globals
	asJSON bool
}

func (*InfoCommand) Name() string     { return "info" }
func (*InfoCommand) Synopsis() string { return "Describe the device" }
func (*InfoCommand) Usage() string {
	return `info [-json]:
	Print the device number, node, capacity and fill.
`
}

func (cmd *InfoCommand) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.asJSON, "json", false, "print JSON")
}

func (cmd *InfoCommand) Execute(ctx context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	out := outputs(args)

	info, err := cmd.g.Client().Info(ctx)
	if err != nil {
		return fail(out.err, "info", err)
	}

	if cmd.asJSON {
		data, err := sonic.ConfigStd.MarshalIndent(info, "", "  ")
		if err != nil {
			return fail(out.err, "info", err)
		}
		fmt.Fprintln(out.out, string(data))
		return subcommands.ExitSuccess
	}

	w := tabwriter.NewWriter(out.out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "name\t%s\n", info.Name)
	fmt.Fprintf(w, "device\t%d:%d\n", info.Major, info.Minor)
	fmt.Fprintf(w, "node\t%s\n", info.Node)
	fmt.Fprintf(w, "capacity\t%d\n", info.Capacity)
	fmt.Fprintf(w, "written\t%d\n", info.Written)
	fmt.Fprintf(w, "available\t%d\n", info.Available)
	fmt.Fprintf(w, "sessions\t%d\n", info.Sessions)
	fmt.Fprintf(w, "read mode\t%s\n", info.ReadMode)
	fmt.Fprintf(w, "mknod\t%s\n", info.Mknod)
	if err := w.Flush(); err != nil {
		return fail(out.err, "info", err)
	}
	return subcommands.ExitSuccess
}

// DevicesCommand lists the devices registered on the server.
type DevicesCommand struct {
	g *Globals
}

func (*DevicesCommand) Name() string     { return "devices" }
func (*DevicesCommand) Synopsis() string { return "List registered devices" }
func (*DevicesCommand) Usage() string {
	return `devices:
	Print one line per registered device: number, name, fill and node.
`
}

func (*DevicesCommand) SetFlags(*flag.FlagSet) {}

func (cmd *DevicesCommand) Execute(ctx context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	out := outputs(args)

	devs, err := cmd.g.Client().Devices(ctx)
	if err != nil {
		return fail(out.err, "devices", err)
	}

	w := tabwriter.NewWriter(out.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "DEVICE\tNAME\tWRITTEN\tNODE")
	for _, d := range devs {
		fmt.Fprintf(w, "%d:%d\t%s\t%d/%d\t%s\n", d.Major, d.Minor, d.Name, d.Written, d.Capacity, d.Node)
	}
	if err := w.Flush(); err != nil {
		return fail(out.err, "devices", err)
	}
	return subcommands.ExitSuccess
}

// DmesgCommand prints the server's kernel log tail.
type DmesgCommand struct {
	g *Globals
}

func (*DmesgCommand) Name() string     { return "dmesg" }
func (*DmesgCommand) Synopsis() string { return "Print the driver log" }
func (*DmesgCommand) Usage() string {
	return `dmesg:
	Print the tail of the server log ring.
`
}

func (*DmesgCommand) SetFlags(*flag.FlagSet) {}

func (cmd *DmesgCommand) Execute(ctx context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	out := outputs(args)

	text, err := cmd.g.Client().Dmesg(ctx)
	if err != nil {
		return fail(out.err, "dmesg", err)
	}
	fmt.Fprint(out.out, text)
	return subcommands.ExitSuccess
}
