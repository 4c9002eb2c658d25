package cli

import (
	"io"
	"os"
)

// streams are where a command prints. Execute receives them as its first
// extra argument; without one it uses the process streams.
type streams struct {
	out io.Writer
	err io.Writer
}

// Streams bundles writers to pass to Commander.Execute.
func Streams(out, errOut io.Writer) any {
	return streams{out: out, err: errOut}
}

func outputs(args []any) streams {
	if len(args) > 0 {
		if s, ok := args[0].(streams); ok {
			return s
		}
	}
	return streams{out: os.Stdout, err: os.Stderr}
}
