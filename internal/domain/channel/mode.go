package channel

import (
	"fmt"
	"strings"
)

// ReadMode selects how Read positions and clamps a transfer.
type ReadMode int

const (
	// ReadDrain continues from the session's read cursor.
	ReadDrain ReadMode = iota
	// ReadLiteral restarts at offset 0 on every read.
	ReadLiteral
)

// String returns the configuration name of the mode.
func (m ReadMode) String() string {
	switch m {
	case ReadDrain:
		return "drain"
	case ReadLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// ParseReadMode parses a configuration value. The empty string selects ReadDrain.
func ParseReadMode(s string) (ReadMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drain":
		return ReadDrain, nil
	case "literal":
		return ReadLiteral, nil
	default:
		return ReadDrain, fmt.Errorf("%w: %q", ErrUnknownReadMode, s)
	}
}
