// Package cli implements the chardevctl commands on google/subcommands.
//
// The commands mirror how a character device is used from a shell: echo
// and write store bytes, cat drains from the start of a fresh session,
// info, devices and dmesg show what the module registered, health queries
// the gRPC health service.
package cli
