// Package cliutil is small CLI scaffolding: flag parsing/help via pflag,
// plain stdout/stderr output, and a graceful-shutdown helper for the
// capture daemon's main loop. Of the binaries, only clipmenud imports it
// (for RunWithGracefulShutdown); clipserve and clipctl check their single
// argument directly. There is no command table or global flag set.
package cliutil

import (
	"fmt"
	"io"
)

// IO wraps a command's stdout/stderr.
type IO struct {
	Out    io.Writer
	ErrOut io.Writer
}

// NewIO creates an IO writing to out/errOut.
func NewIO(out, errOut io.Writer) *IO {
	return &IO{Out: out, ErrOut: errOut}
}

// Println writes to stdout.
func (o *IO) Println(a ...any) {
	_, _ = fmt.Fprintln(o.Out, a...)
}

// Printf writes formatted output to stdout.
func (o *IO) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(o.Out, format, a...)
}

// ErrPrintln writes to stderr.
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.ErrOut, a...)
}
