package cliutil

import (
	"context"
	"errors"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is a single binary's entry point: a flag set, a usage string,
// and the function to run once flags are parsed.
type Command struct {
	Flags *flag.FlagSet
	Usage string
	Short string
	Exec  func(ctx context.Context, o *IO, args []string) error
}

// PrintHelp prints "Usage: <Usage>" followed by flag defaults.
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage:", c.Usage)
	if c.Short != "" {
		o.Println()
		o.Println(c.Short)
	}

	if c.Flags != nil && c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")

		var buf strings.Builder
		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()
		o.Printf("%s", buf.String())
	}
}

// Run parses args and executes the command, returning a process exit code.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	c.Flags.SetOutput(&strings.Builder{})

	if err := c.Flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o)
			return 0
		}

		o.ErrPrintln("error:", err)
		return 1
	}

	if err := c.Exec(ctx, o, c.Flags.Args()); err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}

	return 0
}
