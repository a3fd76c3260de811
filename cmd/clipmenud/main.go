// Command clipmenud is the capture daemon: it watches the X11 PRIMARY and
// CLIPBOARD selections and persists salient changes into the clip store.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/clipmenu/clipmenu-go/internal/cliutil"
	"github.com/clipmenu/clipmenu-go/internal/config"
	"github.com/clipmenu/clipmenu-go/internal/daemon"
)

func main() {
	environ := os.Environ()
	env := make(map[string]string, len(environ))
	for _, e := range environ {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}

	flags := flag.NewFlagSet("clipmenud", flag.ContinueOnError)
	configPath := flags.String("config", config.ConfigPath(env), "path to config.jsonc")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "clipmenud: error:", err)
		os.Exit(1)
	}

	paths, err := config.ResolvePaths(env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "clipmenud: error:", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "clipmenud: error:", err)
		os.Exit(1)
	}

	d, err := daemon.New(daemon.Options{Paths: paths, Config: cfg})
	if err != nil {
		fmt.Fprintln(os.Stderr, "clipmenud: error:", err)
		os.Exit(1)
	}
	defer d.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	os.Exit(cliutil.RunWithGracefulShutdown(sigCh, d.Run))
}
