// Command clipctl enables, disables, toggles, or reports the status of
// the capture daemon.
//
// Usage: clipctl <enable|disable|toggle|status>
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/clipmenu/clipmenu-go/internal/config"
	"github.com/clipmenu/clipmenu-go/internal/ctl"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "clipctl: error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: clipctl <enable|disable|toggle|status>")
	}

	environ := os.Environ()
	env := make(map[string]string, len(environ))
	for _, e := range environ {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}

	paths, err := config.ResolvePaths(env)
	if err != nil {
		return err
	}

	pid, err := ctl.FindDaemonPID()
	if err != nil {
		return err
	}

	if args[0] == "status" {
		enabled, err := ctl.IsEnabled(paths.EnabledPath)
		if err != nil {
			return err
		}
		if enabled {
			fmt.Println("enabled")
		} else {
			fmt.Println("disabled")
		}
		return nil
	}

	want, err := shouldEnable(paths, args[0])
	if err != nil {
		return err
	}

	return ctl.SetEnabled(pid, paths.EnabledPath, want)
}

func shouldEnable(paths config.Paths, mode string) (bool, error) {
	switch mode {
	case "enable":
		return true, nil
	case "disable":
		return false, nil
	case "toggle":
		enabled, err := ctl.IsEnabled(paths.EnabledPath)
		if err != nil {
			return false, err
		}
		return !enabled, nil
	default:
		return false, fmt.Errorf("unknown command: %s", mode)
	}
}
