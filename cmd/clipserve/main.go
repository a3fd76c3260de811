// Command clipserve serves one stored clip's content to X11 selection
// requests until every selection it acquires has been claimed by another
// application. Invoked by clipmenud after a capture.
//
// Usage: clipserve <hash-hex>
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/clipmenu/clipmenu-go/internal/clipstore"
	"github.com/clipmenu/clipmenu-go/internal/config"
	"github.com/clipmenu/clipmenu-go/internal/serve"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "clipserve: error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: clipserve <hash-hex>")
	}

	hash, err := strconv.ParseUint(strings.TrimSpace(args[0]), 16, 64)
	if err != nil {
		return fmt.Errorf("parsing hash %q: %w", args[0], err)
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

	store, err := clipstore.Open(clipstore.Options{
		SnipPath:   paths.LineCachePath,
		ContentDir: paths.ContentDir,
	})
	if err != nil {
		return fmt.Errorf("opening clip store: %w", err)
	}
	defer store.Close()

	content, err := store.ContentGet(hash)
	if err != nil {
		return fmt.Errorf("hash %016x inaccessible: %w", hash, err)
	}

	srv, err := serve.New(content.Data, slog.Default())
	if err != nil {
		return err
	}
	defer srv.Close()

	return srv.Run()
}
