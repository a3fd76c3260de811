package cliutil

import (
	"context"
	"os"
	"time"
)

// ShutdownTimeout bounds how long RunWithGracefulShutdown waits for loop to
// return after the context is cancelled, before forcing an exit.
const ShutdownTimeout = 5 * time.Second

// RunWithGracefulShutdown runs loop(ctx) in a goroutine and waits for it to
// return or for a termination signal on sigCh, whichever comes first. On
// signal, it cancels ctx and gives loop up to ShutdownTimeout to return on
// its own before reporting a forced exit.
//
// Mirrors internal/cli/run.go's Run: race the unit of work against a signal
// channel, cancel, then bound the wait for a clean return.
func RunWithGracefulShutdown(sigCh <-chan os.Signal, loop func(ctx context.Context) error) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)

	go func() {
		done <- loop(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			return 1
		}
		return 0
	case <-sigCh:
		cancel()
	}

	select {
	case <-done:
		return 130
	case <-time.After(ShutdownTimeout):
		return 130
	case <-sigCh:
		return 130
	}
}
