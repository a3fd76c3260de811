package daemon

import (
	"context"
	"time"

	"golang.org/x/sys/unix"
)

// waitReadable blocks until one of xfd or sigfd becomes readable, ctx is
// cancelled, or pollInterval elapses (in which case it returns 0, nil so
// the caller can re-check ctx.Done()). Mirrors clipmenud.c:run's select()
// loop over the X11 connection fd and the signalfd.
func waitReadable(ctx context.Context, xfd, sigfd int, pollInterval time.Duration) (int, error) {
	fds := []unix.PollFd{
		{Fd: int32(xfd), Events: unix.POLLIN},
		{Fd: int32(sigfd), Events: unix.POLLIN},
	}

	for {
		if err := ctx.Err(); err != nil {
			return 0, nil
		}

		n, err := unix.Poll(fds, int(pollInterval/time.Millisecond))
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return 0, err
		}

		if n == 0 {
			return 0, nil
		}

		if fds[0].Revents&unix.POLLIN != 0 {
			return xfd, nil
		}
		if fds[1].Revents&unix.POLLIN != 0 {
			return sigfd, nil
		}

		return 0, nil
	}
}
