package daemon

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// readSignalfdSigno blocks until one signalfd_siginfo record is readable
// on fd and returns its signal number. Mirrors the read(2)-into-struct
// pattern clipmenud.c uses directly on its signalfd.
func readSignalfdSigno(fd int) (uint32, error) {
	var info unix.SignalfdSiginfo

	buf := (*[unsafe.Sizeof(info)]byte)(unsafe.Pointer(&info))[:]

	n, err := unix.Read(fd, buf)
	if err != nil {
		return 0, err
	}
	if n != len(buf) {
		return 0, fmt.Errorf("short signalfd read: got %d bytes, want %d", n, len(buf))
	}

	return info.Signo, nil
}
