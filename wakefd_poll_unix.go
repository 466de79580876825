//go:build linux || darwin

package gather

import (
	"golang.org/x/sys/unix"
)

// pollReadable blocks up to timeoutMs for readFD to become readable.
// It returns true if the fd is readable, false on timeout.
func pollReadable(readFD int, timeoutMs int) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(readFD), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, timeoutMs)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}
}
