//go:build linux

package gather

import (
	"golang.org/x/sys/unix"
)

// wakeFdFlags are the eventfd creation flags used for the latch's wake fd.
const wakeFdFlags = unix.EFD_CLOEXEC | unix.EFD_NONBLOCK

// isWakeFdSupported reports whether a platform-native wake fd is available.
func isWakeFdSupported() bool {
	return true
}

// createPlatformWakeFD creates an eventfd for wake-up notifications (Linux).
// The single fd serves as both the read and write end.
func createPlatformWakeFD() (readFD, writeFD int, err error) {
	fd, err := unix.Eventfd(0, wakeFdFlags)
	if err != nil {
		return -1, -1, err
	}
	return fd, fd, nil
}
