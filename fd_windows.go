//go:build windows

package gather

import (
	"errors"
)

// closeFD is a no-op on Windows since wake FDs don't exist.
// The Latch uses its channel-only path there (see wakefd_other.go).
func closeFD(fd int) error {
	// On Windows the Latch never creates a wake fd, so this should never be
	// called with a valid FD
	if fd >= 0 {
		return errors.New("closeFD not supported on Windows for wake mechanism")
	}
	return nil
}

// readFD is a no-op on Windows since wake FDs don't exist.
// The Latch wakes through its buffered channel there.
func readFD(fd int, buf []byte) (int, error) {
	return 0, nil
}

// writeFD is a no-op on Windows since wake FDs don't exist.
// The Latch wakes through its buffered channel there.
func writeFD(fd int, buf []byte) (int, error) {
	return 0, nil
}
