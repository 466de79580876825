//go:build darwin

package gather

import (
	"syscall"
)

// isWakeFdSupported reports whether a platform-native wake fd is available.
func isWakeFdSupported() bool {
	return true
}

// createPlatformWakeFD creates a non-blocking self-pipe for wake-up
// notifications (Darwin has no eventfd equivalent).
func createPlatformWakeFD() (readFD, writeFD int, err error) {
	var fds [2]int
	if err := syscall.Pipe(fds[:]); err != nil {
		return -1, -1, err
	}

	cleanup := func() {
		_ = syscall.Close(fds[0])
		_ = syscall.Close(fds[1])
	}

	syscall.CloseOnExec(fds[0])
	syscall.CloseOnExec(fds[1])

	if err := syscall.SetNonblock(fds[0], true); err != nil {
		cleanup()
		return -1, -1, err
	}
	if err := syscall.SetNonblock(fds[1], true); err != nil {
		cleanup()
		return -1, -1, err
	}

	return fds[0], fds[1], nil
}
