//go:build !linux && !darwin

package gather

// isWakeFdSupported reports whether a platform-native wake fd is available.
// Windows falls back to the channel-only path in Latch. Other platforms
// also select this file, but closeFD/readFD/writeFD are defined only for
// Linux, Darwin and Windows, so the package does not build there.
func isWakeFdSupported() bool {
	return false
}

// createPlatformWakeFD is never called when isWakeFdSupported returns false.
func createPlatformWakeFD() (readFD, writeFD int, err error) {
	return -1, -1, errUnsupportedWakeFD
}

// pollReadable is never called on this platform: Latch.Wait only reaches it
// when l.fd is non-nil, which isWakeFdSupported prevents here.
func pollReadable(readFD int, timeoutMs int) (bool, error) {
	return false, errUnsupportedWakeFD
}
