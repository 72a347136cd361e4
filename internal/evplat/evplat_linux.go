//go:build linux

package evplat

import "golang.org/x/sys/unix"

// ThreadID returns the kernel thread id of the calling thread. Goroutines
// migrate between threads, so the value identifies the thread that
// happened to run the recording call.
func ThreadID() uint64 {
	return uint64(unix.Gettid())
}
