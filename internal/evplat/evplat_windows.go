//go:build windows

package evplat

import "golang.org/x/sys/windows"

// ThreadID returns the id of the calling OS thread.
func ThreadID() uint64 {
	return uint64(windows.GetCurrentThreadId())
}
