//go:build !linux && !windows

package evplat

// ThreadID returns Unknown: this platform has no thread id accessor.
func ThreadID() uint64 {
	return Unknown
}
