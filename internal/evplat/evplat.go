// Package evplat provides the process and thread identifiers stamped on
// trace events. Thread ids are OS thread ids where the platform exposes
// them; on other platforms ThreadID returns Unknown, which serves as a
// marker value in the JSON output.
package evplat

import "os"

// Unknown is the thread id reported on platforms without an accessor.
const Unknown uint64 = 0

// ProcessID returns the current process id.
func ProcessID() int {
	return os.Getpid()
}
