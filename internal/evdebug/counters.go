// Package evdebug tracks operation counters for the trace log, read
// from tests and debug surfaces.
package evdebug

import "sync/atomic"

// Counters track the outcomes of recording and flushing operations.
type Counters struct {
	Recorded    atomic.Uint64 // events appended to the live buffer
	DroppedFull atomic.Uint64 // events dropped because the buffer was full
	Discarded   atomic.Uint64 // BEGIN events discarded by threshold resolution
	Flushed     atomic.Uint64 // events serialized during flushes
	Batches     atomic.Uint64 // output callback invocations with event bodies
}

// Values returns the current values of the counters.
func (c *Counters) Values() (recorded, droppedFull, discarded, flushed, batches uint64) {
	return c.Recorded.Load(), c.DroppedFull.Load(), c.Discarded.Load(), c.Flushed.Load(), c.Batches.Load()
}

// LogCounters tracks the process-wide trace log.
var LogCounters Counters
