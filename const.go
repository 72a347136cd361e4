package evtrc

const (
	// BufferSize is the maximum number of live events held in memory.
	// Recording returns EventIDNone once the buffer is full; callers that
	// care should watch BufferFillFraction and call Flush.
	BufferSize = 500_000

	// BatchSize is the number of serialized events handed to the output
	// callback per invocation during a flush.
	BatchSize = 1000

	// MaxArgs is the number of argument slots per event.
	MaxArgs = 4

	// MaxCategories caps the process-wide category registry. Get requests
	// beyond the cap receive a disabled sentinel proxy.
	MaxCategories = 100
)

// EventIDNone is returned by the recording paths when no event was
// recorded: buffer full, threshold discard, or a threshold END whose BEGIN
// was already flushed.
const EventIDNone = int32(-1)
