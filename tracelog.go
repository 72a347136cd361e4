package evtrc

import (
	"hash/fnv"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"fortio.org/safecast"
	"github.com/oklog/ulid/v2"

	"github.com/evtrc/evtrc/internal/evdebug"
	"github.com/evtrc/evtrc/internal/evplat"
)

// OutputCallback consumes chunks of serialized trace JSON. During a flush
// it receives up to BatchSize events per invocation; BeginLogging and
// EndLogging hand it the document prelude and epilogue. The callback may
// be invoked from any goroutine, must not panic, and must not call back
// into TraceLog operations that take the log lock.
type OutputCallback func(json []byte)

const (
	jsonPrelude  = "{\"traceEvents\":[\n"
	jsonEpilogue = "],\"displayTimeUnit\":\"ns\"}\n"
)

// MetadataCategory is the category of metadata events emitted by the log
// itself, such as thread names and the session id.
const MetadataCategory = "__metadata"

// TraceLog buffers trace events in memory and flushes them, serialized as
// Chrome Trace Event Format JSON, through the output callback. The buffer
// is bounded at BufferSize events; recording into a full buffer drops the
// event and reports EventIDNone. All methods are safe for concurrent use,
// except that calls to Flush must not overlap one another (see Flush).
type TraceLog struct {
	mtx      sync.Mutex
	events   []Event
	flushBuf []Event
	seenTIDs []uint64
	pid      int
	pidHash  uint64
	session  ulid.ULID
	capacity int

	count    atomic.Int64
	enabled  atomic.Bool
	callback atomic.Value // OutputCallback
}

// New returns a trace log capturing the current process id, with a no-op
// output callback and the master switch off. The switch gates the
// package-level recording functions; AddEvent records regardless of it.
func New() *TraceLog {
	return newWithCapacity(BufferSize)
}

func newWithCapacity(capacity int) *TraceLog {
	tl := &TraceLog{
		pid:      evplat.ProcessID(),
		capacity: capacity,
	}
	tl.pidHash = hashPID(tl.pid)
	tl.callback.Store(OutputCallback(func([]byte) {}))
	return tl
}

func hashPID(pid int) uint64 {
	h := fnv.New64a()
	var b [8]byte
	for i := range b {
		b[i] = byte(uint64(pid) >> (8 * i))
	}
	h.Write(b[:])
	return h.Sum64()
}

// SetOutputCallback installs the sink for serialized output. The callback
// must be non-nil; installing a nil callback panics, as misconfiguring the
// sink is a programming error rather than a recording failure.
func (tl *TraceLog) SetOutputCallback(cb OutputCallback) {
	if cb == nil {
		panic("evtrc: nil output callback")
	}
	tl.callback.Store(cb)
}

// SetEnabled flips the master recording switch, which the package-level
// recording functions consult before recording; AddEvent does not consult
// it. Disabling an enabled log flushes all pending events.
func (tl *TraceLog) SetEnabled(enabled bool) {
	if enabled {
		tl.enabled.Store(true)
		return
	}
	if !tl.enabled.Swap(false) {
		return
	}
	tl.Flush()
}

// IsEnabled returns the master recording switch.
func (tl *TraceLog) IsEnabled() bool {
	return tl.enabled.Load()
}

// SetProcessID overrides the captured process id, and rehashes the value
// used for trace-id mangling.
func (tl *TraceLog) SetProcessID(pid int) {
	tl.mtx.Lock()
	defer tl.mtx.Unlock()

	tl.pid = pid
	tl.pidHash = hashPID(pid)
}

// ProcessID returns the process id stamped on serialized events.
func (tl *TraceLog) ProcessID() int {
	tl.mtx.Lock()
	defer tl.mtx.Unlock()

	return tl.pid
}

// SessionID returns the ULID minted by the most recent BeginLogging.
func (tl *TraceLog) SessionID() ulid.ULID {
	tl.mtx.Lock()
	defer tl.mtx.Unlock()

	return tl.session
}

// EventCount returns the number of events in the live buffer. The count is
// read without the log lock and may be stale.
func (tl *TraceLog) EventCount() int {
	return int(tl.count.Load())
}

// BufferFillFraction returns the live buffer's fill level in [0, 1]. The
// value is advisory, read without the log lock.
func (tl *TraceLog) BufferFillFraction() float64 {
	return float64(tl.count.Load()) / float64(tl.capacity)
}

// BeginLogging mints a new session id, emits the JSON document prelude to
// the output callback, enables recording, and appends a metadata event
// carrying the session id.
func (tl *TraceLog) BeginLogging() {
	session := ulid.Make()

	tl.mtx.Lock()
	tl.session = session
	tl.mtx.Unlock()

	tl.SetEnabled(true)
	tl.callback.Load().(OutputCallback)([]byte(jsonPrelude))
	tl.addSessionMetadataEvent(session)
}

// EndLogging emits the JSON document epilogue to the output callback. Any
// events still buffered are not flushed; callers flush first.
func (tl *TraceLog) EndLogging() {
	tl.callback.Load().(OutputCallback)([]byte(jsonEpilogue))
}

// AddEvent records one event. The category and name strings, and any
// argument strings not constructed with a copy-marking Arg constructor,
// are stored borrowed and must outlive the event; copy-marked argument
// strings are deep-copied into a single storage buffer owned by the event.
// At most MaxArgs arguments are accepted; more panic.
//
// thresholdBeginID and threshold implement threshold spans: they are
// meaningful only on an END event closing a thresholded scope, and are
// EventIDNone and zero everywhere else. See Scope.
//
// The returned event id identifies the event within the current epoch
// (since the last flush), or EventIDNone if the event was not recorded.
func (tl *TraceLog) AddEvent(phase Phase, category, name string, traceID uint64, flags Flag,
	thresholdBeginID int32, threshold time.Duration, args ...Arg) int32 {

	if len(args) > MaxArgs {
		panic("evtrc: too many event arguments")
	}

	var slots [MaxArgs]Arg
	copy(slots[:], args)

	var sb storageBuilder
	reserveArgs(&sb, &slots)
	sb.alloc()
	resolveArgs(&sb, &slots)

	return tl.record(phase, category, name, traceID, flags, thresholdBeginID, threshold, sb.buf, &slots)
}

// record is the thread-safe insertion path.
func (tl *TraceLog) record(phase Phase, category, name string, traceID uint64, flags Flag,
	thresholdBeginID int32, threshold time.Duration, storage []byte, args *[MaxArgs]Arg) int32 {

	// Full-buffer check without taking the lock. The count may be stale,
	// but the buffer never exceeds capacity: the locked append re-checks.
	if tl.count.Load() >= int64(tl.capacity) {
		evdebug.LogCounters.DroppedFull.Add(1)
		return EventIDNone
	}

	tid := evplat.ThreadID()

	tl.mtx.Lock()
	defer tl.mtx.Unlock()

	// The timestamp is captured under the lock, before threshold
	// resolution, so it is independent of the code path below.
	ts := now()

	if !tl.seenTID(tid) {
		tl.seenTIDs = append(tl.seenTIDs, tid)
	}

	// Threshold resolution: only record the END, and keep its BEGIN, if
	// the elapsed time meets the threshold. A BEGIN that was flushed in
	// the meantime is unreachable, so the END is dropped.
	if thresholdBeginID > EventIDNone {
		beginID := int(thresholdBeginID)
		if beginID >= len(tl.events) {
			return EventIDNone
		}
		if elapsed := ts - tl.events[beginID].ts; elapsed < threshold {
			// Mark the BEGIN discarded rather than erasing it, so event
			// ids held by other outstanding scopes stay valid. The slot
			// is skipped during flush.
			tl.events[beginID].discarded = true
			evdebug.LogCounters.Discarded.Add(1)
			return EventIDNone
		}
	}

	if flags&FlagMangleID != 0 {
		traceID ^= tl.pidHash
	}

	if len(tl.events) >= tl.capacity {
		evdebug.LogCounters.DroppedFull.Add(1)
		return EventIDNone
	}

	id, err := safecast.Conv[int32](len(tl.events))
	if err != nil {
		evdebug.LogCounters.DroppedFull.Add(1)
		return EventIDNone
	}

	tl.events = append(tl.events, Event{
		args:     *args,
		category: category,
		name:     name,
		tid:      tid,
		ts:       ts,
		traceID:  traceID,
		storage:  storage,
		phase:    phase,
		flags:    flags,
	})
	tl.count.Store(int64(len(tl.events)))
	evdebug.LogCounters.Recorded.Add(1)

	return id
}

func (tl *TraceLog) seenTID(tid uint64) bool {
	for _, seen := range tl.seenTIDs {
		if seen == tid {
			return true
		}
	}
	return false
}

// Flush swaps the live buffer with the flush buffer under the lock, then
// serializes the flushed events in batches of BatchSize and invokes the
// output callback once per batch, all outside the lock. Recording resumes
// into the empty live buffer immediately; the sink's latency never blocks
// recording. Events discarded by threshold resolution are skipped.
//
// Flush does not serialize against itself; it is called from sinks,
// signal handlers, and SetEnabled(false), which are expected to be
// coordinated by the program.
func (tl *TraceLog) Flush() {
	tl.mtx.Lock()
	tl.events, tl.flushBuf = tl.flushBuf[:0], tl.events
	pid := tl.pid
	tl.count.Store(0)
	tl.mtx.Unlock()

	cb := tl.callback.Load().(OutputCallback)

	buf := make([]byte, 0, 4096)
	batched := 0
	for i := range tl.flushBuf {
		ev := &tl.flushBuf[i]
		if ev.discarded {
			continue
		}
		buf = ev.AppendJSON(buf, pid)
		batched++
		evdebug.LogCounters.Flushed.Add(1)
		if batched == BatchSize {
			cb(buf)
			evdebug.LogCounters.Batches.Add(1)
			buf = buf[:0]
			batched = 0
		}
	}
	if batched > 0 {
		cb(buf)
		evdebug.LogCounters.Batches.Add(1)
	}
}

// AddThreadNameMetadataEvents appends one METADATA event per thread seen
// by the log so far, labeling each thread "thread-<tid>" for the viewer.
// The label is built on the fly and deep-copied into the event's storage.
func (tl *TraceLog) AddThreadNameMetadataEvents() {
	tl.mtx.Lock()
	defer tl.mtx.Unlock()

	for _, tid := range tl.seenTIDs {
		if len(tl.events) >= tl.capacity {
			evdebug.LogCounters.DroppedFull.Add(1)
			return
		}

		label := "thread-" + strconv.FormatUint(tid, 10)

		var sb storageBuilder
		sb.reserve(len(label))
		sb.alloc()
		label = sb.placeString(label)

		var args [MaxArgs]Arg
		args[0] = Arg{name: "name", value: StringValue(label)}

		tl.events = append(tl.events, Event{
			args:     args,
			category: MetadataCategory,
			name:     "thread_name",
			tid:      tid,
			ts:       now(),
			storage:  sb.buf,
			phase:    PhaseMetadata,
		})
		tl.count.Store(int64(len(tl.events)))
		evdebug.LogCounters.Recorded.Add(1)
	}
}

// addSessionMetadataEvent records the session ULID as a metadata event, so
// trace files can be matched back to the run that produced them.
func (tl *TraceLog) addSessionMetadataEvent(session ulid.ULID) {
	tl.AddEvent(PhaseMetadata, MetadataCategory, "process_session", 0, FlagNone,
		EventIDNone, 0, CopyStringArg("id", session.String()))
}
