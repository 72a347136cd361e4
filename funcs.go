package evtrc

import (
	"math/rand"
	"sync/atomic"
	"time"
)

var defaultLog = New()

// Default returns the process-wide trace log used by the package-level
// functions. It exists for the life of the process.
func Default() *TraceLog {
	return defaultLog
}

// SetOutputCallback installs the sink on the process-wide log.
func SetOutputCallback(cb OutputCallback) {
	defaultLog.SetOutputCallback(cb)
}

// SetEnabled flips the process-wide log's master recording switch.
func SetEnabled(enabled bool) {
	defaultLog.SetEnabled(enabled)
}

// BeginLogging starts a logging session on the process-wide log.
func BeginLogging() {
	defaultLog.BeginLogging()
}

// EndLogging emits the document epilogue on the process-wide log.
func EndLogging() {
	defaultLog.EndLogging()
}

// Flush flushes the process-wide log.
func Flush() {
	defaultLog.Flush()
}

// AddThreadNameMetadataEvents emits thread-name metadata on the
// process-wide log.
func AddThreadNameMetadataEvents() {
	defaultLog.AddThreadNameMetadataEvents()
}

// AddEvent records one event on the process-wide log.
func AddEvent(phase Phase, category, name string, traceID uint64, flags Flag,
	thresholdBeginID int32, threshold time.Duration, args ...Arg) int32 {
	return defaultLog.AddEvent(phase, category, name, traceID, flags, thresholdBeginID, threshold, args...)
}

//
//
//

// gate resolves the category proxy and reports whether the site should
// record: the log's master switch and the category's enable bit must both
// be on.
func gate(category string) (Proxy, bool) {
	p := GetCategory(category)
	if !defaultLog.IsEnabled() || !p.Enabled() {
		return p, false
	}
	return p, true
}

// Begin records a BEGIN event and returns its event id, or EventIDNone if
// the category or the log is disabled.
func Begin(category, name string, args ...Arg) int32 {
	p, ok := gate(category)
	if !ok {
		return EventIDNone
	}
	return defaultLog.AddEvent(PhaseBegin, p.Name(), name, 0, FlagNone, EventIDNone, 0, args...)
}

// End records an END event.
func End(category, name string, args ...Arg) {
	if p, ok := gate(category); ok {
		defaultLog.AddEvent(PhaseEnd, p.Name(), name, 0, FlagNone, EventIDNone, 0, args...)
	}
}

// Instant records an INSTANT event.
func Instant(category, name string, args ...Arg) {
	if p, ok := gate(category); ok {
		defaultLog.AddEvent(PhaseInstant, p.Name(), name, 0, FlagNone, EventIDNone, 0, args...)
	}
}

// Counter records the current value of the named counter.
func Counter(category, name string, value int64) {
	if p, ok := gate(category); ok {
		defaultLog.AddEvent(PhaseCounter, p.Name(), name, 0, FlagNone, EventIDNone, 0,
			Int64Arg("value", value))
	}
}

// CounterID records a counter disambiguated by id, for programs running
// several counters under one name.
func CounterID(category, name string, id uint64, value int64) {
	if p, ok := gate(category); ok {
		defaultLog.AddEvent(PhaseCounter, p.Name(), name, id, FlagHasID, EventIDNone, 0,
			Int64Arg("value", value))
	}
}

// AsyncBegin records the start of an asynchronous operation. All events of
// one operation share the same name and id; the id is emitted so the
// viewer can join the phases.
func AsyncBegin(category, name string, id uint64, args ...Arg) {
	if p, ok := gate(category); ok {
		defaultLog.AddEvent(PhaseAsyncBegin, p.Name(), name, id, FlagHasID, EventIDNone, 0, args...)
	}
}

// AsyncStep records the transition of an asynchronous operation into the
// named step.
func AsyncStep(category, name string, id uint64, step string) {
	if p, ok := gate(category); ok {
		defaultLog.AddEvent(PhaseAsyncStep, p.Name(), name, id, FlagHasID, EventIDNone, 0,
			CopyStringArg("step", step))
	}
}

// AsyncEnd records the completion of an asynchronous operation.
func AsyncEnd(category, name string, id uint64, args ...Arg) {
	if p, ok := gate(category); ok {
		defaultLog.AddEvent(PhaseAsyncEnd, p.Name(), name, id, FlagHasID, EventIDNone, 0, args...)
	}
}

// Span records a BEGIN event and returns the scope whose Close emits the
// paired END:
//
//	defer evtrc.Span("render", "frame").Close()
func Span(category, name string, args ...Arg) *Scope {
	p, ok := gate(category)
	s := NewScope(defaultLog, p, name)
	if ok {
		defaultLog.AddEvent(PhaseBegin, p.Name(), name, 0, FlagNone, EventIDNone, 0, args...)
	}
	return s
}

// SpanMin records a BEGIN event and returns a thresholded scope: the
// BEGIN/END pair survives only if the span lasts at least min.
func SpanMin(category, name string, min time.Duration) *Scope {
	p, ok := gate(category)
	s := NewThresholdScope(defaultLog, p, name, min)
	if ok {
		s.SetBeginID(defaultLog.AddEvent(PhaseBegin, p.Name(), name, 0, FlagNone, EventIDNone, 0))
	}
	return s
}

//
//
//

var (
	traceIDSeed    = rand.Uint64()
	traceIDCounter atomic.Uint64
)

// NextTraceID returns a process-unique id for flow or async events: a
// random per-process seed XORed with a counter, so ids are unlikely to
// collide across processes without any coordination.
func NextTraceID() uint64 {
	return traceIDSeed ^ traceIDCounter.Add(1)
}

// PointerTraceID derives a trace id from a pointer address, with the
// flags that emit it mangled: the same address on two different processes
// maps to different ids in the merged trace.
func PointerTraceID(addr uintptr) (uint64, Flag) {
	return uint64(addr), FlagHasID | FlagMangleID
}
