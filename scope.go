package evtrc

import (
	"time"

	"github.com/evtrc/evtrc/internal/evdiag"
)

// Scope closes out a duration span: Close emits the paired END event for a
// BEGIN recorded by the instrumentation site. The site checks the category
// proxy, records the BEGIN itself, and hands the begin id to a thresholded
// scope; the scope only guarantees the END on the way out.
//
// Close swallows everything. A failure while emitting the END, including a
// panic out of the recording path, is reported to the diagnostic channel
// and never propagates: scope exit must be safe to run from a defer in any
// state. Close is idempotent; only the first call emits.
//
// A Scope is tied to one lexical region and must not be shared or copied.
type Scope struct {
	log       *TraceLog
	proxy     Proxy
	name      string
	threshold time.Duration
	beginID   int32
	closed    bool
}

// NewScope returns a plain scope for the category and event name. The END
// is emitted unconditionally (no threshold) if the category is enabled
// when Close runs.
func NewScope(log *TraceLog, proxy Proxy, name string) *Scope {
	return &Scope{
		log:     log,
		proxy:   proxy,
		name:    name,
		beginID: EventIDNone,
	}
}

// NewThresholdScope returns a scope whose BEGIN/END pair is kept only when
// the span lasts at least threshold. The site stores the BEGIN's event id
// via SetBeginID; without it the END behaves like a plain scope's.
func NewThresholdScope(log *TraceLog, proxy Proxy, name string, threshold time.Duration) *Scope {
	return &Scope{
		log:       log,
		proxy:     proxy,
		name:      name,
		threshold: threshold,
		beginID:   EventIDNone,
	}
}

// SetBeginID stores the event id returned when the site recorded the
// BEGIN, enabling threshold resolution at Close.
func (s *Scope) SetBeginID(id int32) {
	s.beginID = id
}

// Close emits the END event if the category is enabled at close time.
func (s *Scope) Close() {
	if s.closed {
		return
	}
	s.closed = true

	if !s.proxy.Enabled() {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			evdiag.Errorf("scope %s/%s: recording END failed: %v", s.proxy.Name(), s.name, r)
		}
	}()

	var slots [MaxArgs]Arg
	s.log.record(PhaseEnd, s.proxy.Name(), s.name, 0, FlagNone, s.beginID, s.threshold, nil, &slots)
}
