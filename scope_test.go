package evtrc

import (
	"io"
	"testing"
	"time"

	"github.com/evtrc/evtrc/internal/evdiag"
)

func TestScopeEmitsEnd(t *testing.T) {
	tl := newWithCapacity(16)
	rec := &chunkRecorder{}
	tl.SetOutputCallback(rec.Write)

	reg := NewRegistry()
	p := reg.Get("c")

	s := NewScope(tl, p, "e")
	tl.AddEvent(PhaseBegin, p.Name(), "e", 0, FlagNone, EventIDNone, 0)
	s.Close()

	tl.Flush()

	events := parseEvents(t, rec.all())
	if want, have := 2, len(events); want != have {
		t.Fatalf("events: want %d, have %d", want, have)
	}
	if want, have := "B", events[0]["ph"]; want != have {
		t.Errorf("first ph: want %v, have %v", want, have)
	}
	if want, have := "E", events[1]["ph"]; want != have {
		t.Errorf("second ph: want %v, have %v", want, have)
	}
	if want, have := events[0]["name"], events[1]["name"]; want != have {
		t.Errorf("names differ: %v vs %v", want, have)
	}
}

func TestScopeDisabledAtClose(t *testing.T) {
	tl := newWithCapacity(16)

	reg := NewRegistry()
	p := reg.Get("c")

	s := NewScope(tl, p, "e")
	tl.AddEvent(PhaseBegin, p.Name(), "e", 0, FlagNone, EventIDNone, 0)

	// The proxy is live: disabling the category between construction and
	// close suppresses the END.
	reg.SetEnabled("-c")
	s.Close()

	if want, have := 1, tl.EventCount(); want != have {
		t.Errorf("events: want %d, have %d", want, have)
	}
}

func TestScopeCloseIdempotent(t *testing.T) {
	tl := newWithCapacity(16)

	reg := NewRegistry()
	p := reg.Get("c")

	s := NewScope(tl, p, "e")
	s.Close()
	s.Close()

	if want, have := 1, tl.EventCount(); want != have {
		t.Errorf("events: want %d, have %d", want, have)
	}
}

func TestThresholdScope(t *testing.T) {
	t.Run("held past threshold", func(t *testing.T) {
		tc := installTestClock(t)
		tl := newWithCapacity(16)
		rec := &chunkRecorder{}
		tl.SetOutputCallback(rec.Write)

		reg := NewRegistry()
		p := reg.Get("c")

		s := NewThresholdScope(tl, p, "e", 42*time.Microsecond)
		s.SetBeginID(tl.AddEvent(PhaseBegin, p.Name(), "e", 0, FlagNone, EventIDNone, 0))

		tc.advance(42 * time.Microsecond)
		s.Close()

		tl.Flush()
		events := parseEvents(t, rec.all())
		if want, have := 2, len(events); want != have {
			t.Fatalf("events: want %d, have %d", want, have)
		}
	})

	t.Run("released early", func(t *testing.T) {
		tc := installTestClock(t)
		tl := newWithCapacity(16)
		rec := &chunkRecorder{}
		tl.SetOutputCallback(rec.Write)

		reg := NewRegistry()
		p := reg.Get("c")

		s := NewThresholdScope(tl, p, "e", 42*time.Microsecond)
		s.SetBeginID(tl.AddEvent(PhaseBegin, p.Name(), "e", 0, FlagNone, EventIDNone, 0))

		tc.advance(40 * time.Microsecond)
		s.Close()

		tl.Flush()
		if events := parseEvents(t, rec.all()); len(events) != 0 {
			t.Errorf("want no events, have %v", events)
		}
	})
}

func TestScopeSwallowsRecordFailure(t *testing.T) {
	// Quiet the diagnostic channel for the duration.
	out := evdiag.Logger().Out
	evdiag.SetOutput(io.Discard)
	defer evdiag.SetOutput(out)

	reg := NewRegistry()
	p := reg.Get("c")

	// A nil log makes the recording path panic; Close must not.
	s := NewScope(nil, p, "e")
	s.Close()
}
