package evtrc

import (
	"strings"
	"testing"
	"unsafe"
)

func TestStorageBuilder(t *testing.T) {
	t.Parallel()

	var sb storageBuilder
	sb.reserve(len("alpha"))
	sb.reserve(len("beta"))
	sb.alloc()

	a := sb.placeString("alpha")
	b := sb.placeString("beta")

	if want, have := "alpha", a; want != have {
		t.Errorf("want %q, have %q", want, have)
	}
	if want, have := "beta", b; want != have {
		t.Errorf("want %q, have %q", want, have)
	}

	// Both strings are NUL terminated inside one buffer.
	if want, have := "alpha\x00beta\x00", string(sb.buf); want != have {
		t.Errorf("buffer: want %q, have %q", want, have)
	}
}

func TestDeepCopyIdentity(t *testing.T) {
	t.Parallel()

	src := "source"

	var sb storageBuilder
	sb.reserve(len(src))
	sb.alloc()
	out := sb.placeString(src)

	if want, have := len(src), len(out); want != have {
		t.Errorf("len: want %d, have %d", want, have)
	}
	if want, have := src, out; want != have {
		t.Errorf("contents: want %q, have %q", want, have)
	}
	if unsafe.StringData(src) == unsafe.StringData(out) {
		t.Errorf("copy aliases the source")
	}
}

func TestBorrowedIngestionPreservesAddress(t *testing.T) {
	t.Parallel()

	tl := newWithCapacity(16)
	value := "static-ish"

	tl.AddEvent(PhaseInstant, "c", "e", 0, FlagNone, EventIDNone, 0, StringArg("k", value))

	stored, ok := tl.events[0].args[0].value.AsString()
	if !ok {
		t.Fatalf("arg is not a string")
	}
	if unsafe.StringData(stored) != unsafe.StringData(value) {
		t.Errorf("borrowed string was copied")
	}
}

func TestCopyArgSurvivesSourceMutation(t *testing.T) {
	t.Parallel()

	tl := newWithCapacity(16)
	rec := &chunkRecorder{}
	tl.SetOutputCallback(rec.Write)

	src := []byte("v")
	tl.AddEvent(PhaseBegin, "c", "e", 0, FlagNone, EventIDNone, 0, CopyBytesArg("k", src))
	src[0] = 'X'

	tl.Flush()

	if want, have := `"args":{"k":"v"}`, rec.all(); !strings.Contains(have, want) {
		t.Errorf("want substring %q, have %q", want, have)
	}
}

func TestCopyStringArgReboundToStorage(t *testing.T) {
	t.Parallel()

	tl := newWithCapacity(16)

	tl.AddEvent(PhaseBegin, "c", "e", 0, FlagNone, EventIDNone, 0, CopyStringArg("key", "value"))

	ev := &tl.events[0]
	if ev.storage == nil {
		t.Fatalf("no owned storage allocated")
	}
	// Name and value views point into the storage buffer, NUL terminated.
	if want, have := "key\x00value\x00", string(ev.storage); want != have {
		t.Errorf("storage: want %q, have %q", want, have)
	}
	name := ev.args[0].name
	if unsafe.StringData(name) != &ev.storage[0] {
		t.Errorf("arg name does not alias storage")
	}
	stored, _ := ev.args[0].value.AsString()
	if want, have := "value", stored; want != have {
		t.Errorf("value: want %q, have %q", want, have)
	}
	if unsafe.StringData(stored) != &ev.storage[len("key\x00")] {
		t.Errorf("arg value does not alias storage")
	}
}

func TestMixedArgsSingleAllocation(t *testing.T) {
	t.Parallel()

	tl := newWithCapacity(16)

	tl.AddEvent(PhaseBegin, "c", "e", 0, FlagNone, EventIDNone, 0,
		StringArg("static", "borrowed"),
		CopyStringArg("dyn", "copied"),
		Int64Arg("n", 1),
	)

	ev := &tl.events[0]
	if want, have := "dyn\x00copied\x00", string(ev.storage); want != have {
		t.Errorf("storage holds only the copy-marked strings: want %q, have %q", want, have)
	}
	if want, have := 3, len(ev.Args()); want != have {
		t.Errorf("args: want %d, have %d", want, have)
	}
}
