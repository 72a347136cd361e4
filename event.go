package evtrc

import (
	"fmt"
	"strconv"
	"time"
)

// Phase identifies the nature of an event entry, using the single
// character codes consumed by the Chrome trace viewer.
type Phase byte

const (
	PhaseBegin      Phase = 'B' // duration span begin
	PhaseEnd        Phase = 'E' // duration span end
	PhaseComplete   Phase = 'X' // complete event with duration
	PhaseInstant    Phase = 'I' // instant event
	PhaseAsyncBegin Phase = 'S' // async operation start
	PhaseAsyncStep  Phase = 'T' // async operation step
	PhaseAsyncEnd   Phase = 'F' // async operation finish
	PhaseMetadata   Phase = 'M' // metadata event
	PhaseCounter    Phase = 'C' // counter event
)

// Flag is a bitset of per-event options.
type Flag uint8

const (
	FlagNone Flag = 0

	// FlagHasID emits the event's trace id in the JSON output.
	FlagHasID Flag = 1 << 0

	// FlagMangleID XORs the trace id with a hash of the process id before
	// recording, so the same pointer used as an id on two different
	// processes is unlikely to collide.
	FlagMangleID Flag = 1 << 1
)

// Arg is one name/value argument pair attached to an event. Construct
// args with the package Arg constructors; the zero Arg marks an unused
// slot. Names and string values are borrowed unless the constructor marks
// them for deep copy, in which case the recording path copies the bytes
// into the event's owned storage before the event is stored.
type Arg struct {
	name      string
	value     Value
	nameCopy  bool
	valueCopy bool
	valueRaw  []byte // copy-marked value bytes, resolved at ingestion
}

// StringArg returns an Arg whose name and value strings are borrowed.
// Both must remain valid beyond the lifetime of the event, which in
// practice means string literals or other program-lifetime storage.
func StringArg(name, value string) Arg {
	return Arg{name: name, value: StringValue(value)}
}

// CopyStringArg returns an Arg whose name and value bytes are deep-copied
// into the event's owned storage, for strings built on the fly.
func CopyStringArg(name, value string) Arg {
	return Arg{name: name, value: StringValue(value), nameCopy: true, valueCopy: true}
}

// CopyBytesArg returns an Arg with a borrowed name and a string value
// deep-copied from the given bytes. The caller may reuse the byte slice as
// soon as the recording call returns.
func CopyBytesArg(name string, value []byte) Arg {
	return Arg{name: name, valueCopy: true, valueRaw: value}
}

// Uint64Arg returns an Arg holding an unsigned integer value.
func Uint64Arg(name string, value uint64) Arg {
	return Arg{name: name, value: UintValue(value)}
}

// Int64Arg returns an Arg holding a signed integer value.
func Int64Arg(name string, value int64) Arg {
	return Arg{name: name, value: IntValue(value)}
}

// BoolArg returns an Arg holding a bool value.
func BoolArg(name string, value bool) Arg {
	return Arg{name: name, value: BoolValue(value)}
}

// Float64Arg returns an Arg holding a float64 value.
func Float64Arg(name string, value float64) Arg {
	return Arg{name: name, value: Float64Value(value)}
}

// PointerArg returns an Arg holding an opaque pointer address.
func PointerArg(name string, addr uintptr) Arg {
	return Arg{name: name, value: PointerValue(addr)}
}

// ValueArg returns an Arg with a borrowed name and a pre-built Value.
func ValueArg(name string, value Value) Arg {
	return Arg{name: name, value: value}
}

// Name returns the argument name.
func (a Arg) Name() string { return a.name }

// Value returns the argument value.
func (a Arg) Value() Value { return a.value }

//
//
//

// Event is the immutable record of a single trace point. Events are
// created by the recording paths of TraceLog and retained in its buffer
// until flushed. Category, name, and argument strings either reference
// program-lifetime storage supplied by the caller, or the event's own
// storage buffer; in both cases they remain valid as long as the event.
type Event struct {
	args      [MaxArgs]Arg
	category  string
	name      string
	tid       uint64
	ts        time.Duration
	traceID   uint64
	storage   []byte
	phase     Phase
	flags     Flag
	discarded bool
}

// Timestamp returns the event's clock timestamp.
func (ev *Event) Timestamp() time.Duration { return ev.ts }

// Phase returns the event's phase code.
func (ev *Event) Phase() Phase { return ev.phase }

// Category returns the event's category name.
func (ev *Event) Category() string { return ev.category }

// Name returns the event name.
func (ev *Event) Name() string { return ev.name }

// TraceID returns the recorded trace id, after any mangling.
func (ev *Event) TraceID() uint64 { return ev.traceID }

// ThreadID returns the id of the thread that recorded the event.
func (ev *Event) ThreadID() uint64 { return ev.tid }

// Args returns the filled argument slots, in insertion order.
func (ev *Event) Args() []Arg {
	for i := range ev.args {
		if ev.args[i].name == "" {
			return ev.args[:i]
		}
	}
	return ev.args[:]
}

// AppendJSON appends the event as one JSON object, followed by a comma and
// newline, in the exact shape consumed by the Chrome trace viewer:
//
//	{"cat":"c","pid":1,"tid":2,"ph":"B","ts":0,"name":"e","args":{...},"id":"0x0000002A"},
//
// The args object is present iff at least one argument slot is filled, and
// emission stops at the first empty slot. The id field is present iff
// FlagHasID is set. The process id is owned by the log, not the event, so
// it is supplied by the caller.
func (ev *Event) AppendJSON(buf []byte, pid int) []byte {
	buf = append(buf, `{"cat":"`...)
	buf = appendEscaped(buf, ev.category)
	buf = append(buf, `","pid":`...)
	buf = strconv.AppendInt(buf, int64(pid), 10)
	buf = append(buf, `,"tid":`...)
	buf = strconv.AppendUint(buf, ev.tid, 10)
	buf = append(buf, `,"ph":"`...)
	buf = append(buf, byte(ev.phase))
	buf = append(buf, `","ts":`...)
	buf = strconv.AppendInt(buf, ev.ts.Nanoseconds(), 10)
	buf = append(buf, `,"name":"`...)
	buf = appendEscaped(buf, ev.name)
	buf = append(buf, '"')

	if ev.args[0].name != "" {
		buf = append(buf, `,"args":{`...)
		for i := range ev.args {
			if ev.args[i].name == "" {
				break
			}
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = append(buf, '"')
			buf = appendEscaped(buf, ev.args[i].name)
			buf = append(buf, `":`...)
			buf = ev.args[i].value.appendJSON(buf)
		}
		buf = append(buf, '}')
	}

	if ev.flags&FlagHasID != 0 {
		buf = append(buf, `,"id":"`...)
		buf = fmt.Appendf(buf, "0x%08X", ev.traceID)
		buf = append(buf, '"')
	}

	return append(buf, '}', ',', '\n')
}

// appendEscaped appends s with JSON string escaping: the short escapes for
// quote, backslash, backspace, form feed, newline, carriage return, and
// tab; \uXXXX with uppercase hex for the remaining control characters.
// Forward slashes are not escaped. Bytes above 0x1F pass through, which
// keeps multi-byte UTF-8 sequences intact.
func appendEscaped(buf []byte, s string) []byte {
	const hexDigits = "0123456789ABCDEF"
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			buf = append(buf, '\\', '"')
		case '\\':
			buf = append(buf, '\\', '\\')
		case '\b':
			buf = append(buf, '\\', 'b')
		case '\f':
			buf = append(buf, '\\', 'f')
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\r':
			buf = append(buf, '\\', 'r')
		case '\t':
			buf = append(buf, '\\', 't')
		default:
			if c < 0x20 {
				buf = append(buf, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
			} else {
				buf = append(buf, c)
			}
		}
	}
	return buf
}
