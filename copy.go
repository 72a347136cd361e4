package evtrc

import "unsafe"

// storageBuilder assembles the owned storage buffer of a single event: one
// contiguous allocation holding every deep-copied string, each terminated
// by a NUL byte. Callers reserve all strings first, then alloc once, then
// place each string in the same order.
type storageBuilder struct {
	size int
	buf  []byte
	off  int
}

func (sb *storageBuilder) reserve(n int) {
	sb.size += n + 1
}

func (sb *storageBuilder) alloc() {
	if sb.size > 0 {
		sb.buf = make([]byte, sb.size)
	}
}

// placeString copies s into the storage buffer, NUL terminated, and
// returns a string header bound to the copied bytes. The buffer is sized
// exactly during the reserve pass and never reallocates, so the returned
// header stays valid as long as the buffer.
func (sb *storageBuilder) placeString(s string) string {
	n := copy(sb.buf[sb.off:], s)
	sb.buf[sb.off+n] = 0
	out := unsafe.String(&sb.buf[sb.off], n)
	sb.off += n + 1
	return out
}

func (sb *storageBuilder) placeBytes(b []byte) string {
	n := copy(sb.buf[sb.off:], b)
	sb.buf[sb.off+n] = 0
	out := unsafe.String(&sb.buf[sb.off], n)
	sb.off += n + 1
	return out
}

// resolveArgs rewrites the copy-marked parts of args to reference the
// storage buffer. The first empty slot ends the scan.
func resolveArgs(sb *storageBuilder, args *[MaxArgs]Arg) {
	for i := range args {
		a := &args[i]
		if a.name == "" {
			break
		}
		if a.nameCopy {
			a.name = sb.placeString(a.name)
			a.nameCopy = false
		}
		switch {
		case a.valueRaw != nil:
			a.value = StringValue(sb.placeBytes(a.valueRaw))
			a.valueRaw = nil
			a.valueCopy = false
		case a.valueCopy:
			if s, ok := a.value.AsString(); ok {
				a.value = StringValue(sb.placeString(s))
			}
			a.valueCopy = false
		}
	}
}

// reserveArgs accounts for the copy-marked parts of args in the storage
// size. The first empty slot ends the scan.
func reserveArgs(sb *storageBuilder, args *[MaxArgs]Arg) {
	for i := range args {
		a := &args[i]
		if a.name == "" {
			break
		}
		if a.nameCopy {
			sb.reserve(len(a.name))
		}
		switch {
		case a.valueRaw != nil:
			sb.reserve(len(a.valueRaw))
		case a.valueCopy:
			if s, ok := a.value.AsString(); ok {
				sb.reserve(len(s))
			}
		}
	}
}
