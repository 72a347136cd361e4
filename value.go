package evtrc

import (
	"math"
	"strconv"
)

type valueKind uint8

const (
	kindNone valueKind = iota
	kindBool
	kindUint64
	kindInt64
	kindFloat64
	kindString
	kindPointer
)

// Value is the tagged variant carried by event arguments. A Value holds
// one of: nothing, a bool, a uint64, an int64, a float64, a borrowed
// string, or an opaque pointer. The zero Value is empty.
//
// String values borrow: a Value stores only the string header, and the
// bytes must remain valid for the lifetime of the containing event. When
// the string originates from a copy-marked argument, the header is rebound
// to the event's owned storage before the Value is stored.
type Value struct {
	kind valueKind
	bits uint64 // bool, uint64, int64, float64, and pointer payloads
	str  string
}

type unsignedInteger interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

type signedInteger interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// UintValue returns a Value holding any unsigned integer, widened to
// uint64.
func UintValue[T unsignedInteger](v T) Value {
	return Value{kind: kindUint64, bits: uint64(v)}
}

// IntValue returns a Value holding any signed integer, widened to int64.
func IntValue[T signedInteger](v T) Value {
	return Value{kind: kindInt64, bits: uint64(int64(v))}
}

// BoolValue returns a Value holding a bool.
func BoolValue(v bool) Value {
	var bits uint64
	if v {
		bits = 1
	}
	return Value{kind: kindBool, bits: bits}
}

// Float64Value returns a Value holding a float64.
func Float64Value(v float64) Value {
	return Value{kind: kindFloat64, bits: math.Float64bits(v)}
}

// StringValue returns a Value borrowing the given string.
func StringValue(s string) Value {
	return Value{kind: kindString, str: s}
}

// PointerValue returns a Value holding an opaque pointer address.
func PointerValue(addr uintptr) Value {
	return Value{kind: kindPointer, bits: uint64(addr)}
}

// Empty reports whether the Value holds nothing.
func (v Value) Empty() bool {
	return v.kind == kindNone
}

// AsBool returns the bool payload, if present.
func (v Value) AsBool() (bool, bool) {
	return v.bits != 0, v.kind == kindBool
}

// AsUint64 returns the uint64 payload, if present.
func (v Value) AsUint64() (uint64, bool) {
	return v.bits, v.kind == kindUint64
}

// AsInt64 returns the int64 payload, if present.
func (v Value) AsInt64() (int64, bool) {
	return int64(v.bits), v.kind == kindInt64
}

// AsFloat64 returns the float64 payload, if present.
func (v Value) AsFloat64() (float64, bool) {
	return math.Float64frombits(v.bits), v.kind == kindFloat64
}

// AsString returns the string payload, if present.
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == kindString
}

// AsPointer returns the pointer payload, if present.
func (v Value) AsPointer() (uintptr, bool) {
	return uintptr(v.bits), v.kind == kindPointer
}

// appendJSON appends the JSON rendering of the value. Numbers are decimal,
// floats use the shortest representation that round-trips, strings are
// quoted and escaped, pointers become quoted hex addresses, and the empty
// value is the literal null. A nil pointer is also null.
func (v Value) appendJSON(buf []byte) []byte {
	switch v.kind {
	case kindBool:
		return strconv.AppendBool(buf, v.bits != 0)
	case kindUint64:
		return strconv.AppendUint(buf, v.bits, 10)
	case kindInt64:
		return strconv.AppendInt(buf, int64(v.bits), 10)
	case kindFloat64:
		return strconv.AppendFloat(buf, math.Float64frombits(v.bits), 'g', -1, 64)
	case kindString:
		buf = append(buf, '"')
		buf = appendEscaped(buf, v.str)
		return append(buf, '"')
	case kindPointer:
		if v.bits == 0 {
			return append(buf, "null"...)
		}
		buf = append(buf, `"0x`...)
		buf = strconv.AppendUint(buf, v.bits, 16)
		return append(buf, '"')
	default:
		return append(buf, "null"...)
	}
}
