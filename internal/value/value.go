// Package value implements the ECMAScript value model: the tagged
// primitive/object union (spec §3.1) and the abstract conversion ladder
// (spec §4.2, "Value & Conversion").
package value

import (
	"fmt"
	"math"
)

// Tag discriminates the members of the Value union. Kept small and
// dense so it coexists with other header bits the object package packs
// alongside it (spec §9, "keep the kind tag small").
type Tag uint8

const (
	TagUndefined Tag = iota
	TagNull
	TagBoolean
	TagInt32
	TagFloat64
	TagBigInt
	TagString
	TagSymbol
	TagObject
)

func (t Tag) String() string {
	switch t {
	case TagUndefined:
		return "undefined"
	case TagNull:
		return "null"
	case TagBoolean:
		return "boolean"
	case TagInt32:
		return "int32"
	case TagFloat64:
		return "float64"
	case TagBigInt:
		return "bigint"
	case TagString:
		return "string"
	case TagSymbol:
		return "symbol"
	case TagObject:
		return "object"
	default:
		return "unknown"
	}
}

// HeapRef is an opaque handle into the garbage-collected heap (see
// internal/heap). Value does not know the concrete shape of what it
// points at; that is the heap's and object package's job.
type HeapRef uint32

// Value is the tagged union described by spec §3.1. Integer32 and
// Float64 never both represent the same externally observable
// mathematical value; ToNumber picks the narrower representation only
// as a performance optimization, never as an externally visible choice.
type Value struct {
	tag  Tag
	b    bool
	i32  int32
	f64  float64
	heap HeapRef
}

// Undefined, Null and booleans are stack values with no heap reference.
var (
	Undefined = Value{tag: TagUndefined}
	Null      = Value{tag: TagNull}
	True      = Value{tag: TagBoolean, b: true}
	False     = Value{tag: TagBoolean, b: false}
)

// Bool returns the canonical True/False value for b.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Int32 constructs a narrow integer value.
func Int32(i int32) Value { return Value{tag: TagInt32, i32: i} }

// Float64 constructs a double value, canonicalizing every NaN bit
// pattern to a single representation (spec §3.1 invariant).
func Float64(f float64) Value {
	if math.IsNaN(f) {
		f = math.NaN()
	}
	return Value{tag: TagFloat64, f64: f}
}

// Number picks the narrowest representation for a mathematical number,
// matching the "performance only" liberty spec §3.1 grants: a value
// that fits exactly in int32 without losing -0 distinguishability is
// stored as Int32.
func Number(f float64) Value {
	if f == 0 && math.Signbit(f) {
		return Float64(f) // -0 must not collapse into Int32(0)
	}
	if i := int32(f); float64(i) == f {
		return Int32(i)
	}
	return Float64(f)
}

// HeapValue wraps a heap reference under the given tag (String, Symbol,
// BigInt, or Object).
func HeapValue(tag Tag, ref HeapRef) Value {
	return Value{tag: tag, heap: ref}
}

// Tag reports the discriminant of v.
func (v Value) Tag() Tag { return v.tag }

// IsUndefined, IsNull, IsNullish report primitive-flavor predicates used
// pervasively by the bytecode (JumpIfNullOrUndefined, GetNameOrUndefined).
func (v Value) IsUndefined() bool { return v.tag == TagUndefined }
func (v Value) IsNull() bool      { return v.tag == TagNull }
func (v Value) IsNullish() bool   { return v.tag == TagUndefined || v.tag == TagNull }
func (v Value) IsObject() bool    { return v.tag == TagObject }
func (v Value) IsString() bool    { return v.tag == TagString }
func (v Value) IsSymbol() bool    { return v.tag == TagSymbol }
func (v Value) IsBigInt() bool    { return v.tag == TagBigInt }
func (v Value) IsNumber() bool    { return v.tag == TagInt32 || v.tag == TagFloat64 }
func (v Value) IsBoolean() bool   { return v.tag == TagBoolean }

// AsBool returns the boolean payload; callers must guard with IsBoolean.
func (v Value) AsBool() bool { return v.b }

// AsFloat64 widens an Int32/Float64 value to float64; callers must
// guard with IsNumber.
func (v Value) AsFloat64() float64 {
	if v.tag == TagInt32 {
		return float64(v.i32)
	}
	return v.f64
}

// AsInt32 returns the Int32 payload directly; callers must guard with
// `v.Tag() == TagInt32`.
func (v Value) AsInt32() int32 { return v.i32 }

// Ref returns the heap handle for String/Symbol/BigInt/Object values;
// callers must guard with the matching Is* predicate.
func (v Value) Ref() HeapRef { return v.heap }

func (v Value) GoString() string {
	switch v.tag {
	case TagUndefined:
		return "undefined"
	case TagNull:
		return "null"
	case TagBoolean:
		return fmt.Sprintf("%v", v.b)
	case TagInt32:
		return fmt.Sprintf("%d", v.i32)
	case TagFloat64:
		return fmt.Sprintf("%g", v.f64)
	default:
		return fmt.Sprintf("%s(#%d)", v.tag, v.heap)
	}
}
