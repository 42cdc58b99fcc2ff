package value

import (
	"math"
	"strconv"
	"strings"
)

// StringHeap abstracts the string-heap operations conversions need
// without value importing internal/object (which itself imports
// value) — internal/object.NewRuntime wires one in.
type StringHeap interface {
	Intern(s string) HeapRef
	Lookup(ref HeapRef) string
}

// ToPrimitiveFunc performs the object-dependent half of ToPrimitive
// (spec §4.2): call Symbol.toPrimitive / valueOf / toString on an
// object. It is nil until internal/object registers itself via
// RegisterObjectHost, breaking the value<->object import cycle the way
// the teacher's own provider/registry indirection breaks the
// core<->language cycle (internal/registry/registry.go).
var ToPrimitiveFunc func(v Value, hint string) (Value, error)

// ToObjectFunc boxes a primitive or returns an object unchanged;
// registered by internal/object.
var ToObjectFunc func(v Value) (Value, error)

var strings_ StringHeap

// RegisterObjectHost wires the object package's primitive-conversion
// hooks and string heap into the value package. Called from
// internal/object.NewRuntime each time a Runtime is built.
func RegisterObjectHost(toPrimitive func(Value, string) (Value, error), toObject func(Value) (Value, error), sh StringHeap) {
	ToPrimitiveFunc = toPrimitive
	ToObjectFunc = toObject
	strings_ = sh
}

// ToBoolean implements spec ToBoolean: every value is truthy except
// undefined, null, false, +0, -0, NaN, the empty string, and 0n.
func ToBoolean(v Value) bool {
	switch v.tag {
	case TagUndefined, TagNull:
		return false
	case TagBoolean:
		return v.b
	case TagInt32:
		return v.i32 != 0
	case TagFloat64:
		return v.f64 != 0 && !math.IsNaN(v.f64)
	case TagString:
		return strings_.Lookup(v.heap) != ""
	case TagBigInt:
		if bigints_ != nil {
			if bi := bigints_.LookupBigInt(v.heap); bi != nil {
				return bi.Sign() != 0
			}
		}
		return true
	default:
		return true // Symbol, Object are always truthy
	}
}

// ToNumber implements spec ToNumber.
func ToNumber(v Value) (Value, error) {
	switch v.tag {
	case TagUndefined:
		return Float64(math.NaN()), nil
	case TagNull:
		return Int32(0), nil
	case TagBoolean:
		if v.b {
			return Int32(1), nil
		}
		return Int32(0), nil
	case TagInt32, TagFloat64:
		return v, nil
	case TagString:
		return stringToNumber(strings_.Lookup(v.heap)), nil
	case TagObject:
		prim, err := ToPrimitiveFunc(v, "number")
		if err != nil {
			return Value{}, err
		}
		if prim.tag == TagObject {
			return Float64(math.NaN()), nil
		}
		return ToNumber(prim)
	default:
		return Value{}, &TypeError{Message: "Cannot convert " + v.tag.String() + " to a number"}
	}
}

func stringToNumber(s string) Value {
	t := strings.TrimSpace(s)
	if t == "" {
		return Int32(0)
	}
	if t == "Infinity" || t == "+Infinity" {
		return Float64(math.Inf(1))
	}
	if t == "-Infinity" {
		return Float64(math.Inf(-1))
	}
	if strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X") {
		if i, err := strconv.ParseInt(t[2:], 16, 64); err == nil {
			return Number(float64(i))
		}
		return Float64(math.NaN())
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return Float64(math.NaN())
	}
	return Number(f)
}

// ToInt32 implements spec ToInt32: ToNumber, then modulo-2^32, wrapped
// into the signed range.
func ToInt32(v Value) (int32, error) {
	n, err := ToNumber(v)
	if err != nil {
		return 0, err
	}
	f := n.AsFloat64()
	if math.IsNaN(f) || math.IsInf(f, 0) || f == 0 {
		return 0, nil
	}
	m := math.Mod(math.Trunc(f), 4294967296)
	if m < 0 {
		m += 4294967296
	}
	u := uint32(m)
	return int32(u), nil
}

// ToUint32 implements spec ToUint32.
func ToUint32(v Value) (uint32, error) {
	n, err := ToNumber(v)
	if err != nil {
		return 0, err
	}
	f := n.AsFloat64()
	if math.IsNaN(f) || math.IsInf(f, 0) || f == 0 {
		return 0, nil
	}
	m := math.Mod(math.Trunc(f), 4294967296)
	if m < 0 {
		m += 4294967296
	}
	return uint32(m), nil
}

// ToInteger implements the legacy ToInteger (truncate toward zero,
// NaN->0, infinities preserved via clamping callers apply downstream).
func ToInteger(v Value) (float64, error) {
	n, err := ToNumber(v)
	if err != nil {
		return 0, err
	}
	f := n.AsFloat64()
	if math.IsNaN(f) {
		return 0, nil
	}
	return math.Trunc(f), nil
}

// ToIntegerOrInfinity implements spec ToIntegerOrInfinity: like
// ToInteger but infinities pass through unclamped.
func ToIntegerOrInfinity(v Value) (float64, error) {
	n, err := ToNumber(v)
	if err != nil {
		return 0, err
	}
	f := n.AsFloat64()
	if math.IsNaN(f) {
		return 0, nil
	}
	if math.IsInf(f, 0) {
		return f, nil
	}
	return math.Trunc(f), nil
}

const maxSafeInteger = 1<<53 - 1

// ToLength implements spec ToLength: clamp ToIntegerOrInfinity into
// [0, 2^53-1].
func ToLength(v Value) (int64, error) {
	f, err := ToIntegerOrInfinity(v)
	if err != nil {
		return 0, err
	}
	if f <= 0 {
		return 0, nil
	}
	if f > maxSafeInteger {
		return maxSafeInteger, nil
	}
	return int64(f), nil
}

// ToIndex implements spec ToIndex: like ToLength but rejects negative
// integers with a RangeError instead of clamping to zero.
func ToIndex(v Value) (int64, error) {
	f, err := ToIntegerOrInfinity(v)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, &RangeError{Message: "index out of range"}
	}
	if f > maxSafeInteger {
		return 0, &RangeError{Message: "index out of range"}
	}
	return int64(f), nil
}

// ToStringValue implements spec ToString, returning a heap String
// value (not a Go string) so callers keep working in Value-space.
func ToStringValue(v Value) (Value, error) {
	switch v.tag {
	case TagString:
		return v, nil
	case TagUndefined:
		return internString("undefined"), nil
	case TagNull:
		return internString("null"), nil
	case TagBoolean:
		if v.b {
			return internString("true"), nil
		}
		return internString("false"), nil
	case TagInt32:
		return internString(strconv.FormatInt(int64(v.i32), 10)), nil
	case TagFloat64:
		return internString(formatFloat(v.f64)), nil
	case TagSymbol:
		return Value{}, &TypeError{Message: "Cannot convert a Symbol value to a string"}
	case TagObject:
		prim, err := ToPrimitiveFunc(v, "string")
		if err != nil {
			return Value{}, err
		}
		if prim.tag == TagObject {
			return Value{}, &TypeError{Message: "Cannot convert object to primitive value"}
		}
		return ToStringValue(prim)
	default:
		return Value{}, &TypeError{Message: "Cannot convert " + v.tag.String() + " to a string"}
	}
}

func internString(s string) Value {
	return HeapValue(TagString, strings_.Intern(s))
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// ToObject implements spec ToObject: boxes primitives, throws on
// undefined/null, and returns objects unchanged. Delegated to the
// object package since it must allocate a heap wrapper object.
func ToObject(v Value) (Value, error) {
	if v.tag == TagUndefined || v.tag == TagNull {
		return Value{}, &TypeError{Message: "Cannot convert undefined or null to object"}
	}
	return ToObjectFunc(v)
}

// ToPropertyKey implements spec ToPropertyKey: a string, a symbol, or
// (per internal §3.3) a 32-bit array index packed into a string key by
// the object package's key normalization.
func ToPropertyKey(v Value) (Value, error) {
	if v.tag == TagSymbol {
		return v, nil
	}
	if v.tag == TagObject {
		prim, err := ToPrimitiveFunc(v, "string")
		if err != nil {
			return Value{}, err
		}
		v = prim
	}
	if v.tag == TagSymbol {
		return v, nil
	}
	return ToStringValue(v)
}

// ToPrimitive implements spec ToPrimitive(hint); hint is one of
// "default", "string", "number".
func ToPrimitive(v Value, hint string) (Value, error) {
	if v.tag != TagObject {
		return v, nil
	}
	return ToPrimitiveFunc(v, hint)
}
