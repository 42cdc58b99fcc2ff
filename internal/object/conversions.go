package object

import (
	"github.com/oxhq/esengine/internal/heap"
	"github.com/oxhq/esengine/internal/value"
)

// PrimitiveWrapper is the Payload of a Boolean/Number/String/Symbol/
// BigInt wrapper object (spec §4.3 ToObject boxing): it holds the
// boxed primitive and, since that primitive may itself be a heap
// reference (a boxed String, Symbol, or BigInt), traces it so the GC
// doesn't collect out from under the box.
type PrimitiveWrapper struct {
	Value value.Value
}

func (p *PrimitiveWrapper) Kind() heap.Kind       { return heap.KindObject }
func (p *PrimitiveWrapper) Trace(v *heap.Visitor) { markValue(v, p.Value) }

// toPrimitiveSymbolKey stays nil until internal/builtins
// wires the real well-known Symbol.toPrimitive value at Realm
// construction; until then OrdinaryToPrimitive's exotic hook is simply
// never found, which is correct for an object package that doesn't yet
// know any Symbols exist.
var toPrimitiveSymbolKey func() (Key, bool)

// RegisterToPrimitiveSymbol lets internal/builtins tell the object
// package how to look up @@toPrimitive once the Symbol registry
// exists, without object importing builtins.
func RegisterToPrimitiveSymbol(lookup func() (Key, bool)) {
	toPrimitiveSymbolKey = lookup
}

// ToPrimitive implements spec OrdinaryToPrimitive with the
// @@toPrimitive exotic override (spec §4.2): try Symbol.toPrimitive
// first if registered and present, then fall back to the
// valueOf/toString ordering implied by hint.
func (rt *Runtime) ToPrimitive(v value.Value, hint string) (value.Value, error) {
	if !v.IsObject() {
		return v, nil
	}
	if toPrimitiveSymbolKey != nil {
		if key, ok := toPrimitiveSymbolKey(); ok {
			exotic, err := rt.GetV(v, key)
			if err != nil {
				return value.Value{}, err
			}
			if rt.IsCallable(exotic) {
				h := hint
				if h == "" {
					h = "default"
				}
				result, err := rt.Call(exotic, v, []value.Value{value.HeapValue(value.TagString, rt.Strings.Intern(h))})
				if err != nil {
					return value.Value{}, err
				}
				if result.IsObject() {
					return value.Value{}, &value.TypeError{Message: "Cannot convert object to primitive value"}
				}
				return result, nil
			}
		}
	}
	methodNames := []string{"valueOf", "toString"}
	if hint == "string" {
		methodNames = []string{"toString", "valueOf"}
	}
	for _, name := range methodNames {
		method, err := rt.GetV(v, StringKey(rt.Strings.Intern(name), name))
		if err != nil {
			return value.Value{}, err
		}
		if !rt.IsCallable(method) {
			continue
		}
		result, err := rt.Call(method, v, nil)
		if err != nil {
			return value.Value{}, err
		}
		if !result.IsObject() {
			return result, nil
		}
	}
	return value.Value{}, &value.TypeError{Message: "Cannot convert object to primitive value"}
}

// ToObject implements spec ToObject for objects (identity) and the
// primitive wrapper kinds (Boolean/Number/String/Symbol/BigInt
// objects), wired back into internal/value via RegisterObjectHost.
func (rt *Runtime) ToObject(v value.Value) (value.Value, error) {
	switch v.Tag() {
	case value.TagObject:
		return v, nil
	case value.TagBoolean:
		return rt.newWrapper(KindBooleanObject, v), nil
	case value.TagInt32, value.TagFloat64:
		return rt.newWrapper(KindNumberObject, v), nil
	case value.TagString:
		return rt.newStringWrapper(v), nil
	case value.TagSymbol:
		return rt.newWrapper(KindNative, v), nil
	case value.TagBigInt:
		return rt.newWrapper(KindBigIntObject, v), nil
	default:
		return value.Value{}, &value.TypeError{Message: "Cannot convert undefined or null to object"}
	}
}

func (rt *Runtime) newWrapper(kind Kind, primitive value.Value) value.Value {
	v := rt.newObject(kind, ordinaryMethods, value.Null)
	o := rt.Resolve(v)
	o.Payload = &PrimitiveWrapper{Value: primitive}
	return v
}
