package builtins

import (
	"github.com/oxhq/esengine/internal/object"
	"github.com/oxhq/esengine/internal/value"
	"github.com/oxhq/esengine/internal/vm"
)

// wellKnown holds the Symbol values %Symbol.iterator%,
// %Symbol.asyncIterator%, and %Symbol.toPrimitive% once installSymbols
// has minted them, so every other installXxx file in this package can
// build the matching object.Key without re-resolving the Symbol
// constructor's own static properties.
var wellKnown struct {
	iterator      value.Value
	asyncIterator value.Value
	toPrimitive   value.Value
	toStringTag   value.Value
}

func iteratorKey(eng *vm.Engine) object.Key {
	return object.SymbolKey(wellKnown.iterator.Ref())
}

func asyncIteratorKey(eng *vm.Engine) object.Key {
	return object.SymbolKey(wellKnown.asyncIterator.Ref())
}

// installSymbols builds %Symbol% (spec §4.8's Symbol intrinsic): the
// well-known symbols as static properties, Symbol.for's shared
// process-wide... narrowed per-engine registry, and
// Symbol.prototype.toString (no description accessor is installed).
// It also registers the
// iterator/asyncIterator/toPrimitive lookups internal/object's
// kinds.go/conversions.go/iterator.go call through (RegisterIteratorSymbol
// et al.), closing the hook-registration cycle those files document.
func installSymbols(eng *vm.Engine, objectProto value.Value) {
	rt := eng.Runtime()
	symbolProto := rt.NewOrdinary(objectProto)

	mint := func(desc string) value.Value {
		return value.HeapValue(value.TagSymbol, rt.Symbols.New(desc))
	}
	wellKnown.iterator = mint("Symbol.iterator")
	wellKnown.asyncIterator = mint("Symbol.asyncIterator")
	wellKnown.toPrimitive = mint("Symbol.toPrimitive")
	wellKnown.toStringTag = mint("Symbol.toStringTag")

	object.RegisterIteratorSymbol(func() (object.Key, bool) {
		return object.SymbolKey(wellKnown.iterator.Ref()), true
	})
	object.RegisterAsyncIteratorSymbol(func() (object.Key, bool) {
		return object.SymbolKey(wellKnown.asyncIterator.Ref()), true
	})
	object.RegisterToPrimitiveSymbol(func() (object.Key, bool) {
		return object.SymbolKey(wellKnown.toPrimitive.Ref()), true
	})

	registry := map[string]value.Value{}

	ctor := newConstructor(eng, "Symbol", 0, symbolProto, func(eng *vm.Engine, this value.Value, args []value.Value, newTarget value.Value) (value.Value, error) {
		if !newTarget.IsUndefined() {
			return value.Value{}, &value.TypeError{Message: "Symbol is not a constructor"}
		}
		desc := ""
		if len(args) > 0 && !args[0].IsUndefined() {
			sv, err := value.ToStringValue(args[0])
			if err != nil {
				return value.Value{}, err
			}
			desc = rt.Strings.Lookup(sv.Ref())
		}
		sym := value.HeapValue(value.TagSymbol, rt.Symbols.New(desc))
		return sym, nil
	})

	defOwn(eng, ctor, "iterator", wellKnown.iterator, false)
	defOwn(eng, ctor, "asyncIterator", wellKnown.asyncIterator, false)
	defOwn(eng, ctor, "toPrimitive", wellKnown.toPrimitive, false)
	defOwn(eng, ctor, "toStringTag", wellKnown.toStringTag, false)

	defMethod(eng, ctor, "for", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		sv, err := value.ToStringValue(argOrUndefined(args, 0))
		if err != nil {
			return value.Value{}, err
		}
		k := rt.Strings.Lookup(sv.Ref())
		if s, ok := registry[k]; ok {
			return s, nil
		}
		s := value.HeapValue(value.TagSymbol, rt.Symbols.New(k))
		registry[k] = s
		return s, nil
	})

	defMethod(eng, symbolProto, "toString", 0, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		if !this.IsSymbol() {
			return value.Value{}, &value.TypeError{Message: "Symbol.prototype.toString requires a symbol"}
		}
		desc, _ := rt.Symbols.Description(this.Ref())
		return str(eng, "Symbol("+desc+")"), nil
	})

	defOwn(eng, eng.GlobalObject, "Symbol", ctor, false)
}
