package builtins

import (
	"github.com/oxhq/esengine/internal/object"
	"github.com/oxhq/esengine/internal/value"
	"github.com/oxhq/esengine/internal/vm"
)

// arrayIterKind selects what %ArrayIteratorPrototype%.next yields for
// a given index: the element itself, the index, or a [index, element]
// pair (spec §4.4's CreateArrayIterator "kind" parameter).
type arrayIterKind uint8

const (
	iterValues arrayIterKind = iota
	iterKeys
	iterEntries
)

// arrayIterState is the Payload an array-iterator ordinary object
// carries (the same any-typed-Payload convention object.GeneratorPayload
// documents) — next() is a closure over it, not a second copy of
// Array's own length/index bookkeeping.
type arrayIterState struct {
	arr  value.Value
	kind arrayIterKind
	idx  int64
	done bool
}

// installIterators builds %ArrayIteratorPrototype% (wiring
// Array.prototype.values/keys/entries/@@iterator onto arrayProto) and
// gives %GeneratorPrototype% its own @@iterator (a generator is its own
// iterator, spec §4.4). There is no separate AsyncGeneratorPrototype:
// this engine's generator machinery (internal/vm's GeneratorContext)
// only drives synchronous generators today.
func installIterators(eng *vm.Engine, objectProto, arrayProto, generatorProto value.Value) {
	rt := eng.Runtime()

	arrayIterProto := rt.NewOrdinary(objectProto)

	defMethod(eng, arrayIterProto, "next", 0, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		o := rt.Resolve(this)
		if o == nil {
			return value.Value{}, &value.TypeError{Message: "not an array iterator"}
		}
		st, ok := o.Payload.(*arrayIterState)
		if !ok {
			return value.Value{}, &value.TypeError{Message: "Array Iterator.prototype.next called on incompatible receiver"}
		}
		if st.done {
			return eng.IterResult(value.Undefined, true), nil
		}
		n, err := arrLen(eng, st.arr)
		if err != nil {
			return value.Value{}, err
		}
		if st.idx >= n {
			st.done = true
			return eng.IterResult(value.Undefined, true), nil
		}
		i := st.idx
		st.idx++
		switch st.kind {
		case iterKeys:
			return eng.IterResult(value.Number(float64(i)), false), nil
		case iterEntries:
			v, err := rt.GetV(st.arr, object.IndexKey(uint32(i)))
			if err != nil {
				return value.Value{}, err
			}
			pair := rt.NewArray(arrayProto)
			defineIndex(eng, pair, 0, value.Number(float64(i)))
			defineIndex(eng, pair, 1, v)
			return eng.IterResult(pair, false), nil
		default:
			v, err := rt.GetV(st.arr, object.IndexKey(uint32(i)))
			if err != nil {
				return value.Value{}, err
			}
			return eng.IterResult(v, false), nil
		}
	})

	defMethodSymbol(eng, arrayIterProto, iteratorKey(eng), "[Symbol.iterator]", 0, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		return this, nil
	})

	newArrayIterator := func(arr value.Value, kind arrayIterKind) value.Value {
		v := rt.NewOrdinary(arrayIterProto)
		rt.Resolve(v).Payload = &arrayIterState{arr: arr, kind: kind}
		return v
	}

	defMethod(eng, arrayProto, "values", 0, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		return newArrayIterator(this, iterValues), nil
	})
	defMethod(eng, arrayProto, "keys", 0, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		return newArrayIterator(this, iterKeys), nil
	})
	defMethod(eng, arrayProto, "entries", 0, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		return newArrayIterator(this, iterEntries), nil
	})
	defMethodSymbol(eng, arrayProto, iteratorKey(eng), "[Symbol.iterator]", 0, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		return newArrayIterator(this, iterValues), nil
	})

	defMethodSymbol(eng, generatorProto, iteratorKey(eng), "[Symbol.iterator]", 0, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		return this, nil
	})
}
