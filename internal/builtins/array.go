package builtins

import (
	"sort"

	"github.com/oxhq/esengine/internal/object"
	"github.com/oxhq/esengine/internal/value"
	"github.com/oxhq/esengine/internal/vm"
)

// installArray builds %Array% (spec §4.3's Array exotic object, backed
// by internal/object/kinds.go's arrayMethods length invariant) and
// %Array.prototype%'s own methods. Symbol.iterator/values/keys/entries
// are installed separately by installIterators, once
// %ArrayIteratorPrototype% exists to back them.
func installArray(eng *vm.Engine, objectProto value.Value) value.Value {
	rt := eng.Runtime()
	arrayProto := rt.NewArray(objectProto)

	ctor := newConstructor(eng, "Array", 1, arrayProto, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		arr := rt.NewArray(arrayProto)
		if len(args) == 1 && args[0].IsNumber() {
			n, err := value.ToUint32(args[0])
			if err != nil {
				return value.Value{}, err
			}
			if float64(n) != args[0].AsFloat64() {
				return value.Value{}, &value.RangeError{Message: "Invalid array length"}
			}
			setLength(eng, arr, uint32(n))
			return arr, nil
		}
		for i, a := range args {
			defineIndex(eng, arr, i, a)
		}
		return arr, nil
	})

	defMethod(eng, ctor, "isArray", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		v := argOrUndefined(args, 0)
		return value.Bool(v.IsObject() && isArray(rt, v)), nil
	})

	defMethod(eng, ctor, "of", 0, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		arr := rt.NewArray(arrayProto)
		for i, a := range args {
			defineIndex(eng, arr, i, a)
		}
		return arr, nil
	})

	defMethod(eng, ctor, "from", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		src := argOrUndefined(args, 0)
		mapFn := argOrUndefined(args, 1)
		if !mapFn.IsUndefined() && !rt.IsCallable(mapFn) {
			return value.Value{}, &value.TypeError{Message: "Array.from: mapFn must be a function"}
		}
		items, err := collectIterableOrArrayLike(eng, src)
		if err != nil {
			return value.Value{}, err
		}
		arr := rt.NewArray(arrayProto)
		for i, v := range items {
			if !mapFn.IsUndefined() {
				mv, err := rt.Call(mapFn, argOrUndefined(args, 2), []value.Value{v, value.Number(float64(i))})
				if err != nil {
					return value.Value{}, err
				}
				v = mv
			}
			defineIndex(eng, arr, i, v)
		}
		return arr, nil
	})

	defMethod(eng, arrayProto, "push", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		n, err := arrLen(eng, this)
		if err != nil {
			return value.Value{}, err
		}
		for _, a := range args {
			if _, err := rt.DefineOwnProperty(this, object.IndexKey(uint32(n)), dataDesc(a)); err != nil {
				return value.Value{}, err
			}
			n++
		}
		return value.Number(float64(n)), nil
	})

	defMethod(eng, arrayProto, "pop", 0, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		n, err := arrLen(eng, this)
		if err != nil {
			return value.Value{}, err
		}
		if n == 0 {
			return value.Undefined, nil
		}
		last := uint32(n - 1)
		v, err := rt.GetV(this, object.IndexKey(last))
		if err != nil {
			return value.Value{}, err
		}
		if _, err := rt.Delete(this, object.IndexKey(last)); err != nil {
			return value.Value{}, err
		}
		setLength(eng, this, last)
		return v, nil
	})

	defMethod(eng, arrayProto, "shift", 0, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		n, err := arrLen(eng, this)
		if err != nil {
			return value.Value{}, err
		}
		if n == 0 {
			return value.Undefined, nil
		}
		first, err := rt.GetV(this, object.IndexKey(0))
		if err != nil {
			return value.Value{}, err
		}
		for i := int64(1); i < n; i++ {
			v, err := rt.GetV(this, object.IndexKey(uint32(i)))
			if err != nil {
				return value.Value{}, err
			}
			if _, err := rt.DefineOwnProperty(this, object.IndexKey(uint32(i-1)), dataDesc(v)); err != nil {
				return value.Value{}, err
			}
		}
		if _, err := rt.Delete(this, object.IndexKey(uint32(n-1))); err != nil {
			return value.Value{}, err
		}
		setLength(eng, this, uint32(n-1))
		return first, nil
	})

	defMethod(eng, arrayProto, "unshift", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		n, err := arrLen(eng, this)
		if err != nil {
			return value.Value{}, err
		}
		k := int64(len(args))
		for i := n - 1; i >= 0; i-- {
			v, err := rt.GetV(this, object.IndexKey(uint32(i)))
			if err != nil {
				return value.Value{}, err
			}
			if _, err := rt.DefineOwnProperty(this, object.IndexKey(uint32(i+k)), dataDesc(v)); err != nil {
				return value.Value{}, err
			}
		}
		for i, a := range args {
			if _, err := rt.DefineOwnProperty(this, object.IndexKey(uint32(i)), dataDesc(a)); err != nil {
				return value.Value{}, err
			}
		}
		return value.Number(float64(n + k)), nil
	})

	defMethod(eng, arrayProto, "slice", 2, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		n, err := arrLen(eng, this)
		if err != nil {
			return value.Value{}, err
		}
		start, err := relativeIndex(argOrUndefined(args, 0), n, 0)
		if err != nil {
			return value.Value{}, err
		}
		end, err := relativeIndex(argOrUndefined(args, 1), n, n)
		if err != nil {
			return value.Value{}, err
		}
		out := rt.NewArray(arrayProto)
		j := 0
		for i := start; i < end; i++ {
			v, err := rt.GetV(this, object.IndexKey(uint32(i)))
			if err != nil {
				return value.Value{}, err
			}
			defineIndex(eng, out, j, v)
			j++
		}
		return out, nil
	})

	defMethod(eng, arrayProto, "splice", 2, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		n, err := arrLen(eng, this)
		if err != nil {
			return value.Value{}, err
		}
		start, err := relativeIndex(argOrUndefined(args, 0), n, 0)
		if err != nil {
			return value.Value{}, err
		}
		deleteCount := n - start
		if len(args) >= 2 {
			dc, err := value.ToIntegerOrInfinity(args[1])
			if err != nil {
				return value.Value{}, err
			}
			if dc < 0 {
				dc = 0
			}
			if dc > float64(n-start) {
				dc = float64(n - start)
			}
			deleteCount = int64(dc)
		}
		items := argsFrom(args, 2)

		removed := rt.NewArray(arrayProto)
		for i := int64(0); i < deleteCount; i++ {
			v, err := rt.GetV(this, object.IndexKey(uint32(start+i)))
			if err != nil {
				return value.Value{}, err
			}
			defineIndex(eng, removed, int(i), v)
		}

		shift := int64(len(items)) - deleteCount
		if shift < 0 {
			for i := start + deleteCount; i < n; i++ {
				v, err := rt.GetV(this, object.IndexKey(uint32(i)))
				if err != nil {
					return value.Value{}, err
				}
				if _, err := rt.DefineOwnProperty(this, object.IndexKey(uint32(i+shift)), dataDesc(v)); err != nil {
					return value.Value{}, err
				}
			}
			for i := n + shift; i < n; i++ {
				rt.Delete(this, object.IndexKey(uint32(i)))
			}
		} else if shift > 0 {
			for i := n - 1; i >= start+deleteCount; i-- {
				v, err := rt.GetV(this, object.IndexKey(uint32(i)))
				if err != nil {
					return value.Value{}, err
				}
				if _, err := rt.DefineOwnProperty(this, object.IndexKey(uint32(i+shift)), dataDesc(v)); err != nil {
					return value.Value{}, err
				}
			}
		}
		for i, v := range items {
			if _, err := rt.DefineOwnProperty(this, object.IndexKey(uint32(start+int64(i))), dataDesc(v)); err != nil {
				return value.Value{}, err
			}
		}
		setLength(eng, this, uint32(n+shift))
		return removed, nil
	})

	defMethod(eng, arrayProto, "concat", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		out := rt.NewArray(arrayProto)
		j := 0
		appendOne := func(v value.Value) error {
			if v.IsObject() && isArray(rt, v) {
				m, err := arrLen(eng, v)
				if err != nil {
					return err
				}
				for i := int64(0); i < m; i++ {
					ev, err := rt.GetV(v, object.IndexKey(uint32(i)))
					if err != nil {
						return err
					}
					defineIndex(eng, out, j, ev)
					j++
				}
				return nil
			}
			defineIndex(eng, out, j, v)
			j++
			return nil
		}
		if err := appendOne(this); err != nil {
			return value.Value{}, err
		}
		for _, a := range args {
			if err := appendOne(a); err != nil {
				return value.Value{}, err
			}
		}
		return out, nil
	})

	defMethod(eng, arrayProto, "join", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		sep := ","
		if s := argOrUndefined(args, 0); !s.IsUndefined() {
			sv, err := value.ToStringValue(s)
			if err != nil {
				return value.Value{}, err
			}
			sep = rt.Strings.Lookup(sv.Ref())
		}
		n, err := arrLen(eng, this)
		if err != nil {
			return value.Value{}, err
		}
		out := ""
		for i := int64(0); i < n; i++ {
			if i > 0 {
				out += sep
			}
			v, err := rt.GetV(this, object.IndexKey(uint32(i)))
			if err != nil {
				return value.Value{}, err
			}
			if v.IsNullish() {
				continue
			}
			sv, err := value.ToStringValue(v)
			if err != nil {
				return value.Value{}, err
			}
			out += rt.Strings.Lookup(sv.Ref())
		}
		return str(eng, out), nil
	})

	defMethod(eng, arrayProto, "toString", 0, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		join, err := rt.GetV(this, key(eng, "join"))
		if err != nil {
			return value.Value{}, err
		}
		if !rt.IsCallable(join) {
			return str(eng, "[object Array]"), nil
		}
		return rt.Call(join, this, nil)
	})

	defMethod(eng, arrayProto, "indexOf", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		target := argOrUndefined(args, 0)
		n, err := arrLen(eng, this)
		if err != nil {
			return value.Value{}, err
		}
		start := int64(0)
		if len(args) > 1 {
			f, err := value.ToIntegerOrInfinity(args[1])
			if err != nil {
				return value.Value{}, err
			}
			start = normalizeStart(f, n)
		}
		for i := start; i < n; i++ {
			v, err := rt.GetV(this, object.IndexKey(uint32(i)))
			if err != nil {
				return value.Value{}, err
			}
			if value.StrictEquals(v, target) {
				return value.Number(float64(i)), nil
			}
		}
		return value.Number(-1), nil
	})

	defMethod(eng, arrayProto, "lastIndexOf", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		target := argOrUndefined(args, 0)
		n, err := arrLen(eng, this)
		if err != nil {
			return value.Value{}, err
		}
		for i := n - 1; i >= 0; i-- {
			v, err := rt.GetV(this, object.IndexKey(uint32(i)))
			if err != nil {
				return value.Value{}, err
			}
			if value.StrictEquals(v, target) {
				return value.Number(float64(i)), nil
			}
		}
		return value.Number(-1), nil
	})

	defMethod(eng, arrayProto, "includes", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		target := argOrUndefined(args, 0)
		n, err := arrLen(eng, this)
		if err != nil {
			return value.Value{}, err
		}
		for i := int64(0); i < n; i++ {
			v, err := rt.GetV(this, object.IndexKey(uint32(i)))
			if err != nil {
				return value.Value{}, err
			}
			if value.SameValueZero(v, target) {
				return value.True, nil
			}
		}
		return value.False, nil
	})

	defMethod(eng, arrayProto, "forEach", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		cb := argOrUndefined(args, 0)
		if !rt.IsCallable(cb) {
			return value.Value{}, &value.TypeError{Message: "Array.prototype.forEach callback must be a function"}
		}
		thisArg := argOrUndefined(args, 1)
		n, err := arrLen(eng, this)
		if err != nil {
			return value.Value{}, err
		}
		for i := int64(0); i < n; i++ {
			v, err := rt.GetV(this, object.IndexKey(uint32(i)))
			if err != nil {
				return value.Value{}, err
			}
			if _, err := rt.Call(cb, thisArg, []value.Value{v, value.Number(float64(i)), this}); err != nil {
				return value.Value{}, err
			}
		}
		return value.Undefined, nil
	})

	defMethod(eng, arrayProto, "map", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		cb := argOrUndefined(args, 0)
		if !rt.IsCallable(cb) {
			return value.Value{}, &value.TypeError{Message: "Array.prototype.map callback must be a function"}
		}
		thisArg := argOrUndefined(args, 1)
		n, err := arrLen(eng, this)
		if err != nil {
			return value.Value{}, err
		}
		out := rt.NewArray(arrayProto)
		for i := int64(0); i < n; i++ {
			v, err := rt.GetV(this, object.IndexKey(uint32(i)))
			if err != nil {
				return value.Value{}, err
			}
			mv, err := rt.Call(cb, thisArg, []value.Value{v, value.Number(float64(i)), this})
			if err != nil {
				return value.Value{}, err
			}
			defineIndex(eng, out, int(i), mv)
		}
		return out, nil
	})

	defMethod(eng, arrayProto, "filter", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		cb := argOrUndefined(args, 0)
		if !rt.IsCallable(cb) {
			return value.Value{}, &value.TypeError{Message: "Array.prototype.filter callback must be a function"}
		}
		thisArg := argOrUndefined(args, 1)
		n, err := arrLen(eng, this)
		if err != nil {
			return value.Value{}, err
		}
		out := rt.NewArray(arrayProto)
		j := 0
		for i := int64(0); i < n; i++ {
			v, err := rt.GetV(this, object.IndexKey(uint32(i)))
			if err != nil {
				return value.Value{}, err
			}
			keep, err := rt.Call(cb, thisArg, []value.Value{v, value.Number(float64(i)), this})
			if err != nil {
				return value.Value{}, err
			}
			if value.ToBoolean(keep) {
				defineIndex(eng, out, j, v)
				j++
			}
		}
		return out, nil
	})

	defMethod(eng, arrayProto, "find", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		v, _, err := findHelper(eng, this, args)
		return v, err
	})

	defMethod(eng, arrayProto, "findIndex", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		_, i, err := findHelper(eng, this, args)
		if err != nil {
			return value.Value{}, err
		}
		return value.Number(float64(i)), nil
	})

	defMethod(eng, arrayProto, "some", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		cb := argOrUndefined(args, 0)
		if !rt.IsCallable(cb) {
			return value.Value{}, &value.TypeError{Message: "Array.prototype.some callback must be a function"}
		}
		thisArg := argOrUndefined(args, 1)
		n, err := arrLen(eng, this)
		if err != nil {
			return value.Value{}, err
		}
		for i := int64(0); i < n; i++ {
			v, err := rt.GetV(this, object.IndexKey(uint32(i)))
			if err != nil {
				return value.Value{}, err
			}
			ok, err := rt.Call(cb, thisArg, []value.Value{v, value.Number(float64(i)), this})
			if err != nil {
				return value.Value{}, err
			}
			if value.ToBoolean(ok) {
				return value.True, nil
			}
		}
		return value.False, nil
	})

	defMethod(eng, arrayProto, "every", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		cb := argOrUndefined(args, 0)
		if !rt.IsCallable(cb) {
			return value.Value{}, &value.TypeError{Message: "Array.prototype.every callback must be a function"}
		}
		thisArg := argOrUndefined(args, 1)
		n, err := arrLen(eng, this)
		if err != nil {
			return value.Value{}, err
		}
		for i := int64(0); i < n; i++ {
			v, err := rt.GetV(this, object.IndexKey(uint32(i)))
			if err != nil {
				return value.Value{}, err
			}
			ok, err := rt.Call(cb, thisArg, []value.Value{v, value.Number(float64(i)), this})
			if err != nil {
				return value.Value{}, err
			}
			if !value.ToBoolean(ok) {
				return value.False, nil
			}
		}
		return value.True, nil
	})

	defMethod(eng, arrayProto, "reduce", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		return reduceHelper(eng, this, args, false)
	})

	defMethod(eng, arrayProto, "reduceRight", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		return reduceHelper(eng, this, args, true)
	})

	defMethod(eng, arrayProto, "reverse", 0, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		n, err := arrLen(eng, this)
		if err != nil {
			return value.Value{}, err
		}
		for i, j := int64(0), n-1; i < j; i, j = i+1, j-1 {
			vi, err := rt.GetV(this, object.IndexKey(uint32(i)))
			if err != nil {
				return value.Value{}, err
			}
			vj, err := rt.GetV(this, object.IndexKey(uint32(j)))
			if err != nil {
				return value.Value{}, err
			}
			if _, err := rt.DefineOwnProperty(this, object.IndexKey(uint32(i)), dataDesc(vj)); err != nil {
				return value.Value{}, err
			}
			if _, err := rt.DefineOwnProperty(this, object.IndexKey(uint32(j)), dataDesc(vi)); err != nil {
				return value.Value{}, err
			}
		}
		return this, nil
	})

	defMethod(eng, arrayProto, "sort", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		cmp := argOrUndefined(args, 0)
		if !cmp.IsUndefined() && !rt.IsCallable(cmp) {
			return value.Value{}, &value.TypeError{Message: "Array.prototype.sort comparator must be a function"}
		}
		n, err := arrLen(eng, this)
		if err != nil {
			return value.Value{}, err
		}
		elems := make([]value.Value, n)
		for i := int64(0); i < n; i++ {
			v, err := rt.GetV(this, object.IndexKey(uint32(i)))
			if err != nil {
				return value.Value{}, err
			}
			elems[i] = v
		}
		var sortErr error
		sort.SliceStable(elems, func(i, j int) bool {
			if sortErr != nil {
				return false
			}
			a, b := elems[i], elems[j]
			if a.IsUndefined() {
				return false
			}
			if b.IsUndefined() {
				return true
			}
			if !cmp.IsUndefined() {
				r, err := rt.Call(cmp, value.Undefined, []value.Value{a, b})
				if err != nil {
					sortErr = err
					return false
				}
				rn, err := value.ToNumber(r)
				if err != nil {
					sortErr = err
					return false
				}
				return rn.AsFloat64() < 0
			}
			as, err := value.ToStringValue(a)
			if err != nil {
				sortErr = err
				return false
			}
			bs, err := value.ToStringValue(b)
			if err != nil {
				sortErr = err
				return false
			}
			return rt.Strings.Lookup(as.Ref()) < rt.Strings.Lookup(bs.Ref())
		})
		if sortErr != nil {
			return value.Value{}, sortErr
		}
		for i, v := range elems {
			if _, err := rt.DefineOwnProperty(this, object.IndexKey(uint32(i)), dataDesc(v)); err != nil {
				return value.Value{}, err
			}
		}
		return this, nil
	})

	defMethod(eng, arrayProto, "flat", 0, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		depth := int64(1)
		if d := argOrUndefined(args, 0); !d.IsUndefined() {
			f, err := value.ToIntegerOrInfinity(d)
			if err != nil {
				return value.Value{}, err
			}
			depth = int64(f)
		}
		out := rt.NewArray(arrayProto)
		j := 0
		if err := flattenInto(eng, this, depth, out, &j); err != nil {
			return value.Value{}, err
		}
		return out, nil
	})

	defMethod(eng, arrayProto, "flatMap", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		cb := argOrUndefined(args, 0)
		if !rt.IsCallable(cb) {
			return value.Value{}, &value.TypeError{Message: "Array.prototype.flatMap callback must be a function"}
		}
		thisArg := argOrUndefined(args, 1)
		n, err := arrLen(eng, this)
		if err != nil {
			return value.Value{}, err
		}
		out := rt.NewArray(arrayProto)
		j := 0
		for i := int64(0); i < n; i++ {
			v, err := rt.GetV(this, object.IndexKey(uint32(i)))
			if err != nil {
				return value.Value{}, err
			}
			mv, err := rt.Call(cb, thisArg, []value.Value{v, value.Number(float64(i)), this})
			if err != nil {
				return value.Value{}, err
			}
			if mv.IsObject() && isArray(rt, mv) {
				if err := flattenInto(eng, mv, 0, out, &j); err != nil {
					return value.Value{}, err
				}
			} else {
				defineIndex(eng, out, j, mv)
				j++
			}
		}
		return out, nil
	})

	defOwn(eng, eng.GlobalObject, "Array", ctor, false)
	return arrayProto
}

func isArray(rt *object.Runtime, v value.Value) bool {
	o := rt.Resolve(v)
	return o != nil && o.ObjectKind() == object.KindArray
}

func dataDesc(v value.Value) object.Descriptor {
	return object.Descriptor{
		HasValue: true, Value: v, Writable: true, Enumerable: true, Configurable: true,
		HasWritable: true, HasEnumerable: true, HasConfigurable: true,
	}
}

func arrLen(eng *vm.Engine, arr value.Value) (int64, error) {
	v, err := eng.Runtime().GetV(arr, key(eng, "length"))
	if err != nil {
		return 0, err
	}
	return value.ToLength(v)
}

func setLength(eng *vm.Engine, arr value.Value, n uint32) {
	eng.Runtime().DefineOwnProperty(arr, key(eng, "length"), object.Descriptor{
		HasValue: true, Value: value.Number(float64(n)),
	})
}

// relativeIndex implements spec's relative-index clamping shared by
// slice/splice's start/end arguments: negative counts back from len,
// the result always clamped into [0, len].
func relativeIndex(v value.Value, n int64, dflt int64) (int64, error) {
	if v.IsUndefined() {
		return clampFloat(float64(dflt), n), nil
	}
	f, err := value.ToIntegerOrInfinity(v)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		f += float64(n)
	}
	return clampFloat(f, n), nil
}

func normalizeStart(f float64, n int64) int64 {
	if f < 0 {
		f += float64(n)
	}
	return clampFloat(f, n)
}

// clampFloat clamps a (possibly infinite) relative-index computation
// into [0, n] before narrowing to int64, so a +/-Infinity argument
// (ToIntegerOrInfinity passes infinities through unclamped) never
// overflows the int64 conversion.
func clampFloat(f float64, n int64) int64 {
	if f < 0 {
		return 0
	}
	if f > float64(n) {
		return n
	}
	return int64(f)
}

func argsFrom(args []value.Value, i int) []value.Value {
	if i >= len(args) {
		return nil
	}
	return args[i:]
}

func findHelper(eng *vm.Engine, this value.Value, args []value.Value) (value.Value, int64, error) {
	rt := eng.Runtime()
	cb := argOrUndefined(args, 0)
	if !rt.IsCallable(cb) {
		return value.Value{}, -1, &value.TypeError{Message: "Array.prototype.find callback must be a function"}
	}
	thisArg := argOrUndefined(args, 1)
	n, err := arrLen(eng, this)
	if err != nil {
		return value.Value{}, -1, err
	}
	for i := int64(0); i < n; i++ {
		v, err := rt.GetV(this, object.IndexKey(uint32(i)))
		if err != nil {
			return value.Value{}, -1, err
		}
		ok, err := rt.Call(cb, thisArg, []value.Value{v, value.Number(float64(i)), this})
		if err != nil {
			return value.Value{}, -1, err
		}
		if value.ToBoolean(ok) {
			return v, i, nil
		}
	}
	return value.Undefined, -1, nil
}

func reduceHelper(eng *vm.Engine, this value.Value, args []value.Value, right bool) (value.Value, error) {
	rt := eng.Runtime()
	cb := argOrUndefined(args, 0)
	if !rt.IsCallable(cb) {
		return value.Value{}, &value.TypeError{Message: "Array.prototype.reduce callback must be a function"}
	}
	n, err := arrLen(eng, this)
	if err != nil {
		return value.Value{}, err
	}
	idx := func(i int64) int64 {
		if right {
			return n - 1 - i
		}
		return i
	}
	var acc value.Value
	start := int64(0)
	if len(args) > 1 {
		acc = args[1]
	} else {
		if n == 0 {
			return value.Value{}, &value.TypeError{Message: "Reduce of empty array with no initial value"}
		}
		v, err := rt.GetV(this, object.IndexKey(uint32(idx(0))))
		if err != nil {
			return value.Value{}, err
		}
		acc = v
		start = 1
	}
	for i := start; i < n; i++ {
		j := idx(i)
		v, err := rt.GetV(this, object.IndexKey(uint32(j)))
		if err != nil {
			return value.Value{}, err
		}
		acc, err = rt.Call(cb, value.Undefined, []value.Value{acc, v, value.Number(float64(j)), this})
		if err != nil {
			return value.Value{}, err
		}
	}
	return acc, nil
}

func flattenInto(eng *vm.Engine, arr value.Value, depth int64, out value.Value, j *int) error {
	rt := eng.Runtime()
	n, err := arrLen(eng, arr)
	if err != nil {
		return err
	}
	for i := int64(0); i < n; i++ {
		v, err := rt.GetV(arr, object.IndexKey(uint32(i)))
		if err != nil {
			return err
		}
		if depth > 0 && v.IsObject() && isArray(rt, v) {
			if err := flattenInto(eng, v, depth-1, out, j); err != nil {
				return err
			}
			continue
		}
		defineIndex(eng, out, *j, v)
		*j++
	}
	return nil
}

// collectIterableOrArrayLike implements spec's IterableToList fallback
// chain Array.from relies on: an iterable (anything exposing
// Symbol.iterator) is drained via the iterator protocol, anything else
// is treated as an array-like via its length property.
func collectIterableOrArrayLike(eng *vm.Engine, v value.Value) ([]value.Value, error) {
	rt := eng.Runtime()
	if v.IsObject() {
		method, err := rt.GetIteratorMethod(v, false)
		if err == nil && !method.IsUndefined() {
			return drainIterable(eng, v, method)
		}
	}
	return iterableToSlice(eng, v)
}

func drainIterable(eng *vm.Engine, v, method value.Value) ([]value.Value, error) {
	rt := eng.Runtime()
	it, err := rt.Call(method, v, nil)
	if err != nil {
		return nil, err
	}
	next, err := rt.GetV(it, key(eng, "next"))
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for {
		res, err := rt.Call(next, it, nil)
		if err != nil {
			return nil, err
		}
		done, err := rt.GetV(res, key(eng, "done"))
		if err != nil {
			return nil, err
		}
		if value.ToBoolean(done) {
			return out, nil
		}
		val, err := rt.GetV(res, key(eng, "value"))
		if err != nil {
			return nil, err
		}
		out = append(out, val)
	}
}
