package builtins

import (
	"github.com/oxhq/esengine/internal/object"
	"github.com/oxhq/esengine/internal/value"
	"github.com/oxhq/esengine/internal/vm"
)

// installObject builds %Object% (spec §4.8): the constructor (ToObject
// on a non-nullish argument, a fresh ordinary object otherwise), its
// static reflection helpers (keys/values/entries/assign/freeze/
// isFrozen/getPrototypeOf/setPrototypeOf/defineProperty/
// defineProperties/create/getOwnPropertyNames), and Object.prototype's
// own hasOwnProperty/isPrototypeOf/propertyIsEnumerable/toString/
// valueOf/toLocaleString.
func installObject(eng *vm.Engine, objectProto value.Value) {
	rt := eng.Runtime()

	ctor := newConstructor(eng, "Object", 1, objectProto, func(eng *vm.Engine, this value.Value, args []value.Value, newTarget value.Value) (value.Value, error) {
		arg := argOrUndefined(args, 0)
		if arg.IsNullish() {
			return rt.NewOrdinary(objectProto), nil
		}
		return rt.ToObject(arg)
	})

	defMethod(eng, ctor, "keys", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		return enumerableOwnNames(eng, argOrUndefined(args, 0))
	})
	defMethod(eng, ctor, "values", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		return enumerableOwnValues(eng, argOrUndefined(args, 0), false)
	})
	defMethod(eng, ctor, "entries", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		return enumerableOwnValues(eng, argOrUndefined(args, 0), true)
	})

	defMethod(eng, ctor, "assign", 2, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Value{}, &value.TypeError{Message: "Object.assign requires a target"}
		}
		target, err := rt.ToObject(args[0])
		if err != nil {
			return value.Value{}, err
		}
		for _, src := range args[1:] {
			if src.IsNullish() {
				continue
			}
			srcObj, err := rt.ToObject(src)
			if err != nil {
				return value.Value{}, err
			}
			keys, err := rt.OwnPropertyKeys(srcObj)
			if err != nil {
				return value.Value{}, err
			}
			for _, k := range keys {
				d, ok, err := rt.GetOwnProperty(srcObj, k)
				if err != nil {
					return value.Value{}, err
				}
				if !ok || !d.Enumerable {
					continue
				}
				v, err := rt.GetV(srcObj, k)
				if err != nil {
					return value.Value{}, err
				}
				if _, err := rt.SetV(target, k, v); err != nil {
					return value.Value{}, err
				}
			}
		}
		return target, nil
	})

	defMethod(eng, ctor, "freeze", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		target := argOrUndefined(args, 0)
		if !target.IsObject() {
			return target, nil
		}
		keys, err := rt.OwnPropertyKeys(target)
		if err != nil {
			return value.Value{}, err
		}
		for _, k := range keys {
			d, ok, err := rt.GetOwnProperty(target, k)
			if err != nil || !ok {
				continue
			}
			nd := object.Descriptor{Configurable: false, HasConfigurable: true}
			if d.IsAccessor() {
				nd.HasGet, nd.Get, nd.HasSet, nd.Set = true, d.Get, true, d.Set
			} else {
				nd.HasValue, nd.Value, nd.HasWritable, nd.Writable = true, d.Value, true, false
			}
			if _, err := rt.DefineOwnProperty(target, k, nd); err != nil {
				return value.Value{}, err
			}
		}
		if _, err := rt.PreventExtensions(target); err != nil {
			return value.Value{}, err
		}
		return target, nil
	})

	defMethod(eng, ctor, "isFrozen", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		target := argOrUndefined(args, 0)
		if !target.IsObject() {
			return value.True, nil
		}
		ext, err := rt.IsExtensible(target)
		if err != nil {
			return value.Value{}, err
		}
		if ext {
			return value.False, nil
		}
		keys, err := rt.OwnPropertyKeys(target)
		if err != nil {
			return value.Value{}, err
		}
		for _, k := range keys {
			d, ok, err := rt.GetOwnProperty(target, k)
			if err != nil || !ok {
				continue
			}
			if d.Configurable || (d.IsData() && d.Writable) {
				return value.False, nil
			}
		}
		return value.True, nil
	})

	defMethod(eng, ctor, "getPrototypeOf", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		o, err := rt.ToObject(argOrUndefined(args, 0))
		if err != nil {
			return value.Value{}, err
		}
		return rt.GetPrototypeOf(o)
	})

	defMethod(eng, ctor, "setPrototypeOf", 2, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		target := argOrUndefined(args, 0)
		proto := argOrUndefined(args, 1)
		if !proto.IsObject() && !proto.IsNull() {
			return value.Value{}, &value.TypeError{Message: "Object prototype may only be an Object or null"}
		}
		if !target.IsObject() {
			return target, nil
		}
		if _, err := rt.SetPrototypeOf(target, proto); err != nil {
			return value.Value{}, err
		}
		return target, nil
	})

	defMethod(eng, ctor, "create", 2, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		proto := argOrUndefined(args, 0)
		if !proto.IsObject() && !proto.IsNull() {
			return value.Value{}, &value.TypeError{Message: "Object prototype may only be an Object or null"}
		}
		o := rt.NewOrdinary(proto)
		if props := argOrUndefined(args, 1); !props.IsUndefined() {
			if err := definePropertiesFrom(eng, o, props); err != nil {
				return value.Value{}, err
			}
		}
		return o, nil
	})

	defMethod(eng, ctor, "defineProperty", 3, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		target := argOrUndefined(args, 0)
		if !target.IsObject() {
			return value.Value{}, &value.TypeError{Message: "Object.defineProperty called on non-object"}
		}
		k, err := rt.ToKey(argOrUndefined(args, 1))
		if err != nil {
			return value.Value{}, err
		}
		d, err := toDescriptor(eng, argOrUndefined(args, 2))
		if err != nil {
			return value.Value{}, err
		}
		ok, err := rt.DefineOwnProperty(target, k, d)
		if err != nil {
			return value.Value{}, err
		}
		if !ok {
			return value.Value{}, &value.TypeError{Message: "Cannot define property, object is not configurable"}
		}
		return target, nil
	})

	defMethod(eng, ctor, "defineProperties", 2, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		target := argOrUndefined(args, 0)
		if !target.IsObject() {
			return value.Value{}, &value.TypeError{Message: "Object.defineProperties called on non-object"}
		}
		if err := definePropertiesFrom(eng, target, argOrUndefined(args, 1)); err != nil {
			return value.Value{}, err
		}
		return target, nil
	})

	defMethod(eng, ctor, "getOwnPropertyNames", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		o, err := rt.ToObject(argOrUndefined(args, 0))
		if err != nil {
			return value.Value{}, err
		}
		keys, err := rt.OwnPropertyKeys(o)
		if err != nil {
			return value.Value{}, err
		}
		arr := rt.NewArray(eng.ArrayProto)
		i := 0
		for _, k := range keys {
			if k.Kind() == object.KeySymbol {
				continue
			}
			defineIndex(eng, arr, i, keyToStringValue(eng, k))
			i++
		}
		return arr, nil
	})

	defMethod(eng, ctor, "getOwnPropertyDescriptor", 2, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		o, err := rt.ToObject(argOrUndefined(args, 0))
		if err != nil {
			return value.Value{}, err
		}
		k, err := rt.ToKey(argOrUndefined(args, 1))
		if err != nil {
			return value.Value{}, err
		}
		d, ok, err := rt.GetOwnProperty(o, k)
		if err != nil || !ok {
			return value.Undefined, err
		}
		return fromDescriptor(eng, d), nil
	})

	defMethod(eng, objectProto, "hasOwnProperty", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		o, err := rt.ToObject(this)
		if err != nil {
			return value.Value{}, err
		}
		k, err := rt.ToKey(argOrUndefined(args, 0))
		if err != nil {
			return value.Value{}, err
		}
		_, ok, err := rt.GetOwnProperty(o, k)
		return value.Bool(ok), err
	})

	defMethod(eng, objectProto, "isPrototypeOf", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		v := argOrUndefined(args, 0)
		if !v.IsObject() {
			return value.False, nil
		}
		self, err := rt.ToObject(this)
		if err != nil {
			return value.Value{}, err
		}
		cur := v
		for {
			proto, err := rt.GetPrototypeOf(cur)
			if err != nil {
				return value.Value{}, err
			}
			if proto.IsNull() {
				return value.False, nil
			}
			if value.SameValue(proto, self) {
				return value.True, nil
			}
			cur = proto
		}
	})

	defMethod(eng, objectProto, "propertyIsEnumerable", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		o, err := rt.ToObject(this)
		if err != nil {
			return value.Value{}, err
		}
		k, err := rt.ToKey(argOrUndefined(args, 0))
		if err != nil {
			return value.Value{}, err
		}
		d, ok, err := rt.GetOwnProperty(o, k)
		if err != nil || !ok {
			return value.False, err
		}
		return value.Bool(d.Enumerable), nil
	})

	defMethod(eng, objectProto, "toString", 0, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		if this.IsUndefined() {
			return str(eng, "[object Undefined]"), nil
		}
		if this.IsNull() {
			return str(eng, "[object Null]"), nil
		}
		return str(eng, "[object Object]"), nil
	})

	defMethod(eng, objectProto, "valueOf", 0, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		return rt.ToObject(this)
	})

	defMethod(eng, objectProto, "toLocaleString", 0, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		toString, err := rt.GetV(this, key(eng, "toString"))
		if err != nil {
			return value.Value{}, err
		}
		if !rt.IsCallable(toString) {
			return value.Value{}, &value.TypeError{Message: "toString is not a function"}
		}
		return rt.Call(toString, this, nil)
	})

	defOwn(eng, eng.GlobalObject, "Object", ctor, false)
}

func enumerableOwnNames(eng *vm.Engine, v value.Value) (value.Value, error) {
	rt := eng.Runtime()
	o, err := rt.ToObject(v)
	if err != nil {
		return value.Value{}, err
	}
	keys, err := rt.OwnPropertyKeys(o)
	if err != nil {
		return value.Value{}, err
	}
	arr := rt.NewArray(eng.ArrayProto)
	i := 0
	for _, k := range keys {
		if k.Kind() == object.KeySymbol {
			continue
		}
		d, ok, err := rt.GetOwnProperty(o, k)
		if err != nil || !ok || !d.Enumerable {
			continue
		}
		defineIndex(eng, arr, i, keyToStringValue(eng, k))
		i++
	}
	return arr, nil
}

func enumerableOwnValues(eng *vm.Engine, v value.Value, asEntries bool) (value.Value, error) {
	rt := eng.Runtime()
	o, err := rt.ToObject(v)
	if err != nil {
		return value.Value{}, err
	}
	keys, err := rt.OwnPropertyKeys(o)
	if err != nil {
		return value.Value{}, err
	}
	arr := rt.NewArray(eng.ArrayProto)
	i := 0
	for _, k := range keys {
		if k.Kind() == object.KeySymbol {
			continue
		}
		d, ok, err := rt.GetOwnProperty(o, k)
		if err != nil || !ok || !d.Enumerable {
			continue
		}
		val, err := rt.GetV(o, k)
		if err != nil {
			return value.Value{}, err
		}
		if asEntries {
			pair := rt.NewArray(eng.ArrayProto)
			defineIndex(eng, pair, 0, keyToStringValue(eng, k))
			defineIndex(eng, pair, 1, val)
			defineIndex(eng, arr, i, pair)
		} else {
			defineIndex(eng, arr, i, val)
		}
		i++
	}
	return arr, nil
}

func keyToStringValue(eng *vm.Engine, k object.Key) value.Value {
	return eng.Runtime().KeyToValue(k)
}

func defineIndex(eng *vm.Engine, arr value.Value, i int, v value.Value) {
	eng.Runtime().DefineOwnProperty(arr, object.IndexKey(uint32(i)), object.Descriptor{
		HasValue: true, Value: v, Writable: true, Enumerable: true, Configurable: true,
		HasWritable: true, HasEnumerable: true, HasConfigurable: true,
	})
}

// toDescriptor implements spec ToPropertyDescriptor: read a property
// bag's value/writable/get/set/enumerable/configurable members,
// defaulting absent ones by the Has* flag being false (letting
// ValidateAndApplyPropertyDescriptor apply its own partial-update
// semantics).
func toDescriptor(eng *vm.Engine, v value.Value) (object.Descriptor, error) {
	rt := eng.Runtime()
	if !v.IsObject() {
		return object.Descriptor{}, &value.TypeError{Message: "Property description must be an object"}
	}
	var d object.Descriptor
	has := func(name string) (value.Value, bool, error) {
		k := key(eng, name)
		ok, err := rt.HasProperty(v, k)
		if err != nil || !ok {
			return value.Value{}, false, err
		}
		val, err := rt.GetV(v, k)
		return val, true, err
	}
	if val, ok, err := has("value"); err != nil {
		return d, err
	} else if ok {
		d.HasValue, d.Value = true, val
	}
	if val, ok, err := has("writable"); err != nil {
		return d, err
	} else if ok {
		d.HasWritable, d.Writable = true, value.ToBoolean(val)
	}
	if val, ok, err := has("get"); err != nil {
		return d, err
	} else if ok {
		d.HasGet, d.Get = true, val
	}
	if val, ok, err := has("set"); err != nil {
		return d, err
	} else if ok {
		d.HasSet, d.Set = true, val
	}
	if val, ok, err := has("enumerable"); err != nil {
		return d, err
	} else if ok {
		d.HasEnumerable, d.Enumerable = true, value.ToBoolean(val)
	}
	if val, ok, err := has("configurable"); err != nil {
		return d, err
	} else if ok {
		d.HasConfigurable, d.Configurable = true, value.ToBoolean(val)
	}
	return d, nil
}

func fromDescriptor(eng *vm.Engine, d object.Descriptor) value.Value {
	o := eng.Runtime().NewOrdinary(eng.ObjectProto)
	if d.IsAccessor() {
		defOwn(eng, o, "get", d.Get, true)
		defOwn(eng, o, "set", d.Set, true)
	} else {
		defOwn(eng, o, "value", d.Value, true)
		defOwn(eng, o, "writable", value.Bool(d.Writable), true)
	}
	defOwn(eng, o, "enumerable", value.Bool(d.Enumerable), true)
	defOwn(eng, o, "configurable", value.Bool(d.Configurable), true)
	return o
}

func definePropertiesFrom(eng *vm.Engine, target, props value.Value) error {
	rt := eng.Runtime()
	if !props.IsObject() {
		return &value.TypeError{Message: "Object.defineProperties properties argument must be an object"}
	}
	keys, err := rt.OwnPropertyKeys(props)
	if err != nil {
		return err
	}
	for _, k := range keys {
		d, ok, err := rt.GetOwnProperty(props, k)
		if err != nil || !ok || !d.Enumerable {
			continue
		}
		descVal, err := rt.GetV(props, k)
		if err != nil {
			return err
		}
		desc, err := toDescriptor(eng, descVal)
		if err != nil {
			return err
		}
		if _, err := rt.DefineOwnProperty(target, k, desc); err != nil {
			return err
		}
	}
	return nil
}
