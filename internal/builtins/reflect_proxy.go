package builtins

import (
	"github.com/oxhq/esengine/internal/object"
	"github.com/oxhq/esengine/internal/value"
	"github.com/oxhq/esengine/internal/vm"
)

// installReflectProxy builds %Reflect% (spec §4.3's Reflect object, a
// thin wrapper over the internal methods every Object/Proxy already
// implements) and %Proxy% (object.Runtime.NewProxy plus the codec
// registration Proxy's exotic traps need to exchange Arrays and
// property-descriptor objects with JS handler code). Reflect and Proxy
// are grounded on the same internal-method surface; Reflect just calls
// it directly while Proxy's handler traps call back into it.
func installReflectProxy(eng *vm.Engine, objectProto value.Value) {
	rt := eng.Runtime()

	object.RegisterProxyCodecs(
		func(rt *object.Runtime, v value.Value) (object.Descriptor, error) {
			return toDescriptor(eng, v)
		},
		func(rt *object.Runtime, d object.Descriptor) value.Value {
			return fromDescriptor(eng, d)
		},
		func(rt *object.Runtime, v value.Value) ([]object.Key, error) {
			items, err := collectIterableOrArrayLike(eng, v)
			if err != nil {
				return nil, err
			}
			keys := make([]object.Key, len(items))
			for i, item := range items {
				k, err := rt.ToKey(item)
				if err != nil {
					return nil, err
				}
				keys[i] = k
			}
			return keys, nil
		},
		func(rt *object.Runtime, args []value.Value) value.Value {
			arr := rt.NewArray(eng.ArrayProto)
			for i, a := range args {
				defineIndex(eng, arr, i, a)
			}
			return arr
		},
	)

	reflectObj := rt.NewOrdinary(objectProto)

	requireObject := func(args []value.Value, i int, who string) (value.Value, error) {
		v := argOrUndefined(args, i)
		if !v.IsObject() {
			return value.Value{}, &value.TypeError{Message: "Reflect." + who + " called on non-object"}
		}
		return v, nil
	}

	defMethod(eng, reflectObj, "get", 2, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		target, err := requireObject(args, 0, "get")
		if err != nil {
			return value.Value{}, err
		}
		k, err := rt.ToKey(argOrUndefined(args, 1))
		if err != nil {
			return value.Value{}, err
		}
		receiver := target
		if len(args) > 2 {
			receiver = args[2]
		}
		return rt.Get(target, k, receiver)
	})

	defMethod(eng, reflectObj, "set", 3, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		target, err := requireObject(args, 0, "set")
		if err != nil {
			return value.Value{}, err
		}
		k, err := rt.ToKey(argOrUndefined(args, 1))
		if err != nil {
			return value.Value{}, err
		}
		v := argOrUndefined(args, 2)
		receiver := target
		if len(args) > 3 {
			receiver = args[3]
		}
		ok, err := rt.Set(target, k, v, receiver)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(ok), nil
	})

	defMethod(eng, reflectObj, "has", 2, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		target, err := requireObject(args, 0, "has")
		if err != nil {
			return value.Value{}, err
		}
		k, err := rt.ToKey(argOrUndefined(args, 1))
		if err != nil {
			return value.Value{}, err
		}
		ok, err := rt.HasProperty(target, k)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(ok), nil
	})

	defMethod(eng, reflectObj, "deleteProperty", 2, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		target, err := requireObject(args, 0, "deleteProperty")
		if err != nil {
			return value.Value{}, err
		}
		k, err := rt.ToKey(argOrUndefined(args, 1))
		if err != nil {
			return value.Value{}, err
		}
		ok, err := rt.Delete(target, k)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(ok), nil
	})

	defMethod(eng, reflectObj, "ownKeys", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		target, err := requireObject(args, 0, "ownKeys")
		if err != nil {
			return value.Value{}, err
		}
		keys, err := rt.OwnPropertyKeys(target)
		if err != nil {
			return value.Value{}, err
		}
		arr := rt.NewArray(eng.ArrayProto)
		for i, k := range keys {
			defineIndex(eng, arr, i, keyToStringValue(eng, k))
		}
		return arr, nil
	})

	defMethod(eng, reflectObj, "getPrototypeOf", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		target, err := requireObject(args, 0, "getPrototypeOf")
		if err != nil {
			return value.Value{}, err
		}
		return rt.GetPrototypeOf(target)
	})

	defMethod(eng, reflectObj, "setPrototypeOf", 2, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		target, err := requireObject(args, 0, "setPrototypeOf")
		if err != nil {
			return value.Value{}, err
		}
		proto := argOrUndefined(args, 1)
		if !proto.IsObject() && !proto.IsNull() {
			return value.Value{}, &value.TypeError{Message: "Reflect.setPrototypeOf proto must be an object or null"}
		}
		ok, err := rt.SetPrototypeOf(target, proto)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(ok), nil
	})

	defMethod(eng, reflectObj, "isExtensible", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		target, err := requireObject(args, 0, "isExtensible")
		if err != nil {
			return value.Value{}, err
		}
		ok, err := rt.IsExtensible(target)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(ok), nil
	})

	defMethod(eng, reflectObj, "preventExtensions", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		target, err := requireObject(args, 0, "preventExtensions")
		if err != nil {
			return value.Value{}, err
		}
		ok, err := rt.PreventExtensions(target)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(ok), nil
	})

	defMethod(eng, reflectObj, "defineProperty", 3, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		target, err := requireObject(args, 0, "defineProperty")
		if err != nil {
			return value.Value{}, err
		}
		k, err := rt.ToKey(argOrUndefined(args, 1))
		if err != nil {
			return value.Value{}, err
		}
		desc, err := toDescriptor(eng, argOrUndefined(args, 2))
		if err != nil {
			return value.Value{}, err
		}
		ok, err := rt.DefineOwnProperty(target, k, desc)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(ok), nil
	})

	defMethod(eng, reflectObj, "getOwnPropertyDescriptor", 2, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		target, err := requireObject(args, 0, "getOwnPropertyDescriptor")
		if err != nil {
			return value.Value{}, err
		}
		k, err := rt.ToKey(argOrUndefined(args, 1))
		if err != nil {
			return value.Value{}, err
		}
		d, ok, err := rt.GetOwnProperty(target, k)
		if err != nil {
			return value.Value{}, err
		}
		if !ok {
			return value.Undefined, nil
		}
		return fromDescriptor(eng, d), nil
	})

	defMethod(eng, reflectObj, "apply", 3, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		target := argOrUndefined(args, 0)
		if !rt.IsCallable(target) {
			return value.Value{}, &value.TypeError{Message: "Reflect.apply target is not a function"}
		}
		thisArg := argOrUndefined(args, 1)
		callArgs, err := iterableToSlice(eng, argOrUndefined(args, 2))
		if err != nil {
			return value.Value{}, err
		}
		return rt.Call(target, thisArg, callArgs)
	})

	defMethod(eng, reflectObj, "construct", 2, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		target := argOrUndefined(args, 0)
		if !rt.IsCallable(target) {
			return value.Value{}, &value.TypeError{Message: "Reflect.construct target is not a constructor"}
		}
		callArgs, err := iterableToSlice(eng, argOrUndefined(args, 1))
		if err != nil {
			return value.Value{}, err
		}
		newTarget := target
		if len(args) > 2 {
			newTarget = args[2]
			if !rt.IsCallable(newTarget) {
				return value.Value{}, &value.TypeError{Message: "Reflect.construct newTarget is not a constructor"}
			}
		}
		return rt.Construct(target, callArgs, newTarget)
	})

	defOwn(eng, eng.GlobalObject, "Reflect", reflectObj, false)

	proxyProto := rt.NewOrdinary(objectProto)
	proxyCtor := newConstructor(eng, "Proxy", 2, proxyProto, func(eng *vm.Engine, this value.Value, args []value.Value, newTarget value.Value) (value.Value, error) {
		if !newTarget.IsObject() {
			return value.Value{}, &value.TypeError{Message: "Constructor Proxy requires 'new'"}
		}
		target := argOrUndefined(args, 0)
		handler := argOrUndefined(args, 1)
		return rt.NewProxy(target, handler)
	})
	defOwn(eng, eng.GlobalObject, "Proxy", proxyCtor, false)
}
