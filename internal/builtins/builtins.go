// Package builtins is the C8 Built-in Kernel: it takes a bare
// *vm.Engine (whose FunctionProto/ObjectProto/GeneratorProto are still
// vm.NewEngine's value.Null placeholders and whose global object is
// empty) and installs the intrinsics spec §4.8 requires a conforming
// engine to expose, the way the teacher's internal/registry.Registry
// installs language providers onto an otherwise-empty Registry: one
// Install call, idempotent-by-construction since it only ever runs
// once per Engine at Context-construction time.
package builtins

import (
	"github.com/oxhq/esengine/internal/object"
	"github.com/oxhq/esengine/internal/value"
	"github.com/oxhq/esengine/internal/vm"
)

// Install wires every intrinsic this package knows about onto eng: the
// %Object.prototype%/%Function.prototype%/generator-prototype chain
// vm.NewEngine left as Null, the well-known Symbols internal/object's
// ToPrimitive/iterator hooks consult by registered lookup, the Proxy
// trap codecs, and the global object's own bindings (Object, Array,
// Function's constructor slot is intentionally not globally bound —
// spec leaves `Function` out of scope — Error family, Symbol, Promise,
// Reflect, Proxy, console, and globalThis itself).
func Install(eng *vm.Engine) {
	rt := eng.Runtime()

	// Object.prototype sits at the root of every ordinary prototype
	// chain (spec §4.3); built first since every other prototype below
	// chains up to it.
	objectProto := rt.NewOrdinary(value.Null)
	eng.ObjectProto = objectProto

	// Function.prototype is itself callable-but-returns-undefined (spec
	// §4.3 %Function.prototype%), with Object.prototype as its own
	// prototype.
	functionProto := eng.NewNativeFunction("", false, func(*vm.Engine, value.Value, []value.Value, value.Value) (value.Value, error) {
		return value.Undefined, nil
	})
	rt.SetPrototypeOf(functionProto, objectProto)
	eng.FunctionProto = functionProto

	generatorProto := rt.NewOrdinary(objectProto)
	eng.GeneratorProto = generatorProto

	installSymbols(eng, objectProto)
	installObject(eng, objectProto)
	installFunction(eng, functionProto)
	arrayProto := installArray(eng, objectProto)
	installIterators(eng, objectProto, arrayProto, generatorProto)
	installErrors(eng, objectProto)
	promiseProto := installPromise(eng, objectProto)
	installReflectProxy(eng, objectProto)
	installConsole(eng, objectProto)

	eng.ArrayProto = arrayProto
	eng.PromiseProto = promiseProto

	defOwn(eng, eng.GlobalObject, "globalThis", eng.GlobalObject, false)
	defOwn(eng, eng.GlobalObject, "undefined", value.Undefined, false)
	defOwn(eng, eng.GlobalObject, "NaN", value.Number(nan()), false)
	defOwn(eng, eng.GlobalObject, "Infinity", value.Number(inf()), false)

	defMethod(eng, eng.GlobalObject, "queueMicrotask", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		cb := argOrUndefined(args, 0)
		if !rt.IsCallable(cb) {
			return value.Value{}, &value.TypeError{Message: "queueMicrotask argument must be a function"}
		}
		eng.EnqueueJob(func() { rt.Call(cb, value.Undefined, nil) })
		return value.Undefined, nil
	})
}

func nan() float64 { var z float64; return z / z }
func inf() float64 { return 1 / zero() }
func zero() float64 { var z float64; return z }

// --- shared helpers every installXxx file uses ---

func key(eng *vm.Engine, name string) object.Key {
	rt := eng.Runtime()
	return object.StringKey(rt.Strings.Intern(name), name)
}

func str(eng *vm.Engine, s string) value.Value {
	return value.HeapValue(value.TagString, eng.Runtime().Strings.Intern(s))
}

// defOwn defines a plain own data property: writable+configurable
// always, enumerable only when the caller asks (own-data properties of
// a global constructor/prototype are non-enumerable per spec §4.8;
// genuine instance/data-literal properties pass enumerable=true).
func defOwn(eng *vm.Engine, target value.Value, name string, v value.Value, enumerable bool) {
	eng.Runtime().DefineOwnProperty(target, key(eng, name), object.Descriptor{
		HasValue: true, Value: v, Writable: true, Configurable: true, Enumerable: enumerable,
		HasWritable: true, HasConfigurable: true, HasEnumerable: true,
	})
}

func defOwnSymbol(eng *vm.Engine, target value.Value, k object.Key, v value.Value) {
	eng.Runtime().DefineOwnProperty(target, k, object.Descriptor{
		HasValue: true, Value: v, Writable: true, Configurable: true,
		HasWritable: true, HasConfigurable: true, HasEnumerable: true,
	})
}

type nativeFn = func(eng *vm.Engine, this value.Value, args []value.Value, newTarget value.Value) (value.Value, error)

// defMethod installs a non-enumerable method, the convention every
// built-in prototype/constructor method follows (spec §4.8 "properties
// of the intrinsic objects... are all writable, non-enumerable,
// configurable unless otherwise specified").
func defMethod(eng *vm.Engine, target value.Value, name string, length int, fn nativeFn) value.Value {
	f := eng.NewNativeFunction(name, false, fn)
	defOwn(eng, f, "length", value.Int32(int32(length)), false)
	defOwn(eng, target, name, f, false)
	return f
}

func defMethodSymbol(eng *vm.Engine, target value.Value, k object.Key, name string, length int, fn nativeFn) value.Value {
	f := eng.NewNativeFunction(name, false, fn)
	defOwn(eng, f, "length", value.Int32(int32(length)), false)
	defOwnSymbol(eng, target, k, f)
	return f
}

func argOrUndefined(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Undefined
}

// newConstructor builds a constructible native function and gives it
// the standard `.prototype`/`prototype.constructor` cross-links (spec
// §4.8's CreateBuiltinFunction + prototype-wiring idiom every `%Xyz%`
// intrinsic follows).
func newConstructor(eng *vm.Engine, name string, length int, proto value.Value, fn nativeFn) value.Value {
	ctor := eng.NewNativeFunction(name, true, fn)
	defOwn(eng, ctor, "length", value.Int32(int32(length)), false)
	defOwn(eng, ctor, "prototype", proto, false)
	defOwn(eng, proto, "constructor", ctor, false)
	return ctor
}
