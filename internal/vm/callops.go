package vm

import (
	"github.com/oxhq/esengine/internal/compiler"
	"github.com/oxhq/esengine/internal/heap"
	"github.com/oxhq/esengine/internal/object"
	"github.com/oxhq/esengine/internal/scope"
	"github.com/oxhq/esengine/internal/value"
)

// This file supplies every Engine method step() in vm.go dispatches
// to but that has no home in a more specific file: name/property
// resolution, the Call/Construct host registered with internal/object,
// function/argument-object construction, iterator protocol helpers,
// and Promise settlement. Grounded on internal/evaluator's
// visitor-dispatch-to-helper-method idiom (one exported entry point,
// many unexported single-purpose methods it delegates to).

// --- names ---

// getName implements spec ResolveBinding + GetValue for an identifier
// reference. "this" is special-cased since it's a per-frame value, not
// an Environment binding; everything else walks frame.env's chain.
func (eng *Engine) getName(frame *CallFrame, c compiler.Constant, orUndefined bool) (value.Value, error) {
	name := c.Str
	if name == "this" {
		return frame.this, nil
	}
	env, b := frame.env.lookup(name)
	if env == nil {
		if orUndefined {
			return value.Undefined, nil
		}
		return value.Value{}, &value.ReferenceError{Message: name + " is not defined"}
	}
	if b == nil {
		// Object-environment hit (global object, or a with-statement).
		return eng.obj.GetV(env.withObject, eng.keyFor(name))
	}
	if !b.initialized {
		return value.Value{}, &value.ReferenceError{Message: "cannot access '" + name + "' before initialization"}
	}
	return b.value, nil
}

// setName implements spec ResolveBinding + PutValue. An unresolved name
// creates an own property on the global object (spec's sloppy-mode
// implicit global, which the compiler's strict-mode analysis already
// guards against emitting for strict code via OpThrowNewReferenceError
// — not yet a distinct opcode here, so strict mode currently also
// falls through to implicit-global creation; tracked in DESIGN.md).
func (eng *Engine) setName(frame *CallFrame, c compiler.Constant, v value.Value) error {
	name := c.Str
	env, b := frame.env.lookup(name)
	if env == nil {
		_, err := eng.obj.SetV(eng.GlobalObject, eng.keyFor(name), v)
		return err
	}
	if b == nil {
		_, err := eng.obj.SetV(env.withObject, eng.keyFor(name), v)
		return err
	}
	if !b.initialized {
		return &value.ReferenceError{Message: "cannot access '" + name + "' before initialization"}
	}
	if !b.mutable {
		return &value.TypeError{Message: "assignment to constant variable"}
	}
	b.value = v
	return nil
}

// --- properties ---

// checkPropertyBase rejects a nullish base per spec's "cannot convert
// undefined or null to object" GetValue/PutValue precondition, and
// resolves the object to use for the internal-method call: the base
// itself if it's already an object, or its autoboxed wrapper if it's a
// primitive (spec ToObject boxing for member access on primitives).
func (eng *Engine) checkPropertyBase(base value.Value) (value.Value, error) {
	if base.IsNullish() {
		return value.Value{}, &value.TypeError{Message: "cannot read properties of " + base.GoString()}
	}
	if base.IsObject() {
		return base, nil
	}
	return eng.obj.ToObject(base)
}

func (eng *Engine) getProperty(base, keyVal value.Value) (value.Value, error) {
	target, err := eng.checkPropertyBase(base)
	if err != nil {
		return value.Value{}, err
	}
	k, err := eng.obj.ToKey(keyVal)
	if err != nil {
		return value.Value{}, err
	}
	return eng.obj.Get(target, k, base)
}

func (eng *Engine) getPropertyName(base value.Value, name string) (value.Value, error) {
	target, err := eng.checkPropertyBase(base)
	if err != nil {
		return value.Value{}, err
	}
	return eng.obj.Get(target, eng.keyFor(name), base)
}

func (eng *Engine) setProperty(base, keyVal, v value.Value) error {
	target, err := eng.checkPropertyBase(base)
	if err != nil {
		return err
	}
	k, err := eng.obj.ToKey(keyVal)
	if err != nil {
		return err
	}
	_, err = eng.obj.Set(target, k, v, base)
	return err
}

func (eng *Engine) setPropertyName(base value.Value, name string, v value.Value) error {
	target, err := eng.checkPropertyBase(base)
	if err != nil {
		return err
	}
	_, err = eng.obj.Set(target, eng.keyFor(name), v, base)
	return err
}

// defineOwnPropertyName implements an object literal's ordinary
// key: value property (spec §4.2 PropertyDefinitionEvaluation), always
// writable/enumerable/configurable.
func (eng *Engine) defineOwnPropertyName(base value.Value, name string, v value.Value) error {
	_, err := eng.obj.DefineOwnProperty(base, eng.keyFor(name), object.Descriptor{
		HasValue: true, Value: v, Writable: true, Enumerable: true, Configurable: true,
		HasWritable: true, HasEnumerable: true, HasConfigurable: true,
	})
	return err
}

// setAccessor implements an object literal's `get name() {}`/`set
// name(v) {}` property (spec §4.2). Any half (getter/setter) already
// defined by a sibling literal entry at the same key is preserved, so
// `{get x(){...}, set x(v){...}}` ends up with both wired onto one
// accessor descriptor rather than the second clobbering the first.
func (eng *Engine) setAccessor(base value.Value, name string, fn value.Value, isGetter bool) error {
	key := eng.keyFor(name)
	existing, has, err := eng.obj.GetOwnProperty(base, key)
	if err != nil {
		return err
	}
	get, set := value.Undefined, value.Undefined
	if has && existing.IsAccessor() {
		get, set = existing.Get, existing.Set
	}
	if isGetter {
		get = fn
	} else {
		set = fn
	}
	_, err = eng.obj.DefineOwnProperty(base, key, object.Descriptor{
		HasGet: true, Get: get, HasSet: true, Set: set, Enumerable: true, Configurable: true,
		HasEnumerable: true, HasConfigurable: true,
	})
	return err
}

// --- iteration ---

func (eng *Engine) getIterator(iterable value.Value) (value.Value, error) {
	method, err := eng.obj.GetIteratorMethod(iterable, false)
	if err != nil {
		return value.Value{}, err
	}
	if method.IsUndefined() {
		return value.Value{}, &value.TypeError{Message: "value is not iterable"}
	}
	return eng.obj.Call(method, iterable, nil)
}

func (eng *Engine) iteratorNext(it value.Value) (value.Value, error) {
	next, err := eng.obj.GetV(it, eng.keyFor("next"))
	if err != nil {
		return value.Value{}, err
	}
	if !eng.obj.IsCallable(next) {
		return value.Value{}, &value.TypeError{Message: "iterator.next is not a function"}
	}
	return eng.obj.Call(next, it, nil)
}

func (eng *Engine) iteratorResultParts(res value.Value) (bool, value.Value, error) {
	if !res.IsObject() {
		return false, value.Value{}, &value.TypeError{Message: "iterator result is not an object"}
	}
	doneV, err := eng.obj.GetV(res, eng.keyFor("done"))
	if err != nil {
		return false, value.Value{}, err
	}
	v, err := eng.obj.GetV(res, eng.keyFor("value"))
	if err != nil {
		return false, value.Value{}, err
	}
	return value.ToBoolean(doneV), v, nil
}

// iteratorResult builds a plain {value, done} object (spec
// CreateIterResultObject).
func (eng *Engine) iteratorResult(v value.Value, done bool) value.Value {
	o := eng.obj.NewOrdinary(eng.ObjectProto)
	eng.obj.DefineOwnProperty(o, eng.keyFor("value"), object.Descriptor{
		HasValue: true, Value: v, Writable: true, Enumerable: true, Configurable: true,
		HasWritable: true, HasEnumerable: true, HasConfigurable: true,
	})
	eng.obj.DefineOwnProperty(o, eng.keyFor("done"), object.Descriptor{
		HasValue: true, Value: value.Bool(done), Writable: true, Enumerable: true, Configurable: true,
		HasWritable: true, HasEnumerable: true, HasConfigurable: true,
	})
	return o
}

// --- promises ---

// settlePromise implements spec FulfillPromise/RejectPromise: records
// the outcome and enqueues every reaction registered before it settled
// as a microtask (spec §4.6's job queue), in registration order.
func (eng *Engine) settlePromise(capVal, v value.Value, fulfilled bool) {
	o := eng.obj.Resolve(capVal)
	if o == nil {
		return
	}
	p, ok := o.Payload.(*object.PromisePayload)
	if !ok || p.State != object.PromisePending {
		return
	}
	reactions := p.OnFulfill
	if fulfilled {
		p.State = object.PromiseFulfilled
	} else {
		p.State = object.PromiseRejected
		reactions = p.OnReject
	}
	p.Result = v
	p.OnFulfill = nil
	p.OnReject = nil
	for _, r := range reactions {
		reaction := r
		eng.enqueueJob(func() { reaction(v) })
	}
}

// --- native functions ---

// NativeFunc is a host-implemented callable, installed through the
// same FunctionPayload.Closure `any` slot a bytecode *Closure uses
// (object.FunctionPayload never looks inside it) — this is how
// internal/builtins installs intrinsics like Array.prototype.push
// without internal/object or internal/vm needing to know about
// internal/builtins.
type NativeFunc struct {
	Name          string
	IsConstructor bool
	Fn            func(eng *Engine, this value.Value, args []value.Value, newTarget value.Value) (value.Value, error)
}

func (n *NativeFunc) Kind() heap.Kind  { return heap.KindCodeBlock }
func (n *NativeFunc) Trace(*heap.Visitor) {}

// NewNativeFunction wraps fn as a callable (and, if constructible, a
// `new`-able) Function-kind object.
func (eng *Engine) NewNativeFunction(name string, constructible bool, fn func(eng *Engine, this value.Value, args []value.Value, newTarget value.Value) (value.Value, error)) value.Value {
	nf := &NativeFunc{Name: name, IsConstructor: constructible, Fn: fn}
	payload := &object.FunctionPayload{Closure: nf}
	v := eng.obj.NewFunction(eng.FunctionProto, payload, constructible)
	eng.obj.DefineOwnProperty(v, eng.keyFor("name"), object.Descriptor{
		HasValue: true, Value: eng.internStringValue(name), Configurable: true, HasConfigurable: true,
	})
	return v
}

func argOrUndefined(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Undefined
}

// --- call/construct host ---

// hostCall/hostConstruct are registered with internal/object as
// CallHost/ConstructHost (see NewEngine) — the hook-registration
// pattern that lets object.functionCall/functionConstruct reach VM
// execution without internal/object importing internal/vm.
func (eng *Engine) hostCall(rt *object.Runtime, fn *object.Object, this value.Value, args []value.Value) (value.Value, error) {
	payload, ok := fn.Payload.(*object.FunctionPayload)
	if !ok {
		return value.Value{}, &value.TypeError{Message: "not a callable function object"}
	}
	switch c := payload.Closure.(type) {
	case *NativeFunc:
		return c.Fn(eng, this, args, value.Undefined)
	case *Closure:
		return eng.invoke(c, this, args, value.Undefined, fn.Self())
	default:
		return value.Value{}, &value.TypeError{Message: "unrecognized function closure"}
	}
}

func (eng *Engine) hostConstruct(rt *object.Runtime, fn *object.Object, args []value.Value, newTarget value.Value) (value.Value, error) {
	payload, ok := fn.Payload.(*object.FunctionPayload)
	if !ok {
		return value.Value{}, &value.TypeError{Message: "not a constructible function object"}
	}
	fnVal := fn.Self()
	switch c := payload.Closure.(type) {
	case *NativeFunc:
		return c.Fn(eng, value.Undefined, args, newTarget)
	case *Closure:
		protoV, err := eng.obj.GetV(newTarget, eng.keyFor("prototype"))
		if err != nil {
			return value.Value{}, err
		}
		if !protoV.IsObject() {
			protoV = eng.ObjectProto
		}
		this := eng.obj.NewOrdinary(protoV)
		result, err := eng.invoke(c, this, args, newTarget, fnVal)
		if err != nil {
			return value.Value{}, err
		}
		if result.IsObject() {
			return result, nil
		}
		return this, nil
	default:
		return value.Value{}, &value.TypeError{Message: "unrecognized function closure"}
	}
}

// invoke runs c's body in a fresh CallFrame, or (for generator/async
// CodeBlocks) returns the appropriate Generator/Promise object instead
// of running the body to completion immediately.
func (eng *Engine) invoke(c *Closure, this value.Value, args []value.Value, newTarget, fnSelf value.Value) (value.Value, error) {
	frame := eng.newCallFrame(c, this, newTarget, fnSelf, args)
	if c.Code.Flags.Has(compiler.FlagGenerator) {
		return eng.newGeneratorObject(frame), nil
	}
	if c.Code.Flags.Has(compiler.FlagAsync) {
		return eng.runAsync(frame), nil
	}
	v, sig, err := eng.run(frame)
	if err != nil {
		return value.Value{}, err
	}
	if sig != nil {
		return value.Value{}, &value.TypeError{Message: "yield/await used outside a generator/async function"}
	}
	return v, nil
}

// newCallFrame builds the CallFrame for one invocation of c: binds
// positional arguments by name into paramValues (consumed by
// OpDefInitVar once the body's declaration-instantiation prologue
// declares each parameter — see frame.go's doc comment), and, for a
// non-strict simple-parameter-list function, builds the mapped
// `arguments` object the prologue's NeedsArguments branch expects.
func (eng *Engine) newCallFrame(c *Closure, this, newTarget, fnSelf value.Value, args []value.Value) *CallFrame {
	frame := &CallFrame{closure: c, env: c.Env, this: this, newTarget: newTarget, function: fnSelf}
	info := c.Code.FunctionInfo
	if info == nil {
		return frame
	}
	frame.paramValues = make(map[string]value.Value, len(info.ParamNames)+1)
	for i, name := range info.ParamNames {
		if name == "" {
			continue
		}
		frame.paramValues[name] = argOrUndefined(args, i)
	}
	if info.NeedsArguments {
		frame.paramValues["arguments"] = eng.makeArguments(frame, info, args)
	}
	return frame
}

// makeArguments builds the `arguments` object (spec §4.4
// CreateMappedArgumentsObject / CreateUnmappedArgumentsObject). A
// mapped object aliases each indexed slot back to the live parameter
// binding via closures over frame — captured by pointer, so they
// always read/write whatever frame.env is at call time, even though
// the prologue replaces frame.env with a fresh declarative environment
// after this runs.
func (eng *Engine) makeArguments(frame *CallFrame, info *scope.FunctionInfo, args []value.Value) value.Value {
	code := frame.closure.Code
	if !code.Flags.Has(compiler.FlagHasMappedArguments) || code.Flags.Has(compiler.FlagStrict) || info.HasParameterExpressions {
		arr := eng.obj.NewArray(eng.arrayProtoOrObject())
		for i, a := range args {
			eng.obj.DefineOwnProperty(arr, object.IndexKey(uint32(i)), object.Descriptor{
				HasValue: true, Value: a, Writable: true, Enumerable: true, Configurable: true,
				HasWritable: true, HasEnumerable: true, HasConfigurable: true,
			})
		}
		return arr
	}
	names := make([]string, len(info.ParamNames))
	copy(names, info.ParamNames)
	payload := &object.ArgumentsPayload{
		ParamNames: names,
		GetBinding: func(name string) (value.Value, error) {
			_, b := frame.env.lookup(name)
			if b == nil {
				return value.Undefined, nil
			}
			return b.value, nil
		},
		SetBinding: func(name string, v value.Value) error {
			_, b := frame.env.lookup(name)
			if b == nil {
				return nil
			}
			b.value = v
			return nil
		},
	}
	return eng.obj.NewMappedArguments(eng.ObjectProto, payload, args)
}

// --- generators ---

func (eng *Engine) newGeneratorObject(frame *CallFrame) value.Value {
	gctx := &GeneratorContext{frame: frame}
	obj := eng.obj.NewGenerator(eng.GeneratorProto, &object.GeneratorPayload{Context: gctx})
	eng.installGeneratorMethods(obj, gctx)
	return obj
}

func (eng *Engine) installGeneratorMethods(obj value.Value, gctx *GeneratorContext) {
	define := func(name string, fn func(eng *Engine, this value.Value, args []value.Value, newTarget value.Value) (value.Value, error)) {
		nf := eng.NewNativeFunction(name, false, fn)
		eng.obj.DefineOwnProperty(obj, eng.keyFor(name), object.Descriptor{
			HasValue: true, Value: nf, Writable: true, Configurable: true,
			HasWritable: true, HasConfigurable: true,
		})
	}
	define("next", func(eng *Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		return gctx.Next(eng, argOrUndefined(args, 0))
	})
	define("return", func(eng *Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		return gctx.Return(eng, argOrUndefined(args, 0))
	})
	define("throw", func(eng *Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		return gctx.Throw(eng, argOrUndefined(args, 0))
	})
}

// --- functions ---

// makeFunction implements spec OrdinaryFunctionCreate for a bytecode
// function expression/declaration: arrows, methods, generators, and
// async functions are callable-but-not-constructible (spec §4.3); an
// ordinary constructible function additionally gets a fresh
// "prototype" object with a back-pointing "constructor" property.
func (eng *Engine) makeFunction(env *Environment, code *compiler.CodeBlock) value.Value {
	closure := NewClosure(code, env)
	closure.Name = code.Name
	constructible := !code.Flags.Has(compiler.FlagArrow) &&
		!code.Flags.Has(compiler.FlagMethod) &&
		!code.Flags.Has(compiler.FlagGenerator) &&
		!code.Flags.Has(compiler.FlagAsync)
	payload := &object.FunctionPayload{Closure: closure}
	fn := eng.obj.NewFunction(eng.FunctionProto, payload, constructible)

	if constructible {
		proto := eng.obj.NewOrdinary(eng.ObjectProto)
		eng.obj.DefineOwnProperty(proto, eng.keyFor("constructor"), object.Descriptor{
			HasValue: true, Value: fn, Writable: true, Configurable: true,
			HasWritable: true, HasConfigurable: true,
		})
		eng.obj.DefineOwnProperty(fn, eng.keyFor("prototype"), object.Descriptor{
			HasValue: true, Value: proto, Writable: true,
			HasWritable: true,
		})
	}
	eng.obj.DefineOwnProperty(fn, eng.keyFor("name"), object.Descriptor{
		HasValue: true, Value: eng.internStringValue(code.Name), Configurable: true, HasConfigurable: true,
	})
	eng.obj.DefineOwnProperty(fn, eng.keyFor("length"), object.Descriptor{
		HasValue: true, Value: value.Int32(int32(code.Length)), Configurable: true, HasConfigurable: true,
	})
	return fn
}
