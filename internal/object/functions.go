package object

import (
	"github.com/oxhq/esengine/internal/heap"
	"github.com/oxhq/esengine/internal/value"
)

// FunctionPayload is a Function-kind object's call target: the opaque
// closure internal/vm builds from a CodeBlock plus captured
// Environment. internal/object never looks inside Closure — it only
// routes Call/Construct to CallHost/ConstructHost, which internal/vm
// registers knowing how to interpret it. Closure is expected to
// implement heap.Cell itself (the VM's Environment chain it closes
// over needs tracing); Trace below reaches it structurally without
// internal/object needing to import internal/vm.
type FunctionPayload struct {
	Closure       any // *vm.Closure, opaque here
	IsConstructor bool
	HomeObject    value.Value // for super property lookups; Undefined if none
}

func (p *FunctionPayload) Kind() heap.Kind { return heap.KindObject }

func (p *FunctionPayload) Trace(v *heap.Visitor) {
	markValue(v, p.HomeObject)
	if c, ok := p.Closure.(heap.Cell); ok {
		c.Trace(v)
	}
}

var functionMethods = func() *InternalMethods {
	m := cloneOrdinary()
	m.Call = functionCall
	return m
}()

var constructibleFunctionMethods = func() *InternalMethods {
	m := cloneOrdinary()
	m.Call = functionCall
	m.Construct = functionConstruct
	return m
}()

// NewFunction allocates a Function-kind object. constructible selects
// whether Construct is wired (arrow functions, methods, and generators
// are callable-but-not-constructible per spec §4.3).
func (rt *Runtime) NewFunction(proto value.Value, payload *FunctionPayload, constructible bool) value.Value {
	methods := functionMethods
	if constructible {
		methods = constructibleFunctionMethods
	}
	v := rt.newObject(KindFunction, methods, proto)
	o := rt.Resolve(v)
	o.Payload = payload
	return v
}

func functionCall(rt *Runtime, o *Object, this value.Value, args []value.Value) (value.Value, error) {
	if CallHost == nil {
		return value.Value{}, &value.TypeError{Message: "no call host registered"}
	}
	return CallHost(rt, o, this, args)
}

func functionConstruct(rt *Runtime, o *Object, args []value.Value, newTarget value.Value) (value.Value, error) {
	if ConstructHost == nil {
		return value.Value{}, &value.TypeError{Message: "no construct host registered"}
	}
	return ConstructHost(rt, o, args, newTarget)
}

// BoundFunctionPayload is the result of Function.prototype.bind (spec
// §4.3 BoundFunctionCreate): calling/constructing it prepends
// BoundArgs and forces This (for Call only — Construct ignores
// BoundThis per spec).
type BoundFunctionPayload struct {
	Target    value.Value
	BoundThis value.Value
	BoundArgs []value.Value
}

func (p *BoundFunctionPayload) Kind() heap.Kind { return heap.KindObject }

func (p *BoundFunctionPayload) Trace(v *heap.Visitor) {
	markValue(v, p.Target)
	markValue(v, p.BoundThis)
	for _, a := range p.BoundArgs {
		markValue(v, a)
	}
}

var boundFunctionMethods = func() *InternalMethods {
	m := cloneOrdinary()
	m.Call = boundFunctionCall
	m.Construct = boundFunctionConstruct
	return m
}()

// NewBoundFunction wraps target. Pass constructible=false when target
// is not itself a constructor, leaving Construct unwired (calling
// `new` on the bound function must then fail the same way calling
// `new` on target would).
func (rt *Runtime) NewBoundFunction(proto value.Value, payload *BoundFunctionPayload, constructible bool) value.Value {
	methods := boundFunctionMethods
	if !constructible {
		m := cloneOrdinary()
		m.Call = boundFunctionCall
		methods = m
	}
	v := rt.newObject(KindBoundFunction, methods, proto)
	o := rt.Resolve(v)
	o.Payload = payload
	return v
}

func boundFunctionCall(rt *Runtime, o *Object, this value.Value, args []value.Value) (value.Value, error) {
	p := o.Payload.(*BoundFunctionPayload)
	full := append(append([]value.Value{}, p.BoundArgs...), args...)
	return rt.Call(p.Target, p.BoundThis, full)
}

func boundFunctionConstruct(rt *Runtime, o *Object, args []value.Value, newTarget value.Value) (value.Value, error) {
	p := o.Payload.(*BoundFunctionPayload)
	full := append(append([]value.Value{}, p.BoundArgs...), args...)
	if value.SameValue(newTarget, o.Self()) {
		newTarget = p.Target
	}
	return rt.Construct(p.Target, full, newTarget)
}
