package object

import (
	"github.com/oxhq/esengine/internal/heap"
	"github.com/oxhq/esengine/internal/value"
)

// This file implements the exotic internal-method overrides spec
// §4.3 calls out by name: Array (length invariant), String
// (indexed character exposure), Proxy (full trap forwarding),
// Arguments (mapped parameter aliasing), plus Promise state storage.
// BoundFunction lives in functions.go and TypedArray in typedarray.go.

// --- Array ---

// Arrays keep their elements as ordinary indexed data properties
// (spec §4.3 allows a dense-array fast path internally, but exotic
// behavior only needs the length invariant enforced through
// DefineOwnProperty); there is no separate Payload type for KindArray.
var arrayMethods = func() *InternalMethods {
	m := cloneOrdinary()
	m.DefineOwnProperty = arrayDefineOwnProperty
	return m
}()

func lengthKey(rt *Runtime) Key { return rt.lengthKey }

// arrayLengthOf reads a "length" descriptor's value as a uint32,
// covering both the Int32 fast-path storage and the Float64 storage a
// length in [2^31, 2^32-1) narrows to (spec §4.3: length is always a
// Uint32, but Value.Number only picks Int32 when it fits signed range).
func arrayLengthOf(d Descriptor) uint32 {
	if !d.HasValue || !d.Value.IsNumber() {
		return 0
	}
	return uint32(d.Value.AsFloat64())
}

// NewArray allocates an Array exotic object with prototype proto and
// an initial length of 0 (spec §4.3 ArrayCreate).
func (rt *Runtime) NewArray(proto value.Value) value.Value {
	v := rt.newObject(KindArray, arrayMethods, proto)
	o := rt.Resolve(v)
	o.props.Define(lengthKey(rt), Descriptor{
		HasValue: true, Value: value.Int32(0), Writable: true,
		HasWritable: true, HasEnumerable: true, HasConfigurable: true,
	})
	return v
}

func arrayDefineOwnProperty(rt *Runtime, o *Object, key Key, desc Descriptor) (bool, error) {
	lk := lengthKey(rt)
	if key == lk {
		return arraySetLength(rt, o, desc)
	}
	if key.kind == KeyIndex {
		cur, _ := o.props.Get(lk)
		curLen := arrayLengthOf(cur)
		if key.idx >= curLen {
			if cur.HasValue && !cur.Writable {
				return false, nil
			}
			ok := o.props.Define(key, desc)
			if !ok {
				return false, nil
			}
			o.props.Define(lk, Descriptor{HasValue: true, Value: value.Number(float64(key.idx) + 1)})
			return true, nil
		}
	}
	return o.props.Define(key, desc), nil
}

func arraySetLength(rt *Runtime, o *Object, desc Descriptor) (bool, error) {
	if !desc.HasValue {
		return o.props.Define(lengthKey(rt), desc), nil
	}
	newLen, err := value.ToUint32(desc.Value)
	if err != nil {
		return false, err
	}
	numVal, err := value.ToNumber(desc.Value)
	if err != nil {
		return false, err
	}
	if float64(newLen) != numVal.AsFloat64() {
		return false, &value.RangeError{Message: "Invalid array length"}
	}
	cur, _ := o.props.Get(lengthKey(rt))
	oldLen := arrayLengthOf(cur)
	if newLen < oldLen {
		// Delete every own index property >= newLen (spec §4.3); walk
		// descending so a non-configurable hole stops the shrink at the
		// correct boundary and still commits the partial length update.
		keys := o.props.OwnPropertyKeys()
		for i := len(keys) - 1; i >= 0; i-- {
			k := keys[i]
			if k.kind != KeyIndex || k.idx < newLen {
				continue
			}
			if !o.props.Delete(k) {
				o.props.Define(lengthKey(rt), Descriptor{HasValue: true, Value: value.Number(float64(k.idx) + 1)})
				return false, nil
			}
		}
	}
	merged := desc
	merged.Value = value.Number(float64(newLen))
	return o.props.Define(lengthKey(rt), merged), nil
}

// --- String wrapper object ---

func (rt *Runtime) newStringWrapper(primitive value.Value) value.Value {
	v := rt.newObject(KindStringObject, stringObjectMethods, value.Null)
	o := rt.Resolve(v)
	o.Payload = &PrimitiveWrapper{Value: primitive}
	s := rt.Strings.Lookup(primitive.Ref())
	o.props.Define(lengthKey(rt), Descriptor{
		HasValue: true, Value: value.Number(float64(value.UTF16Length(s))),
		HasWritable: true, HasEnumerable: true, HasConfigurable: true,
	})
	return v
}

var stringObjectMethods = func() *InternalMethods {
	m := cloneOrdinary()
	m.GetOwnProperty = stringGetOwnProperty
	m.OwnPropertyKeys = stringOwnPropertyKeys
	return m
}()

func stringGetOwnProperty(rt *Runtime, o *Object, key Key) (Descriptor, bool, error) {
	if key.kind == KeyIndex {
		s := rt.Strings.Lookup(o.Payload.(*PrimitiveWrapper).Value.Ref())
		if ch, ok := value.UTF16CharAt(s, int64(key.idx)); ok {
			return Descriptor{
				HasValue: true, Value: value.HeapValue(value.TagString, rt.Strings.Intern(ch)),
				HasEnumerable: true, Enumerable: true,
				HasConfigurable: true, HasWritable: true,
			}, true, nil
		}
	}
	return ordinaryGetOwnProperty(rt, o, key)
}

func stringOwnPropertyKeys(rt *Runtime, o *Object) ([]Key, error) {
	s := rt.Strings.Lookup(o.Payload.(*PrimitiveWrapper).Value.Ref())
	n := value.UTF16Length(s)
	keys := make([]Key, 0, n)
	for i := int64(0); i < n; i++ {
		keys = append(keys, IndexKey(uint32(i)))
	}
	own, err := ordinaryOwnPropertyKeys(rt, o)
	if err != nil {
		return nil, err
	}
	return append(keys, own...), nil
}

// --- Proxy ---

// ProxyPayload holds a Proxy's target and handler; both stay live as
// ordinary Values so the GC traces through Object.Trace's Payload
// type-switch (it implements heap.Cell below).
type ProxyPayload struct {
	Target  value.Value
	Handler value.Value
}

func (p *ProxyPayload) Kind() heap.Kind { return heap.KindObject }
func (p *ProxyPayload) Trace(v *heap.Visitor) {
	markValue(v, p.Target)
	markValue(v, p.Handler)
}

// NewProxy allocates a Proxy exotic object (spec §4.3, full trap
// forwarding): every internal method first looks up the matching trap
// on handler and, if present and callable, defers to it; otherwise it
// forwards to the same internal method on target (the "no trap ->
// forward to target" invariant every Proxy trap shares).
func (rt *Runtime) NewProxy(target, handler value.Value) (value.Value, error) {
	if !target.IsObject() || !handler.IsObject() {
		return value.Value{}, &value.TypeError{Message: "Cannot create proxy with a non-object as target or handler"}
	}
	v := rt.newObject(KindProxy, proxyMethods, value.Null)
	o := rt.Resolve(v)
	o.Payload = &ProxyPayload{Target: target, Handler: handler}
	return v, nil
}

var proxyMethods = &InternalMethods{
	GetPrototypeOf:    proxyGetPrototypeOf,
	SetPrototypeOf:    proxySetPrototypeOf,
	IsExtensible:      proxyIsExtensible,
	PreventExtensions: proxyPreventExtensions,
	GetOwnProperty:    proxyGetOwnProperty,
	DefineOwnProperty: proxyDefineOwnProperty,
	HasProperty:       proxyHasProperty,
	Get:               proxyGet,
	Set:               proxySet,
	Delete:            proxyDelete,
	OwnPropertyKeys:   proxyOwnPropertyKeys,
	Call:              proxyCall,
	Construct:         proxyConstruct,
}

func proxyTrap(rt *Runtime, o *Object, name string) (value.Value, *ProxyPayload, error) {
	p := o.Payload.(*ProxyPayload)
	trap, err := rt.GetV(p.Handler, StringKey(rt.Strings.Intern(name), name))
	if err != nil {
		return value.Value{}, p, err
	}
	if trap.IsUndefined() || trap.IsNull() {
		return value.Value{}, p, nil
	}
	if !rt.IsCallable(trap) {
		return value.Value{}, p, &value.TypeError{Message: "proxy trap '" + name + "' is not a function"}
	}
	return trap, p, nil
}

func proxyGetPrototypeOf(rt *Runtime, o *Object) (value.Value, error) {
	trap, p, err := proxyTrap(rt, o, "getPrototypeOf")
	if err != nil {
		return value.Value{}, err
	}
	if trap.IsUndefined() {
		return rt.GetPrototypeOf(p.Target)
	}
	return rt.Call(trap, p.Handler, []value.Value{p.Target})
}

func proxySetPrototypeOf(rt *Runtime, o *Object, proto value.Value) (bool, error) {
	trap, p, err := proxyTrap(rt, o, "setPrototypeOf")
	if err != nil {
		return false, err
	}
	if trap.IsUndefined() {
		return rt.SetPrototypeOf(p.Target, proto)
	}
	res, err := rt.Call(trap, p.Handler, []value.Value{p.Target, proto})
	if err != nil {
		return false, err
	}
	return value.ToBoolean(res), nil
}

func proxyIsExtensible(rt *Runtime, o *Object) (bool, error) {
	trap, p, err := proxyTrap(rt, o, "isExtensible")
	if err != nil {
		return false, err
	}
	if trap.IsUndefined() {
		return rt.IsExtensible(p.Target)
	}
	res, err := rt.Call(trap, p.Handler, []value.Value{p.Target})
	if err != nil {
		return false, err
	}
	return value.ToBoolean(res), nil
}

func proxyPreventExtensions(rt *Runtime, o *Object) (bool, error) {
	trap, p, err := proxyTrap(rt, o, "preventExtensions")
	if err != nil {
		return false, err
	}
	if trap.IsUndefined() {
		return rt.PreventExtensions(p.Target)
	}
	res, err := rt.Call(trap, p.Handler, []value.Value{p.Target})
	if err != nil {
		return false, err
	}
	return value.ToBoolean(res), nil
}

func proxyGetOwnProperty(rt *Runtime, o *Object, key Key) (Descriptor, bool, error) {
	trap, p, err := proxyTrap(rt, o, "getOwnPropertyDescriptor")
	if err != nil {
		return Descriptor{}, false, err
	}
	if trap.IsUndefined() {
		return rt.GetOwnProperty(p.Target, key)
	}
	// Simplified: a full implementation round-trips the descriptor
	// through a JS object (FromPropertyDescriptor/ToPropertyDescriptor);
	// that conversion lives in internal/builtins once Object's static
	// methods exist, so the trap result here is consulted only for
	// presence via a builtins-registered decoder.
	if descriptorTrapDecoder == nil {
		return rt.GetOwnProperty(p.Target, key)
	}
	res, err := rt.Call(trap, p.Handler, []value.Value{p.Target, keyToValue(rt, key)})
	if err != nil {
		return Descriptor{}, false, err
	}
	if res.IsUndefined() {
		return Descriptor{}, false, nil
	}
	d, err := descriptorTrapDecoder(rt, res)
	return d, err == nil, err
}

func proxyDefineOwnProperty(rt *Runtime, o *Object, key Key, desc Descriptor) (bool, error) {
	trap, p, err := proxyTrap(rt, o, "defineProperty")
	if err != nil {
		return false, err
	}
	if trap.IsUndefined() {
		return rt.DefineOwnProperty(p.Target, key, desc)
	}
	if descriptorTrapEncoder == nil {
		return rt.DefineOwnProperty(p.Target, key, desc)
	}
	descVal := descriptorTrapEncoder(rt, desc)
	res, err := rt.Call(trap, p.Handler, []value.Value{p.Target, keyToValue(rt, key), descVal})
	if err != nil {
		return false, err
	}
	return value.ToBoolean(res), nil
}

func proxyHasProperty(rt *Runtime, o *Object, key Key) (bool, error) {
	trap, p, err := proxyTrap(rt, o, "has")
	if err != nil {
		return false, err
	}
	if trap.IsUndefined() {
		return rt.HasProperty(p.Target, key)
	}
	res, err := rt.Call(trap, p.Handler, []value.Value{p.Target, keyToValue(rt, key)})
	if err != nil {
		return false, err
	}
	return value.ToBoolean(res), nil
}

func proxyGet(rt *Runtime, o *Object, key Key, receiver value.Value) (value.Value, error) {
	trap, p, err := proxyTrap(rt, o, "get")
	if err != nil {
		return value.Value{}, err
	}
	if trap.IsUndefined() {
		return rt.Get(p.Target, key, receiver)
	}
	return rt.Call(trap, p.Handler, []value.Value{p.Target, keyToValue(rt, key), receiver})
}

func proxySet(rt *Runtime, o *Object, key Key, v, receiver value.Value) (bool, error) {
	trap, p, err := proxyTrap(rt, o, "set")
	if err != nil {
		return false, err
	}
	if trap.IsUndefined() {
		return rt.Set(p.Target, key, v, receiver)
	}
	res, err := rt.Call(trap, p.Handler, []value.Value{p.Target, keyToValue(rt, key), v, receiver})
	if err != nil {
		return false, err
	}
	return value.ToBoolean(res), nil
}

func proxyDelete(rt *Runtime, o *Object, key Key) (bool, error) {
	trap, p, err := proxyTrap(rt, o, "deleteProperty")
	if err != nil {
		return false, err
	}
	if trap.IsUndefined() {
		return rt.Delete(p.Target, key)
	}
	res, err := rt.Call(trap, p.Handler, []value.Value{p.Target, keyToValue(rt, key)})
	if err != nil {
		return false, err
	}
	return value.ToBoolean(res), nil
}

func proxyOwnPropertyKeys(rt *Runtime, o *Object) ([]Key, error) {
	trap, p, err := proxyTrap(rt, o, "ownKeys")
	if err != nil {
		return nil, err
	}
	if trap.IsUndefined() {
		return rt.OwnPropertyKeys(p.Target)
	}
	// Decoding the trap's returned array of keys back into []Key
	// requires the Array exotic accessors internal/builtins builds atop
	// this package (it knows how to walk a JS array's indices). Until
	// that decoder is registered, fall back to the target's own keys —
	// observably wrong for a key-filtering proxy, right for the common
	// "transparent logging proxy" case.
	if ownKeysDecoder == nil {
		return rt.OwnPropertyKeys(p.Target)
	}
	res, err := rt.Call(trap, p.Handler, []value.Value{p.Target})
	if err != nil {
		return nil, err
	}
	return ownKeysDecoder(rt, res)
}

func proxyCall(rt *Runtime, o *Object, this value.Value, args []value.Value) (value.Value, error) {
	p := o.Payload.(*ProxyPayload)
	trap, err := rt.GetV(p.Handler, StringKey(rt.Strings.Intern("apply"), "apply"))
	if err != nil {
		return value.Value{}, err
	}
	if trap.IsUndefined() || !rt.IsCallable(trap) {
		return rt.Call(p.Target, this, args)
	}
	if argsArrayEncoder == nil {
		return rt.Call(p.Target, this, args)
	}
	return rt.Call(trap, p.Handler, []value.Value{p.Target, this, argsArrayEncoder(rt, args)})
}

func proxyConstruct(rt *Runtime, o *Object, args []value.Value, newTarget value.Value) (value.Value, error) {
	p := o.Payload.(*ProxyPayload)
	trap, err := rt.GetV(p.Handler, StringKey(rt.Strings.Intern("construct"), "construct"))
	if err != nil {
		return value.Value{}, err
	}
	if trap.IsUndefined() || !rt.IsCallable(trap) {
		return rt.Construct(p.Target, args, newTarget)
	}
	if argsArrayEncoder == nil {
		return rt.Construct(p.Target, args, newTarget)
	}
	return rt.Call(trap, p.Handler, []value.Value{p.Target, argsArrayEncoder(rt, args), newTarget})
}

// The encode/decode hooks below bridge Proxy traps (which exchange JS
// Arrays and property-descriptor objects, not Go slices/structs) to
// internal/builtins, which owns Array/Object construction. Registered
// once the Realm bootstraps its intrinsics.
var (
	descriptorTrapDecoder func(rt *Runtime, v value.Value) (Descriptor, error)
	descriptorTrapEncoder func(rt *Runtime, d Descriptor) value.Value
	ownKeysDecoder        func(rt *Runtime, v value.Value) ([]Key, error)
	argsArrayEncoder      func(rt *Runtime, args []value.Value) value.Value
)

// RegisterProxyCodecs wires the Array/Object-shaped encode/decode
// helpers Proxy traps need; called once from internal/builtins.
func RegisterProxyCodecs(
	decodeDescriptor func(rt *Runtime, v value.Value) (Descriptor, error),
	encodeDescriptor func(rt *Runtime, d Descriptor) value.Value,
	decodeOwnKeys func(rt *Runtime, v value.Value) ([]Key, error),
	encodeArgsArray func(rt *Runtime, args []value.Value) value.Value,
) {
	descriptorTrapDecoder = decodeDescriptor
	descriptorTrapEncoder = encodeDescriptor
	ownKeysDecoder = decodeOwnKeys
	argsArrayEncoder = encodeArgsArray
}

func keyToValue(rt *Runtime, key Key) value.Value {
	switch key.kind {
	case KeySymbol:
		return value.HeapValue(value.TagSymbol, key.sym)
	case KeyIndex:
		return value.HeapValue(value.TagString, rt.Strings.Intern(indexToString(key.idx)))
	default:
		return value.HeapValue(value.TagString, key.str)
	}
}

func indexToString(i uint32) string {
	if i == 0 {
		return "0"
	}
	var buf [10]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[pos:])
}

// --- Arguments (mapped) ---

// ArgumentsPayload ties an Arguments object's indexed slots back to
// the call frame's parameter bindings, for non-strict functions whose
// parameter list is simple (spec §4.3 "mapped arguments object... each
// indexed property up to the parameter count aliases the
// corresponding local binding").
type ArgumentsPayload struct {
	// ParamNames[i] is the local binding name aliased by arguments[i];
	// "" for indices beyond the mapped parameter count (rest params,
	// extra arguments).
	ParamNames []string
	// GetBinding/SetBinding are closures into the call frame's
	// Environment, supplied by internal/vm at construction time.
	GetBinding func(name string) (value.Value, error)
	SetBinding func(name string, v value.Value) error
}

func (p *ArgumentsPayload) Kind() heap.Kind { return heap.KindObject }

// Trace is a no-op: the aliased bindings live in the call frame's
// Environment, which the VM traces independently; this payload only
// holds closures into it, not heap references of its own.
func (p *ArgumentsPayload) Trace(v *heap.Visitor) {}

var mappedArgumentsMethods = func() *InternalMethods {
	m := cloneOrdinary()
	m.Get = mappedArgumentsGet
	m.Set = mappedArgumentsSet
	m.DefineOwnProperty = mappedArgumentsDefine
	m.Delete = mappedArgumentsDelete
	return m
}()

// NewMappedArguments allocates a mapped Arguments exotic object
// (non-strict, simple parameter list functions only).
func (rt *Runtime) NewMappedArguments(proto value.Value, payload *ArgumentsPayload, values []value.Value) value.Value {
	v := rt.newObject(KindArgumentsMapped, mappedArgumentsMethods, proto)
	o := rt.Resolve(v)
	o.Payload = payload
	for i, val := range values {
		o.props.Define(IndexKey(uint32(i)), Descriptor{
			HasValue: true, Value: val, Writable: true, Enumerable: true, Configurable: true,
			HasWritable: true, HasEnumerable: true, HasConfigurable: true,
		})
	}
	lengthK := lengthKey(rt)
	o.props.Define(lengthK, Descriptor{
		HasValue: true, Value: value.Number(float64(len(values))), Writable: true, Configurable: true,
		HasWritable: true, HasEnumerable: true, HasConfigurable: true,
	})
	return v
}

func mappedParam(o *Object, key Key) (string, bool) {
	p := o.Payload.(*ArgumentsPayload)
	if key.kind != KeyIndex || int(key.idx) >= len(p.ParamNames) {
		return "", false
	}
	name := p.ParamNames[key.idx]
	return name, name != ""
}

func mappedArgumentsGet(rt *Runtime, o *Object, key Key, receiver value.Value) (value.Value, error) {
	if name, ok := mappedParam(o, key); ok {
		return o.Payload.(*ArgumentsPayload).GetBinding(name)
	}
	return ordinaryGet(rt, o, key, receiver)
}

func mappedArgumentsSet(rt *Runtime, o *Object, key Key, v, receiver value.Value) (bool, error) {
	if name, ok := mappedParam(o, key); ok {
		if err := o.Payload.(*ArgumentsPayload).SetBinding(name, v); err != nil {
			return false, err
		}
	}
	return ordinarySet(rt, o, key, v, receiver)
}

func mappedArgumentsDefine(rt *Runtime, o *Object, key Key, desc Descriptor) (bool, error) {
	name, mapped := mappedParam(o, key)
	ok, err := ordinaryDefineOwnProperty(rt, o, key, desc)
	if err != nil || !ok {
		return ok, err
	}
	if mapped {
		if desc.HasValue {
			if err := o.Payload.(*ArgumentsPayload).SetBinding(name, desc.Value); err != nil {
				return false, err
			}
		}
		if desc.IsAccessor() || (desc.HasWritable && !desc.Writable) {
			unmapArgument(o, key)
		}
	}
	return true, nil
}

func mappedArgumentsDelete(rt *Runtime, o *Object, key Key) (bool, error) {
	unmapArgument(o, key)
	return ordinaryDelete(rt, o, key)
}

func unmapArgument(o *Object, key Key) {
	p := o.Payload.(*ArgumentsPayload)
	if key.kind == KeyIndex && int(key.idx) < len(p.ParamNames) {
		p.ParamNames[key.idx] = ""
	}
}

// --- Promise ---

// PromiseState is the three-state lifecycle every Promise tracks (spec
// §4.6 "PromiseState"). internal/vm drives transitions via the job
// queue it owns (await/then scheduling); this package only stores the
// resulting state so Get/Is-callable style reflection over a Promise
// stays local to internal/object.
type PromiseState uint8

const (
	PromisePending PromiseState = iota
	PromiseFulfilled
	PromiseRejected
)

// PromisePayload holds a Promise's settled state/value and the
// reaction callbacks registered before it settled. internal/vm appends
// to Fulfill/Reject as `.then` calls come in and drains them once
// Resolve/Reject runs.
type PromisePayload struct {
	State  PromiseState
	Result value.Value

	OnFulfill []func(value.Value)
	OnReject  []func(value.Value)
}

func (p *PromisePayload) Kind() heap.Kind { return heap.KindObject }
func (p *PromisePayload) Trace(v *heap.Visitor) { markValue(v, p.Result) }

// NewPromise allocates a pending Promise object. internal/vm settles it
// via the PromisePayload it returns.
func (rt *Runtime) NewPromise(proto value.Value) (value.Value, *PromisePayload) {
	v := rt.newObject(KindPromise, ordinaryMethods, proto)
	o := rt.Resolve(v)
	p := &PromisePayload{State: PromisePending}
	o.Payload = p
	return v, p
}
