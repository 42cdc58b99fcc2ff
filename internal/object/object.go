package object

import (
	"github.com/oxhq/esengine/internal/heap"
	"github.com/oxhq/esengine/internal/value"
)

// Kind is the closed set of object kinds spec §3.3 enumerates. Each
// kind selects an InternalMethods table; Ordinary behavior is the
// default every other kind overrides selectively (spec §4.3).
type Kind uint8

const (
	KindOrdinary Kind = iota
	KindArray
	KindStringObject
	KindFunction
	KindBoundFunction
	KindArgumentsMapped
	KindArgumentsUnmapped
	KindProxy
	KindBooleanObject
	KindNumberObject
	KindBigIntObject
	KindDate
	KindRegExp
	KindMap
	KindSet
	KindWeakMap
	KindWeakSet
	KindWeakRef
	KindFinalizationRegistry
	KindArrayBuffer
	KindDataView
	KindTypedArray
	KindPromise
	KindGenerator
	KindAsyncGenerator
	KindModuleNamespace
	KindIterator
	KindNative
)

// Object is the representation every heap object shares (spec §3.3).
// Kind-specific payload is attached via Payload, typed per kind by the
// owner (internal/builtins and internal/vm know how to interpret it
// for the kinds they create).
type Object struct {
	self       heap.Handle // this object's own handle, stamped at Alloc time
	kind       Kind
	methods    *InternalMethods
	props      *PropertyMap
	prototype  value.Value // Object or Null
	extensible bool

	Payload any // kind-specific data: function closure, proxy target+handler, etc.
}

// ObjectKind reports the object's kind tag (Ordinary, Array, Proxy,
// ...). Named distinctly from the heap.Cell interface's Kind method
// below, which classifies the cell for the collector, not for
// property-algorithm dispatch.
func (o *Object) ObjectKind() Kind         { return o.kind }
func (o *Object) Properties() *PropertyMap { return o.props }

// Self returns the Value referencing this object, for code (kind
// overrides, builtins) that holds an *Object and needs to recurse
// through the Runtime's Value-taking internal methods.
func (o *Object) Self() value.Value { return value.HeapValue(value.TagObject, value.HeapRef(o.self)) }

// Kind implements heap.Cell.
func (o *Object) Kind() heap.Kind { return heap.KindObject }

// Trace implements heap.Cell: mark the prototype and every property
// value/getter/setter this object directly holds, plus whatever the
// kind-specific Payload reaches via its own Cell implementation (this
// is how closures, array elements, and proxy target/handler pairs stay
// reachable — spec §4.1 "every heap type exposes a trace(visitor)").
func (o *Object) Trace(v *heap.Visitor) {
	markValue(v, o.prototype)
	if o.props != nil {
		for _, k := range o.props.OwnPropertyKeys() {
			d, ok := o.props.Get(k)
			if !ok {
				continue
			}
			if d.IsAccessor() {
				markValue(v, d.Get)
				markValue(v, d.Set)
			} else {
				markValue(v, d.Value)
			}
		}
	}
	if t, ok := o.Payload.(heap.Cell); ok {
		t.Trace(v)
	}
}

func markValue(v *heap.Visitor, val value.Value) {
	switch val.Tag() {
	case value.TagObject, value.TagString, value.TagSymbol, value.TagBigInt:
		v.Mark(heap.Handle(val.Ref()))
	}
}

// InternalMethods is the per-kind dispatch table implementing spec
// §4.3's 11 essential internal methods plus Call/Construct for
// callable kinds. nil entries for Call/Construct mean "not callable" /
// "not a constructor".
type InternalMethods struct {
	GetPrototypeOf    func(rt *Runtime, o *Object) (value.Value, error)
	SetPrototypeOf    func(rt *Runtime, o *Object, proto value.Value) (bool, error)
	IsExtensible      func(rt *Runtime, o *Object) (bool, error)
	PreventExtensions func(rt *Runtime, o *Object) (bool, error)
	GetOwnProperty    func(rt *Runtime, o *Object, key Key) (Descriptor, bool, error)
	DefineOwnProperty func(rt *Runtime, o *Object, key Key, desc Descriptor) (bool, error)
	HasProperty       func(rt *Runtime, o *Object, key Key) (bool, error)
	Get               func(rt *Runtime, o *Object, key Key, receiver value.Value) (value.Value, error)
	Set               func(rt *Runtime, o *Object, key Key, v value.Value, receiver value.Value) (bool, error)
	Delete            func(rt *Runtime, o *Object, key Key) (bool, error)
	OwnPropertyKeys   func(rt *Runtime, o *Object) ([]Key, error)

	Call      func(rt *Runtime, o *Object, this value.Value, args []value.Value) (value.Value, error)
	Construct func(rt *Runtime, o *Object, args []value.Value, newTarget value.Value) (value.Value, error)
}

// ordinaryMethods is the shared default table (spec §4.3 "Ordinary
// behavior is the default"); kind-specific tables are built by copying
// this and overriding individual entries (see kinds.go).
var ordinaryMethods = &InternalMethods{
	GetPrototypeOf:    ordinaryGetPrototypeOf,
	SetPrototypeOf:    ordinarySetPrototypeOf,
	IsExtensible:      ordinaryIsExtensible,
	PreventExtensions: ordinaryPreventExtensions,
	GetOwnProperty:    ordinaryGetOwnProperty,
	DefineOwnProperty: ordinaryDefineOwnProperty,
	HasProperty:       ordinaryHasProperty,
	Get:               ordinaryGet,
	Set:               ordinarySet,
	Delete:            ordinaryDelete,
	OwnPropertyKeys:   ordinaryOwnPropertyKeys,
}

// cloneOrdinary returns a shallow copy of ordinaryMethods for a kind
// override to selectively replace entries on (see kinds.go).
func cloneOrdinary() *InternalMethods {
	m := *ordinaryMethods
	return &m
}

// Runtime bundles the heap and interning tables every object algorithm
// needs (spec §3.9: Realm owns intrinsics and the shape tree; Runtime
// is the narrower slice of that a pure object-internal-methods
// implementation needs, so internal/object does not import
// internal/builtins or internal/vm and create a cycle).
type Runtime struct {
	Heap    *heap.Heap
	Strings *Strings
	Symbols *Symbols
	BigInts *BigInts

	lengthKey Key // cached "length" key, interned once per Runtime
}

// CallHost and ConstructHost are wired by internal/vm (the only
// package that knows how to run bytecode), mirroring the
// value<->object hook pattern in internal/value/convert.go. Until
// registered, calling/constructing any Function-kind object fails.
var (
	CallHost      func(rt *Runtime, fn *Object, this value.Value, args []value.Value) (value.Value, error)
	ConstructHost func(rt *Runtime, fn *Object, args []value.Value, newTarget value.Value) (value.Value, error)
)

// RegisterCallHost wires internal/vm's Call/Construct implementations.
// Called once from internal/vm's engine-construction path.
func RegisterCallHost(call func(rt *Runtime, fn *Object, this value.Value, args []value.Value) (value.Value, error),
	construct func(rt *Runtime, fn *Object, args []value.Value, newTarget value.Value) (value.Value, error)) {
	CallHost = call
	ConstructHost = construct
}

// NewRuntime wires a fresh heap-backed Runtime and registers the
// object package's conversion hooks with internal/value, breaking the
// value<->object import cycle (spec §9 "Global mutable state... per
// engine instance").
func NewRuntime(h *heap.Heap) *Runtime {
	rt := &Runtime{
		Heap:    h,
		Strings: NewStrings(h),
		Symbols: NewSymbols(h),
		BigInts: NewBigInts(h),
	}
	value.RegisterObjectHost(rt.toPrimitive, rt.toObjectValue, rt.Strings)
	value.RegisterBigIntHost(rt.BigInts)
	rt.lengthKey = StringKey(rt.Strings.Intern("length"), "length")
	return rt
}

// NewOrdinary allocates a new ordinary object with the given prototype
// (Null allowed).
func (rt *Runtime) NewOrdinary(prototype value.Value) value.Value {
	return rt.newObject(KindOrdinary, ordinaryMethods, prototype)
}

func (rt *Runtime) newObject(kind Kind, methods *InternalMethods, prototype value.Value) value.Value {
	o := &Object{
		kind:       kind,
		methods:    methods,
		props:      NewPropertyMap(),
		prototype:  prototype,
		extensible: true,
	}
	ref := rt.Heap.Alloc(o)
	o.self = ref
	return value.HeapValue(value.TagObject, value.HeapRef(ref))
}

// Resolve dereferences a Value known to be TagObject into its *Object.
// Returns nil if v is not a live object (callers below only reach
// this after an IsObject() guard upstream).
func (rt *Runtime) Resolve(v value.Value) *Object {
	o, _ := rt.Heap.Get(heap.Handle(v.Ref())).(*Object)
	return o
}

func (rt *Runtime) toPrimitive(v value.Value, hint string) (value.Value, error) {
	return rt.ToPrimitive(v, hint)
}

func (rt *Runtime) toObjectValue(v value.Value) (value.Value, error) {
	return rt.ToObject(v)
}

// --- the 11 internal methods, ordinary default implementations (spec §4.3) ---

func ordinaryGetPrototypeOf(rt *Runtime, o *Object) (value.Value, error) {
	return o.prototype, nil
}

func ordinarySetPrototypeOf(rt *Runtime, o *Object, proto value.Value) (bool, error) {
	if value.SameValue(proto, o.prototype) {
		return true, nil
	}
	if !o.extensible {
		return false, nil
	}
	if proto.IsObject() {
		cur := proto
		for cur.IsObject() {
			co := rt.Resolve(cur)
			if co == nil {
				break
			}
			if co == o {
				return false, nil // cycle
			}
			if co.kind == KindProxy {
				break // cannot walk a Proxy's chain cheaply; defer to its own trap
			}
			next, err := rt.GetPrototypeOf(cur)
			if err != nil {
				return false, err
			}
			cur = next
		}
	}
	o.prototype = proto
	return true, nil
}

func ordinaryIsExtensible(rt *Runtime, o *Object) (bool, error) {
	return o.extensible, nil
}

func ordinaryPreventExtensions(rt *Runtime, o *Object) (bool, error) {
	o.extensible = false
	o.props.PreventExtensions()
	return true, nil
}

func ordinaryGetOwnProperty(rt *Runtime, o *Object, key Key) (Descriptor, bool, error) {
	d, ok := o.props.Get(key)
	return d, ok, nil
}

func ordinaryDefineOwnProperty(rt *Runtime, o *Object, key Key, desc Descriptor) (bool, error) {
	return o.props.Define(key, desc), nil
}

func ordinaryHasProperty(rt *Runtime, o *Object, key Key) (bool, error) {
	if _, ok := o.props.Get(key); ok {
		return true, nil
	}
	proto, err := rt.GetPrototypeOf(o.Self())
	if err != nil {
		return false, err
	}
	if !proto.IsObject() {
		return false, nil
	}
	return rt.HasProperty(proto, key)
}

func ordinaryGet(rt *Runtime, o *Object, key Key, receiver value.Value) (value.Value, error) {
	d, ok := o.props.Get(key)
	if !ok {
		proto, err := rt.GetPrototypeOf(o.Self())
		if err != nil {
			return value.Value{}, err
		}
		if !proto.IsObject() {
			return value.Undefined, nil
		}
		return rt.Get(proto, key, receiver)
	}
	if d.IsAccessor() {
		if d.Get.IsUndefined() {
			return value.Undefined, nil
		}
		return rt.Call(d.Get, receiver, nil)
	}
	return d.Value, nil
}

func ordinarySet(rt *Runtime, o *Object, key Key, v value.Value, receiver value.Value) (bool, error) {
	d, ok := o.props.Get(key)
	if !ok {
		proto, err := rt.GetPrototypeOf(o.Self())
		if err != nil {
			return false, err
		}
		if proto.IsObject() {
			return rt.Set(proto, key, v, receiver)
		}
		d = Descriptor{HasValue: true, Writable: true, Enumerable: true, Configurable: true,
			HasWritable: true, HasEnumerable: true, HasConfigurable: true}
	}
	if d.IsAccessor() {
		if d.Set.IsUndefined() {
			return false, nil
		}
		_, err := rt.Call(d.Set, receiver, []value.Value{v})
		return err == nil, err
	}
	if !d.Writable {
		return false, nil
	}
	if !receiver.IsObject() {
		return false, nil
	}
	recv := rt.Resolve(receiver)
	if recv == nil {
		return false, nil
	}
	if recv != o {
		// Own-property creation happens on the receiver, not o — this
		// is the mechanism that distinguishes self-assignment from
		// prototype-chain mutation (spec §4.3 OrdinarySet).
		existing, ok := recv.props.Get(key)
		if ok {
			if existing.IsAccessor() || !existing.Writable {
				return false, nil
			}
			return recv.methods.DefineOwnProperty(rt, recv, key, Descriptor{HasValue: true, Value: v})
		}
		return recv.methods.DefineOwnProperty(rt, recv, key, Descriptor{
			HasValue: true, Value: v, Writable: true, Enumerable: true, Configurable: true,
			HasWritable: true, HasEnumerable: true, HasConfigurable: true,
		})
	}
	if !ok {
		return o.methods.DefineOwnProperty(rt, o, key, Descriptor{
			HasValue: true, Value: v, Writable: true, Enumerable: true, Configurable: true,
			HasWritable: true, HasEnumerable: true, HasConfigurable: true,
		})
	}
	return o.methods.DefineOwnProperty(rt, o, key, Descriptor{HasValue: true, Value: v})
}

func ordinaryDelete(rt *Runtime, o *Object, key Key) (bool, error) {
	return o.props.Delete(key), nil
}

func ordinaryOwnPropertyKeys(rt *Runtime, o *Object) ([]Key, error) {
	return o.props.OwnPropertyKeys(), nil
}
