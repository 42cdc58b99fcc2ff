package object

import "github.com/oxhq/esengine/internal/heap"
import "github.com/oxhq/esengine/internal/value"

// ModuleNamespacePayload backs the Module Namespace exotic object
// (spec §4.7's `import * as ns`): GetBinding reads straight through to
// the owning Environment's live binding cell (the same aliasing
// AliasBinding installs for named imports), so a namespace property
// read always observes the exporting module's current value, never a
// snapshot taken at namespace-creation time.
type ModuleNamespacePayload struct {
	// Names lists every exported binding name this namespace exposes,
	// in the order internal/module assembled them (local exports, then
	// indirect, then star-collected, per spec's ExportedNames).
	Names []string
	// GetBinding is supplied by internal/module at construction time,
	// closing over the module's own Environment; it returns a
	// ReferenceError for a binding still in its TDZ.
	GetBinding func(name string) (value.Value, error)
}

func (p *ModuleNamespacePayload) Kind() heap.Kind { return heap.KindObject }
func (p *ModuleNamespacePayload) Trace(v *heap.Visitor) {}

func (p *ModuleNamespacePayload) has(name string) bool {
	for _, n := range p.Names {
		if n == name {
			return true
		}
	}
	return false
}

func moduleNamespaceGet(rt *Runtime, o *Object, key Key, receiver value.Value) (value.Value, error) {
	p := o.Payload.(*ModuleNamespacePayload)
	if key.kind == KeyString {
		name := rt.Strings.Lookup(key.str)
		if p.has(name) {
			return p.GetBinding(name)
		}
	}
	return value.Undefined, nil
}

func moduleNamespaceHasProperty(rt *Runtime, o *Object, key Key) (bool, error) {
	p := o.Payload.(*ModuleNamespacePayload)
	return key.kind == KeyString && p.has(rt.Strings.Lookup(key.str)), nil
}

func moduleNamespaceGetOwnProperty(rt *Runtime, o *Object, key Key) (Descriptor, bool, error) {
	p := o.Payload.(*ModuleNamespacePayload)
	if key.kind != KeyString {
		return Descriptor{}, false, nil
	}
	name := rt.Strings.Lookup(key.str)
	if !p.has(name) {
		return Descriptor{}, false, nil
	}
	v, err := p.GetBinding(name)
	if err != nil {
		return Descriptor{}, false, err
	}
	return Descriptor{
		HasValue: true, Value: v, Writable: true, Enumerable: true, Configurable: false,
		HasWritable: true, HasEnumerable: true, HasConfigurable: true,
	}, true, nil
}

func moduleNamespaceOwnPropertyKeys(rt *Runtime, o *Object) ([]Key, error) {
	p := o.Payload.(*ModuleNamespacePayload)
	keys := make([]Key, len(p.Names))
	for i, n := range p.Names {
		keys[i] = StringKey(rt.Strings.Intern(n), n)
	}
	return keys, nil
}

// Module namespace exotic objects are immutable from script (spec
// §4.7): every mutating trap is a silent no-op/rejection rather than
// ordinary delegation.
func moduleNamespaceSet(rt *Runtime, o *Object, key Key, v, receiver value.Value) (bool, error) {
	return false, nil
}
func moduleNamespaceDelete(rt *Runtime, o *Object, key Key) (bool, error) { return false, nil }
func moduleNamespaceDefineOwnProperty(rt *Runtime, o *Object, key Key, desc Descriptor) (bool, error) {
	return false, nil
}

var moduleNamespaceMethods = func() *InternalMethods {
	m := cloneOrdinary()
	m.Get = moduleNamespaceGet
	m.HasProperty = moduleNamespaceHasProperty
	m.GetOwnProperty = moduleNamespaceGetOwnProperty
	m.OwnPropertyKeys = moduleNamespaceOwnPropertyKeys
	m.Set = moduleNamespaceSet
	m.Delete = moduleNamespaceDelete
	m.DefineOwnProperty = moduleNamespaceDefineOwnProperty
	return m
}()

// NewModuleNamespace allocates a Module Namespace exotic object (spec
// §4.7's ModuleNamespaceCreate). Its prototype is always Null.
func (rt *Runtime) NewModuleNamespace(payload *ModuleNamespacePayload) value.Value {
	v := rt.newObject(KindModuleNamespace, moduleNamespaceMethods, value.Null)
	o := rt.Resolve(v)
	o.Payload = payload
	return v
}
