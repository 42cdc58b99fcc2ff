package object

import "github.com/oxhq/esengine/internal/value"

// The functions below are the Value-taking front door to the 11
// internal methods (plus Call/Construct) spec §4.3 describes: they
// resolve a Value to its *Object, dispatch through that object's
// InternalMethods table, and are what every other package (compiler
// output via the VM, builtins) actually calls. Ordinary defaults
// recurse back into these (not directly into the ordinary* functions)
// so that an exotic prototype in the chain still gets its own
// overridden behavior — e.g. a Proxy sitting between two ordinary
// objects in a prototype chain.

func (rt *Runtime) GetPrototypeOf(v value.Value) (value.Value, error) {
	o := rt.Resolve(v)
	if o == nil {
		return value.Null, nil
	}
	return o.methods.GetPrototypeOf(rt, o)
}

func (rt *Runtime) SetPrototypeOf(v, proto value.Value) (bool, error) {
	o := rt.Resolve(v)
	if o == nil {
		return false, nil
	}
	return o.methods.SetPrototypeOf(rt, o, proto)
}

func (rt *Runtime) IsExtensible(v value.Value) (bool, error) {
	o := rt.Resolve(v)
	if o == nil {
		return false, nil
	}
	return o.methods.IsExtensible(rt, o)
}

func (rt *Runtime) PreventExtensions(v value.Value) (bool, error) {
	o := rt.Resolve(v)
	if o == nil {
		return false, nil
	}
	return o.methods.PreventExtensions(rt, o)
}

func (rt *Runtime) GetOwnProperty(v value.Value, key Key) (Descriptor, bool, error) {
	o := rt.Resolve(v)
	if o == nil {
		return Descriptor{}, false, nil
	}
	return o.methods.GetOwnProperty(rt, o, key)
}

func (rt *Runtime) DefineOwnProperty(v value.Value, key Key, desc Descriptor) (bool, error) {
	o := rt.Resolve(v)
	if o == nil {
		return false, &value.TypeError{Message: "cannot define property on non-object"}
	}
	return o.methods.DefineOwnProperty(rt, o, key, desc)
}

func (rt *Runtime) HasProperty(v value.Value, key Key) (bool, error) {
	o := rt.Resolve(v)
	if o == nil {
		return false, nil
	}
	return o.methods.HasProperty(rt, o, key)
}

func (rt *Runtime) Get(v value.Value, key Key, receiver value.Value) (value.Value, error) {
	o := rt.Resolve(v)
	if o == nil {
		return value.Undefined, nil
	}
	return o.methods.Get(rt, o, key, receiver)
}

// GetV is the common case of Get where the receiver is v itself.
func (rt *Runtime) GetV(v value.Value, key Key) (value.Value, error) {
	return rt.Get(v, key, v)
}

func (rt *Runtime) Set(v value.Value, key Key, val, receiver value.Value) (bool, error) {
	o := rt.Resolve(v)
	if o == nil {
		return false, &value.TypeError{Message: "cannot set property on non-object"}
	}
	return o.methods.Set(rt, o, key, val, receiver)
}

// SetV is the common case of Set where the receiver is v itself.
func (rt *Runtime) SetV(v value.Value, key Key, val value.Value) (bool, error) {
	return rt.Set(v, key, val, v)
}

func (rt *Runtime) Delete(v value.Value, key Key) (bool, error) {
	o := rt.Resolve(v)
	if o == nil {
		return true, nil
	}
	return o.methods.Delete(rt, o, key)
}

func (rt *Runtime) OwnPropertyKeys(v value.Value) ([]Key, error) {
	o := rt.Resolve(v)
	if o == nil {
		return nil, nil
	}
	return o.methods.OwnPropertyKeys(rt, o)
}

// IsCallable reports whether v is an object with a Call internal
// method (spec §4.3 "IsCallable").
func (rt *Runtime) IsCallable(v value.Value) bool {
	o := rt.Resolve(v)
	return o != nil && o.methods.Call != nil
}

// IsConstructor reports whether v is an object with a Construct
// internal method.
func (rt *Runtime) IsConstructor(v value.Value) bool {
	o := rt.Resolve(v)
	return o != nil && o.methods.Construct != nil
}

// Call invokes v as a function. Returns a TypeError if v is not
// callable.
func (rt *Runtime) Call(v value.Value, this value.Value, args []value.Value) (value.Value, error) {
	o := rt.Resolve(v)
	if o == nil || o.methods.Call == nil {
		return value.Value{}, &value.TypeError{Message: "value is not a function"}
	}
	return o.methods.Call(rt, o, this, args)
}

// Construct invokes v with `new`. Returns a TypeError if v is not a
// constructor.
func (rt *Runtime) Construct(v value.Value, args []value.Value, newTarget value.Value) (value.Value, error) {
	o := rt.Resolve(v)
	if o == nil || o.methods.Construct == nil {
		return value.Value{}, &value.TypeError{Message: "value is not a constructor"}
	}
	return o.methods.Construct(rt, o, args, newTarget)
}
