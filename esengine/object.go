package esengine

import (
	"github.com/oxhq/esengine/internal/object"
	"github.com/oxhq/esengine/internal/value"
	"github.com/oxhq/esengine/internal/vm"
)

// Object is spec §6.1's Object::get/set/delete/call/construct handle:
// an object-flavored Value that respects the target's internal methods
// (internal/object.Runtime.Get/Set/Delete/Call/Construct), including
// exotic behavior (Array's length bookkeeping, Proxy traps, bound
// functions) the way script's own property access does.
type Object struct {
	ctx *Context
	raw value.Value
}

// NewObject creates a plain ordinary object whose prototype is
// %Object.prototype%.
func (c *Context) NewObject() Object {
	return Object{ctx: c, raw: c.engine.Runtime().NewOrdinary(c.engine.ObjectProto)}
}

// NewArray creates an empty Array exotic object.
func (c *Context) NewArray() Object {
	return Object{ctx: c, raw: c.engine.Runtime().NewArray(c.engine.ArrayProto)}
}

// NewFunction wraps a Go function as a callable JavaScript object
// (spec §4.8's native-function seam), the same hook internal/builtins
// uses to install every intrinsic method. fn receives `this` and the
// call arguments already widened to this Context's Value wrapper.
func (c *Context) NewFunction(name string, fn func(this Value, args []Value) (Value, error)) Object {
	raw := c.engine.NewNativeFunction(name, false, func(eng *vm.Engine, this value.Value, rawArgs []value.Value, _ value.Value) (value.Value, error) {
		args := make([]Value, len(rawArgs))
		for i, a := range rawArgs {
			args[i] = c.wrap(a)
		}
		result, err := fn(c.wrap(this), args)
		if err != nil {
			return value.Value{}, err
		}
		return result.raw, nil
	})
	return Object{ctx: c, raw: raw}
}

// Value views o as a plain Value.
func (o Object) Value() Value { return Value{ctx: o.ctx, raw: o.raw} }

func (o Object) rt() *object.Runtime { return o.ctx.engine.Runtime() }

func (o Object) key(name string) (object.Key, error) {
	ref := o.rt().Strings.Intern(name)
	return o.rt().ToKey(value.HeapValue(value.TagString, ref))
}

// Get performs spec's [[Get]] internal method for a named property.
func (o Object) Get(name string) (Value, error) {
	k, err := o.key(name)
	if err != nil {
		return Value{}, err
	}
	v, err := o.rt().Get(o.raw, k, o.raw)
	if err != nil {
		return Value{}, wrapThrown(o.ctx, err)
	}
	return Value{ctx: o.ctx, raw: v}, nil
}

// Set performs spec's [[Set]] internal method for a named property.
func (o Object) Set(name string, v Value) error {
	k, err := o.key(name)
	if err != nil {
		return err
	}
	_, err = o.rt().Set(o.raw, k, v.raw, o.raw)
	if err != nil {
		return wrapThrown(o.ctx, err)
	}
	return nil
}

// Delete performs spec's [[Delete]] internal method for a named
// property.
func (o Object) Delete(name string) (bool, error) {
	k, err := o.key(name)
	if err != nil {
		return false, err
	}
	ok, err := o.rt().Delete(o.raw, k)
	if err != nil {
		return false, wrapThrown(o.ctx, err)
	}
	return ok, nil
}

// Call performs spec's [[Call]] internal method.
func (o Object) Call(this Value, args ...Value) (Value, error) {
	raw := make([]value.Value, len(args))
	for i, a := range args {
		raw[i] = a.raw
	}
	v, err := o.rt().Call(o.raw, this.raw, raw)
	if err != nil {
		return Value{}, wrapThrown(o.ctx, err)
	}
	return Value{ctx: o.ctx, raw: v}, nil
}

// Construct performs spec's [[Construct]] internal method, using o
// itself as new.target.
func (o Object) Construct(args ...Value) (Value, error) {
	raw := make([]value.Value, len(args))
	for i, a := range args {
		raw[i] = a.raw
	}
	v, err := o.rt().Construct(o.raw, raw, o.raw)
	if err != nil {
		return Value{}, wrapThrown(o.ctx, err)
	}
	return Value{ctx: o.ctx, raw: v}, nil
}

// IsCallable reports whether o has a [[Call]] internal method.
func (o Object) IsCallable() bool { return o.rt().IsCallable(o.raw) }

// IsConstructor reports whether o has a [[Construct]] internal method.
func (o Object) IsConstructor() bool { return o.rt().IsConstructor(o.raw) }
