package esengine

import (
	"github.com/oxhq/esengine/internal/value"
)

// Value is spec §6.1's host-facing value handle: a thin wrapper over
// internal/value.Value that carries the owning Context along so
// Object-level operations (Get/Set/Call/Construct) can reach the
// Engine's Runtime without the host ever importing internal/object
// itself.
type Value struct {
	ctx *Context
	raw value.Value
}

// Undefined returns the Context's undefined value.
func (c *Context) Undefined() Value { return c.wrap(value.Undefined) }

// Null returns the Context's null value.
func (c *Context) Null() Value { return c.wrap(value.Null) }

// Bool wraps a Go bool as a JavaScript boolean.
func (c *Context) Bool(b bool) Value { return c.wrap(value.Bool(b)) }

// Number wraps a Go float64 as a JavaScript number.
func (c *Context) Number(n float64) Value { return c.wrap(value.Number(n)) }

// Int32 wraps a Go int32 as a JavaScript number, taking the VM's
// fast Int32 representation rather than routing through Float64.
func (c *Context) Int32(n int32) Value { return c.wrap(value.Int32(n)) }

// String wraps a Go string as a JavaScript string.
func (c *Context) String(s string) Value {
	ref := c.engine.Runtime().Strings.Intern(s)
	return c.wrap(value.HeapValue(value.TagString, ref))
}

// IsUndefined reports whether v is undefined.
func (v Value) IsUndefined() bool { return v.raw.IsUndefined() }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.raw.IsNull() }

// IsNullish reports whether v is undefined or null.
func (v Value) IsNullish() bool { return v.raw.IsNullish() }

// IsObject reports whether v is an object (including functions,
// arrays, and every other exotic object kind).
func (v Value) IsObject() bool { return v.raw.IsObject() }

// IsString reports whether v is a string primitive.
func (v Value) IsString() bool { return v.raw.IsString() }

// IsNumber reports whether v is a number primitive (Int32 or Float64
// representation — spec §3.1 draws no host-visible distinction).
func (v Value) IsNumber() bool { return v.raw.IsNumber() }

// IsBoolean reports whether v is a boolean primitive.
func (v Value) IsBoolean() bool { return v.raw.IsBoolean() }

// Bool returns v's boolean value; only meaningful when IsBoolean is
// true.
func (v Value) Bool() bool { return v.raw.AsBool() }

// Number returns v's numeric value; only meaningful when IsNumber is
// true.
func (v Value) Number() float64 { return v.raw.AsFloat64() }

// String converts v to a Go string via the JavaScript ToString
// abstract operation (spec §3.1), the same conversion `${v}` or
// String(v) would perform in script.
func (v Value) String() (string, error) {
	sv, err := value.ToStringValue(v.raw)
	if err != nil {
		return "", err
	}
	return v.ctx.engine.Runtime().Strings.Lookup(sv.Ref()), nil
}

// AsObject views v as an Object if it is one; ok is false for any
// primitive value.
func (v Value) AsObject() (Object, bool) {
	if !v.raw.IsObject() {
		return Object{}, false
	}
	return Object{ctx: v.ctx, raw: v.raw}, true
}

// Raw exposes the wrapped internal/value.Value for code inside this
// module (internal/loader, internal/store, cmd/esengine) that needs to
// cross back into the VM-internal representation; unexported fields
// keep it out of reach for actual embedders.
func (v Value) Raw() value.Value { return v.raw }

// Context returns the Context that produced v.
func (v Value) Context() *Context { return v.ctx }
