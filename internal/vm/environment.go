// Package vm implements the bytecode interpreter (spec §3.7, §4.5-4.6):
// the CallFrame/Stack execution model, lexical Environment records,
// Closures, and the exception/generator suspension machinery that runs
// a compiler.CodeBlock to completion.
//
// Grounded on internal/cli/dispatcher.go's worker-dispatch loop and
// internal/cli/runner.go's run-to-completion Runner for the overall
// "drive an explicit instruction stream, stop on first fatal error"
// shape; golang.org/x/sys backs the signal wiring that sets the
// interrupt flag (see interrupt_unix.go/interrupt_windows.go).
package vm

import (
	"github.com/oxhq/esengine/internal/heap"
	"github.com/oxhq/esengine/internal/value"
)

// binding is one name's slot inside an Environment (spec §3.5's runtime
// counterpart to scope.Binding): a value cell plus the TDZ/mutability
// state the declarative-record algorithms need.
type binding struct {
	value       value.Value
	mutable     bool
	initialized bool // false until DefInitLet/Const/declaration-instantiation runs; reading it is a ReferenceError (TDZ)
}

// Environment is a runtime lexical environment record (spec §3.5): a
// name-keyed set of bindings plus a link to the enclosing environment.
// Every scope the compiler created a scope.Scope for gets exactly one
// Environment at runtime (global, function, block, catch, per-iteration
// for-loop, module).
//
// Environment is name-keyed rather than slot-indexed: scope.BindingLocator
// carries the resolved Name precisely so the VM can address a binding
// without a separate global scope-index registry (see DESIGN.md).
type Environment struct {
	bindings map[string]*binding
	outer    *Environment

	// withObject is non-nil for an Object Environment Record (spec's
	// with-statement and global-object-backed bindings): property
	// lookups fall through to this object's Get/Set/HasProperty instead
	// of the bindings map.
	withObject value.Value
	eng        *Engine
}

// NewDeclarativeEnvironment creates an empty lexical environment whose
// outer link is outer (nil for a native module's standalone
// environment, see internal/module/native.go).
func NewDeclarativeEnvironment(outer *Environment) *Environment {
	return &Environment{bindings: make(map[string]*binding), outer: outer}
}

// NewObjectEnvironment wraps obj (spec's with-statement / global
// object backing): property reads/writes/has-checks proxy to obj's own
// internal methods rather than a local bindings map.
func NewObjectEnvironment(eng *Engine, obj value.Value, outer *Environment) *Environment {
	return &Environment{withObject: obj, outer: outer, eng: eng}
}

func (e *Environment) Kind() heap.Kind { return heap.KindEnvironment }

func (e *Environment) Trace(v *heap.Visitor) {
	for _, b := range e.bindings {
		markIfHeap(v, b.value)
	}
	markIfHeap(v, e.withObject)
	if e.outer != nil {
		// The outer chain is owned by this Environment's allocation, not a
		// separate heap.Handle, so nothing further to mark through heap
		// handles here; outer environments are reached via their own
		// allocation when rooted directly by a Closure.
	}
}

func markIfHeap(v *heap.Visitor, val value.Value) {
	switch val.Tag() {
	case value.TagObject, value.TagString, value.TagSymbol, value.TagBigInt:
		v.Mark(heap.Handle(val.Ref()))
	}
}

// DeclareMutable creates a var-style binding already initialized to
// undefined (no TDZ).
func (e *Environment) DeclareMutable(name string) {
	if _, ok := e.bindings[name]; ok {
		return
	}
	e.bindings[name] = &binding{value: value.Undefined, mutable: true, initialized: true}
}

// DeclareLexical creates a TDZ-gated binding (let/const/class/catch).
func (e *Environment) DeclareLexical(name string, mutable bool) {
	e.bindings[name] = &binding{mutable: mutable, initialized: false}
}

// Initialize sets name's value and clears its TDZ gate (DefInitLet/
// Const/Var all funnel through here with differing mutability).
func (e *Environment) Initialize(name string, v value.Value, mutable bool) {
	b, ok := e.bindings[name]
	if !ok {
		b = &binding{}
		e.bindings[name] = b
	}
	b.value = v
	b.mutable = mutable
	b.initialized = true
}

// AliasBinding installs name in e as a live alias for srcName's
// binding in src (spec §4.7's indirect export/import binding): both
// names share the same *binding cell, so a write through either one is
// visible through the other — the live-binding semantics module
// imports require, without copying a value at link time. Returns false
// if srcName does not resolve to a declarative binding in src (an
// object-environment hit or a missing name), which the module linker
// treats as a link-time SyntaxError.
func (e *Environment) AliasBinding(name string, src *Environment, srcName string) bool {
	env, b := src.lookup(srcName)
	if env == nil || b == nil {
		return false
	}
	e.bindings[name] = b
	return true
}

// BindingValue returns name's current value if name is bound directly
// in e (not the outer chain) and past its TDZ, used by the module
// namespace exotic object's [[Get]] to read a live export.
func (e *Environment) BindingValue(name string) (value.Value, error) {
	b, ok := e.bindings[name]
	if !ok || !b.initialized {
		return value.Value{}, &value.ReferenceError{Message: "cannot access '" + name + "' before initialization"}
	}
	return b.value, nil
}

// HasOwnBinding reports whether name is bound directly in e, without
// walking the outer chain.
func (e *Environment) HasOwnBinding(name string) bool {
	_, ok := e.bindings[name]
	return ok
}

// lookup walks the outer chain for name, returning the owning
// Environment's binding or nil if unresolved anywhere (caller falls
// back to the global object / ReferenceError per spec's
// HasBinding/GetBindingValue chain).
func (e *Environment) lookup(name string) (*Environment, *binding) {
	for cur := e; cur != nil; cur = cur.outer {
		if cur.withObject.IsObject() {
			has, err := cur.eng.obj.HasProperty(cur.withObject, cur.eng.keyFor(name))
			if err == nil && has {
				return cur, nil // signals "object-environment hit"; caller re-dispatches through withObject
			}
			continue
		}
		if b, ok := cur.bindings[name]; ok {
			return cur, b
		}
	}
	return nil, nil
}
