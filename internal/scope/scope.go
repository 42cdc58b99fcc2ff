// Package scope implements the compile-time Scope/Binding analyzer
// (spec §3.5, §4.4): a single AST walk that builds a tree of lexical
// regions, resolves every identifier reference to a BindingLocator,
// and computes the scope sets Function Declaration Instantiation
// (spec §4.5.3) needs for each function.
//
// Grounded on internal/parser/universal.go's single-pass walk that
// annotates structured Query objects straight off DSL text — the same
// "one walk, build structured records as you go" shape this package
// uses to turn an AST into Scope/Binding records.
package scope

// BindingKind distinguishes how a name entered a scope, which decides
// both its TDZ behavior and how Function Declaration Instantiation
// treats it (spec §4.5.3).
type BindingKind uint8

const (
	BindingVar BindingKind = iota
	BindingLet
	BindingConst
	BindingFunction // a hoisted function declaration
	BindingParam
	BindingCatch
	BindingClass
	BindingImport
)

// IsLexical reports whether this binding kind participates in the
// temporal dead zone (let/const/class/catch all do; var/function/param
// do not — they're pre-initialized to undefined at scope entry).
func (k BindingKind) IsLexical() bool {
	return k == BindingLet || k == BindingConst || k == BindingClass
}

// Binding is one compile-time-resolvable name (spec §3.5).
type Binding struct {
	Name       string
	Kind       BindingKind
	Mutable    bool // false for const
	Strict     bool // name use is restricted in strict mode (e.g. "eval", "arguments")
	Index      int  // slot index within the owning Scope's dense array
	Initialized bool // true for var/function/param (no TDZ); false for let/const/class until DefInit runs
}

// Scope is a compile-time record of one lexical region (spec §3.5): a
// function body, a block, a for-loop's per-iteration environment, a
// catch clause, or the global/module top level.
type Scope struct {
	Index      int
	Parent     *Scope
	Children   []*Scope
	Strict     bool
	IsFunction bool // a function-boundary scope (var declarations bind here, not in enclosing blocks)
	IsCatch    bool

	bindings map[string]*Binding
	order    []*Binding // insertion order, for deterministic slot assignment
}

func newScope(index int, parent *Scope, strict, isFunction bool) *Scope {
	return &Scope{
		Index:      index,
		Parent:     parent,
		Strict:     strict,
		IsFunction: isFunction,
		bindings:   make(map[string]*Binding),
	}
}

// Declare adds name to this scope, returning the new Binding, or the
// existing one and false if name is already declared here (the caller
// decides whether that's a redeclaration error — var/function
// redeclaration is fine, let/const is not, spec's early-error rules).
func (s *Scope) Declare(name string, kind BindingKind) (*Binding, bool) {
	if b, ok := s.bindings[name]; ok {
		return b, false
	}
	b := &Binding{
		Name:        name,
		Kind:        kind,
		Mutable:     kind != BindingConst,
		Index:       len(s.order),
		Initialized: !kind.IsLexical(),
	}
	s.bindings[name] = b
	s.order = append(s.order, b)
	return b, true
}

// Lookup finds name declared directly in this scope.
func (s *Scope) Lookup(name string) (*Binding, bool) {
	b, ok := s.bindings[name]
	return b, ok
}

// Bindings returns this scope's bindings in declaration (slot) order.
func (s *Scope) Bindings() []*Binding { return s.order }

// Resolve walks from s outward through Parent links looking for name,
// returning the scope that owns it.
func (s *Scope) Resolve(name string) (*Scope, *Binding, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if b, ok := cur.bindings[name]; ok {
			return cur, b, true
		}
	}
	return nil, nil, false
}

// BindingLocator is the compile-time-resolvable address of a binding
// (spec §3.5): a scope index plus a slot index within that scope. The
// compiler embeds these directly into bytecode operands (GetName/
// SetName's "binding-locator index" operand, spec §4.5.1).
type BindingLocator struct {
	ScopeIndex   int
	BindingIndex int
	Name         string // the resolved binding's name, so the VM can address it without a separate scope-index registry
	Global       bool   // true when the name resolved to the global/unresolvable tier and must use dynamic lookup
}
