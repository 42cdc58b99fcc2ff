package vm

import "github.com/oxhq/esengine/internal/value"

// stack is the per-frame operand stack (spec §3.7's "stack machine"
// half of the hybrid model; the "register" half, OpMove, is a no-op in
// this VM, so every temporary stays stack-relative).
type stack struct {
	data []value.Value
}

func (s *stack) push(v value.Value) { s.data = append(s.data, v) }

func (s *stack) pop() value.Value {
	n := len(s.data) - 1
	v := s.data[n]
	s.data = s.data[:n]
	return v
}

func (s *stack) peek() value.Value { return s.data[len(s.data)-1] }

// peekN returns the n values currently on top, in push order (index 0
// is the deepest of the n, index n-1 is the current top) — matches
// OpCall/OpNew's argument layout, where arg0 was pushed first.
func (s *stack) peekN(n int) []value.Value {
	return s.data[len(s.data)-n : len(s.data)]
}

func (s *stack) popN(n int) []value.Value {
	args := append([]value.Value(nil), s.peekN(n)...)
	s.data = s.data[:len(s.data)-n]
	return args
}

func (s *stack) len() int { return len(s.data) }

// CallFrame is one activation record (spec §3.7): the executing
// Closure, its own operand stack, program counter, current lexical
// Environment, and the `this`/new.target bindings for this call.
//
// Frames are explicit Go structs rather than recursive interpreter
// calls for everything except calling into another function: ordinary
// nested calls DO recurse through Go's own call stack (ordinary
// function calls can't be observably resumed mid-flight, so using the
// host stack for them is harmless and simpler); only generator/async
// suspension needs a frame that survives across a resume, which is
// exactly what this struct captures (see generator.go).
type CallFrame struct {
	closure   *Closure
	env       *Environment
	pc        int
	stack     stack
	this      value.Value
	newTarget value.Value
	function  value.Value // the Function object being executed, for `arguments.callee`-style needs

	// pendingResume is the value pushed onto the stack immediately after resuming
	// from an OpYield/OpAwait suspension point (the .next(v)/resolved
	// value); consumed once, then cleared.
	pendingResume *value.Value

	// pendingThrow is set by GeneratorContext.Throw to inject an
	// exception at the current suspension point on the next run() call,
	// routed through the same Handler-table lookup OpThrow uses so a
	// try/catch wrapping the yield still catches it.
	pendingThrow *value.Value

	// paramValues holds each declared parameter's actual argument value
	// (and, for non-strict simple-parameter functions, the mapped
	// "arguments" object), keyed by binding name. newCallFrame populates
	// it from the caller's argument list; the OpDefInitVar/Let/Const
	// handler in vm.go consults it so a parameter's declaration-
	// instantiation prologue (which always pushes Undefined first,
	// identically to any other var) initializes to the real argument
	// instead.
	paramValues map[string]value.Value

	// importAliases marks binding names this frame's declaration-
	// instantiation prologue should alias into another Environment's
	// live binding instead of initializing to a fresh local cell
	// (internal/module's InitializeEnvironment populates this for a
	// module frame's import bindings before the frame's first run).
	// The OpDefInitLet handler in vm.go consults it exactly like
	// paramValues, consuming each entry once.
	importAliases map[string]importAlias
}

// importAlias names the (environment, binding name) pair a local
// import binding should alias, resolved lazily at declaration-
// instantiation time because the module's own lexical environment
// does not exist yet when internal/module schedules the alias.
type importAlias struct {
	src     *Environment
	srcName string
}
