package esengine

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/oxhq/esengine/internal/builtins"
	_ "github.com/oxhq/esengine/internal/builtins/temporal" // registers the "temporal" native module (spec §9)
	"github.com/oxhq/esengine/internal/compiler"
	"github.com/oxhq/esengine/internal/frontend"
	"github.com/oxhq/esengine/internal/frontend/treesitter"
	"github.com/oxhq/esengine/internal/module"
	"github.com/oxhq/esengine/internal/value"
	"github.com/oxhq/esengine/internal/vm"
	"github.com/oxhq/esengine/internal/xlog"
)

// HostHooks is spec §6.1's host_hooks argument to Context::new: the
// handful of non-deterministic or environment-dependent operations the
// engine core never performs on its own (spec §9 "the engine never
// calls time.Now() or a random source directly; both are host hooks").
// Every field is optional; a zero HostHooks reproduces the engine's
// built-in defaults (real wall clock, math/rand entropy, no interrupt,
// no logging).
type HostHooks struct {
	// Now supplies the current time to Temporal and any future Date
	// built-in. Defaults to time.Now.
	Now func() time.Time

	// Random supplies a float64 in [0, 1) to Math.random and similar.
	// Defaults to math/rand's global source.
	Random func() float64

	// Loader resolves import specifiers (spec §6.2). Defaults to nil,
	// meaning only natively-registered modules (internal/builtins.
	// Register) can be imported; a host embedding a filesystem or
	// network-backed module graph supplies internal/loader.FSLoader or
	// its own Loader implementation here.
	Loader module.Loader

	// InterruptPoll, when non-nil, is checked once per bytecode
	// instruction; returning true aborts the running script with a
	// RangeError the way a stack-overflow guard would (spec §4.6.7).
	InterruptPoll func() bool

	// Log receives structured engine diagnostics (GC cycles, module
	// state transitions, interrupt delivery) the way the teacher's
	// --trace CLI flag surfaces internal/core/pipeline.go's stage
	// trace. Defaults to a disabled logger (see internal/xlog).
	Log *xlog.Logger

	// GCThreshold is internal/heap.Heap's allocation-count threshold
	// before a collection cycle runs; 0 selects internal/heap's own
	// default.
	GCThreshold int
}

// Context is the embedding API's top-level handle (spec §6.1's
// Context): one Engine (one Realm), one configured loader, bound
// together so a host never has to juggle internal/vm.Engine and
// internal/module.Loader itself.
type Context struct {
	engine *vm.Engine
	loader module.Loader
	log    *xlog.Logger
	parser frontend.Parser
}

// New constructs a Context per spec's Context::new(host_hooks): a
// fresh Engine with every C8 Built-in Kernel intrinsic installed
// (internal/builtins.Install), wired to hooks.
func New(hooks HostHooks) *Context {
	eng := vm.NewEngine(hooks.GCThreshold)

	if hooks.Now != nil {
		eng.Now = hooks.Now
	}
	if hooks.Random != nil {
		eng.RandomFloat64 = hooks.Random
	} else {
		eng.RandomFloat64 = rand.Float64
	}
	if hooks.InterruptPoll != nil {
		eng.InterruptCheck = hooks.InterruptPoll
	}

	log := hooks.Log
	if log == nil {
		log = xlog.Default()
		log.SetEnabled(false)
	}
	module.SetLogger(log)

	builtins.Install(eng)

	return &Context{
		engine: eng,
		loader: hooks.Loader,
		log:    log,
		parser: treesitter.New(),
	}
}

// Engine exposes the underlying VM for internal/loader and other
// host-side plumbing that needs to build native module export maps
// (builtins.Factory's *vm.Engine argument) against this Context's own
// Realm rather than a disconnected one.
func (c *Context) Engine() *vm.Engine { return c.engine }

// Eval parses and runs source as a script (spec §6.1 Context::eval),
// returning its completion value or the thrown exception's value
// wrapped as a Go error.
func (c *Context) Eval(source string) (Value, error) {
	prog, errs := c.parser.Parse(source, frontend.Options{Module: false})
	if len(errs) > 0 {
		return Value{}, fmt.Errorf("esengine: parse error: %w", errs[0])
	}

	code, diags := compileProgram(prog)
	if len(diags) > 0 {
		return Value{}, fmt.Errorf("esengine: %s", diags[0].Message)
	}

	return c.RunCompiled(code)
}

// RunCompiled runs an already-compiled CodeBlock (typically produced
// by Compile, or retrieved from an internal/store cache by a host
// that wants to skip recompilation) as a top-level script, returning
// its completion value the same way Eval does.
func (c *Context) RunCompiled(code *compiler.CodeBlock) (Value, error) {
	v, err := c.engine.RunProgram(code)
	if err != nil {
		return Value{}, wrapThrown(c, err)
	}
	return c.wrap(v), nil
}

// ParseModule compiles source into a Module bound to this Context
// (spec §6.1 Context::parse_module) without loading, linking, or
// evaluating it — callers drive Module.Load/Link/Evaluate themselves,
// supplying a Loader (this Context's own if one was configured via
// HostHooks, or an explicit one per call).
func (c *Context) ParseModule(specifier, source string) (*Module, error) {
	prog, errs := c.parser.Parse(source, frontend.Options{Module: true})
	if len(errs) > 0 {
		return nil, fmt.Errorf("esengine: parse error: %w", errs[0])
	}
	mod, errs := module.Parse(specifier, source, prog)
	if len(errs) > 0 {
		return nil, fmt.Errorf("esengine: module error: %w", errs[0])
	}
	return &Module{ctx: c, mod: mod}, nil
}

// Compile parses and compiles source without running it, returning
// the raw CodeBlock — the seam cmd/esengine's `disasm` subcommand
// uses, since a host driving the embedding API proper only ever needs
// Eval/ParseModule and never sees a CodeBlock directly.
func (c *Context) Compile(source string, asModule bool) (*compiler.CodeBlock, error) {
	prog, errs := c.parser.Parse(source, frontend.Options{Module: asModule})
	if len(errs) > 0 {
		return nil, fmt.Errorf("esengine: parse error: %w", errs[0])
	}
	code, diags := compileProgram(prog)
	if len(diags) > 0 {
		return nil, fmt.Errorf("esengine: %s", diags[0].Message)
	}
	return code, nil
}

// RegisterGlobal binds name on the Context's global object (spec
// §6.1's Context::register_global), the one-line escape hatch a host
// uses to expose its own native functions/data to script without
// going through the module-loader machinery.
func (c *Context) RegisterGlobal(name string, v Value) {
	defineGlobal(c.engine, name, v.raw)
}

// wrap lifts a raw internal/value.Value into this Context's public
// Value wrapper.
func (c *Context) wrap(v value.Value) Value { return Value{ctx: c, raw: v} }

func wrapThrown(c *Context, err error) error {
	if v, ok := vm.Thrown(err); ok {
		msg := err.Error()
		if s, convErr := value.ToStringValue(v); convErr == nil {
			msg = c.engine.Runtime().Strings.Lookup(s.Ref())
		}
		return &EvalError{Context: c, Value: c.wrap(v), Message: msg}
	}
	return err
}

// EvalError wraps an uncaught JavaScript exception surfaced to the
// host by Eval/Module.Evaluate, keeping the original thrown Value
// reachable (spec §6.4 error reporting) alongside a human-readable
// Go error string.
type EvalError struct {
	Context *Context
	Value   Value
	Message string
}

func (e *EvalError) Error() string { return "esengine: uncaught exception: " + e.Message }
