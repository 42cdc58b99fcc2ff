package vm

import (
	"github.com/oxhq/esengine/internal/compiler"
	"github.com/oxhq/esengine/internal/value"
)

// NewModuleFrame builds the (suspendable) CallFrame a Module record's
// body runs in, the same shape RunProgram builds for a script: env
// starts as the global environment, and the body's own leading
// OpPushDeclarativeEnv instruction creates the module's real top-level
// environment the first time the frame runs. internal/module keeps the
// returned frame around across Evaluate's await-driven resumptions
// exactly the way generator.go's GeneratorContext keeps its frame.
func (eng *Engine) NewModuleFrame(code *compiler.CodeBlock) *CallFrame {
	closure := NewClosure(code, eng.Global)
	return &CallFrame{closure: closure, env: eng.Global, this: value.Undefined}
}

// SetImportAlias schedules localName in frame's declaration-
// instantiation prologue to alias srcName's live binding in src instead
// of initializing a fresh local cell (spec §4.7's InitializeEnvironment,
// run once per module at the start of Evaluate, before the module's own
// frame runs for the first time). Consumed by the OpDefInitLet handler
// in vm.go the moment the frame's own OpPushDeclarativeEnv has run,
// which is always the first instruction in a module's bytecode.
func (eng *Engine) SetImportAlias(frame *CallFrame, localName string, src *Environment, srcName string) {
	if frame.importAliases == nil {
		frame.importAliases = make(map[string]importAlias)
	}
	frame.importAliases[localName] = importAlias{src: src, srcName: srcName}
}

// SetBindingValue pre-seeds localName's declaration-instantiation slot
// with v directly, the same paramValues idiom newCallFrame already uses
// for ordinary parameters — for a module import binding whose resolved
// value isn't a live alias into another binding cell (a namespace
// import or a re-exported namespace), where the bound value is the
// Module Namespace object itself.
func (eng *Engine) SetBindingValue(frame *CallFrame, localName string, v value.Value) {
	if frame.paramValues == nil {
		frame.paramValues = make(map[string]value.Value)
	}
	frame.paramValues[localName] = v
}

// PrimeModuleFrame executes frame's leading OpPushDeclarativeEnv
// instruction in isolation and returns the resulting environment,
// leaving frame positioned to continue normally from the statement
// right after it on the next DriveModuleFrame call. Every program (script or
// module) compiles to code starting with a bare, operand-less
// OpPushDeclarativeEnv (Compile's first emitDeclarationInstantiation
// call) — priming lets internal/module create a module's top-level
// environment up front, at Link time, before any module in a cycle has
// actually started running its body, matching spec §4.7's
// InitializeEnvironment (which creates every module's environment
// during Link, independent of evaluation order) inside a VM that
// otherwise only creates function/block environments lazily as their
// OpPushDeclarativeEnv executes.
func (eng *Engine) PrimeModuleFrame(frame *CallFrame) *Environment {
	if frame.pc == 0 && len(frame.closure.Code.Bytecode) > 0 &&
		compiler.Opcode(frame.closure.Code.Bytecode[0]) == compiler.OpPushDeclarativeEnv {
		frame.env = NewDeclarativeEnvironment(frame.env)
		frame.pc = 1
	}
	return frame.env
}

// ExceptionValue extracts the JS-visible value an uncaught-throw error
// from DriveModuleFrame carries, for callers outside this package (the
// module linker rejecting a top-level capability) that need the value
// rather than the wrapping Go error.
func (eng *Engine) ExceptionValue(err error) (value.Value, bool) {
	if t, ok := err.(*thrownValue); ok {
		return t.v, true
	}
	return value.Value{}, false
}

// DriveModuleFrame runs frame via the same Await-driven resumption loop
// driveAsync gives an async function body, but instead of settling a
// Promise directly, invokes onSettle exactly once when frame's top-level
// body finally completes or throws (err is the raw error run() produced,
// not yet converted to a JS exception — see ExceptionValue/ToException).
// internal/module's executeAsyncModule hooks spec §4.7's
// AsyncModuleExecutionFulfilled/Rejected bookkeeping here instead of a
// bare Promise settlement, since a module's own await-suspension chain
// has to run to completion before the module graph's async evaluation
// order can advance.
func (eng *Engine) DriveModuleFrame(frame *CallFrame, onSettle func(value.Value, error)) {
	v, sig, err := eng.run(frame)
	if err != nil {
		onSettle(value.Value{}, err)
		return
	}
	if sig == nil {
		onSettle(v, nil)
		return
	}
	awaited := sig.value
	eng.resolveThenable(awaited, func(resolved value.Value) {
		frame.pendingResume = &resolved
		eng.DriveModuleFrame(frame, onSettle)
	}, func(reason value.Value) {
		frame.pendingThrow = &reason
		eng.DriveModuleFrame(frame, onSettle)
	})
}

// ToException turns a Go error (typically a *value.SyntaxError/
// *value.TypeError the module linker raises directly, or an error
// passed to a DriveModuleFrame callback) into the JS Error value a module's rejected
// top-level capability should carry.
func (eng *Engine) ToException(err error) value.Value {
	return eng.toException(err)
}

// NewCapability allocates a pending Promise for a module's top-level
// capability (spec §4.7's top_level_capability), reusing the same
// Promise machinery async/await settles through.
func (eng *Engine) NewCapability() value.Value {
	capVal, _ := eng.obj.NewPromise(eng.promiseProtoOrNull())
	return capVal
}

// SettleCapability resolves or rejects a capability created by
// NewCapability.
func (eng *Engine) SettleCapability(capVal, v value.Value, fulfilled bool) {
	eng.settlePromise(capVal, v, fulfilled)
}
