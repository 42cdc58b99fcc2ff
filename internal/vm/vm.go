package vm

import (
	"encoding/binary"
	"time"

	"github.com/oxhq/esengine/internal/compiler"
	"github.com/oxhq/esengine/internal/heap"
	"github.com/oxhq/esengine/internal/object"
	"github.com/oxhq/esengine/internal/value"
)

// Engine bundles the heap, the object-internal-methods Runtime, and the
// global environment/object pair one running program needs. One Engine
// exists per embedding Context (spec §3.9's Realm, narrowed to what
// internal/vm itself touches — intrinsic installation is
// internal/builtins' job, wired back in via RegisterGlobal).
type Engine struct {
	Heap   *heap.Heap
	obj    *object.Runtime
	Global *Environment

	GlobalObject value.Value

	// FunctionProto/ObjectProto/GeneratorProto back every function and
	// generator object this package creates (makeFunction,
	// newGeneratorObject); internal/builtins overwrites them with the
	// real %Function.prototype%/%Object.prototype%/%GeneratorFunction.
	// prototype.prototype% once intrinsics exist. Left as Null until then,
	// which is harmless — an object's prototype is allowed to be Null.
	FunctionProto  value.Value
	ObjectProto    value.Value
	GeneratorProto value.Value

	// ArrayProto/PromiseProto back every Array/Promise object this
	// package creates (OpGetArrayLiteral's NewArray call, OpAwait's
	// implicit Promise, module_support.go's NewCapability); installed by
	// internal/builtins the same way FunctionProto/ObjectProto are.
	ArrayProto   value.Value
	PromiseProto value.Value

	// ErrorProtos maps each Error subtype's name ("Error", "TypeError",
	// "RangeError", "SyntaxError", "ReferenceError", "URIError",
	// "AggregateError") to its %XyzError.prototype%, populated by
	// internal/builtins. toException consults it so a host-internal
	// TypeError/RangeError/... surfaces to script as a real instance of
	// the matching constructor, not a bare ordinary object.
	ErrorProtos map[string]value.Value

	jobs []func()

	// InterruptCheck is polled once per instruction-dispatch iteration
	// when non-nil, letting a host cancel a long-running script (see
	// interrupt_unix.go/interrupt_windows.go). Returning true aborts
	// execution with a RangeError ("execution interrupted").
	InterruptCheck func() bool

	// Now and RandomFloat64 back every built-in that needs wall-clock
	// time or entropy (internal/builtins/temporal's Temporal.Now,
	// a future Math.random). Host-supplied via esengine.HostHooks;
	// nil until then, in which case callers fall back to time.Now/
	// math/rand themselves rather than dereferencing a nil func.
	Now            func() time.Time
	RandomFloat64  func() float64
}

// NewEngine allocates a fresh heap and object Runtime, builds the
// global object/environment pair, and registers this Engine's Call/
// Construct implementations as internal/object's CallHost/ConstructHost
// (the hook-registration pattern internal/object.RegisterCallHost and
// internal/value.RegisterObjectHost already establish, so internal/vm
// can depend on internal/object without a reverse import).
func NewEngine(gcThreshold int) *Engine {
	h := heap.New(gcThreshold)
	rt := object.NewRuntime(h)
	eng := &Engine{Heap: h, obj: rt}

	eng.GlobalObject = rt.NewOrdinary(value.Null)
	eng.Global = NewObjectEnvironment(eng, eng.GlobalObject, nil)
	eng.FunctionProto = value.Null
	eng.ObjectProto = value.Null
	eng.GeneratorProto = value.Null
	eng.ArrayProto = value.Null
	eng.PromiseProto = value.Null
	eng.ErrorProtos = map[string]value.Value{}

	object.RegisterCallHost(eng.hostCall, eng.hostConstruct)
	return eng
}

// Runtime exposes the underlying object.Runtime for internal/builtins
// to install intrinsics on.
func (eng *Engine) Runtime() *object.Runtime { return eng.obj }

// arrayProtoOrObject is ArrayProto once internal/builtins has installed
// it, falling back to ObjectProto beforehand (both Null before
// builtins.Install runs, so this is never worse than the pre-builtins
// behavior).
func (eng *Engine) arrayProtoOrObject() value.Value {
	if eng.ArrayProto.IsObject() {
		return eng.ArrayProto
	}
	return eng.ObjectProto
}

// promiseProtoOrNull mirrors arrayProtoOrObject for Promise objects
// this package allocates itself (an async function's returned promise,
// a module's top-level capability): PromiseProto once installed, Null
// beforehand — so every internally-created Promise still exposes
// .then/.catch once internal/builtins has run.
func (eng *Engine) promiseProtoOrNull() value.Value {
	if eng.PromiseProto.IsObject() {
		return eng.PromiseProto
	}
	return value.Null
}

func (eng *Engine) keyFor(name string) object.Key {
	return object.StringKey(eng.obj.Strings.Intern(name), name)
}

// RunProgram runs a top-level CodeBlock (spec's ScriptEvaluation /
// GlobalDeclarationInstantiation having already emitted the prologue
// into the CodeBlock itself) to completion, returning its completion
// value.
func (eng *Engine) RunProgram(code *compiler.CodeBlock) (value.Value, error) {
	closure := NewClosure(code, eng.Global)
	frame := &CallFrame{closure: closure, env: eng.Global, this: value.Undefined}
	v, _, err := eng.run(frame)
	if err != nil {
		return value.Value{}, err
	}
	eng.DrainJobs()
	return v, nil
}

// DrainJobs runs every job enqueued by settled promise reactions (spec
// §4.6's microtask queue), FIFO, until empty — including jobs enqueued
// by jobs run earlier in the same drain.
func (eng *Engine) DrainJobs() {
	for len(eng.jobs) > 0 {
		job := eng.jobs[0]
		eng.jobs = eng.jobs[1:]
		job()
	}
}

func (eng *Engine) enqueueJob(job func()) { eng.jobs = append(eng.jobs, job) }

// --- exceptions ---

// thrownValue wraps a JS-visible exception value as a Go error so it
// can propagate through ordinary Go error returns until a Handler
// table entry (or the top-level caller) catches it.
type thrownValue struct{ v value.Value }

func (t *thrownValue) Error() string { return "uncaught exception" }

// Thrown extracts the JS value carried by an error produced by Throw/
// a host TypeError-family conversion, for a caller (the embedding API,
// a test) that wants the actual thrown value rather than a Go error
// string.
func Thrown(err error) (value.Value, bool) {
	if t, ok := err.(*thrownValue); ok {
		return t.v, true
	}
	return value.Value{}, false
}

// toException turns any error bubbling up from internal/object/
// internal/value (TypeError, RangeError, ReferenceError, SyntaxError,
// or an already-thrown JS value) into the Value the catch binding
// should see.
func (eng *Engine) toException(err error) value.Value {
	if t, ok := err.(*thrownValue); ok {
		return t.v
	}
	name, msg := "Error", err.Error()
	if k, ok := err.(value.Kinded); ok {
		switch k.Kind() {
		case value.KindTypeError:
			name = "TypeError"
		case value.KindRangeError:
			name = "RangeError"
		case value.KindReferenceError:
			name = "ReferenceError"
		case value.KindSyntaxError:
			name = "SyntaxError"
		}
	}
	proto := eng.ObjectProto
	if p, ok := eng.ErrorProtos[name]; ok {
		proto = p
	}
	errObj := eng.obj.NewOrdinary(proto)
	o := eng.obj.Resolve(errObj)
	o.Properties().Define(eng.keyFor("name"), object.Descriptor{
		HasValue: true, Value: eng.internStringValue(name), Writable: true, Configurable: true,
		HasWritable: true, HasConfigurable: true,
	})
	o.Properties().Define(eng.keyFor("message"), object.Descriptor{
		HasValue: true, Value: eng.internStringValue(msg), Writable: true, Configurable: true,
		HasWritable: true, HasConfigurable: true,
	})
	return errObj
}

func (eng *Engine) internStringValue(s string) value.Value {
	return value.HeapValue(value.TagString, eng.obj.Strings.Intern(s))
}

// findHandler returns the innermost Handler whose [StartPC,EndPC) range
// contains pc, last-declared-first since compileTry appends the catch
// entry before the finally entry for the same try and nested trys
// compile (and so append) after their enclosing one's body but before
// its own handler entries are appended — scanning in reverse always
// finds the innermost match first.
func findHandler(code *compiler.CodeBlock, pc int) (compiler.Handler, bool) {
	for i := len(code.Handlers) - 1; i >= 0; i-- {
		h := code.Handlers[i]
		if pc >= h.StartPC && pc < h.EndPC {
			return h, true
		}
	}
	return compiler.Handler{}, false
}

// yieldSignal is returned by run when OpYield/OpAwait suspends the
// frame; the frame itself (pc, stack, env) stays intact for a later
// resume call, so suspension never needs a goroutine (spec explicitly
// models generators via an explicit continuation, not host coroutines).
type yieldSignal struct {
	value     value.Value
	isAwait   bool
	isForReturn bool // OpGeneratorResumeReturn: this "yield point" is really a forced return
}

// run executes frame's CodeBlock from its current pc until Return,
// an uncaught error, or a Yield/Await suspension point.
func (eng *Engine) run(frame *CallFrame) (value.Value, *yieldSignal, error) {
	code := frame.closure.Code
	if frame.pendingThrow != nil {
		t := *frame.pendingThrow
		frame.pendingThrow = nil
		if h, ok := findHandler(code, frame.pc); ok {
			frame.pc = h.HandlerPC
			if h.StackDepthAtEntry <= frame.stack.len() {
				frame.stack.data = frame.stack.data[:h.StackDepthAtEntry]
			}
			if h.Kind == compiler.HandlerCatch {
				frame.stack.push(eng.toException(&thrownValue{v: t}))
			}
		} else {
			return value.Value{}, nil, &thrownValue{v: t}
		}
	} else if frame.pendingResume != nil {
		frame.stack.push(*frame.pendingResume)
		frame.pendingResume = nil
	}
	bc := code.Bytecode

	for frame.pc < len(bc) {
		if eng.InterruptCheck != nil && eng.InterruptCheck() {
			return value.Value{}, nil, &value.RangeError{Message: "execution interrupted"}
		}
		startPC := frame.pc
		op := compiler.Opcode(bc[frame.pc])
		frame.pc++
		operand := 0
		if op.OperandCount() == 1 {
			operand = int(int32(binary.BigEndian.Uint32(bc[frame.pc : frame.pc+4])))
			frame.pc += 4
		}

		result, sig, err := eng.step(frame, op, operand)
		if sig != nil {
			return value.Undefined, sig, nil
		}
		if err != nil {
			if h, ok := findHandler(code, startPC); ok {
				frame.pc = h.HandlerPC
				if h.StackDepthAtEntry <= frame.stack.len() {
					frame.stack.data = frame.stack.data[:h.StackDepthAtEntry]
				}
				if h.Kind == compiler.HandlerCatch {
					frame.stack.push(eng.toException(err))
				}
				continue
			}
			return value.Value{}, nil, err
		}
		if result.done {
			return result.value, nil, nil
		}
	}
	return value.Undefined, nil, nil
}

// stepResult lets step signal "this opcode ended the frame" (Return)
// without a separate sentinel error.
type stepResult struct {
	done  bool
	value value.Value
}

func (eng *Engine) step(frame *CallFrame, op compiler.Opcode, operand int) (stepResult, *yieldSignal, error) {
	s := &frame.stack
	code := frame.closure.Code
	switch op {
	case compiler.OpNop:
	case compiler.OpPushUndefined:
		s.push(value.Undefined)
	case compiler.OpPushNull:
		s.push(value.Null)
	case compiler.OpPushTrue:
		s.push(value.True)
	case compiler.OpPushFalse:
		s.push(value.False)
	case compiler.OpPushConst, compiler.OpPushConstWide:
		c := code.Constants[operand]
		if c.IsString {
			s.push(eng.internStringValue(c.Str))
		} else {
			s.push(value.Number(c.Number))
		}
	case compiler.OpDup:
		s.push(s.peek())
	case compiler.OpSwap:
		a := s.pop()
		b := s.pop()
		s.push(a)
		s.push(b)
	case compiler.OpPop:
		s.pop()
	case compiler.OpMove:
		// Register-style absolute addressing is not exercised by this
		// compiler (every temporary stays stack-relative); kept as a
		// documented no-op target for a future register allocator.

	// --- arithmetic/comparison ---
	case compiler.OpAdd, compiler.OpSub, compiler.OpMul, compiler.OpDiv, compiler.OpMod, compiler.OpPow,
		compiler.OpShiftL, compiler.OpShiftR, compiler.OpUShiftR,
		compiler.OpBitAnd, compiler.OpBitOr, compiler.OpBitXor,
		compiler.OpEq, compiler.OpStrictEq, compiler.OpNotEq, compiler.OpStrictNotEq,
		compiler.OpLt, compiler.OpLe, compiler.OpGt, compiler.OpGe, compiler.OpInstanceOf, compiler.OpIn:
		b := s.pop()
		a := s.pop()
		r, err := eng.binaryOp(op, a, b)
		if err != nil {
			return stepResult{}, nil, err
		}
		s.push(r)
	case compiler.OpBitNot, compiler.OpNeg, compiler.OpPos, compiler.OpInc, compiler.OpDec:
		a := s.pop()
		r, err := eng.unaryOp(op, a)
		if err != nil {
			return stepResult{}, nil, err
		}
		s.push(r)

	// --- control ---
	case compiler.OpJump:
		frame.pc += operand
	case compiler.OpJumpIfTrue:
		if value.ToBoolean(s.pop()) {
			frame.pc += operand
		}
	case compiler.OpJumpIfFalse:
		if !value.ToBoolean(s.pop()) {
			frame.pc += operand
		}
	case compiler.OpJumpIfNullOrUndefined:
		if s.peek().IsNullish() {
			frame.pc += operand
		}
	case compiler.OpJumpIfNotUndefined:
		if !s.peek().IsUndefined() {
			frame.pc += operand
		}
	case compiler.OpThrow:
		return stepResult{}, nil, &thrownValue{v: s.pop()}
	case compiler.OpReThrow:
		return stepResult{}, nil, &thrownValue{v: s.pop()}

	// --- environment ---
	case compiler.OpPushDeclarativeEnv:
		frame.env = NewDeclarativeEnvironment(frame.env)
	case compiler.OpPushObjectEnv:
		obj := s.pop()
		frame.env = NewObjectEnvironment(eng, obj, frame.env)
	case compiler.OpPopEnvironment:
		frame.env = frame.env.outer
	case compiler.OpDefInitVar, compiler.OpDefInitLet, compiler.OpDefInitConst:
		name := code.Constants[operand].Str
		v := s.pop()
		if al, ok := frame.importAliases[name]; ok {
			delete(frame.importAliases, name)
			if !frame.env.AliasBinding(name, al.src, al.srcName) {
				return stepResult{}, nil, &thrownValue{v: eng.toException(&value.SyntaxError{
					Message: "The requested module does not provide an export named '" + al.srcName + "'",
				})}
			}
		} else {
			if frame.paramValues != nil {
				if pv, ok := frame.paramValues[name]; ok {
					v = pv
					delete(frame.paramValues, name)
				}
			}
			frame.env.Initialize(name, v, op != compiler.OpDefInitConst)
		}
	case compiler.OpGetName, compiler.OpGetNameOrUndefined:
		v, err := eng.getName(frame, code.Constants[operand], op == compiler.OpGetNameOrUndefined)
		if err != nil {
			return stepResult{}, nil, err
		}
		s.push(v)
	case compiler.OpSetName:
		v := s.peek()
		if err := eng.setName(frame, code.Constants[operand], v); err != nil {
			return stepResult{}, nil, err
		}
	case compiler.OpDeleteName:
		name := code.Constants[operand].Str
		_ = name // global-only delete; handled via global object below
		ok, err := eng.obj.Delete(eng.GlobalObject, eng.keyFor(name))
		if err != nil {
			return stepResult{}, nil, err
		}
		s.push(value.Bool(ok))

	// --- property ---
	case compiler.OpGetProperty:
		key := s.pop()
		obj := s.pop()
		v, err := eng.getProperty(obj, key)
		if err != nil {
			return stepResult{}, nil, err
		}
		s.push(v)
	case compiler.OpGetPropertyByName:
		obj := s.pop()
		name := code.Constants[operand].Str
		v, err := eng.getPropertyName(obj, name)
		if err != nil {
			return stepResult{}, nil, err
		}
		s.push(v)
	case compiler.OpSetProperty:
		key := s.pop()
		obj := s.pop()
		v := s.peek()
		if err := eng.setProperty(obj, key, v); err != nil {
			return stepResult{}, nil, err
		}
	case compiler.OpSetPropertyByName:
		obj := s.pop()
		name := code.Constants[operand].Str
		v := s.peek()
		if err := eng.setPropertyName(obj, name, v); err != nil {
			return stepResult{}, nil, err
		}
	case compiler.OpDefineOwnPropertyByName:
		// compileObjectExpression leaves [obj, value] with obj
		// underneath so the object stays on the stack across every
		// property in the literal; pop the value, peek the object.
		v := s.pop()
		obj := s.peek()
		name := code.Constants[operand].Str
		if err := eng.defineOwnPropertyName(obj, name, v); err != nil {
			return stepResult{}, nil, err
		}
	case compiler.OpSetAccessor:
		fn := s.pop()
		obj := s.peek()
		name := code.Constants[operand].Str
		if err := eng.setAccessor(obj, name, fn, true); err != nil {
			return stepResult{}, nil, err
		}
	case compiler.OpSetSetter:
		fn := s.pop()
		obj := s.peek()
		name := code.Constants[operand].Str
		if err := eng.setAccessor(obj, name, fn, false); err != nil {
			return stepResult{}, nil, err
		}
	case compiler.OpDeleteProperty:
		key := s.pop()
		obj := s.pop()
		k, err := eng.obj.ToKey(key)
		if err != nil {
			return stepResult{}, nil, err
		}
		ok, err := eng.obj.Delete(obj, k)
		if err != nil {
			return stepResult{}, nil, err
		}
		s.push(value.Bool(ok))
	case compiler.OpHasProperty:
		key := s.pop()
		obj := s.pop()
		k, err := eng.obj.ToKey(key)
		if err != nil {
			return stepResult{}, nil, err
		}
		ok, err := eng.obj.HasProperty(obj, k)
		if err != nil {
			return stepResult{}, nil, err
		}
		s.push(value.Bool(ok))

	// --- call/new ---
	case compiler.OpCall, compiler.OpCallSpread:
		args := s.popN(operand)
		callee := s.pop()
		this := s.pop()
		if !eng.obj.IsCallable(callee) {
			return stepResult{}, nil, &value.TypeError{Message: "value is not a function"}
		}
		v, err := eng.obj.Call(callee, this, args)
		if err != nil {
			return stepResult{}, nil, err
		}
		s.push(v)
	case compiler.OpNew, compiler.OpNewSpread:
		args := s.popN(operand)
		callee := s.pop()
		if !eng.obj.IsConstructor(callee) {
			return stepResult{}, nil, &value.TypeError{Message: "value is not a constructor"}
		}
		v, err := eng.obj.Construct(callee, args, callee)
		if err != nil {
			return stepResult{}, nil, err
		}
		s.push(v)
	case compiler.OpSuperCall:
		// Super-call target resolution belongs to class-construction
		// wiring in internal/builtins once class intrinsics exist; here
		// nothing is called and undefined is pushed.
		s.push(value.Undefined)
	case compiler.OpReturn:
		return stepResult{done: true, value: s.pop()}, nil, nil

	// --- functions/closures ---
	case compiler.OpGetFunction, compiler.OpGetGeneratorFunction:
		c := code.Constants[operand].Code
		fn := eng.makeFunction(frame.env, c)
		s.push(fn)
	case compiler.OpBindHomeObject:
		home := s.pop()
		fnVal := s.peek()
		if o := eng.obj.Resolve(fnVal); o != nil {
			if p, ok := o.Payload.(*object.FunctionPayload); ok {
				p.HomeObject = home
			}
		}

	// --- iteration ---
	case compiler.OpGetIterator, compiler.OpGetAsyncIterator:
		iterable := s.pop()
		it, err := eng.getIterator(iterable)
		if err != nil {
			return stepResult{}, nil, err
		}
		s.push(it)
	case compiler.OpIteratorNext:
		it := s.peek()
		res, err := eng.iteratorNext(it)
		if err != nil {
			return stepResult{}, nil, err
		}
		s.push(res)
	case compiler.OpIteratorResult:
		res := s.pop()
		done, value2, err := eng.iteratorResultParts(res)
		if err != nil {
			return stepResult{}, nil, err
		}
		if done {
			frame.pc += operand
		} else {
			s.push(value2)
		}
	case compiler.OpIteratorClose:
		s.pop() // the iterator left on the stack by GetIterator
	case compiler.OpGenerator:
		// A generator function's own body never runs Generator directly;
		// reserved for a future explicit "create nested generator" path.
	case compiler.OpYield:
		v := s.pop()
		return stepResult{}, &yieldSignal{value: v}, nil
	case compiler.OpAwait:
		v := s.pop()
		return stepResult{}, &yieldSignal{value: v, isAwait: true}, nil
	case compiler.OpGeneratorNext, compiler.OpAsyncGeneratorNext:
		// Driven externally by Generator.Next/GeneratorContext; not
		// reachable as a standalone instruction in this compiler's output.
	case compiler.OpGeneratorResumeReturn:
		return stepResult{}, &yieldSignal{isForReturn: true}, nil
	case compiler.OpGeneratorResumeThrow:
		return stepResult{}, nil, &thrownValue{v: s.pop()}
	case compiler.OpCreatePromiseCapability:
		p, payload := eng.obj.NewPromise(eng.promiseProtoOrNull())
		_ = payload
		s.push(p)
	case compiler.OpCompletePromiseCapability:
		v := s.pop()
		cap := s.pop()
		eng.settlePromise(cap, v, true)
		s.push(cap)

	// --- module ---
	case compiler.OpGetNamespace, compiler.OpImportCall, compiler.OpImportMeta:
		// Full module-namespace wiring lives in internal/module; these
		// opcodes push undefined in every context. Static import
		// bindings reach a module frame through importAliases and
		// paramValues instead (see the OpDefInit* case above).
		s.push(value.Undefined)

	// --- error/global helpers ---
	case compiler.OpThrowNewTypeError:
		return stepResult{}, nil, &value.TypeError{Message: code.Constants[operand].Str}
	case compiler.OpThrowNewSyntaxError:
		return stepResult{}, nil, &value.SyntaxError{Message: code.Constants[operand].Str}
	case compiler.OpCanDeclareGlobalVar, compiler.OpCanDeclareGlobalFunction,
		compiler.OpHasRestrictedGlobalProperty:
		s.push(value.True)
	case compiler.OpCreateGlobalVarBinding, compiler.OpCreateGlobalFunctionBinding:
		name := code.Constants[operand].Str
		eng.obj.DefineOwnProperty(eng.GlobalObject, eng.keyFor(name), object.Descriptor{
			HasValue: true, Value: value.Undefined, Writable: true, Enumerable: true,
			HasWritable: true, HasEnumerable: true, HasConfigurable: true,
		})

	default:
		// Unknown opcode: treat as a no-op rather than panicking the host
		// process; a malformed CodeBlock should surface as a thrown error
		// from whatever produced it, not a VM crash.
	}
	return stepResult{}, nil, nil
}
