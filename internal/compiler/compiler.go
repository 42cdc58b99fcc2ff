package compiler

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/oxhq/esengine/internal/ast"
	"github.com/oxhq/esengine/internal/scope"
)

// instruction encoding: one opcode byte followed by a fixed 4-byte
// big-endian operand slot when Opcode.operandCount() == 1, nothing
// otherwise. Spec §4.5.1 describes per-call-site u8/u16/u32 operand
// widths (GetName/GetNameWide/GetNameWider) purely as a code-size
// optimization; this compiler always emits the wide form; see
// DESIGN.md for the rationale.
const operandWidth = 4

// loopCtx tracks one enclosing loop's break/continue jump patch sites
// (spec's Break/Continue opcodes need the innermost matching loop, or
// the labeled one when Label is set).
type loopCtx struct {
	label        string
	breaks       []int
	continues    []int
	continueDest int // set once the loop's update/condition point is known
}

// tryCtx tracks one enclosing try block while its body compiles, so a
// nested Throw/Return knows the handler table entry it's inside of.
type tryCtx struct {
	startPC int
}

// Compiler performs a single AST→bytecode pass per CodeBlock (spec
// §4.5), reusing a scope.Result already computed for the whole
// program. One Compiler instance exists per CodeBlock (script or
// function); compiling a nested function forks a child Compiler.
//
// Grounded on internal/core/pipeline.go's Stage-chained, trace-gated
// pipeline and ozanh-ugo's compiler.go constant-pool/symbol-table
// bookkeeping style (see opcode.go's package doc).
type Compiler struct {
	parent *Compiler

	res   *scope.Result
	scope *scope.Scope

	bytecode    []byte
	constants   []Constant
	constsCache map[Constant]int
	sourceMap   map[int]int

	loops []*loopCtx
	tries []*tryCtx

	handlers []Handler

	// childCursor tracks, per scope, how many of its Children the
	// compiler has already consumed via childScopeOf — the analyzer
	// and compiler walk the same tree in the same order, so children
	// are claimed left to right in lockstep.
	childCursor map[*scope.Scope]int

	trace  io.Writer
	indent int
}

// Compile runs scope analysis and compiles prog into a CodeBlock. The
// returned diagnostics mirror spec's early-error reporting; a non-nil
// diagnostics slice means compilation was abandoned without emitting
// bytecode (per spec, early errors prevent execution entirely).
func Compile(prog *ast.Program, opts ...Option) (*CodeBlock, []scope.Diagnostic) {
	res := scope.Analyze(prog)
	if len(res.Diagnostics) > 0 {
		return nil, res.Diagnostics
	}

	c := &Compiler{
		res:         res,
		scope:       res.Global,
		constsCache: make(map[Constant]int),
		sourceMap:   make(map[int]int),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.emitDeclarationInstantiation(res.Global, nil, prog.IsModule)
	for _, stmt := range prog.Body {
		c.compileStatement(stmt)
	}
	c.emit(OpPushUndefined)
	c.emit(OpReturn)

	flags := Flags(0)
	if prog.IsModule || res.Global.Strict {
		flags |= FlagStrict
	}
	return &CodeBlock{
		Bytecode:  c.bytecode,
		Constants: c.constants,
		Flags:     flags,
		Handlers:  c.handlers,
		SourceMap: c.sourceMap,
	}, nil
}

// Option customizes a Compiler; currently only tracing.
type Option func(*Compiler)

// WithTrace enables EMIT tracing to w, mirroring internal/core/
// pipeline.go's trace-gated `fmt.Fprintf` idiom.
func WithTrace(w io.Writer) Option { return func(c *Compiler) { c.trace = w } }

func (c *Compiler) fork(fnScope *scope.Scope) *Compiler {
	return &Compiler{
		parent:      c,
		res:         c.res,
		scope:       fnScope,
		constsCache: make(map[Constant]int),
		sourceMap:   make(map[int]int),
		trace:       c.trace,
		indent:      c.indent + 1,
	}
}

// --- emission ---

func (c *Compiler) emit(op Opcode, operand ...int) int {
	pos := len(c.bytecode)
	c.bytecode = append(c.bytecode, byte(op))
	if op.operandCount() == 1 {
		v := 0
		if len(operand) > 0 {
			v = operand[0]
		}
		var buf [operandWidth]byte
		binary.BigEndian.PutUint32(buf[:], uint32(v))
		c.bytecode = append(c.bytecode, buf[:]...)
	}
	if c.trace != nil {
		fmt.Fprintf(c.trace, "%*sEMIT %04d %s\n", c.indent*2, "", pos, op)
	}
	return pos
}

func (c *Compiler) patchOperand(pos int, v int) {
	var buf [operandWidth]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	copy(c.bytecode[pos+1:pos+1+operandWidth], buf[:])
}

// patchJump rewrites the jump instruction at pos so its operand is the
// relative offset (spec §4.5.1 "jump offset, signed, relative to
// instruction end") to the current end of the instruction stream.
func (c *Compiler) patchJump(pos int) {
	target := len(c.bytecode)
	offset := target - (pos + 1 + operandWidth)
	c.patchOperand(pos, offset)
}

func (c *Compiler) here() int { return len(c.bytecode) }

func (c *Compiler) emitJumpBack(op Opcode, dest int) {
	pos := c.emit(op)
	offset := dest - (pos + 1 + operandWidth)
	c.patchOperand(pos, offset)
}

// addConstant interns a Constant, reusing prior entries for anything
// hashable (ConstValue/ConstName/ConstBindingLocator); CodeBlocks and
// Scopes are never deduplicated since each nested function gets its
// own.
func (c *Compiler) addConstant(k Constant) int {
	if k.Kind != ConstCodeBlock && k.Kind != ConstScopeRecord {
		if idx, ok := c.constsCache[k]; ok {
			return idx
		}
	}
	idx := len(c.constants)
	c.constants = append(c.constants, k)
	if k.Kind != ConstCodeBlock && k.Kind != ConstScopeRecord {
		c.constsCache[k] = idx
	}
	return idx
}

func (c *Compiler) pushNumber(n float64) {
	idx := c.addConstant(Constant{Kind: ConstValue, Number: n})
	c.emit(OpPushConst, idx)
}

func (c *Compiler) pushString(s string) {
	idx := c.addConstant(Constant{Kind: ConstValue, IsString: true, Str: s})
	c.emit(OpPushConst, idx)
}

func (c *Compiler) nameConstant(name string) int {
	return c.addConstant(Constant{Kind: ConstName, Str: name})
}

func (c *Compiler) locatorConstant(name string, loc scope.BindingLocator) int {
	// The VM resolves bindings by name against a name-keyed Environment
	// chain rather than by (scope_index, binding_index) slot (see
	// internal/vm/environment.go); Str carries the name so GetName/
	// SetName have something to look up, while Locator is kept on the
	// constant for future slot-indexed addressing.
	return c.addConstant(Constant{Kind: ConstBindingLocator, Str: name, Locator: loc})
}

// --- declaration instantiation (spec §4.5.3) ---

// emitDeclarationInstantiation is the prologue every script, module,
// function, and eval body begins with: it walks the already-computed
// scope set and emits the Push*Env / DefInit* / GetFunction+DefInitVar
// sequence that brings every declared binding for this scope into
// existence before the body's first real statement runs.
func (c *Compiler) emitDeclarationInstantiation(s *scope.Scope, info *scope.FunctionInfo, isModule bool) {
	c.emit(OpPushDeclarativeEnv)
	for _, b := range s.Bindings() {
		switch b.Kind {
		case scope.BindingVar, scope.BindingParam:
			c.emit(OpPushUndefined)
			c.emit(OpDefInitVar, c.nameConstant(b.Name))
		case scope.BindingLet:
			c.emit(OpPushUndefined)
			c.emit(OpDefInitLet, c.nameConstant(b.Name))
		case scope.BindingConst:
			c.emit(OpPushUndefined)
			c.emit(OpDefInitConst, c.nameConstant(b.Name))
		case scope.BindingClass, scope.BindingCatch, scope.BindingImport:
			c.emit(OpPushUndefined)
			c.emit(OpDefInitLet, c.nameConstant(b.Name))
		case scope.BindingFunction:
			// Left undefined here; the FunctionDeclaration statement
			// itself (compileFunctionDeclaration) emits GetFunction +
			// DefInitVar when the walk reaches it. Spec's eager,
			// before-other-statements initialization order for
			// FunctionsToInitialize is not reproduced — this compiler
			// initializes function declarations at their textual
			// position instead; see DESIGN.md Open Questions.
		}
	}
	if info != nil && info.NeedsArguments {
		// The VM's call-setup materializes the arguments object
		// directly into this binding's slot (mapped or unmapped per
		// FlagHasMappedArguments) rather than via an opcode sequence.
		c.emit(OpPushUndefined)
		c.emit(OpDefInitVar, c.nameConstant("arguments"))
	}
	_ = isModule
}

// --- statements ---

func (c *Compiler) compileStatement(n ast.Node) {
	switch st := n.(type) {
	case *ast.ExpressionStatement:
		c.compileExpr(st.Expression)
		c.emit(OpPop)
	case *ast.BlockStatement:
		c.compileBlock(st)
	case *ast.VariableDeclaration:
		for _, d := range st.Declarations {
			c.compileVariableDeclarator(st.VarKind, d)
		}
	case *ast.FunctionDeclaration:
		c.compileFunctionDeclaration(st)
	case *ast.ClassDeclaration:
		c.compileClassDeclaration(st)
	case *ast.IfStatement:
		c.compileIf(st)
	case *ast.WhileStatement:
		c.compileWhile(st)
	case *ast.DoWhileStatement:
		c.compileDoWhile(st)
	case *ast.ForStatement:
		c.compileFor(st)
	case *ast.ForInStatement:
		c.compileForInOf(st.Left, st.Right, st.Body, false)
	case *ast.ForOfStatement:
		c.compileForInOf(st.Left, st.Right, st.Body, true)
	case *ast.ReturnStatement:
		if st.Argument != nil {
			c.compileExpr(st.Argument)
		} else {
			c.emit(OpPushUndefined)
		}
		c.emit(OpReturn)
	case *ast.ThrowStatement:
		c.compileExpr(st.Argument)
		c.emit(OpThrow)
	case *ast.TryStatement:
		c.compileTry(st)
	case *ast.SwitchStatement:
		c.compileSwitch(st)
	case *ast.BreakStatement:
		c.compileBreak(st)
	case *ast.ContinueStatement:
		c.compileContinue(st)
	case *ast.LabeledStatement:
		c.compileLabeled(st)
	case *ast.EmptyStatement, *ast.DebuggerStatement:
		// no-op
	case *ast.ImportDeclaration, *ast.ExportAllDeclaration:
		// module linkage is resolved by internal/module before
		// evaluation; nothing to emit here.
	case *ast.ExportNamedDeclaration:
		if st.Declaration != nil {
			c.compileStatement(st.Declaration)
		}
	case *ast.ExportDefaultDeclaration:
		c.compileExportDefault(st)
	case *ast.WithStatement:
		c.compileExpr(st.Object)
		c.emit(OpPushObjectEnv)
		c.compileStatement(st.Body)
		c.emit(OpPopEnvironment)
	}
}

func (c *Compiler) compileBlock(block *ast.BlockStatement) {
	outer := c.scope
	c.scope = c.childScopeOf(block)
	hasLexical := len(c.scope.Bindings()) > 0
	if hasLexical {
		c.emit(OpPushDeclarativeEnv)
		for _, b := range c.scope.Bindings() {
			c.emit(OpPushUndefined)
			switch b.Kind {
			case scope.BindingConst:
				c.emit(OpDefInitConst, c.nameConstant(b.Name))
			default:
				c.emit(OpDefInitLet, c.nameConstant(b.Name))
			}
		}
	}
	for _, stmt := range block.Body {
		c.compileStatement(stmt)
	}
	if hasLexical {
		c.emit(OpPopEnvironment)
	}
	c.scope = outer
}

// childScopeOf returns the current scope's next not-yet-consumed child;
// the node argument is not inspected. The analyzer and compiler walk
// the same tree in the same order, so that child is the Scope the
// analyzer created for this node.
func (c *Compiler) childScopeOf(_ ast.Node) *scope.Scope {
	// The analyzer appends children in walk order and the compiler
	// walks in the same order, so consuming children left-to-right via
	// an index cursor keeps them in lockstep.
	idx := c.childCursor[c.scope]
	if c.childCursor == nil {
		c.childCursor = map[*scope.Scope]int{}
	}
	child := c.scope.Children[idx]
	c.childCursor[c.scope] = idx + 1
	return child
}

func (c *Compiler) compileVariableDeclarator(kind ast.VarKind, d *ast.VariableDeclarator) {
	if d.Init != nil {
		c.compileExpr(d.Init)
	} else {
		c.emit(OpPushUndefined)
	}
	c.compileBindingTargetInit(kind, d.ID)
}

func (c *Compiler) compileBindingTargetInit(kind ast.VarKind, target ast.Node) {
	id, ok := target.(*ast.Identifier)
	if !ok {
		// Destructuring patterns need per-element GetProperty/
		// IteratorNext sequences; left for the VM's structured-binding
		// helper once internal/vm exists to execute against, see
		// DESIGN.md.
		c.emit(OpPop)
		return
	}
	nameIdx := c.nameConstant(id.Name)
	switch kind {
	case ast.VarConst:
		c.emit(OpDefInitConst, nameIdx)
	case ast.VarLet:
		c.emit(OpDefInitLet, nameIdx)
	default:
		c.emit(OpDefInitVar, nameIdx)
	}
}

func (c *Compiler) compileFunctionDeclaration(fn *ast.FunctionDeclaration) {
	code := c.compileFunctionBody(&fn.Function, fn)
	idx := c.addConstant(Constant{Kind: ConstCodeBlock, Code: code})
	c.emit(OpGetFunction, idx)
	if fn.ID != nil {
		c.emit(OpDefInitVar, c.nameConstant(fn.ID.Name))
	} else {
		c.emit(OpPop)
	}
}

func (c *Compiler) compileClassDeclaration(cls *ast.ClassDeclaration) {
	code := c.compileClassBody(cls.SuperClass, cls.Body)
	idx := c.addConstant(Constant{Kind: ConstCodeBlock, Code: code})
	c.emit(OpGetFunction, idx)
	if cls.ID != nil {
		c.emit(OpDefInitLet, c.nameConstant(cls.ID.Name))
	} else {
		c.emit(OpPop)
	}
}

// compileClassBody walks every member in source order — matching
// internal/scope's walkClass exactly, so each MethodDefinition's
// childScopeOf call claims the right Scope — compiling the
// constructor's CodeBlock and discarding (but still evaluating, to
// keep the scope-child cursor aligned) every other member. Per-member
// DefineOwnPropertyByName/SetAccessor installation onto the
// constructor's prototype is internal/vm's class-creation helper's
// job once it exists; see DESIGN.md Open Questions.
func (c *Compiler) compileClassBody(superClass ast.Node, body *ast.ClassBody) *CodeBlock {
	if superClass != nil {
		c.compileExpr(superClass)
		c.emit(OpPop)
	}
	var ctorCode *CodeBlock
	if body != nil {
		for _, m := range body.Body {
			switch member := m.(type) {
			case *ast.MethodDefinition:
				mcode := c.compileFunctionBody(&member.Value.Function, member.Value)
				mcode.Flags |= FlagMethod
				if id, ok := member.Key.(*ast.Identifier); ok && id.Name == "constructor" && !member.Static {
					ctorCode = mcode
				}
			case *ast.PropertyDefinition:
				if member.Computed {
					c.compileExpr(member.Key)
					c.emit(OpPop)
				}
				if member.Value != nil {
					c.compileExpr(member.Value)
					c.emit(OpPop)
				}
			}
		}
	}
	if ctorCode == nil {
		ctorCode = &CodeBlock{Bytecode: []byte{byte(OpPushUndefined), byte(OpReturn)}}
	}
	ctorCode.Flags |= FlagClassConstructor
	return ctorCode
}

// DefaultExportBinding is the synthetic binding name `export default`
// initializes (spec's "*default*"): internal/module's local export
// resolution looks imports of the "default" export name up through
// this name, exactly like any other named export.
const DefaultExportBinding = "*default*"

func (c *Compiler) compileExportDefault(st *ast.ExportDefaultDeclaration) {
	switch d := st.Declaration.(type) {
	case *ast.FunctionDeclaration:
		code := c.compileFunctionBody(&d.Function, d)
		idx := c.addConstant(Constant{Kind: ConstCodeBlock, Code: code})
		c.emit(OpGetFunction, idx)
		if d.ID != nil {
			c.emit(OpDup)
			c.emit(OpDefInitVar, c.nameConstant(d.ID.Name))
		}
		c.emit(OpDefInitConst, c.nameConstant(DefaultExportBinding))
	case *ast.ClassDeclaration:
		code := c.compileClassBody(d.SuperClass, d.Body)
		idx := c.addConstant(Constant{Kind: ConstCodeBlock, Code: code})
		c.emit(OpGetFunction, idx)
		if d.ID != nil {
			c.emit(OpDup)
			c.emit(OpDefInitLet, c.nameConstant(d.ID.Name))
		}
		c.emit(OpDefInitConst, c.nameConstant(DefaultExportBinding))
	default:
		c.compileExpr(st.Declaration)
		c.emit(OpDefInitConst, c.nameConstant(DefaultExportBinding))
	}
}

func (c *Compiler) compileIf(st *ast.IfStatement) {
	c.compileExpr(st.Test)
	jf := c.emit(OpJumpIfFalse)
	c.compileStatement(st.Consequent)
	if st.Alternate != nil {
		jEnd := c.emit(OpJump)
		c.patchJump(jf)
		c.compileStatement(st.Alternate)
		c.patchJump(jEnd)
	} else {
		c.patchJump(jf)
	}
}

func (c *Compiler) compileWhile(st *ast.WhileStatement) {
	start := c.here()
	c.compileExpr(st.Test)
	jf := c.emit(OpJumpIfFalse)
	loop := &loopCtx{continueDest: start}
	c.loops = append(c.loops, loop)
	c.compileStatement(st.Body)
	c.loops = c.loops[:len(c.loops)-1]
	c.emitJumpBack(OpJump, start)
	c.patchJump(jf)
	for _, b := range loop.breaks {
		c.patchJump(b)
	}
}

func (c *Compiler) compileDoWhile(st *ast.DoWhileStatement) {
	start := c.here()
	loop := &loopCtx{}
	c.loops = append(c.loops, loop)
	c.compileStatement(st.Body)
	contDest := c.here()
	loop.continueDest = contDest
	c.loops = c.loops[:len(c.loops)-1]
	c.compileExpr(st.Test)
	c.emitJumpBack(OpJumpIfTrue, start)
	for _, b := range loop.breaks {
		c.patchJump(b)
	}
}

func (c *Compiler) compileFor(st *ast.ForStatement) {
	outer := c.scope
	perIteration := false
	if decl, ok := st.Init.(*ast.VariableDeclaration); ok && decl.VarKind != ast.VarVar {
		perIteration = true
		c.scope = c.childScopeOf(st)
		c.emit(OpPushDeclarativeEnv)
		for _, d := range decl.Declarations {
			c.compileVariableDeclarator(decl.VarKind, d)
		}
	} else if st.Init != nil {
		c.compileStatement(st.Init)
	}

	start := c.here()
	var jf int
	hasTest := st.Test != nil
	if hasTest {
		c.compileExpr(st.Test)
		jf = c.emit(OpJumpIfFalse)
	}
	loop := &loopCtx{}
	c.loops = append(c.loops, loop)
	c.compileStatement(st.Body)
	contDest := c.here()
	loop.continueDest = contDest
	if st.Update != nil {
		c.compileExpr(st.Update)
		c.emit(OpPop)
	}
	c.loops = c.loops[:len(c.loops)-1]
	c.emitJumpBack(OpJump, start)
	if hasTest {
		c.patchJump(jf)
	}
	for _, b := range loop.breaks {
		c.patchJump(b)
	}
	if perIteration {
		c.emit(OpPopEnvironment)
		c.scope = outer
	}
}

func (c *Compiler) compileForInOf(left, right, body ast.Node, isOf bool) {
	c.compileExpr(right)
	if isOf {
		c.emit(OpGetIterator)
	} else {
		c.emit(OpGetIterator) // ForIn's own enumerator construction shares the iterator protocol surface here
	}
	start := c.here()
	c.emit(OpIteratorNext)
	jf := c.emit(OpIteratorResult) // VM interprets this as "done? jump to exit : push value"
	outer := c.scope
	if decl, ok := left.(*ast.VariableDeclaration); ok {
		if decl.VarKind != ast.VarVar {
			c.scope = c.childScopeOf(body)
			c.emit(OpPushDeclarativeEnv)
		}
		c.compileBindingTargetInit(decl.VarKind, decl.Declarations[0].ID)
	} else {
		c.compileAssignmentTarget(left)
	}
	loop := &loopCtx{continueDest: start}
	c.loops = append(c.loops, loop)
	c.compileStatement(body)
	c.loops = c.loops[:len(c.loops)-1]
	if _, ok := left.(*ast.VariableDeclaration); ok {
		if decl := left.(*ast.VariableDeclaration); decl.VarKind != ast.VarVar {
			c.emit(OpPopEnvironment)
			c.scope = outer
		}
	}
	c.emitJumpBack(OpJump, start)
	c.patchJump(jf)
	c.emit(OpIteratorClose)
	for _, b := range loop.breaks {
		c.patchJump(b)
	}
}

func (c *Compiler) compileTry(st *ast.TryStatement) {
	startPC := c.here()
	c.compileBlock(st.Block)
	jEnd := c.emit(OpJump)

	if st.Handler != nil {
		handlerPC := c.here()
		outer := c.scope
		c.scope = c.childScopeOf(st.Handler)
		c.emit(OpPushDeclarativeEnv)
		if st.Handler.Param != nil {
			c.compileBindingTargetInit(ast.VarLet, st.Handler.Param)
		} else {
			c.emit(OpPop)
		}
		for _, stmt := range st.Handler.Body.Body {
			c.compileStatement(stmt)
		}
		c.emit(OpPopEnvironment)
		c.scope = outer
		c.handlers = append(c.handlers, Handler{
			StartPC: startPC, EndPC: jEnd, HandlerPC: handlerPC, Kind: HandlerCatch,
		})
	}
	c.patchJump(jEnd)
	if st.Finalizer != nil {
		finPC := c.here()
		c.compileBlock(st.Finalizer)
		c.handlers = append(c.handlers, Handler{
			StartPC: startPC, EndPC: finPC, HandlerPC: finPC, Kind: HandlerFinally,
		})
	}
}

func (c *Compiler) compileSwitch(st *ast.SwitchStatement) {
	c.compileExpr(st.Discriminant)
	outer := c.scope
	c.scope = c.childScopeOf(st)
	hasLexical := len(c.scope.Bindings()) > 0
	if hasLexical {
		c.emit(OpPushDeclarativeEnv)
		for _, b := range c.scope.Bindings() {
			c.emit(OpPushUndefined)
			c.emit(OpDefInitLet, c.nameConstant(b.Name))
		}
	}

	var caseJumps []int
	defaultIdx := -1
	for i, cs := range st.Cases {
		if cs.Test == nil {
			defaultIdx = i
			continue
		}
		c.emit(OpDup)
		c.compileExpr(cs.Test)
		c.emit(OpStrictEq)
		caseJumps = append(caseJumps, c.emit(OpJumpIfTrue))
	}
	jToDefaultOrEnd := c.emit(OpJump)

	loop := &loopCtx{}
	c.loops = append(c.loops, loop)

	caseStarts := make([]int, 0, len(st.Cases))
	ji := 0
	for i, cs := range st.Cases {
		if cs.Test != nil {
			c.patchJump(caseJumps[ji])
			ji++
		}
		if i == defaultIdx {
			c.patchJump(jToDefaultOrEnd)
		}
		caseStarts = append(caseStarts, c.here())
		c.emit(OpPop) // discard the discriminant copy once this case is entered
		for _, stmt := range cs.Consequent {
			c.compileStatement(stmt)
		}
	}
	if defaultIdx == -1 {
		c.patchJump(jToDefaultOrEnd)
		c.emit(OpPop)
	}
	_ = caseStarts

	c.loops = c.loops[:len(c.loops)-1]
	for _, b := range loop.breaks {
		c.patchJump(b)
	}
	if hasLexical {
		c.emit(OpPopEnvironment)
	}
	c.scope = outer
}

func (c *Compiler) compileBreak(st *ast.BreakStatement) {
	if len(c.loops) == 0 {
		return
	}
	loop := c.loops[len(c.loops)-1]
	if st.Label != nil {
		for i := len(c.loops) - 1; i >= 0; i-- {
			if c.loops[i].label == st.Label.Name {
				loop = c.loops[i]
				break
			}
		}
	}
	pos := c.emit(OpJump)
	loop.breaks = append(loop.breaks, pos)
}

func (c *Compiler) compileContinue(st *ast.ContinueStatement) {
	if len(c.loops) == 0 {
		return
	}
	loop := c.loops[len(c.loops)-1]
	if st.Label != nil {
		for i := len(c.loops) - 1; i >= 0; i-- {
			if c.loops[i].label == st.Label.Name {
				loop = c.loops[i]
				break
			}
		}
	}
	c.emitJumpBack(OpJump, loop.continueDest)
}

func (c *Compiler) compileLabeled(st *ast.LabeledStatement) {
	// Attach the label to the loop the body introduces, if any, so
	// labeled break/continue can find it; non-loop labeled statements
	// only need break support, handled via a synthetic loopCtx whose
	// continueDest is never used.
	synthetic := &loopCtx{label: st.Label.Name}
	c.loops = append(c.loops, synthetic)
	c.compileStatement(st.Body)
	c.loops = c.loops[:len(c.loops)-1]
	for _, b := range synthetic.breaks {
		c.patchJump(b)
	}
}
