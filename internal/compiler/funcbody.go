package compiler

import "github.com/oxhq/esengine/internal/ast"

// compileFunctionBody compiles fn's body into its own nested
// CodeBlock. node is the FunctionDeclaration/FunctionExpression/
// ArrowFunctionExpression/MethodDefinition's *ast.Function owner,
// used only to look up the Scope and FunctionInfo internal/scope
// already computed for it.
func (c *Compiler) compileFunctionBody(fn *ast.Function, node ast.Node) *CodeBlock {
	fnScope := c.childScopeOf(node)
	info := c.res.Functions[node]

	fc := c.fork(fnScope)
	fc.emitDeclarationInstantiation(fnScope, info, false)

	for i, p := range fn.Params {
		fc.compileParam(p, i)
	}

	switch body := fn.Body.(type) {
	case *ast.BlockStatement:
		for _, stmt := range body.Body {
			fc.compileStatement(stmt)
		}
		fc.emit(OpPushUndefined)
		fc.emit(OpReturn)
	default:
		// Concise arrow body: `(x) => x + 1`.
		fc.compileExpr(fn.Body)
		fc.emit(OpReturn)
	}

	flags := Flags(0)
	if fn.Strict || fnScope.Strict {
		flags |= FlagStrict
	}
	if fn.Async {
		flags |= FlagAsync
	}
	if fn.Generator {
		flags |= FlagGenerator
	}
	if info != nil && !info.HasParameterExpressions {
		flags |= FlagHasMappedArguments
	}

	name := ""
	if fn.ID != nil {
		name = fn.ID.Name
	}
	return &CodeBlock{
		Name:         name,
		Bytecode:     fc.bytecode,
		Constants:    fc.constants,
		ParamCount:   len(fn.Params),
		Length:       paramLength(fn.Params),
		Flags:        flags,
		Handlers:     fc.handlers,
		FunctionInfo: info,
		SourceMap:    fc.sourceMap,
	}
}

// paramLength is the function's "length" property: the count of
// parameters before the first default-valued or rest parameter.
func paramLength(params []ast.Node) int {
	n := 0
	for _, p := range params {
		switch p.(type) {
		case *ast.AssignmentPattern, *ast.RestElement:
			return n
		}
		n++
	}
	return n
}

// compileParam emits the default-value initializer for one parameter,
// if it has one. Binding of the raw argument value itself is the
// call frame's job (spec's FunctionDeclarationInstantiation binds
// parameters positionally before the body's prologue runs); only the
// "was this argument undefined, substitute the default" check belongs
// to bytecode.
func (c *Compiler) compileParam(p ast.Node, _ int) {
	ap, ok := p.(*ast.AssignmentPattern)
	if !ok {
		return
	}
	id, ok := ap.Left.(*ast.Identifier)
	if !ok {
		return
	}
	c.emit(OpGetName, c.nameConstant(id.Name))
	jNotUndef := c.emit(OpJumpIfNotUndefined)
	c.compileExpr(ap.Right)
	c.compileAssignmentTarget(ap.Left)
	c.emit(OpPop)
	c.patchJump(jNotUndef)
}
