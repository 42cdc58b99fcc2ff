package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/esengine/internal/ast"
)

func ident(name string) *ast.Identifier { return &ast.Identifier{Name: name} }

func varDecl(kind ast.VarKind, name string, init ast.Node) *ast.VariableDeclaration {
	return &ast.VariableDeclaration{
		VarKind:      kind,
		Declarations: []*ast.VariableDeclarator{{ID: ident(name), Init: init}},
	}
}

// TestGlobalVarHoisting verifies spec §4.4's var-hoisting contract: a
// var declared inside a nested block still binds at the function (or
// here, global) boundary, not the block.
func TestGlobalVarHoisting(t *testing.T) {
	prog := &ast.Program{Body: []ast.Node{
		&ast.BlockStatement{Body: []ast.Node{
			varDecl(ast.VarVar, "x", &ast.Literal{LitKind: ast.LiteralNumber, Number: 1}),
		}},
		&ast.ExpressionStatement{Expression: ident("x")},
	}}

	res := Analyze(prog)
	require.Empty(t, res.Diagnostics)

	_, ok := res.Global.Lookup("x")
	assert.True(t, ok, "var declared in a nested block must hoist to the function/global scope")

	exprStmt := prog.Body[1].(*ast.ExpressionStatement)
	ref := exprStmt.Expression.(*ast.Identifier)
	loc, ok := res.Locators[ref]
	require.True(t, ok)
	assert.False(t, loc.Global, "x resolves locally, not as an unresolved global reference")
	assert.Equal(t, res.Global.Index, loc.ScopeIndex)
}

// TestBlockScopedLet verifies a `let` declared in a block does NOT
// leak to the enclosing scope, and an identical name outside the
// block resolves to the global unresolved tier.
func TestBlockScopedLet(t *testing.T) {
	prog := &ast.Program{Body: []ast.Node{
		&ast.BlockStatement{Body: []ast.Node{
			varDecl(ast.VarLet, "y", nil),
		}},
		&ast.ExpressionStatement{Expression: ident("y")},
	}}

	res := Analyze(prog)
	require.Empty(t, res.Diagnostics)

	_, ok := res.Global.Lookup("y")
	assert.False(t, ok, "let must not leak out of its block")

	ref := prog.Body[1].(*ast.ExpressionStatement).Expression.(*ast.Identifier)
	loc := res.Locators[ref]
	assert.True(t, loc.Global, "y outside the block is unresolved")
}

// TestDuplicateLexicalDeclaration verifies spec §4.4's early-error
// report for redeclaring a lexical binding in the same scope.
func TestDuplicateLexicalDeclaration(t *testing.T) {
	prog := &ast.Program{Body: []ast.Node{
		varDecl(ast.VarLet, "z", nil),
		varDecl(ast.VarConst, "z", &ast.Literal{LitKind: ast.LiteralNumber, Number: 1}),
	}}

	res := Analyze(prog)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0].Message, "z")
}

// TestVarFunctionRedeclarationIsLegal verifies var/var and
// var/function redeclaration at the same scope is NOT an error (spec
// explicitly permits this, unlike let/let).
func TestVarFunctionRedeclarationIsLegal(t *testing.T) {
	fn := &ast.FunctionDeclaration{Function: ast.Function{ID: ident("f")}}
	prog := &ast.Program{Body: []ast.Node{
		varDecl(ast.VarVar, "f", nil),
		fn,
	}}

	res := Analyze(prog)
	assert.Empty(t, res.Diagnostics)
}

// TestFunctionParamsAndArguments verifies walkFunction populates
// FunctionInfo.ParamNames and resolves a reference to a parameter to
// the function's own scope, not the enclosing one.
func TestFunctionParamsAndArguments(t *testing.T) {
	ret := &ast.ReturnStatement{Argument: ident("a")}
	fn := &ast.FunctionDeclaration{Function: ast.Function{
		ID:     ident("add"),
		Params: []ast.Node{ident("a"), ident("b")},
		Body:   &ast.BlockStatement{Body: []ast.Node{ret}},
	}}
	prog := &ast.Program{Body: []ast.Node{fn}}

	res := Analyze(prog)
	require.Empty(t, res.Diagnostics)

	info, ok := res.Functions[fn]
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, info.ParamNames)
	assert.False(t, info.NeedsArguments)

	loc, ok := res.Locators[ret.Argument.(*ast.Identifier)]
	require.True(t, ok)
	assert.False(t, loc.Global)
	assert.NotEqual(t, res.Global.Index, loc.ScopeIndex, "parameter reference must resolve inside the function's own scope")
}

// TestArgumentsObjectDetection verifies a plain function body
// referencing "arguments" sets NeedsArguments, while an identically-
// shaped arrow function never does (arrows have no arguments object).
func TestArgumentsObjectDetection(t *testing.T) {
	body := []ast.Node{&ast.ExpressionStatement{Expression: ident("arguments")}}

	fn := &ast.FunctionDeclaration{Function: ast.Function{ID: ident("f"), Body: &ast.BlockStatement{Body: body}}}
	arrow := &ast.ArrowFunctionExpression{Function: ast.Function{Body: &ast.BlockStatement{Body: body}}}

	prog := &ast.Program{Body: []ast.Node{
		fn,
		&ast.ExpressionStatement{Expression: arrow},
	}}

	res := Analyze(prog)
	assert.True(t, res.Functions[fn].NeedsArguments)
	assert.False(t, res.Functions[arrow].NeedsArguments)
}

// TestPerIterationLoopBinding verifies a `let` in a for-loop's Init
// gets its own loop scope distinct from the enclosing one (spec's
// CreatePerIterationEnvironment), not a plain hoisted var binding.
func TestPerIterationLoopBinding(t *testing.T) {
	body := &ast.BlockStatement{Body: []ast.Node{
		&ast.ExpressionStatement{Expression: ident("i")},
	}}
	forStmt := &ast.ForStatement{
		Init: varDecl(ast.VarLet, "i", &ast.Literal{LitKind: ast.LiteralNumber, Number: 0}),
		Body: body,
	}
	prog := &ast.Program{Body: []ast.Node{forStmt}}

	res := Analyze(prog)
	require.Empty(t, res.Diagnostics)

	_, ok := res.Global.Lookup("i")
	assert.False(t, ok, "a for-let binding must not leak to the enclosing scope")

	ref := body.Body[0].(*ast.ExpressionStatement).Expression.(*ast.Identifier)
	loc, ok := res.Locators[ref]
	require.True(t, ok)
	assert.False(t, loc.Global)
	assert.NotEqual(t, res.Global.Index, loc.ScopeIndex)
}
