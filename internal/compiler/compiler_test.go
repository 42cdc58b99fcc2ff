package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/esengine/internal/ast"
)

func ident(name string) *ast.Identifier { return &ast.Identifier{Name: name} }

func num(n float64) *ast.Literal { return &ast.Literal{LitKind: ast.LiteralNumber, Number: n} }

func varDecl(kind ast.VarKind, name string, init ast.Node) *ast.VariableDeclaration {
	return &ast.VariableDeclaration{
		VarKind:      kind,
		Declarations: []*ast.VariableDeclarator{{ID: ident(name), Init: init}},
	}
}

// countOp counts how many times op appears as an opcode byte in code
// (a crude but sufficient check since every instruction here either
// takes no operand or a 4-byte one, so opcode bytes never alias
// operand bytes once walked in instruction order).
func countOp(t *testing.T, code []byte, op Opcode) int {
	t.Helper()
	n := 0
	for i := 0; i < len(code); {
		b := Opcode(code[i])
		if b == op {
			n++
		}
		if b.operandCount() == 1 {
			i += 1 + operandWidth
		} else {
			i++
		}
	}
	return n
}

func TestCompileLiteralAndReturn(t *testing.T) {
	prog := &ast.Program{Body: []ast.Node{
		&ast.ReturnStatement{Argument: num(42)},
	}}
	code, diags := Compile(prog)
	require.Empty(t, diags)
	require.NotNil(t, code)
	// the explicit return plus the implicit PushUndefined/Return epilogue
	assert.Equal(t, 2, countOp(t, code.Bytecode, OpReturn))
	require.Len(t, code.Constants, 1)
	assert.Equal(t, ConstValue, code.Constants[0].Kind)
	assert.Equal(t, 42.0, code.Constants[0].Number)
}

func TestCompileVarDeclarationEmitsDefInitVar(t *testing.T) {
	prog := &ast.Program{Body: []ast.Node{
		varDecl(ast.VarVar, "x", num(1)),
	}}
	code, diags := Compile(prog)
	require.Empty(t, diags)
	// one DefInitVar for the prologue's hoisted "x" plus one for the
	// initializer assignment.
	assert.Equal(t, 2, countOp(t, code.Bytecode, OpDefInitVar))
}

func TestCompileIfElseEmitsBalancedJumps(t *testing.T) {
	prog := &ast.Program{Body: []ast.Node{
		&ast.IfStatement{
			Test:       ident("cond"),
			Consequent: &ast.ExpressionStatement{Expression: num(1)},
			Alternate:  &ast.ExpressionStatement{Expression: num(2)},
		},
	}}
	code, diags := Compile(prog)
	require.Empty(t, diags)
	assert.Equal(t, 1, countOp(t, code.Bytecode, OpJumpIfFalse))
	assert.GreaterOrEqual(t, countOp(t, code.Bytecode, OpJump), 1)
}

func TestCompileWhileLoopBackJump(t *testing.T) {
	prog := &ast.Program{Body: []ast.Node{
		&ast.WhileStatement{
			Test: ident("cond"),
			Body: &ast.BreakStatement{},
		},
	}}
	code, diags := Compile(prog)
	require.Empty(t, diags)
	assert.Equal(t, 1, countOp(t, code.Bytecode, OpJumpIfFalse))
	// one forward jump for `break`, one backward jump closing the loop
	assert.Equal(t, 2, countOp(t, code.Bytecode, OpJump))
}

func TestCompileFunctionDeclarationProducesNestedCodeBlock(t *testing.T) {
	fn := &ast.FunctionDeclaration{Function: ast.Function{
		ID:   ident("f"),
		Body: &ast.BlockStatement{Body: []ast.Node{
			&ast.ReturnStatement{Argument: ident("x")},
		}},
		Params: []ast.Node{ident("x")},
	}}
	prog := &ast.Program{Body: []ast.Node{fn}}
	code, diags := Compile(prog)
	require.Empty(t, diags)

	var nested *CodeBlock
	for _, k := range code.Constants {
		if k.Kind == ConstCodeBlock {
			nested = k.Code
		}
	}
	require.NotNil(t, nested, "function declaration must emit a nested CodeBlock constant")
	assert.Equal(t, 1, nested.ParamCount)
	// the explicit return plus the implicit PushUndefined/Return epilogue
	assert.Equal(t, 2, countOp(t, nested.Bytecode, OpReturn))
}

func TestCompileTryCatchRecordsHandler(t *testing.T) {
	prog := &ast.Program{Body: []ast.Node{
		&ast.TryStatement{
			Block: &ast.BlockStatement{Body: []ast.Node{
				&ast.ThrowStatement{Argument: num(1)},
			}},
			Handler: &ast.CatchClause{
				Param: ident("e"),
				Body:  &ast.BlockStatement{Body: []ast.Node{}},
			},
		},
	}}
	code, diags := Compile(prog)
	require.Empty(t, diags)
	require.Len(t, code.Handlers, 1)
	assert.Equal(t, HandlerCatch, code.Handlers[0].Kind)
	assert.True(t, code.Handlers[0].HandlerPC > code.Handlers[0].StartPC)
}

func TestCompileAbandonsOnScopeDiagnostics(t *testing.T) {
	// `let x; let x;` is a duplicate lexical declaration, an early error
	// that must prevent any bytecode from being produced.
	prog := &ast.Program{Body: []ast.Node{
		varDecl(ast.VarLet, "x", nil),
		varDecl(ast.VarLet, "x", nil),
	}}
	code, diags := Compile(prog)
	assert.Nil(t, code)
	assert.NotEmpty(t, diags)
}
