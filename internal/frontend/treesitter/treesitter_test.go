package treesitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/esengine/internal/ast"
	"github.com/oxhq/esengine/internal/frontend"
)

func parse(t *testing.T, src string, module bool) *ast.Program {
	t.Helper()
	p := New()
	prog, errs := p.Parse(src, frontend.Options{Module: module})
	require.Empty(t, errs, "unexpected parse errors for %q", src)
	require.NotNil(t, prog)
	return prog
}

func TestParseVariableDeclaration(t *testing.T) {
	prog := parse(t, "let x = 1, y = 2;", false)
	require.Len(t, prog.Body, 1)
	decl, ok := prog.Body[0].(*ast.VariableDeclaration)
	require.True(t, ok, "expected *ast.VariableDeclaration, got %T", prog.Body[0])
	assert.Equal(t, ast.VarLet, decl.VarKind)
	require.Len(t, decl.Declarations, 2)
	id, ok := decl.Declarations[0].ID.(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "x", id.Name)
	lit, ok := decl.Declarations[0].Init.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, ast.LiteralNumber, lit.LitKind)
	assert.Equal(t, float64(1), lit.Number)
}

func TestParseFunctionDeclarationAndCall(t *testing.T) {
	prog := parse(t, "function add(a, b) { return a + b; } add(1, 2);", false)
	require.Len(t, prog.Body, 2)

	fn, ok := prog.Body[0].(*ast.FunctionDeclaration)
	require.True(t, ok)
	require.NotNil(t, fn.ID)
	assert.Equal(t, "add", fn.ID.Name)
	require.Len(t, fn.Params, 2)

	body, ok := fn.Body.(*ast.BlockStatement)
	require.True(t, ok)
	require.Len(t, body.Body, 1)
	ret, ok := body.Body[0].(*ast.ReturnStatement)
	require.True(t, ok)
	bin, ok := ret.Argument.(*ast.BinaryExpression)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Operator)

	exprStmt, ok := prog.Body[1].(*ast.ExpressionStatement)
	require.True(t, ok)
	call, ok := exprStmt.Expression.(*ast.CallExpression)
	require.True(t, ok)
	callee, ok := call.Callee.(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "add", callee.Name)
	assert.Len(t, call.Args, 2)
}

func TestParseArrowFunctionExpressionBody(t *testing.T) {
	prog := parse(t, "const square = x => x * x;", false)
	decl := prog.Body[0].(*ast.VariableDeclaration)
	arrow, ok := decl.Declarations[0].Init.(*ast.ArrowFunctionExpression)
	require.True(t, ok)
	assert.True(t, arrow.ExpressionBody)
	require.Len(t, arrow.Params, 1)
	_, isMul := arrow.Body.(*ast.BinaryExpression)
	assert.True(t, isMul)
}

func TestParseArrayAndObjectLiterals(t *testing.T) {
	prog := parse(t, "const o = { a: 1, [b]: 2, ...c, d };", false)
	decl := prog.Body[0].(*ast.VariableDeclaration)
	obj, ok := decl.Declarations[0].Init.(*ast.ObjectExpression)
	require.True(t, ok)
	require.Len(t, obj.Properties, 4)

	p0 := obj.Properties[0].(*ast.Property)
	assert.False(t, p0.Computed)
	p1 := obj.Properties[1].(*ast.Property)
	assert.True(t, p1.Computed)
	_, isSpread := obj.Properties[2].(*ast.SpreadElement)
	assert.True(t, isSpread)
	p3 := obj.Properties[3].(*ast.Property)
	assert.True(t, p3.Shorthand)
}

func TestParseArrayElision(t *testing.T) {
	prog := parse(t, "const a = [1, , 3];", false)
	decl := prog.Body[0].(*ast.VariableDeclaration)
	arr, ok := decl.Declarations[0].Init.(*ast.ArrayExpression)
	require.True(t, ok)
	require.Len(t, arr.Elements, 3)
	assert.Nil(t, arr.Elements[1])
}

func TestParseClassDeclaration(t *testing.T) {
	prog := parse(t, `
class Animal {
  static count = 0;
  #name;
  constructor(name) { this.#name = name; }
  speak() { return this.#name; }
  get label() { return this.#name; }
}
`, false)
	cls, ok := prog.Body[0].(*ast.ClassDeclaration)
	require.True(t, ok)
	require.NotNil(t, cls.ID)
	assert.Equal(t, "Animal", cls.ID.Name)
	require.NotNil(t, cls.Body)

	var methodNames []string
	var sawStaticField, sawGetter bool
	for _, m := range cls.Body.Body {
		switch v := m.(type) {
		case *ast.MethodDefinition:
			key := v.Key.(*ast.Identifier)
			methodNames = append(methodNames, key.Name)
			if v.PropKind == ast.PropertyGet {
				sawGetter = true
			}
		case *ast.PropertyDefinition:
			if v.Static {
				sawStaticField = true
			}
		}
	}
	assert.Contains(t, methodNames, "constructor")
	assert.Contains(t, methodNames, "speak")
	assert.True(t, sawStaticField)
	assert.True(t, sawGetter)
}

func TestParseTemplateLiteralAndTaggedTemplate(t *testing.T) {
	prog := parse(t, "const s = `hello ${name}!`; tag`a${1}b`;", false)
	decl := prog.Body[0].(*ast.VariableDeclaration)
	tpl, ok := decl.Declarations[0].Init.(*ast.TemplateLiteral)
	require.True(t, ok)
	require.Len(t, tpl.Quasis, 2)
	assert.Equal(t, "hello ", tpl.Quasis[0])
	assert.Equal(t, "!", tpl.Quasis[1])
	require.Len(t, tpl.Expressions, 1)

	exprStmt := prog.Body[1].(*ast.ExpressionStatement)
	tagged, ok := exprStmt.Expression.(*ast.TaggedTemplate)
	require.True(t, ok)
	tag := tagged.Tag.(*ast.Identifier)
	assert.Equal(t, "tag", tag.Name)
	require.Len(t, tagged.Template.Expressions, 1)
}

func TestParseDestructuringAndDefaults(t *testing.T) {
	prog := parse(t, "function f({ a, b = 2, ...rest }, [x, , y] = []) {}", false)
	fn := prog.Body[0].(*ast.FunctionDeclaration)
	require.Len(t, fn.Params, 2)

	objPat, ok := fn.Params[0].(*ast.ObjectPattern)
	require.True(t, ok)
	require.Len(t, objPat.Properties, 3)
	_, isRest := objPat.Properties[2].(*ast.RestElement)
	assert.True(t, isRest)

	assignPat, ok := fn.Params[1].(*ast.AssignmentPattern)
	require.True(t, ok)
	arrPat, ok := assignPat.Left.(*ast.ArrayPattern)
	require.True(t, ok)
	require.Len(t, arrPat.Elements, 3)
	assert.Nil(t, arrPat.Elements[1])
}

func TestParseOptionalChainingAndNullish(t *testing.T) {
	prog := parse(t, "const v = a?.b?.[c] ?? d;", false)
	decl := prog.Body[0].(*ast.VariableDeclaration)
	logical, ok := decl.Declarations[0].Init.(*ast.LogicalExpression)
	require.True(t, ok)
	assert.Equal(t, "??", logical.Operator)

	member, ok := logical.Left.(*ast.MemberExpression)
	require.True(t, ok)
	assert.True(t, member.Computed)
	assert.True(t, member.Optional)
}

func TestParseForOfAndForIn(t *testing.T) {
	prog := parse(t, "for (const x of xs) {} for (const k in obj) {}", false)
	require.Len(t, prog.Body, 2)
	forOf, ok := prog.Body[0].(*ast.ForOfStatement)
	require.True(t, ok)
	assert.False(t, forOf.Await)
	_, ok = prog.Body[1].(*ast.ForInStatement)
	require.True(t, ok)
}

func TestParseTryCatchFinally(t *testing.T) {
	prog := parse(t, "try { risky(); } catch (e) { handle(e); } finally { cleanup(); }", false)
	try, ok := prog.Body[0].(*ast.TryStatement)
	require.True(t, ok)
	require.NotNil(t, try.Handler)
	require.NotNil(t, try.Handler.Param)
	require.NotNil(t, try.Finalizer)
}

func TestParseImportExportDeclarations(t *testing.T) {
	prog := parse(t, `
import def, { a, b as c } from "mod";
import * as ns from "other";
export { a, c as d };
export default function named() {}
export const z = 1;
`, true)
	require.True(t, prog.IsModule)
	require.Len(t, prog.Body, 5)

	imp1, ok := prog.Body[0].(*ast.ImportDeclaration)
	require.True(t, ok)
	assert.Equal(t, "mod", imp1.Source.Str)
	require.Len(t, imp1.Specifiers, 2)
	_, isDefault := imp1.Specifiers[0].(*ast.ImportDefaultSpecifier)
	assert.True(t, isDefault)
	named, ok := imp1.Specifiers[1].(*ast.ImportSpecifier)
	require.True(t, ok)
	assert.Equal(t, "a", named.Imported.Name)
	assert.Equal(t, "c", named.Local.Name)

	imp2, ok := prog.Body[1].(*ast.ImportDeclaration)
	require.True(t, ok)
	require.Len(t, imp2.Specifiers, 1)
	_, isNS := imp2.Specifiers[0].(*ast.ImportNamespaceSpecifier)
	assert.True(t, isNS)

	exp1, ok := prog.Body[2].(*ast.ExportNamedDeclaration)
	require.True(t, ok)
	require.Len(t, exp1.Specifiers, 2)
	assert.Equal(t, "d", exp1.Specifiers[1].Exported.Name)

	exp2, ok := prog.Body[3].(*ast.ExportDefaultDeclaration)
	require.True(t, ok)
	_, isFn := exp2.Declaration.(*ast.FunctionDeclaration)
	assert.True(t, isFn)

	exp3, ok := prog.Body[4].(*ast.ExportNamedDeclaration)
	require.True(t, ok)
	_, isVarDecl := exp3.Declaration.(*ast.VariableDeclaration)
	assert.True(t, isVarDecl)
}

func TestParseAsyncAwaitAndGenerator(t *testing.T) {
	prog := parse(t, "async function f() { await g(); } function* gen() { yield* other(); }", false)
	f := prog.Body[0].(*ast.FunctionDeclaration)
	assert.True(t, f.Async)
	assert.False(t, f.Generator)

	gen := prog.Body[1].(*ast.FunctionDeclaration)
	assert.True(t, gen.Generator)
	genBody := gen.Body.(*ast.BlockStatement)
	yieldStmt := genBody.Body[0].(*ast.ExpressionStatement)
	yieldExpr := yieldStmt.Expression.(*ast.YieldExpression)
	assert.True(t, yieldExpr.Delegate)
}

func TestParseSyntaxErrorRecovered(t *testing.T) {
	p := New()
	_, errs := p.Parse("const x = ;", frontend.Options{})
	assert.NotEmpty(t, errs)
}
