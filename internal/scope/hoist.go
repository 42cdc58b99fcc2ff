package scope

import "github.com/oxhq/esengine/internal/ast"

// FunctionInfo holds the scope sets spec §4.4 says the analyzer must
// compute per function for Function Declaration Instantiation (§4.5.3):
// parameter names, var-declared names, lexically-declared names at the
// function's top level, the function declarations that need eager
// initialization, and the flags that decide whether a parameter
// environment and/or an arguments object are required.
type FunctionInfo struct {
	ParamNames              []string
	VarNames                []string
	LexicallyDeclaredNames  []string
	FunctionsToInitialize   []*ast.FunctionDeclaration
	NeedsArguments          bool
	HasParameterExpressions bool
	// EvalTransparent is false whenever the body contains a direct
	// `eval(...)` call or any parameter/lexical name is "eval" or
	// "arguments" under non-strict rules that could be shadowed
	// dynamically — the compiler must fall back to dynamic binding
	// lookups (GetName/SetName rather than locator-indexed access) for
	// such a function (spec §4.4 "eval-transparent").
	EvalTransparent bool
}

// hoistState accumulates the first-pass scan of a function or program
// body: every var declaration and top-level function declaration,
// without descending into nested function bodies (their own hoisting
// runs independently once the analyzer reaches them).
type hoistState struct {
	varNames  map[string]bool
	varOrder  []string
	functions []*ast.FunctionDeclaration
	usesEval  bool
}

func newHoistState() *hoistState {
	return &hoistState{varNames: make(map[string]bool)}
}

func (h *hoistState) addVar(name string) {
	if name == "" || h.varNames[name] {
		return
	}
	h.varNames[name] = true
	h.varOrder = append(h.varOrder, name)
}

// hoistBody walks body (a statement list) collecting var-declared
// names and directly-nested function declarations, per spec's
// VarDeclaredNames/VarScopedDeclarations algorithms — it does not
// descend into nested FunctionDeclaration/FunctionExpression/
// ArrowFunctionExpression bodies, since those are their own hoisting
// scope.
func hoistBody(body []ast.Node, h *hoistState, topLevel bool) {
	for _, stmt := range body {
		hoistStatement(stmt, h, topLevel)
	}
}

func hoistStatement(n ast.Node, h *hoistState, topLevel bool) {
	switch s := n.(type) {
	case *ast.VariableDeclaration:
		if s.VarKind == ast.VarVar {
			for _, d := range s.Declarations {
				hoistBindingNames(d.ID, h)
			}
		}
	case *ast.FunctionDeclaration:
		if topLevel {
			h.functions = append(h.functions, s)
		}
		if s.ID != nil {
			h.addVar(s.ID.Name)
		}
	case *ast.BlockStatement:
		hoistBody(s.Body, h, false)
	case *ast.IfStatement:
		hoistStatement(s.Consequent, h, false)
		if s.Alternate != nil {
			hoistStatement(s.Alternate, h, false)
		}
	case *ast.ForStatement:
		if decl, ok := s.Init.(*ast.VariableDeclaration); ok && decl.VarKind == ast.VarVar {
			for _, d := range decl.Declarations {
				hoistBindingNames(d.ID, h)
			}
		}
		hoistStatement(s.Body, h, false)
	case *ast.ForInStatement:
		if decl, ok := s.Left.(*ast.VariableDeclaration); ok && decl.VarKind == ast.VarVar {
			for _, d := range decl.Declarations {
				hoistBindingNames(d.ID, h)
			}
		}
		hoistStatement(s.Body, h, false)
	case *ast.ForOfStatement:
		if decl, ok := s.Left.(*ast.VariableDeclaration); ok && decl.VarKind == ast.VarVar {
			for _, d := range decl.Declarations {
				hoistBindingNames(d.ID, h)
			}
		}
		hoistStatement(s.Body, h, false)
	case *ast.WhileStatement:
		hoistStatement(s.Body, h, false)
	case *ast.DoWhileStatement:
		hoistStatement(s.Body, h, false)
	case *ast.TryStatement:
		hoistBody(s.Block.Body, h, false)
		if s.Handler != nil {
			hoistBody(s.Handler.Body.Body, h, false)
		}
		if s.Finalizer != nil {
			hoistBody(s.Finalizer.Body, h, false)
		}
	case *ast.SwitchStatement:
		for _, c := range s.Cases {
			hoistBody(c.Consequent, h, false)
		}
	case *ast.LabeledStatement:
		hoistStatement(s.Body, h, topLevel)
	case *ast.WithStatement:
		hoistStatement(s.Body, h, false)
	case *ast.ExpressionStatement:
		scanEvalUse(s.Expression, h)
	}
}

// hoistBindingNames flattens a (possibly destructuring) binding target
// into the flat var-name set.
func hoistBindingNames(target ast.Node, h *hoistState) {
	switch t := target.(type) {
	case *ast.Identifier:
		h.addVar(t.Name)
	case *ast.ArrayPattern:
		for _, el := range t.Elements {
			if el != nil {
				hoistBindingNames(el, h)
			}
		}
	case *ast.ObjectPattern:
		for _, p := range t.Properties {
			switch pe := p.(type) {
			case *ast.Property:
				hoistBindingNames(pe.Value, h)
			case *ast.RestElement:
				hoistBindingNames(pe.Argument, h)
			}
		}
	case *ast.AssignmentPattern:
		hoistBindingNames(t.Left, h)
	case *ast.RestElement:
		hoistBindingNames(t.Argument, h)
	}
}

// scanEvalUse is a conservative direct-eval detector: any call whose
// callee is exactly the identifier "eval" disqualifies the enclosing
// function from locator-only binding access (spec §4.4
// "eval-transparent" classification), since a direct eval can
// introduce new var bindings into the calling scope at runtime.
func scanEvalUse(n ast.Node, h *hoistState) {
	if n == nil {
		return
	}
	if call, ok := n.(*ast.CallExpression); ok {
		if id, ok := call.Callee.(*ast.Identifier); ok && id.Name == "eval" {
			h.usesEval = true
		}
	}
}

func bindingNamesOf(target ast.Node) []string {
	h := newHoistState()
	hoistBindingNames(target, h)
	return h.varOrder
}
