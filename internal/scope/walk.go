package scope

import "github.com/oxhq/esengine/internal/ast"

// walkStatements walks a flat statement list in the current scope,
// without creating a new scope of its own (the caller — Analyze or
// walkFunction — already declared this body's lexical names into the
// scope it passes in).
func (a *Analyzer) walkStatements(body []ast.Node, s *Scope) {
	for _, n := range body {
		a.walkStatement(n, s)
	}
}

func (a *Analyzer) walkStatement(n ast.Node, s *Scope) {
	switch st := n.(type) {
	case *ast.ExpressionStatement:
		a.walkExpr(st.Expression, s)
	case *ast.BlockStatement:
		a.walkBlock(st, s)
	case *ast.VariableDeclaration:
		for _, d := range st.Declarations {
			if d.Init != nil {
				a.walkExpr(d.Init, s)
			}
			a.resolveBindingTarget(d.ID, s)
		}
	case *ast.FunctionDeclaration:
		a.walkFunction(&st.Function, st, s)
	case *ast.ClassDeclaration:
		a.walkClass(st.SuperClass, st.Body, s)
	case *ast.IfStatement:
		a.walkExpr(st.Test, s)
		a.walkStatement(st.Consequent, s)
		if st.Alternate != nil {
			a.walkStatement(st.Alternate, s)
		}
	case *ast.SwitchStatement:
		a.walkExpr(st.Discriminant, s)
		// All cases share one lexical scope (spec's CaseBlock).
		caseScope := a.newScope(s, s.Strict, false)
		for _, c := range st.Cases {
			a.declareLexicalDeclarations(caseScope, c.Consequent)
		}
		for _, c := range st.Cases {
			if c.Test != nil {
				a.walkExpr(c.Test, caseScope)
			}
			a.walkStatements(c.Consequent, caseScope)
		}
	case *ast.ForStatement:
		a.walkFor(st, s)
	case *ast.ForInStatement:
		a.walkForInOf(st.Left, st.Right, st.Body, s)
	case *ast.ForOfStatement:
		a.walkForInOf(st.Left, st.Right, st.Body, s)
	case *ast.WhileStatement:
		a.walkExpr(st.Test, s)
		a.walkStatement(st.Body, s)
	case *ast.DoWhileStatement:
		a.walkStatement(st.Body, s)
		a.walkExpr(st.Test, s)
	case *ast.ReturnStatement:
		if st.Argument != nil {
			a.walkExpr(st.Argument, s)
		}
	case *ast.ThrowStatement:
		a.walkExpr(st.Argument, s)
	case *ast.TryStatement:
		a.walkBlock(st.Block, s)
		if st.Handler != nil {
			catchScope := a.newScope(s, s.Strict, false)
			catchScope.IsCatch = true
			if st.Handler.Param != nil {
				for _, name := range bindingNamesOf(st.Handler.Param) {
					a.declare(catchScope, name, BindingCatch, spanOf(st.Handler))
				}
				a.resolveBindingTarget(st.Handler.Param, catchScope)
			}
			a.declareLexicalDeclarations(catchScope, st.Handler.Body.Body)
			a.walkStatements(st.Handler.Body.Body, catchScope)
		}
		if st.Finalizer != nil {
			a.walkBlock(st.Finalizer, s)
		}
	case *ast.LabeledStatement:
		a.walkStatement(st.Body, s)
	case *ast.WithStatement:
		a.walkExpr(st.Object, s)
		a.walkStatement(st.Body, s)
	case *ast.BreakStatement, *ast.ContinueStatement, *ast.EmptyStatement, *ast.DebuggerStatement:
		// no bindings, no nested expressions
	case *ast.ImportDeclaration:
		for _, spec := range st.Specifiers {
			var local *ast.Identifier
			switch sp := spec.(type) {
			case *ast.ImportSpecifier:
				local = sp.Local
			case *ast.ImportDefaultSpecifier:
				local = sp.Local
			case *ast.ImportNamespaceSpecifier:
				local = sp.Local
			}
			if local != nil {
				a.declare(s, local.Name, BindingImport, spanOf(local))
			}
		}
	case *ast.ExportNamedDeclaration:
		if st.Declaration != nil {
			a.walkStatement(st.Declaration, s)
		}
	case *ast.ExportDefaultDeclaration:
		if st.Declaration != nil {
			a.walkStatement(st.Declaration, s)
		}
	}
}

func (a *Analyzer) walkBlock(block *ast.BlockStatement, parent *Scope) *Scope {
	child := a.newScope(parent, parent.Strict, false)
	a.declareLexicalDeclarations(child, block.Body)
	a.walkStatements(block.Body, child)
	return child
}

// walkFor handles a C-style for loop's per-iteration lexical
// environment (spec's CreatePerIterationEnvironment): a `let`/`const`
// Init gets its own loop scope distinct from the body block so each
// iteration's closures capture an independent binding.
func (a *Analyzer) walkFor(st *ast.ForStatement, parent *Scope) {
	loopScope := parent
	if decl, ok := st.Init.(*ast.VariableDeclaration); ok && decl.VarKind != ast.VarVar {
		loopScope = a.newScope(parent, parent.Strict, false)
		kind := BindingLet
		if decl.VarKind == ast.VarConst {
			kind = BindingConst
		}
		for _, d := range decl.Declarations {
			for _, name := range bindingNamesOf(d.ID) {
				a.declare(loopScope, name, kind, spanOf(d))
			}
			if d.Init != nil {
				a.walkExpr(d.Init, parent)
			}
			a.resolveBindingTarget(d.ID, loopScope)
		}
	} else if st.Init != nil {
		a.walkStatement(st.Init, parent)
	}
	if st.Test != nil {
		a.walkExpr(st.Test, loopScope)
	}
	if st.Update != nil {
		a.walkExpr(st.Update, loopScope)
	}
	a.walkStatement(st.Body, loopScope)
}

func (a *Analyzer) walkForInOf(left, right, body ast.Node, parent *Scope) {
	a.walkExpr(right, parent)
	loopScope := parent
	if decl, ok := left.(*ast.VariableDeclaration); ok {
		if decl.VarKind != ast.VarVar {
			loopScope = a.newScope(parent, parent.Strict, false)
			kind := BindingLet
			if decl.VarKind == ast.VarConst {
				kind = BindingConst
			}
			for _, name := range bindingNamesOf(decl.Declarations[0].ID) {
				a.declare(loopScope, name, kind, spanOf(decl))
			}
		}
		a.resolveBindingTarget(decl.Declarations[0].ID, loopScope)
	} else {
		a.resolveBindingTarget(left, parent)
	}
	a.walkStatement(body, loopScope)
}

func (a *Analyzer) walkClass(superClass ast.Node, body *ast.ClassBody, parent *Scope) {
	if superClass != nil {
		a.walkExpr(superClass, parent)
	}
	if body == nil {
		return
	}
	for _, m := range body.Body {
		switch member := m.(type) {
		case *ast.MethodDefinition:
			if member.Computed {
				a.walkExpr(member.Key, parent)
			}
			a.walkFunction(&member.Value.Function, member.Value, parent)
		case *ast.PropertyDefinition:
			if member.Computed {
				a.walkExpr(member.Key, parent)
			}
			if member.Value != nil {
				a.walkExpr(member.Value, parent)
			}
		}
	}
}

// walkFunction handles the function-boundary case: a fresh Scope,
// parameter declarations, hoisted var/function declarations, and the
// FunctionInfo scope-set bundle the compiler's prologue needs (spec
// §4.5.3).
func (a *Analyzer) walkFunction(fn *ast.Function, node ast.Node, parent *Scope) {
	strict := parent.Strict || fn.Strict
	fs := a.newScope(parent, strict, true)

	info := &FunctionInfo{}
	for _, p := range fn.Params {
		names := bindingNamesOf(p)
		info.ParamNames = append(info.ParamNames, names...)
		if _, ok := p.(*ast.Identifier); !ok {
			info.HasParameterExpressions = true
		}
		if _, ok := p.(*ast.AssignmentPattern); ok {
			info.HasParameterExpressions = true
		}
		for _, name := range names {
			a.declare(fs, name, BindingParam, spanOf(p))
		}
	}

	var bodyList []ast.Node
	switch b := fn.Body.(type) {
	case *ast.BlockStatement:
		bodyList = b.Body
	default:
		// Concise arrow body: a bare expression, walked directly with no
		// var/function hoisting since it can't contain statements.
		if fn.Body != nil {
			a.walkExpr(fn.Body, fs)
		}
	}

	if bodyList != nil {
		h := newHoistState()
		hoistBody(bodyList, h, true)
		info.VarNames = h.varOrder
		info.FunctionsToInitialize = h.functions
		info.EvalTransparent = !h.usesEval

		for _, name := range h.varOrder {
			if _, exists := fs.Lookup(name); !exists {
				a.declare(fs, name, BindingVar, Span{})
			}
		}
		for _, hf := range h.functions {
			if hf.ID != nil {
				a.declare(fs, hf.ID.Name, BindingFunction, spanOf(hf))
			}
		}
		info.NeedsArguments = usesArguments(bodyList) && !isArrow(node)

		a.declareLexicalDeclarations(fs, bodyList)
		for _, b := range fs.Bindings() {
			if b.Kind.IsLexical() {
				info.LexicallyDeclaredNames = append(info.LexicallyDeclaredNames, b.Name)
			}
		}
		a.walkStatements(bodyList, fs)
	}

	a.result.Functions[node] = info
}

func isArrow(n ast.Node) bool {
	_, ok := n.(*ast.ArrowFunctionExpression)
	return ok
}

// usesArguments conservatively reports whether body references the
// identifier "arguments" anywhere (including nested non-arrow
// functions would be wrong, but nested functions get their own
// NeedsArguments computation — this only needs to look at identifier
// expressions reachable without crossing a function boundary, which
// the simple recursive scan below respects by not descending into
// Function/Class nodes' own bodies beyond what walkExpr already
// stops at for declarations).
func usesArguments(body []ast.Node) bool {
	found := false
	var visit func(ast.Node)
	visit = func(n ast.Node) {
		if found || n == nil {
			return
		}
		if id, ok := n.(*ast.Identifier); ok && id.Name == "arguments" {
			found = true
			return
		}
		walkChildren(n, visit)
	}
	for _, n := range body {
		visit(n)
	}
	return found
}

func (a *Analyzer) resolveBindingTarget(target ast.Node, s *Scope) {
	switch t := target.(type) {
	case *ast.Identifier:
		a.resolveIdentifier(t, s)
	case *ast.ArrayPattern:
		for _, el := range t.Elements {
			if el != nil {
				a.resolveBindingTarget(el, s)
			}
		}
	case *ast.ObjectPattern:
		for _, p := range t.Properties {
			switch pe := p.(type) {
			case *ast.Property:
				if pe.Computed {
					a.walkExpr(pe.Key, s)
				}
				a.resolveBindingTarget(pe.Value, s)
			case *ast.RestElement:
				a.resolveBindingTarget(pe.Argument, s)
			}
		}
	case *ast.AssignmentPattern:
		a.resolveBindingTarget(t.Left, s)
		a.walkExpr(t.Right, s)
	case *ast.RestElement:
		a.resolveBindingTarget(t.Argument, s)
	case *ast.MemberExpression:
		a.walkExpr(t, s) // assignment to a member target, not a binding
	}
}

// resolveIdentifier stamps id's BindingLocator: the scope/slot that
// owns it, or Global when no enclosing scope declares the name (spec
// §4.4's unresolved-reference case, left to runtime global-object
// lookup).
func (a *Analyzer) resolveIdentifier(id *ast.Identifier, s *Scope) {
	owner, b, ok := s.Resolve(id.Name)
	if !ok {
		a.result.Locators[id] = BindingLocator{Global: true, Name: id.Name}
		return
	}
	a.result.Locators[id] = BindingLocator{ScopeIndex: owner.Index, BindingIndex: b.Index, Name: id.Name}
}

func (a *Analyzer) walkExpr(n ast.Node, s *Scope) {
	if n == nil {
		return
	}
	switch e := n.(type) {
	case *ast.Identifier:
		a.resolveIdentifier(e, s)
	case *ast.Literal, *ast.RegExpLiteral, *ast.ThisExpression, *ast.Super, *ast.ImportMeta:
		// leaves
	case *ast.TemplateLiteral:
		for _, x := range e.Expressions {
			a.walkExpr(x, s)
		}
	case *ast.TaggedTemplate:
		a.walkExpr(e.Tag, s)
		a.walkExpr(e.Template, s)
	case *ast.ArrayExpression:
		for _, el := range e.Elements {
			a.walkExpr(el, s)
		}
	case *ast.ObjectExpression:
		for _, p := range e.Properties {
			switch pe := p.(type) {
			case *ast.Property:
				if pe.Computed {
					a.walkExpr(pe.Key, s)
				}
				a.walkExpr(pe.Value, s)
			case *ast.SpreadElement:
				a.walkExpr(pe.Argument, s)
			}
		}
	case *ast.FunctionExpression:
		a.walkFunction(&e.Function, e, s)
	case *ast.ArrowFunctionExpression:
		a.walkFunction(&e.Function, e, s)
	case *ast.ClassExpression:
		a.walkClass(e.SuperClass, e.Body, s)
	case *ast.UnaryExpression:
		a.walkExpr(e.Argument, s)
	case *ast.UpdateExpression:
		a.walkExpr(e.Argument, s)
	case *ast.BinaryExpression:
		a.walkExpr(e.Left, s)
		a.walkExpr(e.Right, s)
	case *ast.LogicalExpression:
		a.walkExpr(e.Left, s)
		a.walkExpr(e.Right, s)
	case *ast.AssignmentExpression:
		if e.Operator == "=" {
			a.resolveBindingTarget(e.Left, s)
		} else {
			a.walkExpr(e.Left, s)
		}
		a.walkExpr(e.Right, s)
	case *ast.ConditionalExpression:
		a.walkExpr(e.Test, s)
		a.walkExpr(e.Consequent, s)
		a.walkExpr(e.Alternate, s)
	case *ast.CallExpression:
		a.walkExpr(e.Callee, s)
		for _, arg := range e.Args {
			a.walkExpr(arg, s)
		}
	case *ast.NewExpression:
		a.walkExpr(e.Callee, s)
		for _, arg := range e.Args {
			a.walkExpr(arg, s)
		}
	case *ast.MemberExpression:
		a.walkExpr(e.Object, s)
		if e.Computed {
			a.walkExpr(e.Property, s)
		}
	case *ast.SequenceExpression:
		for _, x := range e.Expressions {
			a.walkExpr(x, s)
		}
	case *ast.SpreadElement:
		a.walkExpr(e.Argument, s)
	case *ast.YieldExpression:
		a.walkExpr(e.Argument, s)
	case *ast.AwaitExpression:
		a.walkExpr(e.Argument, s)
	case *ast.ImportExpression:
		a.walkExpr(e.Source, s)
	}
}

// walkChildren is usesArguments' minimal generic descent: it only
// needs to reach every Identifier reachable from n without caring
// about scope boundaries (a conservative over-approximation is safe —
// it can only cause an unnecessary arguments object, never a missing
// one).
func walkChildren(n ast.Node, visit func(ast.Node)) {
	switch e := n.(type) {
	case *ast.ExpressionStatement:
		visit(e.Expression)
	case *ast.BlockStatement:
		for _, c := range e.Body {
			visit(c)
		}
	case *ast.VariableDeclaration:
		for _, d := range e.Declarations {
			if d.Init != nil {
				visit(d.Init)
			}
		}
	case *ast.IfStatement:
		visit(e.Test)
		visit(e.Consequent)
		visit(e.Alternate)
	case *ast.ReturnStatement:
		visit(e.Argument)
	case *ast.ThrowStatement:
		visit(e.Argument)
	case *ast.WhileStatement:
		visit(e.Test)
		visit(e.Body)
	case *ast.DoWhileStatement:
		visit(e.Body)
		visit(e.Test)
	case *ast.ForStatement:
		visit(e.Init)
		visit(e.Test)
		visit(e.Update)
		visit(e.Body)
	case *ast.ForInStatement:
		visit(e.Right)
		visit(e.Body)
	case *ast.ForOfStatement:
		visit(e.Right)
		visit(e.Body)
	case *ast.TryStatement:
		for _, c := range e.Block.Body {
			visit(c)
		}
	case *ast.SwitchStatement:
		visit(e.Discriminant)
		for _, c := range e.Cases {
			for _, s := range c.Consequent {
				visit(s)
			}
		}
	case *ast.LabeledStatement:
		visit(e.Body)
	case *ast.CallExpression:
		visit(e.Callee)
		for _, a := range e.Args {
			visit(a)
		}
	case *ast.NewExpression:
		visit(e.Callee)
		for _, a := range e.Args {
			visit(a)
		}
	case *ast.MemberExpression:
		visit(e.Object)
		if e.Computed {
			visit(e.Property)
		}
	case *ast.BinaryExpression:
		visit(e.Left)
		visit(e.Right)
	case *ast.LogicalExpression:
		visit(e.Left)
		visit(e.Right)
	case *ast.AssignmentExpression:
		visit(e.Left)
		visit(e.Right)
	case *ast.ConditionalExpression:
		visit(e.Test)
		visit(e.Consequent)
		visit(e.Alternate)
	case *ast.UnaryExpression:
		visit(e.Argument)
	case *ast.UpdateExpression:
		visit(e.Argument)
	case *ast.SequenceExpression:
		for _, x := range e.Expressions {
			visit(x)
		}
	case *ast.ArrayExpression:
		for _, x := range e.Elements {
			visit(x)
		}
	case *ast.ObjectExpression:
		for _, p := range e.Properties {
			if pe, ok := p.(*ast.Property); ok {
				visit(pe.Value)
			}
		}
	}
}
