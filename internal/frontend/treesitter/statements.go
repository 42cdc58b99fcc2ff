package treesitter

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/esengine/internal/ast"
)

// convStatement dispatches a single statement-level CST node to the
// matching ast.Node constructor. Returns nil for a node this front end
// intentionally drops (a stray ";" empty statement the grammar emits
// is kept as EmptyStatement rather than dropped, matching spec's
// KindEmptyStatement; only ignorable non-statement nodes like
// comments are actually skipped, already filtered in Parse).
func (c *conv) convStatement(n *sitter.Node) ast.Node {
	switch n.Type() {
	case "export_statement":
		return c.convExportStatement(n)
	case "import_statement":
		return c.convImportStatement(n)
	case "statement_block":
		return c.convBlockStatement(n)
	case "expression_statement":
		expr := c.convExpr(n.NamedChild(0))
		s := &ast.ExpressionStatement{Expression: expr}
		s.SetSpan(c.span(n).Start, c.span(n).End)
		return s
	case "variable_declaration", "lexical_declaration":
		return c.convVariableDeclaration(n)
	case "function_declaration", "generator_function_declaration":
		return c.convFunctionDeclaration(n)
	case "class_declaration":
		return c.convClassDeclaration(n)
	case "if_statement":
		return c.convIfStatement(n)
	case "switch_statement":
		return c.convSwitchStatement(n)
	case "for_statement":
		return c.convForStatement(n)
	case "for_in_statement":
		return c.convForInOfStatement(n)
	case "while_statement":
		return c.convWhileStatement(n)
	case "do_statement":
		return c.convDoWhileStatement(n)
	case "try_statement":
		return c.convTryStatement(n)
	case "with_statement":
		return c.convWithStatement(n)
	case "break_statement":
		return c.convBreakContinue(n, true)
	case "continue_statement":
		return c.convBreakContinue(n, false)
	case "debugger_statement":
		s := &ast.DebuggerStatement{}
		s.SetSpan(c.span(n).Start, c.span(n).End)
		return s
	case "return_statement":
		var arg ast.Node
		if a := n.NamedChild(0); a != nil {
			arg = c.convExpr(a)
		}
		s := &ast.ReturnStatement{Argument: arg}
		s.SetSpan(c.span(n).Start, c.span(n).End)
		return s
	case "throw_statement":
		s := &ast.ThrowStatement{Argument: c.convExpr(n.NamedChild(0))}
		s.SetSpan(c.span(n).Start, c.span(n).End)
		return s
	case "empty_statement", ";":
		s := &ast.EmptyStatement{}
		s.SetSpan(c.span(n).Start, c.span(n).End)
		return s
	case "labeled_statement":
		return c.convLabeledStatement(n)
	default:
		// A bare expression used where a statement is expected under
		// some grammar revisions (e.g. directive prologues represented
		// directly as "string" nodes) — fall back to treating it as an
		// expression statement rather than failing the whole parse.
		expr := c.convExpr(n)
		if expr == nil {
			c.errorf(n, "treesitter: unsupported statement node %q", n.Type())
			return nil
		}
		s := &ast.ExpressionStatement{Expression: expr}
		s.SetSpan(c.span(n).Start, c.span(n).End)
		return s
	}
}

func (c *conv) convBlockStatement(n *sitter.Node) *ast.BlockStatement {
	body := make([]ast.Node, 0, int(n.NamedChildCount()))
	for _, ch := range namedChildren(n) {
		if isIgnorable(ch.Type()) {
			continue
		}
		if s := c.convStatement(ch); s != nil {
			body = append(body, s)
		}
	}
	b := &ast.BlockStatement{Body: body}
	b.SetSpan(c.span(n).Start, c.span(n).End)
	return b
}

func (c *conv) convVarKind(n *sitter.Node) ast.VarKind {
	switch {
	case hasAnonToken(c, n, "const"):
		return ast.VarConst
	case hasAnonToken(c, n, "let"):
		return ast.VarLet
	default:
		return ast.VarVar
	}
}

func (c *conv) convVariableDeclaration(n *sitter.Node) *ast.VariableDeclaration {
	decls := make([]*ast.VariableDeclarator, 0, int(n.NamedChildCount()))
	for _, ch := range namedChildren(n) {
		if ch.Type() != "variable_declarator" {
			continue
		}
		id := c.convPattern(ch.ChildByFieldName("name"))
		var init ast.Node
		if v := ch.ChildByFieldName("value"); v != nil {
			init = c.convExpr(v)
		}
		d := &ast.VariableDeclarator{ID: id, Init: init}
		d.SetSpan(c.span(ch).Start, c.span(ch).End)
		decls = append(decls, d)
	}
	v := &ast.VariableDeclaration{VarKind: c.convVarKind(n), Declarations: decls}
	v.SetSpan(c.span(n).Start, c.span(n).End)
	return v
}

func (c *conv) convFunctionDeclaration(n *sitter.Node) *ast.FunctionDeclaration {
	fn := c.convFunctionLike(n)
	d := &ast.FunctionDeclaration{Function: fn}
	d.SetSpan(c.span(n).Start, c.span(n).End)
	return d
}

func (c *conv) convIfStatement(n *sitter.Node) *ast.IfStatement {
	test := c.convExpr(n.ChildByFieldName("condition"))
	cons := c.convStatement(n.ChildByFieldName("consequence"))
	var alt ast.Node
	if a := n.ChildByFieldName("alternative"); a != nil {
		alt = c.convStatement(a)
	}
	s := &ast.IfStatement{Test: test, Consequent: cons, Alternate: alt}
	s.SetSpan(c.span(n).Start, c.span(n).End)
	return s
}

func (c *conv) convSwitchStatement(n *sitter.Node) *ast.SwitchStatement {
	disc := c.convExpr(n.ChildByFieldName("value"))
	body := n.ChildByFieldName("body")
	cases := make([]*ast.SwitchCase, 0)
	if body != nil {
		for _, ch := range namedChildren(body) {
			if ch.Type() != "switch_case" && ch.Type() != "switch_default" {
				continue
			}
			var test ast.Node
			var testNode *sitter.Node
			if ch.Type() == "switch_case" {
				testNode = ch.ChildByFieldName("value")
				test = c.convExpr(testNode)
			}
			var cons []ast.Node
			for _, s := range namedChildren(ch) {
				if s.Type() == "switch_case" || s.Type() == "switch_default" || isIgnorable(s.Type()) {
					continue
				}
				if testNode != nil && s.StartByte() == testNode.StartByte() && s.EndByte() == testNode.EndByte() {
					continue
				}
				if st := c.convStatement(s); st != nil {
					cons = append(cons, st)
				}
			}
			sc := &ast.SwitchCase{Test: test, Consequent: cons}
			sc.SetSpan(c.span(ch).Start, c.span(ch).End)
			cases = append(cases, sc)
		}
	}
	s := &ast.SwitchStatement{Discriminant: disc, Cases: cases}
	s.SetSpan(c.span(n).Start, c.span(n).End)
	return s
}

func (c *conv) convForStatement(n *sitter.Node) *ast.ForStatement {
	var init, test, update ast.Node
	if i := n.ChildByFieldName("initializer"); i != nil {
		if i.Type() == "variable_declaration" || i.Type() == "lexical_declaration" {
			init = c.convVariableDeclaration(i)
		} else {
			init = c.convExpr(i)
		}
	}
	if t := n.ChildByFieldName("condition"); t != nil {
		test = c.convExpr(t)
	}
	if u := n.ChildByFieldName("increment"); u != nil {
		update = c.convExpr(u)
	}
	body := c.convStatement(n.ChildByFieldName("body"))
	s := &ast.ForStatement{Init: init, Test: test, Update: update, Body: body}
	s.SetSpan(c.span(n).Start, c.span(n).End)
	return s
}

// convForInOfStatement handles for_in_statement, which tree-sitter-
// javascript's grammar uses for both `for (x in y)` and `for (x of y)`
// surface forms, distinguished by an "of" vs "in" token.
func (c *conv) convForInOfStatement(n *sitter.Node) ast.Node {
	left := n.ChildByFieldName("left")
	var leftNode ast.Node
	if left != nil && (left.Type() == "variable_declaration" || left.Type() == "lexical_declaration") {
		leftNode = c.convVariableDeclaration(left)
	} else {
		leftNode = c.convPattern(left)
	}
	right := c.convExpr(n.ChildByFieldName("right"))
	body := c.convStatement(n.ChildByFieldName("body"))
	isOf := hasAnonToken(c, n, "of")
	if isOf {
		s := &ast.ForOfStatement{Left: leftNode, Right: right, Body: body, Await: hasAnonToken(c, n, "await")}
		s.SetSpan(c.span(n).Start, c.span(n).End)
		return s
	}
	s := &ast.ForInStatement{Left: leftNode, Right: right, Body: body}
	s.SetSpan(c.span(n).Start, c.span(n).End)
	return s
}

func (c *conv) convWhileStatement(n *sitter.Node) *ast.WhileStatement {
	s := &ast.WhileStatement{
		Test: c.convExpr(n.ChildByFieldName("condition")),
		Body: c.convStatement(n.ChildByFieldName("body")),
	}
	s.SetSpan(c.span(n).Start, c.span(n).End)
	return s
}

func (c *conv) convDoWhileStatement(n *sitter.Node) *ast.DoWhileStatement {
	s := &ast.DoWhileStatement{
		Body: c.convStatement(n.ChildByFieldName("body")),
		Test: c.convExpr(n.ChildByFieldName("condition")),
	}
	s.SetSpan(c.span(n).Start, c.span(n).End)
	return s
}

func (c *conv) convTryStatement(n *sitter.Node) *ast.TryStatement {
	block := c.convBlockStatement(n.ChildByFieldName("body"))
	var handler *ast.CatchClause
	if h := childOfType(n, "catch_clause"); h != nil {
		var param ast.Node
		if p := h.ChildByFieldName("parameter"); p != nil {
			param = c.convPattern(p)
		}
		hb := c.convBlockStatement(h.ChildByFieldName("body"))
		handler = &ast.CatchClause{Param: param, Body: hb}
		handler.SetSpan(c.span(h).Start, c.span(h).End)
	}
	var finalizer *ast.BlockStatement
	if f := childOfType(n, "finally_clause"); f != nil {
		if b := f.ChildByFieldName("body"); b != nil {
			finalizer = c.convBlockStatement(b)
		}
	}
	s := &ast.TryStatement{Block: block, Handler: handler, Finalizer: finalizer}
	s.SetSpan(c.span(n).Start, c.span(n).End)
	return s
}

func (c *conv) convWithStatement(n *sitter.Node) *ast.WithStatement {
	s := &ast.WithStatement{
		Object: c.convExpr(n.ChildByFieldName("object")),
		Body:   c.convStatement(n.ChildByFieldName("body")),
	}
	s.SetSpan(c.span(n).Start, c.span(n).End)
	return s
}

func (c *conv) convBreakContinue(n *sitter.Node, isBreak bool) ast.Node {
	var label *ast.Identifier
	if l := n.NamedChild(0); l != nil && l.Type() == "statement_identifier" {
		label = &ast.Identifier{Name: c.text(l)}
		label.SetSpan(c.span(l).Start, c.span(l).End)
	}
	if isBreak {
		s := &ast.BreakStatement{Label: label}
		s.SetSpan(c.span(n).Start, c.span(n).End)
		return s
	}
	s := &ast.ContinueStatement{Label: label}
	s.SetSpan(c.span(n).Start, c.span(n).End)
	return s
}

func (c *conv) convLabeledStatement(n *sitter.Node) *ast.LabeledStatement {
	labelNode := n.ChildByFieldName("label")
	if labelNode == nil {
		labelNode = n.NamedChild(0)
	}
	label := &ast.Identifier{Name: c.text(labelNode)}
	label.SetSpan(c.span(labelNode).Start, c.span(labelNode).End)
	body := c.convStatement(n.ChildByFieldName("body"))
	s := &ast.LabeledStatement{Label: label, Body: body}
	s.SetSpan(c.span(n).Start, c.span(n).End)
	return s
}
