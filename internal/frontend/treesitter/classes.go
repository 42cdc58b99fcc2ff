package treesitter

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/esengine/internal/ast"
)

// convClassHeritage finds a class's superclass expression, trying the
// direct "superclass" field first and falling back to unwrapping a
// "class_heritage" child, since the field's exact placement has moved
// across tree-sitter-javascript grammar revisions.
func (c *conv) convClassHeritage(n *sitter.Node) ast.Node {
	if s := n.ChildByFieldName("superclass"); s != nil {
		return c.convExpr(s)
	}
	if h := childOfType(n, "class_heritage"); h != nil {
		if e := h.NamedChild(0); e != nil {
			return c.convExpr(e)
		}
	}
	return nil
}

func (c *conv) convClassBody(n *sitter.Node) *ast.ClassBody {
	if n == nil {
		b := &ast.ClassBody{}
		return b
	}
	body := make([]ast.Node, 0, int(n.NamedChildCount()))
	for _, ch := range namedChildren(n) {
		switch ch.Type() {
		case "method_definition":
			body = append(body, c.convMethodDefinition(ch))
		case "field_definition", "public_field_definition":
			body = append(body, c.convFieldDefinition(ch))
		case "comment", "static_block":
			// static_block's side-effecting init-time code has no
			// ast.Node home yet; dropped rather than mistranslated.
			continue
		}
	}
	b := &ast.ClassBody{Body: body}
	b.SetSpan(c.span(n).Start, c.span(n).End)
	return b
}

func (c *conv) convMethodDefinition(n *sitter.Node) *ast.MethodDefinition {
	key, computed := c.convPropertyKey(n.ChildByFieldName("name"))
	fn := c.convFunctionLike(n)
	fnExpr := &ast.FunctionExpression{Function: fn}
	fnExpr.SetSpan(c.span(n).Start, c.span(n).End)
	kind := ast.PropertyInit
	if hasAnonToken(c, n, "get") {
		kind = ast.PropertyGet
	} else if hasAnonToken(c, n, "set") {
		kind = ast.PropertySet
	}
	m := &ast.MethodDefinition{
		Key:      key,
		Value:    fnExpr,
		PropKind: kind,
		Static:   hasAnonToken(c, n, "static"),
		Computed: computed,
	}
	m.SetSpan(c.span(n).Start, c.span(n).End)
	return m
}

func (c *conv) convFieldDefinition(n *sitter.Node) *ast.PropertyDefinition {
	key, computed := c.convPropertyKey(n.ChildByFieldName("property"))
	var val ast.Node
	if v := n.ChildByFieldName("value"); v != nil {
		val = c.convExpr(v)
	}
	f := &ast.PropertyDefinition{
		Key:      key,
		Value:    val,
		Static:   hasAnonToken(c, n, "static"),
		Computed: computed,
	}
	f.SetSpan(c.span(n).Start, c.span(n).End)
	return f
}

func (c *conv) convClassDeclaration(n *sitter.Node) *ast.ClassDeclaration {
	var id *ast.Identifier
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		id = &ast.Identifier{Name: c.text(nameNode)}
		id.SetSpan(c.span(nameNode).Start, c.span(nameNode).End)
	}
	d := &ast.ClassDeclaration{
		ID:         id,
		SuperClass: c.convClassHeritage(n),
		Body:       c.convClassBody(n.ChildByFieldName("body")),
	}
	d.SetSpan(c.span(n).Start, c.span(n).End)
	return d
}

func (c *conv) convClassExpression(n *sitter.Node) *ast.ClassExpression {
	var id *ast.Identifier
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		id = &ast.Identifier{Name: c.text(nameNode)}
		id.SetSpan(c.span(nameNode).Start, c.span(nameNode).End)
	}
	e := &ast.ClassExpression{
		ID:         id,
		SuperClass: c.convClassHeritage(n),
		Body:       c.convClassBody(n.ChildByFieldName("body")),
	}
	e.SetSpan(c.span(n).Start, c.span(n).End)
	return e
}
