package treesitter

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/esengine/internal/ast"
)

// convPattern converts a binding-position node: a plain identifier, a
// destructuring array/object pattern, a default-value wrapper, or a
// rest element. Also reached for assignment targets that aren't
// simple identifiers/member expressions (array/object destructuring
// assignment).
func (c *conv) convPattern(n *sitter.Node) ast.Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "array_pattern":
		return c.convArrayPattern(n)
	case "object_pattern":
		return c.convObjectPattern(n)
	case "assignment_pattern":
		p := &ast.AssignmentPattern{
			Left:  c.convPattern(n.ChildByFieldName("left")),
			Right: c.convExpr(n.ChildByFieldName("right")),
		}
		p.SetSpan(c.span(n).Start, c.span(n).End)
		return p
	case "rest_pattern", "rest_element":
		arg := n.NamedChild(0)
		r := &ast.RestElement{Argument: c.convPattern(arg)}
		r.SetSpan(c.span(n).Start, c.span(n).End)
		return r
	default:
		// identifier, member_expression (assignment target), or any
		// other expression-shaped binding target.
		return c.convExpr(n)
	}
}

func (c *conv) convArrayPattern(n *sitter.Node) *ast.ArrayPattern {
	var elements []ast.Node
	sawElement := false
	for _, ch := range allChildren(n) {
		switch {
		case !ch.IsNamed() && c.text(ch) == ",":
			if !sawElement {
				elements = append(elements, nil)
			}
			sawElement = false
		case ch.IsNamed() && !isIgnorable(ch.Type()):
			elements = append(elements, c.convPattern(ch))
			sawElement = true
		}
	}
	p := &ast.ArrayPattern{Elements: elements}
	p.SetSpan(c.span(n).Start, c.span(n).End)
	return p
}

func (c *conv) convObjectPattern(n *sitter.Node) *ast.ObjectPattern {
	props := make([]ast.Node, 0, int(n.NamedChildCount()))
	for _, ch := range namedChildren(n) {
		switch ch.Type() {
		case "pair_pattern":
			key, computed := c.convPropertyKey(ch.ChildByFieldName("key"))
			val := c.convPattern(ch.ChildByFieldName("value"))
			p := &ast.Property{Key: key, Value: val, PropKind: ast.PropertyInit, Computed: computed}
			p.SetSpan(c.span(ch).Start, c.span(ch).End)
			props = append(props, p)
		case "shorthand_property_identifier_pattern":
			id := &ast.Identifier{Name: c.text(ch)}
			id.SetSpan(c.span(ch).Start, c.span(ch).End)
			p := &ast.Property{Key: id, Value: id, PropKind: ast.PropertyInit, Shorthand: true}
			p.SetSpan(c.span(ch).Start, c.span(ch).End)
			props = append(props, p)
		case "rest_pattern", "rest_element":
			arg := ch.NamedChild(0)
			r := &ast.RestElement{Argument: c.convPattern(arg)}
			r.SetSpan(c.span(ch).Start, c.span(ch).End)
			props = append(props, r)
		case "object_assignment_pattern":
			// `{ x = 1 }` destructuring default, nested one level deeper
			// than assignment_pattern's usual shape.
			left := ch.ChildByFieldName("left")
			key, computed := c.convPropertyKey(left)
			right := c.convExpr(ch.ChildByFieldName("right"))
			ap := &ast.AssignmentPattern{Left: c.convPattern(left), Right: right}
			ap.SetSpan(c.span(ch).Start, c.span(ch).End)
			p := &ast.Property{Key: key, Value: ap, PropKind: ast.PropertyInit, Computed: computed, Shorthand: true}
			p.SetSpan(c.span(ch).Start, c.span(ch).End)
			props = append(props, p)
		}
	}
	p := &ast.ObjectPattern{Properties: props}
	p.SetSpan(c.span(n).Start, c.span(n).End)
	return p
}
