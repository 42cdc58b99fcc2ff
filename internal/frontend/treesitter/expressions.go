package treesitter

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/esengine/internal/ast"
)

func (c *conv) convExpr(n *sitter.Node) ast.Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "identifier", "property_identifier", "shorthand_property_identifier", "statement_identifier", "undefined":
		id := &ast.Identifier{Name: c.text(n)}
		id.SetSpan(c.span(n).Start, c.span(n).End)
		return id
	case "private_property_identifier":
		name := strings.TrimPrefix(c.text(n), "#")
		p := &ast.PrivateName{Name: name}
		p.SetSpan(c.span(n).Start, c.span(n).End)
		return p
	case "number":
		return c.convNumberLiteral(n)
	case "string":
		lit := &ast.Literal{LitKind: ast.LiteralString, Str: c.stringValue(n)}
		lit.SetSpan(c.span(n).Start, c.span(n).End)
		return lit
	case "true":
		lit := &ast.Literal{LitKind: ast.LiteralBoolean, Bool: true}
		lit.SetSpan(c.span(n).Start, c.span(n).End)
		return lit
	case "false":
		lit := &ast.Literal{LitKind: ast.LiteralBoolean, Bool: false}
		lit.SetSpan(c.span(n).Start, c.span(n).End)
		return lit
	case "null":
		lit := &ast.Literal{LitKind: ast.LiteralNull}
		lit.SetSpan(c.span(n).Start, c.span(n).End)
		return lit
	case "regex":
		pattern := c.text(childOfType(n, "regex_pattern"))
		flags := c.text(childOfType(n, "regex_flags"))
		r := &ast.RegExpLiteral{Pattern: pattern, Flags: flags}
		r.SetSpan(c.span(n).Start, c.span(n).End)
		return r
	case "template_string":
		return c.convTemplateLiteral(n)
	case "this":
		e := &ast.ThisExpression{}
		e.SetSpan(c.span(n).Start, c.span(n).End)
		return e
	case "super":
		e := &ast.Super{}
		e.SetSpan(c.span(n).Start, c.span(n).End)
		return e
	case "array":
		return c.convArrayExpression(n)
	case "object":
		return c.convObjectExpression(n)
	case "function", "function_expression", "generator_function":
		fn := c.convFunctionLike(n)
		e := &ast.FunctionExpression{Function: fn}
		e.SetSpan(c.span(n).Start, c.span(n).End)
		return e
	case "arrow_function":
		return c.convArrowFunction(n)
	case "class":
		return c.convClassExpression(n)
	case "parenthesized_expression":
		return c.convExpr(n.NamedChild(0))
	case "call_expression":
		return c.convCallExpression(n)
	case "new_expression":
		return c.convNewExpression(n)
	case "member_expression":
		return c.convMemberExpression(n, false)
	case "subscript_expression":
		return c.convMemberExpression(n, true)
	case "assignment_expression":
		return c.convAssignmentExpression(n)
	case "augmented_assignment_expression":
		return c.convAugmentedAssignment(n)
	case "binary_expression":
		return c.convBinaryExpression(n)
	case "unary_expression":
		return c.convUnaryExpression(n)
	case "update_expression":
		return c.convUpdateExpression(n)
	case "ternary_expression":
		return c.convConditionalExpression(n)
	case "sequence_expression":
		return c.convSequenceExpression(n)
	case "spread_element":
		s := &ast.SpreadElement{Argument: c.convExpr(n.NamedChild(0))}
		s.SetSpan(c.span(n).Start, c.span(n).End)
		return s
	case "yield_expression":
		return c.convYieldExpression(n)
	case "await_expression":
		e := &ast.AwaitExpression{Argument: c.convExpr(n.NamedChild(0))}
		e.SetSpan(c.span(n).Start, c.span(n).End)
		return e
	case "meta_property":
		if c.text(n) == "import.meta" {
			e := &ast.ImportMeta{}
			e.SetSpan(c.span(n).Start, c.span(n).End)
			return e
		}
		id := &ast.Identifier{Name: c.text(n)}
		id.SetSpan(c.span(n).Start, c.span(n).End)
		return id
	case "import":
		// Bare `import` keyword appears as the callee of a dynamic
		// import(...) call_expression; handled there. Standalone it
		// has no expression meaning.
		id := &ast.Identifier{Name: "import"}
		id.SetSpan(c.span(n).Start, c.span(n).End)
		return id
	// Patterns occasionally show up directly in expression position
	// (e.g. an arrow function's single unparenthesized parameter, or
	// an assignment's destructuring left side nested in a larger
	// expression) — delegate to convPattern for those shapes.
	case "array_pattern", "object_pattern", "assignment_pattern", "rest_pattern":
		return c.convPattern(n)
	default:
		c.errorf(n, "treesitter: unsupported expression node %q", n.Type())
		return nil
	}
}

func (c *conv) convNumberLiteral(n *sitter.Node) ast.Node {
	text := c.text(n)
	if strings.HasSuffix(text, "n") {
		lit := &ast.Literal{LitKind: ast.LiteralBigInt, Str: strings.TrimSuffix(text, "n")}
		lit.SetSpan(c.span(n).Start, c.span(n).End)
		return lit
	}
	f, err := parseJSNumber(text)
	if err != nil {
		c.errorf(n, "treesitter: invalid numeric literal %q: %v", text, err)
	}
	lit := &ast.Literal{LitKind: ast.LiteralNumber, Number: f}
	lit.SetSpan(c.span(n).Start, c.span(n).End)
	return lit
}

func parseJSNumber(text string) (float64, error) {
	lower := strings.ToLower(text)
	switch {
	case strings.HasPrefix(lower, "0x"):
		u, err := strconv.ParseUint(lower[2:], 16, 64)
		return float64(u), err
	case strings.HasPrefix(lower, "0o"):
		u, err := strconv.ParseUint(lower[2:], 8, 64)
		return float64(u), err
	case strings.HasPrefix(lower, "0b"):
		u, err := strconv.ParseUint(lower[2:], 2, 64)
		return float64(u), err
	default:
		return strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
	}
}

// stringValue extracts a "string" node's cooked value: strip the
// surrounding quotes and resolve escape sequences in its
// string_fragment/escape_sequence children.
func (c *conv) stringValue(n *sitter.Node) string {
	var b strings.Builder
	for _, ch := range allChildren(n) {
		switch ch.Type() {
		case "string_fragment":
			b.WriteString(c.text(ch))
		case "escape_sequence":
			b.WriteString(unescapeJS(c.text(ch)))
		}
	}
	if b.Len() == 0 && n.NamedChildCount() == 0 {
		// Grammar revisions without string_fragment children expose the
		// whole quoted text directly; strip the quote characters.
		t := c.text(n)
		if len(t) >= 2 {
			return unescapeBody(t[1 : len(t)-1])
		}
	}
	return b.String()
}

func unescapeBody(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			seq, n := consumeEscape(s[i:])
			b.WriteString(unescapeJS(seq))
			i += n - 1
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func consumeEscape(s string) (string, int) {
	if len(s) < 2 {
		return s, len(s)
	}
	switch s[1] {
	case 'x':
		if len(s) >= 4 {
			return s[:4], 4
		}
	case 'u':
		if len(s) >= 2 && s[2] == '{' {
			if end := strings.IndexByte(s, '}'); end >= 0 {
				return s[:end+1], end + 1
			}
		}
		if len(s) >= 6 {
			return s[:6], 6
		}
	}
	return s[:2], 2
}

func unescapeJS(seq string) string {
	if len(seq) < 2 || seq[0] != '\\' {
		return seq
	}
	switch seq[1] {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case 'b':
		return "\b"
	case 'f':
		return "\f"
	case 'v':
		return "\v"
	case '0':
		return "\x00"
	case '\\':
		return "\\"
	case '\'':
		return "'"
	case '"':
		return "\""
	case '`':
		return "`"
	case '\n':
		return ""
	case 'x':
		if len(seq) >= 4 {
			if u, err := strconv.ParseUint(seq[2:4], 16, 32); err == nil {
				return string(rune(u))
			}
		}
	case 'u':
		body := seq[2:]
		body = strings.TrimPrefix(strings.TrimSuffix(body, "}"), "{")
		if u, err := strconv.ParseUint(body, 16, 32); err == nil {
			return string(rune(u))
		}
	}
	return seq[1:]
}

func (c *conv) convTemplateLiteral(n *sitter.Node) *ast.TemplateLiteral {
	var quasis []string
	var exprs []ast.Node
	var cur strings.Builder
	for _, ch := range allChildren(n) {
		switch ch.Type() {
		case "`":
			continue
		case "template_substitution":
			quasis = append(quasis, cur.String())
			cur.Reset()
			if e := ch.NamedChild(0); e != nil {
				exprs = append(exprs, c.convExpr(e))
			}
		case "string_fragment":
			cur.WriteString(c.text(ch))
		case "escape_sequence":
			cur.WriteString(unescapeJS(c.text(ch)))
		}
	}
	quasis = append(quasis, cur.String())
	t := &ast.TemplateLiteral{Quasis: quasis, Expressions: exprs}
	t.SetSpan(c.span(n).Start, c.span(n).End)
	return t
}

// convArrayExpression preserves elisions (`[1, , 3]`) as nil
// elements: a "," with no named child since the previous comma (or
// the opening bracket) marks a hole.
func (c *conv) convArrayExpression(n *sitter.Node) *ast.ArrayExpression {
	var elements []ast.Node
	sawElement := false
	for _, ch := range allChildren(n) {
		switch {
		case !ch.IsNamed() && c.text(ch) == ",":
			if !sawElement {
				elements = append(elements, nil)
			}
			sawElement = false
		case ch.IsNamed():
			elements = append(elements, c.convExpr(ch))
			sawElement = true
		}
	}
	e := &ast.ArrayExpression{Elements: elements}
	e.SetSpan(c.span(n).Start, c.span(n).End)
	return e
}

func (c *conv) convObjectExpression(n *sitter.Node) *ast.ObjectExpression {
	props := make([]ast.Node, 0, int(n.NamedChildCount()))
	for _, ch := range namedChildren(n) {
		switch ch.Type() {
		case "pair":
			key, computed := c.convPropertyKey(ch.ChildByFieldName("key"))
			val := c.convExpr(ch.ChildByFieldName("value"))
			p := &ast.Property{Key: key, Value: val, PropKind: ast.PropertyInit, Computed: computed}
			p.SetSpan(c.span(ch).Start, c.span(ch).End)
			props = append(props, p)
		case "shorthand_property_identifier":
			id := &ast.Identifier{Name: c.text(ch)}
			id.SetSpan(c.span(ch).Start, c.span(ch).End)
			p := &ast.Property{Key: id, Value: id, PropKind: ast.PropertyInit, Shorthand: true}
			p.SetSpan(c.span(ch).Start, c.span(ch).End)
			props = append(props, p)
		case "method_definition":
			props = append(props, c.convObjectMethod(ch))
		case "spread_element":
			s := &ast.SpreadElement{Argument: c.convExpr(ch.NamedChild(0))}
			s.SetSpan(c.span(ch).Start, c.span(ch).End)
			props = append(props, s)
		}
	}
	e := &ast.ObjectExpression{Properties: props}
	e.SetSpan(c.span(n).Start, c.span(n).End)
	return e
}

func (c *conv) convObjectMethod(n *sitter.Node) *ast.Property {
	key, computed := c.convPropertyKey(n.ChildByFieldName("name"))
	fn := c.convFunctionLike(n)
	fnExpr := &ast.FunctionExpression{Function: fn}
	fnExpr.SetSpan(c.span(n).Start, c.span(n).End)
	kind := ast.PropertyMethod
	if hasAnonToken(c, n, "get") {
		kind = ast.PropertyGet
	} else if hasAnonToken(c, n, "set") {
		kind = ast.PropertySet
	}
	p := &ast.Property{Key: key, Value: fnExpr, PropKind: kind, Computed: computed}
	p.SetSpan(c.span(n).Start, c.span(n).End)
	return p
}

// convPropertyKey returns the key node (converted) and whether it's a
// computed ([expr]) key.
func (c *conv) convPropertyKey(n *sitter.Node) (ast.Node, bool) {
	if n == nil {
		return nil, false
	}
	if n.Type() == "computed_property_name" {
		return c.convExpr(n.NamedChild(0)), true
	}
	switch n.Type() {
	case "property_identifier", "private_property_identifier":
		return c.convExpr(n), false
	case "string", "number":
		return c.convExpr(n), false
	default:
		return c.convExpr(n), false
	}
}

func (c *conv) convFunctionLike(n *sitter.Node) ast.Function {
	var id *ast.Identifier
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		id = &ast.Identifier{Name: c.text(nameNode)}
		id.SetSpan(c.span(nameNode).Start, c.span(nameNode).End)
	}
	params := c.convParams(n.ChildByFieldName("parameters"))
	body := c.convStatement(n.ChildByFieldName("body"))
	fn := ast.Function{
		ID:        id,
		Params:    params,
		Body:      body,
		Generator: hasAnonToken(c, n, "*") || n.Type() == "generator_function" || n.Type() == "generator_function_declaration",
		Async:     hasAnonToken(c, n, "async"),
	}
	fn.SetSpan(c.span(n).Start, c.span(n).End)
	return fn
}

func (c *conv) convParams(n *sitter.Node) []ast.Node {
	if n == nil {
		return nil
	}
	out := make([]ast.Node, 0, int(n.NamedChildCount()))
	for _, ch := range namedChildren(n) {
		if isIgnorable(ch.Type()) {
			continue
		}
		out = append(out, c.convPattern(ch))
	}
	return out
}

func (c *conv) convArrowFunction(n *sitter.Node) *ast.ArrowFunctionExpression {
	var params []ast.Node
	if p := n.ChildByFieldName("parameters"); p != nil {
		params = c.convParams(p)
	} else if p := n.ChildByFieldName("parameter"); p != nil {
		// A single bare identifier parameter (`x => x`) is exposed
		// directly as "parameter" rather than wrapped in
		// formal_parameters.
		params = []ast.Node{c.convPattern(p)}
	}
	bodyNode := n.ChildByFieldName("body")
	exprBody := bodyNode != nil && bodyNode.Type() != "statement_block"
	var body ast.Node
	if exprBody {
		body = c.convExpr(bodyNode)
	} else {
		body = c.convStatement(bodyNode)
	}
	fn := ast.Function{
		Params: params,
		Body:   body,
		Async:  hasAnonToken(c, n, "async"),
	}
	fn.SetSpan(c.span(n).Start, c.span(n).End)
	e := &ast.ArrowFunctionExpression{Function: fn, ExpressionBody: exprBody}
	e.SetSpan(c.span(n).Start, c.span(n).End)
	return e
}

func (c *conv) convCallExpression(n *sitter.Node) ast.Node {
	callee := n.ChildByFieldName("function")
	argsNode := n.ChildByFieldName("arguments")

	if argsNode != nil && argsNode.Type() == "template_string" {
		tag := c.convExpr(callee)
		tpl := c.convTemplateLiteral(argsNode)
		t := &ast.TaggedTemplate{Tag: tag, Template: tpl}
		t.SetSpan(c.span(n).Start, c.span(n).End)
		return t
	}

	if callee != nil && callee.Type() == "import" {
		var src ast.Node
		if argsNode != nil && argsNode.NamedChildCount() > 0 {
			src = c.convExpr(argsNode.NamedChild(0))
		}
		e := &ast.ImportExpression{Source: src}
		e.SetSpan(c.span(n).Start, c.span(n).End)
		return e
	}

	args := c.convArguments(argsNode)
	e := &ast.CallExpression{
		Callee:   c.convExpr(callee),
		Args:     args,
		Optional: hasChildOfType(n, "optional_chain"),
	}
	e.SetSpan(c.span(n).Start, c.span(n).End)
	return e
}

func (c *conv) convArguments(n *sitter.Node) []ast.Node {
	if n == nil {
		return nil
	}
	out := make([]ast.Node, 0, int(n.NamedChildCount()))
	for _, ch := range namedChildren(n) {
		if isIgnorable(ch.Type()) {
			continue
		}
		out = append(out, c.convExpr(ch))
	}
	return out
}

func (c *conv) convNewExpression(n *sitter.Node) *ast.NewExpression {
	callee := c.convExpr(n.ChildByFieldName("constructor"))
	args := c.convArguments(n.ChildByFieldName("arguments"))
	e := &ast.NewExpression{Callee: callee, Args: args}
	e.SetSpan(c.span(n).Start, c.span(n).End)
	return e
}

func (c *conv) convMemberExpression(n *sitter.Node, computed bool) *ast.MemberExpression {
	obj := c.convExpr(n.ChildByFieldName("object"))
	var prop ast.Node
	if computed {
		prop = c.convExpr(n.ChildByFieldName("index"))
	} else {
		propNode := n.ChildByFieldName("property")
		if propNode != nil && propNode.Type() == "private_property_identifier" {
			name := strings.TrimPrefix(c.text(propNode), "#")
			pn := &ast.PrivateName{Name: name}
			pn.SetSpan(c.span(propNode).Start, c.span(propNode).End)
			prop = pn
		} else {
			prop = c.convExpr(propNode)
		}
	}
	e := &ast.MemberExpression{
		Object:   obj,
		Property: prop,
		Computed: computed,
		Optional: hasChildOfType(n, "optional_chain"),
	}
	e.SetSpan(c.span(n).Start, c.span(n).End)
	return e
}

func (c *conv) convAssignmentExpression(n *sitter.Node) *ast.AssignmentExpression {
	leftNode := n.ChildByFieldName("left")
	var left ast.Node
	switch leftNode.Type() {
	case "array_pattern", "object_pattern":
		left = c.convPattern(leftNode)
	default:
		left = c.convExpr(leftNode)
	}
	e := &ast.AssignmentExpression{
		Operator: "=",
		Left:     left,
		Right:    c.convExpr(n.ChildByFieldName("right")),
	}
	e.SetSpan(c.span(n).Start, c.span(n).End)
	return e
}

func (c *conv) convAugmentedAssignment(n *sitter.Node) *ast.AssignmentExpression {
	op := c.text(n.ChildByFieldName("operator"))
	if op == "" {
		for _, ch := range allChildren(n) {
			if !ch.IsNamed() && strings.HasSuffix(c.text(ch), "=") && c.text(ch) != "=" {
				op = c.text(ch)
				break
			}
		}
	}
	e := &ast.AssignmentExpression{
		Operator: op,
		Left:     c.convExpr(n.ChildByFieldName("left")),
		Right:    c.convExpr(n.ChildByFieldName("right")),
	}
	e.SetSpan(c.span(n).Start, c.span(n).End)
	return e
}

var logicalOps = map[string]bool{"&&": true, "||": true, "??": true}

func (c *conv) convBinaryExpression(n *sitter.Node) ast.Node {
	op := c.text(n.ChildByFieldName("operator"))
	if op == "" {
		op = c.binaryOperatorFallback(n)
	}
	left := c.convExpr(n.ChildByFieldName("left"))
	right := c.convExpr(n.ChildByFieldName("right"))
	if logicalOps[op] {
		e := &ast.LogicalExpression{Operator: op, Left: left, Right: right}
		e.SetSpan(c.span(n).Start, c.span(n).End)
		return e
	}
	e := &ast.BinaryExpression{Operator: op, Left: left, Right: right}
	e.SetSpan(c.span(n).Start, c.span(n).End)
	return e
}

// binaryOperatorFallback scans for the operator token between the
// left and right named children, for grammar revisions that don't
// expose an "operator" field on binary_expression.
func (c *conv) binaryOperatorFallback(n *sitter.Node) string {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left == nil || right == nil {
		return ""
	}
	for _, ch := range allChildren(n) {
		if ch.IsNamed() {
			continue
		}
		if ch.StartByte() >= left.EndByte() && ch.EndByte() <= right.StartByte() {
			return c.text(ch)
		}
	}
	return ""
}

func (c *conv) convUnaryExpression(n *sitter.Node) *ast.UnaryExpression {
	op := c.text(n.ChildByFieldName("operator"))
	if op == "" && n.ChildCount() > 0 {
		op = c.text(n.Child(0))
	}
	e := &ast.UnaryExpression{Operator: op, Argument: c.convExpr(n.ChildByFieldName("argument"))}
	e.SetSpan(c.span(n).Start, c.span(n).End)
	return e
}

func (c *conv) convUpdateExpression(n *sitter.Node) *ast.UpdateExpression {
	argNode := n.ChildByFieldName("argument")
	arg := c.convExpr(argNode)
	op := c.text(n.ChildByFieldName("operator"))
	prefix := true
	if op == "" {
		// Scan the two direct children: whichever isn't the argument is
		// the operator token; prefix iff it comes first.
		for _, ch := range allChildren(n) {
			if ch == argNode {
				continue
			}
			op = c.text(ch)
			prefix = ch.StartByte() < argNode.StartByte()
		}
	} else {
		prefix = n.ChildByFieldName("operator").StartByte() < argNode.StartByte()
	}
	e := &ast.UpdateExpression{Operator: op, Argument: arg, Prefix: prefix}
	e.SetSpan(c.span(n).Start, c.span(n).End)
	return e
}

func (c *conv) convConditionalExpression(n *sitter.Node) *ast.ConditionalExpression {
	e := &ast.ConditionalExpression{
		Test:       c.convExpr(n.ChildByFieldName("condition")),
		Consequent: c.convExpr(n.ChildByFieldName("consequence")),
		Alternate:  c.convExpr(n.ChildByFieldName("alternative")),
	}
	e.SetSpan(c.span(n).Start, c.span(n).End)
	return e
}

// convSequenceExpression flattens tree-sitter's right-associative
// binary `left, right` shape into ast.SequenceExpression's flat list.
func (c *conv) convSequenceExpression(n *sitter.Node) *ast.SequenceExpression {
	var exprs []ast.Node
	var walk func(*sitter.Node)
	walk = func(x *sitter.Node) {
		if x.Type() == "sequence_expression" {
			walk(x.ChildByFieldName("left"))
			walk(x.ChildByFieldName("right"))
			return
		}
		exprs = append(exprs, c.convExpr(x))
	}
	walk(n)
	e := &ast.SequenceExpression{Expressions: exprs}
	e.SetSpan(c.span(n).Start, c.span(n).End)
	return e
}

func (c *conv) convYieldExpression(n *sitter.Node) *ast.YieldExpression {
	delegate := hasAnonToken(c, n, "*")
	var arg ast.Node
	if a := n.NamedChild(0); a != nil {
		arg = c.convExpr(a)
	}
	e := &ast.YieldExpression{Argument: arg, Delegate: delegate}
	e.SetSpan(c.span(n).Start, c.span(n).End)
	return e
}
