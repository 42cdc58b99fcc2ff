package treesitter

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/esengine/internal/ast"
)

func (c *conv) convStringLiteral(n *sitter.Node) *ast.Literal {
	if n == nil {
		return nil
	}
	lit := &ast.Literal{LitKind: ast.LiteralString, Str: c.stringValue(n)}
	lit.SetSpan(c.span(n).Start, c.span(n).End)
	return lit
}

func (c *conv) convImportStatement(n *sitter.Node) *ast.ImportDeclaration {
	source := c.convStringLiteral(n.ChildByFieldName("source"))
	if source == nil {
		source = c.convStringLiteral(childOfType(n, "string"))
	}

	var specs []ast.Node
	clause := childOfType(n, "import_clause")
	if clause != nil {
		for _, ch := range namedChildren(clause) {
			switch ch.Type() {
			case "identifier":
				local := &ast.Identifier{Name: c.text(ch)}
				local.SetSpan(c.span(ch).Start, c.span(ch).End)
				s := &ast.ImportDefaultSpecifier{Local: local}
				s.SetSpan(c.span(ch).Start, c.span(ch).End)
				specs = append(specs, s)
			case "namespace_import":
				local := &ast.Identifier{}
				if id := ch.NamedChild(0); id != nil {
					local.Name = c.text(id)
					local.SetSpan(c.span(id).Start, c.span(id).End)
				}
				s := &ast.ImportNamespaceSpecifier{Local: local}
				s.SetSpan(c.span(ch).Start, c.span(ch).End)
				specs = append(specs, s)
			case "named_imports":
				for _, spec := range namedChildren(ch) {
					if spec.Type() != "import_specifier" {
						continue
					}
					nameNode := spec.ChildByFieldName("name")
					aliasNode := spec.ChildByFieldName("alias")
					imported := &ast.Identifier{Name: c.text(nameNode)}
					imported.SetSpan(c.span(nameNode).Start, c.span(nameNode).End)
					local := imported
					if aliasNode != nil {
						local = &ast.Identifier{Name: c.text(aliasNode)}
						local.SetSpan(c.span(aliasNode).Start, c.span(aliasNode).End)
					}
					s := &ast.ImportSpecifier{Imported: imported, Local: local}
					s.SetSpan(c.span(spec).Start, c.span(spec).End)
					specs = append(specs, s)
				}
			}
		}
	}

	d := &ast.ImportDeclaration{Specifiers: specs, Source: source}
	d.SetSpan(c.span(n).Start, c.span(n).End)
	return d
}

func (c *conv) convExportStatement(n *sitter.Node) ast.Node {
	if hasAnonToken(c, n, "default") {
		return c.convExportDefault(n)
	}
	if hasAnonToken(c, n, "*") {
		return c.convExportAll(n)
	}
	if decl := n.ChildByFieldName("declaration"); decl != nil {
		d := &ast.ExportNamedDeclaration{Declaration: c.convStatement(decl)}
		d.SetSpan(c.span(n).Start, c.span(n).End)
		return d
	}

	var specs []*ast.ExportSpecifier
	clause := childOfType(n, "export_clause")
	if clause == nil {
		clause = n // some grammar revisions hang export_specifier directly off export_statement
	}
	for _, ch := range namedChildren(clause) {
		if ch.Type() != "export_specifier" {
			continue
		}
		nameNode := ch.ChildByFieldName("name")
		aliasNode := ch.ChildByFieldName("alias")
		local := &ast.Identifier{Name: c.text(nameNode)}
		local.SetSpan(c.span(nameNode).Start, c.span(nameNode).End)
		exported := local
		if aliasNode != nil {
			exported = &ast.Identifier{Name: c.text(aliasNode)}
			exported.SetSpan(c.span(aliasNode).Start, c.span(aliasNode).End)
		}
		spec := &ast.ExportSpecifier{Local: local, Exported: exported}
		spec.SetSpan(c.span(ch).Start, c.span(ch).End)
		specs = append(specs, spec)
	}

	source := c.convStringLiteral(n.ChildByFieldName("source"))
	d := &ast.ExportNamedDeclaration{Specifiers: specs, Source: source}
	d.SetSpan(c.span(n).Start, c.span(n).End)
	return d
}

func (c *conv) convExportDefault(n *sitter.Node) *ast.ExportDefaultDeclaration {
	declNode := n.ChildByFieldName("value")
	if declNode == nil {
		declNode = n.ChildByFieldName("declaration")
	}
	if declNode == nil {
		// Fall back to the last named child, skipping the "default" token
		// (an unnamed node, so already excluded from namedChildren).
		nc := namedChildren(n)
		if len(nc) > 0 {
			declNode = nc[len(nc)-1]
		}
	}
	var decl ast.Node
	switch declNode.Type() {
	case "function_declaration", "generator_function_declaration", "class_declaration":
		decl = c.convStatement(declNode)
	default:
		decl = c.convExpr(declNode)
	}
	d := &ast.ExportDefaultDeclaration{Declaration: decl}
	d.SetSpan(c.span(n).Start, c.span(n).End)
	return d
}

func (c *conv) convExportAll(n *sitter.Node) *ast.ExportAllDeclaration {
	var exported *ast.Identifier
	// `export * as ns from "mod"`: the binding identifier sits between
	// the "*" and "from" tokens.
	for _, ch := range namedChildren(n) {
		if ch.Type() == "identifier" {
			exported = &ast.Identifier{Name: c.text(ch)}
			exported.SetSpan(c.span(ch).Start, c.span(ch).End)
			break
		}
	}
	source := c.convStringLiteral(n.ChildByFieldName("source"))
	if source == nil {
		source = c.convStringLiteral(childOfType(n, "string"))
	}
	d := &ast.ExportAllDeclaration{Exported: exported, Source: source}
	d.SetSpan(c.span(n).Start, c.span(n).End)
	return d
}
