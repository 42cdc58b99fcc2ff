package scope

import "github.com/oxhq/esengine/internal/ast"

// strictReservedWords are additionally forbidden as binding names once
// a scope is strict (spec Annex C / 12.1.1 reserved-word list).
var strictReservedWords = map[string]bool{
	"implements": true, "interface": true, "package": true,
	"private": true, "protected": true, "public": true,
	"static": true, "let": true, "yield": true,
}

// Result is everything Analyze produces for one compilation unit: the
// scope tree, every identifier reference resolved to a locator (or
// marked Global when resolution must happen dynamically), and the
// per-function scope sets the compiler's Function Declaration
// Instantiation prologue (spec §4.5.3) consumes.
type Result struct {
	Global      *Scope
	Locators    map[*ast.Identifier]BindingLocator
	Functions   map[ast.Node]*FunctionInfo // keyed by *ast.FunctionDeclaration/*ast.FunctionExpression/*ast.ArrowFunctionExpression
	Diagnostics []Diagnostic
}

// Analyzer walks an AST once, exactly as spec §4.4 describes, building
// the Scope tree and identifier locators in a single pass grounded on
// internal/parser/universal.go's one-walk-builds-structured-records
// shape.
type Analyzer struct {
	nextScopeIndex int
	result         *Result
	diagnostics    []Diagnostic
}

// New creates an Analyzer ready to process one Program.
func New() *Analyzer {
	return &Analyzer{
		result: &Result{
			Locators:  make(map[*ast.Identifier]BindingLocator),
			Functions: make(map[ast.Node]*FunctionInfo),
		},
	}
}

func (a *Analyzer) newScope(parent *Scope, strict, isFunction bool) *Scope {
	s := newScope(a.nextScopeIndex, parent, strict, isFunction)
	a.nextScopeIndex++
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// Analyze runs the full scope/binding pass over prog and returns the
// accumulated Result. Errors are reported as Diagnostics, not as a Go
// error return, since a single source unit typically has many
// independent early errors worth reporting together.
func Analyze(prog *ast.Program) *Result {
	a := New()
	global := a.newScope(nil, prog.IsModule, true) // a module's top level is always strict
	a.result.Global = global

	h := newHoistState()
	hoistBody(prog.Body, h, true)
	for _, name := range h.varOrder {
		a.declare(global, name, BindingVar, Span{})
	}
	for _, fn := range h.functions {
		a.declare(global, fn.ID.Name, BindingFunction, spanOf(fn))
	}

	a.declareLexicalDeclarations(global, prog.Body)
	a.walkStatements(prog.Body, global)

	a.result.Diagnostics = a.diagnostics
	return a.result
}

func spanOf(n ast.Node) Span {
	if n == nil {
		return Span{}
	}
	s := n.Span()
	return Span{Start: s.Start, End: s.End}
}

// declare adds a binding to scope, reporting a SyntaxError diagnostic
// on a lexical/lexical or lexical/function collision — spec's
// "duplicate lexical declaration" early error. var/var and
// var/function redeclaration is legal and silently merges.
func (a *Analyzer) declare(s *Scope, name string, kind BindingKind, span Span) *Binding {
	if s.Strict && strictReservedWords[name] {
		a.errorf(span, "%q is a reserved word in strict mode", name)
	}
	b, fresh := s.Declare(name, kind)
	if fresh {
		return b
	}
	if kind.IsLexical() || b.Kind.IsLexical() {
		a.errorf(span, "identifier %q has already been declared", name)
	}
	return b
}

// declareLexicalDeclarations scans body directly (not recursing into
// nested blocks or functions) for let/const/class/function
// declarations, which bind in THIS scope rather than the nearest
// function scope (spec's LexicallyDeclaredNames).
func (a *Analyzer) declareLexicalDeclarations(s *Scope, body []ast.Node) {
	for _, n := range body {
		switch d := n.(type) {
		case *ast.VariableDeclaration:
			if d.VarKind != ast.VarVar {
				kind := BindingLet
				if d.VarKind == ast.VarConst {
					kind = BindingConst
				}
				for _, decl := range d.Declarations {
					for _, name := range bindingNamesOf(decl.ID) {
						a.declare(s, name, kind, spanOf(decl))
					}
				}
			}
		case *ast.ClassDeclaration:
			if d.ID != nil {
				a.declare(s, d.ID.Name, BindingClass, spanOf(d))
			}
		case *ast.FunctionDeclaration:
			if !s.IsFunction && s.Parent != nil {
				// A block-scoped function declaration (Annex B territory)
				// also gets a lexical binding in its own block; the
				// enclosing function-level var binding was already
				// created by hoistBody at the function boundary.
				if d.ID != nil {
					a.declare(s, d.ID.Name, BindingFunction, spanOf(d))
				}
			}
		}
	}
}
