// Package module implements the three-phase (Load/Link/Evaluate)
// module record machinery (spec §4.7): SourceTextModule linking with
// Tarjan-style cycle detection and top-level-await-aware async
// evaluation ordering.
//
// Grounded on internal/db/migrate.go's explicit state-column migration
// style for the Module state machine's named states, and
// mcp/async_staging.go's pending-count/result-collector shape for
// GraphLoadingState and the async evaluation order's completion
// bookkeeping (see DESIGN.md).
package module

import (
	"github.com/google/uuid"

	"github.com/oxhq/esengine/internal/ast"
	"github.com/oxhq/esengine/internal/compiler"
	"github.com/oxhq/esengine/internal/value"
	"github.com/oxhq/esengine/internal/vm"
	"github.com/oxhq/esengine/internal/xlog"
)

// Log receives a Debug event on every Record state transition (§4.1a's
// "module state transitions" diagnostic) when non-nil. There is no
// single owning struct threaded through Load/Link/Evaluate's recursive
// functions the way Heap owns its slots, so this follows mcp/logging.go's
// package-level *Config.Debug check instead: one switch for the whole
// package, installed once by the host via SetLogger.
var Log *xlog.Logger

// SetLogger installs the diagnostic logger every Record in this process
// reports state transitions through.
func SetLogger(l *xlog.Logger) { Log = l }

// setState transitions r to s, logging the edge when a Logger is
// installed. Every State assignment in link.go/evaluate.go goes through
// this instead of writing r.State directly.
func (r *Record) setState(s State) {
	if Log != nil {
		Log.Debug("module state transition", "specifier", r.Specifier, "from", r.State.String(), "to", s.String())
	}
	r.State = s
}

// State is one of spec §3.8's seven Module Record states.
type State int

const (
	Unlinked State = iota
	Linking
	PreLinked
	Linked
	Evaluating
	EvaluatingAsync
	Evaluated
)

func (s State) String() string {
	switch s {
	case Unlinked:
		return "unlinked"
	case Linking:
		return "linking"
	case PreLinked:
		return "pre-linked"
	case Linked:
		return "linked"
	case Evaluating:
		return "evaluating"
	case EvaluatingAsync:
		return "evaluating-async"
	case Evaluated:
		return "evaluated"
	default:
		return "unknown"
	}
}

// ImportEntry is one binding a module imports from another (spec
// §3.8's ImportEntry record).
type ImportEntry struct {
	ModuleRequest string
	ImportName    string // "*" for a namespace import, otherwise the exported name
	LocalName     string
}

// LocalExportEntry binds an export name to a binding declared in this
// module itself (including `export default`, whose LocalName is the
// synthetic "*default*" binding compileExportDefault installs).
type LocalExportEntry struct {
	ExportName string
	LocalName  string
}

// IndirectExportEntry re-exports a binding from another module (`export
// {x} from "mod"`) without creating a local binding for it.
type IndirectExportEntry struct {
	ExportName    string
	ModuleRequest string
	ImportName    string
}

// StarExportEntry is a bare `export * from "mod"`: every name mod
// exports (except "default") is re-exported under its own name. `export
// * as ns from "mod"` is NOT one of these — it names a single binding
// (the namespace object itself), so extractEntries records it as an
// IndirectExportEntry with ImportName "*" instead.
type StarExportEntry struct {
	ModuleRequest string
}

// Record is one Module Record (spec §3.8). Everything the Load/Link/
// Evaluate algorithms read or mutate lives here; Module (module.go)
// wraps a *Record with the host-facing API.
type Record struct {
	ID         string // uuid.NewString(), host-observable trace correlation (SPEC_FULL §2 wiring)
	Specifier  string
	Source     string
	Program    *ast.Program
	Code       *compiler.CodeBlock
	HasTopLevelAwait bool

	RequestedModules []string

	ImportEntries         []ImportEntry
	LocalExportEntries    []LocalExportEntry
	IndirectExportEntries []IndirectExportEntry
	StarExportEntries     []StarExportEntry

	// LoadedModules maps a requested specifier to its resolved Record,
	// populated during Phase 1 Load.
	LoadedModules map[string]*Record

	State State

	// dfsIndex/dfsAncestorIndex/onStack back Phase 2's Tarjan DFS.
	dfsIndex        int
	dfsAncestorIndex int
	onStack         bool

	CycleRoot *Record

	Env *vm.Environment

	// frame is the module body's CallFrame, created once during Link
	// (innerModuleLinking) and kept across await-driven resumptions
	// exactly like a generator's suspended frame.
	frame *vm.CallFrame

	TopLevelCapability value.Value // a pending Promise, spec's top_level_capability

	// asyncEvaluation mirrors spec's [[AsyncEvaluation]]: true from the
	// moment InnerModuleEvaluation decides this module needs async
	// handling (top-level await or a pending async dependency) until its
	// ExecuteAsyncModule run finally settles.
	asyncEvaluation bool

	AsyncParentModules       []*Record
	PendingAsyncDependencies int
	AsyncEvalOrder           int

	EvalError    error
	EvalErrorVal value.Value
	HasEvalError bool

	namespace value.Value // cached Module Namespace object, lazily built
}

// NewRecord turns prog into a compiled Module Record (spec's
// ParseModule): extracts every import/export entry from the AST and
// compiles the body, but does not resolve any specifier — that is
// Phase 1 Load's job.
func NewRecord(specifier, source string, prog *ast.Program) (*Record, []error) {
	prog.IsModule = true
	code, diags := compiler.Compile(prog)
	if len(diags) > 0 {
		errs := make([]error, len(diags))
		for i, d := range diags {
			errs[i] = d
		}
		return nil, errs
	}

	r := &Record{
		ID:            uuid.NewString(),
		Specifier:     specifier,
		Source:        source,
		Program:       prog,
		Code:          code,
		LoadedModules: make(map[string]*Record),
		State:         Unlinked,
	}
	extractEntries(r, prog)
	r.HasTopLevelAwait = containsTopLevelAwait(prog.Body)
	seen := make(map[string]bool)
	for _, e := range r.ImportEntries {
		if !seen[e.ModuleRequest] {
			seen[e.ModuleRequest] = true
			r.RequestedModules = append(r.RequestedModules, e.ModuleRequest)
		}
	}
	for _, e := range r.IndirectExportEntries {
		if !seen[e.ModuleRequest] {
			seen[e.ModuleRequest] = true
			r.RequestedModules = append(r.RequestedModules, e.ModuleRequest)
		}
	}
	for _, e := range r.StarExportEntries {
		if !seen[e.ModuleRequest] {
			seen[e.ModuleRequest] = true
			r.RequestedModules = append(r.RequestedModules, e.ModuleRequest)
		}
	}
	return r, nil
}

// extractEntries walks prog's top-level import/export declarations,
// the way scope.Analyze walks declarations for hoisting, producing the
// four entry lists spec §3.8 defines.
func extractEntries(r *Record, prog *ast.Program) {
	for _, n := range prog.Body {
		switch d := n.(type) {
		case *ast.ImportDeclaration:
			spec := d.Source.Str
			for _, s := range d.Specifiers {
				switch sp := s.(type) {
				case *ast.ImportSpecifier:
					r.ImportEntries = append(r.ImportEntries, ImportEntry{
						ModuleRequest: spec, ImportName: sp.Imported.Name, LocalName: sp.Local.Name,
					})
				case *ast.ImportDefaultSpecifier:
					r.ImportEntries = append(r.ImportEntries, ImportEntry{
						ModuleRequest: spec, ImportName: "default", LocalName: sp.Local.Name,
					})
				case *ast.ImportNamespaceSpecifier:
					r.ImportEntries = append(r.ImportEntries, ImportEntry{
						ModuleRequest: spec, ImportName: "*", LocalName: sp.Local.Name,
					})
				}
			}
		case *ast.ExportNamedDeclaration:
			if d.Source != nil {
				spec := d.Source.Str
				for _, es := range d.Specifiers {
					r.IndirectExportEntries = append(r.IndirectExportEntries, IndirectExportEntry{
						ExportName: es.Exported.Name, ModuleRequest: spec, ImportName: es.Local.Name,
					})
				}
				continue
			}
			if d.Declaration != nil {
				for _, name := range declaredNames(d.Declaration) {
					r.LocalExportEntries = append(r.LocalExportEntries, LocalExportEntry{ExportName: name, LocalName: name})
				}
				continue
			}
			for _, es := range d.Specifiers {
				r.LocalExportEntries = append(r.LocalExportEntries, LocalExportEntry{
					ExportName: es.Exported.Name, LocalName: es.Local.Name,
				})
			}
		case *ast.ExportDefaultDeclaration:
			// compileExportDefault binds the default export's value to
			// the synthetic "*default*" binding (see compiler.go);
			// InitializeEnvironment resolves local exports against that
			// same name.
			r.LocalExportEntries = append(r.LocalExportEntries, LocalExportEntry{ExportName: "default", LocalName: compiler.DefaultExportBinding})
		case *ast.ExportAllDeclaration:
			spec := d.Source.Str
			if d.Exported != nil {
				r.IndirectExportEntries = append(r.IndirectExportEntries, IndirectExportEntry{
					ExportName: d.Exported.Name, ModuleRequest: spec, ImportName: "*",
				})
				continue
			}
			r.StarExportEntries = append(r.StarExportEntries, StarExportEntry{ModuleRequest: spec})
		}
	}
}

// declaredNames reports every top-level binding name a declaration
// statement introduces (`export const a = 1, b = 2`, `export function
// f(){}`, `export class C{}`).
func declaredNames(n ast.Node) []string {
	switch d := n.(type) {
	case *ast.VariableDeclaration:
		var names []string
		for _, decl := range d.Declarations {
			names = append(names, bindingNames(decl.ID)...)
		}
		return names
	case *ast.FunctionDeclaration:
		return []string{d.ID.Name}
	case *ast.ClassDeclaration:
		return []string{d.ID.Name}
	}
	return nil
}

func bindingNames(n ast.Node) []string {
	switch p := n.(type) {
	case *ast.Identifier:
		return []string{p.Name}
	case *ast.ArrayPattern:
		var names []string
		for _, el := range p.Elements {
			if el != nil {
				names = append(names, bindingNames(el)...)
			}
		}
		return names
	case *ast.ObjectPattern:
		var names []string
		for _, prop := range p.Properties {
			names = append(names, bindingNames(prop)...)
		}
		return names
	case *ast.AssignmentPattern:
		return bindingNames(p.Left)
	case *ast.RestElement:
		return bindingNames(p.Argument)
	case *ast.Property:
		return bindingNames(p.Value)
	}
	return nil
}

// containsTopLevelAwait reports whether any top-level statement
// contains an Await expression not itself nested inside a function
// boundary (spec's HasTopLevelAwait).
func containsTopLevelAwait(body []ast.Node) bool {
	for _, stmt := range body {
		if hasAwait(stmt) {
			return true
		}
	}
	return false
}

// hasAwait walks n looking for an AwaitExpression, stopping at any
// nested function/class boundary (a function's own await is that
// function's concern, not its enclosing module's).
func hasAwait(n ast.Node) bool {
	if n == nil {
		return false
	}
	switch v := n.(type) {
	case *ast.AwaitExpression:
		return true
	case *ast.FunctionDeclaration, *ast.FunctionExpression, *ast.ArrowFunctionExpression,
		*ast.ClassDeclaration, *ast.ClassExpression:
		return false
	case *ast.ForOfStatement:
		return v.Await || hasAwait(v.Left) || hasAwait(v.Right) || hasAwait(v.Body)
	}
	for _, child := range children(n) {
		if hasAwait(child) {
			return true
		}
	}
	return false
}

// children lists n's immediate sub-nodes for the generic tree walks
// hasAwait (and, later, other module-level scans) perform.
func children(n ast.Node) []ast.Node {
	switch v := n.(type) {
	case *ast.ExpressionStatement:
		return []ast.Node{v.Expression}
	case *ast.BlockStatement:
		return v.Body
	case *ast.VariableDeclaration:
		out := make([]ast.Node, len(v.Declarations))
		for i, d := range v.Declarations {
			out[i] = d
		}
		return out
	case *ast.VariableDeclarator:
		return []ast.Node{v.ID, v.Init}
	case *ast.IfStatement:
		return []ast.Node{v.Test, v.Consequent, v.Alternate}
	case *ast.SwitchStatement:
		out := []ast.Node{v.Discriminant}
		for _, c := range v.Cases {
			out = append(out, c)
		}
		return out
	case *ast.SwitchCase:
		out := []ast.Node{v.Test}
		return append(out, v.Consequent...)
	case *ast.ForStatement:
		return []ast.Node{v.Init, v.Test, v.Update, v.Body}
	case *ast.ForInStatement:
		return []ast.Node{v.Left, v.Right, v.Body}
	case *ast.WhileStatement:
		return []ast.Node{v.Test, v.Body}
	case *ast.DoWhileStatement:
		return []ast.Node{v.Body, v.Test}
	case *ast.ReturnStatement:
		return []ast.Node{v.Argument}
	case *ast.ThrowStatement:
		return []ast.Node{v.Argument}
	case *ast.TryStatement:
		out := []ast.Node{v.Block}
		if v.Handler != nil {
			out = append(out, v.Handler)
		}
		if v.Finalizer != nil {
			out = append(out, v.Finalizer)
		}
		return out
	case *ast.CatchClause:
		return []ast.Node{v.Body}
	case *ast.LabeledStatement:
		return []ast.Node{v.Body}
	case *ast.WithStatement:
		return []ast.Node{v.Object, v.Body}
	case *ast.ArrayExpression:
		return v.Elements
	case *ast.ObjectExpression:
		return v.Properties
	case *ast.Property:
		return []ast.Node{v.Key, v.Value}
	case *ast.UnaryExpression:
		return []ast.Node{v.Argument}
	case *ast.UpdateExpression:
		return []ast.Node{v.Argument}
	case *ast.BinaryExpression:
		return []ast.Node{v.Left, v.Right}
	case *ast.LogicalExpression:
		return []ast.Node{v.Left, v.Right}
	case *ast.AssignmentExpression:
		return []ast.Node{v.Left, v.Right}
	case *ast.ConditionalExpression:
		return []ast.Node{v.Test, v.Consequent, v.Alternate}
	case *ast.CallExpression:
		out := []ast.Node{v.Callee}
		return append(out, v.Args...)
	case *ast.NewExpression:
		out := []ast.Node{v.Callee}
		return append(out, v.Args...)
	case *ast.MemberExpression:
		return []ast.Node{v.Object, v.Property}
	case *ast.SequenceExpression:
		return v.Expressions
	case *ast.SpreadElement:
		return []ast.Node{v.Argument}
	case *ast.YieldExpression:
		return []ast.Node{v.Argument}
	case *ast.AwaitExpression:
		return []ast.Node{v.Argument}
	case *ast.TemplateLiteral:
		return v.Expressions
	case *ast.TaggedTemplate:
		return []ast.Node{v.Tag, v.Template}
	case *ast.ImportExpression:
		return []ast.Node{v.Source}
	case *ast.ArrayPattern:
		return v.Elements
	case *ast.ObjectPattern:
		return v.Properties
	case *ast.AssignmentPattern:
		return []ast.Node{v.Left, v.Right}
	case *ast.RestElement:
		return []ast.Node{v.Argument}
	}
	return nil
}
