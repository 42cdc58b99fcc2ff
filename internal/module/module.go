package module

import (
	"github.com/oxhq/esengine/internal/ast"
	"github.com/oxhq/esengine/internal/value"
	"github.com/oxhq/esengine/internal/vm"
)

// Module is the host-facing handle spec §6.1's Context::parse_module
// returns: a thin wrapper over a *Record that walks it through
// Load/Link/Evaluate without exposing the Tarjan-DFS bookkeeping fields
// Record keeps unexported.
type Module struct {
	record *Record
}

// Parse compiles source into a new top-level Module (spec's ParseModule
// entry point) without resolving or loading anything it imports —
// callers drive Load/Link/Evaluate themselves, in that order.
func Parse(specifier, source string, prog *ast.Program) (*Module, []error) {
	r, errs := NewRecord(specifier, source, prog)
	if errs != nil {
		return nil, errs
	}
	return &Module{record: r}, nil
}

// Record exposes the wrapped Module Record for callers (internal/loader,
// tests) that need direct access to RequestedModules/ImportEntries/etc.
func (mod *Module) Record() *Record { return mod.record }

// Specifier is the module's own resolved specifier.
func (mod *Module) Specifier() string { return mod.record.Specifier }

// State reports the Module Record's current spec §3.8 state.
func (mod *Module) State() State { return mod.record.State }

// Load runs Phase 1 over mod's whole dependency graph, invoking done
// once every reachable specifier has resolved or the first error is
// observed (see loader.go's Load/GraphLoadingState).
func (mod *Module) Load(loader Loader, done func(error)) {
	Load(mod.record, loader, done)
}

// Link runs Phase 2 (link.go) — callers must have already driven Load to
// completion for mod's entire graph.
func (mod *Module) Link(eng *vm.Engine) error {
	return Link(eng, mod.record)
}

// Evaluate runs Phase 3 (evaluate.go), returning a pending Promise that
// settles once mod (and every dependency an async evaluation chain
// touches) finishes — draining eng's job queue (eng.DrainJobs) after
// calling this is what actually lets that settlement happen for modules
// with top-level await.
func (mod *Module) Evaluate(eng *vm.Engine) value.Value {
	return Evaluate(eng, mod.record)
}

// Namespace builds (or returns the cached) Module Namespace object for
// mod — only meaningful once mod has at least reached Linked, since
// namespace property reads resolve live bindings in mod's (and its
// dependencies') environments.
func (mod *Module) Namespace(eng *vm.Engine) value.Value {
	return GetModuleNamespace(eng, mod.record)
}
