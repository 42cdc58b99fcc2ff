package esengine

import (
	"github.com/oxhq/esengine/internal/module"
)

// Module is spec §6.1's Context::parse_module result: a thin wrapper
// over internal/module.Module that keeps the owning Context alongside
// it, so Evaluate can return a Context-bound Value/Promise instead of
// a bare internal/value.Value.
type Module struct {
	ctx *Context
	mod *module.Module
}

// Specifier is the module's own resolved specifier.
func (m *Module) Specifier() string { return m.mod.Specifier() }

// State reports the Module Record's current spec §3.8 state.
func (m *Module) State() module.State { return m.mod.State() }

// Load runs Phase 1 (spec §4.7) over m's whole dependency graph using
// loader, or the Context's own HostHooks.Loader if loader is nil.
func (m *Module) Load(loader module.Loader, done func(error)) {
	if loader == nil {
		loader = m.ctx.loader
	}
	m.mod.Load(loader, done)
}

// Link runs Phase 2 (spec §4.7) — callers must have already driven
// Load to completion for m's entire graph.
func (m *Module) Link() error {
	return m.mod.Link(m.ctx.engine)
}

// Evaluate runs Phase 3 (spec §4.7), returning the settling Promise's
// Value wrapped in this Context, and drains the job queue so any
// top-level-await continuation or .then reaction actually runs before
// returning.
func (m *Module) Evaluate() Value {
	v := m.mod.Evaluate(m.ctx.engine)
	m.ctx.engine.DrainJobs()
	return m.ctx.wrap(v)
}

// Namespace builds (or returns the cached) Module Namespace object —
// only meaningful once m has reached at least Linked.
func (m *Module) Namespace() Value {
	return m.ctx.wrap(m.mod.Namespace(m.ctx.engine))
}

// Record exposes the underlying internal/module.Record for host code
// (internal/loader.FSLoader, a custom Loader) that must inspect
// RequestedModules directly.
func (m *Module) Record() *module.Record { return m.mod.Record() }
