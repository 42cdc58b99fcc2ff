package module

import (
	"github.com/oxhq/esengine/internal/value"
	"github.com/oxhq/esengine/internal/vm"
)

// Link runs spec §4.7 Phase 2 over m's already-Loaded graph: a
// Tarjan-style depth-first walk (internal/module/record.go's
// dfsIndex/dfsAncestorIndex/onStack fields) that primes every reachable
// module's top-level environment up front — so a cyclic import can
// alias into a dependency's bindings before that dependency has
// actually evaluated anything — elects each strongly-connected
// component's cycle root, and wires every ImportEntry to its resolved
// export via InitializeEnvironment. On any error, every module this
// walk drove into Linking is reverted to Unlinked, per spec's rollback
// rule; a module already Linked (or further along) from a prior Link
// call is left untouched.
func Link(eng *vm.Engine, m *Record) error {
	switch m.State {
	case Linked, EvaluatingAsync, Evaluated:
		return nil
	}
	var stack []*Record
	if _, err := innerModuleLinking(eng, m, &stack, 0); err != nil {
		for _, r := range stack {
			r.onStack = false
			if r.State == Linking || r.State == PreLinked {
				r.setState(Unlinked)
			}
		}
		return err
	}
	return nil
}

func innerModuleLinking(eng *vm.Engine, m *Record, stack *[]*Record, index int) (int, error) {
	switch m.State {
	case Linking, PreLinked, Linked, EvaluatingAsync, Evaluated:
		return index, nil
	}

	m.setState(Linking)
	m.dfsIndex = index
	m.dfsAncestorIndex = index
	index++
	*stack = append(*stack, m)
	m.onStack = true

	// Priming now (rather than lazily, the first time the module's frame
	// actually runs) gives m.Env a stable identity before any module in
	// its cycle — including itself — starts evaluating, which is exactly
	// what cross-module AliasBinding calls below need.
	m.frame = eng.NewModuleFrame(m.Code)
	m.Env = eng.PrimeModuleFrame(m.frame)

	for _, specifier := range m.RequestedModules {
		required := m.LoadedModules[specifier]
		var err error
		index, err = innerModuleLinking(eng, required, stack, index)
		if err != nil {
			return index, err
		}
		if required.onStack && required.dfsAncestorIndex < m.dfsAncestorIndex {
			m.dfsAncestorIndex = required.dfsAncestorIndex
		}
	}

	if err := InitializeEnvironment(eng, m); err != nil {
		return index, err
	}

	if m.dfsAncestorIndex == m.dfsIndex {
		for {
			n := len(*stack)
			member := (*stack)[n-1]
			*stack = (*stack)[:n-1]
			member.onStack = false
			member.setState(Linked)
			member.CycleRoot = m
			if member == m {
				break
			}
		}
	} else {
		m.setState(PreLinked)
	}
	return index, nil
}

// InitializeEnvironment implements spec §4.7's InitializeEnvironment:
// resolves every one of m's ImportEntries against its source module's
// exports and schedules m's own not-yet-run frame to bind it (a live
// alias into the source binding for an ordinary named/default import, or
// the source module's own Module Namespace object for a namespace
// import/re-exported namespace), then validates every
// IndirectExportEntry actually resolves somewhere. Returns a
// *value.SyntaxError (as a plain Go error; module linking runs before
// any VM frame is executing, so there is no pending_exception to route
// this through) naming the first import/export this module's graph
// cannot satisfy.
func InitializeEnvironment(eng *vm.Engine, m *Record) error {
	for _, e := range m.ImportEntries {
		dep := m.LoadedModules[e.ModuleRequest]
		if e.ImportName == "*" {
			eng.SetBindingValue(m.frame, e.LocalName, GetModuleNamespace(eng, dep))
			continue
		}
		resolution, err := ResolveExport(dep, e.ImportName, nil)
		if err != nil {
			return &value.SyntaxError{Message: "The requested module '" + e.ModuleRequest + "' contains conflicting star exports for name '" + e.ImportName + "'"}
		}
		if resolution == nil {
			return &value.SyntaxError{Message: "The requested module '" + e.ModuleRequest + "' does not provide an export named '" + e.ImportName + "'"}
		}
		if resolution.BindingName == NamespaceBindingName {
			eng.SetBindingValue(m.frame, e.LocalName, GetModuleNamespace(eng, resolution.Module))
			continue
		}
		eng.SetImportAlias(m.frame, e.LocalName, resolution.Module.Env, resolution.BindingName)
	}

	for _, e := range m.IndirectExportEntries {
		if e.ImportName == "*" {
			continue // a namespace re-export always resolves, to the target module's own namespace
		}
		dep := m.LoadedModules[e.ModuleRequest]
		resolution, err := ResolveExport(dep, e.ImportName, nil)
		if err != nil {
			return &value.SyntaxError{Message: "The requested module '" + e.ModuleRequest + "' contains conflicting star exports for name '" + e.ImportName + "'"}
		}
		if resolution == nil {
			return &value.SyntaxError{Message: "The requested module '" + e.ModuleRequest + "' does not provide an export named '" + e.ImportName + "'"}
		}
	}
	return nil
}
