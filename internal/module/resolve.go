package module

import "errors"

// ErrAmbiguousExport is returned by ResolveExport when exportName
// resolves to two or more distinct bindings through different `export *
// from` re-exports (spec §4.7's "ambiguous" resolution outcome) —
// importing that name is a SyntaxError.
var ErrAmbiguousExport = errors.New("ambiguous export")

// NamespaceBindingName is the sentinel ResolveExport's BindingName
// carries when exportName actually names a re-exported Module Namespace
// object (`export * as ns from "mod"`) rather than an ordinary scalar
// binding: whoever installs the resolved import/export reads Module's
// own namespace object (GetModuleNamespace) instead of aliasing a
// binding cell.
const NamespaceBindingName = "*namespace*"

// ResolvedBinding names one concrete (module, binding) pair an export
// name resolves to (spec §4.7's ResolvedBinding record).
type ResolvedBinding struct {
	Module      *Record
	BindingName string
}

type resolveSetEntry struct {
	module     *Record
	exportName string
}

// ResolveExport implements spec §4.7's ResolveExport(exportName,
// resolveSet): local exports win first, then named re-exports
// (`export {x} from`/`export * as ns from`, delegating to the target
// module or resolving directly to its namespace), then — if still
// unresolved and exportName isn't "default" — every bare `export *
// from` star entry, with ambiguity detection across them. A circular
// resolution request (the same module/exportName pair already on
// resolveSet) resolves to nil, matching spec's treatment of it as an
// unresolved (not erroring) case.
func ResolveExport(m *Record, exportName string, resolveSet []resolveSetEntry) (*ResolvedBinding, error) {
	for _, e := range resolveSet {
		if e.module == m && e.exportName == exportName {
			return nil, nil
		}
	}
	resolveSet = append(resolveSet, resolveSetEntry{m, exportName})

	for _, e := range m.LocalExportEntries {
		if e.ExportName == exportName {
			return &ResolvedBinding{Module: m, BindingName: e.LocalName}, nil
		}
	}
	for _, e := range m.IndirectExportEntries {
		if e.ExportName != exportName {
			continue
		}
		target := m.LoadedModules[e.ModuleRequest]
		if e.ImportName == "*" {
			return &ResolvedBinding{Module: target, BindingName: NamespaceBindingName}, nil
		}
		return ResolveExport(target, e.ImportName, resolveSet)
	}
	if exportName == "default" {
		return nil, nil
	}

	var starResolution *ResolvedBinding
	for _, e := range m.StarExportEntries {
		target := m.LoadedModules[e.ModuleRequest]
		resolution, err := ResolveExport(target, exportName, resolveSet)
		if err != nil {
			return nil, err
		}
		if resolution == nil {
			continue
		}
		switch {
		case starResolution == nil:
			starResolution = resolution
		case resolution.Module != starResolution.Module || resolution.BindingName != starResolution.BindingName:
			return nil, ErrAmbiguousExport
		}
	}
	return starResolution, nil
}

// ExportedNames flattens m's local, indirect, and star-re-exported names
// into one set (spec §4.7's GetExportedNames(exportStarSet)), for
// building a Module Namespace object's own property list. A bare
// `export * from` entry contributes every one of its target's exported
// names except "default"; visited guards against infinite recursion
// through a star-export cycle.
func ExportedNames(m *Record, visited map[*Record]bool) []string {
	if visited == nil {
		visited = make(map[*Record]bool)
	}
	if visited[m] {
		return nil
	}
	visited[m] = true

	seen := make(map[string]bool)
	var names []string
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, e := range m.LocalExportEntries {
		add(e.ExportName)
	}
	for _, e := range m.IndirectExportEntries {
		add(e.ExportName)
	}
	for _, e := range m.StarExportEntries {
		target := m.LoadedModules[e.ModuleRequest]
		for _, n := range ExportedNames(target, visited) {
			if n != "default" {
				add(n)
			}
		}
	}
	return names
}
