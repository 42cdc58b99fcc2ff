package module

import (
	"sort"

	"github.com/oxhq/esengine/internal/object"
	"github.com/oxhq/esengine/internal/value"
	"github.com/oxhq/esengine/internal/vm"
)

// GetModuleNamespace builds (or returns the cached) Module Namespace
// exotic object for m (spec §4.7's ModuleNamespaceCreate / the
// GetModuleNamespace abstract operation module.go's Namespace() and
// InitializeEnvironment's namespace-import/re-export handling both call
// into). Property names are m's exported names sorted per spec's
// alphabetic ModuleNamespaceCreate requirement; reads route through
// ResolveExport again at access time rather than snapshotting values, so
// a namespace object's properties stay live.
func GetModuleNamespace(eng *vm.Engine, m *Record) value.Value {
	if !m.namespace.IsUndefined() {
		return m.namespace
	}
	names := ExportedNames(m, nil)
	sort.Strings(names)

	payload := &object.ModuleNamespacePayload{
		Names: names,
		GetBinding: func(name string) (value.Value, error) {
			resolution, err := ResolveExport(m, name, nil)
			if err != nil || resolution == nil {
				return value.Value{}, &value.ReferenceError{Message: "cannot access '" + name + "' of an unresolved export"}
			}
			if resolution.BindingName == NamespaceBindingName {
				return GetModuleNamespace(eng, resolution.Module), nil
			}
			return resolution.Module.Env.BindingValue(resolution.BindingName)
		},
	}
	m.namespace = eng.Runtime().NewModuleNamespace(payload)
	return m.namespace
}
