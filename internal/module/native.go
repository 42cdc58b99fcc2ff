package module

import (
	"sort"

	"github.com/google/uuid"
	"github.com/oxhq/esengine/internal/value"
	"github.com/oxhq/esengine/internal/vm"
)

// NewNativeRecord wraps a host-native module's exports as an
// already-Evaluated Record (spec §10's "native module registration":
// internal/builtins.Register(name, factory) supplies exports, not a
// parsed source text, so there is no Load/Link phase to run — the
// Record is born Evaluated with a plain declarative environment
// binding each export name directly). A loader (internal/loader) that
// recognizes specifier as a registered native module name returns this
// in place of parsing a file, letting ResolveExport/GetModuleNamespace
// (resolve.go/namespace.go) treat it exactly like any other dependency.
func NewNativeRecord(specifier string, exports map[string]value.Value) *Record {
	env := vm.NewDeclarativeEnvironment(nil)
	names := make([]string, 0, len(exports))
	for name, v := range exports {
		env.Initialize(name, v, false)
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]LocalExportEntry, len(names))
	for i, name := range names {
		entries[i] = LocalExportEntry{ExportName: name, LocalName: name}
	}

	return &Record{
		ID:                 uuid.NewString(),
		Specifier:          specifier,
		LoadedModules:      make(map[string]*Record),
		LocalExportEntries: entries,
		State:              Evaluated,
		Env:                env,
	}
}
