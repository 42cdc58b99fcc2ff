package builtins

import (
	"fmt"
	"sync"

	"github.com/oxhq/esengine/internal/value"
	"github.com/oxhq/esengine/internal/vm"
)

// Factory builds one native module's export bag against a live Engine
// (so it can allocate objects/functions through eng.Runtime() the same
// way Install's own intrinsics do). Called once per Engine the first
// time the module is actually imported (internal/loader resolves a
// specifier against Lookup before falling back to host file loading).
type Factory func(eng *vm.Engine) map[string]value.Value

// registry is the Go-level analogue of spec §10's "native module
// registration": unlike the teacher's registry.Registry, which loads
// language providers dynamically from .so plugins (LoadPlugin), this
// engine's built-ins are compiled in, so Register is just a map
// populated at package-init time (temporal.init below) or by an
// embedder's own init — there is no dynamic loading path to mirror.
type registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

var defaultRegistry = &registry{factories: make(map[string]Factory)}

// Register adds a native module factory under name (e.g. "temporal"),
// grounded on registry.Registry.RegisterProvider's conflict-checked
// insert. Panics on a duplicate name, since registration only ever
// happens at init time from code the embedder controls — a collision
// there is a programming error, not a runtime condition to recover
// from (contrast RegisterProvider's returned error, appropriate for its
// plugin-load-at-runtime caller).
func Register(name string, factory Factory) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	if _, exists := defaultRegistry.factories[name]; exists {
		panic(fmt.Sprintf("builtins: native module %q already registered", name))
	}
	defaultRegistry.factories[name] = factory
}

// Lookup returns name's registered factory, if any. internal/loader
// calls this first for every specifier; a bare specifier (no
// relative/absolute path) with no registered factory is rejected
// rather than resolved on disk.
func Lookup(name string) (Factory, bool) {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()
	f, ok := defaultRegistry.factories[name]
	return f, ok
}

// Names lists every registered native module name, sorted by
// registration order is not guaranteed — callers that need a stable
// listing (a REPL's module-ls command) should sort it themselves.
func Names() []string {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()
	names := make([]string, 0, len(defaultRegistry.factories))
	for n := range defaultRegistry.factories {
		names = append(names, n)
	}
	return names
}
