// Package frontend declares the Parser contract spec §1 leaves external
// to the engine core: turning source text into the internal/ast tree
// internal/scope and internal/compiler consume. internal/frontend/
// treesitter is the bundled default, mirroring how
// internal/provider.LanguageProvider lets the teacher plug a
// language-specific Tree-sitter grammar behind one narrow interface
// rather than hard-wiring a single grammar into the core.
package frontend

import "github.com/oxhq/esengine/internal/ast"

// Options controls how Parse treats ambiguous top-level syntax.
type Options struct {
	// Module, when true, parses source as a module body (import/export
	// declarations allowed, top-level `this` is undefined, implicit
	// strict mode) rather than a script.
	Module bool
}

// Parser turns source text into a *ast.Program. A non-nil error slice
// means the program is nil; front ends report every syntax error they
// can recover from rather than stopping at the first one, the way a
// language server's diagnostics list does.
type Parser interface {
	Parse(source string, opts Options) (*ast.Program, []error)
}
