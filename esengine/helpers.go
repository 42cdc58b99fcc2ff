package esengine

import (
	"github.com/oxhq/esengine/internal/ast"
	"github.com/oxhq/esengine/internal/compiler"
	"github.com/oxhq/esengine/internal/object"
	"github.com/oxhq/esengine/internal/scope"
	"github.com/oxhq/esengine/internal/value"
	"github.com/oxhq/esengine/internal/vm"
)



// compileProgram is the one call site shared by Eval and Compile
// that turns a parsed Program into a runnable CodeBlock.
func compileProgram(prog *ast.Program) (*compiler.CodeBlock, []scope.Diagnostic) {
	return compiler.Compile(prog)
}

// defineGlobal assigns name on eng's global object through the ordinary
// [[Set]] path, so a new binding becomes a writable, enumerable,
// configurable data property (unlike internal/builtins.Install, which
// defines its intrinsics non-enumerable via DefineOwnProperty).
func defineGlobal(eng *vm.Engine, name string, v value.Value) {
	rt := eng.Runtime()
	key := object.StringKey(rt.Strings.Intern(name), name)
	rt.SetV(eng.GlobalObject, key, v)
}
