package compiler

import "github.com/oxhq/esengine/internal/scope"

// HandlerKind distinguishes a catch handler from a finally handler in
// a CodeBlock's handler table (spec §3.6).
type HandlerKind uint8

const (
	HandlerCatch HandlerKind = iota
	HandlerFinally
)

// Handler is one entry of a CodeBlock's exception-unwinding table
// (spec §3.6): the VM's Throw opcode and the error-propagation path
// scan this table for the innermost range containing the current pc.
type Handler struct {
	StartPC, EndPC  int
	HandlerPC       int
	StackDepthAtEntry int
	EnvDepthAtEntry   int
	Kind              HandlerKind
}

// ConstKind discriminates what a constant-pool slot holds (spec §3.6
// "constant pool: values, nested CodeBlocks, interned strings, binding
// locators, scope records, AST expressions").
type ConstKind uint8

const (
	ConstValue ConstKind = iota // a pre-computed primitive (number, string, boolean)
	ConstCodeBlock
	ConstBindingLocator
	ConstScopeRecord
	ConstName // an interned identifier/property-name string used as a GetName/GetPropertyByName operand
)

// Constant is one constant-pool entry.
type Constant struct {
	Kind ConstKind
	// IsString disambiguates a ConstValue entry's payload: pushString
	// sets it and fills Str; pushNumber leaves it false and fills Number
	// (Number's own zero value is indistinguishable from "unset", so a
	// separate tag is simpler than a sentinel).
	IsString bool
	Number   float64
	Str      string
	Bool     bool
	Code     *CodeBlock
	Locator  scope.BindingLocator
	ScopeRef *scope.Scope
}

// Flags are the per-CodeBlock boolean attributes spec §3.6 lists.
type Flags uint16

const (
	FlagStrict Flags = 1 << iota
	FlagArrow
	FlagAsync
	FlagGenerator
	FlagMethod
	FlagClassConstructor
	FlagHasMappedArguments
	FlagInWith
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// CodeBlock is a compiled function or script, immutable after
// compilation (spec §3.6).
type CodeBlock struct {
	Name         string
	Bytecode     []byte
	Constants    []Constant
	ParamCount   int
	Length       int // the function's "length" property per spec (parameters before the first default/rest)
	Flags        Flags
	Handlers     []Handler
	FunctionInfo *scope.FunctionInfo // nil for a top-level script/module CodeBlock
	SourceMap    map[int]int         // bytecode offset -> source byte offset, for stack-trace reconstruction
}
