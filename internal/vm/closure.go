package vm

import (
	"github.com/oxhq/esengine/internal/compiler"
	"github.com/oxhq/esengine/internal/heap"
)

// Closure is the VM's answer to object.FunctionPayload.Closure (kept
// opaque `any` on that side to avoid an import cycle): a CodeBlock
// paired with the Environment it closed over at function-creation time.
type Closure struct {
	Code *compiler.CodeBlock
	Env  *Environment

	// Name is the function's name, copied from Code.Name by
	// makeFunction.
	Name string
}

func (c *Closure) Kind() heap.Kind { return heap.KindCodeBlock }

func (c *Closure) Trace(v *heap.Visitor) {
	if c.Env != nil {
		c.Env.Trace(v)
	}
}

// NewClosure captures env for code, the shape every OpGetFunction
// instruction produces.
func NewClosure(code *compiler.CodeBlock, env *Environment) *Closure {
	return &Closure{Code: code, Env: env}
}
