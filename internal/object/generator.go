package object

import (
	"github.com/oxhq/esengine/internal/heap"
	"github.com/oxhq/esengine/internal/value"
)

// GeneratorPayload holds the VM-owned suspended-frame context driving
// a Generator object's next/return/throw methods (spec §4.4). Context
// is opaque here (*vm.GeneratorContext), the same any-typed-payload
// pattern FunctionPayload.Closure uses, so this package still does not
// import internal/vm.
type GeneratorPayload struct {
	Context any
}

func (p *GeneratorPayload) Kind() heap.Kind { return heap.KindObject }

func (p *GeneratorPayload) Trace(v *heap.Visitor) {
	if c, ok := p.Context.(heap.Cell); ok {
		c.Trace(v)
	}
}

// NewGenerator allocates a Generator-kind object (spec §4.4's
// GeneratorCreate). Ordinary internal methods suffice — next/return/
// throw are installed afterward as plain own Function-kind properties
// by whoever creates the generator (internal/vm), not as exotic
// internal-method overrides.
func (rt *Runtime) NewGenerator(proto value.Value, payload *GeneratorPayload) value.Value {
	v := rt.newObject(KindGenerator, ordinaryMethods, proto)
	o := rt.Resolve(v)
	o.Payload = payload
	return v
}
