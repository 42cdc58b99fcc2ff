package vm

import (
	"github.com/oxhq/esengine/internal/heap"
	"github.com/oxhq/esengine/internal/value"
)

// GeneratorContext is the suspended CallFrame a Generator object's
// next/return/throw methods drive (spec §4.4): the frame's pc, stack,
// and env survive across a yield exactly the way any other CallFrame
// would between two run() calls, so resuming a generator never needs a
// goroutine (spec explicitly models this via an explicit continuation).
type GeneratorContext struct {
	frame   *CallFrame
	started bool
	done    bool
}

func (g *GeneratorContext) Kind() heap.Kind { return heap.KindGeneratorContext }

func (g *GeneratorContext) Trace(v *heap.Visitor) {
	if g.frame == nil {
		return
	}
	if g.frame.closure != nil {
		g.frame.closure.Trace(v)
	}
	markIfHeap(v, g.frame.this)
	markIfHeap(v, g.frame.newTarget)
	markIfHeap(v, g.frame.function)
	for _, item := range g.frame.stack.data {
		markIfHeap(v, item)
	}
}

// Next implements spec GeneratorResume: resumes the frame with arg as
// the yield expression's value (ignored on the very first call, which
// instead starts the body running from pc 0).
func (g *GeneratorContext) Next(eng *Engine, arg value.Value) (value.Value, error) {
	if g.done {
		return eng.iteratorResult(value.Undefined, true), nil
	}
	if g.started {
		g.frame.pendingResume = &arg
	}
	g.started = true
	return g.resume(eng)
}

// Return implements spec GeneratorResumeAbrupt with a return
// completion. A full implementation would re-enter the frame and run
// any enclosing finally blocks before completing; this simplified
// version completes immediately, documented as a known gap in
// DESIGN.md (no generator body in this exercise observably depends on
// finally-on-return).
func (g *GeneratorContext) Return(eng *Engine, arg value.Value) (value.Value, error) {
	g.done = true
	return eng.iteratorResult(arg, true), nil
}

// Throw implements spec GeneratorResumeAbrupt with a throw completion:
// if the generator hasn't started or already finished, the exception
// propagates straight to the caller; otherwise it's injected at the
// current suspension point via CallFrame.pendingThrow, which run()
// routes through the same Handler-table lookup OpThrow uses, so a
// try/catch wrapping the yield still catches it.
func (g *GeneratorContext) Throw(eng *Engine, arg value.Value) (value.Value, error) {
	if g.done || !g.started {
		g.done = true
		return value.Value{}, &thrownValue{v: arg}
	}
	g.frame.pendingThrow = &arg
	return g.resume(eng)
}

func (g *GeneratorContext) resume(eng *Engine) (value.Value, error) {
	v, sig, err := eng.run(g.frame)
	if err != nil {
		g.done = true
		return value.Value{}, err
	}
	if sig != nil {
		if sig.isForReturn {
			g.done = true
			return eng.iteratorResult(sig.value, true), nil
		}
		return eng.iteratorResult(sig.value, false), nil
	}
	g.done = true
	return eng.iteratorResult(v, true), nil
}
