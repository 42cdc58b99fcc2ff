package vm

import (
	"github.com/oxhq/esengine/internal/object"
	"github.com/oxhq/esengine/internal/value"
)

// runAsync implements spec §4.6 AsyncFunctionStart: returns a pending
// Promise immediately and drives the function body to its first
// suspension point (or completion) synchronously, exactly like a
// native async function call returns control to its caller before any
// awaited value has settled.
func (eng *Engine) runAsync(frame *CallFrame) value.Value {
	capVal, _ := eng.obj.NewPromise(eng.promiseProtoOrNull())
	eng.driveAsync(frame, capVal)
	return capVal
}

// driveAsync runs frame until Return, an uncaught throw, or an Await
// suspension point, then either settles capVal or schedules a
// microtask-driven resume once the awaited value's promise settles
// (spec's Await: subscribe reactions, return to the event loop).
func (eng *Engine) driveAsync(frame *CallFrame, capVal value.Value) {
	v, sig, err := eng.run(frame)
	if err != nil {
		if t, ok := err.(*thrownValue); ok {
			eng.settlePromise(capVal, t.v, false)
		} else {
			eng.settlePromise(capVal, eng.toException(err), false)
		}
		return
	}
	if sig == nil {
		eng.settlePromise(capVal, v, true)
		return
	}
	awaited := sig.value
	eng.resolveThenable(awaited, func(resolved value.Value) {
		frame.pendingResume = &resolved
		eng.driveAsync(frame, capVal)
	}, func(reason value.Value) {
		frame.pendingThrow = &reason
		eng.driveAsync(frame, capVal)
	})
}

// resolveThenable implements a minimal PromiseResolveThenableJob for
// this engine's own Promise objects (spec §4.6): an already-settled
// Promise schedules its reaction on the next microtask turn, a
// still-pending one appends to its reaction lists, and a non-Promise
// value is treated as already-fulfilled (the general Thenable case —
// an arbitrary object with a callable `.then` — is left to
// internal/builtins' %Promise% implementation once it exists).
func (eng *Engine) resolveThenable(v value.Value, onFulfilled, onRejected func(value.Value)) {
	o := eng.obj.Resolve(v)
	var p *object.PromisePayload
	if o != nil {
		p, _ = o.Payload.(*object.PromisePayload)
	}
	if p == nil {
		eng.enqueueJob(func() { onFulfilled(v) })
		return
	}
	switch p.State {
	case object.PromiseFulfilled:
		result := p.Result
		eng.enqueueJob(func() { onFulfilled(result) })
	case object.PromiseRejected:
		result := p.Result
		eng.enqueueJob(func() { onRejected(result) })
	default:
		p.OnFulfill = append(p.OnFulfill, onFulfilled)
		p.OnReject = append(p.OnReject, onRejected)
	}
}
