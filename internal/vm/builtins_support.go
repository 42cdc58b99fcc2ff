package vm

import "github.com/oxhq/esengine/internal/value"

// This file is internal/builtins' door into the otherwise-unexported
// job queue and Promise-settlement machinery async.go/module_support.go
// already implement for await/module evaluation — intrinsics like
// %Promise%.prototype.then and queueMicrotask are host surface over the
// same mechanism, not a second implementation of it.

// NewPromiseObject allocates a pending Promise object, for %Promise%'s
// constructor and Promise.resolve/reject/all/race to build on.
func (eng *Engine) NewPromiseObject() value.Value {
	return eng.NewCapability()
}

// ResolveThenable exposes resolveThenable (spec's
// PromiseResolveThenableJob, narrowed to this engine's own Promise
// objects — see async.go's doc comment) for Promise.prototype.then and
// the Promise.resolve/all/race combinators to subscribe to an arbitrary
// value the same way Await does.
func (eng *Engine) ResolveThenable(v value.Value, onFulfilled, onRejected func(value.Value)) {
	eng.resolveThenable(v, onFulfilled, onRejected)
}

// EnqueueJob schedules job on the microtask queue DrainJobs processes
// FIFO (spec §4.6). Promise.prototype.then appends its reaction this
// way when the promise it's attached to already settled, and
// queueMicrotask exposes it directly to script.
func (eng *Engine) EnqueueJob(job func()) { eng.enqueueJob(job) }

// NewThrow wraps v the same way a bytecode OpThrow does, for a native
// function that needs to raise a JS-visible exception value (rather
// than a TypeError/RangeError/... Go error toException knows how to
// translate) as its Go error return.
func (eng *Engine) NewThrow(v value.Value) error { return &thrownValue{v: v} }

// IterResult exposes iteratorResult (spec CreateIterResultObject) for
// the array/string/map/set iterator prototypes internal/builtins
// installs — the same {value, done} shape a for-of loop's
// OpIteratorNext/OpIteratorResult pair already consumes.
func (eng *Engine) IterResult(v value.Value, done bool) value.Value {
	return eng.iteratorResult(v, done)
}
