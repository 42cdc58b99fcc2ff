package builtins

import (
	"github.com/oxhq/esengine/internal/object"
	"github.com/oxhq/esengine/internal/value"
	"github.com/oxhq/esengine/internal/vm"
)

// installPromise builds %Promise% (spec §4.6): the executor-based
// constructor, prototype then/catch/finally (PerformPromiseThen and
// the settled-value pass-through it implies), and the resolve/reject/
// all/race/allSettled/any combinators. Settlement itself is
// internal/vm's job (SettleCapability/EnqueueJob, exposed via
// builtins_support.go) — this file only ever calls through that door,
// the same way async.go's Await does.
func installPromise(eng *vm.Engine, objectProto value.Value) value.Value {
	rt := eng.Runtime()
	promiseProto := rt.NewOrdinary(objectProto)

	ctor := newConstructor(eng, "Promise", 1, promiseProto, func(eng *vm.Engine, this value.Value, args []value.Value, newTarget value.Value) (value.Value, error) {
		if !newTarget.IsObject() {
			return value.Value{}, &value.TypeError{Message: "Promise constructor cannot be invoked without 'new'"}
		}
		executor := argOrUndefined(args, 0)
		if !rt.IsCallable(executor) {
			return value.Value{}, &value.TypeError{Message: "Promise resolver is not a function"}
		}
		target := promiseProto
		if p, err := rt.GetV(newTarget, key(eng, "prototype")); err == nil && p.IsObject() {
			target = p
		}
		p, _ := rt.NewPromise(target)
		resolve, reject := settlers(eng, p)
		resolveFn := eng.NewNativeFunction("", false, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
			resolve(argOrUndefined(args, 0))
			return value.Undefined, nil
		})
		rejectFn := eng.NewNativeFunction("", false, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
			reject(argOrUndefined(args, 0))
			return value.Undefined, nil
		})
		if _, err := rt.Call(executor, value.Undefined, []value.Value{resolveFn, rejectFn}); err != nil {
			reject(errorValue(eng, err))
		}
		return p, nil
	})

	defMethod(eng, promiseProto, "then", 2, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		return promiseThen(eng, promiseProto, this, argOrUndefined(args, 0), argOrUndefined(args, 1))
	})

	defMethod(eng, promiseProto, "catch", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		return promiseThen(eng, promiseProto, this, value.Undefined, argOrUndefined(args, 0))
	})

	defMethod(eng, promiseProto, "finally", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		onFinally := argOrUndefined(args, 0)
		if !rt.IsCallable(onFinally) {
			return promiseThen(eng, promiseProto, this, onFinally, onFinally)
		}
		wrapFulfill := eng.NewNativeFunction("", false, func(eng *vm.Engine, _ value.Value, args []value.Value, _ value.Value) (value.Value, error) {
			v := argOrUndefined(args, 0)
			r, err := rt.Call(onFinally, value.Undefined, nil)
			if err != nil {
				return value.Value{}, err
			}
			return chainThrough(eng, promiseProto, r, v, true)
		})
		wrapReject := eng.NewNativeFunction("", false, func(eng *vm.Engine, _ value.Value, args []value.Value, _ value.Value) (value.Value, error) {
			reason := argOrUndefined(args, 0)
			r, err := rt.Call(onFinally, value.Undefined, nil)
			if err != nil {
				return value.Value{}, err
			}
			return chainThrough(eng, promiseProto, r, reason, false)
		})
		return promiseThen(eng, promiseProto, this, wrapFulfill, wrapReject)
	})

	defMethod(eng, ctor, "resolve", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		v := argOrUndefined(args, 0)
		if v.IsObject() && isPromise(rt, v) {
			return v, nil
		}
		return newResolvedPromise(eng, promiseProto, v), nil
	})

	defMethod(eng, ctor, "reject", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		p, _ := rt.NewPromise(promiseProto)
		_, reject := settlers(eng, p)
		reject(argOrUndefined(args, 0))
		return p, nil
	})

	defMethod(eng, ctor, "all", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		return promiseCombinator(eng, promiseProto, argOrUndefined(args, 0), combinatorAll)
	})

	defMethod(eng, ctor, "allSettled", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		return promiseCombinator(eng, promiseProto, argOrUndefined(args, 0), combinatorAllSettled)
	})

	defMethod(eng, ctor, "race", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		return promiseCombinator(eng, promiseProto, argOrUndefined(args, 0), combinatorRace)
	})

	defMethod(eng, ctor, "any", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		return promiseCombinator(eng, promiseProto, argOrUndefined(args, 0), combinatorAny)
	})

	defOwn(eng, eng.GlobalObject, "Promise", ctor, false)
	return promiseProto
}

func isPromise(rt *object.Runtime, v value.Value) bool {
	o := rt.Resolve(v)
	return o != nil && o.ObjectKind() == object.KindPromise
}

// errorValue turns a Go error (a thrown JS value, or a TypeError/
// RangeError/... from internal/value) into the Value a catch-style
// handler should see, reusing internal/vm's own translation so a
// native executor panic and a bytecode throw produce the same shape.
func errorValue(eng *vm.Engine, err error) value.Value {
	if v, ok := vm.Thrown(err); ok {
		return v
	}
	return eng.ToException(err)
}

// settlers returns resolve/reject closures implementing spec's
// CreateResolvingFunctions: idempotent (only the first call settles),
// and resolve additionally drains a thenable argument through its own
// `then` method before fulfilling (spec's PromiseResolveThenableJob).
func settlers(eng *vm.Engine, p value.Value) (resolve, reject func(value.Value)) {
	rt := eng.Runtime()
	done := false
	reject = func(reason value.Value) {
		if done {
			return
		}
		done = true
		eng.SettleCapability(p, reason, false)
	}
	resolve = func(v value.Value) {
		if done {
			return
		}
		if value.SameValue(v, p) {
			reject(errorValue(eng, &value.TypeError{Message: "Chaining cycle detected for promise"}))
			return
		}
		if !v.IsObject() {
			done = true
			eng.SettleCapability(p, v, true)
			return
		}
		then, err := rt.GetV(v, key(eng, "then"))
		if err != nil {
			reject(errorValue(eng, err))
			return
		}
		if !rt.IsCallable(then) {
			done = true
			eng.SettleCapability(p, v, true)
			return
		}
		done = true
		eng.EnqueueJob(func() {
			innerResolve, innerReject := settlers(eng, p)
			resolveFn := eng.NewNativeFunction("", false, func(eng *vm.Engine, _ value.Value, args []value.Value, _ value.Value) (value.Value, error) {
				innerResolve(argOrUndefined(args, 0))
				return value.Undefined, nil
			})
			rejectFn := eng.NewNativeFunction("", false, func(eng *vm.Engine, _ value.Value, args []value.Value, _ value.Value) (value.Value, error) {
				innerReject(argOrUndefined(args, 0))
				return value.Undefined, nil
			})
			if _, err := rt.Call(then, v, []value.Value{resolveFn, rejectFn}); err != nil {
				innerReject(errorValue(eng, err))
			}
		})
	}
	return resolve, reject
}

func newResolvedPromise(eng *vm.Engine, promiseProto, v value.Value) value.Value {
	rt := eng.Runtime()
	p, _ := rt.NewPromise(promiseProto)
	resolve, _ := settlers(eng, p)
	resolve(v)
	return p
}

// promiseThen implements spec PerformPromiseThen: register reactions
// that run as microtasks once the source promise settles, producing a
// fresh promise resolved with whichever handler's return value (or, if
// the matching handler isn't callable, the settled value/reason itself
// passed straight through).
func promiseThen(eng *vm.Engine, promiseProto, this, onFulfilled, onRejected value.Value) (value.Value, error) {
	rt := eng.Runtime()
	if !this.IsObject() || !isPromise(rt, this) {
		return value.Value{}, &value.TypeError{Message: "Promise.prototype.then called on a non-Promise"}
	}
	result, _ := rt.NewPromise(promiseProto)
	resolve, reject := settlers(eng, result)

	runHandler := func(handler value.Value, settled value.Value, passthroughFulfilled bool) {
		if !rt.IsCallable(handler) {
			if passthroughFulfilled {
				resolve(settled)
			} else {
				reject(settled)
			}
			return
		}
		v, err := rt.Call(handler, value.Undefined, []value.Value{settled})
		if err != nil {
			reject(errorValue(eng, err))
			return
		}
		resolve(v)
	}

	eng.ResolveThenable(this, func(v value.Value) {
		runHandler(onFulfilled, v, true)
	}, func(reason value.Value) {
		runHandler(onRejected, reason, false)
	})
	return result, nil
}

// chainThrough implements Promise.prototype.finally's pass-through:
// onFinally's own (possibly thenable) return value is awaited first,
// then settled discards it and re-settles with the original
// value/reason, so finally never changes the chain's outcome.
func chainThrough(eng *vm.Engine, promiseProto, finallyResult, original value.Value, fulfilled bool) (value.Value, error) {
	rt := eng.Runtime()
	if !finallyResult.IsObject() {
		if fulfilled {
			return original, nil
		}
		return value.Value{}, eng.NewThrow(original)
	}
	then, err := rt.GetV(finallyResult, key(eng, "then"))
	if err != nil || !rt.IsCallable(then) {
		if fulfilled {
			return original, nil
		}
		return value.Value{}, eng.NewThrow(original)
	}
	p, _ := rt.NewPromise(promiseProto)
	resolve, reject := settlers(eng, p)
	resolveFn := eng.NewNativeFunction("", false, func(eng *vm.Engine, _ value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		if fulfilled {
			resolve(original)
		} else {
			reject(original)
		}
		return value.Undefined, nil
	})
	rejectFn := eng.NewNativeFunction("", false, func(eng *vm.Engine, _ value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		reject(argOrUndefined(args, 0))
		return value.Undefined, nil
	})
	if _, err := rt.Call(then, finallyResult, []value.Value{resolveFn, rejectFn}); err != nil {
		reject(errorValue(eng, err))
	}
	return p, nil
}

type combinatorKind uint8

const (
	combinatorAll combinatorKind = iota
	combinatorAllSettled
	combinatorRace
	combinatorAny
)

// promiseCombinator implements spec's PerformPromiseAll/AllSettled/
// Race/Any: drain the iterable eagerly (spec interleaves iteration
// with subscription; this engine's Array/iterator machinery is
// synchronous, so draining first then subscribing observes the same
// settlement order), then combine according to kind.
func promiseCombinator(eng *vm.Engine, promiseProto, iterable value.Value, kind combinatorKind) (value.Value, error) {
	rt := eng.Runtime()
	items, err := collectIterableOrArrayLike(eng, iterable)
	if err != nil {
		return value.Value{}, err
	}
	result, _ := rt.NewPromise(promiseProto)
	resolve, reject := settlers(eng, result)

	if kind == combinatorRace {
		for _, item := range items {
			eng.ResolveThenable(item, resolve, reject)
		}
		return result, nil
	}

	n := len(items)
	if n == 0 {
		switch kind {
		case combinatorAll, combinatorAllSettled:
			resolve(rt.NewArray(eng.ArrayProto))
		case combinatorAny:
			rejectWithAggregateError(eng, reject, rt.NewArray(eng.ArrayProto))
		}
		return result, nil
	}

	values := make([]value.Value, n)
	remaining := n
	settled := false

	buildArray := func() value.Value {
		out := rt.NewArray(eng.ArrayProto)
		for j, vv := range values {
			defineIndex(eng, out, j, vv)
		}
		return out
	}

	for i, item := range items {
		i := i
		eng.ResolveThenable(item,
			func(v value.Value) {
				if settled {
					return
				}
				switch kind {
				case combinatorAll:
					values[i] = v
					remaining--
					if remaining == 0 {
						settled = true
						resolve(buildArray())
					}
				case combinatorAllSettled:
					values[i] = fulfilledResult(eng, v)
					remaining--
					if remaining == 0 {
						settled = true
						resolve(buildArray())
					}
				case combinatorAny:
					settled = true
					resolve(v)
				}
			},
			func(reason value.Value) {
				if settled {
					return
				}
				switch kind {
				case combinatorAll:
					settled = true
					reject(reason)
				case combinatorAllSettled:
					values[i] = rejectedResult(eng, reason)
					remaining--
					if remaining == 0 {
						settled = true
						resolve(buildArray())
					}
				case combinatorAny:
					values[i] = reason
					remaining--
					if remaining == 0 {
						settled = true
						rejectWithAggregateError(eng, reject, buildArray())
					}
				}
			})
	}
	return result, nil
}

// rejectWithAggregateError constructs `new AggregateError(errors, ...)`
// and rejects with it. If AggregateError's own constructor fails (it
// never should), the promise is rejected with that construction error
// instead, converted to a Value through errorValue.
func rejectWithAggregateError(eng *vm.Engine, reject func(value.Value), errs value.Value) {
	agg, err := constructAggregateError(eng, errs, "All promises were rejected")
	if err != nil {
		reject(errorValue(eng, err))
		return
	}
	reject(agg)
}

func fulfilledResult(eng *vm.Engine, v value.Value) value.Value {
	o := eng.Runtime().NewOrdinary(eng.ObjectProto)
	defOwn(eng, o, "status", str(eng, "fulfilled"), true)
	defOwn(eng, o, "value", v, true)
	return o
}

func rejectedResult(eng *vm.Engine, reason value.Value) value.Value {
	o := eng.Runtime().NewOrdinary(eng.ObjectProto)
	defOwn(eng, o, "status", str(eng, "rejected"), true)
	defOwn(eng, o, "reason", reason, true)
	return o
}

func constructAggregateError(eng *vm.Engine, errsArr value.Value, message string) (value.Value, error) {
	rt := eng.Runtime()
	ctor, err := rt.GetV(eng.GlobalObject, key(eng, "AggregateError"))
	if err != nil {
		return value.Value{}, err
	}
	return rt.Construct(ctor, []value.Value{errsArr, str(eng, message)}, ctor)
}
