package builtins

import (
	"github.com/oxhq/esengine/internal/value"
	"github.com/oxhq/esengine/internal/vm"
)

// errorKinds lists every Error subtype spec §7's taxonomy names, in
// the order %Error% itself is built first (every subtype's prototype
// chains up to %Error.prototype%, spec §4.8's NativeError pattern).
var errorKinds = []string{"TypeError", "RangeError", "SyntaxError", "ReferenceError", "URIError", "EvalError"}

// installErrors builds %Error% and the NativeError subtypes spec §4.8
// describes (TypeError, RangeError, SyntaxError, ReferenceError,
// URIError, EvalError), plus AggregateError (spec §4.6, used by
// Promise.any). Each gets a `.prototype.name`/`.prototype.message` pair
// and `.prototype.toString`; internal/vm's toException consults
// eng.ErrorProtos to materialize host-raised errors as real instances
// of the matching constructor.
func installErrors(eng *vm.Engine, objectProto value.Value) {
	rt := eng.Runtime()

	errorProto := rt.NewOrdinary(objectProto)
	defOwn(eng, errorProto, "name", str(eng, "Error"), false)
	defOwn(eng, errorProto, "message", str(eng, ""), false)
	defMethod(eng, errorProto, "toString", 0, errorToString)

	errorCtor := newErrorConstructor(eng, "Error", errorProto)
	defOwn(eng, eng.GlobalObject, "Error", errorCtor, false)
	eng.ErrorProtos["Error"] = errorProto

	for _, name := range errorKinds {
		proto := rt.NewOrdinary(errorProto)
		defOwn(eng, proto, "name", str(eng, name), false)
		defOwn(eng, proto, "message", str(eng, ""), false)
		ctor := newErrorConstructor(eng, name, proto)
		if _, err := rt.SetPrototypeOf(ctor, errorCtor); err != nil {
			panic(err)
		}
		defOwn(eng, eng.GlobalObject, name, ctor, false)
		eng.ErrorProtos[name] = proto
	}

	aggregateProto := rt.NewOrdinary(errorProto)
	defOwn(eng, aggregateProto, "name", str(eng, "AggregateError"), false)
	defOwn(eng, aggregateProto, "message", str(eng, ""), false)
	aggregateCtor := newConstructor(eng, "AggregateError", 2, aggregateProto, func(eng *vm.Engine, this value.Value, args []value.Value, newTarget value.Value) (value.Value, error) {
		proto := aggregateProto
		if newTarget.IsObject() {
			if p, err := rt.GetV(newTarget, key(eng, "prototype")); err == nil && p.IsObject() {
				proto = p
			}
		}
		errs, err := collectIterableOrArrayLike(eng, argOrUndefined(args, 0))
		if err != nil {
			return value.Value{}, err
		}
		errsArr := rt.NewArray(eng.ArrayProto)
		for i, e := range errs {
			defineIndex(eng, errsArr, i, e)
		}
		o := rt.NewOrdinary(proto)
		defOwn(eng, o, "errors", errsArr, true)
		if msg := argOrUndefined(args, 1); !msg.IsUndefined() {
			sv, err := value.ToStringValue(msg)
			if err != nil {
				return value.Value{}, err
			}
			defOwn(eng, o, "message", sv, false)
		}
		return o, nil
	})
	if _, err := rt.SetPrototypeOf(aggregateCtor, errorCtor); err != nil {
		panic(err)
	}
	defOwn(eng, eng.GlobalObject, "AggregateError", aggregateCtor, false)
	eng.ErrorProtos["AggregateError"] = aggregateProto
}

// newErrorConstructor builds one Error/NativeError constructor: `new
// Error(message)` (or a bare call, spec treats both identically)
// allocates an ordinary object on proto, setting an own "message" when
// the argument isn't undefined and an own "cause" when the options
// argument has one. No "stack" property is set (this engine does not
// capture call-stack traces).
func newErrorConstructor(eng *vm.Engine, name string, proto value.Value) value.Value {
	rt := eng.Runtime()
	return newConstructor(eng, name, 1, proto, func(eng *vm.Engine, this value.Value, args []value.Value, newTarget value.Value) (value.Value, error) {
		target := proto
		if newTarget.IsObject() {
			if p, err := rt.GetV(newTarget, key(eng, "prototype")); err == nil && p.IsObject() {
				target = p
			}
		}
		o := rt.NewOrdinary(target)
		if msg := argOrUndefined(args, 0); !msg.IsUndefined() {
			sv, err := value.ToStringValue(msg)
			if err != nil {
				return value.Value{}, err
			}
			defOwn(eng, o, "message", sv, false)
		}
		if opts := argOrUndefined(args, 1); opts.IsObject() {
			if has, _ := rt.HasProperty(opts, key(eng, "cause")); has {
				cause, err := rt.GetV(opts, key(eng, "cause"))
				if err != nil {
					return value.Value{}, err
				}
				defOwn(eng, o, "cause", cause, false)
			}
		}
		return o, nil
	})
}

func errorToString(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
	rt := eng.Runtime()
	if !this.IsObject() {
		return value.Value{}, &value.TypeError{Message: "Error.prototype.toString called on non-object"}
	}
	nameV, err := rt.GetV(this, key(eng, "name"))
	if err != nil {
		return value.Value{}, err
	}
	name := "Error"
	if nameV.IsString() {
		name = rt.Strings.Lookup(nameV.Ref())
	} else if !nameV.IsUndefined() {
		sv, err := value.ToStringValue(nameV)
		if err != nil {
			return value.Value{}, err
		}
		name = rt.Strings.Lookup(sv.Ref())
	}
	msgV, err := rt.GetV(this, key(eng, "message"))
	if err != nil {
		return value.Value{}, err
	}
	msg := ""
	if !msgV.IsUndefined() {
		sv, err := value.ToStringValue(msgV)
		if err != nil {
			return value.Value{}, err
		}
		msg = rt.Strings.Lookup(sv.Ref())
	}
	switch {
	case name == "" && msg == "":
		return str(eng, "Error"), nil
	case msg == "":
		return str(eng, name), nil
	case name == "":
		return str(eng, msg), nil
	default:
		return str(eng, name+": "+msg), nil
	}
}
