package builtins

import (
	"github.com/oxhq/esengine/internal/object"
	"github.com/oxhq/esengine/internal/value"
	"github.com/oxhq/esengine/internal/vm"
)

// installFunction builds %Function.prototype%'s own call/apply/bind/
// toString (spec §4.3's BoundFunctionCreate backs bind; the `Function`
// constructor itself is intentionally not exposed on the global object
// — spec §1 scopes `new Function(...)` dynamic compilation out, the
// same omission the teacher's own evaluator makes for `eval`).
func installFunction(eng *vm.Engine, functionProto value.Value) {
	rt := eng.Runtime()

	defMethod(eng, functionProto, "call", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		if !rt.IsCallable(this) {
			return value.Value{}, &value.TypeError{Message: "Function.prototype.call called on non-callable"}
		}
		thisArg := argOrUndefined(args, 0)
		var rest []value.Value
		if len(args) > 1 {
			rest = args[1:]
		}
		return rt.Call(this, thisArg, rest)
	})

	defMethod(eng, functionProto, "apply", 2, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		if !rt.IsCallable(this) {
			return value.Value{}, &value.TypeError{Message: "Function.prototype.apply called on non-callable"}
		}
		thisArg := argOrUndefined(args, 0)
		argArray := argOrUndefined(args, 1)
		if argArray.IsNullish() {
			return rt.Call(this, thisArg, nil)
		}
		list, err := iterableToSlice(eng, argArray)
		if err != nil {
			return value.Value{}, err
		}
		return rt.Call(this, thisArg, list)
	})

	defMethod(eng, functionProto, "bind", 1, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		if !rt.IsCallable(this) {
			return value.Value{}, &value.TypeError{Message: "Function.prototype.bind called on non-callable"}
		}
		boundThis := argOrUndefined(args, 0)
		var boundArgs []value.Value
		if len(args) > 1 {
			boundArgs = append([]value.Value{}, args[1:]...)
		}
		bound := rt.NewBoundFunction(functionProto, &object.BoundFunctionPayload{
			Target: this, BoundThis: boundThis, BoundArgs: boundArgs,
		}, rt.IsConstructor(this))
		name, _ := rt.GetV(this, key(eng, "name"))
		nameStr := "bound"
		if name.IsString() {
			nameStr = "bound " + rt.Strings.Lookup(name.Ref())
		}
		defOwn(eng, bound, "name", str(eng, nameStr), false)
		length, _ := rt.GetV(this, key(eng, "length"))
		lengthN := int32(0)
		if length.IsNumber() {
			lengthN = int32(length.AsFloat64()) - int32(len(boundArgs))
			if lengthN < 0 {
				lengthN = 0
			}
		}
		defOwn(eng, bound, "length", value.Int32(lengthN), false)
		return bound, nil
	})

	defMethod(eng, functionProto, "toString", 0, func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		name, _ := rt.GetV(this, key(eng, "name"))
		nameStr := ""
		if name.IsString() {
			nameStr = rt.Strings.Lookup(name.Ref())
		}
		return str(eng, "function "+nameStr+"() { [native code] }"), nil
	})

}

// iterableToSlice drains an array-like value (spec
// CreateListFromArrayLike, the shape Function.prototype.apply's second
// argument and Array.from's first argument both accept) into a Go
// slice.
func iterableToSlice(eng *vm.Engine, v value.Value) ([]value.Value, error) {
	rt := eng.Runtime()
	lengthV, err := rt.GetV(v, key(eng, "length"))
	if err != nil {
		return nil, err
	}
	n, err := value.ToLength(lengthV)
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, 0, n)
	for i := int64(0); i < n; i++ {
		elem, err := rt.GetV(v, object.IndexKey(uint32(i)))
		if err != nil {
			return nil, err
		}
		out = append(out, elem)
	}
	return out, nil
}
