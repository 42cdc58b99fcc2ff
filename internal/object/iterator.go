package object

import "github.com/oxhq/esengine/internal/value"

// iteratorSymbolKey/asyncIteratorSymbolKey mirror toPrimitiveSymbolKey's
// registration pattern (conversions.go): internal/builtins supplies the
// real @@iterator/@@asyncIterator lookup once the Symbol registry and
// well-known symbols exist, so this package never imports builtins.
var (
	iteratorSymbolKey      func() (Key, bool)
	asyncIteratorSymbolKey func() (Key, bool)
)

// RegisterIteratorSymbol lets internal/builtins wire @@iterator.
func RegisterIteratorSymbol(lookup func() (Key, bool)) { iteratorSymbolKey = lookup }

// RegisterAsyncIteratorSymbol lets internal/builtins wire @@asyncIterator.
func RegisterAsyncIteratorSymbol(lookup func() (Key, bool)) { asyncIteratorSymbolKey = lookup }

// GetMethod implements spec GetMethod: fetch v[key], passing nullish
// results straight through but rejecting a non-callable result.
func (rt *Runtime) GetMethod(v value.Value, key Key) (value.Value, error) {
	fn, err := rt.GetV(v, key)
	if err != nil {
		return value.Value{}, err
	}
	if fn.IsNullish() {
		return value.Undefined, nil
	}
	if !rt.IsCallable(fn) {
		return value.Value{}, &value.TypeError{Message: "property is not a function"}
	}
	return fn, nil
}

// GetIteratorMethod resolves the @@asyncIterator method when async is
// true, with no fallback to @@iterator (internal/vm's getIterator
// always passes false, so OpGetAsyncIterator also uses @@iterator);
// otherwise resolves @@iterator directly. Returns Undefined (not an error) if no well-known
// symbol has been registered yet, or v has no such method.
func (rt *Runtime) GetIteratorMethod(v value.Value, async bool) (value.Value, error) {
	lookup := iteratorSymbolKey
	if async {
		lookup = asyncIteratorSymbolKey
	}
	if lookup == nil {
		return value.Undefined, nil
	}
	key, ok := lookup()
	if !ok {
		return value.Undefined, nil
	}
	return rt.GetMethod(v, key)
}
