package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/esengine/internal/heap"
	"github.com/oxhq/esengine/internal/value"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	return NewRuntime(heap.New(0))
}

func strKey(rt *Runtime, s string) Key {
	return StringKey(rt.Strings.Intern(s), s)
}

// TestShapeSharing verifies the scenario spec §8.2 names explicitly:
// two objects built through the identical insertion sequence share
// the same Shape node, and diverge (get distinct shapes / one moves
// to dictionary mode) only once their histories actually differ.
func TestShapeSharing(t *testing.T) {
	rt := newTestRuntime(t)
	a := rt.NewOrdinary(value.Null)
	b := rt.NewOrdinary(value.Null)

	for _, obj := range []value.Value{a, b} {
		require.NoError(t, must2(rt.SetV(obj, strKey(rt, "x"), value.Int32(1))))
		require.NoError(t, must2(rt.SetV(obj, strKey(rt, "y"), value.Int32(2))))
	}

	ao, bo := rt.Resolve(a), rt.Resolve(b)
	assert.Same(t, ao.props.Shape(), bo.props.Shape(), "identical insertion sequences must share one shape node")

	// Deleting the most recently added property off a (the "y" slot) is
	// the cheap case: a's shape walks back to its parent, which is
	// exactly the shape b had after only inserting "x".
	ok, err := rt.Delete(a, strKey(rt, "y"))
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, must2(rt.SetV(a, strKey(rt, "x2"), value.Int32(9))))
	// b still has x,y on its original shared shape; a now has a
	// different shape (x, x2) — they must have diverged.
	assert.NotSame(t, ao.props.Shape(), bo.props.Shape())
}

// TestDictionaryModeOnMidDelete verifies that deleting a property that
// is NOT the most recently added one forces dictionary mode (spec
// §4.3) rather than silently corrupting the shared shape tree.
func TestDictionaryModeOnMidDelete(t *testing.T) {
	rt := newTestRuntime(t)
	a := rt.NewOrdinary(value.Null)
	require.NoError(t, must2(rt.SetV(a, strKey(rt, "x"), value.Int32(1))))
	require.NoError(t, must2(rt.SetV(a, strKey(rt, "y"), value.Int32(2))))

	ao := rt.Resolve(a)
	require.NotNil(t, ao.props.Shape(), "object should start in shape mode")

	ok, err := rt.Delete(a, strKey(rt, "x")) // not the last-added property
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, ao.props.Shape(), "deleting a non-trailing property must migrate to dictionary mode")

	has, err := rt.HasProperty(a, strKey(rt, "x"))
	require.NoError(t, err)
	assert.False(t, has)
	yVal, err := rt.GetV(a, strKey(rt, "y"))
	require.NoError(t, err)
	assert.Equal(t, value.Int32(2), yVal)
}

// TestEnumerationOrder verifies spec §4.3's "ascending indices, then
// strings in insertion order, then symbols in insertion order".
func TestEnumerationOrder(t *testing.T) {
	rt := newTestRuntime(t)
	a := rt.NewOrdinary(value.Null)
	sym := rt.Symbols.New("tag")

	require.NoError(t, must2(rt.SetV(a, strKey(rt, "b"), value.Int32(1))))
	require.NoError(t, must2(rt.SetV(a, IndexKey(5), value.Int32(1))))
	require.NoError(t, must2(rt.SetV(a, strKey(rt, "a"), value.Int32(1))))
	require.NoError(t, must2(rt.SetV(a, SymbolKey(sym), value.Int32(1))))
	require.NoError(t, must2(rt.SetV(a, IndexKey(1), value.Int32(1))))

	keys, err := rt.OwnPropertyKeys(a)
	require.NoError(t, err)
	require.Len(t, keys, 5)
	assert.Equal(t, KeyIndex, keys[0].Kind())
	assert.Equal(t, uint32(1), keys[0].Index())
	assert.Equal(t, KeyIndex, keys[1].Kind())
	assert.Equal(t, uint32(5), keys[1].Index())
	assert.Equal(t, KeyString, keys[2].Kind()) // "b" inserted before "a"
	assert.Equal(t, KeyString, keys[3].Kind())
	assert.Equal(t, KeySymbol, keys[4].Kind())
}

// TestDefinePropertyTransitionMatrix exercises a slice of spec §3.4's
// 9-case matrix directly against PropertyMap.
func TestDefinePropertyTransitionMatrix(t *testing.T) {
	pm := NewPropertyMap()
	k := StringKey(0, "k")

	// 1: define on extensible, absent -> always succeeds.
	ok := pm.Define(k, Descriptor{HasValue: true, Value: value.Int32(1)})
	require.True(t, ok)

	// 2: non-configurable, non-writable data property rejects a
	// differing value.
	ok = pm.Define(k, Descriptor{
		HasValue: true, Value: value.Int32(1), HasWritable: true, Writable: false,
		HasConfigurable: true, Configurable: false,
	})
	require.True(t, ok)
	ok = pm.Define(k, Descriptor{HasValue: true, Value: value.Int32(2)})
	assert.False(t, ok, "cannot change the value of a non-configurable, non-writable property")

	// Same value is still accepted (no-op).
	ok = pm.Define(k, Descriptor{HasValue: true, Value: value.Int32(1)})
	assert.True(t, ok)

	// 3: cannot flip non-configurable -> configurable.
	ok = pm.Define(k, Descriptor{HasConfigurable: true, Configurable: true})
	assert.False(t, ok)

	// 4: data <-> accessor conversion is rejected when non-configurable.
	ok = pm.Define(k, Descriptor{HasGet: true, Get: value.Undefined})
	assert.False(t, ok)
}

// TestPreventExtensionsRejectsNewProperty verifies the extensibility
// half of the matrix (case 1's "absent + not extensible -> reject").
func TestPreventExtensionsRejectsNewProperty(t *testing.T) {
	pm := NewPropertyMap()
	pm.PreventExtensions()
	ok := pm.Define(StringKey(0, "new"), Descriptor{HasValue: true, Value: value.Int32(1)})
	assert.False(t, ok)
}

// TestArrayLengthInvariant verifies spec §4.3's Array exotic
// DefineOwnProperty: writing past the end bumps length; shrinking
// length deletes indices at or above the new length.
func TestArrayLengthInvariant(t *testing.T) {
	rt := newTestRuntime(t)
	arr := rt.NewArray(value.Null)

	require.NoError(t, must2(rt.SetV(arr, IndexKey(0), value.Int32(10))))
	require.NoError(t, must2(rt.SetV(arr, IndexKey(2), value.Int32(30))))

	lengthVal, err := rt.GetV(arr, strKey(rt, "length"))
	require.NoError(t, err)
	assert.Equal(t, int32(3), lengthVal.AsInt32())

	ok, err := rt.DefineOwnProperty(arr, strKey(rt, "length"), Descriptor{HasValue: true, Value: value.Int32(1)})
	require.NoError(t, err)
	require.True(t, ok)

	has, err := rt.HasProperty(arr, IndexKey(2))
	require.NoError(t, err)
	assert.False(t, has, "shrinking length must delete indices >= new length")

	has, err = rt.HasProperty(arr, IndexKey(0))
	require.NoError(t, err)
	assert.True(t, has)
}

// TestPrototypeChainGet verifies Get falls through OrdinaryGet's
// prototype walk when the receiver itself has no own property.
func TestPrototypeChainGet(t *testing.T) {
	rt := newTestRuntime(t)
	proto := rt.NewOrdinary(value.Null)
	require.NoError(t, must2(rt.SetV(proto, strKey(rt, "greeting"), value.Int32(42))))

	child := rt.NewOrdinary(proto)
	v, err := rt.GetV(child, strKey(rt, "greeting"))
	require.NoError(t, err)
	assert.Equal(t, value.Int32(42), v)

	ok, err := rt.HasProperty(child, strKey(rt, "greeting"))
	require.NoError(t, err)
	assert.True(t, ok)
}

// TestProxyGetForwardsToTarget verifies a handler lacking a "get" trap
// forwards straight through to the target (spec §4.3 "no trap ->
// forward to target").
func TestProxyGetForwardsToTarget(t *testing.T) {
	rt := newTestRuntime(t)
	target := rt.NewOrdinary(value.Null)
	require.NoError(t, must2(rt.SetV(target, strKey(rt, "v"), value.Int32(7))))
	handler := rt.NewOrdinary(value.Null) // no traps defined

	p, err := rt.NewProxy(target, handler)
	require.NoError(t, err)

	v, err := rt.GetV(p, strKey(rt, "v"))
	require.NoError(t, err)
	assert.Equal(t, value.Int32(7), v)
}

func must2(ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		panic("expected operation to succeed")
	}
	return nil
}
