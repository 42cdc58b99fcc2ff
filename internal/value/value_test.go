package value

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStrings is a minimal StringHeap for testing the conversion ladder
// in isolation, without pulling in internal/object.
type memStrings struct {
	byStr map[string]HeapRef
	byRef []string
}

func newMemStrings() *memStrings {
	return &memStrings{byStr: make(map[string]HeapRef)}
}

func (m *memStrings) Intern(s string) HeapRef {
	if ref, ok := m.byStr[s]; ok {
		return ref
	}
	ref := HeapRef(len(m.byRef))
	m.byRef = append(m.byRef, s)
	m.byStr[s] = ref
	return ref
}

func (m *memStrings) Lookup(ref HeapRef) string { return m.byRef[ref] }

type memBigInts struct{}

func (memBigInts) LookupBigInt(HeapRef) *big.Int { return nil }

func setupTestHeap(t *testing.T) *memStrings {
	t.Helper()
	sh := newMemStrings()
	RegisterObjectHost(
		func(v Value, hint string) (Value, error) { return v, nil },
		func(v Value) (Value, error) { return v, nil },
		sh,
	)
	RegisterBigIntHost(memBigInts{})
	return sh
}

func TestToBoolean(t *testing.T) {
	setupTestHeap(t)
	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"undefined", Undefined, false},
		{"null", Null, false},
		{"false", False, false},
		{"true", True, true},
		{"zero", Int32(0), false},
		{"negzero", Float64(math.Copysign(0, -1)), false},
		{"nan", Float64(math.NaN()), false},
		{"one", Int32(1), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, ToBoolean(c.v))
		})
	}
}

func TestToBooleanString(t *testing.T) {
	sh := setupTestHeap(t)
	empty := HeapValue(TagString, sh.Intern(""))
	nonEmpty := HeapValue(TagString, sh.Intern("a"))
	assert.False(t, ToBoolean(empty))
	assert.True(t, ToBoolean(nonEmpty))
}

func TestToNumber(t *testing.T) {
	setupTestHeap(t)
	n, err := ToNumber(True)
	require.NoError(t, err)
	assert.Equal(t, float64(1), n.AsFloat64())

	n, err = ToNumber(Undefined)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(n.AsFloat64()))

	n, err = ToNumber(Null)
	require.NoError(t, err)
	assert.Equal(t, float64(0), n.AsFloat64())
}

func TestStringToNumberRoundTrip(t *testing.T) {
	sh := setupTestHeap(t)
	for _, s := range []string{"0", "42", "-3.5", "  10  "} {
		sv := HeapValue(TagString, sh.Intern(s))
		n, err := ToNumber(sv)
		require.NoError(t, err)
		// ToString(ToNumber(ToString(v))) === ToString(v) when finite (spec §8.1).
		back, err := ToStringValue(n)
		require.NoError(t, err)
		n2, err := ToNumber(back)
		require.NoError(t, err)
		assert.Equal(t, n.AsFloat64(), n2.AsFloat64())
	}
}

func TestToInt32Wrapping(t *testing.T) {
	setupTestHeap(t)
	i, err := ToInt32(Float64(4294967296 + 5))
	require.NoError(t, err)
	assert.Equal(t, int32(5), i)

	i, err = ToInt32(Float64(math.NaN()))
	require.NoError(t, err)
	assert.Equal(t, int32(0), i)
}

func TestToLengthClamps(t *testing.T) {
	setupTestHeap(t)
	l, err := ToLength(Float64(-5))
	require.NoError(t, err)
	assert.Equal(t, int64(0), l)

	l, err = ToLength(Float64(math.Inf(1)))
	require.NoError(t, err)
	assert.Equal(t, int64(maxSafeInteger), l)
}

func TestToIndexRejectsNegative(t *testing.T) {
	setupTestHeap(t)
	_, err := ToIndex(Float64(-1))
	require.Error(t, err)
	var rangeErr *RangeError
	require.ErrorAs(t, err, &rangeErr)
}

func TestSameValueVsStrictEquals(t *testing.T) {
	setupTestHeap(t)
	nan := Float64(math.NaN())
	assert.True(t, SameValue(nan, nan))
	assert.False(t, StrictEquals(nan, nan))

	posZero, negZero := Float64(0), Float64(math.Copysign(0, -1))
	assert.True(t, StrictEquals(posZero, negZero))
	assert.False(t, SameValue(posZero, negZero))
	assert.True(t, SameValueZero(posZero, negZero))
}

func TestAbstractEqualsCoercion(t *testing.T) {
	sh := setupTestHeap(t)
	numStr := HeapValue(TagString, sh.Intern("1"))
	eq, err := AbstractEquals(Int32(1), numStr)
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = AbstractEquals(Null, Undefined)
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = AbstractEquals(Null, Int32(0))
	require.NoError(t, err)
	assert.False(t, eq)
}

func TestNumberNarrowing(t *testing.T) {
	setupTestHeap(t)
	v := Number(42)
	assert.Equal(t, TagInt32, v.Tag())

	v = Number(42.5)
	assert.Equal(t, TagFloat64, v.Tag())

	v = Number(math.Copysign(0, -1))
	assert.Equal(t, TagFloat64, v.Tag(), "-0 must not narrow into Int32")
}
