package esengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalArithmetic(t *testing.T) {
	ctx := New(HostHooks{})
	v, err := ctx.Eval("1 + 2 * 3")
	require.NoError(t, err)
	assert.True(t, v.IsNumber())
	assert.Equal(t, float64(7), v.Number())
}

func TestEvalString(t *testing.T) {
	ctx := New(HostHooks{})
	v, err := ctx.Eval(`"hello" + " " + "world"`)
	require.NoError(t, err)
	s, err := v.String()
	require.NoError(t, err)
	assert.Equal(t, "hello world", s)
}

func TestEvalUncaughtThrow(t *testing.T) {
	ctx := New(HostHooks{})
	_, err := ctx.Eval(`throw new TypeError("boom")`)
	require.Error(t, err)
	var evalErr *EvalError
	require.ErrorAs(t, err, &evalErr)
	assert.Contains(t, evalErr.Message, "boom")
}

func TestRegisterGlobal(t *testing.T) {
	ctx := New(HostHooks{})
	ctx.RegisterGlobal("greeting", ctx.String("hi"))
	v, err := ctx.Eval("greeting")
	require.NoError(t, err)
	s, err := v.String()
	require.NoError(t, err)
	assert.Equal(t, "hi", s)
}

func TestHostHooksNowIsHonored(t *testing.T) {
	fixed := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := New(HostHooks{Now: func() time.Time { return fixed }})
	assert.Equal(t, fixed, ctx.Engine().Now())
}

func TestNewFunctionRoundTrip(t *testing.T) {
	ctx := New(HostHooks{})
	called := false
	fn := ctx.NewFunction("double", func(this Value, args []Value) (Value, error) {
		called = true
		return ctx.Number(args[0].Number() * 2), nil
	})
	ctx.RegisterGlobal("double", fn.Value())

	v, err := ctx.Eval("double(21)")
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, float64(42), v.Number())
}

func TestObjectGetSet(t *testing.T) {
	ctx := New(HostHooks{})
	obj := ctx.NewObject()
	require.NoError(t, obj.Set("x", ctx.Number(5)))

	v, err := obj.Get("x")
	require.NoError(t, err)
	assert.Equal(t, float64(5), v.Number())

	ctx.RegisterGlobal("obj", obj.Value())
	evalV, err := ctx.Eval("obj.x")
	require.NoError(t, err)
	assert.Equal(t, float64(5), evalV.Number())
}

func TestCompileAndRunCompiled(t *testing.T) {
	ctx := New(HostHooks{})
	code, err := ctx.Compile("40 + 2", false)
	require.NoError(t, err)
	v, err := ctx.RunCompiled(code)
	require.NoError(t, err)
	assert.Equal(t, float64(42), v.Number())
}
