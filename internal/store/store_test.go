package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/esengine/internal/compiler"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{Dialect: DialectSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleCode() *compiler.CodeBlock {
	return &compiler.CodeBlock{
		Name:       "script",
		Bytecode:   []byte{byte(compiler.OpPushUndefined), byte(compiler.OpReturn)},
		ParamCount: 0,
		Length:     0,
		Constants: []compiler.Constant{
			{Kind: compiler.ConstValue, IsString: true, Str: "hi"},
		},
		SourceMap: map[int]int{0: 0, 1: 1},
	}
}

func TestStoreGetMiss(t *testing.T) {
	s := openMemory(t)
	_, ok, err := s.Get("source that was never cached")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorePutGetRoundTrip(t *testing.T) {
	s := openMemory(t)
	source := "1 + 1"
	code := sampleCode()

	require.NoError(t, s.Put(source, code))

	got, ok, err := s.Get(source)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, code.Name, got.Name)
	assert.Equal(t, code.Bytecode, got.Bytecode)
	assert.Equal(t, code.Constants[0].Str, got.Constants[0].Str)
	assert.Equal(t, code.SourceMap, got.SourceMap)
}

func TestStorePutOverwritesExisting(t *testing.T) {
	s := openMemory(t)
	source := "1 + 1"

	require.NoError(t, s.Put(source, sampleCode()))

	updated := sampleCode()
	updated.Name = "updated"
	require.NoError(t, s.Put(source, updated))

	got, ok, err := s.Get(source)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "updated", got.Name)
}

func TestStoreDelete(t *testing.T) {
	s := openMemory(t)
	source := "1 + 1"
	require.NoError(t, s.Put(source, sampleCode()))

	require.NoError(t, s.Delete(source))

	_, ok, err := s.Get(source)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreEncryptedRoundTrip(t *testing.T) {
	s, err := Open(Options{Dialect: DialectSQLite, DSN: ":memory:", MasterKey: "correct horse battery staple"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	source := "encrypted script"
	code := sampleCode()
	require.NoError(t, s.Put(source, code))

	got, ok, err := s.Get(source)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, code.Name, got.Name)
}

func TestHashSourceIsStableAndContentAddressed(t *testing.T) {
	a := HashSource("const x = 1;")
	b := HashSource("const x = 1;")
	c := HashSource("const x = 2;")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
