package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/esengine/internal/builtins"
	"github.com/oxhq/esengine/internal/frontend"
	"github.com/oxhq/esengine/internal/frontend/treesitter"
	"github.com/oxhq/esengine/internal/module"
	"github.com/oxhq/esengine/internal/value"
	"github.com/oxhq/esengine/internal/vm"
)

func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func loadSync(t *testing.T, l *FSLoader, referrer *module.Record, specifier string) (*module.Record, error) {
	t.Helper()
	var rec *module.Record
	var loadErr error
	called := false
	l.Load(referrer, specifier, func(r *module.Record, err error) {
		rec, loadErr = r, err
		called = true
	})
	require.True(t, called, "FSLoader.Load must call done synchronously")
	return rec, loadErr
}

// recordAt parses path with the real tree-sitter front end and builds
// its Record directly, standing in for the entry module an embedder
// would normally construct via module.Parse before driving Load/Link/
// Evaluate itself.
func recordAt(t *testing.T, path string) *module.Record {
	t.Helper()
	src, err := os.ReadFile(path)
	require.NoError(t, err)
	prog, errs := treesitter.New().Parse(string(src), frontend.Options{Module: true})
	require.Empty(t, errs)
	rec, errs := module.NewRecord(path, string(src), prog)
	require.Empty(t, errs)
	return rec
}

func TestFSLoaderResolvesRelativeSpecifierWithExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "util.js", "export const one = 1;")
	entryPath := writeFile(t, dir, "main.js", `import { one } from "./util";`)

	eng := vm.NewEngine(0)
	l := NewFSLoader(eng, dir, treesitter.New())
	referrer := recordAt(t, entryPath)

	rec, err := loadSync(t, l, referrer, "./util")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, filepath.Join(dir, "util.js"), rec.Specifier)

	rec2, err := loadSync(t, l, referrer, "./util")
	require.NoError(t, err)
	assert.Same(t, rec, rec2, "repeated loads of the same specifier must return the same Record")
}

func TestFSLoaderResolvesDirectoryIndex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib/index.js", "export const value = 42;")
	entryPath := writeFile(t, dir, "main.js", `import { value } from "./lib";`)

	eng := vm.NewEngine(0)
	l := NewFSLoader(eng, dir, treesitter.New())
	referrer := recordAt(t, entryPath)

	rec, err := loadSync(t, l, referrer, "./lib")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lib", "index.js"), rec.Specifier)
}

func TestFSLoaderRejectsEscapingRoot(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sandbox")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	writeFile(t, dir, "secret.js", "export const leak = 1;")
	entryPath := writeFile(t, sub, "main.js", "")

	eng := vm.NewEngine(0)
	l := NewFSLoader(eng, sub, treesitter.New())
	referrer := recordAt(t, entryPath)

	_, err := loadSync(t, l, referrer, "../secret")
	require.Error(t, err)
}

func TestFSLoaderRejectsBareSpecifierUnlessRegistered(t *testing.T) {
	dir := t.TempDir()
	entryPath := writeFile(t, dir, "main.js", "")
	eng := vm.NewEngine(0)
	l := NewFSLoader(eng, dir, treesitter.New())
	referrer := recordAt(t, entryPath)

	_, err := loadSync(t, l, referrer, "not-a-registered-module")
	require.Error(t, err)
}

func TestFSLoaderResolvesRegisteredNativeModule(t *testing.T) {
	const name = "loader-test-native-module"
	builtins.Register(name, func(eng *vm.Engine) map[string]value.Value {
		return map[string]value.Value{"ping": value.Int32(1)}
	})

	dir := t.TempDir()
	eng := vm.NewEngine(0)
	l := NewFSLoader(eng, dir, treesitter.New())

	rec, err := loadSync(t, l, nil, name)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, module.Evaluated, rec.State)
}

func TestFSLoaderExcludeGlobWinsOverInclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/allowed.js", "export const ok = 1;")
	writeFile(t, dir, "src/secret.internal.js", "export const nope = 1;")
	entryPath := writeFile(t, dir, "main.js", "")

	eng := vm.NewEngine(0)
	l := NewFSLoader(eng, dir, treesitter.New())
	l.Include = []string{"src/**"}
	l.Exclude = []string{"**/*.internal.js"}
	referrer := recordAt(t, entryPath)

	_, err := loadSync(t, l, referrer, "./src/allowed")
	require.NoError(t, err)

	_, err = loadSync(t, l, referrer, "./src/secret.internal.js")
	require.Error(t, err)
}
