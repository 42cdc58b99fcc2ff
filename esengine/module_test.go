package esengine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/esengine/internal/frontend/treesitter"
	"github.com/oxhq/esengine/internal/loader"
)

func TestParseModuleImportsNativeTemporalModule(t *testing.T) {
	fixed := time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC)
	ctx := New(HostHooks{Now: func() time.Time { return fixed }})

	dir := t.TempDir()
	entryPath := filepath.Join(dir, "main.js")
	source := `
		import Temporal from "temporal";
		export const instant = Temporal.Now.instant();
	`
	require.NoError(t, os.WriteFile(entryPath, []byte(source), 0o644))

	fsLoader := loader.NewFSLoader(ctx.Engine(), dir, treesitter.New())

	mod, err := ctx.ParseModule(entryPath, source)
	require.NoError(t, err)

	done := make(chan error, 1)
	mod.Load(fsLoader, func(e error) { done <- e })
	require.NoError(t, <-done)

	require.NoError(t, mod.Link())

	mod.Evaluate()

	ns := mod.Namespace()
	obj, ok := ns.AsObject()
	require.True(t, ok)

	v, err := obj.Get("instant")
	require.NoError(t, err)
	s, err := v.String()
	require.NoError(t, err)
	assert.Equal(t, fixed.UTC().Format(time.RFC3339Nano), s)
}
