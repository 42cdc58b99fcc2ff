package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/esengine/internal/compiler/disasm"
)

func TestEvalCmdPrintsCompletionValue(t *testing.T) {
	cmd := newEvalCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, cmd.Flags().Set("eval", "20 + 22"))
	require.NoError(t, cmd.RunE(cmd, nil))
}

func TestRunCmdExecutesScriptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.js")
	require.NoError(t, os.WriteFile(path, []byte("var x = 1 + 1;"), 0o644))

	cmd := newRunCmd()
	require.NoError(t, cmd.RunE(cmd, []string{path}))
}

func TestDisasmCmdPrintsListing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.js")
	require.NoError(t, os.WriteFile(path, []byte("1 + 1;"), 0o644))

	cmd := newDisasmCmd()
	require.NoError(t, cmd.RunE(cmd, []string{path}))
}

func TestDisasmCmdDiffAgainstGolden(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "script.js")
	require.NoError(t, os.WriteFile(scriptPath, []byte("1 + 2;"), 0o644))

	cfg := loadConfig()
	ctx := newContext(cfg)
	code, err := ctx.Compile("1 + 1;", false)
	require.NoError(t, err)

	goldenPath := filepath.Join(dir, "golden.txt")
	require.NoError(t, os.WriteFile(goldenPath, []byte(disasm.Format(code)), 0o644))

	defer func() { flagDiffAgainst = "" }()

	cmd := newDisasmCmd()
	require.NoError(t, cmd.Flags().Set("diff", goldenPath))
	require.NoError(t, cmd.RunE(cmd, []string{scriptPath}))
}

func TestLoadConfigAppliesFlagOverrides(t *testing.T) {
	flagLogLevel = "debug"
	defer func() { flagLogLevel = "" }()

	cfg := loadConfig()
	assert.Equal(t, "debug", cfg.LogLevel)
}
