package disasm_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/esengine/internal/compiler"
	"github.com/oxhq/esengine/internal/compiler/disasm"
	"github.com/oxhq/esengine/internal/frontend"
	"github.com/oxhq/esengine/internal/frontend/treesitter"
)

func compile(t *testing.T, source string) *compiler.CodeBlock {
	t.Helper()
	p := treesitter.New()
	prog, errs := p.Parse(source, frontend.Options{})
	require.Empty(t, errs)
	code, diags := compiler.Compile(prog)
	require.Empty(t, diags)
	return code
}

func TestFormatListsOpcodesAndConstants(t *testing.T) {
	code := compile(t, `"abc" + 1;`)
	listing := disasm.Format(code)

	assert.Contains(t, listing, "function")
	assert.Contains(t, listing, "\"abc\"")
	assert.True(t, strings.Contains(listing, "Add") || strings.Contains(listing, "PushConst"),
		"expected to see at least one recognizable opcode name in:\n%s", listing)
}

func TestFormatRecursesIntoNestedFunctions(t *testing.T) {
	code := compile(t, `function inner() { return 1; } inner();`)
	listing := disasm.Format(code)
	assert.Contains(t, listing, "function inner")
}

func TestDiffNoDifference(t *testing.T) {
	code := compile(t, "1 + 1;")
	listing := disasm.Format(code)

	out, err := disasm.Diff("a.txt", listing, "b.txt", listing)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDiffReportsChange(t *testing.T) {
	before := disasm.Format(compile(t, "1 + 1;"))
	after := disasm.Format(compile(t, "1 + 2;"))

	out, err := disasm.Diff("before.txt", before, "after.txt", after)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.Contains(t, out, "before.txt")
	assert.Contains(t, out, "after.txt")
}
