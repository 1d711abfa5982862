package compiler

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/stacker/pkg/bytecode"
)

func TestCompileThenEncodeDecodeRunsTheSameProgram(t *testing.T) {
	prog, err := Compile("1 2 +")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, bytecode.Encode(prog, &buf))

	decoded, err := bytecode.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, prog.Root, decoded.Root)
}

func TestCompileSurfacesParseErrors(t *testing.T) {
	_, err := Compile("1 2 }")
	assert.Error(t, err)
}

func TestDisassembleListsElementsWithSpans(t *testing.T) {
	prog, err := Compile("1 2 +")
	require.NoError(t, err)
	out := Disassemble(prog)
	assert.Contains(t, out, "Int")
	assert.Contains(t, out, "Op")
	assert.Contains(t, out, "[0,1)")
}

func TestDisassembleIndentsNestedBlocks(t *testing.T) {
	prog, err := Compile("{ 1 }")
	require.NoError(t, err)
	out := Disassemble(prog)
	assert.Contains(t, out, "\n  block [0,5)")
}
