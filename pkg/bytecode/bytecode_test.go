package bytecode

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/stacker/pkg/parser"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	root, err := parser.New("1 2 + { /x 3 def } 0 5 { } for").Parse()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(Compile(root), &buf))

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, root, decoded.Root)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte{0, 0, 0, 0, 1, 0, 0, 0}))
	assert.Error(t, err)
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeHeader(&buf))
	buf.Truncate(4)
	buf.Write([]byte{99, 0, 0, 0})
	_, err := Decode(&buf)
	assert.Error(t, err)
}

func TestConstantPoolDeduplicates(t *testing.T) {
	root, err := parser.New("foo foo foo").Parse()
	require.NoError(t, err)
	pool := collectConstants(root)
	assert.Equal(t, []string{"foo"}, pool)
}
