package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestRunFileExecutesSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.stk")
	require.NoError(t, os.WriteFile(path, []byte("1 2 +"), 0o644))

	require.NoError(t, runFile(discardLogger(), path))
}

func TestRunFilePropagatesParseErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.stk")
	require.NoError(t, os.WriteFile(path, []byte("1 2 }"), 0o644))

	assert.Error(t, runFile(discardLogger(), path))
}

func TestCompileThenRunCompiledFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "prog.stk")
	require.NoError(t, os.WriteFile(src, []byte("1 2 +"), 0o644))

	require.NoError(t, compileFile(discardLogger(), src, ""))

	compiled := defaultCompiledName(src)
	_, err := os.Stat(compiled)
	require.NoError(t, err)

	require.NoError(t, runFile(discardLogger(), compiled))
}

func TestDisassembleFilePrintsListing(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "prog.stk")
	out := filepath.Join(dir, "prog.stkc")
	require.NoError(t, os.WriteFile(src, []byte("1 2 +"), 0o644))
	require.NoError(t, compileFile(discardLogger(), src, out))

	require.NoError(t, disassembleFile(out))
}
