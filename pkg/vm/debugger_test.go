package vm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebuggerStepModeStopsAtEveryToken(t *testing.T) {
	m := New()
	require.NoError(t, m.Parse("1 2 +"))
	d := NewDebugger(m, nil)
	d.SetStepMode(true)

	// "step" at the pause before "1", then "quit" at the pause before "2",
	// so Run returns before the program finishes.
	err := d.Run(strings.NewReader("step\nquit\n"))
	require.NoError(t, err)
}

func TestDebuggerBreakpointPausesAtOffset(t *testing.T) {
	m := New()
	require.NoError(t, m.Parse("1 2 +"))
	d := NewDebugger(m, nil)
	d.AddBreakpoint(0)

	err := d.Run(strings.NewReader("continue\n"))
	require.NoError(t, err)
	assert.True(t, m.Terminated())
}

func TestDebuggerContinueRunsToCompletion(t *testing.T) {
	m := New()
	require.NoError(t, m.Parse("1 2 +"))
	d := NewDebugger(m, nil)
	require.NoError(t, d.Run(strings.NewReader("")))
	assert.True(t, m.Terminated())
}
