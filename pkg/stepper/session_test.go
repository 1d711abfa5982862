package stepper

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionHasStableUniqueID(t *testing.T) {
	a := NewSession()
	b := NewSession()
	assert.NotEqual(t, a.ID, b.ID)
}

func TestStepReturnsSpanJSON(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Parse("1 2 +"))

	raw, err := s.Step()
	require.NoError(t, err)
	var res StepResult
	require.NoError(t, json.Unmarshal(raw, &res))
	assert.Equal(t, StepResult{Start: 0, End: 1}, res)
}

func TestStepReportsDoneAtTermination(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Parse("1"))

	// The first step runs "1"; the second pops the finished root frame.
	_, err := s.Step()
	require.NoError(t, err)
	_, err = s.Step()
	require.NoError(t, err)
	assert.True(t, s.Terminated())

	raw, err := s.Step()
	require.NoError(t, err)
	var res StepResult
	require.NoError(t, json.Unmarshal(raw, &res))
	assert.True(t, res.Done)
}

func TestGetStackReturnsPrintableForms(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Parse("1 2 +"))
	require.NoError(t, runAll(s))

	raw, err := s.GetStack()
	require.NoError(t, err)
	var stack []string
	require.NoError(t, json.Unmarshal(raw, &stack))
	assert.Equal(t, []string{"3"}, stack)
}

func TestGetExecStackEmptyAfterTermination(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Parse("/x 5 def"))
	require.NoError(t, runAll(s))

	raw, err := s.GetExecStack()
	require.NoError(t, err)
	var frames []execFrame
	require.NoError(t, json.Unmarshal(raw, &frames))
	assert.Empty(t, frames) // program terminated, no frames left
}

func runAll(s *Session) error {
	for {
		if s.Terminated() {
			return nil
		}
		if _, err := s.Step(); err != nil {
			return err
		}
	}
}
