package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/stacker/pkg/value"
)

func run(t *testing.T, src string) *VM {
	t.Helper()
	m := New()
	require.NoError(t, m.Parse(src))
	require.NoError(t, m.Run())
	return m
}

func TestArithmetic(t *testing.T) {
	m := run(t, "1 2 +")
	assert.Equal(t, []value.Value{value.Int32(3)}, m.DataStack())
}

func TestArithmeticPromotesToFloat(t *testing.T) {
	m := run(t, "1 2.5 +")
	assert.Equal(t, []value.Value{value.Float32(3.5)}, m.DataStack())
}

func TestIntDivByZero(t *testing.T) {
	m := New()
	require.NoError(t, m.Parse("1 0 div"))
	err := m.Run()
	require.Error(t, err)
	var rt *RuntimeError
	require.ErrorAs(t, err, &rt)
	var dz *DivideByZeroError
	assert.ErrorAs(t, rt.Cause, &dz)
}

func TestDupThenPopIsNoOp(t *testing.T) {
	m := run(t, "1 2 3 dup pop")
	assert.Equal(t, []value.Value{value.Int32(1), value.Int32(2), value.Int32(3)}, m.DataStack())
}

func TestExchTwiceIsIdentity(t *testing.T) {
	m := run(t, "1 2 exch exch")
	assert.Equal(t, []value.Value{value.Int32(1), value.Int32(2)}, m.DataStack())
}

func TestIndex(t *testing.T) {
	m := run(t, "1 2 3 0 index")
	assert.Equal(t, []value.Value{value.Int32(1), value.Int32(2), value.Int32(3), value.Int32(3)}, m.DataStack())
}

func TestIndexOutOfRangeUnderflows(t *testing.T) {
	m := New()
	require.NoError(t, m.Parse("1 5 index"))
	err := m.Run()
	require.Error(t, err)
	var rt *RuntimeError
	require.ErrorAs(t, err, &rt)
	var su *StackUnderflowError
	assert.ErrorAs(t, rt.Cause, &su)
}

func TestIfTrueBranch(t *testing.T) {
	m := run(t, "{ 1 } { 10 } { 20 } if")
	assert.Equal(t, []value.Value{value.Int32(10)}, m.DataStack())
}

func TestIfFalseBranch(t *testing.T) {
	m := run(t, "{ 0 } { 10 } { 20 } if")
	assert.Equal(t, []value.Value{value.Int32(20)}, m.DataStack())
}

func TestForAccumulatesInductionVariable(t *testing.T) {
	m := run(t, "0 5 { } for")
	assert.Equal(t, []value.Value{
		value.Int32(0), value.Int32(1), value.Int32(2), value.Int32(3), value.Int32(4),
	}, m.DataStack())
}

func TestForEmptyRangeRunsZeroTimes(t *testing.T) {
	m := run(t, "3 3 { } for")
	assert.Empty(t, m.DataStack())
}

func TestDefThenLoad(t *testing.T) {
	m := run(t, "/x 42 def /x load")
	assert.Equal(t, []value.Value{value.Int32(42)}, m.DataStack())
}

func TestDefBindsToEnclosingFrameNotIfBranch(t *testing.T) {
	// def inside an if-true branch must bind in the enclosing root frame,
	// not the IfTrue state, so it's still visible once the if completes.
	m := run(t, "{ 1 } { /x 99 def } { } if /x load")
	assert.Equal(t, []value.Value{value.Int32(99)}, m.DataStack())
}

func TestUndefinedNameErrors(t *testing.T) {
	m := New()
	require.NoError(t, m.Parse("nope"))
	err := m.Run()
	require.Error(t, err)
	var rt *RuntimeError
	require.ErrorAs(t, err, &rt)
	var un *UndefinedNameError
	require.ErrorAs(t, rt.Cause, &un)
	assert.Equal(t, "nope", un.Name)
}

func TestPutsWritesToSink(t *testing.T) {
	m := New()
	var got []string
	m.SetPrintSink(func(s string) { got = append(got, s) })
	require.NoError(t, m.Parse("42 puts"))
	require.NoError(t, m.Run())
	assert.Equal(t, []string{"42"}, got)
}

func TestStepReturnsSpansForEachToken(t *testing.T) {
	m := New()
	require.NoError(t, m.Parse("1 2 +"))
	var spans []value.Span
	for {
		span, err := m.Step()
		require.NoError(t, err)
		if span == nil {
			break
		}
		spans = append(spans, *span)
	}
	// One span per token, then the root block's span for the step that
	// pops the finished root frame.
	require.Len(t, spans, 4)
	assert.Equal(t, value.Span{Start: 0, End: 1}, spans[0])
	assert.Equal(t, value.Span{Start: 2, End: 3}, spans[1])
	assert.Equal(t, value.Span{Start: 4, End: 5}, spans[2])
	assert.Equal(t, value.Span{Start: 0, End: 5}, spans[3])
}

func TestBlockGroupExampleFromEndToEnd(t *testing.T) {
	// "1 2 + { 3 4 }" — the `+` runs, the block is pushed as a Block value
	// without evaluating its contents.
	m := run(t, "1 2 + { 3 4 }")
	stack := m.DataStack()
	require.Len(t, stack, 2)
	assert.Equal(t, value.Int32(3), stack[0])
	assert.Equal(t, value.KindBlock, stack[1].Kind)
	require.Len(t, stack[1].Block.Elements, 2)
}

func TestAddNativeIsCallableAsAnOp(t *testing.T) {
	m := New()
	var called bool
	m.AddNative("double", func(h value.Host) error {
		called = true
		v, err := h.PopData()
		if err != nil {
			return err
		}
		n, err := v.AsInt()
		if err != nil {
			return err
		}
		h.PushData(value.Int32(n * 2))
		return nil
	})
	require.NoError(t, m.Parse("21 double"))
	require.NoError(t, m.Run())
	assert.True(t, called)
	assert.Equal(t, []value.Value{value.Int32(42)}, m.DataStack())
}

func TestTerminatedAndExecutionStack(t *testing.T) {
	m := New()
	require.NoError(t, m.Parse("{ 1 } { 2 } { 3 } if"))
	assert.False(t, m.Terminated())
	require.NoError(t, m.Run())
	assert.True(t, m.Terminated())
	assert.Empty(t, m.ExecutionStack())
}
