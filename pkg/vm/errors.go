// Package vm — error kinds and stack-trace formatting (spec.md §4.8, §7).
package vm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kristofer/stacker/pkg/value"
)

// UndefinedNameError reports a lookup miss during Op resolution or `load`.
type UndefinedNameError struct {
	Name string
}

func (e *UndefinedNameError) Error() string {
	return fmt.Sprintf("undefined name: %q", e.Name)
}

// StackUnderflowError reports an operator that needed more data-stack
// items than were available. Op is filled in by the caller that knows
// which built-in failed; a zero value means the underflow surfaced before
// the caller could attribute it.
type StackUnderflowError struct {
	Op string
}

func (e *StackUnderflowError) Error() string {
	if e.Op == "" {
		return "stack underflow"
	}
	return fmt.Sprintf("stack underflow in %q", e.Op)
}

// DivideByZeroError reports integer `div` with a zero divisor.
type DivideByZeroError struct{}

func (e *DivideByZeroError) Error() string { return "divide by zero" }

// NoEnclosingFrameError reports `def` invoked with no enclosing Frame
// state on the execution stack.
type NoEnclosingFrameError struct{}

func (e *NoEnclosingFrameError) Error() string { return "def: no enclosing frame" }

// withOp attaches op to err if it's a *StackUnderflowError, for operators
// that want the diagnostic to name them specifically.
func withOp(err error, op string) error {
	if su, ok := err.(*StackUnderflowError); ok && su.Op == "" {
		su.Op = op
	}
	return err
}

// RuntimeError is the error Step/Run return on operator failure: the
// underlying cause plus a formatted trace of the execution stack at the
// moment of failure.
type RuntimeError struct {
	Cause error
	Trace string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s\n%s", e.Cause.Error(), e.Trace)
}

func (e *RuntimeError) Unwrap() error { return e.Cause }

// wrapError attaches the current execution-stack trace to err.
func (vm *VM) wrapError(err error) error {
	if err == nil {
		return nil
	}
	if _, already := err.(*RuntimeError); already {
		return err
	}
	return &RuntimeError{Cause: err, Trace: vm.FormatTrace()}
}

// FormatTrace renders every ExecState on the execution stack, top to
// bottom, as one line each: its kind and frame name, its locals as
// `key: printable`, and the remaining (unexecuted) block contents.
func (vm *VM) FormatTrace() string {
	views := vm.ExecutionStack()
	if len(views) == 0 {
		return "  (no active frames)"
	}
	var b strings.Builder
	for _, v := range views {
		fmt.Fprintf(&b, "  at %s %q locals={%s} remaining=[%s]\n",
			v.Kind, v.Name, formatLocals(v.Locals), formatRemaining(v.Remaining))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatLocals(locals map[string]value.Value) string {
	if len(locals) == 0 {
		return ""
	}
	keys := make([]string, 0, len(locals))
	for k := range locals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, locals[k].String())
	}
	return strings.Join(parts, ", ")
}

func formatRemaining(remaining []value.SpannedValue) string {
	parts := make([]string, len(remaining))
	for i, sv := range remaining {
		parts[i] = sv.Value.String()
	}
	return strings.Join(parts, " ")
}
