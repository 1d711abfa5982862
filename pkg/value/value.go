// Package value defines the tagged value variants that flow through the
// stacker interpreter: integers, floats, operator references, symbols,
// nested code blocks, and host-registered natives.
//
// A Value never outlives its owning structure by reference alone — it is
// always copied by assignment. Blocks are shared by their *Block pointer,
// so cloning a Block value is cheap and the block graph stays a tree:
// blocks contain values, values may
// contain blocks, but nothing points back up.
package value

import (
	"fmt"
	"strconv"
)

// Kind tags which variant a Value holds.
type Kind int

const (
	KindInt Kind = iota
	KindNum
	KindOp
	KindSym
	KindBlock
	KindNative
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "Int"
	case KindNum:
		return "Num"
	case KindOp:
		return "Op"
	case KindSym:
		return "Sym"
	case KindBlock:
		return "Block"
	case KindNative:
		return "Native"
	default:
		return "Unknown"
	}
}

// Native is an opaque handle to a built-in or host-registered procedure.
// Equality is by identity of the handle, never by comparing functions.
type Native struct {
	Name string
	cell *nativeCell
}

// nativeCell is the shared identity behind a Native. Two Natives compare
// equal only if they share a cell, so cloning a Native (which Go does by
// copying the struct, cell pointer included) never breaks identity.
type nativeCell struct {
	fn func(Host) error
}

// NewNative wraps fn as a Native with its own identity. fn receives the Host
// it runs against rather than a concrete *vm.VM, so this package never needs
// to import pkg/vm.
func NewNative(name string, fn func(Host) error) Native {
	return Native{Name: name, cell: &nativeCell{fn: fn}}
}

// Call invokes the wrapped function against host.
func (n Native) Call(host Host) error { return n.cell.fn(host) }

// Equal reports whether two Natives refer to the same underlying callable.
func (n Native) Equal(o Native) bool { return n.cell == o.cell }

// Host is the surface a Native needs from the VM to do its work: manipulate
// the data stack, push control states for `if`/`for`, resolve and define
// names, and emit output. It is defined here rather than imported from
// pkg/vm to avoid a value<->vm import cycle; *vm.VM satisfies it.
type Host interface {
	// PushData pushes v onto the data stack.
	PushData(v Value)
	// PopData pops the top of the data stack, failing with StackUnderflow.
	PopData() (Value, error)
	// PeekData returns the element fromTop below the current top (0 = top)
	// without popping, failing with StackUnderflow if out of range.
	PeekData(fromTop int) (Value, error)
	// DataLen reports the current data stack depth.
	DataLen() int
	// EvalValue evaluates v the way a fetched token would be evaluated:
	// Op resolves and dispatches, everything else pushes unchanged.
	EvalValue(v Value) error
	// Lookup resolves name via the locals-then-globals rule.
	Lookup(name string) (Value, bool)
	// DefineLocal binds sym to v in the nearest enclosing linear Frame,
	// failing with NoEnclosingFrame if none exists.
	DefineLocal(sym string, v Value) error
	// PushIf pushes an IfCond control state evaluating cond, selecting
	// trueBranch or falseBranch once cond's result is known.
	PushIf(cond, trueBranch, falseBranch *Block) error
	// PushFor pushes a For control state iterating body over [start, end).
	PushFor(start, end int32, body *Block) error
	// Print emits s through the host's print sink (the `puts` target).
	Print(s string)
}

// Span is a byte-offset range [Start, End) into the original source.
type Span struct {
	Start int
	End   int
}

// Block is an ordered sequence of spanned values together with the span of
// the enclosing `{ ... }` pair that produced it.
type Block struct {
	Span     Span
	Elements []SpannedValue
}

// Value is a tagged variant. Exactly one of the typed fields is meaningful,
// selected by Kind; zero value is Int(0).
type Value struct {
	Kind   Kind
	Int    int32
	Num    float32
	Name   string // Op or Sym text
	Block  *Block
	Native Native
}

// Int32 constructs an Int value.
func Int32(i int32) Value { return Value{Kind: KindInt, Int: i} }

// Float32 constructs a Num value.
func Float32(f float32) Value { return Value{Kind: KindNum, Num: f} }

// Op constructs an operator reference.
func Op(name string) Value { return Value{Kind: KindOp, Name: name} }

// Sym constructs a symbol literal.
func Sym(name string) Value { return Value{Kind: KindSym, Name: name} }

// NewBlock constructs a Block value.
func NewBlock(b *Block) Value { return Value{Kind: KindBlock, Block: b} }

// NativeValue wraps a Native as a Value.
func NativeValue(n Native) Value { return Value{Kind: KindNative, Native: n} }

// TypeMismatchError reports a coercion attempted on the wrong variant.
type TypeMismatchError struct {
	Expected string
	Got      Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Got)
}

// AsInt coerces to an int32: Int passes through, Num truncates toward zero.
func (v Value) AsInt() (int32, error) {
	switch v.Kind {
	case KindInt:
		return v.Int, nil
	case KindNum:
		return int32(v.Num), nil
	default:
		return 0, &TypeMismatchError{Expected: "Int or Num", Got: v.Kind}
	}
}

// AsNum coerces to a float32: Int promotes, Num passes through.
func (v Value) AsNum() (float32, error) {
	switch v.Kind {
	case KindInt:
		return float32(v.Int), nil
	case KindNum:
		return v.Num, nil
	default:
		return 0, &TypeMismatchError{Expected: "Int or Num", Got: v.Kind}
	}
}

// AsBool coerces via non-zero integer truth: true when AsInt yields a
// nonzero value, so a Num that truncates to 0 (such as 0.5) is false.
func (v Value) AsBool() (bool, error) {
	i, err := v.AsInt()
	if err != nil {
		return false, err
	}
	return i != 0, nil
}

// ToBlock requires a Block variant.
func (v Value) ToBlock() (*Block, error) {
	if v.Kind != KindBlock {
		return nil, &TypeMismatchError{Expected: "Block", Got: v.Kind}
	}
	return v.Block, nil
}

// AsSym requires a Sym variant and returns its name.
func (v Value) AsSym() (string, error) {
	if v.Kind != KindSym {
		return "", &TypeMismatchError{Expected: "Sym", Got: v.Kind}
	}
	return v.Name, nil
}

// String renders the printable form used by `puts` and diagnostics.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(int64(v.Int), 10)
	case KindNum:
		return strconv.FormatFloat(float64(v.Num), 'g', -1, 32)
	case KindOp, KindSym:
		return v.Name
	case KindBlock:
		return fmt.Sprintf("<Block [%d,%d]>", v.Block.Span.Start, v.Block.Span.End)
	case KindNative:
		return "<Native>"
	default:
		return "<?>"
	}
}

// SpannedValue pairs a Value with the byte-offset span of the token (or
// block) that produced it.
type SpannedValue struct {
	Value Value
	Span  Span
}
