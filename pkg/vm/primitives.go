package vm

import (
	"math"

	"github.com/kristofer/stacker/pkg/value"
)

// installBuiltins registers the fixed operator set (spec.md §5) into a
// fresh VM's globals. Every native pops all of its operands before pushing
// any result, so a failing operator never leaves a partial result on the
// stack; operands it popped before failing stay popped.
func installBuiltins(vm *VM) {
	vm.AddNative("+", arith("+", func(a, b int32) int32 { return a + b }, func(a, b float32) float32 { return a + b }))
	vm.AddNative("-", arith("-", func(a, b int32) int32 { return a - b }, func(a, b float32) float32 { return a - b }))
	vm.AddNative("*", arith("*", func(a, b int32) int32 { return a * b }, func(a, b float32) float32 { return a * b }))
	vm.AddNative("div", opDiv)
	vm.AddNative("<", opLess)
	vm.AddNative("and", logic("and", func(a, b bool) bool { return a && b }))
	vm.AddNative("or", logic("or", func(a, b bool) bool { return a || b }))

	vm.AddNative("pop", opPop)
	vm.AddNative("dup", opDup)
	vm.AddNative("exch", opExch)
	vm.AddNative("index", opIndex)

	vm.AddNative("sin", unaryFloat("sin", func(f float32) float32 { return float32(math.Sin(float64(f))) }))
	vm.AddNative("cos", unaryFloat("cos", func(f float32) float32 { return float32(math.Cos(float64(f))) }))
	vm.AddNative("pi", func(h value.Host) error {
		h.PushData(value.Float32(float32(math.Pi)))
		return nil
	})

	vm.AddNative("if", opIf)
	vm.AddNative("for", opFor)
	vm.AddNative("def", opDef)
	vm.AddNative("load", opLoad)
	vm.AddNative("puts", opPuts)
}

// arith builds a native for a binary operator that works on Int when both
// operands are Int (applying intOp, with int32 wraparound and no overflow
// check, per the Open-Question resolution in SPEC_FULL.md) and otherwise
// promotes both operands to float32 and applies floatOp.
func arith(name string, intOp func(a, b int32) int32, floatOp func(a, b float32) float32) func(value.Host) error {
	return func(h value.Host) error {
		rhs, err := h.PopData()
		if err != nil {
			return withOp(err, name)
		}
		lhs, err := h.PopData()
		if err != nil {
			return withOp(err, name)
		}
		if lhs.Kind == value.KindInt && rhs.Kind == value.KindInt {
			h.PushData(value.Int32(intOp(lhs.Int, rhs.Int)))
			return nil
		}
		a, err := lhs.AsNum()
		if err != nil {
			return err
		}
		b, err := rhs.AsNum()
		if err != nil {
			return err
		}
		h.PushData(value.Float32(floatOp(a, b)))
		return nil
	}
}

// opDiv divides: integer division when both operands are Int (failing with
// DivideByZeroError on a zero divisor), else float division.
func opDiv(h value.Host) error {
	rhs, err := h.PopData()
	if err != nil {
		return withOp(err, "div")
	}
	lhs, err := h.PopData()
	if err != nil {
		return withOp(err, "div")
	}
	if lhs.Kind == value.KindInt && rhs.Kind == value.KindInt {
		if rhs.Int == 0 {
			return &DivideByZeroError{}
		}
		h.PushData(value.Int32(lhs.Int / rhs.Int))
		return nil
	}
	a, err := lhs.AsNum()
	if err != nil {
		return err
	}
	b, err := rhs.AsNum()
	if err != nil {
		return err
	}
	h.PushData(value.Float32(a / b))
	return nil
}

// opLess compares via float promotion, pushing Int(1) or Int(0).
func opLess(h value.Host) error {
	rhs, err := h.PopData()
	if err != nil {
		return withOp(err, "<")
	}
	lhs, err := h.PopData()
	if err != nil {
		return withOp(err, "<")
	}
	a, err := lhs.AsNum()
	if err != nil {
		return err
	}
	b, err := rhs.AsNum()
	if err != nil {
		return err
	}
	if a < b {
		h.PushData(value.Int32(1))
	} else {
		h.PushData(value.Int32(0))
	}
	return nil
}

func logic(name string, op func(a, b bool) bool) func(value.Host) error {
	return func(h value.Host) error {
		rhs, err := h.PopData()
		if err != nil {
			return withOp(err, name)
		}
		lhs, err := h.PopData()
		if err != nil {
			return withOp(err, name)
		}
		a, err := lhs.AsBool()
		if err != nil {
			return err
		}
		b, err := rhs.AsBool()
		if err != nil {
			return err
		}
		if op(a, b) {
			h.PushData(value.Int32(1))
		} else {
			h.PushData(value.Int32(0))
		}
		return nil
	}
}

func unaryFloat(name string, op func(float32) float32) func(value.Host) error {
	return func(h value.Host) error {
		v, err := h.PopData()
		if err != nil {
			return withOp(err, name)
		}
		f, err := v.AsNum()
		if err != nil {
			return err
		}
		h.PushData(value.Float32(op(f)))
		return nil
	}
}

func opPop(h value.Host) error {
	_, err := h.PopData()
	return withOp(err, "pop")
}

func opDup(h value.Host) error {
	v, err := h.PeekData(0)
	if err != nil {
		return withOp(err, "dup")
	}
	h.PushData(v)
	return nil
}

func opExch(h value.Host) error {
	top, err := h.PopData()
	if err != nil {
		return withOp(err, "exch")
	}
	below, err := h.PopData()
	if err != nil {
		return withOp(err, "exch")
	}
	h.PushData(top)
	h.PushData(below)
	return nil
}

// opIndex pops n and pushes a copy of the element n below the new top of
// stack (0 = the element now on top), failing with StackUnderflow if n is
// out of range.
func opIndex(h value.Host) error {
	nv, err := h.PopData()
	if err != nil {
		return withOp(err, "index")
	}
	n, err := nv.AsInt()
	if err != nil {
		return err
	}
	if n < 0 {
		return &StackUnderflowError{Op: "index"}
	}
	v, err := h.PeekData(int(n))
	if err != nil {
		return withOp(err, "index")
	}
	h.PushData(v)
	return nil
}

// opIf pops false-branch, true-branch, and condition (in that order, the
// reverse of their source order `cond { true } { false } if`) and installs
// an IfCond control state.
func opIf(h value.Host) error {
	falseV, err := h.PopData()
	if err != nil {
		return withOp(err, "if")
	}
	trueV, err := h.PopData()
	if err != nil {
		return withOp(err, "if")
	}
	condV, err := h.PopData()
	if err != nil {
		return withOp(err, "if")
	}
	falseBlock, err := falseV.ToBlock()
	if err != nil {
		return err
	}
	trueBlock, err := trueV.ToBlock()
	if err != nil {
		return err
	}
	condBlock, err := condV.ToBlock()
	if err != nil {
		return err
	}
	return h.PushIf(condBlock, trueBlock, falseBlock)
}

// opFor pops body, end, and start (in that order, the reverse of their
// source order `start end { body } for`) and installs a For control state.
func opFor(h value.Host) error {
	bodyV, err := h.PopData()
	if err != nil {
		return withOp(err, "for")
	}
	endV, err := h.PopData()
	if err != nil {
		return withOp(err, "for")
	}
	startV, err := h.PopData()
	if err != nil {
		return withOp(err, "for")
	}
	body, err := bodyV.ToBlock()
	if err != nil {
		return err
	}
	end, err := endV.AsInt()
	if err != nil {
		return err
	}
	start, err := startV.AsInt()
	if err != nil {
		return err
	}
	return h.PushFor(start, end, body)
}

// opDef pops a value and a symbol (in that order: `/name value def`), and
// binds the value's evaluated form to the symbol in the nearest enclosing
// linear frame.
func opDef(h value.Host) error {
	v, err := h.PopData()
	if err != nil {
		return withOp(err, "def")
	}
	if err := h.EvalValue(v); err != nil {
		return err
	}
	resolved, err := h.PopData()
	if err != nil {
		return withOp(err, "def")
	}
	symV, err := h.PopData()
	if err != nil {
		return withOp(err, "def")
	}
	sym, err := symV.AsSym()
	if err != nil {
		return err
	}
	return h.DefineLocal(sym, resolved)
}

// opLoad pops a symbol and pushes its resolved value.
func opLoad(h value.Host) error {
	symV, err := h.PopData()
	if err != nil {
		return withOp(err, "load")
	}
	sym, err := symV.AsSym()
	if err != nil {
		return err
	}
	v, ok := h.Lookup(sym)
	if !ok {
		return &UndefinedNameError{Name: sym}
	}
	h.PushData(v)
	return nil
}

func opPuts(h value.Host) error {
	v, err := h.PopData()
	if err != nil {
		return withOp(err, "puts")
	}
	h.Print(v.String())
	return nil
}
