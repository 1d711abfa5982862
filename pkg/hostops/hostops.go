// Package hostops registers an optional set of drawing natives against a
// host-supplied Canvas, the way an embedder exposes a 2D canvas to
// stacker programs without the interpreter core knowing anything about
// graphics. Nothing in pkg/vm imports this package; an embedder opts in
// by calling Register itself.
package hostops

import (
	"fmt"

	"github.com/kristofer/stacker/pkg/value"
)

// Canvas is the drawing surface an embedder provides. Each method mirrors
// one of the natives registered by Register, in the argument order its
// stack-popping convention produces.
type Canvas interface {
	Rectangle(x0, y0, x1, y1 float32)
	SetFillStyle(r, g, b float32)
	SetStrokeStyle(r, g, b float32)
	BeginPath()
	MoveTo(x, y float32)
	LineTo(x, y float32)
	Stroke()
	Rotate(angle float32)
	Translate(x, y float32)
	Save()
	Restore()
}

// VM is the subset of *vm.VM that Register needs: AddNative. Spelled out
// as an interface so this package doesn't import pkg/vm just for a
// one-method dependency, keeping the embedding surface symmetric with
// value.Host.
type VM interface {
	AddNative(name string, fn func(value.Host) error)
}

// Register installs the drawing native set on vm, each backed by canvas.
// Operand order matches original_source/wasm/src/wasm_imports.rs: natives
// pop their float arguments in reverse of how a caller would naturally
// write them, since the last-pushed argument is popped first.
func Register(vm VM, canvas Canvas) {
	vm.AddNative("rectangle", rectangle(canvas))
	vm.AddNative("set_fill_style", setFillStyle(canvas))
	vm.AddNative("set_stroke_style", setStrokeStyle(canvas))
	vm.AddNative("begin_path", nullary(canvas.BeginPath))
	vm.AddNative("move_to", point(canvas.MoveTo))
	vm.AddNative("line_to", point(canvas.LineTo))
	vm.AddNative("stroke", nullary(canvas.Stroke))
	vm.AddNative("rotate", rotate(canvas))
	vm.AddNative("translate", point(canvas.Translate))
	vm.AddNative("save", nullary(canvas.Save))
	vm.AddNative("restore", nullary(canvas.Restore))
}

func popFloat(h value.Host, op string) (float32, error) {
	v, err := h.PopData()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return v.AsNum()
}

func nullary(fn func()) func(value.Host) error {
	return func(value.Host) error {
		fn()
		return nil
	}
}

// point pops y then x (x was pushed first) and calls fn(x, y).
func point(fn func(x, y float32)) func(value.Host) error {
	return func(h value.Host) error {
		y, err := popFloat(h, "point")
		if err != nil {
			return err
		}
		x, err := popFloat(h, "point")
		if err != nil {
			return err
		}
		fn(x, y)
		return nil
	}
}

// rectangle pops y1, x1, y0, x0 in that order.
func rectangle(canvas Canvas) func(value.Host) error {
	return func(h value.Host) error {
		y1, err := popFloat(h, "rectangle")
		if err != nil {
			return err
		}
		x1, err := popFloat(h, "rectangle")
		if err != nil {
			return err
		}
		y0, err := popFloat(h, "rectangle")
		if err != nil {
			return err
		}
		x0, err := popFloat(h, "rectangle")
		if err != nil {
			return err
		}
		canvas.Rectangle(x0, y0, x1, y1)
		return nil
	}
}

// popColor pops b, g, r in that order (r was pushed first).
func popColor(h value.Host, op string) (r, g, b float32, err error) {
	b, err = popFloat(h, op)
	if err != nil {
		return 0, 0, 0, err
	}
	g, err = popFloat(h, op)
	if err != nil {
		return 0, 0, 0, err
	}
	r, err = popFloat(h, op)
	if err != nil {
		return 0, 0, 0, err
	}
	return r, g, b, nil
}

func setFillStyle(canvas Canvas) func(value.Host) error {
	return func(h value.Host) error {
		r, g, b, err := popColor(h, "set_fill_style")
		if err != nil {
			return err
		}
		canvas.SetFillStyle(r, g, b)
		return nil
	}
}

func setStrokeStyle(canvas Canvas) func(value.Host) error {
	return func(h value.Host) error {
		r, g, b, err := popColor(h, "set_stroke_style")
		if err != nil {
			return err
		}
		canvas.SetStrokeStyle(r, g, b)
		return nil
	}
}

func rotate(canvas Canvas) func(value.Host) error {
	return func(h value.Host) error {
		angle, err := popFloat(h, "rotate")
		if err != nil {
			return err
		}
		canvas.Rotate(angle)
		return nil
	}
}
