// Package vm implements the stacker virtual machine: the per-frame
// environment (C4), the execution stack and step evaluator (C5/C6), the
// built-in operator set (C7, in primitives.go), and diagnostics (C8, in
// errors.go).
//
// Evaluation is not a recursive walk over the parsed block tree. Instead
// the VM keeps an explicit stack of ExecStates and advances it one token
// (or one control-state transition) at a time via Step. This is what lets
// an external driver — a REPL, a batch runner, or a debugger UI — pause
// between any two operations, inspect the data stack and every frame's
// locals, and resume later: the VM itself never recurses into Go's call
// stack to run a block, it only ever pushes and pops ExecStates.
package vm

import (
	"github.com/kristofer/stacker/pkg/bytecode"
	"github.com/kristofer/stacker/pkg/parser"
	"github.com/kristofer/stacker/pkg/value"
)

// ExecFrame holds one block's linear-execution state: its instruction
// pointer and its local variable bindings.
type ExecFrame struct {
	Name   string
	Block  *value.Block
	IP     int
	Locals map[string]value.Value
}

func newFrame(name string, block *value.Block) *ExecFrame {
	return &ExecFrame{Name: name, Block: block, Locals: make(map[string]value.Value)}
}

// done reports whether this frame has executed every element of its block.
func (f *ExecFrame) done() bool { return f.IP >= len(f.Block.Elements) }

// StateKind tags which ExecState variant a value implements.
type StateKind int

const (
	KindFrame StateKind = iota
	KindIfCond
	KindIfTrue
	KindIfFalse
	KindFor
)

func (k StateKind) String() string {
	switch k {
	case KindFrame:
		return "Frame"
	case KindIfCond:
		return "IfCond"
	case KindIfTrue:
		return "IfTrue"
	case KindIfFalse:
		return "IfFalse"
	case KindFor:
		return "For"
	default:
		return "Unknown"
	}
}

// ExecState is one entry of the VM's execution stack: ordinary linear
// execution of a block (Frame), the three phases of `if`, or the body of a
// `for` iteration.
type ExecState interface {
	Kind() StateKind
	// Frame returns the ExecFrame this state is currently stepping through:
	// the condition frame for IfCond, the body frame for For, or the frame
	// itself for Frame/IfTrue/IfFalse.
	Frame() *ExecFrame
}

type frameState struct{ frame *ExecFrame }

func (s *frameState) Kind() StateKind  { return KindFrame }
func (s *frameState) Frame() *ExecFrame { return s.frame }

type ifCondState struct {
	frame                    *ExecFrame
	trueBranch, falseBranch *value.Block
}

func (s *ifCondState) Kind() StateKind   { return KindIfCond }
func (s *ifCondState) Frame() *ExecFrame { return s.frame }

type ifTrueState struct{ frame *ExecFrame }

func (s *ifTrueState) Kind() StateKind   { return KindIfTrue }
func (s *ifTrueState) Frame() *ExecFrame { return s.frame }

type ifFalseState struct{ frame *ExecFrame }

func (s *ifFalseState) Kind() StateKind   { return KindIfFalse }
func (s *ifFalseState) Frame() *ExecFrame { return s.frame }

type forState struct {
	frame    *ExecFrame
	i, end   int32
}

func (s *forState) Kind() StateKind   { return KindFor }
func (s *forState) Frame() *ExecFrame { return s.frame }

// VM is the stacker virtual machine: a data stack, a globals table seeded
// with built-ins, and an execution stack of ExecStates.
type VM struct {
	data       []value.Value
	globals    map[string]value.Value
	rootLocals map[string]value.Value
	execStack  []ExecState
	printSink  func(string)
}

// New creates a VM with the default built-in operator set installed in
// globals. The VM is reusable across multiple calls to Parse/Run, which is
// what lets a REPL keep one persistent VM across input lines: rootLocals
// backs every root Frame Parse/LoadProgram pushes, so a `def` at the top
// level of one line is still visible to the next.
func New() *VM {
	vm := &VM{
		globals:    make(map[string]value.Value),
		rootLocals: make(map[string]value.Value),
		printSink:  func(s string) { println(s) },
	}
	installBuiltins(vm)
	return vm
}

// SetPrintSink overrides the destination `puts` writes to. The default
// sink is a thin wrapper over the builtin println; callers embedding the
// VM (the CLI, tests, a host UI) normally replace it.
func (vm *VM) SetPrintSink(sink func(string)) {
	vm.printSink = sink
}

// AddNative registers a named native under globals, available to `load`
// and to bare Op tokens of the same name. Re-registering a name overwrites
// the previous binding, matching how user `def`s may shadow built-ins.
func (vm *VM) AddNative(name string, fn func(value.Host) error) {
	vm.globals[name] = value.NativeValue(value.NewNative(name, fn))
}

// Parse tokenizes and block-parses src, then pushes the resulting root
// block as the VM's initial Frame so Step/Run can execute it. Parse may be
// called multiple times on the same VM (each call pushes a fresh Frame for
// its own root block, but every root Frame shares vm.rootLocals) — this is
// what lets a persistent-VM REPL see a `def` from one line on the next.
func (vm *VM) Parse(src string) error {
	root, err := parser.New(src).Parse()
	if err != nil {
		return err
	}
	vm.execStack = append(vm.execStack, &frameState{frame: vm.newRootFrame(root)})
	return nil
}

// LoadProgram pushes a precompiled program's root block as the VM's
// initial Frame, the same way Parse does for freshly tokenized source.
// It skips lexing and parsing entirely, which is the entire point of the
// bytecode cache format: a program loaded this way steps and runs
// identically to one parsed from its original text.
func (vm *VM) LoadProgram(p *bytecode.Program) error {
	vm.execStack = append(vm.execStack, &frameState{frame: vm.newRootFrame(p.Root)})
	return nil
}

// newRootFrame builds a Frame for block that shares vm.rootLocals instead
// of a fresh, empty locals map, so top-level `def`s outlive the Frame that
// defined them once it's popped at the end of a Parse/Run cycle.
func (vm *VM) newRootFrame(block *value.Block) *ExecFrame {
	frame := newFrame("root", block)
	frame.Locals = vm.rootLocals
	return frame
}

// Step advances the VM by one token or one control-state transition. It
// returns the source span of whatever just executed, or nil once the
// execution stack is empty (the program has terminated). A non-nil error
// is wrapped with the current stack trace (see errors.go) and the VM's
// state reflects exactly the mutations already described as safe in
// spec.md §7: pops that already happened, no partial push from the failing
// operator.
func (vm *VM) Step() (*value.Span, error) {
	if len(vm.execStack) == 0 {
		return nil, nil
	}
	top := vm.execStack[len(vm.execStack)-1]

	switch st := top.(type) {
	case *frameState, *ifTrueState, *ifFalseState:
		frame := top.Frame()
		if !frame.done() {
			sv := frame.Block.Elements[frame.IP]
			frame.IP++
			if err := vm.evalOne(sv.Value); err != nil {
				return &sv.Span, vm.wrapError(err)
			}
			return &sv.Span, nil
		}
		vm.popExec()
		return &frame.Block.Span, nil

	case *ifCondState:
		frame := st.frame
		if !frame.done() {
			sv := frame.Block.Elements[frame.IP]
			frame.IP++
			if err := vm.evalOne(sv.Value); err != nil {
				return &sv.Span, vm.wrapError(err)
			}
			return &sv.Span, nil
		}
		cond, err := vm.PopData()
		if err != nil {
			return nil, vm.wrapError(err)
		}
		nonzero, err := cond.AsInt()
		if err != nil {
			return nil, vm.wrapError(err)
		}
		vm.popExec()
		var branch *value.Block
		var next ExecState
		if nonzero != 0 {
			branch = st.trueBranch
			tf := newFrame("if-true", branch)
			next = &ifTrueState{frame: tf}
		} else {
			branch = st.falseBranch
			ff := newFrame("if-false", branch)
			next = &ifFalseState{frame: ff}
		}
		vm.execStack = append(vm.execStack, next)
		if len(branch.Elements) > 0 {
			return &branch.Elements[0].Span, nil
		}
		return &branch.Span, nil

	case *forState:
		frame := st.frame
		if frame.IP == 0 {
			vm.PushData(value.Int32(st.i))
		}
		if !frame.done() {
			sv := frame.Block.Elements[frame.IP]
			frame.IP++
			if err := vm.evalOne(sv.Value); err != nil {
				return &sv.Span, vm.wrapError(err)
			}
			return &sv.Span, nil
		}
		st.i++
		if st.i < st.end {
			frame.IP = 0
			return &frame.Block.Span, nil
		}
		vm.popExec()
		return &frame.Block.Span, nil
	}

	panic("vm: unreachable ExecState variant")
}

// Run steps the VM to completion, returning the first error encountered.
func (vm *VM) Run() error {
	for {
		_, err := vm.Step()
		if err != nil {
			return err
		}
		if len(vm.execStack) == 0 {
			return nil
		}
	}
}

func (vm *VM) popExec() {
	vm.execStack = vm.execStack[:len(vm.execStack)-1]
}

// evalOne implements spec.md §4.6: Op resolves and dispatches, everything
// else pushes unchanged.
func (vm *VM) evalOne(v value.Value) error {
	if v.Kind != value.KindOp {
		vm.PushData(v)
		return nil
	}
	resolved, ok := vm.Lookup(v.Name)
	if !ok {
		return &UndefinedNameError{Name: v.Name}
	}
	switch resolved.Kind {
	case value.KindBlock:
		vm.execStack = append(vm.execStack, &frameState{frame: newFrame(v.Name, resolved.Block)})
		return nil
	case value.KindNative:
		return resolved.Native.Call(vm)
	default:
		vm.PushData(resolved)
		return nil
	}
}

// --- value.Host implementation -------------------------------------------------

// PushData pushes v onto the data stack.
func (vm *VM) PushData(v value.Value) {
	vm.data = append(vm.data, v)
}

// PopData pops the top of the data stack.
func (vm *VM) PopData() (value.Value, error) {
	if len(vm.data) == 0 {
		return value.Value{}, &StackUnderflowError{}
	}
	v := vm.data[len(vm.data)-1]
	vm.data = vm.data[:len(vm.data)-1]
	return v, nil
}

// PeekData returns the element fromTop below the current top (0 = top)
// without popping.
func (vm *VM) PeekData(fromTop int) (value.Value, error) {
	idx := len(vm.data) - 1 - fromTop
	if fromTop < 0 || idx < 0 || idx >= len(vm.data) {
		return value.Value{}, &StackUnderflowError{}
	}
	return vm.data[idx], nil
}

// DataLen reports the current data stack depth.
func (vm *VM) DataLen() int { return len(vm.data) }

// EvalValue evaluates v the way a fetched token would be (spec.md §4.6).
func (vm *VM) EvalValue(v value.Value) error {
	return vm.evalOne(v)
}

// Lookup resolves name by searching every ExecState's frame locals from
// top to bottom, then the globals table (spec.md §4.4).
func (vm *VM) Lookup(name string) (value.Value, bool) {
	for i := len(vm.execStack) - 1; i >= 0; i-- {
		if v, ok := vm.execStack[i].Frame().Locals[name]; ok {
			return v, true
		}
	}
	v, ok := vm.globals[name]
	return v, ok
}

// DefineLocal binds sym in the nearest enclosing linear Frame, skipping
// IfCond/IfTrue/IfFalse/For states (spec.md §4.7, design note in §9).
func (vm *VM) DefineLocal(sym string, v value.Value) error {
	for i := len(vm.execStack) - 1; i >= 0; i-- {
		if fs, ok := vm.execStack[i].(*frameState); ok {
			fs.frame.Locals[sym] = v
			return nil
		}
	}
	return &NoEnclosingFrameError{}
}

// PushIf pushes an IfCond control state.
func (vm *VM) PushIf(cond, trueBranch, falseBranch *value.Block) error {
	vm.execStack = append(vm.execStack, &ifCondState{
		frame:       newFrame("if-cond", cond),
		trueBranch:  trueBranch,
		falseBranch: falseBranch,
	})
	return nil
}

// PushFor pushes a For control state. An empty range (start >= end) pushes
// nothing, so the body never runs.
func (vm *VM) PushFor(start, end int32, body *value.Block) error {
	if start >= end {
		return nil
	}
	vm.execStack = append(vm.execStack, &forState{
		frame: newFrame("for-body", body),
		i:     start,
		end:   end,
	})
	return nil
}

// Print emits s through the configured print sink.
func (vm *VM) Print(s string) {
	vm.printSink(s)
}

// --- read-only inspection -------------------------------------------------

// DataStack returns a copy of the data stack, bottom to top.
func (vm *VM) DataStack() []value.Value {
	out := make([]value.Value, len(vm.data))
	copy(out, vm.data)
	return out
}

// CurrentLocals returns a defensive copy of the top frame's locals, or nil
// if the execution stack is empty. Supplemented from original_source's
// Vm::get_vars (§SPEC_FULL.md).
func (vm *VM) CurrentLocals() map[string]value.Value {
	if len(vm.execStack) == 0 {
		return nil
	}
	src := vm.execStack[len(vm.execStack)-1].Frame().Locals
	out := make(map[string]value.Value, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// FrameView is a read-only snapshot of one execution-stack entry, used by
// diagnostics, the debugger, and the host-visible stepper.
type FrameView struct {
	Kind      StateKind
	Name      string
	Locals    map[string]value.Value
	Remaining []value.SpannedValue
}

// ExecutionStack returns a top-to-bottom snapshot of the execution stack.
func (vm *VM) ExecutionStack() []FrameView {
	views := make([]FrameView, len(vm.execStack))
	for i := len(vm.execStack) - 1; i >= 0; i-- {
		st := vm.execStack[i]
		f := st.Frame()
		locals := make(map[string]value.Value, len(f.Locals))
		for k, v := range f.Locals {
			locals[k] = v
		}
		remaining := append([]value.SpannedValue(nil), f.Block.Elements[f.IP:]...)
		views[len(vm.execStack)-1-i] = FrameView{
			Kind:      st.Kind(),
			Name:      f.Name,
			Locals:    locals,
			Remaining: remaining,
		}
	}
	return views
}

// Terminated reports whether the execution stack is empty.
func (vm *VM) Terminated() bool { return len(vm.execStack) == 0 }
