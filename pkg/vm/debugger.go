package vm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Debugger wraps a VM with breakpoints and step mode, driving it one Step
// at a time and pausing for an interactive prompt when asked to. Unlike
// the VM itself, Debugger has opinions about where output goes, so it
// talks to a *logrus.Logger rather than the VM's plain print sink.
type Debugger struct {
	vm          *VM
	breakpoints map[int]bool // keyed by a span's Start offset
	stepMode    bool
	log         *logrus.Logger
}

// NewDebugger wraps vm for interactive stepping, logging through log (or a
// fresh logrus.Logger defaulting to text output if log is nil).
func NewDebugger(vm *VM, log *logrus.Logger) *Debugger {
	if log == nil {
		log = logrus.New()
	}
	return &Debugger{vm: vm, breakpoints: make(map[int]bool), log: log}
}

func (d *Debugger) SetStepMode(enabled bool) { d.stepMode = enabled }

func (d *Debugger) AddBreakpoint(offset int)    { d.breakpoints[offset] = true }
func (d *Debugger) RemoveBreakpoint(offset int) { delete(d.breakpoints, offset) }
func (d *Debugger) ClearBreakpoints()           { d.breakpoints = make(map[int]bool) }

// ShouldPause reports whether execution should pause before running the
// token at the given span offset.
func (d *Debugger) ShouldPause(spanStart int) bool {
	return d.stepMode || d.breakpoints[spanStart]
}

// Run drives the VM to completion, stopping for prompt at every token
// whose span start should pause (per ShouldPause) and feeding commands
// read from in. Returns the first runtime error the VM reports, if any.
func (d *Debugger) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		if d.vm.Terminated() {
			return nil
		}
		span := d.peekNextSpan()
		if span != nil && d.ShouldPause(span.Start) {
			d.log.Infof("paused at [%d,%d)", span.Start, span.End)
			if !d.prompt(scanner) {
				return nil
			}
		}
		if _, err := d.vm.Step(); err != nil {
			d.log.WithError(err).Error("runtime error")
			return err
		}
	}
}

// peekNextSpan reports the span of the token about to execute, without
// advancing the VM, or nil if the execution stack is empty or the top
// frame has no more elements this pass (a control-state transition).
func (d *Debugger) peekNextSpan() *Span {
	if len(d.vm.execStack) == 0 {
		return nil
	}
	top := d.vm.execStack[len(d.vm.execStack)-1]
	frame := top.Frame()
	if frame.done() {
		return nil
	}
	sv := frame.Block.Elements[frame.IP]
	return &Span{Start: sv.Span.Start, End: sv.Span.End}
}

// Span mirrors value.Span for debugger callers that don't want to import
// pkg/value just to read two ints back.
type Span struct{ Start, End int }

func (d *Debugger) prompt(scanner *bufio.Scanner) (continueExecution bool) {
	for {
		fmt.Print("debug> ")
		if !scanner.Scan() {
			return false
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		switch parts[0] {
		case "help", "h", "?":
			d.printHelp()
		case "continue", "c":
			d.SetStepMode(false)
			return true
		case "step", "s", "next", "n":
			d.SetStepMode(true)
			return true
		case "stack", "st":
			d.showStack()
		case "locals", "l":
			d.showLocals()
		case "execstack", "es":
			d.showExecStack()
		case "break", "b":
			if len(parts) < 2 {
				fmt.Println("usage: break <span-start>")
				continue
			}
			off, err := strconv.Atoi(parts[1])
			if err != nil {
				fmt.Println("invalid offset")
				continue
			}
			d.AddBreakpoint(off)
		case "delete", "d":
			if len(parts) < 2 {
				fmt.Println("usage: delete <span-start>")
				continue
			}
			off, err := strconv.Atoi(parts[1])
			if err != nil {
				fmt.Println("invalid offset")
				continue
			}
			d.RemoveBreakpoint(off)
		case "quit", "q":
			return false
		default:
			fmt.Printf("unknown command: %s (type 'help' for commands)\n", parts[0])
		}
	}
}

func (d *Debugger) printHelp() {
	fmt.Println(`commands:
  help, h, ?          show this help
  continue, c         resume to completion or next breakpoint
  step, s, next, n    execute one token and pause again
  stack, st           show the data stack
  locals, l           show the current frame's locals
  execstack, es       show the execution stack
  break <n>, b <n>    add a breakpoint at span offset n
  delete <n>, d <n>   remove a breakpoint at span offset n
  quit, q             stop the debugger`)
}

func (d *Debugger) showStack() {
	stack := d.vm.DataStack()
	if len(stack) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for i := len(stack) - 1; i >= 0; i-- {
		fmt.Printf("  [%d] %s\n", i, stack[i].String())
	}
}

func (d *Debugger) showLocals() {
	locals := d.vm.CurrentLocals()
	if len(locals) == 0 {
		fmt.Println("  (none)")
		return
	}
	for k, v := range locals {
		fmt.Printf("  %s = %s\n", k, v.String())
	}
}

func (d *Debugger) showExecStack() {
	views := d.vm.ExecutionStack()
	if len(views) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for _, v := range views {
		fmt.Printf("  %s %q (%d locals, %d remaining)\n", v.Kind, v.Name, len(v.Locals), len(v.Remaining))
	}
}
