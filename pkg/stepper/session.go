// Package stepper exposes a stacker VM to a host process (an editor
// plugin, a web UI, a remote debugger) over a JSON wire format instead of
// Go method calls: step(), get_stack(), and get_exec_stack() per the
// host-visible stepper contract.
package stepper

import (
	"encoding/json"
	"sort"

	"github.com/google/uuid"

	"github.com/kristofer/stacker/pkg/value"
	"github.com/kristofer/stacker/pkg/vm"
)

// Session pairs a VM with a stable identity so a host can run several
// independent programs (one per editor tab, one per debug connection)
// without them sharing state.
type Session struct {
	ID uuid.UUID
	vm *vm.VM
}

// NewSession creates a Session wrapping a fresh VM.
func NewSession() *Session {
	return &Session{ID: uuid.New(), vm: vm.New()}
}

// AddNative exposes the wrapped VM's native-registration hook, so a host
// can still wire up pkg/hostops or its own natives against this session.
func (s *Session) AddNative(name string, fn func(value.Host) error) {
	s.vm.AddNative(name, fn)
}

// SetPrintSink overrides where `puts` output goes.
func (s *Session) SetPrintSink(sink func(string)) {
	s.vm.SetPrintSink(sink)
}

// Parse feeds src to the wrapped VM.
func (s *Session) Parse(src string) error {
	return s.vm.Parse(src)
}

// StepResult is the JSON shape returned by Step: the span of the token or
// control-state transition that just executed, or Done set (with Start and
// End left at zero) once the program has terminated.
type StepResult struct {
	Start int  `json:"start"`
	End   int  `json:"end"`
	Done  bool `json:"done"`
}

// Step advances the VM by one token and marshals the result as JSON.
func (s *Session) Step() ([]byte, error) {
	span, err := s.vm.Step()
	if err != nil {
		return nil, err
	}
	if span == nil {
		return json.Marshal(StepResult{Done: true})
	}
	return json.Marshal(StepResult{Start: span.Start, End: span.End})
}

// GetStack returns the data stack, bottom to top, as a JSON array of
// printable forms.
func (s *Session) GetStack() ([]byte, error) {
	data := s.vm.DataStack()
	printable := make([]string, len(data))
	for i, v := range data {
		printable[i] = v.String()
	}
	return json.Marshal(printable)
}

// execFrame is the wire shape for one execution-stack entry.
type execFrame struct {
	Name string     `json:"name"`
	Vars [][2]string `json:"vars"`
}

// GetExecStack returns the execution stack, top to bottom, as a JSON
// array of {name, vars} frames. vars is a list of [key, printable] pairs,
// sorted by key, rather than an object: that gives hosts (JS, most dynamic
// languages) a stable iteration order instead of Go's randomized map order.
func (s *Session) GetExecStack() ([]byte, error) {
	views := s.vm.ExecutionStack()
	frames := make([]execFrame, len(views))
	for i, v := range views {
		vars := make([][2]string, 0, len(v.Locals))
		for k, val := range v.Locals {
			vars = append(vars, [2]string{k, val.String()})
		}
		sort.Slice(vars, func(i, j int) bool { return vars[i][0] < vars[j][0] })
		frames[i] = execFrame{Name: v.Name, Vars: vars}
	}
	return json.Marshal(frames)
}

// Terminated reports whether the wrapped VM has finished.
func (s *Session) Terminated() bool { return s.vm.Terminated() }
