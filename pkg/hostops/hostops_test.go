package hostops

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/stacker/pkg/value"
	"github.com/kristofer/stacker/pkg/vm"
)

type recordingCanvas struct {
	calls []string
}

func (c *recordingCanvas) record(format string, args ...any) {
	c.calls = append(c.calls, fmt.Sprintf(format, args...))
}

func (c *recordingCanvas) Rectangle(x0, y0, x1, y1 float32) {
	c.record("rectangle %v %v %v %v", x0, y0, x1, y1)
}
func (c *recordingCanvas) SetFillStyle(r, g, b float32)   { c.record("fill %v %v %v", r, g, b) }
func (c *recordingCanvas) SetStrokeStyle(r, g, b float32) { c.record("stroke-style %v %v %v", r, g, b) }
func (c *recordingCanvas) BeginPath()                     { c.record("begin_path") }
func (c *recordingCanvas) MoveTo(x, y float32)            { c.record("move_to %v %v", x, y) }
func (c *recordingCanvas) LineTo(x, y float32)            { c.record("line_to %v %v", x, y) }
func (c *recordingCanvas) Stroke()                        { c.record("stroke") }
func (c *recordingCanvas) Rotate(angle float32)           { c.record("rotate %v", angle) }
func (c *recordingCanvas) Translate(x, y float32)         { c.record("translate %v %v", x, y) }
func (c *recordingCanvas) Save()                          { c.record("save") }
func (c *recordingCanvas) Restore()                       { c.record("restore") }

func TestRegisterRectanglePopsInSourceOrder(t *testing.T) {
	m := vm.New()
	canvas := &recordingCanvas{}
	Register(m, canvas)

	require.NoError(t, m.Parse("0 0 10 20 rectangle"))
	require.NoError(t, m.Run())
	assert.Equal(t, []string{"rectangle 0 0 10 20"}, canvas.calls)
}

func TestRegisterSetFillStyleUsesRGBOrder(t *testing.T) {
	m := vm.New()
	canvas := &recordingCanvas{}
	Register(m, canvas)

	require.NoError(t, m.Parse("255 128 0 set_fill_style"))
	require.NoError(t, m.Run())
	assert.Equal(t, []string{"fill 255 128 0"}, canvas.calls)
}

func TestRegisterNullaryOpsTakeNoOperands(t *testing.T) {
	m := vm.New()
	canvas := &recordingCanvas{}
	Register(m, canvas)

	require.NoError(t, m.Parse("begin_path stroke save restore"))
	require.NoError(t, m.Run())
	assert.Equal(t, []string{"begin_path", "stroke", "save", "restore"}, canvas.calls)
}

func TestRegisterRemainsUnusedWhenAllNativeSucceed(t *testing.T) {
	// Only references the value.Host type; nothing is asserted at run time.
	// The natives Register installs call no Host method other than PopData.
	var _ value.Host
}
