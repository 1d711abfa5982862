// Package compiler lowers source text into a bytecode.Program and renders
// a human-readable disassembly of one, backing the CLI's compile and
// disassemble subcommands.
package compiler

import (
	"fmt"
	"strings"

	"github.com/kristofer/stacker/pkg/bytecode"
	"github.com/kristofer/stacker/pkg/parser"
	"github.com/kristofer/stacker/pkg/value"
)

// Compile parses src and wraps the result as a bytecode.Program.
func Compile(src string) (*bytecode.Program, error) {
	root, err := parser.New(src).Parse()
	if err != nil {
		return nil, fmt.Errorf("compiler: %w", err)
	}
	return bytecode.Compile(root), nil
}

// Disassemble renders p as an indented listing: one line per element,
// nested blocks indented one level deeper than their parent.
func Disassemble(p *bytecode.Program) string {
	var b strings.Builder
	disassembleBlock(&b, p.Root, 0)
	return b.String()
}

func disassembleBlock(b *strings.Builder, block *value.Block, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%sblock [%d,%d)\n", indent, block.Span.Start, block.Span.End)
	for _, sv := range block.Elements {
		elemIndent := strings.Repeat("  ", depth+1)
		switch sv.Value.Kind {
		case value.KindBlock:
			disassembleBlock(b, sv.Value.Block, depth+1)
		default:
			fmt.Fprintf(b, "%s%-6s %-12s [%d,%d)\n",
				elemIndent, sv.Value.Kind, sv.Value.String(), sv.Span.Start, sv.Span.End)
		}
	}
}
