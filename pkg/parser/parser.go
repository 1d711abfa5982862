// Package parser implements the block parser for stacker source: it
// consumes the tokens pkg/lexer produces, classifies each one into a
// value.Value, and assembles the `{ ... }` nesting into a tree of spanned
// values rooted at a single top-level value.Block.
//
// Classification order per token (spec.md §4.3): integer literal, else
// float literal, else a `/`-prefixed symbol, else an operator word. `{` and
// `}` are structural and never become Op values themselves.
package parser

import (
	"fmt"
	"strconv"

	multierror "github.com/hashicorp/go-multierror"

	"github.com/kristofer/stacker/pkg/lexer"
	"github.com/kristofer/stacker/pkg/value"
)

// UnbalancedBlockError reports a `}` with no matching `{` still open.
type UnbalancedBlockError struct {
	Offset int
}

func (e *UnbalancedBlockError) Error() string {
	return fmt.Sprintf("unbalanced block: unmatched '}' at offset %d", e.Offset)
}

// UnclosedBlockError reports one or more `{` left open at end of input.
type UnclosedBlockError struct {
	Depth int // number of still-open blocks, root excluded
}

func (e *UnclosedBlockError) Error() string {
	return fmt.Sprintf("unclosed block: %d block(s) never closed", e.Depth)
}

// inProgress is a value.Block still being built: its Elements grow as
// tokens are classified, and its Span.End is unknown until `}` closes it.
type inProgress struct {
	start int
	elems []value.SpannedValue
}

// Parser assembles a parse-time stack of in-progress blocks into a single
// rooted tree.
type Parser struct {
	lex       *lexer.Lexer
	sourceLen int
	stack     []*inProgress
	errors    *multierror.Error
}

// New creates a Parser over source.
func New(source string) *Parser {
	return &Parser{lex: lexer.New(source), sourceLen: len(source)}
}

// Parse runs the tokenizer and block parser to completion and returns the
// root block. On a structural error it returns the error immediately
// without attempting evaluation. There is no recovery mode: parsing stops
// at the first structural error, so Errors() holds at most one entry.
func (p *Parser) Parse() (*value.Block, error) {
	p.stack = []*inProgress{{start: 0}}

	for {
		tok, ok := p.lex.Next()
		if !ok {
			break
		}
		if err := p.feed(tok); err != nil {
			p.errors = multierror.Append(p.errors, err)
			return nil, p.errors.ErrorOrNil()
		}
	}

	if len(p.stack) > 1 {
		err := &UnclosedBlockError{Depth: len(p.stack) - 1}
		p.errors = multierror.Append(p.errors, err)
		return nil, p.errors.ErrorOrNil()
	}

	root := p.stack[0]
	return &value.Block{
		Span:     value.Span{Start: root.start, End: p.sourceLen},
		Elements: root.elems,
	}, nil
}

// Errors returns the structural errors accumulated during Parse. Parse
// stops at the first one, so the list is empty or has a single entry.
func (p *Parser) Errors() []error {
	if p.errors == nil {
		return nil
	}
	return p.errors.Errors
}

func (p *Parser) feed(tok lexer.Token) error {
	switch tok.Text {
	case "{":
		p.stack = append(p.stack, &inProgress{start: tok.Start})
		return nil
	case "}":
		if len(p.stack) == 0 {
			return &UnbalancedBlockError{Offset: tok.Start}
		}
		top := p.stack[len(p.stack)-1]
		p.stack = p.stack[:len(p.stack)-1]
		if len(p.stack) == 0 {
			// The block we just popped was the root: this '}' has no
			// matching '{' of its own.
			return &UnbalancedBlockError{Offset: tok.Start}
		}
		end := tok.Start + 1
		blk := &value.Block{
			Span:     value.Span{Start: top.start, End: end},
			Elements: top.elems,
		}
		p.append(value.SpannedValue{
			Value: value.NewBlock(blk),
			Span:  value.Span{Start: top.start, End: end},
		})
		return nil
	default:
		p.append(value.SpannedValue{
			Value: classify(tok.Text),
			Span:  value.Span{Start: tok.Start, End: tok.Start + len(tok.Text)},
		})
		return nil
	}
}

func (p *Parser) append(sv value.SpannedValue) {
	top := p.stack[len(p.stack)-1]
	top.elems = append(top.elems, sv)
}

// classify turns raw token text into the Value it denotes.
func classify(text string) value.Value {
	if i, err := strconv.ParseInt(text, 10, 32); err == nil {
		return value.Int32(int32(i))
	}
	if f, err := strconv.ParseFloat(text, 32); err == nil {
		return value.Float32(float32(f))
	}
	if len(text) > 0 && text[0] == '/' {
		return value.Sym(text[1:])
	}
	return value.Op(text)
}
