// Package lexer implements the tokenizer for stacker source: it splits a
// byte stream into whitespace-separated tokens and records the byte offset
// each token started at. It does no classification — that is the block
// parser's job (pkg/parser) — and it recognizes no comment syntax.
package lexer

import "github.com/josharian/intern"

// isSeparator reports whether b ends a token: space, tab, CR, or LF.
func isSeparator(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n':
		return true
	default:
		return false
	}
}

// Token is a non-empty run of non-separator bytes together with the byte
// offset, from the start of input, where it began.
type Token struct {
	Text  string
	Start int
}

// Lexer splits input into Tokens on demand.
type Lexer struct {
	input string
	pos   int
}

// New creates a Lexer over input.
func New(input string) *Lexer {
	return &Lexer{input: input}
}

// Next returns the next token and true, or a zero Token and false once the
// input is exhausted. Token.Text is interned so that the same operator word
// or symbol name, seen many times in a loop body, shares one backing
// string across every Value built from it.
func (l *Lexer) Next() (Token, bool) {
	for l.pos < len(l.input) && isSeparator(l.input[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return Token{}, false
	}
	start := l.pos
	for l.pos < len(l.input) && !isSeparator(l.input[l.pos]) {
		l.pos++
	}
	return Token{Text: intern.String(l.input[start:l.pos]), Start: start}, true
}

// Tokenize splits the whole input into Tokens in one pass.
func Tokenize(input string) []Token {
	l := New(input)
	var tokens []Token
	for {
		tok, ok := l.Next()
		if !ok {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}
