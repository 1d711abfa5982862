package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextSplitsOnWhitespace(t *testing.T) {
	l := New("1 2 +  \t{ 3\n4 }")
	var got []Token
	for {
		tok, ok := l.Next()
		if !ok {
			break
		}
		got = append(got, tok)
	}

	want := []Token{
		{Text: "1", Start: 0},
		{Text: "2", Start: 2},
		{Text: "+", Start: 4},
		{Text: "{", Start: 8},
		{Text: "3", Start: 10},
		{Text: "4", Start: 12},
		{Text: "}", Start: 14},
	}
	assert.Equal(t, want, got)
}

func TestNextEmptyInput(t *testing.T) {
	l := New("   \t\r\n  ")
	_, ok := l.Next()
	assert.False(t, ok)
}

func TestTokenizeMatchesIterativeNext(t *testing.T) {
	const src = "/x 10 def x double"
	assert.Equal(t, []Token{
		{Text: "/x", Start: 0},
		{Text: "10", Start: 3},
		{Text: "def", Start: 6},
		{Text: "x", Start: 10},
		{Text: "double", Start: 12},
	}, Tokenize(src))
}

func TestTokenizeNoTrailingEmptyToken(t *testing.T) {
	assert.Len(t, Tokenize("1 2 3   "), 3)
}
