package parser

import (
	"fmt"
	"strings"

	"scrum/interpreter-go/pkg/impediment"
	"scrum/interpreter-go/pkg/lexer"
)

// endOfInput is the Kind recorded on syntax errors raised past the last token.
const endOfInput = "end of input"

// Cursor is a rewindable view over the significant tokens of a stream.
// Comments and line breaks are skipped.
type Cursor struct {
	tokens []lexer.Token
	pos    int
}

func NewCursor(tokens []lexer.Token) *Cursor {
	significant := make([]lexer.Token, 0, len(tokens))
	for _, tok := range tokens {
		if !tok.Trivia() {
			significant = append(significant, tok)
		}
	}
	return &Cursor{tokens: significant}
}

func (c *Cursor) AtEnd() bool {
	return c.pos >= len(c.tokens)
}

// PeekToken returns the current token without consuming it.
func (c *Cursor) PeekToken() (lexer.Token, bool) {
	if c.AtEnd() {
		return lexer.Token{}, false
	}
	return c.tokens[c.pos], true
}

// Peek reports whether the current token has the kind and one of the values.
func (c *Cursor) Peek(kind lexer.Kind, values ...string) bool {
	tok, ok := c.PeekToken()
	return ok && tok.Is(kind, values...)
}

// Advance consumes the current token. It must not be called at the end.
func (c *Cursor) Advance() lexer.Token {
	tok := c.tokens[c.pos]
	c.pos++
	return tok
}

// Next consumes the current token if it matches, and fails otherwise.
func (c *Cursor) Next(kind lexer.Kind, values ...string) (lexer.Token, error) {
	if c.Peek(kind, values...) {
		return c.Advance(), nil
	}
	want := kind.String()
	if len(values) > 0 {
		want = "`" + strings.Join(values, "`, `") + "`"
	}
	return lexer.Token{}, c.Errorf(impediment.CodeSyntaxUnexpected, "Expected %s but found %s", want, c.describe())
}

// Back steps back one token so it can be read again.
func (c *Cursor) Back() {
	if c.pos > 0 {
		c.pos--
	}
}

// Line is the line of the current token, or of the last one at the end.
func (c *Cursor) Line() int {
	if tok, ok := c.PeekToken(); ok {
		return tok.Line
	}
	if n := len(c.tokens); n > 0 {
		return c.tokens[n-1].Line
	}
	return 1
}

// Errorf builds a syntax error located at the current token.
func (c *Cursor) Errorf(code impediment.Code, format string, args ...any) *impediment.SyntaxError {
	err := &impediment.SyntaxError{
		Line:    c.Line(),
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	}
	if tok, ok := c.PeekToken(); ok {
		err.Token = tok.Text
		err.Kind = tok.Kind.String()
	} else {
		err.Kind = endOfInput
	}
	return err
}

func (c *Cursor) describe() string {
	tok, ok := c.PeekToken()
	if !ok {
		return endOfInput
	}
	return fmt.Sprintf("%s `%s`", tok.Kind, tok.Text)
}
