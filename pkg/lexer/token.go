package lexer

import "fmt"

// Kind enumerates lexical categories.
type Kind int

const (
	Comment Kind = iota
	LineBreak
	Whitespace
	Keyword
	GroupDivider
	Logical
	Numeric
	Null
	This
	Text
	Operator
	Variable
)

func (k Kind) String() string {
	switch k {
	case Comment:
		return "Comment"
	case LineBreak:
		return "LineBreak"
	case Whitespace:
		return "Whitespace"
	case Keyword:
		return "Keyword"
	case GroupDivider:
		return "GroupDivider"
	case Logical:
		return "Logical"
	case Numeric:
		return "Numeric"
	case Null:
		return "Null"
	case This:
		return "This"
	case Text:
		return "Text"
	case Operator:
		return "Operator"
	case Variable:
		return "Variable"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Token is a single lexeme with its 1-based source line.
type Token struct {
	Kind Kind
	Text string
	Line int
}

// Is reports whether the token has the given kind and, when values are
// supplied, one of the given texts.
func (t Token) Is(kind Kind, values ...string) bool {
	if t.Kind != kind {
		return false
	}
	if len(values) == 0 {
		return true
	}
	for _, v := range values {
		if t.Text == v {
			return true
		}
	}
	return false
}

// Trivia reports whether the parser may skip the token.
func (t Token) Trivia() bool {
	return t.Kind == Comment || t.Kind == LineBreak || t.Kind == Whitespace
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d", t.Kind, t.Text, t.Line)
}
