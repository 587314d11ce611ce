package lexer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"scrum/interpreter-go/pkg/impediment"
)

const (
	IntentStart = "#INTENT"
	IntentEnd   = "#END INTENT"
)

// Keywords lists every keyword literal. Matching tries longer entries first
// so that "END OF EPIC" wins over "EPIC" and "ELSEIF" over "ELSE".
var Keywords = sortLongestFirst([]string{
	IntentStart, IntentEnd,
	"I WANT TO DEFINE", "END OF API", "END OF ENDPOINT", "END WHEN",
	"EPIC", "END OF EPIC", "USER STORY", "END OF STORY",
	"ASK", "SAY", "IF", "ELSE", "ELSEIF", "END IF", "END OF ITERATION", "end", "scenario",
	"RETURN ANSWER", "I WANT TO ITERATE", "FOR RANGE", "by", "break", "next",
	"API", "ENDPOINT", "BASE", "METHOD", "PATH", "QUERY_PARAMS", "RETURNS", "ARE",
	"WHEN", "REQUEST", "RESPOND", "WITH",
})

var operatorSymbols = sortLongestFirst([]string{
	"//", "<<", ">=", "<=", "==", "!=", "::",
	"+", "-", "*", "/", "%", ">", "<", "=", "!", "(", ")",
})

var operatorWords = []string{"IS", "NEW", "AND", "OR", "ADDING"}

var (
	commentPattern    = regexp.MustCompile(`^#(REVIEW|SPRINTGOAL)[^\r\n]*`)
	lineBreakPattern  = regexp.MustCompile(`^(\r\n|\n|\r)`)
	whitespacePattern = regexp.MustCompile(`^[ \t\f\v]+`)
	usingPattern      = regexp.MustCompile(`^USING[ \t]*\[`)
	numericPattern    = regexp.MustCompile(`^-?(\d+(\.\d+)?|\.\d+)`)
	textPattern       = regexp.MustCompile(`^"([^"]*)"`)
	variablePattern   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*`)
)

// Tokenize converts source text into a token stream. Whitespace is dropped;
// comments and line breaks are kept so callers can decide how to treat them.
func Tokenize(source string) ([]Token, error) {
	s := &scanner{src: source, line: 1}
	for s.pos < len(s.src) {
		if err := s.step(); err != nil {
			return nil, err
		}
	}
	return s.tokens, nil
}

type scanner struct {
	src    string
	pos    int
	line   int
	tokens []Token
}

func (s *scanner) rest() string {
	return s.src[s.pos:]
}

func (s *scanner) emit(kind Kind, text string, width int) {
	s.tokens = append(s.tokens, Token{Kind: kind, Text: text, Line: s.line})
	s.pos += width
}

func (s *scanner) step() error {
	rest := s.rest()

	if strings.HasPrefix(rest, IntentStart) && boundaryAt(rest, len(IntentStart)) {
		return s.captureIntent()
	}
	if m := commentPattern.FindString(rest); m != "" {
		s.emit(Comment, m, len(m))
		return nil
	}
	if m := lineBreakPattern.FindString(rest); m != "" {
		s.emit(LineBreak, m, len(m))
		s.line++
		return nil
	}
	if m := whitespacePattern.FindString(rest); m != "" {
		s.pos += len(m)
		return nil
	}
	for _, kw := range Keywords {
		if strings.HasPrefix(rest, kw) && boundaryAt(rest, len(kw)) {
			s.emit(Keyword, kw, len(kw))
			return nil
		}
	}
	if m := usingPattern.FindString(rest); m != "" {
		s.emit(GroupDivider, "USING [", len(m))
		return nil
	}
	if strings.HasPrefix(rest, "TILL") && wordEndAt(rest, 4) {
		s.emit(GroupDivider, "TILL", 4)
		return nil
	}
	if strings.HasPrefix(rest, "..") {
		s.emit(GroupDivider, "..", 2)
		return nil
	}
	switch rest[0] {
	case '[', ']', ',', '{', '}':
		s.emit(GroupDivider, rest[:1], 1)
		return nil
	}
	for _, word := range []string{"true", "false"} {
		if strings.HasPrefix(rest, word) && wordEndAt(rest, len(word)) {
			s.emit(Logical, word, len(word))
			return nil
		}
	}
	if m := numericPattern.FindString(rest); m != "" && (m[0] != '-' || !s.previousEndsOperand()) {
		s.emit(Numeric, m, len(m))
		return nil
	}
	if strings.HasPrefix(rest, "null") && wordEndAt(rest, 4) {
		s.emit(Null, "null", 4)
		return nil
	}
	if strings.HasPrefix(rest, "this") && wordEndAt(rest, 4) {
		s.emit(This, "this", 4)
		return nil
	}
	if m := textPattern.FindStringSubmatch(rest); m != nil {
		width := len(m[0])
		s.emit(Text, m[1], width)
		s.line += strings.Count(m[1], "\n")
		return nil
	}
	for _, op := range operatorSymbols {
		if strings.HasPrefix(rest, op) {
			s.emit(Operator, op, len(op))
			return nil
		}
	}
	for _, word := range operatorWords {
		if strings.HasPrefix(rest, word) && wordEndAt(rest, len(word)) {
			s.emit(Operator, word, len(word))
			return nil
		}
	}
	if m := variablePattern.FindString(rest); m != "" {
		s.emit(Variable, m, len(m))
		return nil
	}
	return &impediment.TokenError{
		Line:    s.line,
		Snippet: impediment.SourceLine(s.src, s.line),
		Message: fmt.Sprintf("invalid expression at line %d", s.line),
	}
}

// captureIntent emits the start marker, the raw text up to the end marker
// (when it is not blank) and the end marker on the line the text ends on.
func (s *scanner) captureIntent() error {
	startLine := s.line
	bodyStart := s.pos + len(IntentStart)
	end := strings.Index(s.src[bodyStart:], IntentEnd)
	if end < 0 {
		return &impediment.TokenError{
			Line:    startLine,
			Snippet: impediment.SourceLine(s.src, startLine),
			Message: fmt.Sprintf("Missing %s for %s at line %d", IntentEnd, IntentStart, startLine),
		}
	}
	body := s.src[bodyStart : bodyStart+end]
	s.emit(Keyword, IntentStart, len(IntentStart))
	if strings.TrimSpace(body) != "" {
		s.emit(Text, body, 0)
	}
	s.pos = bodyStart + end
	s.line += strings.Count(body, "\n")
	s.emit(Keyword, IntentEnd, len(IntentEnd))
	return nil
}

func (s *scanner) previousEndsOperand() bool {
	if len(s.tokens) == 0 {
		return false
	}
	prev := s.tokens[len(s.tokens)-1]
	switch prev.Kind {
	case Numeric, Text, Variable, Logical, Null, This:
		return true
	case GroupDivider:
		return prev.Text == "]" || prev.Text == "}"
	case Operator:
		return prev.Text == ")"
	default:
		return false
	}
}

// boundaryAt reports whether a keyword of length n is followed by whitespace
// or the end of input.
func boundaryAt(s string, n int) bool {
	if n >= len(s) {
		return true
	}
	switch s[n] {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func wordEndAt(s string, n int) bool {
	if n >= len(s) {
		return true
	}
	c := s[n]
	return !(c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z')
}

func sortLongestFirst(items []string) []string {
	out := append([]string(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i]) > len(out[j])
	})
	return out
}
