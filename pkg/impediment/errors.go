package impediment

import (
	"errors"
	"fmt"
	"strings"
)

// Code identifies a class of impediment in reports.
type Code string

const (
	CodeRuntimeArith     Code = "SCRUM_RUNTIME_ARITH_001"
	CodeRuntimeName      Code = "SCRUM_RUNTIME_NAME_001"
	CodeRuntimeType      Code = "SCRUM_RUNTIME_TYPE_001"
	CodeRuntimeIteration Code = "SCRUM_RUNTIME_ITERATION_001"
	CodeRuntimeProperty  Code = "SCRUM_RUNTIME_PROPERTY_001"
	CodeRuntimeUnknown   Code = "SCRUM_RUNTIME_UNKNOWN_001"

	CodeSyntaxToken      Code = "SCRUM_SYNTAX_TOKEN_001"
	CodeSyntaxStructure  Code = "SCRUM_SYNTAX_STRUCTURE_001"
	CodeSyntaxEndpoint   Code = "SCRUM_SYNTAX_ENDPOINT_001"
	CodeSyntaxExpression Code = "SCRUM_SYNTAX_EXPRESSION_001"
	CodeSyntaxUnexpected Code = "SCRUM_SYNTAX_UNEXPECTED_001"
	CodeSyntaxUnknown    Code = "SCRUM_SYNTAX_UNKNOWN_001"
)

// String renders the code the way reports print it (SCRUM-RUNTIME-ARITH-001).
func (c Code) String() string {
	return strings.ReplaceAll(string(c), "_", "-")
}

// Description returns a one-line explanation of the code.
func (c Code) Description() string {
	switch c {
	case CodeRuntimeArith:
		return "Arithmetic impediment (division by zero, overflow, etc.)"
	case CodeRuntimeName:
		return "Missing or undefined value impediment"
	case CodeRuntimeType:
		return "Type mismatch impediment"
	case CodeRuntimeIteration:
		return "Iteration impediment (non-iterable value)"
	case CodeRuntimeProperty:
		return "Property access impediment"
	case CodeSyntaxToken:
		return "Unrecognized token or character"
	case CodeSyntaxStructure:
		return "Misplaced or unfinished EPIC or USER STORY"
	case CodeSyntaxEndpoint:
		return "Invalid API endpoint definition"
	case CodeSyntaxExpression:
		return "Invalid expression or operator"
	case CodeSyntaxUnexpected:
		return "Unexpected token in context"
	case CodeSyntaxUnknown:
		return "Uncategorized syntax impediment"
	default:
		return "Uncategorized runtime impediment"
	}
}

// Category classifies runtime errors by cause.
type Category int

const (
	Unknown Category = iota
	Arithmetic
	Name
	Type
	Iteration
	Property
)

func (c Category) String() string {
	switch c {
	case Arithmetic:
		return "arithmetic"
	case Name:
		return "name"
	case Type:
		return "type"
	case Iteration:
		return "iteration"
	case Property:
		return "property"
	default:
		return "unknown"
	}
}

// Code maps the category onto its runtime impediment code.
func (c Category) Code() Code {
	switch c {
	case Arithmetic:
		return CodeRuntimeArith
	case Name:
		return CodeRuntimeName
	case Type:
		return CodeRuntimeType
	case Iteration:
		return CodeRuntimeIteration
	case Property:
		return CodeRuntimeProperty
	default:
		return CodeRuntimeUnknown
	}
}

// TokenError reports a lexical failure.
type TokenError struct {
	Line    int
	Snippet string
	Message string
}

func (e *TokenError) Error() string {
	return e.Message
}

// Code always reports the token impediment code.
func (e *TokenError) Code() Code {
	return CodeSyntaxToken
}

// SyntaxError reports a parser failure at a token.
type SyntaxError struct {
	Line    int
	Token   string
	Kind    string
	Snippet string
	Message string
	Code    Code
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// RuntimeError reports a failure raised while executing a program.
type RuntimeError struct {
	Category Category
	Line     int
	Snippet  string
	Epic     string
	Story    string
	Message  string
	Err      error
}

// NewRuntimeError builds an error with a formatted message and no location yet.
func NewRuntimeError(category Category, format string, args ...any) *RuntimeError {
	return &RuntimeError{Category: category, Message: fmt.Sprintf(format, args...)}
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// Code reports the impediment code of the error's category.
func (e *RuntimeError) Code() Code {
	return e.Category.Code()
}

// AttachSource fills missing snippets on token and syntax errors from the
// source text. Other errors are returned unchanged.
func AttachSource(err error, source string) error {
	var tokenErr *TokenError
	if errors.As(err, &tokenErr) && tokenErr.Snippet == "" {
		tokenErr.Snippet = SourceLine(source, tokenErr.Line)
	}
	var syntaxErr *SyntaxError
	if errors.As(err, &syntaxErr) && syntaxErr.Snippet == "" {
		syntaxErr.Snippet = SourceLine(source, syntaxErr.Line)
	}
	var runtimeErr *RuntimeError
	if errors.As(err, &runtimeErr) && runtimeErr.Snippet == "" {
		runtimeErr.Snippet = SourceLine(source, runtimeErr.Line)
	}
	return err
}

// SourceLine returns the trimmed text of a 1-based line, or "" when out of range.
func SourceLine(source string, line int) string {
	if line <= 0 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[line-1])
}

// Exit codes used by the command line.
const (
	ExitOK      = 0
	ExitRuntime = 1
	ExitSyntax  = 2
	ExitUsage   = 64
)

// ExitCode maps an error onto the process exit code policy.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var tokenErr *TokenError
	var syntaxErr *SyntaxError
	if errors.As(err, &tokenErr) || errors.As(err, &syntaxErr) {
		return ExitSyntax
	}
	return ExitRuntime
}
