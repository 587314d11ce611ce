// Package preprocessor replaces #INTENT blocks with SCRUM code generated by a
// chain of LLM providers before a program runs.
package preprocessor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"scrum/interpreter-go/pkg/ast"
	"scrum/interpreter-go/pkg/impediment"
	"scrum/interpreter-go/pkg/parser"
	"scrum/interpreter-go/pkg/runtime"
)

// DefaultMaxRetries is the number of attempts each provider gets per intent.
const DefaultMaxRetries = 3

// ErrProvidersExhausted means no provider produced code that parses.
var ErrProvidersExhausted = errors.New("unable to translate intent to valid SCRUM code after trying all providers")

// GenerationError wraps a provider failure that stops preprocessing.
type GenerationError struct {
	Provider string
	Intent   string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("failed to generate code from %s for intent %q: %v", e.Provider, truncate(e.Intent, 100), e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Preprocessor walks a program and splices generated statements in place of
// every intent block.
type Preprocessor struct {
	Providers  []Provider
	MaxRetries int
	// Status receives progress lines such as provider fallbacks. Nil discards them.
	Status io.Writer

	failed map[string]bool
	config *Config
}

func New(providers ...Provider) *Preprocessor {
	return &Preprocessor{Providers: providers, MaxRetries: DefaultMaxRetries}
}

// FromConfig returns a preprocessor that builds its provider chain from cfg
// the first time it meets a program holding an intent.
func FromConfig(cfg Config, status io.Writer) *Preprocessor {
	return &Preprocessor{MaxRetries: DefaultMaxRetries, Status: status, config: &cfg}
}

// Process rewrites program in place. Definitions in generated code are
// registered in the intent's definition scope.
func (p *Preprocessor) Process(ctx context.Context, program *ast.Block, defs *runtime.Definitions) error {
	if !HasIntents(program) {
		return nil
	}
	if len(p.Providers) == 0 && p.config != nil {
		providers, err := Chain(ctx, *p.config)
		if err != nil {
			return err
		}
		p.Providers = providers
		names := make([]string, len(providers))
		for i, provider := range providers {
			names[i] = provider.Name()
		}
		p.statusf("Using LLM providers: %s\n", strings.Join(names, " -> "))
	}
	if p.failed == nil {
		p.failed = make(map[string]bool)
	}
	return p.rewrite(ctx, program, defs)
}

func (p *Preprocessor) rewrite(ctx context.Context, block *ast.Block, defs *runtime.Definitions) error {
	if block == nil {
		return nil
	}
	out := make([]ast.Statement, 0, len(block.Statements))
	for _, stmt := range block.Statements {
		intent, ok := stmt.(*ast.IntentBlock)
		if !ok {
			for _, child := range childBlocks(stmt) {
				if err := p.rewrite(ctx, child, defs); err != nil {
					return err
				}
			}
			out = append(out, stmt)
			continue
		}
		generated, err := p.translate(ctx, intent, defs)
		if err != nil {
			return err
		}
		out = append(out, generated.Statements...)
	}
	block.Statements = out
	return nil
}

// translate tries every provider in order. Syntax problems are retried with
// the parse error appended to the prompt; quota and rate-limit errors move to
// the next provider; anything else aborts.
func (p *Preprocessor) translate(ctx context.Context, intent *ast.IntentBlock, defs *runtime.Definitions) (*ast.Block, error) {
	retries := p.MaxRetries
	if retries <= 0 {
		retries = DefaultMaxRetries
	}
	var lastErr error
	for _, provider := range p.Providers {
		name := provider.Name()
		if p.failed[name] {
			continue
		}
		prompt := intent.Text
		for attempt := 1; attempt <= retries; attempt++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			code, err := provider.GenerateCode(ctx, prompt)
			if err != nil {
				if isFallthrough(err) {
					p.failed[name] = true
					lastErr = err
					p.statusf("Provider %s failed with: %v\nTrying next provider in fallback chain...\n", name, err)
					break
				}
				return nil, &GenerationError{Provider: name, Intent: intent.Text, Err: err}
			}
			code = CleanGeneratedCode(code)
			// Attempts parse in a throwaway child scope so a rejected reply
			// leaves no definitions behind in the intent's scope.
			_, err = parser.ParseSource(code, defs, defs.NewScope(intent.Scope))
			if err == nil {
				return parser.ParseSource(code, defs, intent.Scope)
			}
			if !isSyntaxFailure(err) {
				return nil, err
			}
			lastErr = err
			prompt = retryPrompt(intent.Text, err)
			if attempt == retries {
				p.statusf("Provider %s failed after %d attempts to generate valid syntax. Trying next provider...\n", name, retries)
			}
		}
	}
	if lastErr == nil {
		return nil, fmt.Errorf("%w: intent %q: no providers configured", ErrProvidersExhausted, truncate(intent.Text, 200))
	}
	return nil, fmt.Errorf("%w: intent %q: %w", ErrProvidersExhausted, truncate(intent.Text, 200), lastErr)
}

func (p *Preprocessor) statusf(format string, args ...any) {
	if p.Status != nil {
		fmt.Fprintf(p.Status, format, args...)
	}
}

// HasIntents reports whether any block reachable from program holds an
// intent block.
func HasIntents(program *ast.Block) bool {
	if program == nil {
		return false
	}
	for _, stmt := range program.Statements {
		if _, ok := stmt.(*ast.IntentBlock); ok {
			return true
		}
		for _, child := range childBlocks(stmt) {
			if HasIntents(child) {
				return true
			}
		}
	}
	return false
}

func childBlocks(stmt ast.Statement) []*ast.Block {
	switch s := stmt.(type) {
	case *ast.Block:
		return []*ast.Block{s}
	case *ast.Condition:
		blocks := make([]*ast.Block, 0, len(s.Cases))
		for _, c := range s.Cases {
			blocks = append(blocks, c.Body)
		}
		return blocks
	case *ast.CountedLoop:
		return []*ast.Block{s.Body}
	case *ast.IterateLoop:
		return []*ast.Block{s.Body}
	case *ast.WhileLoop:
		return []*ast.Block{s.Body}
	case *ast.ClassDeclaration:
		return []*ast.Block{s.Body}
	case *ast.FunctionDeclaration:
		return []*ast.Block{s.Body}
	case *ast.ApiDeclaration:
		return []*ast.Block{s.Body}
	case *ast.Endpoint:
		if s.Handler != nil {
			return []*ast.Block{s.Handler}
		}
	}
	return nil
}

func isFallthrough(err error) bool {
	var quota *QuotaError
	var rate *RateLimitError
	return errors.As(err, &quota) || errors.As(err, &rate)
}

func isSyntaxFailure(err error) bool {
	var tokenErr *impediment.TokenError
	var syntaxErr *impediment.SyntaxError
	return errors.As(err, &tokenErr) || errors.As(err, &syntaxErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
