package preprocessor

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Provider turns a natural-language intent into SCRUM source.
type Provider interface {
	GenerateCode(ctx context.Context, intent string) (string, error)
	Available(ctx context.Context) bool
	Name() string
}

// QuotaError reports that a provider has run out of credits. The chain moves
// on to the next provider.
type QuotaError struct {
	Provider string
	Detail   string
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s quota exceeded: %s", e.Provider, e.Detail)
}

// RateLimitError reports that a provider throttled the request. The chain
// moves on to the next provider.
type RateLimitError struct {
	Provider string
	Detail   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limit exceeded: %s", e.Provider, e.Detail)
}

// statusError maps a failed HTTP exchange onto the provider error kinds.
func statusError(provider string, status int, body string) error {
	switch status {
	case 429:
		return &RateLimitError{Provider: provider, Detail: body}
	case 402:
		return &QuotaError{Provider: provider, Detail: body}
	}
	lower := strings.ToLower(body)
	switch {
	case containsAny(lower, "quota", "insufficient_quota", "billing", "credits"):
		return &QuotaError{Provider: provider, Detail: body}
	case containsAny(lower, "rate_limit", "rate limit", "too many requests"):
		return &RateLimitError{Provider: provider, Detail: body}
	}
	return fmt.Errorf("%s request failed with status %d: %s", provider, status, body)
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

var fencePattern = regexp.MustCompile("```[A-Za-z]*[ \t]*\r?\n?")

// CleanGeneratedCode strips markdown code fences and surrounding whitespace.
func CleanGeneratedCode(code string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(code, ""))
}
