package preprocessor

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoProviders is returned by Chain when nothing in the fallback chain can
// be reached.
var ErrNoProviders = errors.New("no LLM providers available; set SCRUM_API_KEY or start Ollama with `ollama pull llama3.2`")

const (
	anthropicBaseURL = "https://api.anthropic.com"
	anthropicModel   = "claude-sonnet-4-20250514"
	groqBaseURL      = "https://api.groq.com/openai/v1"
	groqModel        = "llama-3.3-70b-versatile"
)

// NewProvider builds the provider registered under name. "auto" picks one
// from the API key prefix.
func NewProvider(name string, cfg Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "auto":
		return detectProvider(cfg), nil
	case "api", "openai", "cerebras", "together":
		return NewOpenAICompatible(cfg), nil
	case "groq":
		return NewOpenAICompatible(cfg.withDefaults(groqBaseURL, groqModel)), nil
	case "anthropic", "claude":
		return NewAnthropic(cfg.withDefaults(anthropicBaseURL, anthropicModel)), nil
	case "ollama":
		return NewOllama(cfg), nil
	case "gemini", "google":
		return NewGemini(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q (supported: auto, api, openai, groq, cerebras, together, anthropic, claude, ollama, gemini)", name)
	}
}

func detectProvider(cfg Config) Provider {
	key := cfg.APIKey
	switch {
	case strings.HasPrefix(key, "sk-ant-"):
		return NewAnthropic(cfg.withDefaults(anthropicBaseURL, anthropicModel))
	case strings.HasPrefix(key, "gsk_"):
		return NewOpenAICompatible(cfg.withDefaults(groqBaseURL, groqModel))
	case strings.HasPrefix(key, "sk-"):
		return NewOpenAICompatible(cfg)
	case key == "" && cfg.GeminiAPIKey != "":
		return NewGemini(cfg)
	case key == "":
		return NewOllama(cfg)
	default:
		return NewOpenAICompatible(cfg)
	}
}

// withDefaults swaps in a provider's base URL and model unless they were
// configured explicitly.
func (c Config) withDefaults(baseURL, model string) Config {
	if !c.baseURLSet {
		c.APIBaseURL = baseURL
	}
	if !c.modelSet {
		c.APIModel = model
	}
	return c
}

// Chain builds the providers named by the fallback chain in order, dropping
// duplicates, unknown names and providers that are not reachable.
func Chain(ctx context.Context, cfg Config) ([]Provider, error) {
	names := cfg.FallbackChain
	if len(names) == 0 {
		names = []string{cfg.Provider}
	}
	seen := make(map[string]bool)
	var out []Provider
	for _, name := range names {
		p, err := NewProvider(name, cfg)
		if err != nil || seen[p.Name()] {
			continue
		}
		seen[p.Name()] = true
		if p.Available(ctx) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w (chain: %s)", ErrNoProviders, strings.Join(names, ","))
	}
	return out, nil
}
