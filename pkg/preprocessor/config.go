package preprocessor

import (
	"strings"
	"time"

	"github.com/xyproto/env/v2"
)

// Config holds the LLM settings for intent preprocessing.
type Config struct {
	Provider      string
	FallbackChain []string

	APIKey         string
	APIBaseURL     string
	APIModel       string
	APITemperature float64

	OllamaURL         string
	OllamaModel       string
	OllamaTemperature float64

	GeminiAPIKey string
	GeminiModel  string

	Timeout time.Duration

	// set when the corresponding value came from the environment
	baseURLSet bool
	modelSet   bool
}

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultModel       = "gpt-4o-mini"
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llama3.2"
	defaultGeminiModel = "gemini-2.0-flash"
	defaultTemperature = 0.3
	defaultTimeoutSecs = 120
)

// LoadConfig reads the SCRUM_* environment variables, falling back to the
// documented defaults. Lookups go through env's snapshot of the process
// environment, so later os.Setenv calls need env.Load to be seen.
func LoadConfig() Config {
	return Config{
		Provider:      env.Str("SCRUM_LLM_PROVIDER", "auto"),
		FallbackChain: splitChain(env.Str("SCRUM_LLM_FALLBACK_CHAIN", "auto,groq,ollama")),

		APIKey:         env.Str("SCRUM_API_KEY"),
		APIBaseURL:     env.Str("SCRUM_API_BASE_URL", defaultBaseURL),
		APIModel:       env.Str("SCRUM_API_MODEL", defaultModel),
		APITemperature: env.Float64("SCRUM_API_TEMPERATURE", defaultTemperature),

		OllamaURL:         env.Str("SCRUM_OLLAMA_URL", defaultOllamaURL),
		OllamaModel:       env.Str("SCRUM_OLLAMA_MODEL", defaultOllamaModel),
		OllamaTemperature: env.Float64("SCRUM_OLLAMA_TEMPERATURE", defaultTemperature),

		GeminiAPIKey: env.StrAlt("SCRUM_GEMINI_API_KEY", "GEMINI_API_KEY"),
		GeminiModel:  env.Str("SCRUM_GEMINI_MODEL", defaultGeminiModel),

		Timeout: time.Duration(env.Int("SCRUM_LLM_TIMEOUT", defaultTimeoutSecs)) * time.Second,

		baseURLSet: env.Has("SCRUM_API_BASE_URL"),
		modelSet:   env.Has("SCRUM_API_MODEL"),
	}
}

// Override applies project manifest settings on top of the environment.
// Empty values leave the current setting alone.
func (c *Config) Override(provider string, chain []string, model string, timeoutSecs int) {
	if provider != "" {
		c.Provider = provider
	}
	if len(chain) > 0 {
		c.FallbackChain = chain
	}
	if model != "" {
		c.APIModel = model
		c.modelSet = true
	}
	if timeoutSecs > 0 {
		c.Timeout = time.Duration(timeoutSecs) * time.Second
	}
}

func splitChain(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}
