package preprocessor

import (
	"context"
	"errors"
	"strings"
)

// OpenAICompatible talks to any chat-completions endpoint: OpenAI, Groq,
// Cerebras, Together and self-hosted gateways.
type OpenAICompatible struct {
	BaseURL     string
	Model       string
	Temperature float64
	http        httpClient
	apiKey      string
}

func NewOpenAICompatible(cfg Config) *OpenAICompatible {
	base := strings.TrimRight(cfg.APIBaseURL, "/")
	return &OpenAICompatible{
		BaseURL:     base,
		Model:       cfg.APIModel,
		Temperature: cfg.APITemperature,
		apiKey:      cfg.APIKey,
		http:        newHTTPClient(openAIName(base), cfg.Timeout, map[string]string{"Authorization": "Bearer " + cfg.APIKey}),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (p *OpenAICompatible) GenerateCode(ctx context.Context, intent string) (string, error) {
	if p.apiKey == "" {
		return "", errors.New("API key not configured; set SCRUM_API_KEY")
	}
	var resp chatResponse
	err := p.http.postJSON(ctx, p.BaseURL+"/chat/completions", chatRequest{
		Model:       p.Model,
		Messages:    []chatMessage{{Role: "user", Content: BuildPrompt(intent)}},
		Temperature: p.Temperature,
		MaxTokens:   2000,
	}, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(p.Name() + ": response has no choices")
	}
	return CleanGeneratedCode(resp.Choices[0].Message.Content), nil
}

func (p *OpenAICompatible) Available(ctx context.Context) bool {
	return p.apiKey != "" && p.http.get(ctx, p.BaseURL+"/models") == nil
}

func (p *OpenAICompatible) Name() string {
	return p.http.name
}

func openAIName(base string) string {
	switch {
	case strings.Contains(base, "groq"):
		return "Groq"
	case strings.Contains(base, "cerebras"):
		return "Cerebras"
	case strings.Contains(base, "together"):
		return "Together.ai"
	case strings.Contains(base, "openai"):
		return "OpenAI"
	default:
		return "OpenAI-compatible API"
	}
}
