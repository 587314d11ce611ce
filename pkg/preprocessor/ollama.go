package preprocessor

import (
	"context"
	"strings"
)

// Ollama calls a local Ollama server.
type Ollama struct {
	URL         string
	Model       string
	Temperature float64
	http        httpClient
}

func NewOllama(cfg Config) *Ollama {
	return &Ollama{
		URL:         strings.TrimRight(cfg.OllamaURL, "/"),
		Model:       cfg.OllamaModel,
		Temperature: cfg.OllamaTemperature,
		http:        newHTTPClient("Ollama", cfg.Timeout, nil),
	}
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func (p *Ollama) GenerateCode(ctx context.Context, intent string) (string, error) {
	var resp generateResponse
	err := p.http.postJSON(ctx, p.URL+"/api/generate", generateRequest{
		Model:   p.Model,
		Prompt:  BuildPrompt(intent),
		Options: map[string]any{"temperature": p.Temperature},
	}, &resp)
	if err != nil {
		return "", err
	}
	return CleanGeneratedCode(resp.Response), nil
}

func (p *Ollama) Available(ctx context.Context) bool {
	return p.http.get(ctx, p.URL+"/api/tags") == nil
}

func (p *Ollama) Name() string {
	return "Ollama (" + p.Model + ")"
}
