package preprocessor

import (
	"context"
	"errors"
	"strings"
)

const anthropicVersion = "2023-06-01"

// Anthropic calls the Messages API.
type Anthropic struct {
	BaseURL     string
	Model       string
	Temperature float64
	http        httpClient
	apiKey      string
}

func NewAnthropic(cfg Config) *Anthropic {
	return &Anthropic{
		BaseURL:     strings.TrimRight(cfg.APIBaseURL, "/"),
		Model:       cfg.APIModel,
		Temperature: cfg.APITemperature,
		apiKey:      cfg.APIKey,
		http: newHTTPClient("Anthropic", cfg.Timeout, map[string]string{
			"x-api-key":         cfg.APIKey,
			"anthropic-version": anthropicVersion,
		}),
	}
}

type messagesRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature,omitempty"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (p *Anthropic) GenerateCode(ctx context.Context, intent string) (string, error) {
	if p.apiKey == "" {
		return "", errors.New("API key not configured; set SCRUM_API_KEY")
	}
	var resp messagesResponse
	err := p.http.postJSON(ctx, p.BaseURL+"/v1/messages", messagesRequest{
		Model:       p.Model,
		Messages:    []chatMessage{{Role: "user", Content: BuildPrompt(intent)}},
		MaxTokens:   2000,
		Temperature: p.Temperature,
	}, &resp)
	if err != nil {
		return "", err
	}
	for _, block := range resp.Content {
		if block.Type == "" || block.Type == "text" {
			return CleanGeneratedCode(block.Text), nil
		}
	}
	return "", errors.New("Anthropic: response has no text content")
}

// Available sends a tiny message; the API has no cheaper authenticated check.
func (p *Anthropic) Available(ctx context.Context) bool {
	if p.apiKey == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, availabilityTimeout)
	defer cancel()
	err := p.http.postJSON(ctx, p.BaseURL+"/v1/messages", messagesRequest{
		Model:     p.Model,
		Messages:  []chatMessage{{Role: "user", Content: "Hi"}},
		MaxTokens: 10,
	}, nil)
	return err == nil
}

func (p *Anthropic) Name() string {
	return "Anthropic Claude (" + p.Model + ")"
}
