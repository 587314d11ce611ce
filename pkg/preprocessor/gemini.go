package preprocessor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Gemini generates code through the Google generative AI client.
type Gemini struct {
	Model       string
	Temperature float32
	Timeout     time.Duration
	apiKey      string
	opts        []option.ClientOption
}

func NewGemini(cfg Config, opts ...option.ClientOption) *Gemini {
	return &Gemini{
		Model:       cfg.GeminiModel,
		Temperature: float32(cfg.APITemperature),
		Timeout:     cfg.Timeout,
		apiKey:      cfg.GeminiAPIKey,
		opts:        opts,
	}
}

func (p *Gemini) client(ctx context.Context) (*genai.Client, error) {
	if p.apiKey == "" {
		return nil, errors.New("Gemini API key not configured; set SCRUM_GEMINI_API_KEY or GEMINI_API_KEY")
	}
	opts := append([]option.ClientOption{option.WithAPIKey(p.apiKey)}, p.opts...)
	return genai.NewClient(ctx, opts...)
}

func (p *Gemini) GenerateCode(ctx context.Context, intent string) (string, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	client, err := p.client(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(p.Model)
	model.SetTemperature(p.Temperature)
	resp, err := model.GenerateContent(ctx, genai.Text(BuildPrompt(intent)))
	if err != nil {
		return "", geminiError(err)
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		break
	}
	if b.Len() == 0 {
		return "", errors.New("Gemini: response has no text")
	}
	return CleanGeneratedCode(b.String()), nil
}

func (p *Gemini) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, availabilityTimeout)
	defer cancel()
	client, err := p.client(ctx)
	if err != nil {
		return false
	}
	defer client.Close()
	_, err = client.ListModels(ctx).Next()
	return err == nil || errors.Is(err, iterator.Done)
}

func (p *Gemini) Name() string {
	return "Gemini (" + p.Model + ")"
}

func geminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return statusError("Gemini", apiErr.Code, apiErr.Message)
	}
	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "quota"):
		return &QuotaError{Provider: "Gemini", Detail: err.Error()}
	case strings.Contains(lower, "resource exhausted") || strings.Contains(lower, "resourceexhausted"):
		return &RateLimitError{Provider: "Gemini", Detail: err.Error()}
	}
	return fmt.Errorf("Gemini request failed: %w", err)
}
