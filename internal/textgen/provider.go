// Package textgen wraps the external text-generation service. Provider
// failures never escape as errors from Client methods: they come back on a
// Result, or as a deterministic fallback for the structured helpers.
package textgen

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Params are the generation parameters passed to the provider.
// A nil Temperature takes the client default; Temp(0) asks for greedy decoding.
type Params struct {
	Temperature *float32
	MaxTokens   int32
	// JSON asks the provider for a JSON document instead of prose.
	JSON bool
}

// Provider is a prompt-in/text-out generation backend.
type Provider interface {
	Generate(ctx context.Context, prompt string, p Params) (string, error)
}

// GeminiProvider calls Google Gemini through the genai SDK.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

func (g *GeminiProvider) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     p.Temperature,
		MaxOutputTokens: p.MaxTokens,
	}
	if p.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("gemini blocked prompt: %s", resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("gemini returned no candidates")
	}
	return strings.TrimSpace(resp.Text()), nil
}

func (g *GeminiProvider) Model() string {
	return g.model
}
