package provider

import (
	"context"
	"errors"
	"time"

	openai_provider "trendscout/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
	Gemini    Client = "gemini"
)

// TrendCandidate is one {name, context} pair extracted by the LLM. It is not
// yet a models.Trend: the engine attaches parent details, status and the
// store-assigned id.
type TrendCandidate = openai_provider.TrendCandidate

// Provider is the interface all LLM implementations must satisfy. The call
// requests machine-validated JSON conforming to the candidate schema and
// returns an error on malformed output.
type Provider interface {
	SynthesizeTrends(ctx context.Context, systemInstruction, prompt string, maxItems int) ([]TrendCandidate, error)
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(client Client, apiKey, model string, temperature float64, maxTokens int, timeout time.Duration) (Provider, error) {
	switch client {
	case OpenAI:
		if apiKey == "" {
			return nil, errors.New("openai api key not set")
		}
		return openai_provider.NewOpenAIClient(apiKey, model, temperature, maxTokens, timeout), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	case Gemini:
		return nil, errors.New("gemini client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
