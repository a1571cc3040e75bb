package openai_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const openaiAPIURL = "https://api.openai.com/v1/chat/completions"

// TrendCandidate is the schema the model is constrained to emit.
type TrendCandidate struct {
	Name    string `json:"name"`
	Context string `json:"context"`
}

// client implements the provider interface using OpenAI's API
type client struct {
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

// Message represents a message in a conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model          string         `json:"model"`
	Messages       []Message      `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_completion_tokens,omitempty"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type       string     `json:"type"`
	JSONSchema jsonSchema `json:"json_schema"`
}

type jsonSchema struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// trendSchema constrains the completion to {"trends": [{name, context}...]}.
// Strict structured outputs require a top-level object.
var trendSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "trends": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "context": {"type": "string"}
        },
        "required": ["name", "context"],
        "additionalProperties": false
      }
    }
  },
  "required": ["trends"],
  "additionalProperties": false
}`)

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(apiKey, model string, temperature float64, maxTokens int, timeout time.Duration) *client {
	return &client{
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// SynthesizeTrends sends the prompt with a strict JSON schema response format
// and parses the constrained output. Any schema or JSON mismatch surfaces as
// an error; callers treat it like any other upstream failure.
func (c *client) SynthesizeTrends(ctx context.Context, systemInstruction, prompt string, maxItems int) ([]TrendCandidate, error) {
	reqBody := request{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		ResponseFormat: responseFormat{
			Type:       "json_schema",
			JSONSchema: jsonSchema{Name: "trend_candidates", Strict: true, Schema: trendSchema},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", openaiAPIURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status: %d", resp.StatusCode)
	}

	var openaiResp response
	if err := json.NewDecoder(resp.Body).Decode(&openaiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(openaiResp.Choices) == 0 {
		return nil, fmt.Errorf("no completion choices returned")
	}

	var parsed struct {
		Trends []TrendCandidate `json:"trends"`
	}
	if err := json.Unmarshal([]byte(openaiResp.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("completion is not valid candidate JSON: %w", err)
	}
	return validate(parsed.Trends, maxItems)
}

func validate(candidates []TrendCandidate, maxItems int) ([]TrendCandidate, error) {
	for _, c := range candidates {
		if c.Name == "" || c.Context == "" {
			return nil, fmt.Errorf("candidate with empty name or context")
		}
	}
	if maxItems > 0 && len(candidates) > maxItems {
		candidates = candidates[:maxItems]
	}
	return candidates, nil
}
