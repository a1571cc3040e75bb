package web_search

import (
	"context"
	"errors"
	"time"

	"trendscout/tools/web_search/brave"
	"trendscout/tools/web_search/models"
	"trendscout/tools/web_search/tavily"
)

// WebSearcher is the search capability the trend engine consumes. An empty
// API key should be handled by the caller: the engine degrades to an empty
// trend list when the provider fails.
type WebSearcher interface {
	Search(ctx context.Context, req models.Request) ([]models.Result, error)
}

type Provider string

const (
	TavilyProvider Provider = "tavily"
	BraveProvider  Provider = "brave"
)

var ErrUnsupportedProvider = errors.New("unsupported search provider")

func NewWebSearcher(provider Provider, apiKey string, timeout time.Duration) (WebSearcher, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	switch provider {
	case TavilyProvider:
		return tavily.Search{ApiKey: apiKey, Timeout: timeout}, nil
	case BraveProvider:
		return brave.Search{ApiKey: apiKey, Timeout: timeout}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}
