package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"trendscout/tools/web_search/models"
)

const apiURL = "https://api.tavily.com/search"

// Each source contributes up to this many content chunks.
const chunksPerSource = 5

type Search struct {
	ApiKey  string
	Timeout time.Duration
}

func (s Search) Search(ctx context.Context, req models.Request) ([]models.Result, error) {
	// https://docs.tavily.com/documentation/api-reference/endpoint/search
	body := map[string]interface{}{
		"query":             req.Query,
		"search_depth":      req.Depth,
		"max_results":       req.MaxResults,
		"chunks_per_source": chunksPerSource,
	}
	if req.Topic != "" {
		body["topic"] = req.Topic
	}
	if req.TimeRange != "" {
		body["time_range"] = req.TimeRange
	}
	if len(req.IncludeDomains) > 0 {
		body["include_domains"] = req.IncludeDomains
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("tavily: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("tavily: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.ApiKey)

	client := &http.Client{Timeout: s.Timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tavily: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily: unexpected status %d", resp.StatusCode)
	}

	var raw struct {
		Results []struct {
			Title   string  `json:"title"`
			URL     string  `json:"url"`
			Content string  `json:"content"`
			Score   float64 `json:"score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("tavily: decode response: %w", err)
	}

	out := make([]models.Result, 0, len(raw.Results))
	for i, r := range raw.Results {
		if req.MaxResults > 0 && i >= req.MaxResults {
			break
		}
		out = append(out, models.Result{Title: r.Title, URL: r.URL, Score: r.Score, Content: r.Content})
	}
	return out, nil
}
