package registry

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// The registry always carries these categories, even when empty, so a scout
// run with no remote registry still has the shape it expects.
var knownCategories = []string{
	"tech_news",
	"reddit_sub",
	"security_news",
	"ml_ai_news",
	"dev_blog",
	"open_source",
}

// Registry maps feed categories to their feed URLs. Categories outside the
// known set are accepted and appended dynamically.
type Registry map[string][]string

func emptyRegistry() Registry {
	reg := make(Registry, len(knownCategories))
	for _, c := range knownCategories {
		reg[c] = nil
	}
	return reg
}

// Loader fetches the category,URL table from the configured CSV endpoint.
type Loader struct {
	URL     string
	Timeout time.Duration
	Client  *http.Client // optional
	Logger  *log.Logger  // optional
}

func NewLoader(url string, timeout time.Duration) *Loader {
	return &Loader{URL: url, Timeout: timeout}
}

func (l *Loader) logger() *log.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return log.New(log.Writer(), "[REGISTRY] ", log.LstdFlags)
}

// Load returns the feed registry. A missing endpoint or fetch failure yields
// the empty registry: scouting then degrades to the reddit search feeds only.
func (l *Loader) Load(ctx context.Context) Registry {
	logger := l.logger()
	if l.URL == "" {
		logger.Printf("no registry url configured, using empty registry")
		return emptyRegistry()
	}
	reg, count, err := l.fetch(ctx)
	if err != nil {
		logger.Printf("failed to load feed registry: %v", err)
		return emptyRegistry()
	}
	logger.Printf("loaded %d feeds from registry", count)
	return reg
}

func (l *Loader) fetch(ctx context.Context) (Registry, int, error) {
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", l.URL, nil)
	if err != nil {
		return nil, 0, err
	}
	client := l.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("parse csv: %w", err)
	}

	reg := emptyRegistry()
	count := 0
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		category := strings.TrimSpace(row[0])
		url := strings.TrimSpace(row[1])
		// Tolerate a header row.
		if i == 0 && strings.EqualFold(category, "category") {
			continue
		}
		if url == "" || !strings.HasPrefix(url, "http") {
			continue
		}
		reg[category] = append(reg[category], url)
		count++
	}
	return reg, count, nil
}

// SourceLabel maps a registry category to the coarse source stored with each
// article. Substring rules, first match wins.
func SourceLabel(category string) string {
	switch {
	case strings.Contains(category, "reddit"):
		return "Reddit"
	case strings.Contains(category, "security"):
		return "Security"
	case strings.Contains(category, "ai"), strings.Contains(category, "ml"):
		return "AI/ML"
	case strings.Contains(category, "blog"):
		return "Blog"
	case strings.Contains(category, "open_source"):
		return "Open Source"
	default:
		return "News"
	}
}
