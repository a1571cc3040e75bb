package readability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	goreadability "github.com/go-shiori/go-readability"

	"trendscout/tools/web_fetch/models"
	"trendscout/utils"
)

// Fetch downloads a page over plain HTTP and extracts its main text with
// readability, stripping navigation and boilerplate. Feed summaries link to
// static article pages, so no browser rendering is involved.
type Fetch struct {
	Timeout   time.Duration
	MaxChars  int
	UserAgent string
	Client    *http.Client // optional; defaults to a client with Timeout
}

func (f Fetch) Exec(ctx context.Context, rawURL string) (models.Result, error) {
	if strings.TrimSpace(rawURL) == "" {
		return models.Result{}, errors.New("invalid url")
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return models.Result{}, err
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: f.Timeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return models.Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Result{URL: rawURL, Status: resp.StatusCode}, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	article, err := goreadability.FromReader(resp.Body, mustParseURL(rawURL))
	if err != nil {
		return models.Result{URL: rawURL, Status: resp.StatusCode}, fmt.Errorf("extract %s: %w", rawURL, err)
	}

	text := utils.Truncate(strings.TrimSpace(article.TextContent), f.MaxChars)
	return models.Result{
		URL:    rawURL,
		Title:  strings.TrimSpace(article.Title),
		Text:   text,
		Status: resp.StatusCode,
	}, nil
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
