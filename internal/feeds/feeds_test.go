package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	fetchmodels "trendscout/tools/web_fetch/models"
)

type fakeFetcher struct {
	text    string
	err     error
	fetched []string
}

func (f *fakeFetcher) Exec(_ context.Context, url string) (fetchmodels.Result, error) {
	f.fetched = append(f.fetched, url)
	if f.err != nil {
		return fetchmodels.Result{}, f.err
	}
	return fetchmodels.Result{URL: url, Text: f.text, Status: 200}, nil
}

func rssItem(title, link, description string) string {
	return fmt.Sprintf("<item><title>%s</title><link>%s</link><description>%s</description></item>", title, link, description)
}

func rssFeed(items ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>t</title>` +
		strings.Join(items, "") + `</channel></rss>`
}

func serveFeed(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestParseFiltersByTopicSubstring(t *testing.T) {
	srv := serveFeed(t, rssFeed(
		rssItem("Rust 1.90 released", "https://example.com/rust", strings.Repeat("rust news ", 40)),
		rssItem("Python 4.0 released", "https://example.com/python", "no mention"),
		rssItem("Why we rewrote it in rust", "https://example.com/rewrite", strings.Repeat("story ", 60)),
	))

	p := NewParser(nil, 5, "test-agent")
	articles, err := p.Parse(context.Background(), srv.URL, "Rust", "News")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 matching entries, got %d", len(articles))
	}
	for _, a := range articles {
		if strings.Contains(a.Title, "Python") {
			t.Fatalf("non-matching entry must be dropped: %+v", a)
		}
		if a.Source != "News" {
			t.Fatalf("expected source label News, got %q", a.Source)
		}
	}
}

func TestParseShortSummaryTriggersEnrichment(t *testing.T) {
	longText := strings.Repeat("deep dive into rust internals ", 200)
	fetcher := &fakeFetcher{text: longText}
	srv := serveFeed(t, rssFeed(
		rssItem("Rust tip", "https://example.com/tip", "short rust note"), // 50 chars or less
	))

	p := NewParser(fetcher, 5, "test-agent")
	articles, err := p.Parse(context.Background(), srv.URL, "rust", "Blog")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fetcher.fetched) != 1 {
		t.Fatalf("a short summary must trigger a full-text fetch, got %v", fetcher.fetched)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if len(articles[0].Summary) > 3000 {
		t.Fatalf("extracted text must be capped at 3000 chars, got %d", len(articles[0].Summary))
	}
	if !strings.HasPrefix(articles[0].Summary, "deep dive") {
		t.Fatalf("expected extracted text, got %q", articles[0].Summary[:40])
	}
}

func TestParseLongSummarySkipsEnrichment(t *testing.T) {
	fetcher := &fakeFetcher{text: "should not be used"}
	longSummary := strings.Repeat("rust ", 250) // well over the threshold
	srv := serveFeed(t, rssFeed(
		rssItem("Rust in production", "https://example.com/prod", longSummary),
	))

	p := NewParser(fetcher, 5, "test-agent")
	articles, err := p.Parse(context.Background(), srv.URL, "rust", "News")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fetcher.fetched) != 0 {
		t.Fatalf("a long summary must not trigger a fetch, got %v", fetcher.fetched)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
}

func TestParseEnrichedSummaryStaysValidUTF8(t *testing.T) {
	// 4000 multibyte characters; a byte-wise cut at 3000 would split a rune
	// and the store would reject the batch.
	fetcher := &fakeFetcher{text: strings.Repeat("é", 4000)}
	srv := serveFeed(t, rssFeed(
		rssItem("Rust tip", "https://example.com/tip", "short rust note"),
	))

	p := NewParser(fetcher, 5, "test-agent")
	articles, err := p.Parse(context.Background(), srv.URL, "rust", "News")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	got := articles[0].Summary
	if !utf8.ValidString(got) {
		t.Fatalf("enriched summary must be valid UTF-8")
	}
	if n := utf8.RuneCountInString(got); n != 3000 {
		t.Fatalf("expected a 3000-character cap, got %d characters", n)
	}
}

func TestParseEnrichmentThresholdCountsCharacters(t *testing.T) {
	fetcher := &fakeFetcher{text: strings.Repeat("long rust article ", 30)}
	// 299 characters but well over 300 bytes; still under the threshold.
	shortMultibyte := strings.Repeat("é", 299)
	srv := serveFeed(t, rssFeed(
		rssItem("rust é", "https://example.com/tip", shortMultibyte),
	))

	p := NewParser(fetcher, 5, "test-agent")
	if _, err := p.Parse(context.Background(), srv.URL, "rust", "News"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fetcher.fetched) != 1 {
		t.Fatalf("a 299-character summary must trigger a fetch, got %v", fetcher.fetched)
	}
}

func TestParseEnrichmentFailureFallsBack(t *testing.T) {
	fetcher := &fakeFetcher{err: fmt.Errorf("403")}
	srv := serveFeed(t, rssFeed(
		rssItem("Rust tip", "https://example.com/tip", "short rust note"),
	))

	p := NewParser(fetcher, 5, "test-agent")
	articles, err := p.Parse(context.Background(), srv.URL, "rust", "News")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if !strings.HasPrefix(articles[0].Summary, "Content unavailable. Original: ") {
		t.Fatalf("expected the unavailable marker, got %q", articles[0].Summary)
	}
}

func TestParseInspectsOnlyFirstEntries(t *testing.T) {
	items := make([]string, 8)
	for i := range items {
		items[i] = rssItem(fmt.Sprintf("rust item %d", i), fmt.Sprintf("https://example.com/%d", i), strings.Repeat("rust ", 80))
	}
	srv := serveFeed(t, rssFeed(items...))

	p := NewParser(nil, 5, "test-agent")
	articles, err := p.Parse(context.Background(), srv.URL, "rust", "News")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 5 {
		t.Fatalf("only the first 5 entries may be inspected, got %d", len(articles))
	}
}

func TestParseBadFeedReturnsError(t *testing.T) {
	srv := serveFeed(t, "this is not xml")
	p := NewParser(nil, 5, "test-agent")
	if _, err := p.Parse(context.Background(), srv.URL, "rust", "News"); err == nil {
		t.Fatalf("expected a parse error for a malformed feed")
	}
}
