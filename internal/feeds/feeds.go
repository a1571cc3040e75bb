package feeds

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"

	"trendscout/models"
	"trendscout/tools/web_fetch"
	"trendscout/utils"
)

const (
	// Feed summaries shorter than this trigger a full-text fetch of the
	// linked article.
	enrichmentThreshold = 300

	// At most this many characters of extracted article text are kept.
	maxFullTextChars = 3000

	// DefaultMaxEntries bounds how deep into a feed the parser looks.
	DefaultMaxEntries = 5
)

// Parser fetches one feed and turns its matching entries into articles.
type Parser struct {
	Fetcher    web_fetch.WebFetcher // full-text enrichment; may be nil
	MaxEntries int
	UserAgent  string
}

func NewParser(fetcher web_fetch.WebFetcher, maxEntries int, userAgent string) *Parser {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Parser{Fetcher: fetcher, MaxEntries: maxEntries, UserAgent: userAgent}
}

// Parse fetches feedURL and returns the entries relevant to topic, labelled
// with sourceLabel. Only the first MaxEntries entries are inspected; an
// entry is kept when its title+summary contains the topic substring
// case-insensitively. Kept entries with a summary under the enrichment
// threshold get the linked article's extracted text instead, capped at
// maxFullTextChars, falling back to a marked short summary when extraction
// fails.
func (p *Parser) Parse(ctx context.Context, feedURL, topic, sourceLabel string) ([]models.ScrapedArticle, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = p.UserAgent

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", feedURL, err)
	}

	var articles []models.ScrapedArticle
	for i, item := range feed.Items {
		if i >= p.MaxEntries {
			break
		}
		title := item.Title
		if title == "" {
			title = "No Title"
		}
		summary := item.Description

		if !utils.ContainsFold(title+" "+summary, topic) {
			continue
		}

		if utf8.RuneCountInString(summary) < enrichmentThreshold {
			summary = p.enrich(ctx, item.Link, summary)
		}

		published := time.Now().UTC()
		if item.PublishedParsed != nil {
			published = item.PublishedParsed.UTC()
		}

		articles = append(articles, models.ScrapedArticle{
			Source:      sourceLabel,
			Title:       title,
			URL:         item.Link,
			Summary:     summary,
			PublishedAt: published.Format(time.RFC3339),
		})
	}
	return articles, nil
}

func (p *Parser) enrich(ctx context.Context, link, summary string) string {
	if p.Fetcher != nil && link != "" {
		if res, err := p.Fetcher.Exec(ctx, link); err == nil && res.Text != "" {
			return utils.Truncate(res.Text, maxFullTextChars)
		}
	}
	return "Content unavailable. Original: " + summary
}
