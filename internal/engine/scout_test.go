package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"trendscout/internal/registry"
	"trendscout/models"
)

type fakeRegistry struct {
	reg registry.Registry
}

func (f *fakeRegistry) Load(_ context.Context) registry.Registry { return f.reg }

type fakeFeedParser struct {
	articles map[string][]models.ScrapedArticle
	failing  map[string]bool

	mu   sync.Mutex
	seen []string
}

func (f *fakeFeedParser) Parse(_ context.Context, feedURL, _, label string) ([]models.ScrapedArticle, error) {
	f.mu.Lock()
	f.seen = append(f.seen, feedURL)
	f.mu.Unlock()
	if f.failing[feedURL] {
		return nil, errors.New("connection reset")
	}
	out := f.articles[feedURL]
	for i := range out {
		out[i].Source = label
	}
	return out, nil
}

type fakeScoutStore struct {
	sessionErr  error
	articlesErr error
	sessionID   string
	gotTopic    string
	gotArticles []models.ScrapedArticle
}

func (f *fakeScoutStore) CreateSession(_ context.Context, topic, status string) (string, error) {
	f.gotTopic = topic
	if f.sessionErr != nil {
		return "", f.sessionErr
	}
	if status != models.SessionStatusScouting {
		return "", fmt.Errorf("unexpected initial status %q", status)
	}
	if f.sessionID == "" {
		f.sessionID = "11111111-2222-3333-4444-555555555555"
	}
	return f.sessionID, nil
}

func (f *fakeScoutStore) InsertArticles(_ context.Context, sessionID string, articles []models.ScrapedArticle) error {
	if sessionID != f.sessionID {
		return fmt.Errorf("articles attached to wrong session %q", sessionID)
	}
	if f.articlesErr != nil {
		return f.articlesErr
	}
	f.gotArticles = articles
	return nil
}

func article(title string) models.ScrapedArticle {
	return models.ScrapedArticle{Title: title, URL: "https://example.com/" + title, Summary: "s"}
}

func TestRunScoutSessionFailureIsFatal(t *testing.T) {
	st := &fakeScoutStore{sessionErr: errors.New("db down")}
	agent := NewScoutAgent(&fakeRegistry{reg: registry.Registry{"tech_news": {"https://feeds.example.com/a"}}},
		&fakeFeedParser{}, st, nil, 4, 0, nil)

	id, err := agent.RunScout(context.Background(), "Rust")
	if err == nil {
		t.Fatalf("expected error when session creation fails")
	}
	if id != "" {
		t.Fatalf("no session id may be reported on failure, got %q", id)
	}
}

func TestRunScoutOneFailingFeedDoesNotReduceOthers(t *testing.T) {
	urls := []string{
		"https://feeds.example.com/1",
		"https://feeds.example.com/2",
		"https://feeds.example.com/3",
		"https://feeds.example.com/4",
		"https://feeds.example.com/5",
	}
	parser := &fakeFeedParser{
		articles: map[string][]models.ScrapedArticle{},
		failing:  map[string]bool{urls[2]: true},
	}
	for i, u := range urls {
		if !parser.failing[u] {
			parser.articles[u] = []models.ScrapedArticle{article(fmt.Sprintf("a%d", i))}
		}
	}
	st := &fakeScoutStore{}
	agent := NewScoutAgent(&fakeRegistry{reg: registry.Registry{"tech_news": urls}}, parser, st, nil, 3, 0, nil)

	id, err := agent.RunScout(context.Background(), "Rust")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatalf("expected a session id")
	}
	if len(st.gotArticles) != 4 {
		t.Fatalf("expected articles from the 4 healthy feeds, got %d", len(st.gotArticles))
	}
}

func TestRunScoutAddsRedditSearchFeeds(t *testing.T) {
	parser := &fakeFeedParser{articles: map[string][]models.ScrapedArticle{}}
	st := &fakeScoutStore{}
	agent := NewScoutAgent(&fakeRegistry{reg: registry.Registry{}}, parser, st, nil, 2, 0, nil)

	if _, err := agent.RunScout(context.Background(), "zero trust"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parser.seen) != 2 {
		t.Fatalf("empty registry must still hit the 2 reddit search feeds, got %v", parser.seen)
	}
	var siteWide, rTechnology bool
	for _, u := range parser.seen {
		if !strings.Contains(u, "q=zero+trust") {
			t.Fatalf("topic must be url-escaped into the query: %s", u)
		}
		if strings.Contains(u, "/search.rss?") && !strings.Contains(u, "/r/") {
			siteWide = true
		}
		if strings.Contains(u, "/r/technology/search.rss?") && strings.Contains(u, "restrict_sr=1") {
			rTechnology = true
		}
		if !strings.Contains(u, "sort=top") || !strings.Contains(u, "t=week") {
			t.Fatalf("reddit feeds must be sorted top-of-week: %s", u)
		}
	}
	if !siteWide || !rTechnology {
		t.Fatalf("expected site-wide and r/technology search feeds, got %v", parser.seen)
	}
}

func TestRunScoutArticleInsertFailureStillReportsSession(t *testing.T) {
	url := "https://feeds.example.com/a"
	parser := &fakeFeedParser{articles: map[string][]models.ScrapedArticle{url: {article("a")}}}
	st := &fakeScoutStore{articlesErr: errors.New("insert failed")}
	agent := NewScoutAgent(&fakeRegistry{reg: registry.Registry{"tech_news": {url}}}, parser, st, nil, 2, 0, nil)

	id, err := agent.RunScout(context.Background(), "a")
	if err != nil {
		t.Fatalf("article insert failure must not fail the mission: %v", err)
	}
	if id == "" {
		t.Fatalf("expected the session id despite the insert failure")
	}
}

func TestRunScoutNoArticlesStillReturnsSession(t *testing.T) {
	parser := &fakeFeedParser{}
	st := &fakeScoutStore{}
	agent := NewScoutAgent(&fakeRegistry{reg: registry.Registry{}}, parser, st, nil, 2, 0, nil)

	id, err := agent.RunScout(context.Background(), "Rust")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatalf("zero articles must still report the session id")
	}
	if len(st.gotArticles) != 0 {
		t.Fatalf("no insert expected, got %v", st.gotArticles)
	}
}

func TestRunScoutLabelsFeedsByCategory(t *testing.T) {
	reg := registry.Registry{
		"security_news": {"https://feeds.example.com/sec"},
		"dev_blog":      {"https://feeds.example.com/blog"},
	}
	parser := &fakeFeedParser{articles: map[string][]models.ScrapedArticle{
		"https://feeds.example.com/sec":  {article("s")},
		"https://feeds.example.com/blog": {article("b")},
	}}
	st := &fakeScoutStore{}
	agent := NewScoutAgent(&fakeRegistry{reg: reg}, parser, st, nil, 2, 0, nil)

	if _, err := agent.RunScout(context.Background(), "s"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	labels := map[string]bool{}
	for _, a := range st.gotArticles {
		labels[a.Source] = true
	}
	if !labels["Security"] || !labels["Blog"] {
		t.Fatalf("expected Security and Blog labels, got %v", labels)
	}
}
