package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"trendscout/internal/registry"
	"trendscout/internal/telemetry"
	"trendscout/models"
	"trendscout/utils"
)

// RegistryLoader supplies the category -> feed URLs table for a mission.
type RegistryLoader interface {
	Load(ctx context.Context) registry.Registry
}

// FeedParser turns one feed URL into the articles relevant to a topic.
type FeedParser interface {
	Parse(ctx context.Context, feedURL, topic, sourceLabel string) ([]models.ScrapedArticle, error)
}

// ScoutStore is the slice of the relational store the scout needs.
type ScoutStore interface {
	CreateSession(ctx context.Context, topic, status string) (string, error)
	InsertArticles(ctx context.Context, sessionID string, articles []models.ScrapedArticle) error
}

// ScoutAgent runs one scouting mission per topic: load the feed registry,
// open a research session, fan out over every configured feed plus the fixed
// reddit search feeds, and persist whatever came back.
type ScoutAgent struct {
	registry       RegistryLoader
	parser         FeedParser
	store          ScoutStore
	metrics        *telemetry.Metrics
	logger         *log.Logger
	maxConcurrency int
	fetchTimeout   time.Duration
}

func NewScoutAgent(reg RegistryLoader, parser FeedParser, store ScoutStore, metrics *telemetry.Metrics, maxConcurrency int, fetchTimeout time.Duration, logger *log.Logger) *ScoutAgent {
	if maxConcurrency <= 0 {
		maxConcurrency = 8
	}
	if fetchTimeout <= 0 {
		fetchTimeout = 20 * time.Second
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[SCOUT] ", log.LstdFlags)
	}
	return &ScoutAgent{
		registry:       reg,
		parser:         parser,
		store:          store,
		metrics:        metrics,
		logger:         logger,
		maxConcurrency: maxConcurrency,
		fetchTimeout:   fetchTimeout,
	}
}

type feedTask struct {
	url   string
	label string
}

// RunScout executes one mission for topic and returns the store-assigned
// session id. Session creation failure is fatal for the call; everything
// after it degrades per feed. Even a run that finds zero articles returns
// the session id, so callers can distinguish "nothing found" from "mission
// never started".
func (a *ScoutAgent) RunScout(ctx context.Context, topic string) (string, error) {
	missionID := uuid.NewString()
	a.logger.Printf("[%s] scout starting for: %s", missionID, topic)
	if a.metrics != nil {
		a.metrics.ScoutRuns.Inc()
	}

	feedConfig := a.registry.Load(ctx)

	sessionID, err := a.store.CreateSession(ctx, topic, models.SessionStatusScouting)
	if err != nil {
		a.logger.Printf("[%s] session creation failed: %v", missionID, err)
		return "", fmt.Errorf("create research session: %w", err)
	}

	tasks := make([]feedTask, 0, 16)
	for category, urls := range feedConfig {
		label := registry.SourceLabel(category)
		for _, url := range urls {
			tasks = append(tasks, feedTask{url: url, label: label})
		}
	}
	q := utils.UrlQuery(topic)
	tasks = append(tasks,
		feedTask{url: "https://www.reddit.com/r/technology/search.rss?q=" + q + "&restrict_sr=1&sort=top&t=week", label: "Reddit Search"},
		feedTask{url: "https://www.reddit.com/search.rss?q=" + q + "&sort=top&t=week", label: "Reddit Search"},
	)

	// True fan-out: every task is issued before any result is awaited, the
	// pool bounds concurrency, and no per-feed failure cancels siblings. A
	// per-task deadline keeps one hung feed from stalling the mission.
	results := make([][]models.ScrapedArticle, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxConcurrency)
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			taskCtx, cancel := context.WithTimeout(gctx, a.fetchTimeout)
			defer cancel()
			articles, err := a.parser.Parse(taskCtx, task.url, topic, task.label)
			if err != nil {
				a.logger.Printf("[%s] feed failed %s: %v", missionID, task.url, err)
				if a.metrics != nil {
					a.metrics.FeedFailures.Inc()
				}
				return nil
			}
			results[i] = articles
			return nil
		})
	}
	_ = g.Wait()

	var collected []models.ScrapedArticle
	for _, res := range results {
		collected = append(collected, res...)
	}

	if len(collected) > 0 {
		a.logger.Printf("[%s] saving %d articles", missionID, len(collected))
		if err := a.store.InsertArticles(ctx, sessionID, collected); err != nil {
			// The mission still reports the session; persistence loss is
			// logged, not surfaced.
			a.logger.Printf("[%s] article batch insert failed: %v", missionID, err)
		} else if a.metrics != nil {
			a.metrics.ArticlesScraped.Add(float64(len(collected)))
		}
	} else {
		a.logger.Printf("[%s] no articles found", missionID)
	}

	return sessionID, nil
}
