package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"trendscout/internal/cache"
	"trendscout/internal/telemetry"
	"trendscout/models"
	"trendscout/provider"
	"trendscout/tools/web_search"
	searchmodels "trendscout/tools/web_search/models"
)

// ErrTrendsNotPersisted distinguishes "synthesized but the batch insert
// failed" from an empty synthesis; callers must not assume any trend reached
// durable storage when they see it.
var ErrTrendsNotPersisted = errors.New("trends synthesized but not persisted")

const maxSearchResults = 15

const synthesisSystemInstruction = "You are an expert research assistant. Your objective is to analyze " +
	"the provided search results and extract the most significant emerging trends, newly reported " +
	"challenges, and active developments."

// TrendStore is the slice of the relational store the trend engine needs.
type TrendStore interface {
	InsertTrends(ctx context.Context, trends []models.Trend) ([]models.Trend, error)
}

// TrendEngine executes the pivot search, synthesizes trends via the LLM and
// saves the structured output. Dependency injection keeps the engine free of
// its own API connections.
type TrendEngine struct {
	searcher web_search.WebSearcher
	llm      provider.Provider
	store    TrendStore
	cache    cache.TrendCache
	metrics  *telemetry.Metrics
	logger   *log.Logger
}

func NewTrendEngine(searcher web_search.WebSearcher, llm provider.Provider, store TrendStore, trendCache cache.TrendCache, metrics *telemetry.Metrics, logger *log.Logger) *TrendEngine {
	if logger == nil {
		logger = log.New(log.Writer(), "[TRENDS] ", log.LstdFlags)
	}
	return &TrendEngine{searcher: searcher, llm: llm, store: store, cache: trendCache, metrics: metrics, logger: logger}
}

// Synthesize runs the full trend pipeline for one selection. Upstream
// failures (search, zero results, LLM schema mismatch) degrade to an empty
// list with a nil error; only a persistence failure after successful
// synthesis is surfaced, as ErrTrendsNotPersisted. No partially-validated or
// partially-persisted trend ever escapes.
func (e *TrendEngine) Synthesize(ctx context.Context, numTrends int, category, subcategory string, topics, urls, excluded []string) ([]models.Trend, error) {
	e.logger.Printf("starting trend synthesis for: %s", subcategory)

	// Missing capability credentials degrade to an empty result instead of
	// crashing the process.
	if e.searcher == nil || e.llm == nil {
		e.logger.Printf("search or llm capability not configured, returning no trends")
		return nil, nil
	}

	query := buildQuery(subcategory, topics, excluded)
	e.logger.Printf("search query: %s", query)

	if e.metrics != nil {
		e.metrics.SearchesTotal.Inc()
	}
	results, err := e.searcher.Search(ctx, searchmodels.Request{
		Query:          query,
		Topic:          "news",
		Depth:          "advanced",
		MaxResults:     maxSearchResults,
		TimeRange:      "week",
		IncludeDomains: urls,
	})
	if err != nil {
		e.logger.Printf("search failed: %v", err)
		if e.metrics != nil {
			e.metrics.SearchFailures.Inc()
		}
		return nil, nil
	}
	if len(results) == 0 {
		e.logger.Printf("no search results found")
		if e.metrics != nil {
			e.metrics.SearchFailures.Inc()
		}
		return nil, nil
	}

	formatted := formatContext(results)
	prompt := buildPrompt(subcategory, numTrends, formatted)

	e.logger.Printf("sending %d sources to the LLM for structured synthesis", len(results))
	candidates, err := e.llm.SynthesizeTrends(ctx, synthesisSystemInstruction, prompt, numTrends)
	if err != nil {
		e.logger.Printf("synthesis failed: %v", err)
		return nil, nil
	}

	parent := models.ParentDetails{Category: category, Subcategory: subcategory, Topics: topics}
	trends := make([]models.Trend, 0, len(candidates))
	for _, c := range candidates {
		trends = append(trends, models.Trend{
			Name:          c.Name,
			Context:       c.Context,
			ParentDetails: parent,
			Status:        models.TrendStatusUnreviewed,
		})
	}
	if len(trends) == 0 {
		e.logger.Printf("LLM returned no trends")
		return nil, nil
	}

	e.logger.Printf("saving %d trends", len(trends))
	inserted, err := e.store.InsertTrends(ctx, trends)
	if err != nil {
		e.logger.Printf("trend batch insert failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrTrendsNotPersisted, err)
	}
	if e.metrics != nil {
		e.metrics.TrendsSynthesized.Add(float64(len(inserted)))
	}

	if e.cache != nil {
		byID := make(map[string]models.Trend, len(inserted))
		for _, t := range inserted {
			byID[t.ID] = t
		}
		if err := e.cache.Replace(ctx, byID); err != nil {
			e.logger.Printf("trend cache replace failed: %v", err)
		}
	}

	e.logger.Printf("trend synthesis complete (%d trends)", len(inserted))
	return inserted, nil
}

// buildQuery constructs the natural-language search directive, appending the
// standard minus operator per excluded topic.
func buildQuery(subcategory string, topics, excluded []string) string {
	topicsStr := "emerging trends and core developments"
	if len(topics) > 0 {
		topicsStr = strings.Join(topics, ", ")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "What are the most significant recent developments, critical news updates, "+
		"and trending discussions concerning %s? "+
		"Specifically focus on current events, breakthroughs, and challenges related to %s. "+
		"Return highly specific, factual, and recent reporting.", subcategory, topicsStr)
	for _, ex := range excluded {
		b.WriteString(" -")
		b.WriteString(ex)
	}
	return b.String()
}

// formatContext orders results by relevance, highest first (stable, so ties
// keep their original order), and renders the numbered source blocks fed to
// the LLM.
func formatContext(results []searchmodels.Result) string {
	sorted := make([]searchmodels.Result, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	var b strings.Builder
	for i, r := range sorted {
		fmt.Fprintf(&b, "### Source [%d]\n", i+1)
		fmt.Fprintf(&b, "- **Title:** %s\n", r.Title)
		fmt.Fprintf(&b, "- **URL:** %s\n", r.URL)
		fmt.Fprintf(&b, "- **Relevance Score:** %.2f\n", r.Score)
		fmt.Fprintf(&b, "- **Content:** %s\n\n", r.Content)
	}
	return strings.TrimSpace(b.String())
}

func buildPrompt(subcategory string, numTrends int, formattedResults string) string {
	return fmt.Sprintf(`You are an expert tech analyst specializing in identifying and summarizing emerging trends in the %s domain.
Based on the following recent search results, extract and synthesize the top %d most significant trends. Each trend should be highly specific, grounded in the provided evidence, and directly relevant to the core topics of %s.

CONTEXT (Recent Search Results):
=========================
%s
=========================

EXTRACTION GUIDELINES:
1. High Specificity (name): Extract highly specific entities, new frameworks, or distinct methodologies. Use the "Title" and "Content" fields to formulate an accurate, professional name for the trend.
2. Grounded Evidence (context): Provide a concise, 1-to-2 sentence explanation of exactly why this is currently trending. This MUST be strictly derived from the provided "Content".
3. Prioritize Relevance: Pay special attention to sources with higher "Relevance Scores". If multiple sources mention the same trend, synthesize the context to create a stronger summary.
4. Source Quality: Use the "URL" field to silently gauge the credibility of the information, but do not include the URL in your final output.

OUTPUT FORMAT:
Return a strictly valid JSON array of trend objects.`, subcategory, numTrends, subcategory, formattedResults)
}
