package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline counters exposed on /metrics.
type Metrics struct {
	SearchesTotal     prometheus.Counter
	SearchFailures    prometheus.Counter
	TrendsSynthesized prometheus.Counter
	ScoutRuns         prometheus.Counter
	ArticlesScraped   prometheus.Counter
	FeedFailures      prometheus.Counter
}

// NewMetrics registers the pipeline counters with reg. Pass a fresh registry
// in tests; prometheus.DefaultRegisterer in production wiring.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SearchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trendscout_searches_total",
			Help: "Web searches issued by the trend engine.",
		}),
		SearchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trendscout_search_failures_total",
			Help: "Web searches that failed or returned no results.",
		}),
		TrendsSynthesized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trendscout_trends_synthesized_total",
			Help: "Trends persisted after LLM synthesis.",
		}),
		ScoutRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trendscout_scout_runs_total",
			Help: "Scouting missions started.",
		}),
		ArticlesScraped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trendscout_articles_scraped_total",
			Help: "Articles collected across all feeds.",
		}),
		FeedFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trendscout_feed_failures_total",
			Help: "Per-feed fetch or parse failures.",
		}),
	}
	reg.MustRegister(m.SearchesTotal, m.SearchFailures, m.TrendsSynthesized,
		m.ScoutRuns, m.ArticlesScraped, m.FeedFailures)
	return m
}
