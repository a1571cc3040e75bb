package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"trendscout/config"
	"trendscout/internal/cache"
	"trendscout/internal/engine"
	"trendscout/internal/feeds"
	"trendscout/internal/registry"
	"trendscout/internal/store"
	"trendscout/internal/taxonomy"
	"trendscout/internal/telemetry"
	"trendscout/provider"
	"trendscout/tools/web_fetch"
	"trendscout/tools/web_search"
)

// Run wires the pipelines together and serves the HTTP API. Postgres
// credentials are the one fatal startup condition; search and LLM keys
// degrade their capability to empty results instead.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if cfg.Telemetry.Enabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	ctx := context.Background()

	dsn, err := cfg.Storage.Postgres.DSN()
	if err != nil {
		return err
	}
	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}

	trendCache, rdb, err := buildCache(ctx, cfg)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	var metrics *telemetry.Metrics
	if cfg.Telemetry.Enabled {
		metrics = telemetry.NewMetrics(prometheus.DefaultRegisterer)
	}

	searcher := buildSearcher(cfg, baseLogger)
	llm := buildLLM(cfg, baseLogger)

	trendEngine := engine.NewTrendEngine(searcher, llm, st, trendCache, metrics, nil)

	fetcher, err := web_fetch.NewWebFetcher(web_fetch.ReadabilityFetcherType, cfg.Feeds.FetchTimeout, 0, cfg.Feeds.UserAgent)
	if err != nil {
		return fmt.Errorf("web fetcher: %w", err)
	}
	parser := feeds.NewParser(fetcher, cfg.Feeds.MaxEntries, cfg.Feeds.UserAgent)
	feedRegistry := registry.NewLoader(cfg.Feeds.RegistryURL, cfg.Feeds.FetchTimeout)
	scout := engine.NewScoutAgent(feedRegistry, parser, st, metrics, cfg.Feeds.MaxConcurrency, cfg.Feeds.FetchTimeout, nil)

	taxLoader := taxonomy.NewLoader(cfg.Taxonomy.URL, cfg.Taxonomy.Timeout)

	api := e.Group("/api")
	trendsHandler := &TrendsHandler{Engine: trendEngine, Cache: trendCache, Taxonomy: taxLoader, Policy: cfg.Policy}
	trendsHandler.Register(api.Group("/trends"))
	scoutHandler := &ScoutHandler{Scout: scout, Store: st}
	scoutHandler.Register(api.Group("/scout"))
	sessionsHandler := &SessionsHandler{Store: st}
	sessionsHandler.Register(api.Group("/sessions"))

	if cfg.Scheduler.Enabled {
		sched := &Scheduler{
			CronSpec: cfg.Scheduler.CronSpec,
			Rdb:      rdb,
			Stop:     make(chan struct{}),
			Run: func(ctx context.Context) {
				trendsHandler.generateOnce(ctx, nil)
			},
		}
		sched.Start()
		defer close(sched.Stop)
	}

	return e.Start(cfg.Server.Address)
}

func buildCache(ctx context.Context, cfg *config.Config) (cache.TrendCache, *redis.Client, error) {
	backend := cache.Backend(cfg.Cache.Backend)
	trendCache, err := cache.New(ctx, backend, cache.RedisOptions{
		Addr:     cfg.Storage.Redis.Addr(),
		Password: cfg.Storage.Redis.Password,
		DB:       cfg.Storage.Redis.DB,
		Timeout:  cfg.Storage.Redis.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}
	if rc, ok := trendCache.(*cache.Redis); ok {
		return trendCache, rc.Client(), nil
	}
	return trendCache, nil, nil
}

func buildSearcher(cfg *config.Config, logger *log.Logger) web_search.WebSearcher {
	if cfg.Search.APIKey == "" {
		logger.Printf("search api key not set, trend synthesis will return no trends")
		return nil
	}
	searcher, err := web_search.NewWebSearcher(web_search.Provider(cfg.Search.Provider), cfg.Search.APIKey, cfg.Search.Timeout)
	if err != nil {
		logger.Printf("search provider unavailable: %v", err)
		return nil
	}
	return searcher
}

func buildLLM(cfg *config.Config, logger *log.Logger) provider.Provider {
	llm, err := provider.NewProvider(provider.Client(cfg.LLM.Provider), cfg.LLM.APIKey, cfg.LLM.Model,
		cfg.LLM.Temperature, cfg.LLM.MaxTokens, cfg.LLM.Timeout)
	if err != nil {
		logger.Printf("llm provider unavailable: %v", err)
		return nil
	}
	return llm
}
