package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"trendscout/config"
	"trendscout/internal/cache"
	"trendscout/internal/engine"
	"trendscout/internal/selector"
	"trendscout/internal/store"
	"trendscout/internal/taxonomy"
	"trendscout/provider"
	"trendscout/tools/web_search"
)

func trendsCMD() *cobra.Command {
	var cfgPath string
	var excluded []string
	var trends = &cobra.Command{
		Use:   "trends",
		Short: "Select topics per policy and synthesize trends once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			ctx := context.Background()

			dsn, err := cfg.Storage.Postgres.DSN()
			if err != nil {
				return err
			}
			st, err := store.NewWithDSN(ctx, dsn)
			if err != nil {
				return err
			}

			tax := taxonomy.NewLoader(cfg.Taxonomy.URL, cfg.Taxonomy.Timeout).Load(ctx)
			if tax.Empty() {
				return fmt.Errorf("taxonomy not ready")
			}

			rng := rand.New(rand.NewSource(time.Now().UnixNano()))
			sel, err := selector.Select(tax, cfg.Policy, excluded, rng)
			if err != nil {
				return err
			}

			searcher, err := web_search.NewWebSearcher(web_search.Provider(cfg.Search.Provider), cfg.Search.APIKey, cfg.Search.Timeout)
			if err != nil {
				return err
			}
			llm, err := provider.NewProvider(provider.Client(cfg.LLM.Provider), cfg.LLM.APIKey, cfg.LLM.Model,
				cfg.LLM.Temperature, cfg.LLM.MaxTokens, cfg.LLM.Timeout)
			if err != nil {
				return err
			}

			eng := engine.NewTrendEngine(searcher, llm, st, cache.NewInMemory(), nil, nil)
			out, err := eng.Synthesize(ctx, sel.NumTrends, sel.Category, sel.Subcategory, sel.Topics, sel.URLs, excluded)
			if err != nil {
				return err
			}
			for _, t := range out {
				fmt.Printf("%s  %s\n    %s\n", t.ID, t.Name, t.Context)
			}
			return nil
		},
	}
	trends.Flags().StringSliceVar(&excluded, "exclude", nil, "topics to exclude from selection and search")
	trends.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	return trends
}
