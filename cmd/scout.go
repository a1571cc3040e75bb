package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"trendscout/config"
	"trendscout/internal/engine"
	"trendscout/internal/feeds"
	"trendscout/internal/registry"
	"trendscout/internal/store"
	"trendscout/tools/web_fetch"
)

func scoutCMD() *cobra.Command {
	var cfgPath string
	var scout = &cobra.Command{
		Use:   "scout [topic]",
		Short: "Run one scouting mission for a topic",
		Args:  cobra.ExactArgs(1),
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

			fetcher, err := web_fetch.NewWebFetcher(web_fetch.ReadabilityFetcherType, cfg.Feeds.FetchTimeout, 0, cfg.Feeds.UserAgent)
			if err != nil {
				return err
			}
			parser := feeds.NewParser(fetcher, cfg.Feeds.MaxEntries, cfg.Feeds.UserAgent)
			feedRegistry := registry.NewLoader(cfg.Feeds.RegistryURL, cfg.Feeds.FetchTimeout)
			agent := engine.NewScoutAgent(feedRegistry, parser, st, nil, cfg.Feeds.MaxConcurrency, cfg.Feeds.FetchTimeout, nil)

			sessionID, err := agent.RunScout(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("session: %s\n", sessionID)
			return nil
		},
	}
	scout.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	return scout
}
