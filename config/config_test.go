package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaultsOnMissingFile(t *testing.T) {
	viper.Reset()
	cfg := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))

	if cfg.Policy.ActiveCategory != DefaultActiveCategory {
		t.Fatalf("active_category = %q, want %q", cfg.Policy.ActiveCategory, DefaultActiveCategory)
	}
	if cfg.Policy.NumTopics != DefaultNumTopics || cfg.Policy.NumTrends != DefaultNumTrends {
		t.Fatalf("policy = %+v, want defaults %d/%d", cfg.Policy, DefaultNumTopics, DefaultNumTrends)
	}
	if cfg.LLM.Model != "gpt-4o-mini" || cfg.LLM.Temperature != 0.4 {
		t.Fatalf("llm defaults = %+v", cfg.LLM)
	}
	if cfg.Feeds.FetchTimeout != 20*time.Second || cfg.Feeds.MaxConcurrency != 8 || cfg.Feeds.MaxEntries != 5 {
		t.Fatalf("feeds defaults = %+v", cfg.Feeds)
	}
	if cfg.Cache.Backend != "inmemory" {
		t.Fatalf("cache backend = %q, want inmemory", cfg.Cache.Backend)
	}
}

func TestLoadConfigReadsFile(t *testing.T) {
	viper.Reset()
	path := writeConfig(t, `
policy:
  active_category: security
  num_topics: 3
  num_trends: 10
search:
  provider: brave
  api_key: test-key
storage:
  postgres:
    host: db.internal
    dbname: trends
`)
	cfg := LoadConfig(path)

	if cfg.Policy.ActiveCategory != "security" || cfg.Policy.NumTopics != 3 || cfg.Policy.NumTrends != 10 {
		t.Fatalf("policy = %+v", cfg.Policy)
	}
	if cfg.Search.Provider != "brave" || cfg.Search.APIKey != "test-key" {
		t.Fatalf("search = %+v", cfg.Search)
	}
	dsn, err := cfg.Storage.Postgres.DSN()
	if err != nil {
		t.Fatalf("dsn: %v", err)
	}
	if dsn != "postgres://:@db.internal:5432/trends?sslmode=disable" {
		t.Fatalf("dsn = %q", dsn)
	}
}

func TestLoadConfigNormalizesInvalidPolicy(t *testing.T) {
	viper.Reset()
	path := writeConfig(t, `
policy:
  active_category: ""
  num_topics: 0
  num_trends: -4
`)
	cfg := LoadConfig(path)

	if cfg.Policy.ActiveCategory != DefaultActiveCategory {
		t.Fatalf("active_category = %q, want default", cfg.Policy.ActiveCategory)
	}
	if cfg.Policy.NumTopics != DefaultNumTopics || cfg.Policy.NumTrends != DefaultNumTrends {
		t.Fatalf("policy = %+v, want defaults", cfg.Policy)
	}
}

func TestLoadConfigMalformedFileFallsBack(t *testing.T) {
	viper.Reset()
	path := writeConfig(t, "policy: [this is not a mapping")
	cfg := LoadConfig(path)

	if cfg.Policy.ActiveCategory != DefaultActiveCategory || cfg.Policy.NumTrends != DefaultNumTrends {
		t.Fatalf("policy = %+v, want defaults", cfg.Policy)
	}
}

func TestPostgresDSNURLWins(t *testing.T) {
	p := PostgresConfig{URL: "postgres://u:p@h:5/d", Host: "ignored", DBName: "ignored"}
	dsn, err := p.DSN()
	if err != nil {
		t.Fatalf("dsn: %v", err)
	}
	if dsn != "postgres://u:p@h:5/d" {
		t.Fatalf("dsn = %q", dsn)
	}
}

func TestPostgresDSNUnconfigured(t *testing.T) {
	if _, err := (PostgresConfig{}).DSN(); err == nil {
		t.Fatalf("expected an error for an unconfigured postgres")
	}
}

func TestRedisAddrDefaults(t *testing.T) {
	if got := (RedisConfig{}).Addr(); got != "localhost:6379" {
		t.Fatalf("addr = %q", got)
	}
	if got := (RedisConfig{Host: "redis", Port: "6380"}).Addr(); got != "redis:6380" {
		t.Fatalf("addr = %q", got)
	}
}
