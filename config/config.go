package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Hard-coded policy defaults, applied whenever the config source is missing
// or malformed.
const (
	DefaultActiveCategory = "technology"
	DefaultNumTopics      = 2
	DefaultNumTrends      = 6
)

// Config holds all configuration for the trend and scout pipelines.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Policy    PolicyConfig    `mapstructure:"policy"`
	Taxonomy  TaxonomyConfig  `mapstructure:"taxonomy"`
	Search    SearchConfig    `mapstructure:"search"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Feeds     FeedsConfig     `mapstructure:"feeds"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// PolicyConfig is the category/topic selection policy. Mutated only by
// reload; defaults apply when the source is missing or malformed.
type PolicyConfig struct {
	ActiveCategory string `mapstructure:"active_category"`
	NumTopics      int    `mapstructure:"num_topics"`
	NumTrends      int    `mapstructure:"num_trends"`
}

// TaxonomyConfig points at the remote category/subcategory/topic tree.
type TaxonomyConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SearchConfig selects and credentials the web search provider.
type SearchConfig struct {
	Provider string        `mapstructure:"provider"` // tavily, brave
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LLMConfig selects and credentials the LLM provider used for synthesis.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // openai
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// FeedsConfig drives the scout's feed registry and fan-out.
type FeedsConfig struct {
	RegistryURL    string        `mapstructure:"registry_url"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	MaxEntries     int           `mapstructure:"max_entries"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// StorageConfig contains relational store settings.
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig describes the Postgres connection. URL wins over the
// discrete fields when set.
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN builds a postgres connection string from the config.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", fmt.Errorf("postgres not configured (storage.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

// RedisConfig describes the optional redis connection used by the redis
// trend cache and the scheduler lock.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Addr returns host:port for the redis client.
func (r RedisConfig) Addr() string {
	host := r.Host
	if host == "" {
		host = "localhost"
	}
	port := r.Port
	if port == "" {
		port = "6379"
	}
	return host + ":" + port
}

// CacheConfig selects the trend cache backend.
type CacheConfig struct {
	Backend string `mapstructure:"backend"` // inmemory, redis
}

// SchedulerConfig drives periodic trend synthesis.
type SchedulerConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CronSpec string `mapstructure:"cron_spec"`
}

// TelemetryConfig contains metrics settings.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig reads configuration from file and TRENDSCOUT_* environment
// variables. The policy section fails soft: a missing or malformed config
// source logs a warning and yields the hard-coded defaults instead of an
// error, so the pipelines always have a usable policy.
func LoadConfig(path string) *Config {
	logger := log.New(log.Writer(), "[CONFIG] ", log.LstdFlags)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", 30*time.Second)
	viper.SetDefault("server.address", ":10010")
	viper.SetDefault("policy.active_category", DefaultActiveCategory)
	viper.SetDefault("policy.num_topics", DefaultNumTopics)
	viper.SetDefault("policy.num_trends", DefaultNumTrends)
	viper.SetDefault("taxonomy.timeout", 10*time.Second)
	viper.SetDefault("search.provider", "tavily")
	viper.SetDefault("search.timeout", 30*time.Second)
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.4)
	viper.SetDefault("llm.max_tokens", 4096)
	viper.SetDefault("llm.timeout", 60*time.Second)
	viper.SetDefault("feeds.fetch_timeout", 20*time.Second)
	viper.SetDefault("feeds.max_concurrency", 8)
	viper.SetDefault("feeds.max_entries", 5)
	viper.SetDefault("feeds.user_agent", "Mozilla/5.0 (X11; Linux x86_64) trendscout/1.0")
	viper.SetDefault("storage.redis.timeout", 5*time.Second)
	viper.SetDefault("cache.backend", "inmemory")
	viper.SetDefault("scheduler.cron_spec", "0 0 8 * * 1 *")
	viper.SetDefault("telemetry.enabled", true)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("TRENDSCOUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Printf("config file not usable (%v), continuing with defaults", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Printf("config unmarshal failed (%v), continuing with defaults", err)
		cfg = Config{}
	}
	cfg.Policy = cfg.Policy.normalize(logger)
	return &cfg
}

// normalize backfills defaults for any policy field the source left empty or
// set to a nonsensical value.
func (p PolicyConfig) normalize(logger *log.Logger) PolicyConfig {
	if p.ActiveCategory == "" {
		p.ActiveCategory = DefaultActiveCategory
	}
	if p.NumTopics <= 0 {
		logger.Printf("policy.num_topics missing or invalid, using default %d", DefaultNumTopics)
		p.NumTopics = DefaultNumTopics
	}
	if p.NumTrends <= 0 {
		logger.Printf("policy.num_trends missing or invalid, using default %d", DefaultNumTrends)
		p.NumTrends = DefaultNumTrends
	}
	return p
}
