package cache

import (
	"context"
	"fmt"

	"trendscout/models"
)

// TrendCache holds the most recently synthesized trend set for fast lookup
// by downstream actions. Replace swaps the whole set at once; readers always
// observe one complete, internally consistent batch. There is no TTL: the
// cache is invalidated by the next successful regeneration (or, for the
// in-memory backend, a process restart).
type TrendCache interface {
	Replace(ctx context.Context, trends map[string]models.Trend) error
	Get(ctx context.Context, id string) (models.Trend, bool, error)
	Len(ctx context.Context) (int, error)
	All(ctx context.Context) (map[string]models.Trend, error)
}

type Backend string

const (
	InMemoryBackend Backend = "inmemory"
	RedisBackend    Backend = "redis"
)

// New builds a trend cache for the configured backend. opts is only
// consulted by backends that need a connection.
func New(ctx context.Context, backend Backend, opts RedisOptions) (TrendCache, error) {
	switch backend {
	case InMemoryBackend, "":
		return NewInMemory(), nil
	case RedisBackend:
		return NewRedis(ctx, opts)
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", backend)
	}
}
