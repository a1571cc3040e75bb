package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"trendscout/models"
)

const trendsKey = "trends:current"

// RedisOptions carries the connection settings for the redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

// Redis stores the current trend set in a single hash, swapped wholesale in
// a transactional pipeline so readers never observe a partial batch. Used by
// deployments that want the cache to survive process restarts.
type Redis struct {
	client *redis.Client
}

func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Redis{client: client}, nil
}

func (c *Redis) Replace(ctx context.Context, trends map[string]models.Trend) error {
	fields := make(map[string]interface{}, len(trends))
	for id, t := range trends {
		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		fields[id] = data
	}
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, trendsKey)
	if len(fields) > 0 {
		pipe.HSet(ctx, trendsKey, fields)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (c *Redis) Get(ctx context.Context, id string) (models.Trend, bool, error) {
	val, err := c.client.HGet(ctx, trendsKey, id).Result()
	if err != nil {
		if err == redis.Nil {
			return models.Trend{}, false, nil
		}
		return models.Trend{}, false, err
	}
	var t models.Trend
	if err := json.Unmarshal([]byte(val), &t); err != nil {
		return models.Trend{}, false, err
	}
	return t, true, nil
}

func (c *Redis) Len(ctx context.Context) (int, error) {
	n, err := c.client.HLen(ctx, trendsKey).Result()
	return int(n), err
}

func (c *Redis) All(ctx context.Context) (map[string]models.Trend, error) {
	vals, err := c.client.HGetAll(ctx, trendsKey).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.Trend, len(vals))
	for id, raw := range vals {
		var t models.Trend
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, err
		}
		out[id] = t
	}
	return out, nil
}

// Client exposes the underlying connection for shared uses (scheduler lock).
func (c *Redis) Client() *redis.Client { return c.client }
