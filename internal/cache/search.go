// Package cache is a best-effort redis cache for listing search pages.
// Cache failures never fail a request; callers fall through to the store.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const searchPrefix = "search:"

type Config struct {
	Addr     string
	Password string
	DB       int
}

type SearchCache struct {
	redisdb *redis.Client
	ttl     time.Duration
}

func New(cfg Config, ttl time.Duration) *SearchCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &SearchCache{redisdb: redisdb, ttl: ttl}
}

// Key derives the cache key from the canonical query string of a search
// request.
func Key(rawQuery string) string {
	return searchPrefix + rawQuery
}

func (c *SearchCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.redisdb.Get(ctx, key).Bytes()

	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}

		return nil, false, err
	}

	return val, true, nil
}

func (c *SearchCache) Set(ctx context.Context, key string, val []byte) error {
	return c.redisdb.Set(ctx, key, val, c.ttl).Err()
}

// InvalidateAll drops every cached search page. Called after listing
// mutations; pages are tiny and short-lived, so a full sweep beats trying to
// work out which queries a mutation affects.
func (c *SearchCache) InvalidateAll(ctx context.Context) error {
	iter := c.redisdb.Scan(ctx, 0, searchPrefix+"*", 100).Iterator()

	var keys []string

	for iter.Next(ctx) {
		keys = append(keys, iter.Val())

		if len(keys) >= 100 {
			if err := c.redisdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}

			keys = keys[:0]
		}
	}

	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) > 0 {
		return c.redisdb.Del(ctx, keys...).Err()
	}

	return nil
}

// this ping function checks redis connectivity

func (c *SearchCache) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

// this closes the client

func (c *SearchCache) Close() error {
	return c.redisdb.Close()
}
