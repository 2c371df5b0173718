package cachestore

import (
	"context"
	"errors"
	"fmt"

	"duel_portfolio/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultKeyPrefix namespaces portfolio keys in a shared Redis.
const DefaultKeyPrefix = "portfolio:"

const scanBatch = 500

// Redis keeps portfolio entries in a shared Redis so several API instances see the same cache.
// It implements port.PortfolioStore.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps client. An empty prefix selects DefaultKeyPrefix.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

// NewRedisClient connects to addr and checks the connection with PING.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", addr, err)
	}
	return client, nil
}

func (r *Redis) key(address string) string {
	return r.prefix + address
}

// Get returns the entry stored under key.
func (r *Redis) Get(ctx context.Context, key string) (entity.CacheEntry, bool, error) {
	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return entity.CacheEntry{}, false, nil
	}
	if err != nil {
		return entity.CacheEntry{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var entry entity.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return entity.CacheEntry{}, false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return entry, true, nil
}

// Set stores entry under key without a Redis TTL.
func (r *Redis) Set(ctx context.Context, key string, entry entity.CacheEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	if err := r.client.Set(ctx, r.key(key), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Flush deletes every key under the prefix.
func (r *Redis) Flush(ctx context.Context) error {
	return r.scan(ctx, func(keys []string) error {
		return r.client.Del(ctx, keys...).Err()
	})
}

// Len counts the keys under the prefix; it reports 0 when Redis is unreachable.
func (r *Redis) Len(ctx context.Context) int {
	n := 0
	if err := r.scan(ctx, func(keys []string) error {
		n += len(keys)
		return nil
	}); err != nil {
		return 0
	}
	return n
}

func (r *Redis) scan(ctx context.Context, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", scanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis scan %s*: %w", r.prefix, err)
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
