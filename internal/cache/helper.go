package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	s, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(s, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first; on a miss or a cache failure it calls fetch, which
// must populate dest, and stores the result with ttl. Cache errors never fail
// the read.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if found, err := GetJSON(ctx, key, dest); err == nil && found {
		return nil
	}

	if err := fetch(); err != nil {
		return err
	}

	_ = SetJSON(ctx, key, dest, ttl)
	return nil
}

// GetMany loads keys in one MGET and decodes each hit with decode. It returns
// the indexes of keys that missed. With no client every key is a miss.
func GetMany(ctx context.Context, keys []string, decode func(i int, raw []byte) error) ([]int, error) {
	misses := make([]int, 0, len(keys))
	if client == nil || len(keys) == 0 {
		for i := range keys {
			misses = append(misses, i)
		}
		return misses, nil
	}

	vals, err := client.MGet(ctx, keys...).Result()
	if err != nil {
		for i := range keys {
			misses = append(misses, i)
		}
		return misses, err
	}

	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			misses = append(misses, i)
			continue
		}
		if err := decode(i, []byte(s)); err != nil {
			misses = append(misses, i)
		}
	}
	return misses, nil
}
