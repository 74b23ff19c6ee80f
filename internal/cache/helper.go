package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"agora/internal/middleware"
	"agora/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	layerRedis = "redis"
	layerLocal = "local"
)

func recordLookup(layer string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	observability.CacheLookups.WithLabelValues(layer, result).Inc()
}

// GetJSON looks key up and unmarshals into dest. Redis is used when configured,
// the local cache otherwise. Returns (true, nil) on a hit.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	var raw []byte
	layer := layerLocal

	if client != nil {
		layer = layerRedis
		s, err := client.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return false, err
		}
		raw = s
	} else {
		raw = local.get(key)
	}

	if raw == nil {
		recordLookup(layer, false)
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	recordLookup(layer, true)
	return true, nil
}

// SetJSON marshals v and stores it under key with ttl.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if client == nil {
		local.set(key, b, ttl)
		return nil
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// Aside tries the cache first; on a miss it calls fetch, which must populate
// dest, then stores dest with ttl. Cache failures never fail the read.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := GetJSON(ctx, key, dest)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if found {
		return nil
	}

	if err := fetch(); err != nil {
		return err
	}

	if err := SetJSON(ctx, key, dest, ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}
