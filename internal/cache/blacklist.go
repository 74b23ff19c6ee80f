package cache

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// maxRevocation bounds how long a revoked id is kept in process. Tokens never outlive it.
const maxRevocation = 7 * 24 * time.Hour

// revoked holds token ids revoked while Redis is absent, mapped to their expiry.
// It has no size limit, so cached profiles can never evict a revocation.
var revoked = expirable.NewLRU[string, time.Time](0, nil, maxRevocation)

// BlacklistToken marks a token id as revoked until ttl elapses.
func BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if client == nil {
		revoked.Add(jti, time.Now().Add(ttl))
		return nil
	}
	return client.Set(ctx, BlacklistKey(jti), "1", ttl).Err()
}

// IsBlacklisted reports whether the token id was revoked.
func IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	if client == nil {
		expiresAt, ok := revoked.Get(jti)
		if ok && time.Now().After(expiresAt) {
			revoked.Remove(jti)
			return false, nil
		}
		return ok, nil
	}
	err := client.Get(ctx, BlacklistKey(jti)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
