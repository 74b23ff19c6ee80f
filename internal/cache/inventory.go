package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	ProfileKeyPrefix   = "profile:%s"
	BlacklistKeyPrefix = "blacklist:%s"
)

const (
	ProfileTTL = 5 * time.Minute
)

// ProfileKey is keyed by normalized username.
func ProfileKey(username string) string {
	return fmt.Sprintf(ProfileKeyPrefix, strings.ToLower(username))
}

func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistKeyPrefix, jti)
}

// Invalidate removes key from both cache layers.
func Invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		local.delete(key)
	}
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateProfiles drops the cached public profiles of the given users.
func InvalidateProfiles(ctx context.Context, usernames ...string) {
	keys := make([]string, 0, len(usernames))
	for _, u := range usernames {
		if u != "" {
			keys = append(keys, ProfileKey(u))
		}
	}
	Invalidate(ctx, keys...)
}
