package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const localCapacity = 1024

type localItem struct {
	Data      []byte
	ExpiresAt time.Time
}

type localCache struct {
	entries *lru.Cache[string, localItem]
}

var local = newLocalCache()

func newLocalCache() *localCache {
	l, err := lru.New[string, localItem](localCapacity)
	if err != nil {
		panic(err)
	}
	return &localCache{entries: l}
}

func (c *localCache) set(key string, data []byte, ttl time.Duration) {
	c.entries.Add(key, localItem{Data: data, ExpiresAt: time.Now().Add(ttl)})
}

// get returns nil for a missing or expired entry.
func (c *localCache) get(key string) []byte {
	val, ok := c.entries.Get(key)
	if !ok {
		return nil
	}
	if time.Now().After(val.ExpiresAt) {
		c.entries.Remove(key)
		return nil
	}
	return val.Data
}

func (c *localCache) delete(key string) {
	c.entries.Remove(key)
}

// ResetLocal empties the in-process cache and the in-process revocation list.
func ResetLocal() {
	local.entries.Purge()
	revoked.Purge()
}
