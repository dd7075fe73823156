package citeplug

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const typeCacheCleanupInterval = 10 * time.Minute

type typeResult struct {
	id string
	ok bool
}

// typeCache memoizes resolutions of string inputs. It assumes predicates are
// deterministic; every mutation of the input store flushes it.
type typeCache struct {
	ttl   time.Duration
	cache *gocache.Cache
}

func newTypeCache(ttl time.Duration) *typeCache {
	return &typeCache{ttl: ttl, cache: gocache.New(ttl, typeCacheCleanupInterval)}
}

func (c *typeCache) get(input any) (typeResult, bool) {
	if c == nil {
		return typeResult{}, false
	}
	key, ok := input.(string)
	if !ok {
		return typeResult{}, false
	}
	v, found := c.cache.Get(key)
	if !found {
		return typeResult{}, false
	}
	res, ok := v.(typeResult)
	return res, ok
}

func (c *typeCache) set(input any, res typeResult) {
	if c == nil {
		return
	}
	if key, ok := input.(string); ok {
		c.cache.Set(key, res, c.ttl)
	}
}

func (c *typeCache) flush() {
	if c != nil {
		c.cache.Flush()
	}
}

func (c *typeCache) len() int {
	if c == nil {
		return 0
	}
	return c.cache.ItemCount()
}
