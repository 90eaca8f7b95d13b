package catalog

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/rushteam/hybridrec/core"
)

type cacheEntry struct {
	meta  core.ItemMetadata
	found bool
}

// Cached 在任意 MetadataSource 前加一层带过期时间的进程内 LRU。
// 未找到的商品同样缓存（负缓存），避免不存在的锚点反复打到后端。
type Cached struct {
	next  MetadataSource
	cache *expirable.LRU[string, cacheEntry]
}

// NewCached 创建缓存层，size <= 0 时使用 10000，ttl <= 0 时使用 5 分钟。
func NewCached(next MetadataSource, size int, ttl time.Duration) *Cached {
	if size <= 0 {
		size = 10000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cached{next: next, cache: expirable.NewLRU[string, cacheEntry](size, nil, ttl)}
}

func (c *Cached) Name() string { return "cached(" + c.next.Name() + ")" }

// BatchGet 先查缓存，未命中的 ID 一次性回源；回源失败时返回错误，不写缓存。
func (c *Cached) BatchGet(ctx context.Context, ids []string) (core.MetadataSnapshot, error) {
	ids = uniqueIDs(ids)
	snap := make(core.MetadataSnapshot, len(ids))
	missing := make([]string, 0, len(ids))

	for _, id := range ids {
		e, ok := c.cache.Get(id)
		if !ok {
			missing = append(missing, id)
			continue
		}
		if e.found {
			snap[id] = e.meta
		}
	}
	if len(missing) == 0 {
		return snap, nil
	}

	fetched, err := c.next.BatchGet(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, id := range missing {
		m, ok := fetched.Lookup(id)
		c.cache.Add(id, cacheEntry{meta: m, found: ok})
		if ok {
			snap[id] = m
		}
	}
	return snap, nil
}

// Purge 清空缓存，重建商品库后调用。
func (c *Cached) Purge() {
	c.cache.Purge()
}

var _ MetadataSource = (*Cached)(nil)
