package catalog

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/rushteam/hybridrec/core"
)

// StoreCatalog 是基于 core.Store 的元数据源。
// 每个商品一个 key：{KeyPrefix}:item:{itemID}，value 为 ItemMetadata 的 JSON。
type StoreCatalog struct {
	store     core.Store
	KeyPrefix string
}

// NewStoreCatalog 创建 StoreCatalog，keyPrefix 为空时使用 "catalog"。
func NewStoreCatalog(s core.Store, keyPrefix string) *StoreCatalog {
	if keyPrefix == "" {
		keyPrefix = "catalog"
	}
	return &StoreCatalog{store: s, KeyPrefix: keyPrefix}
}

func (c *StoreCatalog) Name() string { return "catalog.store" }

func (c *StoreCatalog) key(id string) string {
	return c.KeyPrefix + ":item:" + id
}

// BatchGet 实现 MetadataSource；反序列化失败的条目视为缺失。
func (c *StoreCatalog) BatchGet(ctx context.Context, ids []string) (core.MetadataSnapshot, error) {
	ids = uniqueIDs(ids)
	snap := make(core.MetadataSnapshot, len(ids))
	if len(ids) == 0 {
		return snap, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}
	raw, err := c.store.BatchGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("catalog batch get: %w", err)
	}

	for i, id := range ids {
		data, ok := raw[keys[i]]
		if !ok {
			continue
		}
		var m core.ItemMetadata
		if err := json.Unmarshal(data, &m); err != nil {
			continue
		}
		m.Status = core.ParseAvailability(string(m.Status))
		snap[id] = m
	}
	return snap, nil
}

// PutAll 写入一批商品的元数据。
func (c *StoreCatalog) PutAll(ctx context.Context, products []Product) error {
	kvs := make(map[string][]byte, len(products))
	for _, p := range products {
		data, err := json.Marshal(p.Metadata())
		if err != nil {
			return fmt.Errorf("encode metadata %s: %w", p.ID, err)
		}
		kvs[c.key(p.ID)] = data
	}
	return c.store.BatchSet(ctx, kvs)
}

var _ MetadataSource = (*StoreCatalog)(nil)
