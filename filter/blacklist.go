package filter

import (
	"context"

	"github.com/rushteam/hybridrec/core"
)

// BlacklistFilter 是黑名单过滤器，过滤掉黑名单中的商品（下架、违规等）。
type BlacklistFilter struct {
	// ItemIDs 是内存中的黑名单商品 ID 列表
	ItemIDs []string

	// Store 用于从存储中读取黑名单（可选）
	Store BlacklistStore

	// Key 是 Store 中的黑名单 key（可选）
	Key string
}

// BlacklistStore 是黑名单存储接口。
type BlacklistStore interface {
	// GetBlacklist 获取黑名单商品 ID 列表
	GetBlacklist(ctx context.Context, key string) ([]string, error)
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(itemIDs []string, storeAdapter *StoreAdapter, key string) *BlacklistFilter {
	var store BlacklistStore
	if storeAdapter != nil {
		store = storeAdapter
	}
	return &BlacklistFilter{
		ItemIDs: itemIDs,
		Store:   store,
		Key:     key,
	}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

// Prepare 读取一次存储中的黑名单，读取失败时只使用内存列表。
func (f *BlacklistFilter) Prepare(ctx context.Context, _ *core.RecommendContext) (Filter, error) {
	var stored []string
	if f.Store != nil && f.Key != "" {
		if ids, err := f.Store.GetBlacklist(ctx, f.Key); err == nil {
			stored = ids
		}
	}
	return newIDSet(f.Name(), f.ItemIDs, stored), nil
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	prepared, err := f.Prepare(ctx, rctx)
	if err != nil {
		return false, err
	}
	return prepared.ShouldFilter(ctx, rctx, item)
}

var (
	_ Filter   = (*BlacklistFilter)(nil)
	_ Preparer = (*BlacklistFilter)(nil)
)
