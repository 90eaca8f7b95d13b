package filter

import (
	"context"

	"github.com/rushteam/hybridrec/core"
)

// UserBlockFilter 是用户屏蔽过滤器，过滤掉用户点过"不感兴趣"的商品。
type UserBlockFilter struct {
	// Store 用于从存储中读取用户屏蔽列表
	Store UserBlockStore

	// KeyPrefix 是 Store 中的 key 前缀，实际 key 为 {KeyPrefix}:{UserID}
	KeyPrefix string
}

// UserBlockStore 是用户屏蔽列表存储接口。
type UserBlockStore interface {
	// GetUserBlocks 获取用户屏蔽的商品 ID 列表
	GetUserBlocks(ctx context.Context, userID string, keyPrefix string) ([]string, error)
}

// NewUserBlockFilter 创建一个用户屏蔽过滤器。
func NewUserBlockFilter(storeAdapter *StoreAdapter, keyPrefix string) *UserBlockFilter {
	var store UserBlockStore
	if storeAdapter != nil {
		store = storeAdapter
	}
	return &UserBlockFilter{
		Store:     store,
		KeyPrefix: keyPrefix,
	}
}

func (f *UserBlockFilter) Name() string {
	return "filter.user_block"
}

// Prepare 读取当前用户的屏蔽列表；匿名请求或读取失败时不过滤。
func (f *UserBlockFilter) Prepare(ctx context.Context, rctx *core.RecommendContext) (Filter, error) {
	if f.Store == nil || rctx == nil || rctx.UserID == "" {
		return newIDSet(f.Name()), nil
	}

	keyPrefix := f.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "user:block"
	}
	blocked, err := f.Store.GetUserBlocks(ctx, rctx.UserID, keyPrefix)
	if err != nil {
		return newIDSet(f.Name()), nil
	}
	return newIDSet(f.Name(), blocked), nil
}

func (f *UserBlockFilter) ShouldFilter(
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
	_ Filter   = (*UserBlockFilter)(nil)
	_ Preparer = (*UserBlockFilter)(nil)
)
