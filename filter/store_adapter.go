package filter

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/rushteam/hybridrec/core"
)

// StoreAdapter 将 core.Store 适配为过滤器所需的存储接口。
// 列表以 JSON 数组保存在普通 key 中。
type StoreAdapter struct {
	store core.Store
}

// NewStoreAdapter 创建一个 core.Store 适配器。
func NewStoreAdapter(s core.Store) *StoreAdapter {
	return &StoreAdapter{store: s}
}

// GetBlacklist 从 Store 读取黑名单，key 不存在时返回空列表。
func (a *StoreAdapter) GetBlacklist(ctx context.Context, key string) ([]string, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// GetUserBlocks 从 Store 读取用户屏蔽列表。
func (a *StoreAdapter) GetUserBlocks(ctx context.Context, userID string, keyPrefix string) ([]string, error) {
	return a.GetBlacklist(ctx, keyPrefix+":"+userID)
}

var (
	_ BlacklistStore = (*StoreAdapter)(nil)
	_ UserBlockStore = (*StoreAdapter)(nil)
)
