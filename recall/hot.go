package recall

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/rushteam/hybridrec/core"
)

// DefaultHotKey 是热门榜的默认存储 key。
const DefaultHotKey = "hot:items"

// Hot 是热门召回源，协同过滤对未知用户的兜底。
//   - 如果 Store 实现了 KeyValueStore，优先使用 ZRange（有序集合，按分数从高到低）
//   - 否则从普通 key 读取 JSON 数组
//   - 如果 Store 为空或没有数据，使用内存中的 IDs
type Hot struct {
	Store core.Store
	Key   string   // 存储 key，默认 "hot:items"
	IDs   []string // fallback 内存列表
}

func (r *Hot) Name() string { return "recall.hot" }

// Recall 实现 Source 接口，返回前 limit 个热门商品。
// 读取 Store 失败时退回到内存列表，不返回 error。
func (r *Hot) Recall(ctx context.Context, _ *core.RecommendContext, limit int) ([]*core.Item, error) {
	if limit <= 0 {
		return nil, nil
	}
	ids := r.load(ctx, limit)
	if len(ids) == 0 {
		ids = r.IDs
	}
	return core.ItemsFromIDs(truncate(ids, limit), "hot"), nil
}

func (r *Hot) load(ctx context.Context, limit int) []string {
	if r.Store == nil {
		return nil
	}
	key := r.Key
	if key == "" {
		key = DefaultHotKey
	}

	if kvStore, ok := r.Store.(core.KeyValueStore); ok {
		members, err := kvStore.ZRange(ctx, key, 0, int64(limit-1))
		if err == nil && len(members) > 0 {
			return members
		}
	}

	// 普通 key：读取 JSON 数组
	data, err := r.Store.Get(ctx, key)
	if err != nil {
		return nil
	}
	var parsed []string
	if json.Unmarshal(data, &parsed) != nil {
		return nil
	}
	return parsed
}

var _ Source = (*Hot)(nil)
