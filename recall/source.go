// Package recall 提供候选源（召回源）及其并发执行。
//
// 候选源只负责给出按相关度排好序（最优在前）的商品 ID 列表，
// 不保证去重，也不做任何业务过滤；过滤与融合在下游完成。
package recall

import (
	"context"

	"github.com/rushteam/hybridrec/core"
)

// Source 表示一个候选源（协同过滤/内容/热门/...）。
//   - 协同过滤源以 rctx.UserID 为主体
//   - 内容源以 rctx.AnchorItemID 为主体
//
// 主体未知时应返回兜底列表或空列表，而不是 error；error 只表示源本身故障。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext, limit int) ([]*core.Item, error)
}

// SourceFunc 把函数适配为 Source。
type SourceFunc struct {
	SourceName string
	Fn         func(ctx context.Context, rctx *core.RecommendContext, limit int) ([]*core.Item, error)
}

func (s SourceFunc) Name() string { return s.SourceName }

func (s SourceFunc) Recall(ctx context.Context, rctx *core.RecommendContext, limit int) ([]*core.Item, error) {
	return s.Fn(ctx, rctx, limit)
}

// Static 返回固定 ID 列表的候选源，常用于测试和兜底。
func Static(name string, ids ...string) Source {
	return SourceFunc{
		SourceName: name,
		Fn: func(_ context.Context, _ *core.RecommendContext, limit int) ([]*core.Item, error) {
			return core.ItemsFromIDs(truncate(ids, limit), ""), nil
		},
	}
}

func truncate(ids []string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	if len(ids) > limit {
		return ids[:limit]
	}
	return ids
}

var _ Source = SourceFunc{}
