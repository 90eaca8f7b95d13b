package recall

import (
	"context"
	"sort"

	"github.com/rushteam/hybridrec/core"
)

// MFStore 是矩阵分解的存储接口，用于获取用户和物品的隐向量。
type MFStore interface {
	// GetUserVector 获取用户的隐向量，用户不存在时返回空向量
	GetUserVector(ctx context.Context, userID string) ([]float64, error)

	// GetAllItemVectors 获取所有物品的隐向量（用于在线召回）
	GetAllItemVectors(ctx context.Context) (map[string][]float64, error)
}

// MFRecall 是基于矩阵分解的协同过滤候选源。
//
// 预测分数 = 用户隐向量 · 物品隐向量，按分数从高到低返回，分数相同按 ID 升序。
// 未知用户（没有隐向量）交给 Fallback，一般是热门榜；Fallback 为空时返回空列表。
type MFRecall struct {
	Store    MFStore
	Fallback Source
}

func (r *MFRecall) Name() string { return "recall.collaborative" }

func (r *MFRecall) Recall(ctx context.Context, rctx *core.RecommendContext, limit int) ([]*core.Item, error) {
	if limit <= 0 {
		return nil, nil
	}

	var userVector []float64
	if r.Store != nil && rctx != nil && rctx.UserID != "" {
		vec, err := r.Store.GetUserVector(ctx, rctx.UserID)
		if err != nil {
			return nil, err
		}
		userVector = vec
	}
	if len(userVector) == 0 {
		return r.fallback(ctx, rctx, limit)
	}

	allItemVectors, err := r.Store.GetAllItemVectors(ctx)
	if err != nil {
		return nil, err
	}

	type scoredItem struct {
		itemID string
		score  float64
	}
	scores := make([]scoredItem, 0, len(allItemVectors))
	for itemID, itemVector := range allItemVectors {
		if len(itemVector) != len(userVector) {
			continue
		}
		scores = append(scores, scoredItem{itemID: itemID, score: dotProduct(userVector, itemVector)})
	}
	if len(scores) == 0 {
		return r.fallback(ctx, rctx, limit)
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].itemID < scores[j].itemID
	})
	if len(scores) > limit {
		scores = scores[:limit]
	}

	out := make([]*core.Item, 0, len(scores))
	for _, s := range scores {
		it := core.NewItem(s.itemID)
		it.Score = s.score
		out = append(out, it)
	}
	return out, nil
}

func (r *MFRecall) fallback(ctx context.Context, rctx *core.RecommendContext, limit int) ([]*core.Item, error) {
	if r.Fallback == nil {
		return nil, nil
	}
	return r.Fallback.Recall(ctx, rctx, limit)
}

// dotProduct 计算两个向量的点积
func dotProduct(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

var _ Source = (*MFRecall)(nil)
