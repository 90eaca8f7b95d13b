package recall

import (
	"context"
	"math"
	"sort"

	"github.com/rushteam/hybridrec/core"
)

// ContentStore 是基于内容的推荐的存储接口。
type ContentStore interface {
	// GetItemFeatures 获取物品的内容特征（TF-IDF 权重等），物品不存在时返回空 map
	GetItemFeatures(ctx context.Context, itemID string) (map[string]float64, error)

	// GetAllItemFeatures 获取所有物品的内容特征
	GetAllItemFeatures(ctx context.Context) (map[string]map[string]float64, error)
}

// ContentRecall 是基于内容的候选源：以当前浏览的商品为锚点，返回内容最相似的商品。
//
// 锚点自身不会出现在结果中；锚点未知（没有特征）时返回空列表。
// 相似度相同按 ID 升序，保证结果稳定。
type ContentRecall struct {
	Store ContentStore

	// Metric 距离度量方式：cosine / jaccard，默认 cosine
	Metric string
}

func (r *ContentRecall) Name() string { return "recall.content" }

func (r *ContentRecall) Recall(ctx context.Context, rctx *core.RecommendContext, limit int) ([]*core.Item, error) {
	if r.Store == nil || rctx == nil || rctx.AnchorItemID == "" || limit <= 0 {
		return nil, nil
	}

	// 1. 锚点特征
	anchor, err := r.Store.GetItemFeatures(ctx, rctx.AnchorItemID)
	if err != nil {
		return nil, err
	}
	if len(anchor) == 0 {
		return nil, nil
	}

	// 2. 与所有物品计算相似度
	all, err := r.Store.GetAllItemFeatures(ctx)
	if err != nil {
		return nil, err
	}

	similarity := cosineSimilarityForMaps
	if r.Metric == "jaccard" {
		similarity = jaccardSimilarity
	}

	type scoredItem struct {
		itemID string
		score  float64
	}
	scores := make([]scoredItem, 0, len(all))
	for itemID, features := range all {
		if itemID == rctx.AnchorItemID {
			continue
		}
		scores = append(scores, scoredItem{itemID: itemID, score: similarity(anchor, features)})
	}

	// 3. 排序取前 limit 个
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

// cosineSimilarityForMaps 计算两个稀疏向量的余弦相似度
func cosineSimilarityForMaps(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	for k, va := range a {
		normA += va * va
		if vb, ok := b[k]; ok {
			dot += va * vb
		}
	}
	for _, vb := range b {
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// jaccardSimilarity 计算两个加权集合的 Jaccard 相似度
func jaccardSimilarity(a, b map[string]float64) float64 {
	var intersection, union float64
	for k, va := range a {
		vb := b[k]
		intersection += math.Min(va, vb)
		union += math.Max(va, vb)
	}
	for k, vb := range b {
		if _, ok := a[k]; !ok {
			union += vb
		}
	}
	if union == 0 {
		return 0
	}
	return intersection / union
}

var _ Source = (*ContentRecall)(nil)
