package rerank

import (
	"context"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，用于限制候选数量。
// 在预过滤 pipeline 中放在最后，可以控制进入融合阶段的候选规模。
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &filter.FilterNode{...},  // 过滤
//	        &rerank.TopNNode{N: 40},  // 截取 Top 40
//	    },
//	}
type TopNNode struct {
	// N 要保留的物品数量（Top N）
	// 如果 N <= 0，则返回所有物品（不截断）
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	return Truncate(items, n.N), nil
}

// Truncate 返回前 n 个候选；n <= 0 或候选不足 n 个时原样返回。
func Truncate(items []*core.Item, n int) []*core.Item {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[:n]
}

var _ pipeline.Node = (*TopNNode)(nil)
