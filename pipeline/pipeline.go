// Package pipeline 把候选处理拆成可组合的 Node 链。
// 在混合推荐里它用于融合前的候选预过滤，每个候选列表独立跑一遍。
package pipeline

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/rushteam/hybridrec/core"
)

var tracer = otel.Tracer("github.com/rushteam/hybridrec/pipeline")

// Pipeline 是按顺序执行的 Node 链。零值和 nil 都是合法的空 Pipeline。
type Pipeline struct {
	Name  string
	Nodes []Node
}

// Run 依次执行所有 Node；任一 Node 出错时返回错误，调用方决定如何降级。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if p == nil || len(p.Nodes) == 0 {
		return items, nil
	}

	cur := items
	for _, node := range p.Nodes {
		nodeCtx, span := tracer.Start(ctx, "pipeline."+node.Name())
		span.SetAttributes(
			attribute.String("kind", string(node.Kind())),
			attribute.Int("input", len(cur)),
		)
		next, err := node.Process(nodeCtx, rctx, cur)
		if err != nil {
			span.RecordError(err)
			span.End()
			return nil, fmt.Errorf("node %s: %w", node.Name(), err)
		}
		span.SetAttributes(attribute.Int("output", len(next)))
		span.End()
		cur = next
	}
	return cur, nil
}

// Len 返回 Node 数量。
func (p *Pipeline) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Nodes)
}
