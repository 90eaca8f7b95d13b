package recall

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pkg/utils"
)

var tracer = otel.Tracer("github.com/rushteam/hybridrec/recall")

// SourceResult 是单个候选源的执行结果。
// Err 非空时 Items 为空：超时和故障都降级为空列表，由调用方决定是否记录。
type SourceResult struct {
	Source  string
	Items   []*core.Item
	Err     error
	Elapsed time.Duration
}

// Fanout 并发执行多个候选源，每个源独立超时。
// 结果按 Sources 顺序返回，与各源完成的先后无关，保证同样输入得到同样输出。
type Fanout struct {
	Sources       []Source
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
}

// Fetch 以同一个 limit 调用所有候选源。
func (n *Fanout) Fetch(ctx context.Context, rctx *core.RecommendContext, limit int) []SourceResult {
	results := make([]SourceResult, len(n.Sources))
	if len(n.Sources) == 0 {
		return results
	}

	eg, egCtx := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}

	for i, src := range n.Sources {
		eg.Go(func() error {
			results[i] = n.fetchOne(egCtx, src, i, rctx, limit)
			// 单个源失败不影响其他源
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

func (n *Fanout) fetchOne(ctx context.Context, src Source, priority int, rctx *core.RecommendContext, limit int) SourceResult {
	ctx, span := tracer.Start(ctx, "recall."+src.Name())
	defer span.End()
	span.SetAttributes(attribute.String("source", src.Name()), attribute.Int("limit", limit))

	if n.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.Timeout)
		defer cancel()
	}

	start := time.Now()
	items, err := src.Recall(ctx, rctx, limit)
	res := SourceResult{Source: src.Name(), Elapsed: time.Since(start)}
	if err == nil && ctx.Err() != nil {
		// 源忽略了 ctx，超时后返回的结果同样丢弃
		err = ctx.Err()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		res.Err = err
		return res
	}

	// 记录召回来源 label，方便 explain / 观测
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		it.PutLabel("recall_source", utils.Label{Value: src.Name(), Source: "recall"})
		it.PutLabel("recall_priority", utils.Label{Value: strconv.Itoa(priority), Source: "recall"})
		out = append(out, it)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	span.SetAttributes(attribute.Int("candidates", len(out)))
	res.Items = out
	return res
}
