// Package hybrid 是混合推荐的编排器：并发拉取协同过滤与内容两路候选，
// 排除锚点商品，按锚点元数据重排，再按场景策略融合成最终列表。
//
// 编排器从不返回错误：候选源故障视为空列表，锚点元数据缺失时关闭重排，
// 候选不足时返回较短的结果。
package hybrid

import (
	"context"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rushteam/hybridrec/catalog"
	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/filter"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/pkg/logging"
	"github.com/rushteam/hybridrec/recall"
	"github.com/rushteam/hybridrec/rerank"
	"github.com/rushteam/hybridrec/scene"
)

var tracer = otel.Tracer("github.com/rushteam/hybridrec/hybrid")

// Options 是 Recommender 的依赖。
type Options struct {
	Config core.HybridConfig

	// Collaborative 以用户为主体的候选源，未知用户应返回热门兜底
	Collaborative recall.Source
	// Content 以锚点商品为主体的候选源，未知商品应返回空列表
	Content recall.Source

	// Catalog 商品元数据源；为 nil 时不做重排
	Catalog catalog.MetadataSource

	// Scenes 场景表；为 nil 时使用内置场景表
	Scenes *scene.Table

	// Prefilter 可选的候选预过滤 pipeline，在锚点排除之后、重排之前对每路候选执行
	Prefilter *pipeline.Pipeline

	// Metrics 可选
	Metrics *Metrics
}

// Recommender 是混合推荐编排器，构建后只读，可被并发调用。
type Recommender struct {
	cfg       core.HybridConfig
	fanout    *recall.Fanout
	catalog   catalog.MetadataSource
	scenes    *scene.Table
	prefilter *pipeline.Pipeline
	smart     filter.SmartFilter
	metrics   *Metrics
}

// Request 是一次推荐请求。TopN <= 0 与空 Scene 使用配置中的默认值。
type Request struct {
	UserID       string
	AnchorItemID string
	TopN         int
	Scene        string
	Params       map[string]any
}

// Result 是推荐结果。Items 长度 <= TopN，不含锚点，不含重复。
type Result struct {
	AnchorItemID string
	Scene        string
	Policy       scene.Policy
	Items        []*core.Item
}

// IDs 返回结果的商品 ID 列表。
func (r Result) IDs() []string {
	return core.ItemIDs(r.Items)
}

const (
	sourceIndexCollaborative = 0
	sourceIndexContent       = 1
)

// New 创建编排器。缺失的候选源按空候选源处理。
func New(opts Options) *Recommender {
	cfg := opts.Config.WithDefaults()

	collaborative := opts.Collaborative
	if collaborative == nil {
		collaborative = recall.Static("collaborative")
	}
	content := opts.Content
	if content == nil {
		content = recall.Static("content")
	}
	scenes := opts.Scenes
	if scenes == nil {
		scenes = scene.DefaultTable()
	}

	return &Recommender{
		cfg: cfg,
		fanout: &recall.Fanout{
			// 顺序与 sourceIndex* 一致
			Sources: []recall.Source{collaborative, content},
			Timeout: cfg.SourceTimeout,
		},
		catalog:   opts.Catalog,
		scenes:    scenes,
		prefilter: opts.Prefilter,
		smart:     filter.SmartFilter{PriceFloorRatio: cfg.PriceFloorRatio},
		metrics:   opts.Metrics,
	}
}

// Config 返回生效的编排参数。
func (r *Recommender) Config() core.HybridConfig {
	return r.cfg
}

// Recommend 执行一次混合推荐。
func (r *Recommender) Recommend(ctx context.Context, req Request) Result {
	start := time.Now()
	if req.TopN <= 0 {
		req.TopN = r.cfg.DefaultTopN
	}
	if req.Scene == "" {
		req.Scene = r.cfg.DefaultScene
	}
	policy, knownScene := r.scenes.Resolve(req.Scene)
	sceneLabel := req.Scene
	if !knownScene {
		sceneLabel = "default"
	}

	ctx, span := tracer.Start(ctx, "hybrid.Recommend", trace.WithAttributes(
		attribute.String("scene", req.Scene),
		attribute.String("anchor_item_id", req.AnchorItemID),
		attribute.Int("top_n", req.TopN),
	))
	defer span.End()

	lc := logging.Ctx(ctx).With().
		Str("scene", req.Scene).
		Str("user_id", req.UserID).
		Str("anchor_item_id", req.AnchorItemID)
	if sc := span.SpanContext(); sc.IsValid() {
		lc = lc.Str("trace_id", sc.TraceID().String())
	}
	logger := lc.Logger()

	rctx := &core.RecommendContext{
		UserID:       req.UserID,
		AnchorItemID: req.AnchorItemID,
		Scene:        req.Scene,
		Params:       req.Params,
	}

	// 1. 两路候选超量拉取
	limit := overfetchLimit(req.TopN, r.cfg.OverfetchFactor)
	results := r.fanout.Fetch(ctx, rctx, limit)
	for _, res := range results {
		failed := res.Err != nil
		r.metrics.observeSource(res.Source, len(res.Items), failed)
		if failed {
			logger.Warn().Err(res.Err).Str("source", res.Source).Dur("elapsed", res.Elapsed).
				Msg("candidate source failed, using empty list")
		}
	}
	collaborative := results[sourceIndexCollaborative].Items
	content := results[sourceIndexContent].Items

	// 2. 锚点与候选的元数据快照
	snapshot := r.snapshot(ctx, req.AnchorItemID, collaborative, content)
	var anchor *core.ItemMetadata
	if req.AnchorItemID != "" {
		if m, ok := snapshot.Lookup(req.AnchorItemID); ok {
			anchor = &m
		} else {
			r.metrics.anchorMetadataMiss()
			logger.Debug().Msg("anchor metadata not found, reordering disabled")
		}
	}

	// 3. 排除锚点
	collaborative = excludeItem(collaborative, req.AnchorItemID)
	content = excludeItem(content, req.AnchorItemID)

	// 4. 可选的预过滤
	if r.prefilter.Len() > 0 {
		collaborative = r.runPrefilter(ctx, rctx, collaborative, snapshot)
		content = r.runPrefilter(ctx, rctx, content, snapshot)
	}

	// 5. 按锚点重排
	collaborative = r.smart.Reorder(collaborative, snapshot, anchor)
	content = r.smart.Reorder(content, snapshot, anchor)

	// 6. 按场景策略融合
	lists := map[scene.SourceKind][]*core.Item{
		scene.SourceCollaborative: collaborative,
		scene.SourceContent:       content,
	}
	blended := rerank.Blend(lists[policy.Primary], lists[policy.Secondary], policy.Ratio, req.TopN)
	items := rerank.Truncate(blended, req.TopN)

	r.metrics.observeRequest(sceneLabel, time.Since(start).Seconds(), len(items))
	span.SetAttributes(attribute.Int("result_size", len(items)))
	logger.Debug().Int("collaborative", len(collaborative)).Int("content", len(content)).
		Int("result", len(items)).Msg("hybrid recommendation done")

	return Result{
		AnchorItemID: req.AnchorItemID,
		Scene:        req.Scene,
		Policy:       policy,
		Items:        items,
	}
}

// snapshot 一次性读取锚点与全部候选的元数据；元数据源故障时返回空快照，重排随之关闭。
func (r *Recommender) snapshot(ctx context.Context, anchorID string, lists ...[]*core.Item) core.MetadataSnapshot {
	if r.catalog == nil {
		return nil
	}
	ids := make([]string, 0, 1+len(lists)*r.cfg.DefaultTopN)
	if anchorID != "" {
		ids = append(ids, anchorID)
	}
	for _, l := range lists {
		ids = append(ids, core.ItemIDs(l)...)
	}
	if len(ids) == 0 {
		return nil
	}

	snap, err := r.catalog.BatchGet(ctx, ids)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("catalog", r.catalog.Name()).
			Msg("metadata lookup failed, reordering disabled")
		return nil
	}
	return snap
}

func (r *Recommender) runPrefilter(ctx context.Context, rctx *core.RecommendContext, items []*core.Item, snapshot core.MetadataSnapshot) []*core.Item {
	for _, it := range items {
		annotate(it, snapshot)
	}
	out, err := r.prefilter.Run(ctx, rctx, items)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("prefilter failed, using unfiltered candidates")
		return items
	}
	return out
}

// annotate 把元数据写入 item.Meta，供过滤表达式读取。
func annotate(it *core.Item, snapshot core.MetadataSnapshot) {
	m, ok := snapshot.Lookup(it.ID)
	if !ok {
		return
	}
	if it.Meta == nil {
		it.Meta = make(map[string]any, 4)
	}
	it.Meta["category"] = m.Category
	it.Meta["price"] = m.Price
	it.Meta["stock"] = m.Stock
	it.Meta["status"] = string(m.Status)
}

// excludeItem 返回去掉 id 后的新列表。
func excludeItem(items []*core.Item, id string) []*core.Item {
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil || (id != "" && it.ID == id) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// overfetchLimit 返回 topN*factor，溢出时取 math.MaxInt。
func overfetchLimit(topN, factor int) int {
	if factor <= 1 {
		return topN
	}
	if topN > math.MaxInt/factor {
		return math.MaxInt
	}
	return topN * factor
}
