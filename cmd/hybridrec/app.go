package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/rushteam/hybridrec/catalog"
	"github.com/rushteam/hybridrec/config"
	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/feast"
	"github.com/rushteam/hybridrec/hybrid"
	"github.com/rushteam/hybridrec/model"
	"github.com/rushteam/hybridrec/recall"
	"github.com/rushteam/hybridrec/scene"
	"github.com/rushteam/hybridrec/store"
)

// app 是按 Settings 装配好的服务组件。
type app struct {
	settings *config.Settings
	logger   zerolog.Logger

	store         core.Store
	holder        *catalog.Holder
	collaborative recall.Source
	content       recall.Source
	recommender   *hybrid.Recommender
	rebuilder     *model.Rebuilder // 没有配置商品数据来源时为 nil
	registry      *prometheus.Registry

	closers []func() error
}

// newApp 装配组件：
//
// 1. KV 存储（memory / redis）
// 2. 商品元数据源（进程内 Catalog / StoreCatalog / Feast）与 LRU 缓存
// 3. 协同过滤（热门兜底）与内容两路候选源，可选熔断
// 4. 场景表与预过滤 pipeline
// 5. 编排器与重建器
func newApp(ctx context.Context, s *config.Settings, logger zerolog.Logger) (_ *app, err error) {
	a := &app{settings: s, logger: logger, registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// 1. 存储
	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	// 2. 元数据
	a.holder = catalog.NewHolder(nil)
	metadata, cache, err := a.openCatalog()
	if err != nil {
		return nil, err
	}

	// 3. 候选源
	hot := &recall.Hot{Store: a.store}
	a.collaborative = &recall.MFRecall{Store: recall.NewStoreMFAdapter(a.store, ""), Fallback: hot}
	a.content = &recall.ContentRecall{Store: recall.NewStoreContentAdapter(a.store, "")}
	if s.Breaker.Enabled {
		bs := recall.BreakerSettings{
			ConsecutiveFailures: s.Breaker.ConsecutiveFailures,
			OpenTimeout:         s.Breaker.OpenTimeout,
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn().Str("source", name).Str("from", from.String()).Str("to", to.String()).
					Msg("source breaker state changed")
			},
		}
		a.collaborative = recall.NewBreaker(a.collaborative, bs)
		a.content = recall.NewBreaker(a.content, bs)
	}

	// 4. 场景与预过滤
	scenes := scene.DefaultTable()
	if s.Hybrid.SceneFile != "" {
		if scenes, err = scene.LoadYAML(s.Hybrid.SceneFile); err != nil {
			return nil, err
		}
	}
	prefilter, err := config.LoadPipeline(s.Hybrid.PipelineFile, config.Deps{Store: a.store})
	if err != nil {
		return nil, err
	}

	// 5. 编排与重建
	a.recommender = hybrid.New(hybrid.Options{
		Config:        s.HybridConfig(),
		Collaborative: a.collaborative,
		Content:       a.content,
		Catalog:       metadata,
		Scenes:        scenes,
		Prefilter:     prefilter,
		Metrics:       hybrid.NewMetrics(a.registry),
	})
	if err := a.openRebuilder(ctx, cache); err != nil {
		return nil, err
	}

	logger.Info().
		Str("store", a.store.Name()).
		Str("catalog", metadata.Name()).
		Strs("scenes", scenes.Names()).
		Int("prefilter_nodes", prefilter.Len()).
		Bool("rebuild_enabled", a.rebuilder != nil).
		Msg("app ready")
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.settings.Store.Backend {
	case "redis":
		rs, err := store.NewRedisStore(ctx, store.RedisOptions{
			Addr:     a.settings.Store.Redis.Addr,
			Password: a.settings.Store.Redis.Password,
			DB:       a.settings.Store.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("open redis: %w", err)
		}
		a.store = rs
	default:
		a.store = store.NewMemoryStore()
	}
	a.closers = append(a.closers, a.store.Close)
	return nil
}

// openCatalog 返回请求期元数据源；进程内 Catalog 不加缓存。
func (a *app) openCatalog() (catalog.MetadataSource, *catalog.Cached, error) {
	cs := a.settings.Catalog
	var src catalog.MetadataSource
	switch cs.Source {
	case "store":
		src = catalog.NewStoreCatalog(a.store, "")
	case "feast":
		var opts []feast.ClientOption
		if cs.Feast.Token != "" {
			opts = append(opts, feast.WithStaticToken(cs.Feast.Token))
		}
		client, err := feast.NewGrpcClient(cs.Feast.Host, cs.Feast.Port, cs.Feast.Project, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("open feast: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		src = &catalog.FeastCatalog{Client: client, Project: cs.Feast.Project, FeatureView: cs.Feast.FeatureView}
	default:
		return a.holder, nil, nil
	}

	cached := catalog.NewCached(src, cs.CacheSize, cs.CacheTTL)
	return cached, cached, nil
}

func (a *app) openRebuilder(ctx context.Context, cache *catalog.Cached) error {
	d := a.settings.Data
	var products model.ProductLoader
	switch {
	case d.PostgresDSN != "":
		pool, err := catalog.ConnectPostgres(ctx, d.PostgresDSN)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		products = catalog.NewPostgresLoader(pool)
	case d.ProductsFile != "":
		products = model.ProductsFile(d.ProductsFile)
	default:
		return nil
	}

	rb := &model.Rebuilder{
		Products:   products,
		Store:      a.store,
		Holder:     a.holder,
		Components: d.SVDComponents,
	}
	if d.RatingsFile != "" {
		rb.Ratings = model.RatingsFile(d.RatingsFile)
	}
	if cache != nil {
		rb.Caches = append(rb.Caches, cache)
	}
	a.rebuilder = rb
	return nil
}

// needsWarmup 报告进程内状态是否只能靠启动时重建获得。
func (a *app) needsWarmup() bool {
	return a.settings.Store.Backend == "memory" || a.settings.Catalog.Source == "memory"
}

// warmup 在需要时执行一次重建；没有配置数据来源时只记录警告，服务以空数据启动。
func (a *app) warmup(ctx context.Context, force bool) error {
	if !force && !a.needsWarmup() {
		return nil
	}
	if a.rebuilder == nil {
		a.logger.Warn().Msg("no data.products_file or data.postgres_dsn configured, starting with empty data")
		return nil
	}
	_, err := a.rebuilder.Rebuild(ctx)
	return err
}

// Close 按打开的逆序释放资源。
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn().Err(err).Msg("close")
		}
	}
	a.closers = nil
}
