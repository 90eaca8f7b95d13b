package model

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/hybridrec/catalog"
	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pkg/logging"
	"github.com/rushteam/hybridrec/recall"
)

// ProductLoader 是商品数据来源，catalog.PostgresLoader 与 ProductsFile 都实现了它。
type ProductLoader interface {
	LoadProducts(ctx context.Context) ([]catalog.Product, error)
}

// ProductsFile 是基于 JSON 文件的 ProductLoader。
type ProductsFile string

func (f ProductsFile) LoadProducts(context.Context) ([]catalog.Product, error) {
	return catalog.LoadProductsJSON(string(f))
}

var (
	_ ProductLoader = ProductsFile("")
	_ ProductLoader = (*catalog.PostgresLoader)(nil)
)

// Purger 是可清空的缓存，重建后调用。
type Purger interface {
	Purge()
}

// ErrRebuildInProgress 表示已有重建在执行。
var ErrRebuildInProgress = core.NewDomainError(core.ModuleModel, core.ErrorCodeUnavailable, "model: rebuild in progress")

// Rebuilder 离线构建召回数据与商品元数据并写入存储。
// 重建是显式的管理操作（CLI 或管理接口触发），同一时刻只允许一个重建。
type Rebuilder struct {
	Products ProductLoader
	// Ratings 为 nil 时跳过协同过滤与热门榜
	Ratings RatingsLoader
	Store   core.Store

	// Holder 非空时发布新的进程内 Catalog
	Holder *catalog.Holder
	// Caches 在写入完成后清空
	Caches []Purger

	Components    int    // SVD 隐因子数，默认 DefaultComponents
	MFPrefix      string // 默认 "mf"
	ContentPrefix string // 默认 "content"
	CatalogPrefix string // 默认 "catalog"
	HotKey        string // 默认 recall.DefaultHotKey

	mu sync.Mutex
}

// Stats 是一次重建的统计。
type Stats struct {
	Products   int           `json:"products"`
	Ratings    int           `json:"ratings"`
	Users      int           `json:"users"`
	Components int           `json:"components"`
	HotItems   int           `json:"hot_items"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Rebuild 执行一次完整重建：
//
// 1. 读取商品，写入 StoreCatalog
// 2. 计算 TF-IDF 内容特征
// 3. 读取评分，训练 SVD 并写入用户/物品向量
// 4. 按评分次数写入热门榜
// 5. 发布新 Catalog 并清空缓存
func (r *Rebuilder) Rebuild(ctx context.Context) (Stats, error) {
	if !r.mu.TryLock() {
		return Stats{}, ErrRebuildInProgress
	}
	defer r.mu.Unlock()

	start := time.Now()
	logger := logging.Ctx(ctx)
	var stats Stats

	// 1. 商品
	products, err := r.Products.LoadProducts(ctx)
	if err != nil {
		return stats, fmt.Errorf("load products: %w", err)
	}
	cat := catalog.NewCatalog(products)
	products = cat.Products()
	stats.Products = len(products)
	if err := catalog.NewStoreCatalog(r.Store, r.CatalogPrefix).PutAll(ctx, products); err != nil {
		return stats, fmt.Errorf("write catalog: %w", err)
	}

	// 2. 内容特征
	features := BuildTFIDF(products)
	content := recall.NewStoreContentAdapter(r.Store, r.ContentPrefix)
	if err := content.SaveItemFeatures(ctx, cat.IDs(), features); err != nil {
		return stats, fmt.Errorf("write content features: %w", err)
	}

	// 3/4. 协同过滤与热门榜
	if r.Ratings != nil {
		ratings, err := r.Ratings.LoadRatings(ctx)
		if err != nil {
			return stats, fmt.Errorf("load ratings: %w", err)
		}
		stats.Ratings = len(ratings)

		factors, err := TrainSVD(ratings, r.Components)
		switch {
		case err == nil:
			mf := recall.NewStoreMFAdapter(r.Store, r.MFPrefix)
			if err := mf.SaveUserVectors(ctx, factors.Users); err != nil {
				return stats, fmt.Errorf("write user vectors: %w", err)
			}
			if err := mf.SaveItemVectors(ctx, factors.ItemIDs, factors.Items); err != nil {
				return stats, fmt.Errorf("write item vectors: %w", err)
			}
			stats.Users = len(factors.Users)
			stats.Components = factors.Components
		case core.IsInvalidInput(err):
			// 评分太少时只跳过协同过滤，热门榜与内容特征照常更新
			logger.Warn().Err(err).Msg("skip collaborative model")
		default:
			return stats, err
		}

		popular := Popularity(ratings)
		if err := r.writeHot(ctx, popular); err != nil {
			return stats, fmt.Errorf("write hot items: %w", err)
		}
		stats.HotItems = len(popular)
	}

	// 5. 发布
	if r.Holder != nil {
		r.Holder.Swap(cat)
	}
	for _, c := range r.Caches {
		c.Purge()
	}

	stats.Elapsed = time.Since(start)
	logger.Info().
		Int("products", stats.Products).
		Int("ratings", stats.Ratings).
		Int("users", stats.Users).
		Int("components", stats.Components).
		Dur("elapsed", stats.Elapsed).
		Msg("rebuild done")
	return stats, nil
}

// writeHot 覆盖热门榜：支持有序集合时写 zset，否则写 JSON 列表。
func (r *Rebuilder) writeHot(ctx context.Context, popular []Popular) error {
	key := r.HotKey
	if key == "" {
		key = recall.DefaultHotKey
	}
	if err := r.Store.Delete(ctx, key); err != nil {
		return err
	}

	if kv, ok := r.Store.(core.KeyValueStore); ok {
		// 分数用名次倒序而不是评分次数，同次数商品的顺序与 Popularity 一致
		for i, p := range popular {
			if err := kv.ZAdd(ctx, key, float64(len(popular)-i), p.ItemID); err != nil {
				return err
			}
		}
		return nil
	}

	ids := make([]string, len(popular))
	for i, p := range popular {
		ids[i] = p.ItemID
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return r.Store.Set(ctx, key, data)
}
