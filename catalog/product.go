// Package catalog 提供商品元数据：构建期的完整商品记录（Product）与请求期的只读元数据快照。
//
// 元数据源（MetadataSource）的实现：
//   - Holder: 进程内不可变 Catalog，重建时原子替换
//   - StoreCatalog: 基于 core.Store（Redis / 内存）
//   - FeastCatalog: 基于 Feast 在线特征
//   - Cached: 任意元数据源前的 LRU 缓存
package catalog

import (
	"context"
	"strings"

	"github.com/rushteam/hybridrec/core"
)

// Product 是商品库中的完整记录，构建内容特征时需要文本字段。
type Product struct {
	ID       string            `json:"product_sys_id"`
	Name     string            `json:"name"`
	Category string            `json:"category"`
	Brand    string            `json:"brand"`
	Specs    string            `json:"specs_text"`
	Price    float64           `json:"sell_price"`
	Stock    int               `json:"stock"`
	Status   core.Availability `json:"status"`
}

// Metadata 返回请求期使用的元数据部分。
func (p Product) Metadata() core.ItemMetadata {
	return core.ItemMetadata{
		Category: p.Category,
		Price:    p.Price,
		Stock:    p.Stock,
		Status:   p.Status,
	}
}

// Normalize 清理 ID 两端空白并归一化状态，返回 false 表示 ID 为空应丢弃。
func (p *Product) Normalize() bool {
	p.ID = strings.TrimSpace(p.ID)
	p.Status = core.ParseAvailability(string(p.Status))
	return p.ID != ""
}

// MetadataSource 是商品元数据源。
// BatchGet 只返回找到的商品，缺失的 ID 不出现在快照中；error 表示元数据源本身故障。
type MetadataSource interface {
	Name() string
	BatchGet(ctx context.Context, ids []string) (core.MetadataSnapshot, error)
}

// Get 查询单个商品，找不到时 ok == false。
func Get(ctx context.Context, src MetadataSource, id string) (core.ItemMetadata, bool, error) {
	snap, err := src.BatchGet(ctx, []string{id})
	if err != nil {
		return core.ItemMetadata{}, false, err
	}
	m, ok := snap.Lookup(id)
	return m, ok, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
