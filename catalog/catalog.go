package catalog

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/rushteam/hybridrec/core"
)

// Catalog 是构建完成后不可变的商品集合。
// 只能通过 NewCatalog 构建，构建后不再修改，可被并发读取。
type Catalog struct {
	products map[string]Product
	ids      []string // 按 ID 排序，保证遍历顺序稳定
}

// NewCatalog 构建 Catalog；ID 为空的商品被丢弃，重复 ID 以后出现的为准。
func NewCatalog(products []Product) *Catalog {
	c := &Catalog{products: make(map[string]Product, len(products))}
	for _, p := range products {
		if !p.Normalize() {
			continue
		}
		c.products[p.ID] = p
	}
	c.ids = make([]string, 0, len(c.products))
	for id := range c.products {
		c.ids = append(c.ids, id)
	}
	sort.Strings(c.ids)
	return c
}

// Len 返回商品数量。
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.ids)
}

// Product 按 ID 查询完整商品记录。
func (c *Catalog) Product(id string) (Product, bool) {
	if c == nil {
		return Product{}, false
	}
	p, ok := c.products[id]
	return p, ok
}

// Products 按 ID 顺序返回所有商品（副本）。
func (c *Catalog) Products() []Product {
	if c == nil {
		return nil
	}
	out := make([]Product, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.products[id])
	}
	return out
}

// IDs 返回排序后的商品 ID（副本）。
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.ids...)
}

// Lookup 实现 core.MetadataLookup。
func (c *Catalog) Lookup(id string) (core.ItemMetadata, bool) {
	p, ok := c.Product(id)
	if !ok {
		return core.ItemMetadata{}, false
	}
	return p.Metadata(), true
}

var _ core.MetadataLookup = (*Catalog)(nil)

// Holder 持有当前生效的 Catalog。
// 重建是显式的管理操作：构建新 Catalog 后调用 Swap 原子替换，正在处理的请求继续使用旧快照。
type Holder struct {
	current atomic.Pointer[Catalog]
}

// NewHolder 创建 Holder，c 可以为 nil（尚未构建）。
func NewHolder(c *Catalog) *Holder {
	h := &Holder{}
	if c != nil {
		h.current.Store(c)
	}
	return h
}

// Current 返回当前 Catalog，尚未构建时返回 nil。
func (h *Holder) Current() *Catalog {
	return h.current.Load()
}

// Swap 替换当前 Catalog，返回旧的。
func (h *Holder) Swap(c *Catalog) *Catalog {
	return h.current.Swap(c)
}

func (h *Holder) Name() string { return "catalog.memory" }

// BatchGet 实现 MetadataSource；尚未构建时返回 ErrCatalogUnavailable。
func (h *Holder) BatchGet(_ context.Context, ids []string) (core.MetadataSnapshot, error) {
	c := h.Current()
	if c == nil {
		return nil, core.ErrCatalogUnavailable
	}
	snap := make(core.MetadataSnapshot, len(ids))
	for _, id := range ids {
		if m, ok := c.Lookup(id); ok {
			snap[id] = m
		}
	}
	return snap, nil
}

var _ MetadataSource = (*Holder)(nil)
