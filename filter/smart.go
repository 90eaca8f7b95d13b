package filter

import (
	"github.com/rushteam/hybridrec/core"
)

// DefaultPriceFloorRatio 是同类目候选的最低价格比例（相对锚点价格）。
const DefaultPriceFloorRatio = 0.6

// SmartFilter 按锚点商品的类目和价格对一个候选列表重新排序。
//
// 候选按输入顺序依次归入：
//  1. 硬过滤：价格 <= 0、缺货状态或库存 <= 0，直接丢弃
//  2. 合理：与锚点同类目且价格 >= 锚点价格 * PriceFloorRatio，追加到 eligible
//  3. 同类目但价格过低：插入 deferred 头部，越晚出现越靠前
//  4. 不同类目或元数据未知：追加到 deferred 尾部
//
// 输出为 eligible 后接 deferred。价格只有下限，没有上限。
type SmartFilter struct {
	// PriceFloorRatio <= 0 时使用 DefaultPriceFloorRatio
	PriceFloorRatio float64
}

// Reorder 返回重排后的新列表，不修改输入。
// anchor 为 nil 或类目为空时没有参照，原样返回输入的副本。
func (f SmartFilter) Reorder(items []*core.Item, lookup core.MetadataLookup, anchor *core.ItemMetadata) []*core.Item {
	if anchor == nil || anchor.Category == "" {
		return append([]*core.Item(nil), items...)
	}

	ratio := f.PriceFloorRatio
	if ratio <= 0 {
		ratio = DefaultPriceFloorRatio
	}
	floor := anchor.Price * ratio

	eligible := make([]*core.Item, 0, len(items))
	var tooCheap, other []*core.Item

	for _, it := range items {
		if it == nil {
			continue
		}
		var (
			meta  core.ItemMetadata
			known bool
		)
		if lookup != nil {
			meta, known = lookup.Lookup(it.ID)
		}
		if !known {
			other = append(other, it)
			continue
		}
		if !meta.Purchasable() {
			continue
		}
		switch {
		case meta.Category != anchor.Category:
			other = append(other, it)
		case meta.Price >= floor:
			eligible = append(eligible, it)
		default:
			tooCheap = append(tooCheap, it)
		}
	}

	// deferred = 逆序的 tooCheap + other，等价于逐个插入头部
	out := eligible
	for i := len(tooCheap) - 1; i >= 0; i-- {
		out = append(out, tooCheap[i])
	}
	return append(out, other...)
}

// ReorderIDs 是 Reorder 的 ID 版本。
func (f SmartFilter) ReorderIDs(ids []string, lookup core.MetadataLookup, anchor *core.ItemMetadata) []string {
	return core.ItemIDs(f.Reorder(core.ItemsFromIDs(ids, ""), lookup, anchor))
}
