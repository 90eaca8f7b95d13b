package core

import "strings"

// Availability 是商品的可售状态。
type Availability string

const (
	AvailabilityUnknown    Availability = ""
	AvailabilityInStock    Availability = "in_stock"
	AvailabilityOutOfStock Availability = "out_of_stock"
	AvailabilityPreorder   Availability = "preorder"
)

// ParseAvailability 归一化上游的状态字符串，兼容商品库里的 "instock" / "outstock" 写法。
// 无法识别的值原样保留（小写），只有 out_of_stock 会触发硬过滤。
func ParseAvailability(s string) Availability {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "in_stock", "instock", "in-stock", "available":
		return AvailabilityInStock
	case "out_of_stock", "outstock", "out-of-stock", "soldout", "sold_out":
		return AvailabilityOutOfStock
	case "preorder", "pre_order", "pre-order":
		return AvailabilityPreorder
	default:
		return Availability(v)
	}
}

// ItemMetadata 是一次请求内只读的商品元数据快照。
type ItemMetadata struct {
	Category string       `json:"category"`
	Price    float64      `json:"price"`
	Stock    int          `json:"stock"`
	Status   Availability `json:"status"`
}

// Purchasable 判断商品当前是否可售：价格为正、有库存、状态不是缺货。
func (m ItemMetadata) Purchasable() bool {
	return m.Price > 0 && m.Stock > 0 && m.Status != AvailabilityOutOfStock
}

// MetadataLookup 是请求级元数据查询接口。
// 找不到时返回 ok == false，调用方显式处理，不通过 error 表达"不存在"。
type MetadataLookup interface {
	Lookup(itemID string) (ItemMetadata, bool)
}

// MetadataSnapshot 是 map 形式的 MetadataLookup，用于请求级快照。
type MetadataSnapshot map[string]ItemMetadata

func (s MetadataSnapshot) Lookup(itemID string) (ItemMetadata, bool) {
	if s == nil {
		return ItemMetadata{}, false
	}
	m, ok := s[itemID]
	return m, ok
}

var _ MetadataLookup = MetadataSnapshot(nil)
