package core

import "github.com/rushteam/hybridrec/pkg/utils"

// Item 是候选列表中的统一承载结构。
// ID 是商品标识（product_sys_id），在召回、元数据、融合之间作为 join key。
// Score 仅由召回源写入，融合阶段只看列表顺序，不看分数。
type Item struct {
	ID     string
	Score  float64
	Meta   map[string]any
	Labels map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:     id,
		Meta:   make(map[string]any),
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// ItemIDs 按顺序取出 ID 列表。
func ItemIDs(items []*Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		out = append(out, it.ID)
	}
	return out
}

// ItemsFromIDs 把有序 ID 列表包装成 Item 列表，labelSource 非空时写入 recall_source。
func ItemsFromIDs(ids []string, labelSource string) []*Item {
	out := make([]*Item, 0, len(ids))
	for _, id := range ids {
		it := NewItem(id)
		if labelSource != "" {
			it.PutLabel("recall_source", utils.Label{Value: labelSource, Source: "recall"})
		}
		out = append(out, it)
	}
	return out
}
