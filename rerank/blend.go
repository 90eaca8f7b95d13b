// Package rerank 提供融合与截断：把两个已过滤的候选列表按比例合并成最终结果。
package rerank

import (
	"math"

	"github.com/rushteam/hybridrec/core"
)

// Blend 按比例融合主、次两个候选列表，返回去重后最多 topN 个候选。
//
//  1. 取 primary 的前 floor(topN*ratio) 个（primary 不足时有多少取多少）
//  2. 依次追加 secondary 中未出现过的候选，直到满 topN
//  3. 仍不足时，依次追加 primary 剩余部分中未出现过的候选
//
// 每一轮内保持来源列表的原始顺序；两个列表合计不足 topN 个不同候选时返回较短结果。
// ratio 被限制在 [0, 1]；topN <= 0 时返回空列表。输入列表不会被修改。
func Blend(primary, secondary []*core.Item, ratio float64, topN int) []*core.Item {
	if topN <= 0 {
		return []*core.Item{}
	}
	if math.IsNaN(ratio) || ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	numPrimary := len(primary)
	if quota := math.Floor(float64(topN) * ratio); quota < float64(numPrimary) {
		numPrimary = int(quota)
	}

	size := topN
	if total := len(primary) + len(secondary); total < size {
		size = total
	}
	out := make([]*core.Item, 0, size)
	seen := make(map[string]struct{}, size)
	add := func(it *core.Item) {
		if it == nil || len(out) >= topN {
			return
		}
		if _, ok := seen[it.ID]; ok {
			return
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}

	// 1. primary 配额
	for _, it := range primary[:numPrimary] {
		add(it)
	}

	// 2. secondary 补位
	for _, it := range secondary {
		if len(out) >= topN {
			break
		}
		add(it)
	}

	// 3. primary 剩余部分兜底
	for _, it := range primary[numPrimary:] {
		if len(out) >= topN {
			break
		}
		add(it)
	}

	return out
}

// BlendIDs 是 Blend 的 ID 版本。
func BlendIDs(primary, secondary []string, ratio float64, topN int) []string {
	return core.ItemIDs(Blend(core.ItemsFromIDs(primary, ""), core.ItemsFromIDs(secondary, ""), ratio, topN))
}
