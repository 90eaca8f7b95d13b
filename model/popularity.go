package model

import "sort"

// Popular 是一个热门商品及其评分次数。
type Popular struct {
	ItemID string
	Count  int
}

// Popularity 按评分次数降序排列商品，次数相同按 ID 升序。
func Popularity(ratings []Rating) []Popular {
	counts := make(map[string]int)
	for _, r := range ratings {
		counts[r.ItemID]++
	}
	out := make([]Popular, 0, len(counts))
	for id, c := range counts {
		out = append(out, Popular{ItemID: id, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out
}
