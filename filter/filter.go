// Package filter 提供候选过滤：
//   - Filter / FilterNode：逐个判断是否移除，可组成 pipeline 前置过滤
//   - SmartFilter：按锚点商品的类目与价格对候选重新排序
package filter

import (
	"context"

	"github.com/rushteam/hybridrec/core"
)

// Filter 是过滤器的抽象接口，用于判断一个 Item 是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断 item 是否应该被过滤
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

// Preparer 是可选接口：需要访问存储的过滤器在每批候选开始前加载一次数据，
// 返回绑定到本次请求的 Filter，避免逐个候选访问存储。
type Preparer interface {
	Prepare(ctx context.Context, rctx *core.RecommendContext) (Filter, error)
}

// idSet 是绑定到一次请求的 ID 集合过滤器。
type idSet struct {
	name string
	ids  map[string]struct{}
}

func newIDSet(name string, lists ...[]string) *idSet {
	s := &idSet{name: name, ids: make(map[string]struct{})}
	for _, l := range lists {
		for _, id := range l {
			s.ids[id] = struct{}{}
		}
	}
	return s
}

func (s *idSet) Name() string { return s.name }

func (s *idSet) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	if item == nil {
		return true, nil
	}
	_, ok := s.ids[item.ID]
	return ok, nil
}
