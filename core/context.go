package core

import "github.com/rushteam/hybridrec/pkg/utils"

// RecommendContext 承载一次推荐请求的用户/锚点商品/场景信息，贯穿召回、过滤、融合透传。
type RecommendContext struct {
	// UserID 使用 string 类型；HTTP 层保证它是整数。
	UserID string

	// AnchorItemID 是当前正在浏览的商品，不能出现在自己的推荐结果中。
	AnchorItemID string

	// Scene 是页面场景：detail / cart / homepage / 其他。
	Scene string

	// Labels 是请求级标签，用于 explain / 观测。
	Labels map[string]utils.Label

	// Params 请求级上下文参数（例如灰度开关），供过滤表达式读取。
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
