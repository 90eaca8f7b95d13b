// Package hybridrec 是混合商品推荐服务。
//
// 设计要点：
//   - 两路候选：协同过滤（以用户为主体，未知用户退回热门榜）与内容相似（以当前商品为锚点）
//   - 智能重排：以锚点商品的类目与价格为参照，把同类目且价格合理的候选前置，不可售的丢弃
//   - 场景融合：detail / cart / homepage 等场景决定主次来源与主来源占比
//   - 优雅降级：候选源故障、超时、元数据缺失都不会让请求失败，只会让结果更短或更不个性化
//
// 核心流程见 hybrid.Recommender；HTTP 接口见 api，命令行见 cmd/hybridrec。
package hybridrec

import (
	"github.com/rushteam/hybridrec/hybrid"
	"github.com/rushteam/hybridrec/scene"
)

// 轻量 facade：便于直接 import "hybridrec" 使用编排器。
type (
	Recommender = hybrid.Recommender
	Options     = hybrid.Options
	Request     = hybrid.Request
	Result      = hybrid.Result
	Policy      = scene.Policy
)

// New 创建混合推荐编排器。
func New(opts Options) *Recommender {
	return hybrid.New(opts)
}
