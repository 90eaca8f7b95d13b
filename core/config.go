package core

import "time"

// HybridConfig 是混合推荐编排的参数。零值字段在 WithDefaults 中补默认值。
type HybridConfig struct {
	// OverfetchFactor 每个召回源按 TopN * OverfetchFactor 超量拉取，抵消排除/过滤/去重的损耗
	OverfetchFactor int

	// PriceFloorRatio 同类目商品价格低于锚点价格 * PriceFloorRatio 时视为价格不合理
	PriceFloorRatio float64

	// SourceTimeout 单个召回源的超时时间，超时视为返回空列表
	SourceTimeout time.Duration

	// DefaultTopN 请求未指定 top_n 时的默认值
	DefaultTopN int

	// DefaultScene 请求未指定 scene 时的默认值
	DefaultScene string
}

const (
	DefaultOverfetchFactor = 4
	DefaultPriceFloorRatio = 0.6
	DefaultSourceTimeout   = 2 * time.Second
	DefaultTopN            = 10
	DefaultScene           = "detail"
)

// WithDefaults 返回补齐默认值后的副本。
func (c HybridConfig) WithDefaults() HybridConfig {
	if c.OverfetchFactor <= 0 {
		c.OverfetchFactor = DefaultOverfetchFactor
	}
	if c.PriceFloorRatio <= 0 {
		c.PriceFloorRatio = DefaultPriceFloorRatio
	}
	if c.SourceTimeout <= 0 {
		c.SourceTimeout = DefaultSourceTimeout
	}
	if c.DefaultTopN <= 0 {
		c.DefaultTopN = DefaultTopN
	}
	if c.DefaultScene == "" {
		c.DefaultScene = DefaultScene
	}
	return c
}
