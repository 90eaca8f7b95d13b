// Package feast 是 Feast Feature Store 的精简客户端，只保留在线特征读取。
// 商品元数据（类目/价格/库存/状态）可以作为 Feast 在线特征维护，由 catalog.FeastCatalog 读取。
//
// 参考：https://github.com/feast-dev/feast
package feast

import (
	"context"
	"time"
)

// Client 是 Feast 在线特征客户端接口。
type Client interface {
	// GetOnlineFeatures 获取在线特征。
	//
	// 参数：
	//   - Features: 特征引用列表，例如 ["product:category", "product:price"]
	//   - EntityRows: 实体行，例如 [{"product_sys_id": "prd_1"}]
	//
	// 返回的 FeatureVectors 与 EntityRows 一一对应。
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	// Close 关闭客户端连接
	Close() error
}

// GetOnlineFeaturesRequest 获取在线特征请求
type GetOnlineFeaturesRequest struct {
	Features   []string
	EntityRows []map[string]interface{}
	Project    string
}

// GetOnlineFeaturesResponse 获取在线特征响应
type GetOnlineFeaturesResponse struct {
	FeatureVectors []FeatureVector
}

// FeatureVector 特征向量，Values 的 key 为特征引用
type FeatureVector struct {
	Values    map[string]interface{}
	EntityRow map[string]interface{}
}

// ClientConfig 客户端配置
type ClientConfig struct {
	Host    string
	Port    int
	Project string
	Timeout time.Duration
	Token   string // 非空时使用静态 Token 认证
}

// ClientOption 客户端配置选项
type ClientOption func(*ClientConfig)

// WithTimeout 设置单次请求超时
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithStaticToken 设置静态 Token 认证
func WithStaticToken(token string) ClientOption {
	return func(c *ClientConfig) {
		c.Token = token
	}
}
