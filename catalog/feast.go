package catalog

import (
	"context"
	"fmt"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/feast"
	"github.com/rushteam/hybridrec/pkg/conv"
)

// FeastCatalog 从 Feast 在线特征读取商品元数据。
// 特征引用为 {FeatureView}:category / price / stock / status，实体 key 为 EntityKey。
type FeastCatalog struct {
	Client      feast.Client
	Project     string
	FeatureView string // 默认 "product"
	EntityKey   string // 默认 "product_sys_id"
}

func (c *FeastCatalog) Name() string { return "catalog.feast" }

func (c *FeastCatalog) features() []string {
	view := c.FeatureView
	if view == "" {
		view = "product"
	}
	return []string{view + ":category", view + ":price", view + ":stock", view + ":status"}
}

// BatchGet 实现 MetadataSource。类目特征缺失的实体视为商品不存在。
func (c *FeastCatalog) BatchGet(ctx context.Context, ids []string) (core.MetadataSnapshot, error) {
	ids = uniqueIDs(ids)
	snap := make(core.MetadataSnapshot, len(ids))
	if len(ids) == 0 {
		return snap, nil
	}

	entityKey := c.EntityKey
	if entityKey == "" {
		entityKey = "product_sys_id"
	}
	rows := make([]map[string]interface{}, len(ids))
	for i, id := range ids {
		rows[i] = map[string]interface{}{entityKey: id}
	}

	features := c.features()
	resp, err := c.Client.GetOnlineFeatures(ctx, &feast.GetOnlineFeaturesRequest{
		Features:   features,
		EntityRows: rows,
		Project:    c.Project,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog feast: %w", err)
	}
	if len(resp.FeatureVectors) != len(ids) {
		return nil, fmt.Errorf("catalog feast: expected %d vectors, got %d", len(ids), len(resp.FeatureVectors))
	}

	for i, fv := range resp.FeatureVectors {
		category, ok := conv.ToString(fv.Values[features[0]])
		if !ok || category == "" {
			continue
		}
		price, _ := conv.ToFloat64(fv.Values[features[1]])
		stock, _ := conv.ToInt(fv.Values[features[2]])
		status, _ := conv.ToString(fv.Values[features[3]])
		snap[ids[i]] = core.ItemMetadata{
			Category: category,
			Price:    price,
			Stock:    stock,
			Status:   core.ParseAvailability(status),
		}
	}
	return snap, nil
}

var _ MetadataSource = (*FeastCatalog)(nil)
