package recall

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/rushteam/hybridrec/core"
)

// StoreContentAdapter 是基于 core.Store 接口的内容推荐存储适配器。
// 从 Redis / 内存等存储中读写物品的内容特征。
type StoreContentAdapter struct {
	store core.Store

	// KeyPrefix 是存储 key 的前缀
	// 物品特征：{KeyPrefix}:item:{itemID}
	// 所有物品列表：{KeyPrefix}:items
	KeyPrefix string
}

// NewStoreContentAdapter 创建一个基于 core.Store 的内容推荐适配器。
func NewStoreContentAdapter(s core.Store, keyPrefix string) *StoreContentAdapter {
	if keyPrefix == "" {
		keyPrefix = "content"
	}
	return &StoreContentAdapter{
		store:     s,
		KeyPrefix: keyPrefix,
	}
}

func (a *StoreContentAdapter) GetItemFeatures(ctx context.Context, itemID string) (map[string]float64, error) {
	data, err := a.store.Get(ctx, a.KeyPrefix+":item:"+itemID)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return map[string]float64{}, nil
		}
		return nil, err
	}

	var result map[string]float64
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode item features %s: %w", itemID, err)
	}
	return result, nil
}

func (a *StoreContentAdapter) GetAllItemFeatures(ctx context.Context) (map[string]map[string]float64, error) {
	itemIDs, err := a.GetAllItems(ctx)
	if err != nil || len(itemIDs) == 0 {
		return map[string]map[string]float64{}, err
	}

	keys := make([]string, len(itemIDs))
	for i, id := range itemIDs {
		keys[i] = a.KeyPrefix + ":item:" + id
	}
	raw, err := a.store.BatchGet(ctx, keys)
	if err != nil {
		return nil, err
	}

	result := make(map[string]map[string]float64, len(itemIDs))
	for i, id := range itemIDs {
		data, ok := raw[keys[i]]
		if !ok {
			continue
		}
		var features map[string]float64
		if json.Unmarshal(data, &features) != nil {
			continue
		}
		result[id] = features
	}
	return result, nil
}

func (a *StoreContentAdapter) GetAllItems(ctx context.Context) ([]string, error) {
	data, err := a.store.Get(ctx, a.KeyPrefix+":items")
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var result []string
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode item list: %w", err)
	}
	return result, nil
}

// SaveItemFeatures 批量写入物品特征，并覆盖物品列表。
func (a *StoreContentAdapter) SaveItemFeatures(ctx context.Context, itemIDs []string, features map[string]map[string]float64) error {
	kvs := make(map[string][]byte, len(features))
	for id, f := range features {
		data, err := json.Marshal(f)
		if err != nil {
			return err
		}
		kvs[a.KeyPrefix+":item:"+id] = data
	}
	list, err := json.Marshal(itemIDs)
	if err != nil {
		return err
	}
	if err := a.store.BatchSet(ctx, kvs); err != nil {
		return err
	}
	return a.store.Set(ctx, a.KeyPrefix+":items", list)
}

var _ ContentStore = (*StoreContentAdapter)(nil)
