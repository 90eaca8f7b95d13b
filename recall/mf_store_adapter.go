package recall

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/rushteam/hybridrec/core"
)

// StoreMFAdapter 是基于 core.Store 接口的矩阵分解存储适配器。
// 从 Redis / 内存等存储中读写用户和物品的隐向量。
type StoreMFAdapter struct {
	store core.Store

	// KeyPrefix 是存储 key 的前缀
	// 用户隐向量：{KeyPrefix}:user:{userID}
	// 物品隐向量：{KeyPrefix}:item:{itemID}
	// 所有物品列表：{KeyPrefix}:items
	KeyPrefix string
}

// NewStoreMFAdapter 创建一个基于 core.Store 的矩阵分解适配器。
func NewStoreMFAdapter(s core.Store, keyPrefix string) *StoreMFAdapter {
	if keyPrefix == "" {
		keyPrefix = "mf"
	}
	return &StoreMFAdapter{
		store:     s,
		KeyPrefix: keyPrefix,
	}
}

func (a *StoreMFAdapter) GetUserVector(ctx context.Context, userID string) ([]float64, error) {
	data, err := a.store.Get(ctx, a.KeyPrefix+":user:"+userID)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var result []float64
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode user vector %s: %w", userID, err)
	}
	return result, nil
}

func (a *StoreMFAdapter) GetAllItemVectors(ctx context.Context) (map[string][]float64, error) {
	itemIDs, err := a.GetAllItems(ctx)
	if err != nil || len(itemIDs) == 0 {
		return map[string][]float64{}, err
	}

	keys := make([]string, len(itemIDs))
	for i, id := range itemIDs {
		keys[i] = a.KeyPrefix + ":item:" + id
	}
	raw, err := a.store.BatchGet(ctx, keys)
	if err != nil {
		return nil, err
	}

	result := make(map[string][]float64, len(itemIDs))
	for i, id := range itemIDs {
		data, ok := raw[keys[i]]
		if !ok {
			continue
		}
		var vec []float64
		if json.Unmarshal(data, &vec) != nil || len(vec) == 0 {
			continue
		}
		result[id] = vec
	}
	return result, nil
}

// GetAllItems 获取所有物品 ID 列表
func (a *StoreMFAdapter) GetAllItems(ctx context.Context) ([]string, error) {
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

// SaveUserVectors 批量写入用户隐向量。
func (a *StoreMFAdapter) SaveUserVectors(ctx context.Context, vectors map[string][]float64) error {
	kvs := make(map[string][]byte, len(vectors))
	for id, vec := range vectors {
		data, err := json.Marshal(vec)
		if err != nil {
			return err
		}
		kvs[a.KeyPrefix+":user:"+id] = data
	}
	return a.store.BatchSet(ctx, kvs)
}

// SaveItemVectors 批量写入物品隐向量，并用 itemIDs 覆盖物品列表。
func (a *StoreMFAdapter) SaveItemVectors(ctx context.Context, itemIDs []string, vectors map[string][]float64) error {
	kvs := make(map[string][]byte, len(vectors)+1)
	for id, vec := range vectors {
		data, err := json.Marshal(vec)
		if err != nil {
			return err
		}
		kvs[a.KeyPrefix+":item:"+id] = data
	}
	list, err := json.Marshal(itemIDs)
	if err != nil {
		return err
	}
	// 先写向量再写列表，读方不会看到没有向量的新 ID
	if err := a.store.BatchSet(ctx, kvs); err != nil {
		return err
	}
	return a.store.Set(ctx, a.KeyPrefix+":items", list)
}

var _ MFStore = (*StoreMFAdapter)(nil)
