package model

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/hybridrec/core"
)

// DefaultComponents 是 SVD 保留的最大隐因子数。
const DefaultComponents = 50

// Factors 是矩阵分解的结果：用户向量与物品向量的点积即预测评分。
type Factors struct {
	Components int
	Users      map[string][]float64
	Items      map[string][]float64
	// ItemIDs 按字典序排列，与 Items 的 key 一致
	ItemIDs []string
}

// TrainSVD 在用户 x 物品评分矩阵上做截断 SVD。
//
// 1. 评分透视成稠密矩阵，缺失为 0，同一用户物品重复评分以最后一条为准
// 2. 保留 k = min(components, 物品数-1, 用户数) 个奇异值
// 3. 用户向量 = U_k * Σ_k，物品向量 = V_k，二者点积还原 U Σ Vᵀ 的近似评分
func TrainSVD(ratings []Rating, components int) (*Factors, error) {
	if components <= 0 {
		components = DefaultComponents
	}
	users, userIndex := distinct(ratings, func(r Rating) string { return r.UserID })
	items, itemIndex := distinct(ratings, func(r Rating) string { return r.ItemID })
	if len(items) < 2 || len(users) == 0 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
			fmt.Sprintf("svd: need at least 2 items and 1 user, got %d items %d users", len(items), len(users)))
	}

	// 1. 透视
	m := mat.NewDense(len(users), len(items), nil)
	for _, r := range ratings {
		m.Set(userIndex[r.UserID], itemIndex[r.ItemID], r.Score)
	}

	// 2. 分解
	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDThin); !ok {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInternalError, "svd: factorization failed")
	}
	k := min(components, len(items)-1, len(users))
	values := svd.Values(nil)

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// 3. 导出向量
	f := &Factors{
		Components: k,
		Users:      make(map[string][]float64, len(users)),
		Items:      make(map[string][]float64, len(items)),
		ItemIDs:    items,
	}
	for i, id := range users {
		vec := make([]float64, k)
		for j := 0; j < k; j++ {
			vec[j] = u.At(i, j) * values[j]
		}
		f.Users[id] = vec
	}
	for i, id := range items {
		vec := make([]float64, k)
		for j := 0; j < k; j++ {
			vec[j] = v.At(i, j)
		}
		f.Items[id] = vec
	}
	return f, nil
}

// Predict 返回用户对物品的预测评分，任一方未知时 ok == false。
func (f *Factors) Predict(userID, itemID string) (float64, bool) {
	uv, ok := f.Users[userID]
	if !ok {
		return 0, false
	}
	iv, ok := f.Items[itemID]
	if !ok {
		return 0, false
	}
	return mat.Dot(mat.NewVecDense(len(uv), uv), mat.NewVecDense(len(iv), iv)), true
}

// distinct 返回排序后的去重 key 及其下标。
func distinct(ratings []Rating, key func(Rating) string) ([]string, map[string]int) {
	seen := make(map[string]struct{})
	for _, r := range ratings {
		seen[key(r)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	index := make(map[string]int, len(out))
	for i, k := range out {
		index[k] = i
	}
	return out, index
}
