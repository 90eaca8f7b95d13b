package model

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/hybridrec/catalog"
	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/recall"
	"github.com/rushteam/hybridrec/store"
)

func TestDecodeRatingsCSV(t *testing.T) {
	in := strings.Join([]string{
		"rating,user_id,product_sys_id",
		"5,1,prd_a",
		"3, 2 ,prd_b",
		"bad,3,prd_c",
		"4,,prd_d",
		"1,4,prd_a",
	}, "\n")
	got, err := DecodeRatingsCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []Rating{
		{UserID: "1", ItemID: "prd_a", Score: 5},
		{UserID: "2", ItemID: "prd_b", Score: 3},
		{UserID: "4", ItemID: "prd_a", Score: 1},
	}, got)

	_, err = DecodeRatingsCSV(strings.NewReader("user_id,rating\n1,2\n"))
	require.Error(t, err)
	assert.True(t, core.IsInvalidInput(err))

	got, err = DecodeRatingsCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTrainSVD(t *testing.T) {
	// 秩为 1 的评分矩阵，k=2 时可以精确还原
	var ratings []Rating
	for u, scale := range map[string]float64{"1": 1, "2": 2, "3": 3} {
		for i, base := range map[string]float64{"a": 1, "b": 2, "c": 3} {
			ratings = append(ratings, Rating{UserID: u, ItemID: i, Score: scale * base})
		}
	}

	f, err := TrainSVD(ratings, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Components)
	assert.Equal(t, []string{"a", "b", "c"}, f.ItemIDs)
	assert.Len(t, f.Users["1"], 2)
	assert.Len(t, f.Items["c"], 2)

	for _, r := range ratings {
		got, ok := f.Predict(r.UserID, r.ItemID)
		require.True(t, ok)
		assert.InDelta(t, r.Score, got, 1e-9, "user=%s item=%s", r.UserID, r.ItemID)
	}

	_, ok := f.Predict("missing", "a")
	assert.False(t, ok)
}

func TestTrainSVD_Components(t *testing.T) {
	ratings := []Rating{
		{UserID: "1", ItemID: "a", Score: 5},
		{UserID: "1", ItemID: "b", Score: 1},
		{UserID: "2", ItemID: "c", Score: 4},
		{UserID: "2", ItemID: "d", Score: 2},
	}
	f, err := TrainSVD(ratings, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, f.Components)

	// 用户数限制
	f, err = TrainSVD(ratings, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Components)

	_, err = TrainSVD([]Rating{{UserID: "1", ItemID: "a", Score: 1}}, 0)
	require.Error(t, err)
	assert.True(t, core.IsInvalidInput(err))
}

func TestPopularity(t *testing.T) {
	got := Popularity([]Rating{
		{UserID: "1", ItemID: "b"},
		{UserID: "2", ItemID: "a"},
		{UserID: "3", ItemID: "b"},
		{UserID: "4", ItemID: "c"},
	})
	assert.Equal(t, []Popular{{"b", 2}, {"a", 1}, {"c", 1}}, got)
	assert.Empty(t, Popularity(nil))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t,
		[]string{"iphone", "15", "pro", "great", "phone", "ram_8gb"},
		Tokenize("The iPhone 15 Pro, a great phone! x RAM_8GB"))
	assert.Empty(t, Tokenize("the a of"))
}

func testProducts() []catalog.Product {
	return []catalog.Product{
		{ID: "p1", Name: "Galaxy S24", Category: "Phone", Brand: "Samsung", Specs: "RAM 8GB", Price: 900, Stock: 3, Status: "instock"},
		{ID: "p2", Name: "Galaxy S23", Category: "Phone", Brand: "Samsung", Specs: "RAM 8GB", Price: 700, Stock: 5, Status: "instock"},
		{ID: "p3", Name: "Leather Case", Category: "Accessory", Brand: "Spigen", Specs: "Color black", Price: 20, Stock: 10, Status: "instock"},
		{ID: "p4", Name: "ThinkPad X1", Category: "Laptop", Brand: "Lenovo", Specs: "RAM 16GB", Price: 1500, Stock: 0, Status: "outstock"},
	}
}

func dot(a, b map[string]float64) float64 {
	var s float64
	for k, v := range a {
		s += v * b[k]
	}
	return s
}

func TestBuildTFIDF(t *testing.T) {
	vecs := BuildTFIDF(testProducts())
	require.Len(t, vecs, 4)

	for id, v := range vecs {
		var norm float64
		for _, w := range v {
			norm += w * w
		}
		assert.InDelta(t, 1, math.Sqrt(norm), 1e-9, id)
	}

	// 名称权重最高，同系列手机最相似
	assert.Greater(t, dot(vecs["p1"], vecs["p2"]), dot(vecs["p1"], vecs["p4"]))
	assert.Greater(t, dot(vecs["p1"], vecs["p4"]), dot(vecs["p1"], vecs["p3"]))

	empty := BuildTFIDF([]catalog.Product{{ID: "x", Name: "a"}})
	assert.Empty(t, empty["x"])
}

func TestCombinedText(t *testing.T) {
	got := CombinedText(catalog.Product{Name: "n", Category: "c", Brand: "b", Specs: "s"})
	assert.Equal(t, "n n n n n c c c c b b s", got)
}

type staticProducts []catalog.Product

func (s staticProducts) LoadProducts(context.Context) ([]catalog.Product, error) {
	return s, nil
}

type staticRatings []Rating

func (s staticRatings) LoadRatings(context.Context) ([]Rating, error) {
	return s, nil
}

type purgeCounter struct{ n int }

func (p *purgeCounter) Purge() { p.n++ }

func TestRebuilder(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	defer s.Close()

	holder := catalog.NewHolder(nil)
	cache := &purgeCounter{}
	r := &Rebuilder{
		Products: staticProducts(testProducts()),
		Ratings: staticRatings{
			{UserID: "1", ItemID: "p1", Score: 5},
			{UserID: "1", ItemID: "p3", Score: 4},
			{UserID: "2", ItemID: "p1", Score: 4},
			{UserID: "2", ItemID: "p2", Score: 5},
			{UserID: "3", ItemID: "p3", Score: 2},
		},
		Store:  s,
		Holder: holder,
		Caches: []Purger{cache},
	}

	stats, err := r.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Products)
	assert.Equal(t, 5, stats.Ratings)
	assert.Equal(t, 3, stats.Users)
	assert.Equal(t, 2, stats.Components)
	assert.Equal(t, 3, stats.HotItems)
	assert.Equal(t, 1, cache.n)

	// 进程内 Catalog 与 StoreCatalog 都已更新
	assert.Equal(t, 4, holder.Current().Len())
	m, ok, err := catalog.Get(ctx, catalog.NewStoreCatalog(s, ""), "p4")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, core.AvailabilityOutOfStock, m.Status)

	// 热门榜
	hot := &recall.Hot{Store: s}
	items, err := hot.Recall(ctx, nil, 2)
	require.NoError(t, err)
	assert.Equal(t, "p1", core.ItemIDs(items)[0])

	// 协同过滤
	mf := &recall.MFRecall{Store: recall.NewStoreMFAdapter(s, ""), Fallback: hot}
	items, err = mf.Recall(ctx, &core.RecommendContext{UserID: "2"}, 3)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	// 内容召回
	content := &recall.ContentRecall{Store: recall.NewStoreContentAdapter(s, "")}
	items, err = content.Recall(ctx, &core.RecommendContext{AnchorItemID: "p1"}, 2)
	require.NoError(t, err)
	assert.Equal(t, "p2", core.ItemIDs(items)[0])
	assert.NotContains(t, core.ItemIDs(items), "p1")
}

func TestRebuilder_WithoutRatings(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	defer s.Close()

	r := &Rebuilder{Products: staticProducts(testProducts()), Store: s}
	stats, err := r.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Products)
	assert.Zero(t, stats.Users)

	ids, err := recall.NewStoreMFAdapter(s, "").GetAllItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRebuilder_TooFewRatings(t *testing.T) {
	s := store.NewMemoryStore()
	defer s.Close()

	r := &Rebuilder{
		Products: staticProducts(testProducts()),
		Ratings:  staticRatings{{UserID: "1", ItemID: "p1", Score: 5}},
		Store:    s,
	}
	stats, err := r.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Components)
	assert.Equal(t, 1, stats.HotItems)
}

func TestRebuilder_InProgress(t *testing.T) {
	s := store.NewMemoryStore()
	defer s.Close()

	r := &Rebuilder{Products: staticProducts(testProducts()), Store: s}
	r.mu.Lock()
	_, err := r.Rebuild(context.Background())
	r.mu.Unlock()
	assert.ErrorIs(t, err, ErrRebuildInProgress)
}
