package recall

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/store"
)

func TestHot(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	defer s.Close()

	require.NoError(t, s.ZAdd(ctx, DefaultHotKey, 3, "a"))
	require.NoError(t, s.ZAdd(ctx, DefaultHotKey, 9, "b"))
	require.NoError(t, s.ZAdd(ctx, DefaultHotKey, 5, "c"))

	hot := &Hot{Store: s, IDs: []string{"x"}}
	items, err := hot.Recall(ctx, &core.RecommendContext{}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, core.ItemIDs(items))

	// 没有数据时使用内存列表
	empty := &Hot{Store: s, Key: "hot:none", IDs: []string{"x", "y", "z"}}
	items, err = empty.Recall(ctx, nil, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, core.ItemIDs(items))

	items, err = empty.Recall(ctx, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func newMFStore(t *testing.T) *StoreMFAdapter {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore()
	t.Cleanup(func() { s.Close() })

	a := NewStoreMFAdapter(s, "")
	require.NoError(t, a.SaveUserVectors(ctx, map[string][]float64{"7": {1, 0}}))
	require.NoError(t, a.SaveItemVectors(ctx, []string{"i1", "i2", "i3", "i4"}, map[string][]float64{
		"i1": {0.2, 1},
		"i2": {0.9, 0},
		"i3": {0.5, 0},
		"i4": {0.9, 5},
	}))
	return a
}

func TestMFRecall(t *testing.T) {
	ctx := context.Background()
	r := &MFRecall{Store: newMFStore(t), Fallback: Static("hot", "h1", "h2", "h3")}

	items, err := r.Recall(ctx, &core.RecommendContext{UserID: "7"}, 3)
	require.NoError(t, err)
	// i2 与 i4 同分，按 ID 升序
	assert.Equal(t, []string{"i2", "i4", "i3"}, core.ItemIDs(items))
	assert.InDelta(t, 0.9, items[0].Score, 1e-9)
}

func TestMFRecall_UnknownUserFallsBack(t *testing.T) {
	ctx := context.Background()
	r := &MFRecall{Store: newMFStore(t), Fallback: Static("hot", "h1", "h2", "h3")}

	items, err := r.Recall(ctx, &core.RecommendContext{UserID: "404"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"h1", "h2"}, core.ItemIDs(items))

	noFallback := &MFRecall{Store: newMFStore(t)}
	items, err = noFallback.Recall(ctx, &core.RecommendContext{UserID: "404"}, 2)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestContentRecall(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	defer s.Close()

	a := NewStoreContentAdapter(s, "")
	require.NoError(t, a.SaveItemFeatures(ctx, []string{"a", "b", "c", "d"}, map[string]map[string]float64{
		"a": {"phone": 1, "black": 1},
		"b": {"phone": 1, "white": 1},
		"c": {"phone": 1, "black": 1, "case": 1},
		"d": {"laptop": 1},
	}))

	r := &ContentRecall{Store: a}
	items, err := r.Recall(ctx, &core.RecommendContext{AnchorItemID: "a"}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "d"}, core.ItemIDs(items))
	assert.NotContains(t, core.ItemIDs(items), "a")

	items, err = r.Recall(ctx, &core.RecommendContext{AnchorItemID: "a"}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, core.ItemIDs(items))

	// 未知锚点返回空
	items, err = r.Recall(ctx, &core.RecommendContext{AnchorItemID: "zzz"}, 5)
	require.NoError(t, err)
	assert.Empty(t, items)

	jaccard := &ContentRecall{Store: a, Metric: "jaccard"}
	items, err = jaccard.Recall(ctx, &core.RecommendContext{AnchorItemID: "a"}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, core.ItemIDs(items))
}

func TestSimilarity(t *testing.T) {
	a := map[string]float64{"x": 1, "y": 1}
	assert.InDelta(t, 1.0, cosineSimilarityForMaps(a, a), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarityForMaps(a, map[string]float64{"z": 1}))
	assert.Equal(t, 0.0, cosineSimilarityForMaps(a, nil))
	assert.InDelta(t, 1.0/3, jaccardSimilarity(a, map[string]float64{"x": 1, "z": 1}), 1e-9)
}

func TestFanout(t *testing.T) {
	slow := SourceFunc{SourceName: "slow", Fn: func(ctx context.Context, _ *core.RecommendContext, _ int) ([]*core.Item, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	broken := SourceFunc{SourceName: "broken", Fn: func(context.Context, *core.RecommendContext, int) ([]*core.Item, error) {
		return nil, errors.New("boom")
	}}
	f := &Fanout{
		Sources: []Source{Static("a", "1", "2", "3"), slow, broken, Static("b", "4")},
		Timeout: 20 * time.Millisecond,
	}

	results := f.Fetch(context.Background(), &core.RecommendContext{}, 2)
	require.Len(t, results, 4)

	assert.Equal(t, "a", results[0].Source)
	assert.Equal(t, []string{"1", "2"}, core.ItemIDs(results[0].Items))
	assert.Equal(t, "a", results[0].Items[0].Labels["recall_source"].Value)
	assert.Equal(t, "0", results[0].Items[0].Labels["recall_priority"].Value)

	assert.ErrorIs(t, results[1].Err, context.DeadlineExceeded)
	assert.Empty(t, results[1].Items)
	assert.EqualError(t, results[2].Err, "boom")
	assert.Equal(t, []string{"4"}, core.ItemIDs(results[3].Items))
}

func TestBreaker(t *testing.T) {
	calls := 0
	failing := SourceFunc{SourceName: "cf", Fn: func(context.Context, *core.RecommendContext, int) ([]*core.Item, error) {
		calls++
		return nil, errors.New("redis down")
	}}
	b := NewBreaker(failing, BreakerSettings{ConsecutiveFailures: 2, OpenTimeout: time.Minute})
	assert.Equal(t, "cf", b.Name())

	for i := 0; i < 2; i++ {
		_, err := b.Recall(context.Background(), nil, 5)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Recall(context.Background(), nil, 5)
	assert.ErrorIs(t, err, core.ErrSourceUnavailable)
	assert.True(t, core.IsUnavailable(err))
	assert.Equal(t, 2, calls)
}
