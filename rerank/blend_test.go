package rerank

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/hybridrec/core"
)

func seq(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return out
}

func TestBlendIDs(t *testing.T) {
	tests := []struct {
		name      string
		primary   []string
		secondary []string
		ratio     float64
		topN      int
		want      []string
	}{
		{
			name:      "ratio 0.7 top 10",
			primary:   seq("p", 8),
			secondary: seq("s", 8),
			ratio:     0.7,
			topN:      10,
			want:      []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7", "s1", "s2", "s3"},
		},
		{
			name:      "secondary short, primary backfills",
			primary:   seq("p", 8),
			secondary: []string{"s1"},
			ratio:     0.5,
			topN:      6,
			want:      []string{"p1", "p2", "p3", "s1", "p4", "p5"},
		},
		{
			name:      "primary short, no padding in first pass",
			primary:   []string{"p1"},
			secondary: seq("s", 5),
			ratio:     0.8,
			topN:      4,
			want:      []string{"p1", "s1", "s2", "s3"},
		},
		{
			name:      "overlap deduped",
			primary:   []string{"a", "b", "c"},
			secondary: []string{"b", "d", "a", "e"},
			ratio:     0.5,
			topN:      4,
			want:      []string{"a", "b", "d", "e"},
		},
		{
			name:      "duplicates inside primary window",
			primary:   []string{"a", "a", "b"},
			secondary: []string{"c"},
			ratio:     1,
			topN:      3,
			want:      []string{"a", "b", "c"},
		},
		{
			name:      "not enough candidates",
			primary:   []string{"a"},
			secondary: []string{"a", "b"},
			ratio:     0.5,
			topN:      10,
			want:      []string{"a", "b"},
		},
		{
			name:      "huge top_n, full ratio",
			primary:   []string{"a", "b"},
			secondary: []string{"c", "a"},
			ratio:     1,
			topN:      math.MaxInt,
			want:      []string{"a", "b", "c"},
		},
		{
			name:      "huge top_n, partial ratio",
			primary:   []string{"a", "b"},
			secondary: []string{"c"},
			ratio:     0.7,
			topN:      math.MaxInt / 2,
			want:      []string{"a", "b", "c"},
		},
		{
			name:  "both empty",
			ratio: 0.5,
			topN:  5,
			want:  []string{},
		},
		{
			name:    "zero top n",
			primary: []string{"a"},
			ratio:   0.5,
			topN:    0,
			want:    []string{},
		},
		{
			name:      "ratio clamped",
			primary:   seq("p", 3),
			secondary: seq("s", 3),
			ratio:     1.5,
			topN:      4,
			want:      []string{"p1", "p2", "p3", "s1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BlendIDs(tt.primary, tt.secondary, tt.ratio, tt.topN)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBlendInvariants(t *testing.T) {
	primary := []string{"a", "b", "c", "d", "b", "e"}
	secondary := []string{"f", "g", "h", "f"}
	for topN := 1; topN <= 10; topN++ {
		for _, ratio := range []float64{0.1, 0.5, 0.7, 0.8, 1} {
			got := BlendIDs(primary, secondary, ratio, topN)
			require.LessOrEqual(t, len(got), topN)

			seen := map[string]bool{}
			for _, id := range got {
				require.False(t, seen[id], "duplicate %s", id)
				seen[id] = true
			}
			// 8 个不同候选，足够时长度必须等于 topN
			if topN <= 8 {
				require.Len(t, got, topN)
			}
			assertSubsequence(t, got, primary)
			assertSubsequence(t, got, secondary)
		}
	}
}

// assertSubsequence 检查 got 中来自 src 的候选保持 src 中首次出现的相对顺序。
func assertSubsequence(t *testing.T, got, src []string) {
	t.Helper()
	pos := map[string]int{}
	for i, id := range src {
		if _, ok := pos[id]; !ok {
			pos[id] = i
		}
	}
	last := -1
	for _, id := range got {
		p, ok := pos[id]
		if !ok {
			continue
		}
		assert.Greater(t, p, last, "%s promoted ahead of a higher-ranked candidate", id)
		last = p
	}
}

func TestBlendDoesNotMutateInput(t *testing.T) {
	primary := core.ItemsFromIDs([]string{"a", "b"}, "")
	secondary := core.ItemsFromIDs([]string{"c"}, "")
	_ = Blend(primary, secondary, 0.5, 3)
	assert.Equal(t, []string{"a", "b"}, core.ItemIDs(primary))
	assert.Equal(t, []string{"c"}, core.ItemIDs(secondary))
}

func TestTopNNode(t *testing.T) {
	items := core.ItemsFromIDs([]string{"a", "b", "c"}, "")
	n := &TopNNode{N: 2}
	out, err := n.Process(context.Background(), nil, items)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, core.ItemIDs(out))

	out, err = (&TopNNode{}).Process(context.Background(), nil, items)
	require.NoError(t, err)
	assert.Len(t, out, 3)
}
