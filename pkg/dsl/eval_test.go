package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pkg/utils"
)

func TestEvaluate(t *testing.T) {
	item := core.NewItem("p1")
	item.Score = 0.8
	item.Meta["category"] = "gift_card"
	item.Meta["price"] = 99.0
	item.PutLabel("recall_source", utils.Label{Value: "recall.hot", Source: "recall"})
	rctx := &core.RecommendContext{UserID: "7", AnchorItemID: "p0", Scene: "cart"}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"empty", "", true},
		{"meta", `item.meta.category == "gift_card"`, true},
		{"price", `item.meta.price > 100.0`, false},
		{"label", `label.recall_source == "recall.hot"`, true},
		{"label value", `item.labels.recall_source.value.startsWith("recall.")`, true},
		{"scene", `rctx.scene == "cart" && item.score >= 0.5`, true},
		{"exists", `"stock" in item.meta`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.expr, item, rctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompile(t *testing.T) {
	p1, err := Compile(`item.id == "a"`)
	require.NoError(t, err)
	p2, err := Compile(`item.id == "a"`)
	require.NoError(t, err)
	assert.Same(t, p1, p2)
	assert.Equal(t, `item.id == "a"`, p1.String())

	_, err = Compile(`item.id ==`)
	assert.Error(t, err)

	notBool, err := Compile(`item.id`)
	require.NoError(t, err)
	_, err = notBool.Eval(core.NewItem("a"), nil)
	assert.Error(t, err)

	// 访问不存在的 key 报错
	_, err = Evaluate(`item.meta.missing == 1`, core.NewItem("a"), nil)
	assert.Error(t, err)
}
