package builders

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/goccy/go-json"

	"github.com/rushteam/hybridrec/config"
	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/store"
)

const prefilterYAML = `
pipeline:
  name: prefilter
  nodes:
    - type: filter.blacklist
      config:
        item_ids: ["p1"]
        key: "blacklist:items"
    - type: filter.expr
      config:
        expr: 'item.meta.category == "gift_card"'
    - type: rerank.topn
      config:
        n: 2
`

func TestLoadPipeline(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	defer s.Close()
	data, _ := json.Marshal([]string{"p2"})
	if err := s.Set(ctx, "blacklist:items", data); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(prefilterYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := config.LoadPipeline(path, config.Deps{Store: s})
	if err != nil {
		t.Fatalf("LoadPipeline() error = %v", err)
	}
	if p.Len() != 3 || p.Name != "prefilter" {
		t.Fatalf("pipeline = %s with %d nodes, want prefilter with 3", p.Name, p.Len())
	}

	items := core.ItemsFromIDs([]string{"p1", "p2", "p3", "p4", "p5", "p6"}, "")
	categories := []string{"phone", "phone", "gift_card", "phone", "phone", "phone"}
	for i, it := range items {
		it.Meta["category"] = categories[i]
	}

	out, err := p.Run(ctx, &core.RecommendContext{}, items)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := core.ItemIDs(out); !slices.Equal(got, []string{"p4", "p5"}) {
		t.Errorf("Run() = %v, want [p4 p5]", got)
	}
}

func TestBuilders_Errors(t *testing.T) {
	f := config.DefaultFactory(config.Deps{})

	tests := []struct {
		name     string
		nodeType string
		cfg      map[string]interface{}
	}{
		{name: "store key without a store", nodeType: "filter.blacklist", cfg: map[string]interface{}{"key": "blacklist:items"}},
		{name: "user block without a store", nodeType: "filter.user_block"},
		{name: "expr missing", nodeType: "filter.expr", cfg: map[string]interface{}{}},
		{name: "expr invalid", nodeType: "filter.expr", cfg: map[string]interface{}{"expr": "item.id =="}},
		{name: "negative topn", nodeType: "rerank.topn", cfg: map[string]interface{}{"n": -1}},
		{name: "unknown inner filter", nodeType: "filter", cfg: map[string]interface{}{"filters": []interface{}{
			map[string]interface{}{"type": "nope"},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.Build(tt.nodeType, tt.cfg); err == nil {
				t.Errorf("Build(%s) 应返回错误", tt.nodeType)
			}
		})
	}

	node, err := f.Build("filter", map[string]interface{}{"filters": []interface{}{
		map[string]interface{}{"type": "blacklist", "item_ids": []interface{}{"a"}},
		map[string]interface{}{"type": "expr", "expr": `item.id == "b"`},
	}})
	if err != nil {
		t.Fatalf("Build(filter) error = %v", err)
	}
	out, err := node.Process(context.Background(), nil, core.ItemsFromIDs([]string{"a", "b", "c"}, ""))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if got := core.ItemIDs(out); !slices.Equal(got, []string{"c"}) {
		t.Errorf("Process() = %v, want [c]", got)
	}
}
