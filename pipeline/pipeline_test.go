package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/rushteam/hybridrec/core"
)

func dropID(id string) Node {
	return NodeFunc{
		NodeName: "drop." + id,
		NodeKind: KindFilter,
		Fn: func(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
			out := make([]*core.Item, 0, len(items))
			for _, it := range items {
				if it.ID != id {
					out = append(out, it)
				}
			}
			return out, nil
		},
	}
}

func TestPipeline_Run(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
		in    []string
		want  []string
	}{
		{name: "two filters", nodes: []Node{dropID("b"), dropID("d")}, in: []string{"a", "b", "c", "d"}, want: []string{"a", "c"}},
		{name: "nothing matched", nodes: []Node{dropID("x")}, in: []string{"a", "b"}, want: []string{"a", "b"}},
		{name: "all dropped", nodes: []Node{dropID("a")}, in: []string{"a"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Pipeline{Name: "prefilter", Nodes: tt.nodes}
			items := core.ItemsFromIDs(tt.in, "")

			out, err := p.Run(context.Background(), &core.RecommendContext{}, items)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got := core.ItemIDs(out); !slices.Equal(got, tt.want) {
				t.Errorf("Run() = %v, want %v", got, tt.want)
			}
			if len(items) != len(tt.in) {
				t.Errorf("输入切片不应被修改: len = %d, want %d", len(items), len(tt.in))
			}
		})
	}
}

func TestPipeline_Empty(t *testing.T) {
	items := core.ItemsFromIDs([]string{"a"}, "")

	var nilPipeline *Pipeline
	out, err := nilPipeline.Run(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("nil Run() error = %v", err)
	}
	if len(out) != 1 || out[0] != items[0] {
		t.Errorf("nil Run() = %v, want input unchanged", core.ItemIDs(out))
	}
	if nilPipeline.Len() != 0 {
		t.Errorf("nil Len() = %d, want 0", nilPipeline.Len())
	}

	out, err = (&Pipeline{}).Run(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("empty Run() error = %v", err)
	}
	if len(out) != 1 || out[0] != items[0] {
		t.Errorf("empty Run() = %v, want input unchanged", core.ItemIDs(out))
	}
}

func TestPipeline_Error(t *testing.T) {
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{
		dropID("a"),
		NodeFunc{NodeName: "broken", NodeKind: KindFilter, Fn: func(context.Context, *core.RecommendContext, []*core.Item) ([]*core.Item, error) {
			return nil, boom
		}},
	}}
	_, err := p.Run(context.Background(), nil, core.ItemsFromIDs([]string{"a"}, ""))
	if err == nil {
		t.Fatal("Run() 应返回节点错误")
	}
	if !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want wrapping %v", err, boom)
	}
	if !strings.Contains(err.Error(), "node broken") {
		t.Errorf("Run() error = %q, want node name", err.Error())
	}
}

func TestConfig_ParseAndBuild(t *testing.T) {
	cfg, err := ParseYAML([]byte(`
pipeline:
  name: prefilter
  nodes:
    - type: drop
      config:
        id: b
    - type: drop
      config:
        id: c
`))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	if cfg.Pipeline.Name != "prefilter" {
		t.Errorf("Name = %q, want prefilter", cfg.Pipeline.Name)
	}
	if len(cfg.Pipeline.Nodes) != 2 {
		t.Fatalf("len(Nodes) = %d, want 2", len(cfg.Pipeline.Nodes))
	}

	f := NewNodeFactory()
	f.Register("drop", func(c map[string]interface{}) (Node, error) {
		id, _ := c["id"].(string)
		return dropID(id), nil
	})
	p, err := cfg.BuildPipeline(f)
	if err != nil {
		t.Fatalf("BuildPipeline() error = %v", err)
	}
	out, err := p.Run(context.Background(), nil, core.ItemsFromIDs([]string{"a", "b", "c"}, ""))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := core.ItemIDs(out); !slices.Equal(got, []string{"a"}) {
		t.Errorf("Run() = %v, want [a]", got)
	}

	cfg.Pipeline.Nodes = append(cfg.Pipeline.Nodes, NodeConfig{Type: "missing"})
	_, err = cfg.BuildPipeline(f)
	if err == nil || !strings.Contains(err.Error(), "unknown node type: missing") {
		t.Errorf("BuildPipeline() error = %v, want unknown node type", err)
	}
}

func TestLoadFromFiles(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "p.yaml")
	jsonPath := filepath.Join(dir, "p.json")
	if err := os.WriteFile(yamlPath, []byte("pipeline:\n  name: y\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(jsonPath, []byte(`{"pipeline":{"name":"j","nodes":[{"type":"x","config":{"n":3}}]}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromYAML(yamlPath)
	if err != nil {
		t.Fatalf("LoadFromYAML() error = %v", err)
	}
	if cfg.Pipeline.Name != "y" {
		t.Errorf("yaml Name = %q, want y", cfg.Pipeline.Name)
	}

	cfg, err = LoadFromJSON(jsonPath)
	if err != nil {
		t.Fatalf("LoadFromJSON() error = %v", err)
	}
	if cfg.Pipeline.Name != "j" {
		t.Errorf("json Name = %q, want j", cfg.Pipeline.Name)
	}
	if n, _ := cfg.Pipeline.Nodes[0].Config["n"].(float64); n != 3 {
		t.Errorf("node config n = %v, want 3", cfg.Pipeline.Nodes[0].Config["n"])
	}

	if _, err := LoadFromYAML(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("文件不存在时应返回错误")
	}
}
