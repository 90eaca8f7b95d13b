package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pipeline"
)

func TestLoadSettings_Defaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	s, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, ":8000", s.Server.Addr)
	assert.Equal(t, 4, s.Hybrid.OverfetchFactor)
	assert.Equal(t, 2*time.Second, s.Hybrid.SourceTimeout)
	assert.Equal(t, "memory", s.Store.Backend)

	hc := s.HybridConfig()
	assert.Equal(t, 0.6, hc.PriceFloorRatio)
	assert.Equal(t, "detail", hc.DefaultScene)
}

func TestLoadSettings_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hybridrec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
hybrid:
  overfetch_factor: 6
  source_timeout: 500ms
store:
  backend: redis
  redis:
    addr: "redis:6379"
`), 0o600))

	t.Setenv("HYBRIDREC_HYBRID__OVERFETCH_FACTOR", "3")
	t.Setenv("HYBRIDREC_STORE__REDIS__DB", "2")

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", s.Server.Addr)
	assert.Equal(t, 3, s.Hybrid.OverfetchFactor)
	assert.Equal(t, 500*time.Millisecond, s.Hybrid.SourceTimeout)
	assert.Equal(t, "redis", s.Store.Backend)
	assert.Equal(t, "redis:6379", s.Store.Redis.Addr)
	assert.Equal(t, 2, s.Store.Redis.DB)
}

func TestLoadSettings_Invalid(t *testing.T) {
	t.Setenv("HYBRIDREC_STORE__BACKEND", "etcd")
	t.Setenv("HYBRIDREC_HYBRID__PRICE_FLOOR_RATIO", "1.5")
	_, err := LoadSettings("")
	require.Error(t, err)
	assert.True(t, core.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "store.backend")
	assert.Contains(t, err.Error(), "price_floor_ratio")

	_, err = LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvTransformFunc(t *testing.T) {
	assert.Equal(t, "catalog.feast.host", envTransformFunc("HYBRIDREC_CATALOG__FEAST__HOST"))
	assert.Equal(t, "log.level", envTransformFunc("HYBRIDREC_LOG__LEVEL"))
	assert.Equal(t, "", envTransformFunc(ConfigPathEnvVar))
}

type noopNode struct{ name string }

func (n noopNode) Name() string        { return n.name }
func (n noopNode) Kind() pipeline.Kind { return pipeline.KindFilter }
func (n noopNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	return items, nil
}

func TestRegistry(t *testing.T) {
	var gotDeps Deps
	Register("test.noop", func(deps Deps, cfg map[string]interface{}) (pipeline.Node, error) {
		gotDeps = deps
		return noopNode{name: cfg["name"].(string)}, nil
	})
	Register("", nil)
	assert.Contains(t, SupportedTypes(), "test.noop")

	cfg := &pipeline.Config{}
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{{Type: "test.noop", Config: map[string]interface{}{"name": "n1"}}}
	require.NoError(t, ValidatePipelineConfig(cfg))

	p, err := cfg.BuildPipeline(DefaultFactory(Deps{}))
	require.NoError(t, err)
	require.Equal(t, 1, p.Len())
	assert.Equal(t, "n1", p.Nodes[0].Name())
	assert.Nil(t, gotDeps.Store)

	cfg.Pipeline.Nodes = append(cfg.Pipeline.Nodes, pipeline.NodeConfig{Type: "test.unknown"})
	err = ValidatePipelineConfig(cfg)
	require.Error(t, err)
	assert.True(t, core.IsInvalidInput(err))
}

func TestLoadPipeline_EmptyPath(t *testing.T) {
	p, err := LoadPipeline("", Deps{})
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestLoadPipeline_JSON(t *testing.T) {
	Register("test.json", func(_ Deps, cfg map[string]interface{}) (pipeline.Node, error) {
		return noopNode{name: "json"}, nil
	})
	path := filepath.Join(t.TempDir(), "prefilter.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"pipeline":{"name":"p","nodes":[{"type":"test.json"}]}}`), 0o600))

	p, err := LoadPipeline(path, Deps{})
	require.NoError(t, err)
	assert.Equal(t, "p", p.Name)
	assert.Equal(t, 1, p.Len())
}
