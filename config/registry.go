// Package config 提供两类配置：
//   - Node 注册表：按类型名从 YAML 构建候选预过滤 pipeline 的 Node
//   - Settings：服务运行参数（koanf：默认值 -> YAML 文件 -> 环境变量）
package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pipeline"
)

// 使用配置驱动时，需在 main 或入口处 import _ "github.com/rushteam/hybridrec/config/builders"
// 以触发内置 Node（filter.blacklist、filter.user_block、filter.expr、rerank.topn）的 init 注册。

// Deps 是构建 Node 时可用的外部依赖。
type Deps struct {
	// Store 供黑名单、用户屏蔽列表等读取，可以为 nil
	Store core.Store
}

// NodeBuilder 根据依赖与配置构建 Node。
// 各组件在 init 中调用 Register(typeName, builder) 即可被配置驱动。
type NodeBuilder func(deps Deps, cfg map[string]interface{}) (pipeline.Node, error)

var (
	defaultBuilders   = make(map[string]NodeBuilder)
	defaultBuildersMu sync.RWMutex
)

// Register 注册一种 Node 的构建逻辑，供 DefaultFactory 与配置驱动使用。
// 建议在各组件的 init 中调用，例如：func init() { config.Register("filter.expr", BuildExprNode) }
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[typeName] = builder
}

// SupportedTypes 返回当前已注册的 Node 类型列表（排序），用于错误提示与校验。
func SupportedTypes() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	return supportedTypesLocked()
}

// DefaultFactory 返回基于当前注册表构建的 NodeFactory，deps 绑定到每个构建器。
func DefaultFactory(deps Deps) *pipeline.NodeFactory {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range defaultBuilders {
		b := builder
		f.Register(typeName, func(cfg map[string]interface{}) (pipeline.Node, error) {
			return b(deps, cfg)
		})
	}
	return f
}

// ValidatePipelineConfig 校验 pipeline 配置中所有 node 类型均已注册；若有未支持类型则返回包含已支持列表的错误。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return nil
	}
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	for _, nc := range cfg.Pipeline.Nodes {
		if _, ok := defaultBuilders[nc.Type]; !ok {
			return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput,
				fmt.Sprintf("unsupported node type %q (supported: %v)", nc.Type, supportedTypesLocked()))
		}
	}
	return nil
}

func supportedTypesLocked() []string {
	types := make([]string, 0, len(defaultBuilders))
	for t := range defaultBuilders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// LoadPipeline 读取配置（.json 按 JSON，其他按 YAML）、校验类型并构建 Pipeline；
// path 为空时返回 nil（不做预过滤）。
func LoadPipeline(path string, deps Deps) (*pipeline.Pipeline, error) {
	if path == "" {
		return nil, nil
	}
	load := pipeline.LoadFromYAML
	if strings.EqualFold(filepath.Ext(path), ".json") {
		load = pipeline.LoadFromJSON
	}
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}
	if err := ValidatePipelineConfig(cfg); err != nil {
		return nil, err
	}
	return cfg.BuildPipeline(DefaultFactory(deps))
}
