// Package builders 注册内置的候选预过滤 Node。
package builders

import (
	"fmt"

	"github.com/rushteam/hybridrec/config"
	"github.com/rushteam/hybridrec/filter"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/pkg/conv"
	"github.com/rushteam/hybridrec/rerank"
)

func init() {
	config.Register("filter", BuildFilterNode)
	config.Register("filter.blacklist", BuildBlacklistNode)
	config.Register("filter.user_block", BuildUserBlockNode)
	config.Register("filter.expr", BuildExprNode)
	config.Register("rerank.topn", BuildTopNNode)
}

func storeAdapter(deps config.Deps) *filter.StoreAdapter {
	if deps.Store == nil {
		return nil
	}
	return filter.NewStoreAdapter(deps.Store)
}

// BuildFilterNode 构建组合过滤 Node：config.filters 为过滤器列表，每项含 type 字段。
func BuildFilterNode(deps config.Deps, cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		f, err := buildFilter(deps, conv.ConfigGet(filterMap, "type", ""), filterMap)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return &filter.FilterNode{Filters: filters}, nil
}

func buildFilter(deps config.Deps, filterType string, cfg map[string]interface{}) (filter.Filter, error) {
	switch filterType {
	case "blacklist":
		key := conv.ConfigGet(cfg, "key", "")
		if key != "" && deps.Store == nil {
			return nil, fmt.Errorf("blacklist key %q requires a store", key)
		}
		return filter.NewBlacklistFilter(conv.SliceAnyToString(cfg["item_ids"]), storeAdapter(deps), key), nil
	case "user_block":
		if deps.Store == nil {
			return nil, fmt.Errorf("user_block requires a store")
		}
		return filter.NewUserBlockFilter(storeAdapter(deps), conv.ConfigGet(cfg, "key_prefix", "")), nil
	case "expr":
		expr := conv.ConfigGet(cfg, "expr", "")
		if expr == "" {
			return nil, fmt.Errorf("expr not found")
		}
		return filter.NewExprFilter(expr, conv.ConfigGet(cfg, "invert", false))
	default:
		return nil, fmt.Errorf("unknown filter type: %s", filterType)
	}
}

func BuildBlacklistNode(deps config.Deps, cfg map[string]interface{}) (pipeline.Node, error) {
	return single(deps, "blacklist", cfg)
}

func BuildUserBlockNode(deps config.Deps, cfg map[string]interface{}) (pipeline.Node, error) {
	return single(deps, "user_block", cfg)
}

func BuildExprNode(deps config.Deps, cfg map[string]interface{}) (pipeline.Node, error) {
	return single(deps, "expr", cfg)
}

func single(deps config.Deps, filterType string, cfg map[string]interface{}) (pipeline.Node, error) {
	f, err := buildFilter(deps, filterType, cfg)
	if err != nil {
		return nil, err
	}
	return &filter.FilterNode{Filters: []filter.Filter{f}}, nil
}

func BuildTopNNode(_ config.Deps, cfg map[string]interface{}) (pipeline.Node, error) {
	n := conv.ConfigGetInt64(cfg, "n", 0)
	if n < 0 {
		return nil, fmt.Errorf("n must be >= 0, got %d", n)
	}
	return &rerank.TopNNode{N: int(n)}, nil
}
