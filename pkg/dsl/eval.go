// Package dsl 是基于 CEL (Common Expression Language) 的候选过滤表达式。
//
// 表达式可访问的变量：
//   - item.id / item.score / item.meta.<field> / item.labels.<key>.value
//   - label.<key>：item.labels.<key>.value 的简写
//   - rctx.user_id / rctx.anchor_item_id / rctx.scene / rctx.params.<key>
//
// 示例：
//   - `item.meta.category == "gift_card"`
//   - `item.meta.price > 5000.0 && rctx.scene == "cart"`
//   - `label.recall_source == "recall.hot"`
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/hybridrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once

	// programs 缓存编译后的表达式，key 为表达式原文
	programs sync.Map
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译后的布尔表达式，可被并发执行。
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式，同一表达式只编译一次。
// 编译期会检查表达式语法；返回值类型在执行期检查。
func Compile(expr string) (*Program, error) {
	if p, ok := programs.Load(expr); ok {
		return p.(*Program), nil
	}

	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}

	p := &Program{expr: expr, prg: prg}
	actual, _ := programs.LoadOrStore(expr, p)
	return actual.(*Program), nil
}

// String 返回表达式原文。
func (p *Program) String() string { return p.expr }

// Eval 对单个候选执行表达式。
// 访问不存在的 key 会返回错误，需要先用 `"key" in item.meta` 判断存在性。
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", p.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q must return boolean, got %T", p.expr, out.Value())
	}
	return result, nil
}

// Evaluate 编译（或取缓存）并执行表达式；空表达式恒为 true。
func Evaluate(expr string, item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if expr == "" {
		return true, nil
	}
	p, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return p.Eval(item, rctx)
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]interface{} {
	labels := make(map[string]interface{})
	labelAccessor := make(map[string]interface{})
	itemInput := map[string]interface{}{}
	if item != nil {
		for k, v := range item.Labels {
			labels[k] = map[string]interface{}{
				"value":  v.Value,
				"source": v.Source,
			}
			labelAccessor[k] = v.Value
		}
		meta := item.Meta
		if meta == nil {
			meta = map[string]any{}
		}
		itemInput = map[string]interface{}{
			"id":     item.ID,
			"score":  item.Score,
			"meta":   meta,
			"labels": labels,
		}
	}

	rctxInput := map[string]interface{}{}
	if rctx != nil {
		params := rctx.Params
		if params == nil {
			params = map[string]any{}
		}
		rctxInput = map[string]interface{}{
			"user_id":        rctx.UserID,
			"anchor_item_id": rctx.AnchorItemID,
			"scene":          rctx.Scene,
			"params":         params,
		}
	}

	return map[string]interface{}{
		"item":  itemInput,
		"label": labelAccessor,
		"rctx":  rctxInput,
	}
}
