package filter

import (
	"context"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pkg/dsl"
)

// ExprFilter 用 CEL 表达式过滤候选，表达式为 true 的候选被移除。
// 商品元数据在 item.meta 下（category / price / stock / status）。
type ExprFilter struct {
	Expr string

	// Invert 为 true 时表达式为 false 的候选被移除（白名单语义）
	Invert bool

	program *dsl.Program
}

// NewExprFilter 编译表达式并创建过滤器，表达式不合法时返回错误。
func NewExprFilter(expr string, invert bool) (*ExprFilter, error) {
	p, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{Expr: expr, Invert: invert, program: p}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	program := f.program
	if program == nil {
		p, err := dsl.Compile(f.Expr)
		if err != nil {
			return false, err
		}
		program = p
	}
	matched, err := program.Eval(item, rctx)
	if err != nil {
		return false, err
	}
	if f.Invert {
		return !matched, nil
	}
	return matched, nil
}

var _ Filter = (*ExprFilter)(nil)
