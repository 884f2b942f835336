package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/dsl"
)

// ExprFilter 用 CEL 表达式决定去留：表达式为 true 的商品保留，为 false 的被过滤。
// 例如 `item.score >= 2.0` 只保留至少被一起购买过两次的商品。
type ExprFilter struct {
	program *dsl.Program
}

// NewExprFilter 编译表达式，表达式有误时返回错误。
func NewExprFilter(expr string) (*ExprFilter, error) {
	p, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{program: p}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

// Expr 返回原始表达式。
func (f *ExprFilter) Expr() string { return f.program.String() }

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	keep, err := f.program.Eval(item, rctx)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
