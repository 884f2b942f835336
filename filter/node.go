package filter

import (
	"context"
	"fmt"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/pkg/utils"
)

// FilterNode 组合多个过滤器，任何一个过滤器返回 true，该商品就被过滤掉。
// 保留下来的商品维持原有顺序。
type FilterNode struct {
	Filters []Filter

	// Strict 为 true 时过滤器出错即中止整个 Node；
	// 否则跳过出错的过滤器（对应商品视为通过），只记录日志。
	Strict bool
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	cur := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			cur = append(cur, it)
		}
	}

	for _, f := range n.Filters {
		drop, err := n.evaluate(ctx, rctx, f, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name(), err)
		}
		kept := cur[:0]
		for i, it := range cur {
			if drop[i] {
				it.PutLabel(utils.LabelFiltered, utils.NewLabel("true", f.Name()))
				continue
			}
			kept = append(kept, it)
		}
		cur = kept
		if len(cur) == 0 {
			break
		}
	}
	return cur, nil
}

func (n *FilterNode) evaluate(
	ctx context.Context,
	rctx *core.RecommendContext,
	f Filter,
	items []*core.Item,
) ([]bool, error) {
	if bf, ok := f.(BatchFilter); ok {
		drop, err := bf.ShouldFilterBatch(ctx, rctx, items)
		if err == nil && len(drop) != len(items) {
			err = fmt.Errorf("batch result size %d, want %d", len(drop), len(items))
		}
		if err != nil {
			if n.Strict {
				return nil, err
			}
			logging.Ctx(ctx).Warn().Err(err).Str("filter", f.Name()).Msg("filter failed, skipped")
			return make([]bool, len(items)), nil
		}
		return drop, nil
	}

	drop := make([]bool, len(items))
	for i, it := range items {
		ok, err := f.ShouldFilter(ctx, rctx, it)
		if err != nil {
			if n.Strict {
				return nil, err
			}
			logging.Ctx(ctx).Warn().Err(err).Str("filter", f.Name()).Str("item", it.ID).Msg("filter failed, skipped")
			continue
		}
		drop[i] = ok
	}
	return drop, nil
}
