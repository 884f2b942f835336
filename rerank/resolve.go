package rerank

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/filter"
	"github.com/rushteam/shoprec/pipeline"
)

// ResolveNode 通过目录补全商品记录（Item.Product）。
// 目录批量查询不保证顺序，这里按 items 原有顺序回填，不改变排名；
// 目录中已不存在的商品被丢弃。
type ResolveNode struct {
	Catalog core.Catalog
}

func (n *ResolveNode) Name() string {
	return "resolve"
}

func (n *ResolveNode) Kind() pipeline.Kind {
	return pipeline.KindResolve
}

func (n *ResolveNode) Process(
	ctx context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	if err := filter.AttachProducts(ctx, n.Catalog, items); err != nil {
		return nil, err
	}
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it.Product != nil {
			out = append(out, it)
		}
	}
	return out, nil
}

// Products 取出已解析的商品记录，顺序与 items 一致。
func Products(items []*core.Item) []core.Product {
	out := make([]core.Product, 0, len(items))
	for _, it := range items {
		if it != nil && it.Product != nil {
			out = append(out, *it.Product)
		}
	}
	return out
}
