package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// AvailableFilter 只保留目录中存在且在售的商品。
//
// 批量模式下一次查询目录，并把查到的商品记录挂到 Item.Product 上，
// 后续的解析节点不必再次查询。已经挂载商品记录的 Item 不会重复查询。
type AvailableFilter struct {
	Catalog core.Catalog
}

func (f *AvailableFilter) Name() string {
	return "filter.available"
}

func (f *AvailableFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	drop, err := f.ShouldFilterBatch(ctx, rctx, []*core.Item{item})
	if err != nil {
		return false, err
	}
	return drop[0], nil
}

func (f *AvailableFilter) ShouldFilterBatch(
	ctx context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]bool, error) {
	if err := AttachProducts(ctx, f.Catalog, items); err != nil {
		return nil, err
	}
	drop := make([]bool, len(items))
	for i, it := range items {
		drop[i] = it.Product == nil || !it.Product.Available
	}
	return drop, nil
}

// AttachProducts 为尚未挂载商品记录的 items 批量查询目录并挂到 Item.Product 上，目录中不存在的商品保持 nil。
func AttachProducts(ctx context.Context, catalog core.Catalog, items []*core.Item) error {
	var missing []int64
	for _, it := range items {
		if it.Product != nil {
			continue
		}
		if id, ok := it.ProductID(); ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	products, err := catalog.Products(ctx, missing)
	if err != nil {
		return err
	}
	byID := make(map[int64]*core.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	for _, it := range items {
		if it.Product != nil {
			continue
		}
		if id, ok := it.ProductID(); ok {
			it.Product = byID[id]
		}
	}
	return nil
}
