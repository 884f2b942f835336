package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// BlacklistFilter 过滤掉运营配置的黑名单商品（例如礼品卡、停售商品）。
// 黑名单可以来自配置（ProductIDs），也可以来自存储（Store + Key），两者取并集。
type BlacklistFilter struct {
	ProductIDs []int64

	// Store 用于从存储中读取黑名单（可选）
	Store BlacklistStore
	Key   string
}

// BlacklistStore 是黑名单存储接口。
type BlacklistStore interface {
	GetBlacklist(ctx context.Context, key string) ([]int64, error)
}

// NewBlacklistFilter 创建一个黑名单过滤器，adapter 可为 nil。
func NewBlacklistFilter(productIDs []int64, adapter *StoreAdapter, key string) *BlacklistFilter {
	f := &BlacklistFilter{ProductIDs: productIDs, Key: key}
	if adapter != nil {
		f.Store = adapter
	}
	return f
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
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

func (f *BlacklistFilter) ShouldFilterBatch(
	ctx context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]bool, error) {
	blocked := make(map[int64]struct{}, len(f.ProductIDs))
	for _, id := range f.ProductIDs {
		blocked[id] = struct{}{}
	}
	if f.Store != nil && f.Key != "" {
		ids, err := f.Store.GetBlacklist(ctx, f.Key)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			blocked[id] = struct{}{}
		}
	}

	drop := make([]bool, len(items))
	for i, it := range items {
		id, ok := it.ProductID()
		if !ok {
			drop[i] = true
			continue
		}
		_, drop[i] = blocked[id]
	}
	return drop, nil
}
