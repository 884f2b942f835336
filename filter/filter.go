package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// Filter 判断一个 Item 是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	Name() string
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

// BatchFilter 一次判断整批 items，适合需要查询目录或存储的过滤器，避免逐个查询。
// 返回的切片与 items 一一对应。
type BatchFilter interface {
	Filter
	ShouldFilterBatch(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([]bool, error)
}
