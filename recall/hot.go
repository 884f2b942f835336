package recall

import (
	"context"
	"sort"
	"strconv"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
)

// Hot 是热销召回源：读取热销有序集合（每个订单里的每个商品 +1），按销量降序。
// 用作共购召回的兜底：新商品或冷门商品没有共购记录时仍能给出推荐。
//   - 锚点商品不会被召回
//   - 存储中没有数据时使用 IDs 作为静态兜底
type Hot struct {
	Store core.RankedStore
	Key   string // 例如 "product:purchased"
	Limit int    // 最多召回条数，默认 20

	// IDs 是静态兜底列表（按顺序）
	IDs []int64
}

func (r *Hot) Name() string        { return "recall.hot" }
func (r *Hot) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Hot) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *Hot) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	limit := r.Limit
	if limit <= 0 {
		limit = 20
	}

	var out []*core.Item
	if r.Store != nil && r.Key != "" {
		// 读全量再排序：按窗口截断会让边界上的同分商品取决于存储的同分顺序
		members, err := r.Store.ZRevRangeWithScores(ctx, r.Key, 0, -1)
		if err != nil && !core.IsStoreNotFound(err) {
			return nil, err
		}
		for _, m := range members {
			id, err := strconv.ParseInt(m.Member, 10, 64)
			if err != nil || rctx.IsAnchor(id) {
				continue
			}
			out = append(out, core.NewProductItem(id, m.Score))
		}
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Score != out[j].Score {
				return out[i].Score > out[j].Score
			}
			a, _ := out[i].ProductID()
			b, _ := out[j].ProductID()
			return a < b
		})
	}

	if len(out) == 0 {
		for _, id := range r.IDs {
			if rctx.IsAnchor(id) {
				continue
			}
			out = append(out, core.NewProductItem(id, 0))
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	markRecalled(out, r.Name())
	return out, nil
}
