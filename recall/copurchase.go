package recall

import (
	"context"

	"github.com/rushteam/shoprec/copurchase"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
)

// Suggester 是共购召回依赖的推荐器能力，*copurchase.Recommender 实现了它。
type Suggester interface {
	SuggestScored(ctx context.Context, productIDs []int64, maxResults int) ([]copurchase.Suggestion, error)
}

// CoPurchase 以请求中的锚点商品（rctx.ProductIDs）为输入召回“经常一起购买”的商品。
// 没有锚点商品时不召回；推荐器的错误原样返回，由调用方决定降级。
type CoPurchase struct {
	Suggester Suggester

	// MaxResults 为 0 时使用推荐器的默认条数
	MaxResults int
}

func (r *CoPurchase) Name() string        { return "recall.copurchase" }
func (r *CoPurchase) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口：忽略上游 items，直接召回。
func (r *CoPurchase) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。
func (r *CoPurchase) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if rctx == nil || len(rctx.ProductIDs) == 0 {
		return nil, nil
	}
	suggestions, err := r.Suggester.SuggestScored(ctx, rctx.ProductIDs, r.MaxResults)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Item, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, core.NewProductItem(s.ProductID, s.Score))
	}
	markRecalled(out, r.Name())
	return out, nil
}
