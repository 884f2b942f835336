package core

import "github.com/rushteam/shoprec/pkg/utils"

// RecommendContext 承载请求/场景信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string
	Scene  string // product_detail / cart / ...

	// ProductIDs 是推荐的锚点商品：详情页为当前商品，购物车页为车内全部商品。
	// 顺序即调用方给出的顺序，召回结果不会包含其中任何一个。
	ProductIDs []int64

	// Labels 是请求级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级上下文参数
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// IsAnchor 判断商品是否为本次请求的锚点商品。
func (rctx *RecommendContext) IsAnchor(productID int64) bool {
	if rctx == nil {
		return false
	}
	for _, id := range rctx.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}
