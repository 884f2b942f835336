// Package shop 是店面两个推荐位的入口：商品详情页“经常一起购买”和购物车页“购买了这些的人还买了”。
//
// 推荐位永远不会让页面失败：推荐链路出错（存储不可达、超时、目录不可用）时记录告警并返回空推荐。
package shop

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/filter"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/recall"
	"github.com/rushteam/shoprec/rerank"
)

const (
	SceneProductDetail = "product_detail"
	SceneCart          = "cart"

	// DefaultLimit 是两个推荐位展示的商品数
	DefaultLimit = 4

	// candidateFactor 倍的候选进入过滤，下架商品被剔除后仍能凑满 limit
	candidateFactor = 3
)

// Service 承载两个推荐位的 Pipeline。
type Service struct {
	detail *pipeline.Pipeline
	cart   *pipeline.Pipeline
}

type options struct {
	limit  int
	detail *pipeline.Pipeline
	cart   *pipeline.Pipeline
}

// Option 配置 Service。
type Option func(*options)

// WithLimit 设置推荐位商品数，默认 4。
func WithLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.limit = n
		}
	}
}

// WithPipelines 用自定义（例如 YAML 配置的）Pipeline 替换默认链路，nil 表示保留默认。
func WithPipelines(detail, cart *pipeline.Pipeline) Option {
	return func(o *options) {
		o.detail = detail
		o.cart = cart
	}
}

// New 创建 Service。默认链路：共购召回 → 在售过滤 → Top N → 解析商品记录。
func New(suggester recall.Suggester, catalog core.Catalog, opts ...Option) *Service {
	o := &options{limit: DefaultLimit}
	for _, opt := range opts {
		opt(o)
	}
	s := &Service{detail: o.detail, cart: o.cart}
	if s.detail == nil {
		s.detail = DefaultPipeline(SceneProductDetail, suggester, catalog, o.limit)
	}
	if s.cart == nil {
		s.cart = DefaultPipeline(SceneCart, suggester, catalog, o.limit)
	}
	return s
}

// DefaultPipeline 构建默认推荐链路。
func DefaultPipeline(name string, suggester recall.Suggester, catalog core.Catalog, limit int) *pipeline.Pipeline {
	return &pipeline.Pipeline{
		Name: name,
		Nodes: []pipeline.Node{
			&recall.CoPurchase{Suggester: suggester, MaxResults: limit * candidateFactor},
			&filter.FilterNode{
				Filters: []filter.Filter{&filter.AvailableFilter{Catalog: catalog}},
				Strict:  true,
			},
			&rerank.TopNNode{N: limit},
			&rerank.ResolveNode{Catalog: catalog},
		},
	}
}

// ProductDetail 返回与该商品经常一起购买的在售商品，按共购次数降序。
func (s *Service) ProductDetail(ctx context.Context, productID int64) []core.Product {
	return s.run(ctx, s.detail, &core.RecommendContext{
		Scene:      SceneProductDetail,
		ProductIDs: []int64{productID},
	})
}

// Cart 返回购物车推荐。空购物车不推荐，返回 nil。
func (s *Service) Cart(ctx context.Context, cartProductIDs []int64) []core.Product {
	if len(cartProductIDs) == 0 {
		return nil
	}
	return s.run(ctx, s.cart, &core.RecommendContext{
		Scene:      SceneCart,
		ProductIDs: cartProductIDs,
	})
}

func (s *Service) run(ctx context.Context, p *pipeline.Pipeline, rctx *core.RecommendContext) []core.Product {
	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("scene", rctx.Scene).
			Ints64("product_ids", rctx.ProductIDs).
			Bool("store_unavailable", core.IsUnavailable(err)).
			Msg("recommendations unavailable, rendering without them")
		return nil
	}
	products := rerank.Products(items)
	if len(products) == 0 {
		return nil
	}
	return products
}
