package rerank

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// Diversity 按类目打散：每个类目最多保留 PerCategory 个商品（默认 1），先到先得，保持原有顺序。
// 类目来源优先级：
//   - Item.Product.Category（已解析商品）
//   - label["category"].Value
//   - meta["category"] (string)
//
// 取不到类目的商品总是保留。
type Diversity struct {
	PerCategory int
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	limit := n.PerCategory
	if limit <= 0 {
		limit = 1
	}

	seen := make(map[string]int, 16)
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		cate := category(it)
		if cate == "" {
			out = append(out, it)
			continue
		}
		if seen[cate] >= limit {
			continue
		}
		seen[cate]++
		out = append(out, it)
	}
	return out, nil
}

func category(it *core.Item) string {
	if it.Product != nil && it.Product.Category != "" {
		return it.Product.Category
	}
	if lbl, ok := it.Labels[utils.LabelCategory]; ok && lbl.Value != "" {
		return lbl.Value
	}
	if s, ok := it.Meta[utils.LabelCategory].(string); ok {
		return s
	}
	return ""
}
