package core

import (
	"strconv"

	"github.com/rushteam/shoprec/pkg/utils"
)

// Item 是推荐链路中的统一承载结构：商品 ID、分数、元信息、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策（共购场景下即累计共购次数）。
type Item struct {
	ID     string
	Score  float64
	Meta   map[string]any
	Labels map[string]utils.Label

	// Product 在解析阶段填充，召回阶段为 nil。
	Product *Product
}

func NewItem(id string) *Item {
	return &Item{
		ID:     id,
		Meta:   make(map[string]any),
		Labels: make(map[string]utils.Label),
	}
}

// NewProductItem 以商品 ID 构造 Item。
func NewProductItem(productID int64, score float64) *Item {
	it := NewItem(strconv.FormatInt(productID, 10))
	it.Score = score
	return it
}

// ProductID 将 Item.ID 解析为商品 ID；非数字 ID 返回 false。
func (it *Item) ProductID() (int64, bool) {
	id, err := strconv.ParseInt(it.ID, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}
