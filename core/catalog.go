package core

import "context"

// Product 是商品目录中的一条记录。推荐器本身只关心 ID，
// 其余字段供解析/过滤/展示使用。
type Product struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	Category   string `json:"category"`
	PriceCents int64  `json:"price_cents"`
	Available  bool   `json:"available"`
}

// Catalog 是外部商品目录的协作接口。
type Catalog interface {
	// Products 按 ID 批量查询商品，返回顺序不做保证，不存在的 ID 被忽略
	Products(ctx context.Context, ids []int64) ([]Product, error)

	// ProductIDs 枚举目录中所有商品 ID（用于清空推荐数据）
	ProductIDs(ctx context.Context) ([]int64, error)
}
