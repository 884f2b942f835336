// Package catalog 提供 core.Catalog 的实现。
//
// 商品目录归外部系统所有，推荐器只需要两种能力：按 ID 批量取商品、枚举全部商品 ID。
package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/rushteam/shoprec/core"
)

// MemoryCatalog 是内存目录，用于测试/开发。
// Products 按 map 遍历顺序返回，与真实数据库一样不保证顺序。
type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[int64]core.Product
}

func NewMemoryCatalog(products ...core.Product) *MemoryCatalog {
	c := &MemoryCatalog{products: make(map[int64]core.Product, len(products))}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

// Put 新增或覆盖商品。
func (c *MemoryCatalog) Put(products ...core.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range products {
		c.products[p.ID] = p
	}
}

func (c *MemoryCatalog) Products(_ context.Context, ids []int64) ([]core.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]core.Product, 0, len(want))
	for id, p := range c.products {
		if _, ok := want[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *MemoryCatalog) ProductIDs(_ context.Context) ([]int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]int64, 0, len(c.products))
	for id := range c.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

var _ core.Catalog = (*MemoryCatalog)(nil)
