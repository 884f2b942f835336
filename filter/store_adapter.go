package filter

import (
	"context"
	"strconv"

	"github.com/rushteam/shoprec/core"
)

// StoreAdapter 把 core.RankedStore 适配为黑名单存储：黑名单是一个有序集合，成员为商品 ID，分数不使用。
// 运维通过 ZADD {key} 0 {id} 维护。
type StoreAdapter struct {
	store core.RankedStore
}

// NewStoreAdapter 创建一个 RankedStore 适配器。
func NewStoreAdapter(s core.RankedStore) *StoreAdapter {
	return &StoreAdapter{store: s}
}

// GetBlacklist 读取黑名单，key 不存在时返回空。
func (a *StoreAdapter) GetBlacklist(ctx context.Context, key string) ([]int64, error) {
	members, err := a.store.ZRevRangeWithScores(ctx, key, 0, -1)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		if id, err := strconv.ParseInt(m.Member, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
