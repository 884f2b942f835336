// Package store 提供 core.RankedStore 的实现。
//
// 注意：此包只包含实现，接口定义在 core 包。
//
//	var rs core.RankedStore = store.NewMemoryStore()
//	rs, err := store.NewRedisStore("localhost:6379", 0)
//	rs = store.NewBreakerStore(rs, store.BreakerConfig{Name: "redis"})
package store
