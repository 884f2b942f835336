package store

import (
	"context"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/rushteam/shoprec/core"
)

// MemoryStore 是内存实现的 RankedStore，用于测试/开发/原型。
// 支持 TTL（过期时间），进程重启后数据丢失。
// 同分成员的排序与 Redis 一致：降序读取时按成员字典序倒序。
type MemoryStore struct {
	mu    sync.RWMutex
	zsets map[string]map[string]float64 // zset key -> member -> score
	ttl   map[string]time.Time
	clean *time.Ticker
	done  chan struct{}
	once  sync.Once
}

func NewMemoryStore() *MemoryStore {
	ms := &MemoryStore{
		zsets: make(map[string]map[string]float64),
		ttl:   make(map[string]time.Time),
		clean: time.NewTicker(10 * time.Second),
		done:  make(chan struct{}),
	}
	go ms.cleanup()
	return ms
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.zsets, k)
		delete(m.ttl, k)
	}
	return nil
}

func (m *MemoryStore) Keys(_ context.Context, pattern string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	out := make([]string, 0, len(m.zsets))
	for k := range m.zsets {
		if m.expired(k, now) {
			continue
		}
		ok, err := path.Match(pattern, k)
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "store: bad pattern", err)
		}
		if ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) Close() error {
	m.once.Do(func() {
		m.clean.Stop()
		close(m.done)
	})
	return nil
}

func (m *MemoryStore) cleanup() {
	for {
		select {
		case <-m.done:
			return
		case <-m.clean.C:
			m.mu.Lock()
			now := time.Now()
			for k := range m.ttl {
				if m.expired(k, now) {
					delete(m.zsets, k)
					delete(m.ttl, k)
				}
			}
			m.mu.Unlock()
		}
	}
}

// expired 调用方需持有锁
func (m *MemoryStore) expired(key string, now time.Time) bool {
	expire, ok := m.ttl[key]
	return ok && now.After(expire)
}

// live 返回未过期的有序集合，调用方需持有锁
func (m *MemoryStore) live(key string) map[string]float64 {
	if m.expired(key, time.Now()) {
		return nil
	}
	return m.zsets[key]
}

func (m *MemoryStore) ZIncrBy(_ context.Context, key, member string, delta float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.incr(key, member, delta), nil
}

func (m *MemoryStore) ZIncrBatch(_ context.Context, incrs []core.ZIncr) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, in := range incrs {
		m.incr(in.Key, in.Member, in.Delta)
	}
	return nil
}

// incr 调用方需持有写锁
func (m *MemoryStore) incr(key, member string, delta float64) float64 {
	if m.expired(key, time.Now()) {
		delete(m.zsets, key)
		delete(m.ttl, key)
	}
	if m.zsets[key] == nil {
		m.zsets[key] = make(map[string]float64)
	}
	m.zsets[key][member] += delta
	return m.zsets[key][member]
}

func (m *MemoryStore) ZRevRangeWithScores(_ context.Context, key string, start, stop int64) ([]core.ScoredMember, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	zset := m.live(key)
	if len(zset) == 0 {
		return nil, nil
	}

	pairs := make([]core.ScoredMember, 0, len(zset))
	for member, score := range zset {
		pairs = append(pairs, core.ScoredMember{Member: member, Score: score})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Score != pairs[j].Score {
			return pairs[i].Score > pairs[j].Score
		}
		return pairs[i].Member > pairs[j].Member
	})

	// 处理范围（与 Redis 语义一致：负数从末尾计）
	n := int64(len(pairs))
	if start < 0 {
		start += n
		if start < 0 {
			start = 0
		}
	}
	if stop < 0 {
		stop += n
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop {
		return nil, nil
	}
	return pairs[start : stop+1], nil
}

func (m *MemoryStore) ZScore(_ context.Context, key, member string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	zset := m.live(key)
	if zset == nil {
		return 0, core.ErrStoreNotFound
	}
	score, ok := zset[member]
	if !ok {
		return 0, core.ErrStoreNotFound
	}
	return score, nil
}

func (m *MemoryStore) ZUnionStore(_ context.Context, dest string, keys []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	union := make(map[string]float64)
	for _, k := range keys {
		for member, score := range m.live(k) {
			union[member] += score
		}
	}

	delete(m.ttl, dest)
	if len(union) == 0 {
		// Redis 在结果为空时删除 dest
		delete(m.zsets, dest)
		return 0, nil
	}
	m.zsets[dest] = union
	return int64(len(union)), nil
}

func (m *MemoryStore) ZRem(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	zset := m.live(key)
	if zset == nil {
		return nil
	}
	for _, member := range members {
		delete(zset, member)
	}
	if len(zset) == 0 {
		delete(m.zsets, key)
		delete(m.ttl, key)
	}
	return nil
}

func (m *MemoryStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.live(key) == nil {
		return nil
	}
	m.ttl[key] = time.Now().Add(ttl)
	return nil
}

// 确保 MemoryStore 实现了 core.RankedStore 接口
var _ core.RankedStore = (*MemoryStore)(nil)
