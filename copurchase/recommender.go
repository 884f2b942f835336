// Package copurchase 实现“经常一起购买”的共购推荐。
//
// 数据模型：每个商品 P 对应一个有序集合 {prefix}:{P}:purchased_with，
// 成员为与 P 同单购买过的其他商品 ID，分数为共同购买次数。
// 一次订单中的每个有序对 (A, B)，A ≠ B，都会让 A 集合里 B 的分数 +1（反之亦然，分别存储）。
//
// 推荐器本身无状态、不加锁，并发正确性依赖存储的原子增量（ZINCRBY）。
// 记录与查询之间不保证顺序：查询可能看到也可能看不到进行中的写入。
package copurchase

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/pkg/metrics"
)

// clearBatchSize 是 ClearAll 每次 DEL 的 key 数量
const clearBatchSize = 500

// Suggestion 是一条带分数的推荐结果。
type Suggestion struct {
	ProductID int64
	Score     float64
}

// Recommender 是共购推荐器。
type Recommender struct {
	store   core.RankedStore
	catalog core.Catalog

	keyPrefix     string
	popularityKey string
	maxResults    int
	timeout       time.Duration
	tempKeyTTL    time.Duration
}

// Option 配置 Recommender。
type Option func(*Recommender)

// WithKeyPrefix 设置 key 前缀，默认 "product"。
func WithKeyPrefix(prefix string) Option {
	return func(r *Recommender) {
		if prefix != "" {
			r.keyPrefix = prefix
		}
	}
}

// WithMaxResults 设置未指定数量时的默认推荐条数。
func WithMaxResults(n int) Option {
	return func(r *Recommender) {
		if n > 0 {
			r.maxResults = n
		}
	}
}

// WithTimeout 设置每个操作的存储超时。超时按 UNAVAILABLE 处理。
func WithTimeout(d time.Duration) Option {
	return func(r *Recommender) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithTempKeyTTL 设置临时合并 key 的兜底过期时间。
func WithTempKeyTTL(d time.Duration) Option {
	return func(r *Recommender) {
		if d > 0 {
			r.tempKeyTTL = d
		}
	}
}

// WithPopularityKey 设置热销计数 key；空字符串表示不记录热销。默认 "{prefix}:purchased"。
func WithPopularityKey(key string) Option {
	return func(r *Recommender) {
		r.popularityKey = key
	}
}

// New 创建推荐器。catalog 可为 nil：此时 SuggestProducts 不可用，
// ClearAll 退化为按 key 模式扫描存储。
func New(store core.RankedStore, catalog core.Catalog, opts ...Option) *Recommender {
	defaults := &core.DefaultRecommendConfig{}
	r := &Recommender{
		store:      store,
		catalog:    catalog,
		keyPrefix:  "product",
		maxResults: defaults.DefaultMaxResults(),
		timeout:    defaults.DefaultTimeout(),
		tempKeyTTL: defaults.DefaultTempKeyTTL(),
	}
	r.popularityKey = r.keyPrefix + ":purchased"
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PopularityKey 返回热销计数 key（可能为空）。
func (r *Recommender) PopularityKey() string { return r.popularityKey }

// MaxResults 返回默认推荐条数。
func (r *Recommender) MaxResults() int { return r.maxResults }

func (r *Recommender) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func invalid(msg string) error {
	return core.WrapDomainError(core.ModuleRecommender, core.ErrorCodeInvalidInput, "recommender: "+msg, nil)
}

// RecordCoPurchases 记录一次“一起购买”事件（通常是一个完成的订单）。
// 重复的商品 ID 先去重再配对，同一订单里同一商品出现两次不会重复计数。
// 只有一个商品的订单不产生共购对，但仍计入热销。
func (r *Recommender) RecordCoPurchases(ctx context.Context, productIDs []int64) (err error) {
	defer metrics.ObserveOperation("record", time.Now(), &err)

	ids := dedup(productIDs)
	if len(ids) == 0 {
		return invalid("empty product set")
	}

	incrs := make([]core.ZIncr, 0, len(ids)*len(ids))
	for _, a := range ids {
		key := r.ProductKey(a)
		for _, b := range ids {
			if a == b {
				continue
			}
			incrs = append(incrs, core.ZIncr{Key: key, Member: member(b), Delta: 1})
		}
	}
	if r.popularityKey != "" {
		for _, id := range ids {
			incrs = append(incrs, core.ZIncr{Key: r.popularityKey, Member: member(id), Delta: 1})
		}
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.store.ZIncrBatch(ctx, incrs)
}

// Suggest 返回与给定商品最常一起购买的商品 ID，按分数降序，分数相同时按 ID 升序。
// maxResults 为 0 时使用默认条数；结果永远不包含输入商品本身。
func (r *Recommender) Suggest(ctx context.Context, productIDs []int64, maxResults int) ([]int64, error) {
	suggestions, err := r.SuggestScored(ctx, productIDs, maxResults)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(suggestions))
	for i, s := range suggestions {
		out[i] = s.ProductID
	}
	return out, nil
}

// SuggestScored 与 Suggest 相同，但同时返回分数。
//
// 单个商品：直接读取该商品的共购集合。
// 多个商品：把各商品的共购集合按分数求和合并到临时 key，移除输入商品后读取；
// 没有共购记录的商品贡献 0 分。临时 key 在返回前删除（出错时同样删除），并带 TTL 兜底。
func (r *Recommender) SuggestScored(ctx context.Context, productIDs []int64, maxResults int) (_ []Suggestion, err error) {
	defer metrics.ObserveOperation("suggest", time.Now(), &err)

	if len(productIDs) == 0 {
		return nil, invalid("empty product set")
	}
	if maxResults < 0 {
		return nil, invalid("negative max results")
	}
	if maxResults == 0 {
		maxResults = r.maxResults
	}
	ids := dedup(productIDs)

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var members []core.ScoredMember
	if len(ids) == 1 {
		members, err = r.store.ZRevRangeWithScores(ctx, r.ProductKey(ids[0]), 0, -1)
	} else {
		members, err = r.unionRange(ctx, ids)
	}
	if err != nil {
		return nil, err
	}

	anchors := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		anchors[id] = struct{}{}
	}

	out := make([]Suggestion, 0, len(members))
	for _, m := range members {
		id, perr := strconv.ParseInt(m.Member, 10, 64)
		if perr != nil {
			continue
		}
		if _, ok := anchors[id]; ok {
			continue
		}
		out = append(out, Suggestion{ProductID: id, Score: m.Score})
	}

	// 在内存中排序而不是依赖存储的同分顺序，不同后端结果一致
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ProductID < out[j].ProductID
	})
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}

func (r *Recommender) unionRange(ctx context.Context, ids []int64) ([]core.ScoredMember, error) {
	tmp := r.tempKey(ids)
	defer r.dropTempKey(ctx, tmp)

	keys := make([]string, len(ids))
	anchors := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.ProductKey(id)
		anchors[i] = member(id)
	}

	n, err := r.store.ZUnionStore(ctx, tmp, keys)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	if err := r.store.Expire(ctx, tmp, r.tempKeyTTL); err != nil {
		return nil, err
	}
	if err := r.store.ZRem(ctx, tmp, anchors...); err != nil {
		return nil, err
	}
	return r.store.ZRevRangeWithScores(ctx, tmp, 0, -1)
}

// dropTempKey 使用独立于调用方取消信号的 context，保证请求超时后临时 key 仍被删除。
func (r *Recommender) dropTempKey(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	if err := r.store.Delete(ctx, key); err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("drop temporary union key failed, relying on ttl")
	}
}

// SuggestProducts 返回推荐商品的完整记录，顺序与 Suggest 的排名一致。
// 目录批量查询不保证顺序，这里按排名重新排序；目录中不存在的 ID 被丢弃。
func (r *Recommender) SuggestProducts(ctx context.Context, productIDs []int64, maxResults int) ([]core.Product, error) {
	if r.catalog == nil {
		return nil, core.NewDomainError(core.ModuleRecommender, core.ErrorCodeNotSupported, "recommender: no catalog configured")
	}
	ranked, err := r.Suggest(ctx, productIDs, maxResults)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, nil
	}
	products, err := r.catalog.Products(ctx, ranked)
	if err != nil {
		return nil, err
	}
	return SortByRank(products, ranked), nil
}

// SortByRank 将 products 按 ranked 中的顺序重新排列，O(n)。
// 不在 ranked 中的商品被丢弃。
func SortByRank(products []core.Product, ranked []int64) []core.Product {
	byID := make(map[int64]core.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	out := make([]core.Product, 0, len(products))
	for _, id := range ranked {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// ClearAll 删除所有商品的共购记录以及热销计数，幂等。
// 按 key 模式扫描存储，有目录时再并入目录中的商品 ID。
func (r *Recommender) ClearAll(ctx context.Context) (err error) {
	defer metrics.ObserveOperation("clear", time.Now(), &err)

	keys, err := r.allKeys(ctx)
	if err != nil {
		return err
	}
	if r.popularityKey != "" {
		keys = append(keys, r.popularityKey)
	}

	for start := 0; start < len(keys); start += clearBatchSize {
		end := start + clearBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		if err := r.deleteBatch(ctx, keys[start:end]); err != nil {
			return err
		}
	}
	logging.Info().Int("keys", len(keys)).Msg("co-purchase affinities cleared")
	return nil
}

func (r *Recommender) deleteBatch(ctx context.Context, keys []string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.store.Delete(ctx, keys...)
}

func (r *Recommender) allKeys(ctx context.Context) ([]string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	keys, err := r.store.Keys(ctx, r.ProductKeyPattern())
	if err != nil {
		return nil, err
	}
	if r.catalog == nil {
		return keys, nil
	}
	ids, err := r.catalog.ProductIDs(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(keys)+len(ids))
	for _, k := range keys {
		seen[k] = struct{}{}
	}
	for _, id := range ids {
		k := r.ProductKey(id)
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys, nil
}
