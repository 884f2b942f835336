package copurchase

import (
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ProductKey 返回商品共购有序集合的 key：{prefix}:{id}:purchased_with
func (r *Recommender) ProductKey(id int64) string {
	return r.keyPrefix + ":" + strconv.FormatInt(id, 10) + ":purchased_with"
}

// ProductKeyPattern 匹配所有商品共购 key 的 glob 模式。
func (r *Recommender) ProductKeyPattern() string {
	return r.keyPrefix + ":*:purchased_with"
}

// tempKey 为多商品合并生成临时 key。
// 前缀由排序后的商品 ID 确定；uuid 后缀保证同一组商品的并发请求互不覆盖、互不删除。
func (r *Recommender) tempKey(ids []int64) string {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "tmp:" + r.keyPrefix + ":" + strings.Join(parts, ",") + ":purchased_with:" + uuid.NewString()
}

func member(id int64) string {
	return strconv.FormatInt(id, 10)
}

// dedup 去重并保持首次出现的顺序
func dedup(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
