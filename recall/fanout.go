package recall

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/pkg/utils"
)

// 合并策略
const (
	MergeFirst = "first" // 按 Sources 顺序拼接，同一商品保留首次出现（默认）
	MergeUnion = "union" // 按 Sources 顺序拼接，不去重
	MergeSum   = "sum"   // 同一商品分数相加，再按分数降序、商品 ID 升序排序
)

// Fanout 是一个 Recall Node：并发执行多个召回源，并按 Sources 顺序合并结果。
// 单个召回源出错或超时只记录日志，不影响其他召回源；全部失败时返回第一个错误。
type Fanout struct {
	Sources       []Source
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
	MergeStrategy string
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	results := make([][]*core.Item, len(n.Sources))
	errs := make([]error, len(n.Sources))

	eg, egCtx := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}
	for i, src := range n.Sources {
		eg.Go(func() error {
			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}
			items, err := src.Recall(recallCtx, rctx)
			if err != nil {
				logging.Ctx(ctx).Warn().Err(err).Str("source", src.Name()).Msg("recall source failed")
				errs[i] = err
				return nil
			}
			results[i] = items
			return nil
		})
	}
	_ = eg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed == len(n.Sources) {
		return nil, errs[0]
	}

	var all []*core.Item
	for _, items := range results {
		all = append(all, items...)
	}

	switch n.MergeStrategy {
	case MergeUnion:
		return all, nil
	case MergeSum:
		return mergeSum(all), nil
	default:
		return mergeFirst(all), nil
	}
}

// mergeFirst 按 ID 去重，保留第一个出现的，后出现的 labels 合并进来。
func mergeFirst(all []*core.Item) []*core.Item {
	seen := make(map[string]*core.Item, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, it := range all {
		if it == nil {
			continue
		}
		if old, ok := seen[it.ID]; ok {
			mergeLabels(old, it)
			continue
		}
		seen[it.ID] = it
		out = append(out, it)
	}
	return out
}

func mergeSum(all []*core.Item) []*core.Item {
	out := make([]*core.Item, 0, len(all))
	seen := make(map[string]*core.Item, len(all))
	for _, it := range all {
		if it == nil {
			continue
		}
		if old, ok := seen[it.ID]; ok {
			old.Score += it.Score
			mergeLabels(old, it)
			continue
		}
		seen[it.ID] = it
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		a, _ := out[i].ProductID()
		b, _ := out[j].ProductID()
		return a < b
	})
	return out
}

func mergeLabels(dst, src *core.Item) {
	for k, v := range src.Labels {
		if _, ok := dst.Labels[k]; ok && k != utils.LabelRecallSource {
			continue
		}
		dst.PutLabel(k, v)
	}
}
