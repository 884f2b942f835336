package recall

import (
	"context"
	"strconv"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/utils"
)

// Source 是一个可复用的召回源（共购、热销……），可以单独作为 Node，也可以放进 Fanout 并发执行。
// 返回的 items 已按源内排名排好序。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

func markRecalled(items []*core.Item, source string) {
	for i, it := range items {
		it.PutLabel(utils.LabelRecallSource, utils.NewLabel(source, "recall"))
		if _, ok := it.Labels[utils.LabelRecallRank]; !ok {
			it.Labels[utils.LabelRecallRank] = utils.NewLabel(strconv.Itoa(i), source)
		}
	}
}
