package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/logging"
)

// Pipeline 把推荐逻辑拆成可组合的 Node 链，前一个 Node 的输出是后一个的输入。
type Pipeline struct {
	Name  string
	Nodes []Node
}

// Run 依次执行所有 Node。任何 Node 出错即中止，错误带上 Node 名称。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	log := logging.Ctx(ctx)
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		log.Debug().
			Str("pipeline", p.Name).
			Str("node", node.Name()).
			Str("kind", string(node.Kind())).
			Int("in", len(cur)).
			Int("out", len(next)).
			Msg("node processed")
		cur = next
	}
	return cur, nil
}
