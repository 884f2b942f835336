package pipeline

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// Kind 标记 Node 所处阶段，用于日志与观测。
type Kind string

const (
	KindRecall  Kind = "recall"  // 召回：从共购集合/热销榜生成候选
	KindFilter  Kind = "filter"  // 过滤：剔除下架、黑名单等候选
	KindReRank  Kind = "rerank"  // 重排：截断、类目打散
	KindResolve Kind = "resolve" // 解析：补全商品记录
)

// Node 是 Pipeline 的最小可扩展单元，统一为“输入 items -> 输出 items”。
// Node 不能改变上游给出的相对顺序，除非它本身就是排序/重排节点。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}

// NodeBuilder 根据配置构建 Node。
type NodeBuilder func(config map[string]any) (Node, error)
