// Package shoprec 为店面提供“经常一起购买”的共购推荐。
//
// 设计要点：
//   - 共购计数存放在有序集合中：每个商品一个集合，成员为同单商品，分数为共同购买次数
//   - 推荐器无状态，并发正确性依赖存储的原子增量
//   - 店面推荐位通过 Pipeline 组装（召回 → 过滤 → 截断 → 解析），出错时降级为空推荐
package shoprec

import "github.com/rushteam/shoprec/pipeline"

// 轻量 facade：便于直接 import "github.com/rushteam/shoprec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall  = pipeline.KindRecall
	KindFilter  = pipeline.KindFilter
	KindReRank  = pipeline.KindReRank
	KindResolve = pipeline.KindResolve
)
