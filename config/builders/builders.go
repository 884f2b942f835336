package builders

import (
	"errors"
	"fmt"

	"github.com/rushteam/shoprec/config"
	"github.com/rushteam/shoprec/copurchase"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/filter"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/conv"
	"github.com/rushteam/shoprec/recall"
	"github.com/rushteam/shoprec/rerank"
)

func init() {
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.diversity", BuildDiversityNode)
}

// Deps 是依赖外部资源的 Node 所需的依赖，在启动时注入。
type Deps struct {
	Recommender *copurchase.Recommender
	Catalog     core.Catalog
	Store       core.RankedStore
}

// Register 注册依赖外部资源的 Node：recall.copurchase、recall.hot、recall.fanout、filter、resolve。
func Register(deps Deps) {
	config.Register("recall.copurchase", deps.BuildCoPurchaseNode)
	config.Register("recall.hot", deps.BuildHotNode)
	config.Register("recall.fanout", deps.BuildFanoutNode)
	config.Register("filter", deps.BuildFilterNode)
	config.Register("resolve", deps.BuildResolveNode)
}

var (
	errNoRecommender = errors.New("recommender not configured")
	errNoCatalog     = errors.New("catalog not configured")
	errNoStore       = errors.New("store not configured")
)

func (d Deps) BuildCoPurchaseNode(cfg map[string]any) (pipeline.Node, error) {
	src, err := d.coPurchase(cfg)
	if err != nil {
		return nil, err
	}
	return src, nil
}

func (d Deps) coPurchase(cfg map[string]any) (*recall.CoPurchase, error) {
	if d.Recommender == nil {
		return nil, errNoRecommender
	}
	return &recall.CoPurchase{
		Suggester:  d.Recommender,
		MaxResults: int(conv.ConfigGetInt64(cfg, "max_results", 0)),
	}, nil
}

func (d Deps) BuildHotNode(cfg map[string]any) (pipeline.Node, error) {
	return d.hot(cfg)
}

func (d Deps) hot(cfg map[string]any) (*recall.Hot, error) {
	key := conv.ConfigGet(cfg, "key", "")
	if key == "" && d.Recommender != nil {
		key = d.Recommender.PopularityKey()
	}
	ids := conv.SliceAnyToInt64(cfg["ids"])
	if d.Store == nil && len(ids) == 0 {
		return nil, errNoStore
	}
	return &recall.Hot{
		Store: d.Store,
		Key:   key,
		Limit: int(conv.ConfigGetInt64(cfg, "limit", 0)),
		IDs:   ids,
	}, nil
}

func (d Deps) BuildFanoutNode(cfg map[string]any) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]any)
	if !ok || len(sourcesConfig) == 0 {
		return nil, fmt.Errorf("sources not found or invalid")
	}
	sources := make([]recall.Source, 0, len(sourcesConfig))
	for i, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("source #%d: invalid", i)
		}
		var (
			src recall.Source
			err error
		)
		switch sourceType := conv.ConfigGet(sourceMap, "type", ""); sourceType {
		case "copurchase":
			src, err = d.coPurchase(sourceMap)
		case "hot":
			src, err = d.hot(sourceMap)
		default:
			err = fmt.Errorf("unknown source type: %q", sourceType)
		}
		if err != nil {
			return nil, fmt.Errorf("source #%d: %w", i, err)
		}
		sources = append(sources, src)
	}

	strategy := conv.ConfigGet(cfg, "merge_strategy", recall.MergeFirst)
	switch strategy {
	case recall.MergeFirst, recall.MergeUnion, recall.MergeSum:
	default:
		return nil, fmt.Errorf("unknown merge strategy: %q", strategy)
	}
	return &recall.Fanout{
		Sources:       sources,
		Timeout:       conv.ConfigGetDuration(cfg, "timeout", 0),
		MaxConcurrent: int(conv.ConfigGetInt64(cfg, "max_concurrent", 0)),
		MergeStrategy: strategy,
	}, nil
}

func (d Deps) BuildFilterNode(cfg map[string]any) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]any)
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for i, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("filter #%d: invalid", i)
		}
		switch filterType := conv.ConfigGet(filterMap, "type", ""); filterType {
		case "available":
			if d.Catalog == nil {
				return nil, fmt.Errorf("filter #%d: %w", i, errNoCatalog)
			}
			filters = append(filters, &filter.AvailableFilter{Catalog: d.Catalog})
		case "blacklist":
			var adapter *filter.StoreAdapter
			key := conv.ConfigGet(filterMap, "key", "")
			if key != "" {
				if d.Store == nil {
					return nil, fmt.Errorf("filter #%d: %w", i, errNoStore)
				}
				adapter = filter.NewStoreAdapter(d.Store)
			}
			filters = append(filters, filter.NewBlacklistFilter(conv.SliceAnyToInt64(filterMap["product_ids"]), adapter, key))
		case "expr":
			f, err := filter.NewExprFilter(conv.ConfigGet(filterMap, "expr", ""))
			if err != nil {
				return nil, fmt.Errorf("filter #%d: %w", i, err)
			}
			filters = append(filters, f)
		default:
			return nil, fmt.Errorf("filter #%d: unknown filter type: %q", i, filterType)
		}
	}
	return &filter.FilterNode{
		Filters: filters,
		Strict:  conv.ConfigGet(cfg, "strict", true),
	}, nil
}

func (d Deps) BuildResolveNode(map[string]any) (pipeline.Node, error) {
	if d.Catalog == nil {
		return nil, errNoCatalog
	}
	return &rerank.ResolveNode{Catalog: d.Catalog}, nil
}

func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	n := conv.ConfigGetInt64(cfg, "n", 0)
	if n < 0 {
		return nil, fmt.Errorf("n must not be negative")
	}
	return &rerank.TopNNode{N: int(n)}, nil
}

func BuildDiversityNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.Diversity{PerCategory: int(conv.ConfigGetInt64(cfg, "per_category", 1))}, nil
}
