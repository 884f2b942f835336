package utils

// Label 记录一个商品在推荐链路中“为什么出现、经过了什么”。
// Value 与 Source 的含义由写入方约定，合并规则统一在 MergeLabel。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / filter / rerank / resolve
}

// 链路中约定的 label key
const (
	LabelRecallSource = "recall_source" // 召回来源，如 recall.copurchase / recall.hot
	LabelRecallRank   = "recall_rank"   // 召回源内的名次（从 0 开始）
	LabelFiltered     = "filtered"      // 被哪个过滤器剔除
	LabelCategory     = "category"      // 商品类目，多样性重排使用
)

// NewLabel 构造一个 Label。
func NewLabel(value, source string) Label {
	return Label{Value: value, Source: source}
}

// MergeLabel 合并同名 Label：Value 用 '|' 累积，Source 用 ',' 累积，空值一侧直接让位。
// 同一商品被多个召回源命中时，recall_source 会变成 "recall.copurchase|recall.hot"。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := Label{Value: existing.Value + "|" + incoming.Value, Source: existing.Source}
	if merged.Source == "" {
		merged.Source = incoming.Source
	} else if incoming.Source != "" && incoming.Source != existing.Source {
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
