package utils

import "sort"

// Label 是推荐链路中的一等公民：可解释、可追踪、可透传。
// 例如 recall_source=content / blend_pass=primary / smart_bucket=eligible。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / filter / blend / rerank ...
}

// MergeLabel 用于合并同名 Label，保留历史、可追踪：
// - Value: 以 '|' 累积
// - Source: 以 ',' 累积
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}

// FlattenLabels 把 Labels 压平成 key -> value，用于接口 explain 输出。
func FlattenLabels(labels map[string]Label) map[string]string {
	if len(labels) == 0 {
		return nil
	}
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v.Value
	}
	return out
}

// LabelKeys 返回排序后的 label key，便于稳定输出。
func LabelKeys(labels map[string]Label) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
