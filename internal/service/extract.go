package service

import (
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/bytedance/sonic"
	"github.com/haierkeys/miknow-notebook-service/internal/domain"
)

var (
	// 模型回复中从第一个 { 到最后一个 } 的片段
	objectPattern = regexp.MustCompile(`\{[\s\S]*\}`)
	// 模型回复中从第一个 [ 到最后一个 ] 的片段
	arrayPattern = regexp.MustCompile(`\[[\s\S]*\]`)
)

const (
	defaultLinkTitle     = "Untitled Note"
	defaultLinkRelevance = 0.5
	defaultLinkReason    = "Related content"
	fallbackLinkReason   = "Potential connection based on content similarity"
)

// extractJSON 取第一个匹配片段，没有匹配时返回整段回复
func extractJSON(re *regexp.Regexp, reply string) string {
	if m := re.FindString(reply); m != "" {
		return m
	}
	return reply
}

// AnalysisFallback 分析结果无法解析时展示的内容
func AnalysisFallback() domain.AnalysisResult {
	return domain.AnalysisResult{
		Summary:        "Failed to generate summary. Please try again with more detailed content.",
		KeyThemes:      []string{"Analysis failed"},
		SuggestedLinks: []string{"Try again with different content"},
		KnowledgeGaps:  []string{"Unable to identify knowledge gaps"},
	}
}

// LinkFallback 链接建议无法解析时，每条已有笔记给出一条 0.5 相关度的建议
func LinkFallback(existing []string) []domain.LinkSuggestion {
	out := make([]domain.LinkSuggestion, 0, len(existing))
	for _, note := range existing {
		out = append(out, domain.LinkSuggestion{
			Title:     note,
			Relevance: defaultLinkRelevance,
			Reason:    fallbackLinkReason,
		})
	}
	return out
}

// SortByRelevance 按相关度降序排列，相同相关度保持原顺序
func SortByRelevance(in []domain.LinkSuggestion) []domain.LinkSuggestion {
	out := make([]domain.LinkSuggestion, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Relevance > out[j].Relevance
	})
	return out
}

func parseAnalysis(reply string) (domain.AnalysisResult, error) {
	var raw map[string]any
	if err := sonic.UnmarshalString(extractJSON(objectPattern, reply), &raw); err != nil {
		return domain.AnalysisResult{}, err
	}

	summary, _ := raw["summary"].(string)
	if summary == "" {
		return domain.AnalysisResult{}, fmt.Errorf("analysis: missing summary")
	}

	res := domain.AnalysisResult{Summary: summary}
	fields := []struct {
		name string
		dst  *[]string
	}{
		{"keyThemes", &res.KeyThemes},
		{"suggestedLinks", &res.SuggestedLinks},
		{"knowledgeGaps", &res.KnowledgeGaps},
	}
	for _, f := range fields {
		list, ok := raw[f.name].([]any)
		if !ok {
			return domain.AnalysisResult{}, fmt.Errorf("analysis: %s is not an array", f.name)
		}
		*f.dst = toStrings(list)
	}
	return res, nil
}

func toStrings(list []any) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
			continue
		}
		out = append(out, fmt.Sprint(v))
	}
	return out
}

func parseLinks(reply string) ([]domain.LinkSuggestion, error) {
	var raw []any
	if err := sonic.UnmarshalString(extractJSON(arrayPattern, reply), &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("links: not an array")
	}

	out := make([]domain.LinkSuggestion, 0, len(raw))
	for _, item := range raw {
		obj, _ := item.(map[string]any)
		out = append(out, linkFromObject(obj))
	}
	return out, nil
}

// linkFromObject 逐字段兜底，obj 为 nil 时全部使用默认值
func linkFromObject(obj map[string]any) domain.LinkSuggestion {
	s := domain.LinkSuggestion{
		Title:     defaultLinkTitle,
		Relevance: defaultLinkRelevance,
		Reason:    defaultLinkReason,
	}
	if v, ok := obj["title"].(string); ok && v != "" {
		s.Title = v
	}
	if v, ok := obj["relevance"].(float64); ok && !math.IsNaN(v) && v >= 0 && v <= 1 {
		s.Relevance = v
	}
	if v, ok := obj["reason"].(string); ok && v != "" {
		s.Reason = v
	}
	return s
}
