package domain

// AnalysisResult 笔记分析结果
type AnalysisResult struct {
	Summary        string   `json:"summary"`
	KeyThemes      []string `json:"keyThemes"`
	SuggestedLinks []string `json:"suggestedLinks"`
	KnowledgeGaps  []string `json:"knowledgeGaps"`
}

// LinkSuggestion 链接建议，Relevance 取值 [0,1]
type LinkSuggestion struct {
	Title     string  `json:"title"`
	Relevance float64 `json:"relevance"`
	Reason    string  `json:"reason"`
}
