package dto

// AnalyzeRequest 笔记分析参数
type AnalyzeRequest struct {
	Content string `json:"content" form:"content" binding:"required"`
}

// AnalyzeBatchRequest 批量分析参数
type AnalyzeBatchRequest struct {
	Notes []string `json:"notes" form:"notes" binding:"required,min=1,dive,required"`
}

// LinksRequest 链接推荐参数
type LinksRequest struct {
	Content       string   `json:"content" form:"content" binding:"required"`
	ExistingNotes []string `json:"existingNotes" form:"existingNotes"`
}

// GenerateRequest 笔记生成参数
type GenerateRequest struct {
	Prompt       string   `json:"prompt" form:"prompt" binding:"required"`
	RelatedNotes []string `json:"relatedNotes" form:"relatedNotes"`
}

// AnswerRequest 问答参数
type AnswerRequest struct {
	Question     string `json:"question" form:"question" binding:"required"`
	VaultContent string `json:"vaultContent" form:"vaultContent"`
}

// AnalysisDTO 笔记分析结果
// Fallback 为 true 表示模型回复无法解析，内容为默认占位
type AnalysisDTO struct {
	Summary        string   `json:"summary"`
	KeyThemes      []string `json:"keyThemes"`
	SuggestedLinks []string `json:"suggestedLinks"`
	KnowledgeGaps  []string `json:"knowledgeGaps"`
	Fallback       bool     `json:"fallback,omitempty"`
}

// LinkSuggestionDTO 单条链接建议
type LinkSuggestionDTO struct {
	Title     string  `json:"title"`
	Relevance float64 `json:"relevance"`
	Reason    string  `json:"reason"`
}

// LinksDTO 按相关度降序排列的链接建议
type LinksDTO struct {
	Links    []LinkSuggestionDTO `json:"links"`
	Fallback bool                `json:"fallback,omitempty"`
}

// FailureDTO 批量分析中单条失败
type FailureDTO struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// BatchItemDTO 批量分析中单条结果，Analysis 与 Error 二选一
type BatchItemDTO struct {
	Index    int          `json:"index"`
	Analysis *AnalysisDTO `json:"analysis,omitempty"`
	Error    *FailureDTO  `json:"error,omitempty"`
}

// GeneratedNoteDTO 生成的 Markdown 笔记
type GeneratedNoteDTO struct {
	Content string `json:"content"`
}

// AnswerDTO 问答结果
type AnswerDTO struct {
	Answer string `json:"answer"`
}
