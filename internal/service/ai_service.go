package service

import (
	"context"
	"strings"
	"sync"

	"github.com/haierkeys/miknow-notebook-service/internal/domain"
	"github.com/haierkeys/miknow-notebook-service/pkg/logger"
	"github.com/haierkeys/miknow-notebook-service/pkg/workerpool"
	"go.uber.org/zap"
)

const (
	analysisSystemPrompt = "You are an AI assistant specialized in analyzing notes. Always respond with valid JSON."
	linksSystemPrompt    = "You are an AI assistant specialized in suggesting links between notes. Always respond with valid JSON."
	generateSystemPrompt = "You are a helpful AI assistant specialized in generating notes. Use Markdown formatting and LaTeX for mathematical expressions where appropriate."
	answerSystemPrompt   = "You are a helpful AI assistant specialized in answering questions based on a knowledge base. Use Markdown formatting and LaTeX for mathematical expressions where appropriate."

	markdownHints = `You can use Markdown formatting in your %s, including:
- **Bold** and *italic* text
- Lists and tables
- Code blocks with syntax highlighting
- LaTeX for mathematical formulas (using $$ for display math and $ for inline math)`
)

// AIService 定义 AI 功能业务服务接口
type AIService interface {
	// Analyze 分析单条笔记
	Analyze(ctx context.Context, uid int64, content string) Result[domain.AnalysisResult]

	// AnalyzeBatch 并发分析多条笔记，结果与输入顺序一致
	AnalyzeBatch(ctx context.Context, uid int64, notes []string) []Result[domain.AnalysisResult]

	// SuggestLinks 为笔记推荐与已有笔记的链接
	SuggestLinks(ctx context.Context, uid int64, content string, existing []string) Result[[]domain.LinkSuggestion]

	// GenerateNote 根据提示词与相关笔记生成 Markdown 笔记
	GenerateNote(ctx context.Context, uid int64, prompt string, related []string) Result[string]

	// AnswerQuestion 基于知识库内容回答问题
	AnswerQuestion(ctx context.Context, uid int64, question, vaultContent string) Result[string]
}

type aiService struct {
	completion CompletionService
	pool       *workerpool.Pool
	logger     *zap.Logger
}

// NewAIService 创建 AIService 实例，pool 为 nil 时批量分析逐条执行
func NewAIService(completion CompletionService, pool *workerpool.Pool, lg *zap.Logger) AIService {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &aiService{completion: completion, pool: pool, logger: lg}
}

func analysisPrompt(content string) string {
	return `
    Analyze the following note content and provide insights.
    Return your response in the following JSON format:
    {
      "summary": "A concise summary of the note",
      "keyThemes": ["theme1", "theme2", "theme3"],
      "suggestedLinks": ["link1", "link2", "link3"],
      "knowledgeGaps": ["gap1", "gap2", "gap3"]
    }

    Note content:
    ` + content + `
  `
}

func linksPrompt(content string, existing []string) string {
	return `
    Given the following note content and existing notes, suggest potential links.
    Return your response as a JSON array of objects with the following structure:
    [
      {
        "title": "Note Title",
        "relevance": 0.85,
        "reason": "Reason for the link"
      }
    ]

    Note content:
    ` + content + `

    Existing notes:
    ` + strings.Join(existing, "\n") + `
  `
}

func generatePrompt(prompt string, related []string) string {
	return "Write a note about: " + prompt + "\n\n" +
		strings.Replace(markdownHints, "%s", "note", 1) +
		"\n\nContext from related notes:\n" + strings.Join(related, "\n")
}

func answerPrompt(question, vaultContent string) string {
	return "Answer the following question based on the provided vault content.\n  \n" +
		strings.Replace(markdownHints, "%s", "answer", 1) +
		"\n\nQuestion: " + question +
		"\n\nVault Content:\n" + vaultContent
}

func (s *aiService) Analyze(ctx context.Context, uid int64, content string) Result[domain.AnalysisResult] {
	reply, err := s.completion.Complete(ctx, uid, analysisPrompt(content), analysisSystemPrompt)
	if err != nil {
		return Fail[domain.AnalysisResult](err)
	}
	res, err := parseAnalysis(reply)
	if err != nil {
		s.logger.Warn("failed to parse analysis reply", zap.Int64(logger.FieldUID, uid), zap.Error(err))
		return malformed[domain.AnalysisResult]("analysis reply is not valid JSON", err)
	}
	return Ok(res)
}

func (s *aiService) AnalyzeBatch(ctx context.Context, uid int64, notes []string) []Result[domain.AnalysisResult] {
	out := make([]Result[domain.AnalysisResult], len(notes))
	if s.pool == nil {
		for i, n := range notes {
			out[i] = s.Analyze(ctx, uid, n)
		}
		return out
	}

	var wg sync.WaitGroup
	for i, n := range notes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// 提交方因 ctx 取消先返回时，任务仍可能完成，结果经缓冲通道传回
			ch := make(chan Result[domain.AnalysisResult], 1)
			err := s.pool.Submit(ctx, func(ctx context.Context) error {
				ch <- s.Analyze(ctx, uid, n)
				return nil
			})
			if err != nil {
				out[i] = Fail[domain.AnalysisResult](err)
				return
			}
			out[i] = <-ch
		}()
	}
	wg.Wait()
	return out
}

func (s *aiService) SuggestLinks(ctx context.Context, uid int64, content string, existing []string) Result[[]domain.LinkSuggestion] {
	reply, err := s.completion.Complete(ctx, uid, linksPrompt(content, existing), linksSystemPrompt)
	if err != nil {
		return Fail[[]domain.LinkSuggestion](err)
	}
	links, err := parseLinks(reply)
	if err != nil {
		s.logger.Warn("failed to parse link suggestions", zap.Int64(logger.FieldUID, uid), zap.Error(err))
		return malformed[[]domain.LinkSuggestion]("link suggestion reply is not valid JSON", err)
	}
	return Ok(links)
}

func (s *aiService) GenerateNote(ctx context.Context, uid int64, prompt string, related []string) Result[string] {
	reply, err := s.completion.Complete(ctx, uid, generatePrompt(prompt, related), generateSystemPrompt)
	if err != nil {
		return Fail[string](err)
	}
	return Ok(reply)
}

func (s *aiService) AnswerQuestion(ctx context.Context, uid int64, question, vaultContent string) Result[string] {
	reply, err := s.completion.Complete(ctx, uid, answerPrompt(question, vaultContent), answerSystemPrompt)
	if err != nil {
		return Fail[string](err)
	}
	return Ok(reply)
}
