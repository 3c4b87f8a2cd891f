package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/haierkeys/miknow-notebook-service/internal/domain"
	"github.com/haierkeys/miknow-notebook-service/pkg/mistral"
	"github.com/haierkeys/miknow-notebook-service/pkg/workerpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAnalyze(t *testing.T) {
	fc := replyWith(`{"summary":"S","keyThemes":["t"],"suggestedLinks":["l"],"knowledgeGaps":["g"]}`)
	svc := NewAIService(fc, nil, nil)

	res := svc.Analyze(context.Background(), 1, "my note body")
	require.True(t, res.OK())
	assert.Equal(t, "S", res.Value.Summary)

	require.Len(t, fc.prompts, 1)
	assert.Contains(t, fc.prompts[0], "Note content:\n    my note body")
	assert.Equal(t, analysisSystemPrompt, fc.systems[0])
}

func TestAnalyze_MalformedFallsBack(t *testing.T) {
	svc := NewAIService(replyWith("not json at all"), nil, nil)
	res := svc.Analyze(context.Background(), 1, "x")
	require.False(t, res.OK())
	assert.Equal(t, FailureMalformed, res.Failure.Kind)
	assert.Equal(t, AnalysisFallback(), res.OrFallback(AnalysisFallback()))
}

func TestAnalyze_APIErrorSurfaces(t *testing.T) {
	fc := &fakeCompletion{reply: func(string, string) (string, error) {
		return "", &mistral.Error{Kind: mistral.KindAuth, Message: mistral.MsgInvalidKey}
	}}
	svc := NewAIService(fc, nil, nil)
	res := svc.Analyze(context.Background(), 1, "x")
	require.False(t, res.OK())
	assert.Equal(t, FailureAuth, res.Failure.Kind)
	assert.Equal(t, domain.AnalysisResult{}, res.OrFallback(AnalysisFallback()))
}

func TestSuggestLinks(t *testing.T) {
	fc := replyWith(`[{"title":"A","relevance":0.9,"reason":"x"}]`)
	svc := NewAIService(fc, nil, nil)
	res := svc.SuggestLinks(context.Background(), 1, "content", []string{"N1", "N2"})
	require.True(t, res.OK())
	assert.Equal(t, []domain.LinkSuggestion{{Title: "A", Relevance: 0.9, Reason: "x"}}, res.Value)
	assert.Contains(t, fc.prompts[0], "Existing notes:\n    N1\nN2")
	assert.Equal(t, linksSystemPrompt, fc.systems[0])
}

func TestSuggestLinks_MalformedFallsBack(t *testing.T) {
	svc := NewAIService(replyWith("nothing useful"), nil, nil)
	existing := []string{"N1", "N2"}
	res := svc.SuggestLinks(context.Background(), 1, "content", existing)
	links := res.OrFallback(LinkFallback(existing))
	require.Len(t, links, 2)
	assert.Equal(t, 0.5, links[1].Relevance)
}

func TestGenerateNote(t *testing.T) {
	fc := replyWith("# Title")
	svc := NewAIService(fc, nil, nil)
	res := svc.GenerateNote(context.Background(), 1, "photosynthesis", []string{"plants", "light"})
	require.True(t, res.OK())
	assert.Equal(t, "# Title", res.Value)

	want := "Write a note about: photosynthesis\n\nYou can use Markdown formatting in your note, including:\n" +
		"- **Bold** and *italic* text\n- Lists and tables\n- Code blocks with syntax highlighting\n" +
		"- LaTeX for mathematical formulas (using $$ for display math and $ for inline math)\n\n" +
		"Context from related notes:\nplants\nlight"
	assert.Equal(t, want, fc.prompts[0])
	assert.Equal(t, generateSystemPrompt, fc.systems[0])
}

func TestAnswerQuestion(t *testing.T) {
	fc := replyWith("42")
	svc := NewAIService(fc, nil, nil)
	res := svc.AnswerQuestion(context.Background(), 1, "meaning?", "vault text")
	require.True(t, res.OK())
	assert.Equal(t, "42", res.Value)
	assert.True(t, strings.HasPrefix(fc.prompts[0], "Answer the following question based on the provided vault content."))
	assert.True(t, strings.HasSuffix(fc.prompts[0], "Question: meaning?\n\nVault Content:\nvault text"))
	assert.Contains(t, fc.prompts[0], "in your answer, including:")
	assert.Equal(t, answerSystemPrompt, fc.systems[0])
}

func TestGenerateNote_NoFallback(t *testing.T) {
	fc := &fakeCompletion{reply: func(string, string) (string, error) {
		return "", errors.New("boom")
	}}
	res := NewAIService(fc, nil, nil).GenerateNote(context.Background(), 1, "p", nil)
	require.False(t, res.OK())
	assert.Equal(t, "", res.OrFallback("fb"))
}

func TestAnalyzeBatch_KeepsOrder(t *testing.T) {
	fc := &fakeCompletion{reply: func(prompt, _ string) (string, error) {
		if strings.Contains(prompt, "note-bad") {
			return "garbage", nil
		}
		i := strings.Index(prompt, "note-")
		return fmt.Sprintf(`{"summary":%q,"keyThemes":[],"suggestedLinks":[],"knowledgeGaps":[]}`, prompt[i:i+6]), nil
	}}
	pool := workerpool.New(&workerpool.Config{MaxWorkers: 3, QueueSize: 16}, zap.NewNop())
	defer pool.Shutdown(context.Background())

	svc := NewAIService(fc, pool, nil)
	notes := []string{"note-0", "note-1", "note-bad", "note-3"}
	out := svc.AnalyzeBatch(context.Background(), 1, notes)

	require.Len(t, out, 4)
	assert.Equal(t, "note-0", out[0].Value.Summary)
	assert.Equal(t, "note-1", out[1].Value.Summary)
	assert.Equal(t, FailureMalformed, out[2].Failure.Kind)
	assert.Equal(t, "note-3", out[3].Value.Summary)
}
