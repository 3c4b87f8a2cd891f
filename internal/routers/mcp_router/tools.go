package mcp_router

import (
	"context"

	"github.com/haierkeys/miknow-notebook-service/internal/service"
	"github.com/haierkeys/miknow-notebook-service/pkg/code"

	"github.com/bytedance/sonic"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler 已解析工作区后的工具实现
type toolHandler func(ctx context.Context, uid int64, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("analyze_note",
		mcp.WithDescription("Analyze a note and return its summary, key themes, suggested links and knowledge gaps"),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content of the note")),
	), s.withWorkspace("analyze_note", s.analyzeNote))

	s.mcp.AddTool(mcp.NewTool("suggest_links",
		mcp.WithDescription("Suggest links between a note and existing notes, ordered by relevance"),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content of the note")),
		mcp.WithArray("existing_notes", mcp.Description("Titles of existing notes"), mcp.Items(map[string]any{"type": "string"})),
	), s.withWorkspace("suggest_links", s.suggestLinks))

	s.mcp.AddTool(mcp.NewTool("generate_note",
		mcp.WithDescription("Generate a Markdown note from a prompt"),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("What the note should cover")),
		mcp.WithArray("related_notes", mcp.Description("Related note contents used as context"), mcp.Items(map[string]any{"type": "string"})),
	), s.withWorkspace("generate_note", s.generateNote))

	s.mcp.AddTool(mcp.NewTool("answer_question",
		mcp.WithDescription("Answer a question using the given knowledge base content"),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question")),
		mcp.WithString("vault_content", mcp.Description("Knowledge base content to answer from")),
	), s.withWorkspace("answer_question", s.answerQuestion))

	s.mcp.AddTool(mcp.NewTool("synthesize_graph",
		mcp.WithDescription("Build a knowledge graph (nodes and edges) from a list of notes"),
		mcp.WithArray("notes", mcp.Required(), mcp.Description("Note contents"), mcp.Items(map[string]any{"type": "string"})),
	), s.withWorkspace("synthesize_graph", s.synthesizeGraph))
}

// withWorkspace 令牌无效时直接返回工具错误
func (s *Server) withWorkspace(name string, fn toolHandler) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ws := workspaceFrom(ctx)
		if ws.err != nil {
			return mcp.NewToolResultError(code.ErrorInvalidUserAuthToken.Msg()), nil
		}
		res, err := fn(ctx, ws.uid, req)
		if err != nil {
			s.logToolError(name, ws.uid, err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return res, nil
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	body, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(body)), nil
}

// 工具不使用回退结果，任何失败都作为工具错误返回
func (s *Server) analyzeNote(ctx context.Context, uid int64, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return nil, err
	}
	res := s.app.AIService.Analyze(ctx, uid, content)
	if !res.OK() {
		return nil, res.Err()
	}
	return jsonResult(res.Value)
}

func (s *Server) suggestLinks(ctx context.Context, uid int64, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return nil, err
	}
	res := s.app.AIService.SuggestLinks(ctx, uid, content, stringSlice(req, "existing_notes"))
	if !res.OK() {
		return nil, res.Err()
	}
	return jsonResult(service.SortByRelevance(res.Value))
}

func (s *Server) generateNote(ctx context.Context, uid int64, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := req.RequireString("prompt")
	if err != nil {
		return nil, err
	}
	res := s.app.AIService.GenerateNote(ctx, uid, prompt, stringSlice(req, "related_notes"))
	if !res.OK() {
		return nil, res.Err()
	}
	return mcp.NewToolResultText(res.Value), nil
}

func (s *Server) answerQuestion(ctx context.Context, uid int64, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return nil, err
	}
	res := s.app.AIService.AnswerQuestion(ctx, uid, question, req.GetString("vault_content", ""))
	if !res.OK() {
		return nil, res.Err()
	}
	return mcp.NewToolResultText(res.Value), nil
}

// synthesizeGraph 只生成图谱，不写入工作区
func (s *Server) synthesizeGraph(_ context.Context, _ int64, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes := stringSlice(req, "notes")
	if len(notes) == 0 {
		return nil, code.ErrorNoNotes
	}
	return jsonResult(service.NewSynthesizer(nil).Synthesize(notes))
}
