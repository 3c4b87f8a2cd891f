package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/haierkeys/miknow-notebook-service/internal/dao"
	"github.com/haierkeys/miknow-notebook-service/internal/domain"
	"github.com/haierkeys/miknow-notebook-service/pkg/mistral"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type providerStub struct {
	hits   atomic.Int32
	status int
	body   string
	last   map[string]any
}

func newProvider(t *testing.T, status int, body string) (*providerStub, *mistral.Client) {
	t.Helper()
	p := &providerStub{status: status, body: body}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.hits.Add(1)
		raw, _ := io.ReadAll(r.Body)
		_ = sonic.Unmarshal(raw, &p.last)
		w.WriteHeader(p.status)
		_, _ = w.Write([]byte(p.body))
	}))
	t.Cleanup(srv.Close)
	return p, mistral.New(mistral.Config{BaseURL: srv.URL})
}

func TestCompletion_MissingKey(t *testing.T) {
	p, client := newProvider(t, 200, `{}`)
	svc := NewCompletionService(dao.NewMemoryStore(), client, nil)

	_, err := svc.Complete(context.Background(), 1, "hi", "")
	var me *mistral.Error
	require.ErrorAs(t, err, &me)
	assert.Equal(t, mistral.KindMissingKey, me.Kind)
	assert.Equal(t, "API key not found. Please set your Mistral API key in the settings.", me.Message)
	assert.Zero(t, p.hits.Load())
}

func TestCompletion_SuccessMarksKeyValid(t *testing.T) {
	p, client := newProvider(t, 200, `{"choices":[{"message":{"role":"assistant","content":"done"}}]}`)
	store := dao.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, domain.KeyAPIKey, "k"))

	svc := NewCompletionService(store, client, nil)
	out, err := svc.Complete(ctx, 1, "question", "")
	require.NoError(t, err)
	assert.Equal(t, "done", out)

	assert.Equal(t, domain.DefaultModel, p.last["model"])
	msgs := p.last["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, mistral.DefaultSystemPrompt, msgs[0].(map[string]any)["content"])
	assert.Equal(t, "question", msgs[1].(map[string]any)["content"])

	flag, ok, _ := store.Get(ctx, 1, domain.KeyAPIKeyValid)
	assert.True(t, ok)
	assert.Equal(t, "true", flag)
}

func TestCompletion_UnauthorizedMarksKeyInvalid(t *testing.T) {
	_, client := newProvider(t, 401, `{"message":"Unauthorized"}`)
	store := dao.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, domain.KeyAPIKey, "k"))
	require.NoError(t, store.Set(ctx, 1, domain.KeyAPIKeyValid, "true"))
	require.NoError(t, store.Set(ctx, 1, domain.KeyModel, "open-mistral-nemo"))

	svc := NewCompletionService(store, client, nil)
	_, err := svc.Complete(ctx, 1, "q", "sys")
	var me *mistral.Error
	require.ErrorAs(t, err, &me)
	assert.Equal(t, mistral.KindAuth, me.Kind)

	flag, _, _ := store.Get(ctx, 1, domain.KeyAPIKeyValid)
	assert.Equal(t, "false", flag)

	// 其他工作区不受影响
	_, ok, _ := store.Get(ctx, 2, domain.KeyAPIKeyValid)
	assert.False(t, ok)
}

func TestCompletion_ProviderErrorLeavesFlag(t *testing.T) {
	_, client := newProvider(t, 422, `{"error":{"message":"bad model"}}`)
	store := dao.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, domain.KeyAPIKey, "k"))

	svc := NewCompletionService(store, client, nil)
	_, err := svc.Complete(ctx, 1, "q", "")
	var me *mistral.Error
	require.ErrorAs(t, err, &me)
	assert.Equal(t, mistral.KindProvider, me.Kind)
	assert.Equal(t, "bad model", me.Message)

	_, ok, _ := store.Get(ctx, 1, domain.KeyAPIKeyValid)
	assert.False(t, ok)
}

func TestCompletion_AcceptedReplyMarksKeyValid(t *testing.T) {
	for _, body := range []string{`<html>gateway ok</html>`, `{"choices":[]}`} {
		_, client := newProvider(t, 200, body)
		store := dao.NewMemoryStore()
		ctx := context.Background()
		require.NoError(t, store.Set(ctx, 1, domain.KeyAPIKey, "k"))
		require.NoError(t, store.Set(ctx, 1, domain.KeyAPIKeyValid, "false"))

		svc := NewCompletionService(store, client, nil)
		_, err := svc.Complete(ctx, 1, "q", "")
		var me *mistral.Error
		require.ErrorAs(t, err, &me)
		assert.Equal(t, mistral.KindProvider, me.Kind)

		flag, _, _ := store.Get(ctx, 1, domain.KeyAPIKeyValid)
		assert.Equal(t, "true", flag, body)
	}
}

func TestCompletion_UnreadableBodyIsNotRecovered(t *testing.T) {
	_, client := newProvider(t, 200, `<html>gateway ok</html>`)
	store := dao.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, domain.KeyAPIKey, "k"))

	ai := NewAIService(NewCompletionService(store, client, nil), nil, nil)
	res := ai.Analyze(ctx, 1, "note")
	require.False(t, res.OK())
	assert.Equal(t, FailureProvider, res.Failure.Kind)
	assert.Equal(t, domain.AnalysisResult{}, res.OrFallback(AnalysisFallback()))

	links := ai.SuggestLinks(ctx, 1, "note", []string{"A"})
	assert.Equal(t, FailureProvider, links.Failure.Kind)
	assert.Nil(t, links.OrFallback(LinkFallback([]string{"A"})))
}
