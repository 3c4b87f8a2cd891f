package routers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/haierkeys/miknow-notebook-service/internal/app"
	"github.com/haierkeys/miknow-notebook-service/internal/dao"
	"github.com/haierkeys/miknow-notebook-service/internal/domain"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const goodKey = "sk-good-key-1234"

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeMistral 只接受 goodKey，对话接口返回预设回复
type fakeMistral struct {
	mu    sync.Mutex
	reply string
}

func (f *fakeMistral) setReply(s string) {
	f.mu.Lock()
	f.reply = s
	f.mu.Unlock()
}

func (f *fakeMistral) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+goodKey {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Unauthorized"}}`))
		return
	}
	if r.URL.Path == "/v1/models" {
		_, _ = w.Write([]byte(`{"data":[]}`))
		return
	}
	f.mu.Lock()
	reply := f.reply
	f.mu.Unlock()
	body, _ := sonic.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": reply}}},
	})
	_, _ = w.Write(body)
}

type testEnv struct {
	r        *gin.Engine
	app      *app.App
	provider *fakeMistral
}

func newTestEnv(t *testing.T, extraYAML string) *testEnv {
	t.Helper()
	provider := &fakeMistral{}
	srv := httptest.NewServer(provider)
	t.Cleanup(srv.Close)

	cfg, err := app.ParseConfig([]byte("mistral:\n  base-url: " + srv.URL + "\n" + extraYAML))
	require.NoError(t, err)

	a, err := app.NewApp(cfg, zap.NewNop(), nil, app.WithStore(dao.NewMemoryStore()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	uni := ut.New(en.New(), en.New())
	return &testEnv{r: NewRouter(a, uni), app: a, provider: provider}
}

func (e *testEnv) withKey(t *testing.T, uid int64) {
	t.Helper()
	require.NoError(t, e.app.Store.Set(context.Background(), uid, domain.KeyAPIKey, goodKey))
}

func (e *testEnv) do(method, path, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func codeOf(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	return int(decode(t, w)["code"].(float64))
}

func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	data, ok := decode(t, w)["data"].(map[string]any)
	require.True(t, ok, w.Body.String())
	return data
}

func TestHealthAndVersion(t *testing.T) {
	e := newTestEnv(t, "")

	w := e.do(http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", dataOf(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))

	w = e.do(http.MethodGet, "/api/version", "")
	data := dataOf(t, w)
	assert.Equal(t, app.Name, data["name"])
	assert.Equal(t, app.Version, data["version"])
}

func TestNoRoute(t *testing.T) {
	e := newTestEnv(t, "")
	assert.Equal(t, 502, codeOf(t, e.do(http.MethodGet, "/api/nothing-here", "")))
}

func TestSettings(t *testing.T) {
	e := newTestEnv(t, "")

	w := e.do(http.MethodGet, "/api/settings/models", "")
	models := decode(t, w)["data"].([]any)
	assert.Len(t, models, 4)

	w = e.do(http.MethodPost, "/api/settings/credential", `{"apiKey":"sk-bad-key-0000","model":"open-mistral-nemo"}`)
	assert.Equal(t, 603, codeOf(t, w))
	_, ok, _ := e.app.Store.Get(context.Background(), 0, domain.KeyAPIKey)
	assert.False(t, ok)

	w = e.do(http.MethodPost, "/api/settings/credential", `{"apiKey":"sk-good-key-1234","model":"gpt-4"}`)
	assert.Equal(t, 501, codeOf(t, w))

	w = e.do(http.MethodPost, "/api/settings/credential", `{"apiKey":"sk-good-key-1234","model":"open-mistral-nemo"}`)
	data := dataOf(t, w)
	assert.Equal(t, "sk-...1234", data["apiKey"])
	assert.Equal(t, "open-mistral-nemo", data["model"])
	assert.Equal(t, true, data["valid"])

	w = e.do(http.MethodGet, "/api/settings/credential/status", "")
	data = dataOf(t, w)
	assert.Equal(t, true, data["hasKey"])
	assert.Equal(t, true, data["valid"])

	w = e.do(http.MethodPost, "/api/settings/credential/validate", `{"apiKey":"nope"}`)
	assert.Equal(t, false, dataOf(t, w)["valid"])
}

func TestAnalyze(t *testing.T) {
	e := newTestEnv(t, "")

	// 未设置密钥
	w := e.do(http.MethodPost, "/api/ai/analyze", `{"content":"# Note"}`)
	assert.Equal(t, 601, codeOf(t, w))

	e.withKey(t, 0)
	e.provider.setReply("Here you go:\n```json\n{\"summary\":\"S\",\"keyThemes\":[\"a\"],\"suggestedLinks\":[],\"knowledgeGaps\":[\"g\"]}\n```")
	w = e.do(http.MethodPost, "/api/ai/analyze", `{"content":"# Note"}`)
	data := dataOf(t, w)
	assert.Equal(t, "S", data["summary"])
	assert.Nil(t, data["fallback"])

	e.provider.setReply("I cannot do that")
	w = e.do(http.MethodPost, "/api/ai/analyze", `{"content":"# Note"}`)
	data = dataOf(t, w)
	assert.Equal(t, true, data["fallback"])
	assert.Equal(t, "Failed to generate summary. Please try again with more detailed content.", data["summary"])

	w = e.do(http.MethodPost, "/api/ai/analyze", `{}`)
	assert.Equal(t, 501, codeOf(t, w))
}

func TestLinksSortedAndFallback(t *testing.T) {
	e := newTestEnv(t, "")
	e.withKey(t, 0)

	e.provider.setReply(`[{"title":"A","relevance":0.2,"reason":"r"},{"title":"B","relevance":0.9,"reason":"r"}]`)
	w := e.do(http.MethodPost, "/api/ai/links", `{"content":"x","existingNotes":["A","B"]}`)
	links := dataOf(t, w)["links"].([]any)
	require.Len(t, links, 2)
	assert.Equal(t, "B", links[0].(map[string]any)["title"])

	e.provider.setReply("no json here")
	w = e.do(http.MethodPost, "/api/ai/links", `{"content":"x","existingNotes":["A","B"]}`)
	data := dataOf(t, w)
	assert.Equal(t, true, data["fallback"])
	links = data["links"].([]any)
	require.Len(t, links, 2)
	assert.Equal(t, 0.5, links[0].(map[string]any)["relevance"])
}

func TestGenerateAndAnswer(t *testing.T) {
	e := newTestEnv(t, "")
	e.withKey(t, 0)
	e.provider.setReply("# Title\n\n$$x^2$$")

	w := e.do(http.MethodPost, "/api/ai/generate", `{"prompt":"squares","relatedNotes":["n1"]}`)
	assert.Equal(t, "# Title\n\n$$x^2$$", dataOf(t, w)["content"])

	w = e.do(http.MethodPost, "/api/ai/answer", `{"question":"q","vaultContent":"v"}`)
	assert.Equal(t, "# Title\n\n$$x^2$$", dataOf(t, w)["answer"])
}

func TestAnalyzeBatchLimit(t *testing.T) {
	e := newTestEnv(t, "app:\n  batch-max-notes: 2\n")
	e.withKey(t, 0)
	e.provider.setReply(`{"summary":"S","keyThemes":[],"suggestedLinks":[],"knowledgeGaps":[]}`)

	w := e.do(http.MethodPost, "/api/ai/analyze/batch", `{"notes":["a","b","c"]}`)
	assert.Equal(t, 501, codeOf(t, w))

	w = e.do(http.MethodPost, "/api/ai/analyze/batch", `{"notes":["a","b"]}`)
	items := decode(t, w)["data"].([]any)
	require.Len(t, items, 2)
	for i, it := range items {
		m := it.(map[string]any)
		assert.Equal(t, float64(i), m["index"])
		assert.Equal(t, "S", m["analysis"].(map[string]any)["summary"])
	}
}

func TestGraphFlow(t *testing.T) {
	e := newTestEnv(t, "")

	w := e.do(http.MethodPost, "/api/graph/generate", "")
	assert.Equal(t, 702, codeOf(t, w))

	w = e.do(http.MethodPost, "/api/graph/notes", `{"note":"  # Alpha\nbody  "}`)
	assert.Equal(t, []any{"# Alpha\nbody"}, dataOf(t, w)["notes"])

	w = e.do(http.MethodPut, "/api/graph/notes", `{"notes":["# Alpha","# Beta"]}`)
	assert.Len(t, dataOf(t, w)["notes"], 2)

	w = e.do(http.MethodPost, "/api/graph/generate", "")
	nodes := dataOf(t, w)["nodes"].([]any)
	assert.NotEmpty(t, nodes)

	w = e.do(http.MethodGet, "/api/graph?search=alpha", "")
	found := false
	for _, n := range dataOf(t, w)["nodes"].([]any) {
		if n.(map[string]any)["color"] == "#ff5722" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestGraphImport(t *testing.T) {
	e := newTestEnv(t, "")

	w := e.do(http.MethodPost, "/api/graph/import", `{"filename":"notes.txt","content":"first\n\n  second  \n"}`)
	data := dataOf(t, w)
	assert.Equal(t, "notes", data["kind"])
	assert.Equal(t, []any{"first", "second"}, data["notes"])

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "graph.json")
	require.NoError(t, err)
	_, _ = fw.Write([]byte(`{"nodes":[{"id":"note-0","label":"A","value":1}],"edges":[]}`))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/graph/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.r.ServeHTTP(rec, req)
	data = dataOf(t, rec)
	assert.Equal(t, "graph", data["kind"])

	w = e.do(http.MethodPost, "/api/graph/import", `{"filename":"empty.md","content":"\n \n"}`)
	assert.Equal(t, 703, codeOf(t, w))
}

func TestThemes(t *testing.T) {
	e := newTestEnv(t, "")

	w := e.do(http.MethodPost, "/api/themes", `{"name":"Sea Breeze","colors":{"--primary":"200 50% 50%","--background":"0 0% 100%"}}`)
	assert.Equal(t, "Sea Breeze", dataOf(t, w)["name"])

	w = e.do(http.MethodPost, "/api/themes", `{"colors":{}}`)
	assert.Equal(t, 801, codeOf(t, w))

	w = e.do(http.MethodGet, "/api/themes/catalog", "")
	catalog := decode(t, w)["data"].([]any)
	require.Len(t, catalog, 6)
	last := catalog[5].(map[string]any)
	assert.Equal(t, "sea-breeze", last["id"])
	assert.Equal(t, "Custom theme", last["description"])
	assert.Equal(t, true, last["isCustom"])

	w = e.do(http.MethodGet, "/api/themes/sea-breeze/export", "")
	assert.Equal(t, `attachment; filename="sea-breeze.json"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Body.String(), "\n  \"name\": \"Sea Breeze\"")

	w = e.do(http.MethodPost, "/api/themes/css", `{"name":"x","colors":{"--b":"1","--a":"2"}}`)
	assert.Equal(t, ":root {\n  --b: 1;\n  --a: 2;\n}\n\n.dark {\n  --b: 1;\n  --a: 2;\n}", dataOf(t, w)["css"])

	w = e.do(http.MethodPut, "/api/themes/active", `{"id":"sea-breeze"}`)
	assert.Equal(t, "sea-breeze", dataOf(t, w)["id"])
	w = e.do(http.MethodGet, "/api/themes/active", "")
	assert.Equal(t, "sea-breeze", dataOf(t, w)["id"])

	assert.Equal(t, 804, codeOf(t, e.do(http.MethodDelete, "/api/themes/dark", "")))
	assert.Equal(t, 4, codeOf(t, e.do(http.MethodDelete, "/api/themes/sea-breeze", "")))

	w = e.do(http.MethodGet, "/api/themes/active", "")
	assert.Equal(t, "light", dataOf(t, w)["id"])

	w = e.do(http.MethodPost, "/api/themes/import", `{"colors":{}}`)
	assert.Equal(t, 803, codeOf(t, w))
	w = e.do(http.MethodPost, "/api/themes/import", `not json`)
	assert.Equal(t, 802, codeOf(t, w))
	w = e.do(http.MethodPost, "/api/themes/import", `{"name":"Imported One"}`)
	data := dataOf(t, w)
	assert.Equal(t, "imported-one", data["id"])
	assert.Equal(t, "Imported theme", data["description"])
}

func TestPlugins(t *testing.T) {
	e := newTestEnv(t, "")

	w := e.do(http.MethodGet, "/api/plugins/default", "")
	def := dataOf(t, w)
	assert.Equal(t, "New Plugin", def["name"])
	assert.Equal(t, "utility", def["type"])

	assert.Equal(t, 902, codeOf(t, e.do(http.MethodGet, "/api/plugin-templates/widget", "")))
	w = e.do(http.MethodGet, "/api/plugin-templates/visualization", "")
	assert.Contains(t, dataOf(t, w)["code"], "activate")

	w = e.do(http.MethodPost, "/api/plugins/test", `{"code":"function activate() {}"}`)
	assert.Equal(t, 904, codeOf(t, w))
	w = e.do(http.MethodPost, "/api/plugins/test", `{"code":"function activate() {} function deactivate() {}"}`)
	assert.Equal(t, "Plugin test completed successfully! The plugin appears to be valid.", dataOf(t, w)["message"])

	body := `{"name":"Word Count","version":"1.0.0","type":"analysis","code":"function activate() {} function deactivate() {}"}`
	w = e.do(http.MethodPost, "/api/plugins", body)
	assert.Equal(t, "Word Count", dataOf(t, w)["name"])
	assert.Equal(t, 903, codeOf(t, e.do(http.MethodPost, "/api/plugins", strings.Replace(body, "1.0.0", "1.0", 1))))

	w = e.do(http.MethodGet, "/api/plugins/Word%20Count/export", "")
	assert.Equal(t, `attachment; filename="word-count.json"`, w.Header().Get("Content-Disposition"))

	w = e.do(http.MethodPut, "/api/plugins/catalog/graph-enhancer", `{"installed":true}`)
	installed := 0
	for _, p := range decode(t, w)["data"].([]any) {
		if p.(map[string]any)["installed"] == true {
			installed++
		}
	}
	assert.Equal(t, 2, installed)
	assert.Equal(t, 906, codeOf(t, e.do(http.MethodPut, "/api/plugins/catalog/nope", `{"installed":true}`)))

	// 与固定路由同名的插件也能导出
	for _, name := range []string{"template", "templates"} {
		w = e.do(http.MethodPost, "/api/plugins", strings.Replace(body, "Word Count", name, 1))
		require.Equal(t, name, dataOf(t, w)["name"])
		w = e.do(http.MethodGet, "/api/plugins/"+name+"/export", "")
		assert.Equal(t, `attachment; filename="`+name+`.json"`, w.Header().Get("Content-Disposition"))
	}

	assert.Equal(t, 4, codeOf(t, e.do(http.MethodDelete, "/api/plugins/Word%20Count", "")))
	assert.Equal(t, 906, codeOf(t, e.do(http.MethodDelete, "/api/plugins/Word%20Count", "")))
}

func TestExportDisabled(t *testing.T) {
	e := newTestEnv(t, "")
	assert.Equal(t, 510, codeOf(t, e.do(http.MethodPost, "/api/export/graph", "")))
}

func TestExportLocal(t *testing.T) {
	dir := t.TempDir()
	e := newTestEnv(t, "export:\n  is-enable: true\n  storage:\n    type: localfs\n    save-path: "+dir+"\n")

	_, err := e.app.GraphService.SetNotes(context.Background(), 0, []string{"# A"})
	require.NoError(t, err)
	_, err = e.app.GraphService.Generate(context.Background(), 0)
	require.NoError(t, err)

	w := e.do(http.MethodPost, "/api/export/graph", `{"name":"Weekly"}`)
	data := dataOf(t, w)
	assert.Equal(t, "graph", data["kind"])
	assert.Equal(t, "u_0/graph/weekly.json", data["key"])
}

func TestWorkspaceAuth(t *testing.T) {
	e := newTestEnv(t, "security:\n  auth-token-key: secret\n")

	assert.Equal(t, 504, codeOf(t, e.do(http.MethodGet, "/api/graph/notes", "")))
	assert.Equal(t, 505, codeOf(t, e.do(http.MethodGet, "/api/graph/notes", "", "Authorization", "Bearer junk")))

	// 健康检查不需要令牌
	assert.Equal(t, "healthy", dataOf(t, e.do(http.MethodGet, "/api/health", ""))["status"])

	token, err := e.app.TokenManager.Generate(7)
	require.NoError(t, err)
	w := e.do(http.MethodPost, "/api/graph/notes", `{"note":"hello"}`, "Authorization", "Bearer "+token)
	assert.Equal(t, []any{"hello"}, dataOf(t, w)["notes"])

	notes, err := e.app.GraphService.Notes(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, notes)
	notes, err = e.app.GraphService.Notes(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestAIRateLimit(t *testing.T) {
	e := newTestEnv(t, "rate-limit:\n  ai-capacity: 1\n  ai-fill-interval: 1h\n")

	w := e.do(http.MethodPost, "/api/ai/analyze", `{"content":"x"}`)
	assert.Equal(t, 601, codeOf(t, w))
	w = e.do(http.MethodPost, "/api/ai/analyze", `{"content":"x"}`)
	assert.Equal(t, 503, codeOf(t, w))

	// 其他路由不受影响
	assert.Equal(t, 1, codeOf(t, e.do(http.MethodGet, "/api/graph/notes", "")))
}

func TestPrivateRouter(t *testing.T) {
	r := NewPrivateRouter(gin.ReleaseMode, zap.NewNop())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/vars", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "memstats")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
