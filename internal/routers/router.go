package routers

import (
	"strings"
	"time"

	"github.com/haierkeys/miknow-notebook-service/internal/app"
	"github.com/haierkeys/miknow-notebook-service/internal/domain"
	"github.com/haierkeys/miknow-notebook-service/internal/dto"
	"github.com/haierkeys/miknow-notebook-service/internal/middleware"
	"github.com/haierkeys/miknow-notebook-service/internal/routers/api_router"
	"github.com/haierkeys/miknow-notebook-service/internal/routers/mcp_router"
	pkgapp "github.com/haierkeys/miknow-notebook-service/pkg/app"
	"github.com/haierkeys/miknow-notebook-service/pkg/limiter"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/lxzan/gws"
)

// MessageStorageChange 变更推送的消息类型
const MessageStorageChange = "StorageChange"

// newChangeFeed 创建变更推送的 websocket 服务，并订阅存储变更
// 应用关闭时取消订阅
func newChangeFeed(appContainer *app.App) *pkgapp.WebsocketServer {
	tm := appContainer.TokenManager

	wss := pkgapp.NewWebsocketServer(pkgapp.WebsocketServerConfig{
		GWSOption: gws.ServerOption{
			CheckUtf8Enabled:   true,
			Recovery:           gws.Recovery,
			PermessageDeflate:  gws.PermessageDeflate{Enabled: true},
			ReadMaxPayloadSize: 1024 * 64,
		},
	}, func(token string) (int64, error) {
		if tm == nil || !tm.Enabled() {
			return 0, nil
		}
		if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
			token = token[7:]
		}
		claims, err := tm.Parse(strings.TrimSpace(token))
		if err != nil {
			return 0, err
		}
		return claims.UID, nil
	}, appContainer.Logger().Named("ws"))

	// 只推送键名，值（包括密钥）不经过推送通道
	cancel := appContainer.Store.Subscribe(func(ev domain.ChangeEvent) {
		wss.Publish(ev.UID, MessageStorageChange, dto.StorageChangeDTO{Key: ev.Key, Deleted: ev.Deleted, At: ev.At})
	})
	go func() {
		<-appContainer.ShutdownCh()
		cancel()
	}()

	return wss
}

func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator) *gin.Engine {

	// 获取配置
	cfg := appContainer.Config()

	methodLimiters := limiter.NewMethodLimiter()
	if rule, ok := cfg.GetAIRateLimitRule(); ok {
		methodLimiters.AddBuckets(rule)
	}

	wss := newChangeFeed(appContainer)
	mcpServer := mcp_router.NewServer(appContainer)

	r := gin.New()

	api := r.Group("/api")
	{
		api.Use(middleware.AppInfo(app.Name, appContainer.Version().Version))
		api.Use(middleware.TraceMiddleware(middleware.TraceConfig{Enabled: cfg.Tracer.Enabled, Header: cfg.Tracer.Header}))
		api.Use(middleware.RateLimiter(methodLimiters))
		api.Use(middleware.ContextTimeout(time.Duration(cfg.App.DefaultContextTimeout) * time.Second))
		api.Use(middleware.Cors())
		api.Use(middleware.LangWithTranslator(uni))
		api.Use(middleware.AccessLog(appContainer.Logger()))
		api.Use(middleware.RecoveryWithLogger(appContainer.Logger()))

		healthHandler := api_router.NewHealthHandler(appContainer)
		settingHandler := api_router.NewSettingHandler(appContainer)
		aiHandler := api_router.NewAIHandler(appContainer)
		graphHandler := api_router.NewGraphHandler(appContainer)
		themeHandler := api_router.NewThemeHandler(appContainer)
		pluginHandler := api_router.NewPluginHandler(appContainer)
		exportHandler := api_router.NewExportHandler(appContainer)

		// 无需认证
		api.GET("/health", healthHandler.Check)
		api.GET("/version", healthHandler.Version)
		// websocket 通过首条 Authorization 消息认证
		api.GET("/events", wss.Run())

		auth := api.Group("", middleware.WorkspaceAuth(appContainer.TokenManager))

		auth.GET("/settings/models", settingHandler.Models)
		auth.GET("/settings/credential", settingHandler.Credential)
		auth.GET("/settings/credential/status", settingHandler.Status)
		auth.POST("/settings/credential/validate", settingHandler.Validate)
		auth.POST("/settings/credential", settingHandler.Save)

		auth.POST("/ai/analyze", aiHandler.Analyze)
		auth.POST("/ai/analyze/batch", aiHandler.AnalyzeBatch)
		auth.POST("/ai/links", aiHandler.Links)
		auth.POST("/ai/generate", aiHandler.Generate)
		auth.POST("/ai/answer", aiHandler.Answer)

		auth.GET("/graph/notes", graphHandler.Notes)
		auth.POST("/graph/notes", graphHandler.AddNote)
		auth.PUT("/graph/notes", graphHandler.SetNotes)
		auth.GET("/graph", graphHandler.Graph)
		auth.POST("/graph/generate", graphHandler.Generate)
		auth.POST("/graph/import", graphHandler.Import)

		auth.GET("/themes", themeHandler.List)
		auth.POST("/themes", themeHandler.Save)
		auth.GET("/themes/catalog", themeHandler.Catalog)
		auth.GET("/themes/default", themeHandler.Default)
		auth.POST("/themes/import", themeHandler.Import)
		auth.POST("/themes/css", themeHandler.CSS)
		auth.GET("/themes/active", themeHandler.Active)
		auth.PUT("/themes/active", themeHandler.SetActive)
		auth.DELETE("/themes/:id", themeHandler.Delete)
		auth.GET("/themes/:id/export", themeHandler.Export)

		auth.GET("/plugins", pluginHandler.List)
		auth.POST("/plugins", pluginHandler.Save)
		auth.GET("/plugins/default", pluginHandler.Default)
		auth.GET("/plugin-templates/:type", pluginHandler.Template)
		auth.POST("/plugins/test", pluginHandler.Test)
		auth.GET("/plugins/catalog", pluginHandler.Catalog)
		auth.PUT("/plugins/catalog/:id", pluginHandler.SetInstalled)
		auth.DELETE("/plugins/:name", pluginHandler.Delete)
		auth.GET("/plugins/:name/export", pluginHandler.Export)

		auth.POST("/export/:kind", exportHandler.Export)
	}

	r.Any("/mcp", middleware.Cors(), gin.WrapH(mcpServer.Handler()))

	r.NoRoute(middleware.NoFound())

	return r
}
