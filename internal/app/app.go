// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/haierkeys/miknow-notebook-service/internal/dao"
	"github.com/haierkeys/miknow-notebook-service/internal/domain"
	"github.com/haierkeys/miknow-notebook-service/internal/service"
	pkgapp "github.com/haierkeys/miknow-notebook-service/pkg/app"
	"github.com/haierkeys/miknow-notebook-service/pkg/mistral"
	"github.com/haierkeys/miknow-notebook-service/pkg/storage"
	"github.com/haierkeys/miknow-notebook-service/pkg/workerpool"
	"github.com/haierkeys/miknow-notebook-service/pkg/writequeue"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 应用容器，封装所有依赖和服务
type App struct {
	// 基础设施（注入的依赖）
	config *AppConfig
	logger *zap.Logger
	DB     *gorm.DB
	Dao    *dao.Dao

	// StartTime 容器创建时间，用于健康检查中的运行时长
	StartTime time.Time

	// 并发控制组件
	workerPool *workerpool.Pool
	writeQueue *writequeue.Queue

	// Store 按工作区隔离的键值存储
	Store domain.Store

	// Mistral 模型服务客户端
	Mistral *mistral.Client

	// Service 层
	CredentialService service.CredentialService
	CompletionService service.CompletionService
	AIService         service.AIService
	GraphService      service.GraphService
	ThemeService      service.ThemeService
	PluginService     service.PluginService
	ExportService     service.ExportService

	// Surfaces 各界面区域的过期请求保护
	Surfaces *service.SurfaceTracker

	// 基础设施组件
	TokenManager pkgapp.TokenManager

	svcConfig *service.ServiceConfig

	// 关闭控制
	shutdownCh chan struct{}
	wg         sync.WaitGroup
}

// Option 用于替换默认依赖，主要供测试使用
type Option func(*App)

// WithStore 使用指定的存储替代数据库存储
func WithStore(s domain.Store) Option {
	return func(a *App) {
		a.Store = s
	}
}

// NewApp 创建应用容器实例
// 初始化所有依赖并进行依赖注入
// cfg: 应用配置（必须）
// logger: zap 日志器（必须）
// db: 数据库连接，通过 WithStore 注入存储时可为 nil
func NewApp(cfg *AppConfig, logger *zap.Logger, db *gorm.DB, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	a := &App{
		config:     cfg,
		logger:     logger,
		DB:         db,
		StartTime:  time.Now(),
		shutdownCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}

	// 初始化 Worker Pool
	wpConfig := cfg.GetWorkerPoolConfig()
	a.workerPool = workerpool.New(&wpConfig, logger)

	// 初始化 Write Queue
	wqConfig := cfg.GetWriteQueueConfig()
	a.writeQueue = writequeue.New(&wqConfig, logger)

	if a.Store == nil {
		if db == nil {
			return nil, fmt.Errorf("database is required")
		}
		a.Dao = dao.New(db, dao.WithLogger(logger), dao.WithWriteQueue(a.writeQueue))
		store, err := dao.NewKVStore(a.Dao)
		if err != nil {
			return nil, fmt.Errorf("init kv store: %w", err)
		}
		a.Store = store
	}

	// 初始化 TokenManager
	a.TokenManager = pkgapp.NewTokenManager(pkgapp.TokenConfig{
		SecretKey: cfg.Security.AuthTokenKey,
		Expiry:    cfg.GetTokenExpiry(),
	})

	a.Mistral = mistral.New(cfg.GetMistralConfig(), mistral.WithLogger(logger.Named("mistral")))

	// 创建 ServiceConfig（从 AppConfig 提取 Service 层需要的配置）
	a.svcConfig = &service.ServiceConfig{
		App: service.AppServiceConfig{
			BatchMaxNotes: cfg.App.BatchMaxNotes,
		},
		Export: service.ExportServiceConfig{
			IsEnable: cfg.Export.IsEnable,
		},
	}

	var storager storage.Storager
	if cfg.Export.IsEnable {
		s, err := storage.NewClient(&cfg.Export.Storage)
		if err != nil {
			return nil, fmt.Errorf("init export storage: %w", err)
		}
		storager = s
	}

	// 初始化 Service 层（依赖注入）
	a.CredentialService = service.NewCredentialService(a.Store, a.Mistral, a.workerPool, logger)
	a.CompletionService = service.NewCompletionService(a.Store, a.Mistral, logger)
	a.AIService = service.NewAIService(a.CompletionService, a.workerPool, logger)
	a.GraphService = service.NewGraphService(a.Store, nil, logger)
	a.ThemeService = service.NewThemeService(a.Store)
	a.PluginService = service.NewPluginService(a.Store)
	a.ExportService = service.NewExportService(storager, a.ThemeService, a.PluginService, a.GraphService, a.svcConfig, logger)
	a.Surfaces = service.NewSurfaceTracker()

	logger.Info("App container initialized successfully",
		zap.Int("workerPoolMaxWorkers", wpConfig.MaxWorkers),
		zap.Int("writeQueueCapacity", wqConfig.Capacity),
		zap.Bool("authEnabled", a.TokenManager.Enabled()),
		zap.Bool("exportEnabled", a.ExportService.Enabled()))

	return a, nil
}

// Close 释放应用容器持有的资源
func (a *App) Close() error {
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql.DB: %w", err)
		}
		if err := sqlDB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
		a.logger.Info("Database connection closed")
	}
	return nil
}

// Config 获取应用配置
func (a *App) Config() *AppConfig {
	return a.config
}

// ServiceConfig 获取服务层配置
func (a *App) ServiceConfig() *service.ServiceConfig {
	return a.svcConfig
}

// Logger 获取日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Ping 检查存储是否可用
func (a *App) Ping(ctx context.Context) error {
	if a.Dao == nil {
		return nil
	}
	return a.Dao.Ping(ctx)
}

// SubmitTaskAsync 异步提交任务到 Worker Pool（不等待结果）
// 返回错误如果池已满或已关闭
func (a *App) SubmitTaskAsync(ctx context.Context, task func(context.Context) error) error {
	return a.workerPool.SubmitAsync(ctx, task)
}

// Version 获取版本信息
func (a *App) Version() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{
		Version:   Version,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
}

// WorkerPool 获取 Worker Pool
func (a *App) WorkerPool() *workerpool.Pool {
	return a.workerPool
}

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

// Shutdown 优雅关闭应用容器
// 按顺序关闭：Worker Pool -> Write Queue -> 后台操作 -> Database
// ctx 用于控制关闭超时，如果为 nil 则使用默认 30 秒超时
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("App container shutting down...")

	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
	}

	select {
	case <-a.shutdownCh:
		return nil
	default:
		close(a.shutdownCh)
	}

	var errs []error

	// 1. 关闭 Worker Pool（停止接受新任务，等待现有任务完成）
	if a.workerPool != nil {
		if err := a.workerPool.Shutdown(ctx); err != nil {
			a.logger.Warn("Worker pool shutdown error", zap.Error(err))
			errs = append(errs, fmt.Errorf("worker pool shutdown: %w", err))
		}
	}

	// 2. 关闭 Write Queue（排空所有队列）
	if a.writeQueue != nil {
		if err := a.writeQueue.Shutdown(ctx); err != nil {
			a.logger.Warn("write queue shutdown error", zap.Error(err))
			errs = append(errs, fmt.Errorf("write queue shutdown: %w", err))
		}
	}

	// 3. 等待所有后台操作完成
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("All background operations completed")
	case <-ctx.Done():
		a.logger.Warn("Shutdown timeout waiting for background operations")
		errs = append(errs, fmt.Errorf("background operations timeout: %w", ctx.Err()))
	}

	// 4. 关闭数据库连接
	if err := a.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		a.logger.Warn("App container shutdown completed with errors", zap.Int("errorCount", len(errs)))
		return fmt.Errorf("shutdown completed with %d errors: %v", len(errs), errs)
	}

	a.logger.Info("App container shutdown completed successfully")
	return nil
}

// IsShuttingDown 检查应用是否正在关闭
func (a *App) IsShuttingDown() bool {
	select {
	case <-a.shutdownCh:
		return true
	default:
		return false
	}
}

// ShutdownCh 返回关闭信号通道（用于监听关闭事件）
func (a *App) ShutdownCh() <-chan struct{} {
	return a.shutdownCh
}

// TrackOperation 跟踪后台操作（用于优雅关闭时等待）
// 返回一个函数，在操作完成时调用
func (a *App) TrackOperation() func() {
	a.wg.Add(1)
	return func() {
		a.wg.Done()
	}
}
