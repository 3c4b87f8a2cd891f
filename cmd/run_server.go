package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	internalApp "github.com/haierkeys/miknow-notebook-service/internal/app"
	"github.com/haierkeys/miknow-notebook-service/internal/dao"
	"github.com/haierkeys/miknow-notebook-service/internal/routers"
	"github.com/haierkeys/miknow-notebook-service/internal/task"
	"github.com/haierkeys/miknow-notebook-service/internal/upgrade"
	"github.com/haierkeys/miknow-notebook-service/pkg/logger"
	"github.com/haierkeys/miknow-notebook-service/pkg/safe_close"
	"github.com/haierkeys/miknow-notebook-service/pkg/storage"
	"github.com/haierkeys/miknow-notebook-service/pkg/tracer"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	validatorV10 "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	logger            *zap.Logger             // 日志对象
	config            *internalApp.AppConfig  // 应用配置
	db                *gorm.DB                // 数据库连接
	ut                *ut.UniversalTranslator // 翻译器
	httpServer        *http.Server
	privateHttpServer *http.Server
	sc                *safe_close.SafeClose
	app               *internalApp.App
}

// checkSecurityConfig 未配置 Token 密钥时提示所有请求都归属默认工作区
func checkSecurityConfig(cfg *internalApp.AppConfig, lg *zap.Logger) {
	if cfg.Security.AuthTokenKey != "" {
		return
	}
	fmt.Println()
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("SECURITY WARNING: workspace auth is disabled!")
	fmt.Println()
	fmt.Println("Every request shares workspace 0. Set 'security.auth-token-key'")
	fmt.Println("in config.yaml when the service is reachable by others:")
	fmt.Println("  openssl rand -base64 32")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println()

	lg.Warn("workspace auth disabled - set security.auth-token-key in config.yaml")
}

func NewServer(runEnv *runFlags) (*Server, error) {

	appConfig, configRealpath, err := internalApp.LoadConfig(runEnv.config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if len(runEnv.port) > 0 {
		appConfig.Server.HttpPort = ":" + strings.TrimPrefix(runEnv.port, ":")
	}

	runMode := runEnv.runMode
	if len(runMode) <= 0 {
		runMode = appConfig.Server.RunMode
	}
	if len(runMode) > 0 {
		gin.SetMode(runMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	appConfig.Server.RunMode = gin.Mode()

	s := &Server{
		config: appConfig,
		sc:     safe_close.NewSafeClose(),
	}

	if err := initLogger(s, appConfig); err != nil {
		return nil, fmt.Errorf("initLogger: %w", err)
	}

	checkSecurityConfig(appConfig, s.logger)

	if err := initStorage(appConfig); err != nil {
		return nil, fmt.Errorf("initStorage: %w", err)
	}

	if err := initTracer(s, appConfig); err != nil {
		// 链路追踪不可用不影响服务启动
		s.logger.Warn("jaeger tracer disabled", zap.Error(err))
	}

	db, err := initDatabase(appConfig, s.logger)
	if err != nil {
		return nil, fmt.Errorf("initDatabase: %w", err)
	}
	s.db = db

	if err := upgrade.Execute(context.Background(), db, s.logger, internalApp.Version); err != nil {
		return nil, fmt.Errorf("upgrade.Execute: %w", err)
	}

	app, err := internalApp.NewApp(appConfig, s.logger, db)
	if err != nil {
		return nil, fmt.Errorf("failed to create app container: %w", err)
	}
	s.app = app

	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		<-closeSignal
		ctx, cancel := context.WithTimeout(context.Background(), internalApp.DefaultShutdownTimeout)
		defer cancel()

		if err := s.app.Shutdown(ctx); err != nil {
			s.logger.Error("failed to shutdown app container", zap.Error(err))
		} else {
			s.logger.Info("App container shutdown gracefully")
		}
	})

	uni, err := initValidator()
	if err != nil {
		return nil, fmt.Errorf("initValidator: %w", err)
	}
	s.ut = uni

	initScheduler(s)

	banner := `
    __  ____ __ __
   /  |/  (_) //_/____  ____ _      __
  / /|_/ / / ,<  / __ \/ __ \ | /| / /
 / /  / / / /| |/ / / / /_/ / |/ |/ /
/_/  /_/_/_/ |_/_/ /_/\____/|__/|__/  `
	s.logger.Warn(fmt.Sprintf("%s\n\n%s v%s\nGit: %s\nBuildTime: %s\n", banner, internalApp.Name, internalApp.Version, internalApp.GitTag, internalApp.BuildTime))
	s.logger.Warn("config loaded", zap.String("path", configRealpath))

	if httpAddr := appConfig.Server.HttpPort; len(httpAddr) > 0 {
		s.logger.Warn("api_router", zap.String("config.server.HttpPort", httpAddr))
		s.httpServer = &http.Server{
			Addr:           httpAddr,
			Handler:        routers.NewRouter(s.app, s.ut),
			ReadTimeout:    time.Duration(appConfig.Server.ReadTimeout) * time.Second,
			WriteTimeout:   time.Duration(appConfig.Server.WriteTimeout) * time.Second,
			MaxHeaderBytes: 1 << 20,
		}
		s.serve("api service", s.httpServer)
	}

	if httpAddr := appConfig.Server.PrivateHttpListen; len(httpAddr) > 0 {
		s.logger.Info("api_router", zap.String("config.server.PrivateHttpListen", httpAddr))
		s.privateHttpServer = &http.Server{
			Addr:           httpAddr,
			Handler:        routers.NewPrivateRouter(appConfig.Server.RunMode, s.logger),
			ReadTimeout:    time.Duration(appConfig.Server.ReadTimeout) * time.Second,
			WriteTimeout:   time.Duration(appConfig.Server.WriteTimeout) * time.Second,
			MaxHeaderBytes: 1 << 20,
		}
		s.serve("private api service", s.privateHttpServer)
	}

	return s, nil
}

// serve 挂载到 SafeClose，收到关闭信号后停止 HTTP 服务器
func (s *Server) serve(name string, srv *http.Server) {
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		errChan := make(chan error, 1)
		go func() {
			errChan <- srv.ListenAndServe()
		}()
		select {
		case err := <-errChan:
			s.logger.Error(name+" err", zap.Error(err))
			s.sc.SendCloseSignal(err)
		case <-closeSignal:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				s.logger.Error(name+" shutdown error", zap.Error(err))
			}
		}
	})
}

func initScheduler(s *Server) {
	manager := task.NewManager(s.app, s.sc)

	// 单个任务创建失败时其它任务照常启动
	if err := manager.RegisterTasks(); err != nil {
		s.logger.Error("failed to register tasks", zap.Error(err))
	}
	manager.Start()
}

func initLogger(s *Server, cfg *internalApp.AppConfig) error {
	lg, err := logger.NewLogger(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		Production: cfg.Log.Production,
	})
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	s.logger = lg
	return nil
}

// initTracer 启用 Jaeger 时注册全局 tracer，关闭时刷新缓冲的 span
func initTracer(s *Server, cfg *internalApp.AppConfig) error {
	j := cfg.Tracer.Jaeger
	if !j.Enabled {
		return nil
	}
	_, closer, err := tracer.NewJaegerTracer(tracer.Config{
		ServiceName:   j.ServiceName,
		AgentHostPort: j.AgentHostPort,
		SamplerParam:  j.SamplerParam,
	})
	if err != nil {
		return err
	}
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		<-closeSignal
		closeQuietly(closer, s.logger)
	})
	return nil
}

func closeQuietly(c io.Closer, lg *zap.Logger) {
	if err := c.Close(); err != nil {
		lg.Warn("close tracer", zap.Error(err))
	}
}

// initValidator 注册中英文校验翻译，字段名取 json 标签
func initValidator() (*ut.UniversalTranslator, error) {
	uni := ut.New(en.New(), en.New(), zh.New())

	validate, ok := binding.Validator.Engine().(*validatorV10.Validate)
	if !ok {
		return uni, nil
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	zhTran, _ := uni.GetTranslator("zh")
	enTran, _ := uni.GetTranslator("en")

	if err := zh_translations.RegisterDefaultTranslations(validate, zhTran); err != nil {
		return nil, err
	}
	if err := en_translations.RegisterDefaultTranslations(validate, enTran); err != nil {
		return nil, err
	}
	return uni, nil
}

func initDatabase(cfg *internalApp.AppConfig, lg *zap.Logger) (*gorm.DB, error) {
	return dao.NewDBEngineWithConfig(dao.DatabaseConfig{
		Type:            cfg.Database.Type,
		Path:            cfg.Database.Path,
		UserName:        cfg.Database.UserName,
		Password:        cfg.Database.Password,
		Host:            cfg.Database.Host,
		Name:            cfg.Database.Name,
		TablePrefix:     cfg.Database.TablePrefix,
		Charset:         cfg.Database.Charset,
		ParseTime:       cfg.Database.ParseTime,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		Debug:           cfg.Server.RunMode == gin.DebugMode,
	}, lg)
}

// initStorage 创建日志、数据库与本地导出目录
func initStorage(cfg *internalApp.AppConfig) error {
	dirs := []string{
		filepath.Dir(cfg.Log.File),
	}
	if cfg.Database.Type == "sqlite" || cfg.Database.Type == "" {
		dirs = append(dirs, filepath.Dir(cfg.Database.Path))
	}
	if cfg.Export.IsEnable && cfg.Export.Storage.Type == storage.LOCAL {
		dirs = append(dirs, cfg.Export.Storage.SavePath)
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0754); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
