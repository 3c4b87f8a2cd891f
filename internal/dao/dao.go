// Package dao 实现数据访问层
package dao

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/haierkeys/miknow-notebook-service/pkg/fileurl"
	"github.com/haierkeys/miknow-notebook-service/pkg/util"
	"github.com/haierkeys/miknow-notebook-service/pkg/writequeue"

	"github.com/glebarez/sqlite"
	"github.com/haierkeys/gormTracing"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// DatabaseConfig 数据库连接配置
type DatabaseConfig struct {
	Type            string
	Path            string
	UserName        string
	Password        string
	Host            string
	Name            string
	TablePrefix     string
	Charset         string
	ParseTime       bool
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime string
	ConnMaxIdleTime string
	Debug           bool
}

// NewDBEngineWithConfig 创建 gorm 连接并挂载链路追踪插件
func NewDBEngineWithConfig(c DatabaseConfig, lg *zap.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(c)
	if err != nil {
		return nil, err
	}

	logMode := logger.Silent
	if c.Debug {
		logMode = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   c.TablePrefix, // 表名前缀
			SingularTable: true,          // 使用单数表名
		},
	})
	if err != nil {
		return nil, err
	}

	// 获取通用数据库对象 sql.DB ，然后使用其提供的功能
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if c.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(util.DurationOr(c.ConnMaxLifetime, 30*time.Minute))
	sqlDB.SetConnMaxIdleTime(util.DurationOr(c.ConnMaxIdleTime, 10*time.Minute))

	if err := db.Use(&gormTracing.OpentracingPlugin{}); err != nil && lg != nil {
		lg.Warn("gorm tracing plugin not registered", zap.Error(err))
	}

	return db, nil
}

func dialectorFor(c DatabaseConfig) (gorm.Dialector, error) {
	switch c.Type {
	case "mysql":
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=%t&loc=Local",
			c.UserName,
			c.Password,
			c.Host,
			c.Name,
			c.Charset,
			c.ParseTime,
		)), nil
	case "postgres":
		return postgres.Open(fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
			c.UserName,
			c.Password,
			c.Host,
			c.Name,
		)), nil
	case "sqlite", "":
		if c.Path != ":memory:" && !fileurl.IsExist(c.Path) {
			if err := fileurl.CreatePath(c.Path, os.ModePerm); err != nil {
				return nil, err
			}
		}
		return sqlite.Open(c.Path), nil
	}
	return nil, fmt.Errorf("unsupported database type: %s", c.Type)
}

// Dao 数据访问对象
type Dao struct {
	db         *gorm.DB
	logger     *zap.Logger
	writeQueue *writequeue.Queue
}

// Option Dao 配置选项
type Option func(*Dao)

// WithLogger 设置日志器
func WithLogger(lg *zap.Logger) Option {
	return func(d *Dao) {
		d.logger = lg
	}
}

// WithWriteQueue 设置写队列，未设置时直接写库
func WithWriteQueue(q *writequeue.Queue) Option {
	return func(d *Dao) {
		d.writeQueue = q
	}
}

func New(db *gorm.DB, opts ...Option) *Dao {
	d := &Dao{db: db, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DB 返回绑定 ctx 的会话
func (d *Dao) DB(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx)
}

func (d *Dao) Logger() *zap.Logger {
	return d.logger
}

// ExecuteWrite 在工作区写队列中执行 fn，同一工作区的写操作串行化
func (d *Dao) ExecuteWrite(ctx context.Context, uid int64, fn func(db *gorm.DB) error) error {
	if d.writeQueue == nil {
		return fn(d.DB(ctx))
	}
	return d.writeQueue.Execute(ctx, uid, func(ctx context.Context) error {
		return fn(d.DB(ctx))
	})
}

// Ping 检查数据库连通性
func (d *Dao) Ping(ctx context.Context) error {
	return d.DB(ctx).Exec("SELECT 1").Error
}
