// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/haierkeys/miknow-notebook-service/pkg/limiter"
	"github.com/haierkeys/miknow-notebook-service/pkg/mistral"
	"github.com/haierkeys/miknow-notebook-service/pkg/storage"
	"github.com/haierkeys/miknow-notebook-service/pkg/util"
	"github.com/haierkeys/miknow-notebook-service/pkg/workerpool"
	"github.com/haierkeys/miknow-notebook-service/pkg/writequeue"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	File      string          `yaml:"-"` // 配置文件路径，不序列化
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	App       AppSettings     `yaml:"app"`
	Mistral   MistralConfig   `yaml:"mistral"`
	Security  SecurityConfig  `yaml:"security"`
	Export    ExportConfig    `yaml:"export"`
	Tracer    TracerConfig    `yaml:"tracer"`
	RateLimit RateLimitConfig `yaml:"rate-limit"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string `yaml:"level" default:"info"`
	// File 日志文件路径，为空时只输出到 stderr
	File string `yaml:"file" default:"storage/logs/log.log"`
	// Production 是否启用 JSON 输出
	Production bool `yaml:"production" default:"true"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// RunMode 运行模式 debug / release
	RunMode string `yaml:"run-mode" default:"release"`
	// HttpPort HTTP 端口
	HttpPort string `yaml:"http-port" default:":9100"`
	// ReadTimeout 读取超时（秒）
	ReadTimeout int `yaml:"read-timeout" default:"60"`
	// WriteTimeout 写入超时（秒），需大于模型调用超时
	WriteTimeout int `yaml:"write-timeout" default:"90"`
	// PrivateHttpListen 私有 HTTP 监听地址，为空时不启动
	PrivateHttpListen string `yaml:"private-http-listen" default:"127.0.0.1:9101"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Type sqlite / mysql / postgres
	Type string `yaml:"type" default:"sqlite"`
	// Path SQLite 数据库文件路径
	Path        string `yaml:"path" default:"storage/database/miknow.sqlite3"`
	UserName    string `yaml:"username"`
	Password    string `yaml:"password"`
	Host        string `yaml:"host"`
	Name        string `yaml:"name"`
	TablePrefix string `yaml:"table-prefix" default:"mk_"`
	Charset     string `yaml:"charset" default:"utf8mb4"`
	ParseTime   bool   `yaml:"parse-time" default:"true"`
	// MaxIdleConns 最大闲置连接数
	MaxIdleConns int `yaml:"max-idle-conns" default:"10"`
	// MaxOpenConns 最大打开连接数
	MaxOpenConns int `yaml:"max-open-conns" default:"100"`
	// ConnMaxLifetime 连接最大生命周期，支持 30m、1h 等格式
	ConnMaxLifetime string `yaml:"conn-max-lifetime" default:"30m"`
	// ConnMaxIdleTime 空闲连接最大生命周期
	ConnMaxIdleTime string `yaml:"conn-max-idle-time" default:"10m"`
}

// AppSettings 应用设置
type AppSettings struct {
	// DefaultContextTimeout 默认请求超时（秒）
	DefaultContextTimeout int `yaml:"default-context-timeout" default:"120"`
	// BatchMaxNotes 批量分析单次最多笔记数
	BatchMaxNotes int `yaml:"batch-max-notes" default:"20"`

	// Worker Pool 配置
	WorkerPoolMaxWorkers int `yaml:"worker-pool-max-workers" default:"16"`
	WorkerPoolQueueSize  int `yaml:"worker-pool-queue-size" default:"256"`

	// Write Queue 配置
	WriteQueueCapacity int    `yaml:"write-queue-capacity" default:"100"`
	WriteQueueTimeout  string `yaml:"write-queue-timeout" default:"30s"`
	WriteQueueIdleTime string `yaml:"write-queue-idle-time" default:"10m"`

	// CredentialCheckInterval 定时重新校验无效密钥的间隔
	CredentialCheckInterval string `yaml:"credential-check-interval" default:"30m"`
}

// BreakerConfig 熔断器配置
type BreakerConfig struct {
	MaxRequests  uint32  `yaml:"max-requests" default:"1"`
	Interval     string  `yaml:"interval" default:"60s"`
	Timeout      string  `yaml:"timeout" default:"30s"`
	FailureRatio float64 `yaml:"failure-ratio" default:"0.6"`
	MinRequests  uint32  `yaml:"min-requests" default:"5"`
}

// MistralConfig 模型服务配置
type MistralConfig struct {
	BaseURL string        `yaml:"base-url" default:"https://api.mistral.ai"`
	Timeout string        `yaml:"timeout" default:"60s"`
	Breaker BreakerConfig `yaml:"breaker"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	// AuthTokenKey 为空时不启用鉴权，所有请求归属工作区 0
	AuthTokenKey string `yaml:"auth-token-key"`
	// TokenExpiry Token 过期时间，支持 7d、24h、30m 等格式
	TokenExpiry string `yaml:"token-expiry" default:"365d"`
}

// ExportConfig 导出配置
type ExportConfig struct {
	IsEnable bool `yaml:"is-enable" default:"false"`
	// Cron 定时导出图谱的标准 5 段表达式，为空时不定时导出
	Cron    string         `yaml:"cron"`
	Storage storage.Config `yaml:"storage"`
}

// JaegerConfig Jaeger 配置
type JaegerConfig struct {
	Enabled       bool    `yaml:"enabled" default:"false"`
	AgentHostPort string  `yaml:"agent-host-port" default:"127.0.0.1:6831"`
	ServiceName   string  `yaml:"service-name" default:"miknow-notebook-service"`
	SamplerParam  float64 `yaml:"sampler-param" default:"1"`
}

// TracerConfig 请求追踪配置
type TracerConfig struct {
	// Enabled 是否启用追踪
	Enabled bool `yaml:"enabled" default:"true"`
	// Header 追踪 ID 请求头名称，默认 X-Trace-ID
	Header string       `yaml:"header" default:"X-Trace-ID"`
	Jaeger JaegerConfig `yaml:"jaeger"`
}

// RateLimitConfig AI 接口限流配置
type RateLimitConfig struct {
	// AICapacity 令牌桶容量，为 0 时不限流
	AICapacity int64 `yaml:"ai-capacity" default:"30"`
	// AIFillInterval 每补充一个令牌的间隔
	AIFillInterval string `yaml:"ai-fill-interval" default:"2s"`
}

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	c, err := ParseConfig(file)
	if err != nil {
		return nil, realpath, err
	}
	c.File = realpath
	return c, realpath, nil
}

// ParseConfig 解析 YAML 配置并填充默认值
func ParseConfig(data []byte) (*AppConfig, error) {
	c := new(AppConfig)
	if err := defaults.Set(c); err != nil {
		return nil, errors.Wrap(err, "set default config failed")
	}
	// 先填默认值再解析，YAML 中显式写出的 false / 0 不会被默认值覆盖
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(err, "parse config file failed")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate 检查无法在运行时回退的配置项
func (c *AppConfig) Validate() error {
	if c.Export.Cron != "" {
		if _, err := cron.ParseStandard(c.Export.Cron); err != nil {
			return errors.Wrapf(err, "invalid export.cron %q", c.Export.Cron)
		}
	}
	if c.Export.IsEnable && !storage.StorageTypeMap[c.Export.Storage.Type] {
		return errors.Errorf("invalid export.storage.type %q", c.Export.Storage.Type)
	}
	for name, v := range map[string]string{
		"app.credential-check-interval": c.App.CredentialCheckInterval,
		"mistral.timeout":               c.Mistral.Timeout,
		"security.token-expiry":         c.Security.TokenExpiry,
	} {
		if _, err := util.ParseDuration(v); err != nil {
			return errors.Wrapf(err, "invalid %s", name)
		}
	}
	return nil
}

// Save 保存配置到文件
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}
	if err := os.WriteFile(c.File, data, 0o644); err != nil {
		return errors.Wrap(err, "write config file failed")
	}
	return nil
}

// GetWorkerPoolConfig 获取 Worker Pool 配置
func (c *AppConfig) GetWorkerPoolConfig() workerpool.Config {
	cfg := workerpool.DefaultConfig()
	if c.App.WorkerPoolMaxWorkers > 0 {
		cfg.MaxWorkers = c.App.WorkerPoolMaxWorkers
	}
	if c.App.WorkerPoolQueueSize > 0 {
		cfg.QueueSize = c.App.WorkerPoolQueueSize
	}
	return cfg
}

// GetWriteQueueConfig 获取 Write Queue 配置
func (c *AppConfig) GetWriteQueueConfig() writequeue.Config {
	cfg := writequeue.DefaultConfig()
	if c.App.WriteQueueCapacity > 0 {
		cfg.Capacity = c.App.WriteQueueCapacity
	}
	cfg.WriteTimeout = util.DurationOr(c.App.WriteQueueTimeout, cfg.WriteTimeout)
	cfg.IdleTimeout = util.DurationOr(c.App.WriteQueueIdleTime, cfg.IdleTimeout)
	return cfg
}

// GetMistralConfig 获取模型客户端配置
func (c *AppConfig) GetMistralConfig() mistral.Config {
	b := c.Mistral.Breaker
	return mistral.Config{
		BaseURL: c.Mistral.BaseURL,
		Timeout: util.DurationOr(c.Mistral.Timeout, 60*time.Second),
		Breaker: mistral.BreakerConfig{
			MaxRequests:  b.MaxRequests,
			Interval:     util.DurationOr(b.Interval, 0),
			Timeout:      util.DurationOr(b.Timeout, 30*time.Second),
			FailureRatio: b.FailureRatio,
			MinRequests:  b.MinRequests,
		},
	}
}

// GetTokenExpiry 获取 Token 过期时间
func (c *AppConfig) GetTokenExpiry() time.Duration {
	return util.DurationOr(c.Security.TokenExpiry, 365*24*time.Hour)
}

// GetCredentialCheckInterval 获取密钥重新校验间隔
func (c *AppConfig) GetCredentialCheckInterval() time.Duration {
	return util.DurationOr(c.App.CredentialCheckInterval, 30*time.Minute)
}

// GetAIRateLimitRule 获取 AI 接口限流规则，容量为 0 时返回 false
func (c *AppConfig) GetAIRateLimitRule() (limiter.BucketRule, bool) {
	if c.RateLimit.AICapacity <= 0 {
		return limiter.BucketRule{}, false
	}
	return limiter.BucketRule{
		Key:          "/api/ai/",
		FillInterval: util.DurationOr(c.RateLimit.AIFillInterval, 2*time.Second),
		Capacity:     c.RateLimit.AICapacity,
		Quantum:      1,
	}, true
}
