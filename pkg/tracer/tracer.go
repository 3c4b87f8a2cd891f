// Package tracer 构建 Jaeger opentracing tracer
package tracer

import (
	"io"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
)

type Config struct {
	ServiceName   string
	AgentHostPort string
	// SamplerParam 采样率 0-1
	SamplerParam float64
}

// NewJaegerTracer 创建 tracer 并注册为全局 tracer
// 返回的 Closer 需在退出时调用以刷新缓冲的 span
func NewJaegerTracer(c Config) (opentracing.Tracer, io.Closer, error) {
	param := c.SamplerParam
	if param <= 0 || param > 1 {
		param = 1
	}
	cfg := &jaegercfg.Configuration{
		ServiceName: c.ServiceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  jaeger.SamplerTypeProbabilistic,
			Param: param,
		},
		Reporter: &jaegercfg.ReporterConfig{
			LogSpans:            false,
			BufferFlushInterval: time.Second,
			LocalAgentHostPort:  c.AgentHostPort,
		},
	}
	tracer, closer, err := cfg.NewTracer()
	if err != nil {
		return nil, nil, err
	}
	opentracing.SetGlobalTracer(tracer)
	return tracer, closer, nil
}
