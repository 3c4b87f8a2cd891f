// Package workerpool 限制后台任务并发数量的 Worker Pool
// 用于批量分析与后台密钥校验，防止请求放大为无限 goroutine
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	// ErrPoolFull 任务队列已满
	ErrPoolFull = errors.New("worker pool queue is full")
	// ErrPoolClosed Worker Pool 已关闭
	ErrPoolClosed = errors.New("worker pool is closed")
)

// Config Worker Pool 配置
type Config struct {
	// MaxWorkers 最大并发 worker 数量，默认 16
	MaxWorkers int
	// QueueSize 任务队列大小，默认 256
	QueueSize int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{MaxWorkers: 16, QueueSize: 256}
}

type task struct {
	ctx  context.Context
	fn   func(context.Context) error
	done chan error
}

// Pool 固定数量 worker 的任务池
type Pool struct {
	cfg    Config
	logger *zap.Logger

	tasks  chan task
	wg     sync.WaitGroup
	active atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// New 创建 Worker Pool，cfg 为 nil 时使用默认配置
func New(cfg *Config, logger *zap.Logger) *Pool {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.MaxWorkers > 0 {
			c.MaxWorkers = cfg.MaxWorkers
		}
		if cfg.QueueSize > 0 {
			c.QueueSize = cfg.QueueSize
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pool{cfg: c, logger: logger, tasks: make(chan task, c.QueueSize)}
	for i := 0; i < c.MaxWorkers; i++ {
		p.wg.Add(1)
		go p.work()
	}

	p.logger.Info("worker pool started",
		zap.Int("maxWorkers", c.MaxWorkers),
		zap.Int("queueSize", c.QueueSize))
	return p
}

func (p *Pool) work() {
	defer p.wg.Done()
	for t := range p.tasks {
		err := p.run(t)
		if t.done != nil {
			t.done <- err
		} else if err != nil && !errors.Is(err, context.Canceled) {
			p.logger.Warn("worker pool async task failed", zap.Error(err))
		}
	}
}

func (p *Pool) run(t task) (err error) {
	p.active.Add(1)
	defer p.active.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker pool task panic", zap.Any("panic", r))
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	if err := t.ctx.Err(); err != nil {
		return err
	}
	return t.fn(t.ctx)
}

func (p *Pool) enqueue(t task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- t:
		return nil
	default:
		return ErrPoolFull
	}
}

// Submit 提交任务并等待完成
func (p *Pool) Submit(ctx context.Context, fn func(context.Context) error) error {
	t := task{ctx: ctx, fn: fn, done: make(chan error, 1)}
	if err := p.enqueue(t); err != nil {
		return err
	}
	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitAsync 异步提交任务，不等待结果
func (p *Pool) SubmitAsync(ctx context.Context, fn func(context.Context) error) error {
	return p.enqueue(task{ctx: ctx, fn: fn})
}

// ActiveCount 当前正在执行的任务数
func (p *Pool) ActiveCount() int64 {
	return p.active.Load()
}

// QueuedCount 队列中等待的任务数
func (p *Pool) QueuedCount() int {
	return len(p.tasks)
}

// Shutdown 停止接收任务并等待已提交任务完成
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool shutdown completed")
		return nil
	case <-ctx.Done():
		p.logger.Warn("worker pool shutdown timeout", zap.Int64("active", p.active.Load()))
		return ctx.Err()
	}
}
