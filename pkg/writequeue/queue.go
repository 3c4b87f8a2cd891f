// Package writequeue serializes store writes per workspace
// Package writequeue 按工作区串行化存储写操作
//
// Every workspace gets its own lane and lanes run independently, so writes of
// one workspace never interleave while different workspaces proceed in parallel.
// 每个工作区拥有独立的通道，同一工作区的写操作不会交错，不同工作区可并行。
package writequeue

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull the workspace lane has no free slot
	// ErrQueueFull 工作区写通道已满
	ErrQueueFull = errors.New("write queue is full")
	// ErrQueueClosed the queue no longer accepts writes
	// ErrQueueClosed 写队列已关闭
	ErrQueueClosed = errors.New("write queue is closed")
	// ErrWriteTimeout the write waited longer than Config.WriteTimeout
	// ErrWriteTimeout 写操作超时
	ErrWriteTimeout = errors.New("write operation timeout")
)

// Config write queue configuration
// Config 写队列配置
type Config struct {
	// Capacity pending writes allowed per workspace
	// Capacity 每个工作区允许的待处理写操作数
	Capacity int
	// WriteTimeout upper bound a caller waits for its write
	// WriteTimeout 调用方等待写操作完成的上限
	WriteTimeout time.Duration
	// IdleTimeout a lane without writes for this long is released
	// IdleTimeout 空闲超过该时间的通道会被回收
	IdleTimeout time.Duration
}

// DefaultConfig returns default configuration
// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Capacity:     100,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  10 * time.Minute,
	}
}

type job struct {
	ctx  context.Context
	fn   func(context.Context) error
	done chan error
}

type lane struct {
	jobs     chan job
	lastUsed time.Time
}

// Queue owns one lane per workspace
// Queue 为每个工作区维护一个写通道
type Queue struct {
	cfg    Config
	logger *zap.Logger

	mu     sync.Mutex
	lanes  map[int64]*lane
	closed bool

	wg   sync.WaitGroup
	stop chan struct{}
}

// New creates a write queue, nil cfg means DefaultConfig
// New 创建写队列，cfg 为 nil 时使用默认配置
func New(cfg *Config, logger *zap.Logger) *Queue {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.Capacity > 0 {
			c.Capacity = cfg.Capacity
		}
		if cfg.WriteTimeout > 0 {
			c.WriteTimeout = cfg.WriteTimeout
		}
		if cfg.IdleTimeout > 0 {
			c.IdleTimeout = cfg.IdleTimeout
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	q := &Queue{
		cfg:    c,
		logger: logger,
		lanes:  make(map[int64]*lane),
		stop:   make(chan struct{}),
	}

	q.wg.Add(1)
	go q.reap()

	q.logger.Info("write queue started",
		zap.Int("capacity", c.Capacity),
		zap.Duration("writeTimeout", c.WriteTimeout),
		zap.Duration("idleTimeout", c.IdleTimeout))
	return q
}

// Execute runs fn on the lane of uid and waits for its result.
// Writes of the same workspace run one at a time in submission order.
// Execute 在 uid 的写通道上执行 fn 并等待结果，同一工作区按提交顺序逐个执行
func (q *Queue) Execute(ctx context.Context, uid int64, fn func(context.Context) error) error {
	j := job{ctx: ctx, fn: fn, done: make(chan error, 1)}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	l, ok := q.lanes[uid]
	if !ok {
		l = &lane{jobs: make(chan job, q.cfg.Capacity)}
		q.lanes[uid] = l
		q.wg.Add(1)
		go q.run(uid, l)
		q.logger.Debug("write lane opened", zap.Int64("uid", uid))
	}
	l.lastUsed = time.Now()
	select {
	case l.jobs <- j:
	default:
		q.mu.Unlock()
		return ErrQueueFull
	}
	q.mu.Unlock()

	timer := time.NewTimer(q.cfg.WriteTimeout)
	defer timer.Stop()

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrWriteTimeout
	}
}

func (q *Queue) run(uid int64, l *lane) {
	defer q.wg.Done()
	for j := range l.jobs {
		if err := j.ctx.Err(); err != nil {
			j.done <- err
			continue
		}
		j.done <- q.call(uid, j)
	}
}

func (q *Queue) call(uid int64, j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("write queue job panic", zap.Int64("uid", uid), zap.Any("panic", r))
			err = errors.New("write job panicked")
		}
	}()
	return j.fn(j.ctx)
}

func (q *Queue) reap() {
	defer q.wg.Done()

	ticker := time.NewTicker(q.cfg.IdleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-q.stop:
			return
		case <-ticker.C:
			q.reapIdle(time.Now())
		}
	}
}

func (q *Queue) reapIdle(now time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for uid, l := range q.lanes {
		if len(l.jobs) == 0 && now.Sub(l.lastUsed) > q.cfg.IdleTimeout {
			close(l.jobs)
			delete(q.lanes, uid)
			q.logger.Debug("write lane released", zap.Int64("uid", uid))
		}
	}
}

// Lanes returns the number of open workspace lanes
// Lanes 返回当前打开的工作区通道数
func (q *Queue) Lanes() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lanes)
}

// Shutdown stops accepting writes and drains every lane
// Shutdown 停止接收写操作并排空所有通道
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	for uid, l := range q.lanes {
		close(l.jobs)
		delete(q.lanes, uid)
	}
	q.mu.Unlock()
	close(q.stop)

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.Info("write queue shutdown completed")
		return nil
	case <-ctx.Done():
		q.logger.Warn("write queue shutdown timeout")
		return ctx.Err()
	}
}
