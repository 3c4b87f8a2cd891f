package service

import (
	"context"
	"sync"
)

// Surface 界面中可独立发起请求的区域
type Surface string

const (
	SurfaceAnalysis   Surface = "analysis"
	SurfaceLinks      Surface = "links"
	SurfaceQA         Surface = "qa"
	SurfaceGeneration Surface = "generation"
	SurfaceGraph      Surface = "graph"
	SurfaceCredential Surface = "credential"
)

type surfaceKey struct {
	uid     int64
	surface Surface
}

// SurfaceTracker 记录每个 (uid, surface) 上正在进行的请求
// 新请求开始时取消同一区域仍在进行的旧请求，旧请求的结果不再返回给调用方
type SurfaceTracker struct {
	mu     sync.Mutex
	active map[surfaceKey]*Ticket
}

func NewSurfaceTracker() *SurfaceTracker {
	return &SurfaceTracker{active: make(map[surfaceKey]*Ticket)}
}

// Ticket 一次 Begin 的凭据
type Ticket struct {
	tracker    *SurfaceTracker
	key        surfaceKey
	cancel     context.CancelFunc
	superseded bool
}

// Begin 开始新请求，返回的 ctx 会在同一区域下一次 Begin 时被取消
func (t *SurfaceTracker) Begin(ctx context.Context, uid int64, surface Surface) (context.Context, *Ticket) {
	ctx, cancel := context.WithCancel(ctx)
	tk := &Ticket{tracker: t, key: surfaceKey{uid: uid, surface: surface}, cancel: cancel}

	t.mu.Lock()
	if prev := t.active[tk.key]; prev != nil {
		prev.superseded = true
		prev.cancel()
	}
	t.active[tk.key] = tk
	t.mu.Unlock()

	return ctx, tk
}

// Current 没有更新的 Begin 取代本次请求时返回 true
func (tk *Ticket) Current() bool {
	tk.tracker.mu.Lock()
	defer tk.tracker.mu.Unlock()
	return !tk.superseded
}

// Done 释放 ctx，仍是当前请求时移除区域记录
func (tk *Ticket) Done() {
	tk.cancel()
	tk.tracker.mu.Lock()
	defer tk.tracker.mu.Unlock()
	if tk.tracker.active[tk.key] == tk {
		delete(tk.tracker.active, tk.key)
	}
}
