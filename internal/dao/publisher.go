package dao

import (
	"sync"

	"github.com/haierkeys/miknow-notebook-service/internal/domain"
	"go.uber.org/zap"
)

type subscriber struct {
	id uint64
	fn func(domain.ChangeEvent)
}

// publisher 按订阅顺序同步分发变更事件
type publisher struct {
	logger *zap.Logger

	mu     sync.RWMutex
	nextID uint64
	subs   []subscriber
}

func (p *publisher) Subscribe(fn func(domain.ChangeEvent)) func() {
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.subs = append(p.subs, subscriber{id: id, fn: fn})
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			for i, s := range p.subs {
				if s.id == id {
					p.subs = append(p.subs[:i:i], p.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (p *publisher) publish(ev domain.ChangeEvent) {
	p.mu.RLock()
	subs := make([]subscriber, len(p.subs))
	copy(subs, p.subs)
	p.mu.RUnlock()

	for _, s := range subs {
		p.deliver(s, ev)
	}
}

func (p *publisher) deliver(s subscriber, ev domain.ChangeEvent) {
	defer func() {
		if r := recover(); r != nil && p.logger != nil {
			p.logger.Error("store subscriber panic",
				zap.Int64("uid", ev.UID),
				zap.String("key", ev.Key),
				zap.Any("panic", r))
		}
	}()
	s.fn(ev)
}
