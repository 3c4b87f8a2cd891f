// Package safe_close coordinates graceful shutdown of attached goroutines
// Package safe_close 协调挂载协程的优雅退出
package safe_close

import (
	"sync"
)

// SafeClose broadcasts one close signal and waits for every attached worker to finish
// SafeClose 广播关闭信号并等待所有挂载的协程结束
type SafeClose struct {
	once   sync.Once
	signal chan struct{}
	wg     sync.WaitGroup

	mu  sync.Mutex
	err error
}

func NewSafeClose() *SafeClose {
	return &SafeClose{signal: make(chan struct{})}
}

// Attach runs fn in a new goroutine; fn must call done when it returns
// Attach 在新协程中执行 fn，fn 退出时必须调用 done
func (s *SafeClose) Attach(fn func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	var once sync.Once
	go fn(func() { once.Do(s.wg.Done) }, s.signal)
}

// SendCloseSignal closes the signal channel once and records the first error
// SendCloseSignal 只关闭一次信号通道并记录第一个错误
func (s *SafeClose) SendCloseSignal(err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.signal)
	})
}

// Done exposes the close signal
// Done 返回关闭信号通道
func (s *SafeClose) Done() <-chan struct{} {
	return s.signal
}

// WaitClosed blocks until every attached goroutine called done
// WaitClosed 阻塞直到所有挂载的协程结束
func (s *SafeClose) WaitClosed() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
