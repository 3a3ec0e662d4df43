// Package safe_close coordinates graceful shutdown across server goroutines
// Package safe_close 协调多个服务协程的优雅关闭
package safe_close

import (
	"sync"
)

// SafeClose fans a close signal out to attached goroutines and waits for them
// SafeClose 将关闭信号广播给挂载的协程并等待它们退出
type SafeClose struct {
	mu          sync.Mutex
	closeSignal chan struct{}
	closed      bool
	err         error
	wg          sync.WaitGroup
}

func NewSafeClose() *SafeClose {
	return &SafeClose{
		closeSignal: make(chan struct{}),
	}
}

// Attach runs f in a goroutine; f must call done() when it has finished
// shutting down and must exit promptly once closeSignal fires
// Attach 在协程中运行 f；f 完成关闭后必须调用 done()，并在收到关闭信号后尽快退出
func (s *SafeClose) Attach(f func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	var once sync.Once
	done := func() {
		once.Do(s.wg.Done)
	}
	go f(done, s.closeSignal)
}

// SendCloseSignal triggers shutdown; the first error is retained
// SendCloseSignal 触发关闭；保留第一个错误
func (s *SafeClose) SendCloseSignal(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.err = err
	close(s.closeSignal)
}

// WaitClosed blocks until every attached goroutine has called done
// WaitClosed 阻塞直到所有挂载协程都调用了 done
func (s *SafeClose) WaitClosed() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
