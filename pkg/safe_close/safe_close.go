// Package safe_close 提供多组件协同关闭的生命周期控制
// 各组件通过 Attach 挂载，收到关闭信号后自行清理并调用 done
package safe_close

import (
	"sync"
)

type SafeClose struct {
	mu          sync.Mutex
	wg          sync.WaitGroup
	closeSignal chan struct{}
	closed      bool
	err         error
}

func NewSafeClose() *SafeClose {
	return &SafeClose{
		closeSignal: make(chan struct{}),
	}
}

// Attach 挂载一个受管协程
// f 必须在完成清理后调用 done，并监听 closeSignal
func (s *SafeClose) Attach(f func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	var once sync.Once
	done := func() {
		once.Do(s.wg.Done)
	}
	go f(done, s.closeSignal)
}

// SendCloseSignal 发出关闭信号，首个携带的非 nil 错误会被保留
// 重复调用是安全的
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

// WaitClosed 阻塞到所有挂载协程完成，返回关闭原因错误
func (s *SafeClose) WaitClosed() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// CloseSignal 返回只读关闭信号，便于非 Attach 场景监听
func (s *SafeClose) CloseSignal() <-chan struct{} {
	return s.closeSignal
}
