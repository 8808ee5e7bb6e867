package primitive

import "sync"

// ExclusiveLock 阻塞式互斥锁，不保证等待者的 FIFO 顺序
type ExclusiveLock struct {
	mu sync.Mutex
}

func NewExclusiveLock() *ExclusiveLock {
	return &ExclusiveLock{}
}

func (l *ExclusiveLock) Acquire() { l.mu.Lock() }

func (l *ExclusiveLock) Release() { l.mu.Unlock() }
