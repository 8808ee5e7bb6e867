package primitive

import "sync"

// Semaphore 计数信号量：内部锁 + 条件变量，检查与递减在同一临界区内完成。
//
// 初始值为 1 时即二元信号量；初始值等于 worker 数时（SemaphoreSlim）在本负载下
// 永远不会阻塞，用来测量信号量机制本身的开销下限。
type Semaphore struct {
	mu      sync.Mutex
	cond    *sync.Cond
	count   int
	initial int
	blocked uint64
}

func NewSemaphore(count int) *Semaphore {
	if count < 0 {
		panic("semaphore count must be >= 0")
	}
	s := &Semaphore{count: count, initial: count}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *Semaphore) Acquire() {
	s.mu.Lock()
	if s.count == 0 {
		s.blocked++
	}
	for s.count == 0 {
		s.cond.Wait()
	}
	s.count--
	s.mu.Unlock()
}

func (s *Semaphore) Release() {
	s.mu.Lock()
	s.count++
	s.mu.Unlock()
	s.cond.Signal()
}

// Count 当前可用许可数
func (s *Semaphore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Initial 构造时的许可数
func (s *Semaphore) Initial() int { return s.initial }

// Blocked 返回进入等待的 Acquire 次数
func (s *Semaphore) Blocked() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocked
}
