package primitive

import (
	"errors"
	"sync"
)

// ErrNotSeeded Monitor 在首次使用前没有收到外部信号
var ErrNotSeeded = errors.New("monitor requires an external seed signal before first use")

// Monitor 锁 + ready 标志 + 条件变量的接力式交接。
//
// 进入者等待 ready 为 true，随即将其置回 false 并唤醒其他等待者；
// 持有者通过 Signal 把接力棒交给下一个。ready 初始为 false，
// 若没有任何一方调用 Seed，所有 Enter 都会永久阻塞。这里不替调用方补发首个信号。
type Monitor struct {
	mu     sync.Mutex
	cond   *sync.Cond
	ready  bool
	seeded bool
}

func NewMonitor() *Monitor {
	m := &Monitor{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Seed 发出外部的首个信号
func (m *Monitor) Seed() {
	m.mu.Lock()
	m.seeded = true
	m.ready = true
	m.mu.Unlock()
	m.cond.Broadcast()
}

func (m *Monitor) Seeded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seeded
}

// Enter 等待 ready，然后取走接力棒
func (m *Monitor) Enter() {
	m.mu.Lock()
	for !m.ready {
		m.cond.Wait()
	}
	m.ready = false
	m.mu.Unlock()
	m.cond.Broadcast()
}

// Signal 交出接力棒
func (m *Monitor) Signal() {
	m.mu.Lock()
	m.ready = true
	m.mu.Unlock()
	m.cond.Broadcast()
}

// Ready 报告 ready 标志的当前值
func (m *Monitor) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}
