package primitive

import (
	"runtime"
	"sync/atomic"
)

// lockState 自旋锁的两态标志
type lockState = uint32

const (
	stateFree lockState = iota
	stateHeld
)

// SpinLock 纯自旋的 test-and-set 锁，等待时不让出处理器。
// 只适合极短的临界区，等待期间持续消耗 CPU。
//
// Go 的 sync/atomic 操作是顺序一致的，强于 acquire/release 语义。
type SpinLock struct {
	state atomic.Uint32
}

func NewSpinLock() *SpinLock {
	return &SpinLock{}
}

func (l *SpinLock) Acquire() {
	for !l.state.CompareAndSwap(stateFree, stateHeld) {
	}
}

func (l *SpinLock) Release() {
	l.state.Store(stateFree)
}

// SpinWaitLock 与 SpinLock 互斥语义相同，但每次失败后调用 runtime.Gosched 让出处理器
type SpinWaitLock struct {
	state atomic.Uint32
}

func NewSpinWaitLock() *SpinWaitLock {
	return &SpinWaitLock{}
}

func (l *SpinWaitLock) Acquire() {
	for l.state.Swap(stateHeld) == stateHeld {
		runtime.Gosched()
	}
}

func (l *SpinWaitLock) Release() {
	l.state.Store(stateFree)
}

// Held 报告锁当前是否被持有
func (l *SpinLock) Held() bool { return l.state.Load() == stateHeld }

func (l *SpinWaitLock) Held() bool { return l.state.Load() == stateHeld }
