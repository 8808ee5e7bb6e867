package primitive

import "sync"

// CyclicBarrier 可复用的汇合屏障。
//
// 每一代需要恰好 threshold 次到达才会放行。最后到达者重置计数、推进 generation
// 并唤醒所有等待者；等待者以自己到达时的 generation 作为令牌，只有令牌失效才返回，
// 而不是轮询计数。
type CyclicBarrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	threshold  int
	count      int
	generation uint64
}

func NewCyclicBarrier(threshold int) *CyclicBarrier {
	if threshold <= 0 {
		panic("barrier threshold must be > 0")
	}
	b := &CyclicBarrier{threshold: threshold, count: threshold}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// ArriveAndWait 阻塞直到本代的所有参与者都已到达
func (b *CyclicBarrier) ArriveAndWait() {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.generation
	b.count--
	if b.count == 0 {
		b.generation++
		b.count = b.threshold
		b.cond.Broadcast()
		return
	}
	for gen == b.generation {
		b.cond.Wait()
	}
}

// Generation 已完成的汇合轮数
func (b *CyclicBarrier) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.generation
}

func (b *CyclicBarrier) Threshold() int { return b.threshold }
