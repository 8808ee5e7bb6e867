package primitive

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// occupancy 记录临界区内同时存在的 goroutine 数及其峰值
type occupancy struct {
	inside atomic.Int32
	peak   atomic.Int32
}

func (o *occupancy) enter() {
	n := o.inside.Add(1)
	for {
		p := o.peak.Load()
		if n <= p || o.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

func (o *occupancy) exit() { o.inside.Add(-1) }

// contend 启动 threads 个 goroutine，每个通过 c 执行 iters 次 work
func contend(t *testing.T, c Coordinator, threads, iters int, work func()) {
	t.Helper()
	var wg sync.WaitGroup
	wg.Add(threads)
	for i := 0; i < threads; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iters; j++ {
				c.Coordinate(work)
			}
		}()
	}
	wg.Wait()
}

func TestKindString(t *testing.T) {
	names := make([]string, 0, len(kindNames))
	for _, k := range DefaultOrder() {
		names = append(names, k.String())
	}
	assert.Equal(t, []string{"Mutex", "Semaphore", "SemaphoreSlim", "Barrier", "SpinLock", "SpinWait"}, names)
	assert.Equal(t, "Monitor", KindMonitor.String())
	assert.Equal(t, "Unknown", Kind(42).String())
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"Mutex", KindMutex},
		{"semaphoreslim", KindSemaphoreSlim},
		{" SpinWait ", KindSpinWait},
		{"MONITOR", KindMonitor},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseKind("rwlock")
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestNewUnknownKind(t *testing.T) {
	_, err := New(Kind(-1), 4)
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestNewReturnsFreshInstances(t *testing.T) {
	for _, k := range append(DefaultOrder(), KindMonitor) {
		a, err := New(k, 2)
		require.NoError(t, err)
		b, err := New(k, 2)
		require.NoError(t, err)
		assert.Equal(t, k, a.Kind())
		assert.NotSame(t, a.(interface{ Unwrap() any }).Unwrap(), b.(interface{ Unwrap() any }).Unwrap(), k.String())
	}
}

func TestMutualExclusion(t *testing.T) {
	kinds := []Kind{KindMutex, KindSemaphore, KindSpinLock, KindSpinWait}
	for _, k := range kinds {
		for _, threads := range []int{2, 4, 8} {
			t.Run(fmt.Sprintf("%s/%d", k, threads), func(t *testing.T) {
				c, err := New(k, threads)
				require.NoError(t, err)

				var occ occupancy
				// 非原子计数：只有互斥成立时才不会丢失更新
				plain := 0
				contend(t, c, threads, 500, func() {
					occ.enter()
					plain++
					occ.exit()
				})

				assert.Equal(t, int32(1), occ.peak.Load())
				assert.Equal(t, int32(0), occ.inside.Load())
				assert.Equal(t, threads*500, plain)
			})
		}
	}
}

func TestExclusiveLockTenByThousand(t *testing.T) {
	c, err := New(KindMutex, 10)
	require.NoError(t, err)

	var occ occupancy
	contend(t, c, 10, 1000, func() {
		occ.enter()
		occ.exit()
	})
	assert.Equal(t, int32(0), occ.inside.Load())
	assert.Equal(t, int32(1), occ.peak.Load())
}

func TestSemaphoreCountBounds(t *testing.T) {
	for _, initial := range []int{1, 3} {
		s := NewSemaphore(initial)
		c := lockCoordinator{kind: KindSemaphore, l: s}

		var occ occupancy
		var outOfRange atomic.Int32
		contend(t, c, 6, 300, func() {
			occ.enter()
			if n := s.Count(); n < 0 || n > initial-1 {
				outOfRange.Add(1)
			}
			occ.exit()
		})

		assert.Zero(t, outOfRange.Load())
		assert.LessOrEqual(t, occ.peak.Load(), int32(initial))
		assert.Equal(t, initial, s.Count())
		assert.Equal(t, initial, s.Initial())
	}
}

func TestSemaphoreBlocksWhenExhausted(t *testing.T) {
	s := NewSemaphore(1)
	s.Acquire()

	acquired := make(chan struct{})
	go func() {
		s.Acquire()
		close(acquired)
	}()

	require.Eventually(t, func() bool { return s.Blocked() == 1 }, time.Second, time.Millisecond)
	select {
	case <-acquired:
		t.Fatal("acquire returned while count was 0")
	default:
	}

	s.Release()
	<-acquired
	assert.Equal(t, 0, s.Count())
	s.Release()
	assert.Equal(t, 1, s.Count())
}

func TestSemaphoreSlimNeverBlocks(t *testing.T) {
	c, err := New(KindSemaphoreSlim, 10)
	require.NoError(t, err)
	s := c.(lockCoordinator).Unwrap().(*Semaphore)

	var occ occupancy
	contend(t, c, 10, 1000, func() {
		occ.enter()
		occ.exit()
	})

	assert.Zero(t, s.Blocked())
	assert.Equal(t, 10, s.Count())
	assert.LessOrEqual(t, occ.peak.Load(), int32(10))
}

func TestNewSemaphoreNegative(t *testing.T) {
	assert.Panics(t, func() { NewSemaphore(-1) })
}

func TestBarrierRendezvous(t *testing.T) {
	const (
		threads = 4
		iters   = 200
	)
	b := NewCyclicBarrier(threads)

	var arrived [iters]atomic.Int32
	var violations atomic.Int32
	var wg sync.WaitGroup
	wg.Add(threads)
	for g := 0; g < threads; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < iters; i++ {
				arrived[i].Add(1)
				b.ArriveAndWait()
				// 通过屏障时本代必须已全部到达
				if arrived[i].Load() != threads {
					violations.Add(1)
				}
				if b.Generation() < uint64(i+1) {
					violations.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, violations.Load())
	assert.Equal(t, uint64(iters), b.Generation())
}

func TestBarrierTenByThousand(t *testing.T) {
	c, err := New(KindBarrier, 10)
	require.NoError(t, err)

	var produced atomic.Int64
	contend(t, c, 10, 1000, func() { produced.Add(1) })

	b := c.(barrierCoordinator).Unwrap().(*CyclicBarrier)
	assert.Equal(t, uint64(1000), b.Generation())
	assert.Equal(t, int64(10*1000), produced.Load())
}

func TestBarrierSingleParty(t *testing.T) {
	b := NewCyclicBarrier(1)
	for i := 0; i < 3; i++ {
		b.ArriveAndWait()
	}
	assert.Equal(t, uint64(3), b.Generation())
	assert.Equal(t, 1, b.Threshold())
	assert.Panics(t, func() { NewCyclicBarrier(0) })
}

func TestSpinLocksHeldInsideCriticalSection(t *testing.T) {
	spin := NewSpinLock()
	yield := NewSpinWaitLock()

	var notHeld atomic.Int32
	contend(t, lockCoordinator{kind: KindSpinLock, l: spin}, 4, 200, func() {
		if !spin.Held() {
			notHeld.Add(1)
		}
	})
	contend(t, lockCoordinator{kind: KindSpinWait, l: yield}, 4, 200, func() {
		if !yield.Held() {
			notHeld.Add(1)
		}
	})

	assert.Zero(t, notHeld.Load())
	assert.False(t, spin.Held())
	assert.False(t, yield.Held())
}

func TestMonitorUnseededStalls(t *testing.T) {
	m := NewMonitor()
	require.False(t, m.Seeded())

	var entered atomic.Bool
	go func() {
		m.Enter()
		entered.Store(true)
	}()

	require.Never(t, entered.Load, 50*time.Millisecond, 5*time.Millisecond)
	m.Seed()
	require.Eventually(t, entered.Load, time.Second, time.Millisecond)
	assert.True(t, m.Seeded())
	assert.False(t, m.Ready())
}

func TestMonitorAlternation(t *testing.T) {
	c, err := New(KindMonitor, 4)
	require.NoError(t, err)
	c.(Seeder).Seed()
	m := c.(monitorCoordinator).Monitor

	var occ occupancy
	var readyInside atomic.Int32
	contend(t, c, 4, 300, func() {
		occ.enter()
		if m.Ready() {
			readyInside.Add(1)
		}
		occ.exit()
	})

	assert.Equal(t, int32(1), occ.peak.Load())
	assert.Zero(t, readyInside.Load())
	// 最后一个持有者交还了接力棒
	assert.True(t, m.Ready())
}
