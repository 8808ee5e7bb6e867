package workload

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"syncbench/internal/primitive"
)

func TestUnitProduceRange(t *testing.T) {
	u := NewUnit(7)
	for i := 0; i < 10000; i++ {
		c := u.Produce()
		require.GreaterOrEqual(t, c, byte(MinChar))
		require.LessOrEqual(t, c, byte(MaxChar))
		require.Equal(t, c, u.Last())
	}
}

func TestUnitDeterministicForSeed(t *testing.T) {
	a, b := NewUnit(42), NewUnit(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Produce(), b.Produce())
	}
}

// countingCoordinator 统计 Coordinate 调用次数
type countingCoordinator struct {
	mu    sync.Mutex
	calls int
}

func (c *countingCoordinator) Kind() primitive.Kind { return primitive.KindMutex }

func (c *countingCoordinator) Coordinate(work func()) {
	c.mu.Lock()
	c.calls++
	work()
	c.mu.Unlock()
}

func TestContend(t *testing.T) {
	c := &countingCoordinator{}
	u := NewUnit(1)

	assert.Equal(t, 5, Contend(c, u, 5))
	assert.Equal(t, 5, c.calls)
	assert.NotZero(t, u.Last())

	assert.Equal(t, 0, Contend(c, u, 0))
	assert.Equal(t, 5, c.calls)
}

func TestContendThroughBarrier(t *testing.T) {
	const threads, iters = 3, 20
	c, err := primitive.New(primitive.KindBarrier, threads)
	require.NoError(t, err)

	var wg sync.WaitGroup
	done := make([]int, threads)
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			done[i] = Contend(c, NewUnit(uint64(i)), iters)
		}()
	}
	wg.Wait()

	assert.Equal(t, []int{iters, iters, iters}, done)
}
