package workload

import (
	"math/rand/v2"

	"syncbench/internal/primitive"
)

// 工作单元产出的可打印 ASCII 字符范围
const (
	MinChar = 32
	MaxChar = 126
)

// Unit 模拟临界区内的最小工作量：产出一个伪随机可打印字符。
// 每个 worker 独占一个 Unit，不在 goroutine 之间共享。
type Unit struct {
	rng  *rand.Rand
	last byte
}

// NewUnit 用给定种子创建工作单元，相同种子产出相同序列
func NewUnit(seed uint64) *Unit {
	return &Unit{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Produce 产出一个 [MinChar, MaxChar] 内的字符
func (u *Unit) Produce() byte {
	u.last = byte(MinChar + u.rng.IntN(MaxChar-MinChar+1))
	return u.last
}

// Last 最近一次产出的字符，防止结果被优化掉
func (u *Unit) Last() byte { return u.last }

// Contend 是单个 worker 的循环：iterations 次经 c 协调的 Produce。
// 返回完成的迭代数。
func Contend(c primitive.Coordinator, u *Unit, iterations int) int {
	work := func() { u.Produce() }
	done := 0
	for ; done < iterations; done++ {
		c.Coordinate(work)
	}
	return done
}
