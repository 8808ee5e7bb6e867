package philosophers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

// Strategy 避免死锁的取叉策略
type Strategy string

const (
	// StrategyTryLock 先锁左叉，再尝试右叉，拿不到就放弃本轮
	StrategyTryLock Strategy = "trylock"
	// StrategyOrdered 资源分级：总是先锁编号较小的叉子
	StrategyOrdered Strategy = "ordered"
)

var ErrUnknownStrategy = errors.New("unknown strategy")

// Config 一次就餐模拟的参数
type Config struct {
	Count    int
	Rounds   int // 每位哲学家的尝试轮数，0 表示直到 ctx 结束
	Think    time.Duration
	Eat      time.Duration
	Strategy Strategy
}

// Stats 每位哲学家的就餐与放弃次数
type Stats struct {
	Meals   []int
	Skipped []int
}

func (s Stats) TotalMeals() int {
	n := 0
	for _, m := range s.Meals {
		n += m
	}
	return n
}

// Table 圆桌：Count 把叉子，每把叉子一把互斥锁
type Table struct {
	cfg   Config
	forks []sync.Mutex
	out   io.Writer
	// holders 记录每把叉子当前的持有者数量，用于验证互斥
	holders []atomic.Int32
	clashes atomic.Int32
}

func NewTable(cfg Config, out io.Writer) (*Table, error) {
	if cfg.Count < 2 {
		return nil, xerrors.Errorf("need at least 2 philosophers, got %d", cfg.Count)
	}
	switch cfg.Strategy {
	case StrategyTryLock, StrategyOrdered:
	default:
		return nil, xerrors.Errorf("%q: %w", cfg.Strategy, ErrUnknownStrategy)
	}
	if out == nil {
		out = io.Discard
	}
	return &Table{
		cfg:     cfg,
		forks:   make([]sync.Mutex, cfg.Count),
		out:     out,
		holders: make([]atomic.Int32, cfg.Count),
	}, nil
}

// Clashes 同一把叉子被同时持有的次数，正确实现下恒为 0
func (t *Table) Clashes() int { return int(t.clashes.Load()) }

// Dine 运行模拟，直到轮数用完或 ctx 结束
func (t *Table) Dine(ctx context.Context) (Stats, error) {
	stats := Stats{Meals: make([]int, t.cfg.Count), Skipped: make([]int, t.cfg.Count)}
	var outMu sync.Mutex
	say := func(format string, args ...any) {
		outMu.Lock()
		fmt.Fprintf(t.out, format, args...)
		outMu.Unlock()
	}

	g, ctx := errgroup.WithContext(ctx)
	for id := 0; id < t.cfg.Count; id++ {
		g.Go(func() error {
			left, right := id, (id+1)%t.cfg.Count
			for round := 0; t.cfg.Rounds == 0 || round < t.cfg.Rounds; round++ {
				say("Philosopher %d is thinking.\n", id)
				if !sleep(ctx, t.cfg.Think) {
					return nil
				}
				ate := t.attempt(left, right, func() {
					say("Philosopher %d is eating.\n", id)
					sleep(ctx, t.cfg.Eat)
				})
				// 每位哲学家只写自己的下标
				if ate {
					stats.Meals[id]++
				} else {
					stats.Skipped[id]++
				}
			}
			return nil
		})
	}
	err := g.Wait()
	logx.Infow("dining finished",
		logx.Field("strategy", string(t.cfg.Strategy)),
		logx.Field("meals", stats.TotalMeals()))
	return stats, err
}

func (t *Table) attempt(left, right int, eat func()) bool {
	switch t.cfg.Strategy {
	case StrategyOrdered:
		first, second := min(left, right), max(left, right)
		t.take(first)
		t.take(second)
		eat()
		t.put(second)
		t.put(first)
		return true
	default:
		t.take(left)
		defer t.put(left)
		if !t.forks[right].TryLock() {
			return false
		}
		t.hold(right)
		eat()
		t.put(right)
		return true
	}
}

func (t *Table) take(i int) {
	t.forks[i].Lock()
	t.hold(i)
}

func (t *Table) hold(i int) {
	if t.holders[i].Add(1) > 1 {
		t.clashes.Add(1)
	}
}

func (t *Table) put(i int) {
	t.holders[i].Add(-1)
	t.forks[i].Unlock()
}

// sleep 在 ctx 结束时提前返回 false
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
