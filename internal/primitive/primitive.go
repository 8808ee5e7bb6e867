package primitive

import (
	"errors"
	"strings"

	"golang.org/x/xerrors"
)

// Kind 标识一种同步原语
type Kind int

const (
	KindMutex Kind = iota
	KindSemaphore
	KindSemaphoreSlim
	KindBarrier
	KindSpinLock
	KindSpinWait
	KindMonitor
)

var kindNames = [...]string{
	KindMutex:         "Mutex",
	KindSemaphore:     "Semaphore",
	KindSemaphoreSlim: "SemaphoreSlim",
	KindBarrier:       "Barrier",
	KindSpinLock:      "SpinLock",
	KindSpinWait:      "SpinWait",
	KindMonitor:       "Monitor",
}

// ErrUnknownKind 名称无法解析为已知原语
var ErrUnknownKind = errors.New("unknown primitive kind")

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// ParseKind 按名称（不区分大小写）解析原语类型
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Kind(k), nil
		}
	}
	return 0, xerrors.Errorf("%q: %w", name, ErrUnknownKind)
}

// DefaultOrder 返回默认运行顺序。
// Monitor 不在其中：它需要外部的首个信号才能前进，见 Monitor.Seed。
func DefaultOrder() []Kind {
	return []Kind{KindMutex, KindSemaphore, KindSemaphoreSlim, KindBarrier, KindSpinLock, KindSpinWait}
}

// Locker 是 acquire/release 形态的互斥契约
type Locker interface {
	Acquire()
	Release()
}

// Coordinator 用某种原语包裹一次工作单元。
// 锁类原语: Acquire -> work -> Release；屏障: work -> ArriveAndWait。
type Coordinator interface {
	Kind() Kind
	Coordinate(work func())
}

// Seeder 由需要外部初始信号的原语实现
type Seeder interface {
	Seed()
	Seeded() bool
}

// New 为一个阶段创建全新的原语实例，parties 为该阶段的 worker 数。
// 实例只在本阶段内共享，不跨阶段复用。
func New(kind Kind, parties int) (Coordinator, error) {
	switch kind {
	case KindMutex:
		return lockCoordinator{kind: kind, l: NewExclusiveLock()}, nil
	case KindSemaphore:
		return lockCoordinator{kind: kind, l: NewSemaphore(1)}, nil
	case KindSemaphoreSlim:
		return lockCoordinator{kind: kind, l: NewSemaphore(parties)}, nil
	case KindBarrier:
		return barrierCoordinator{b: NewCyclicBarrier(parties)}, nil
	case KindSpinLock:
		return lockCoordinator{kind: kind, l: NewSpinLock()}, nil
	case KindSpinWait:
		return lockCoordinator{kind: kind, l: NewSpinWaitLock()}, nil
	case KindMonitor:
		return monitorCoordinator{NewMonitor()}, nil
	}
	return nil, xerrors.Errorf("kind %d: %w", int(kind), ErrUnknownKind)
}

type lockCoordinator struct {
	kind Kind
	l    Locker
}

func (c lockCoordinator) Kind() Kind { return c.kind }

func (c lockCoordinator) Coordinate(work func()) {
	c.l.Acquire()
	work()
	c.l.Release()
}

// Unwrap 返回底层原语，测试中用于观察内部状态
func (c lockCoordinator) Unwrap() any { return c.l }

type barrierCoordinator struct {
	b *CyclicBarrier
}

func (c barrierCoordinator) Kind() Kind { return KindBarrier }

func (c barrierCoordinator) Coordinate(work func()) {
	work()
	c.b.ArriveAndWait()
}

func (c barrierCoordinator) Unwrap() any { return c.b }

// monitorCoordinator 嵌入 *Monitor，因此同时实现 Seeder
type monitorCoordinator struct {
	*Monitor
}

func (c monitorCoordinator) Kind() Kind { return KindMonitor }

func (c monitorCoordinator) Coordinate(work func()) {
	c.Enter()
	work()
	c.Signal()
}

func (c monitorCoordinator) Unwrap() any { return c.Monitor }
