package bench

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"syncbench/internal/config"
	"syncbench/internal/primitive"
	"syncbench/internal/report"
	"syncbench/internal/workload"
)

// State 阶段状态机: Idle -> Running -> Joining -> Recorded
type State int

const (
	StateIdle State = iota
	StateRunning
	StateJoining
	StateRecorded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateJoining:
		return "Joining"
	case StateRecorded:
		return "Recorded"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Observer 在每次状态迁移时被调用，只在协调 goroutine 上执行
type Observer func(kind primitive.Kind, state State)

// Runner 依次运行各阶段，每个阶段用一个全新的原语实例驱动固定数量的 worker
type Runner struct {
	cfg      config.Bench
	out      io.Writer
	reporter *report.Reporter
	metrics  *Metrics
	observe  Observer
}

// Option 配置 Runner
type Option func(r *Runner)

// WithOutput 设置每阶段标题与耗时的输出位置
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

func WithReporter(rep *report.Reporter) Option {
	return func(r *Runner) { r.reporter = rep }
}

func WithMetrics(m *Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observe = o }
}

func NewRunner(cfg config.Bench, opts ...Option) *Runner {
	r := &Runner{cfg: cfg, out: io.Discard}
	for _, opt := range opts {
		opt(r)
	}
	if r.reporter == nil {
		r.reporter = report.NewReporter(report.WithOps(cfg.Threads * cfg.Iterations))
	}
	return r
}

// Reporter 返回收集结果的 Reporter
func (r *Runner) Reporter() *report.Reporter { return r.reporter }

// Run 按顺序运行 kinds 中的各阶段，为空时使用配置中的阶段列表。
// ctx 只在阶段之间检查，阶段内部的等待不可取消。
func (r *Runner) Run(ctx context.Context, kinds ...primitive.Kind) error {
	if len(kinds) == 0 {
		var err error
		if kinds, err = r.cfg.Kinds(); err != nil {
			return err
		}
	}
	for _, kind := range kinds {
		if err := ctx.Err(); err != nil {
			return xerrors.Errorf("before phase %s: %w", kind, err)
		}
		if _, err := r.RunPhase(ctx, kind); err != nil {
			return err
		}
	}
	return nil
}

// RunPhase 运行单个阶段并记录结果
func (r *Runner) RunPhase(ctx context.Context, kind primitive.Kind) (time.Duration, error) {
	logger := logx.WithContext(ctx)
	r.transition(kind, StateIdle)

	c, err := primitive.New(kind, r.cfg.Threads)
	if err != nil {
		return 0, err
	}
	if s, ok := c.(primitive.Seeder); ok && !s.Seeded() {
		if !r.cfg.SeedMonitor {
			return 0, xerrors.Errorf("phase %s: %w", kind, primitive.ErrNotSeeded)
		}
		s.Seed()
	}

	fmt.Fprintf(r.out, "%s:\n", kind)
	elapsed := r.spawnAndJoin(kind, c)

	seconds := elapsed.Seconds()
	if err := r.reporter.Record(kind.String(), seconds); err != nil {
		return elapsed, err
	}
	if r.metrics != nil {
		r.metrics.observe(kind.String(), seconds, r.cfg.Threads*r.cfg.Iterations)
	}
	r.transition(kind, StateRecorded)
	fmt.Fprintf(r.out, "%s Time taken: %g seconds\n", kind, seconds)
	logger.Infow("phase recorded",
		logx.Field("primitive", kind.String()),
		logx.Field("threads", r.cfg.Threads),
		logx.Field("iterations", r.cfg.Iterations),
		logx.Field("elapsed", elapsed))
	return elapsed, nil
}

// spawnAndJoin 启动全部 worker 后阻塞等待它们结束，返回计时。
// 默认从开始创建 goroutine 计到最后一个 join 返回；SteadyState 时从起跑闸门打开计起。
func (r *Runner) spawnAndJoin(kind primitive.Kind, c primitive.Coordinator) time.Duration {
	var (
		g     errgroup.Group
		gate  = make(chan struct{})
		seed  = r.cfg.Seed
		start time.Time
	)
	if seed == 0 {
		seed = rand.Uint64()
	}

	r.transition(kind, StateRunning)
	if !r.cfg.SteadyState {
		start = time.Now()
		close(gate)
	}
	for i := 0; i < r.cfg.Threads; i++ {
		unit := workload.NewUnit(seed + uint64(i))
		g.Go(func() error {
			<-gate
			workload.Contend(c, unit, r.cfg.Iterations)
			return nil
		})
	}
	r.transition(kind, StateJoining)
	if r.cfg.SteadyState {
		start = time.Now()
		close(gate)
	}
	_ = g.Wait()
	return time.Since(start)
}

func (r *Runner) transition(kind primitive.Kind, s State) {
	logx.Debugw("phase transition", logx.Field("primitive", kind.String()), logx.Field("state", s.String()))
	if r.observe != nil {
		r.observe(kind, s)
	}
}
