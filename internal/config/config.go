package config

import (
	"errors"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/xerrors"

	"syncbench/internal/primitive"
)

// ErrInvalid 配置校验失败
var ErrInvalid = errors.New("invalid config")

// Config syncbench 的全部配置
type Config struct {
	Log         logx.LogConf
	Bench       Bench
	Report      Report
	Diagnostics Diagnostics
}

// Bench 基准运行参数
type Bench struct {
	// Threads 每个阶段的 worker 数
	Threads int `json:",default=10"`
	// Iterations 每个 worker 的迭代次数
	Iterations int `json:",default=1000"`
	// Phases 按名称指定运行顺序，为空时使用默认的六个阶段
	Phases []string `json:",optional"`
	// SteadyState 为 true 时只计量起跑闸门打开之后的部分，不含 goroutine 创建
	SteadyState bool `json:",optional"`
	// SeedMonitor 允许运行器在 Monitor 阶段开始前发出首个信号
	SeedMonitor bool `json:",optional"`
	// Seed 工作单元随机数种子，0 表示每次运行随机
	Seed uint64 `json:",optional"`
}

// Report 结果输出
type Report struct {
	Format string `json:",default=text,options=text|json"`
	// Metrics 为 true 时在结束后以 Prometheus 文本格式输出指标
	Metrics bool `json:",optional"`
}

// Diagnostics 诊断相关
type Diagnostics struct {
	// Gops 为 true 时启动 gops agent，便于排查卡死的阶段
	Gops bool `json:",optional"`
}

// Load 从文件加载配置；path 为空时只填充默认值
func Load(path string) (Config, error) {
	var c Config
	if path == "" {
		if err := conf.FillDefault(&c); err != nil {
			return c, xerrors.Errorf("fill default config: %w", err)
		}
	} else if err := conf.Load(path, &c, conf.UseEnv()); err != nil {
		return c, xerrors.Errorf("load config %s: %w", path, err)
	}
	return c, c.Validate()
}

// Validate 校验字段取值
func (c Config) Validate() error {
	if err := c.Bench.Validate(); err != nil {
		return err
	}
	switch c.Report.Format {
	case "text", "json":
	default:
		return xerrors.Errorf("Report.Format %q: %w", c.Report.Format, ErrInvalid)
	}
	return nil
}

func (b Bench) Validate() error {
	if b.Threads < 1 {
		return xerrors.Errorf("Bench.Threads must be >= 1, got %d: %w", b.Threads, ErrInvalid)
	}
	if b.Iterations < 0 {
		return xerrors.Errorf("Bench.Iterations must be >= 0, got %d: %w", b.Iterations, ErrInvalid)
	}
	_, err := b.Kinds()
	return err
}

// Kinds 把 Phases 解析为原语类型，名称重复视为错误
func (b Bench) Kinds() ([]primitive.Kind, error) {
	if len(b.Phases) == 0 {
		return primitive.DefaultOrder(), nil
	}
	seen := make(map[primitive.Kind]bool, len(b.Phases))
	kinds := make([]primitive.Kind, 0, len(b.Phases))
	for _, name := range b.Phases {
		k, err := primitive.ParseKind(name)
		if err != nil {
			return nil, xerrors.Errorf("Bench.Phases: %w", err)
		}
		if seen[k] {
			return nil, xerrors.Errorf("Bench.Phases: %s listed twice: %w", k, ErrInvalid)
		}
		seen[k] = true
		kinds = append(kinds, k)
	}
	return kinds, nil
}
