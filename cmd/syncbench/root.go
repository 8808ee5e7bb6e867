package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/google/gops/agent"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/xerrors"

	"syncbench/internal/bench"
	"syncbench/internal/config"
	"syncbench/internal/report"
)

// benchFlags 命令行覆盖项，只有显式设置的 flag 才覆盖配置文件
type benchFlags struct {
	configFile  string
	threads     int
	iterations  int
	phases      []string
	format      string
	steadyState bool
	seedMonitor bool
	metrics     bool
	gops        bool
	verbose     bool
}

func (f *benchFlags) bind(fs *pflag.FlagSet) {
	fs.StringVarP(&f.configFile, "config", "f", "", "config file (yaml/json/toml)")
	fs.IntVar(&f.threads, "threads", 10, "worker goroutines per phase")
	fs.IntVar(&f.iterations, "iterations", 1000, "iterations per worker")
	fs.StringSliceVar(&f.phases, "phases", nil, "phases to run in order, e.g. Mutex,SpinLock,Monitor")
	fs.StringVar(&f.format, "format", "text", "report format: text | json")
	fs.BoolVar(&f.steadyState, "steady-state", false, "exclude goroutine creation from the measured time")
	fs.BoolVar(&f.seedMonitor, "seed-monitor", false, "send the Monitor its initial signal so its phase can run")
	fs.BoolVar(&f.metrics, "metrics", false, "dump Prometheus metrics to stderr after the run")
	fs.BoolVar(&f.gops, "gops", false, "start the gops diagnostics agent")
}

// apply 把显式设置的 flag 写入配置
func (f *benchFlags) apply(fs *pflag.FlagSet, c *config.Config) {
	if fs.Changed("threads") {
		c.Bench.Threads = f.threads
	}
	if fs.Changed("iterations") {
		c.Bench.Iterations = f.iterations
	}
	if fs.Changed("phases") {
		c.Bench.Phases = f.phases
	}
	if fs.Changed("format") {
		c.Report.Format = f.format
	}
	if fs.Changed("steady-state") {
		c.Bench.SteadyState = f.steadyState
	}
	if fs.Changed("seed-monitor") {
		c.Bench.SeedMonitor = f.seedMonitor
	}
	if fs.Changed("metrics") {
		c.Report.Metrics = f.metrics
	}
	if fs.Changed("gops") {
		c.Diagnostics.Gops = f.gops
	}
}

func newRootCmd() *cobra.Command {
	flags := &benchFlags{}
	cmd := &cobra.Command{
		Use:           "syncbench",
		Short:         "Compare hand-built synchronization primitives under identical contention",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadConfig(flags, cmd.Flags())
			if err != nil {
				return err
			}
			setupLogging(c.Log, flags.verbose, cmd.ErrOrStderr())
			ctx, stop := interruptContext(cmd.Context())
			defer stop()
			return runBench(ctx, c, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	flags.bind(cmd.Flags())
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable info level logging")
	cmd.AddCommand(newTxaggCmd(&flags.verbose), newPhilosophersCmd(&flags.verbose))
	return cmd
}

func loadConfig(flags *benchFlags, fs *pflag.FlagSet) (config.Config, error) {
	c, err := config.Load(flags.configFile)
	if err != nil {
		return c, err
	}
	flags.apply(fs, &c)
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// setupLogging 初始化 logx。verbose 时输出 info 级别，否则只输出错误。
// 控制台模式写 w（stderr），stdout 留给报告。
func setupLogging(lc logx.LogConf, verbose bool, w io.Writer) {
	logx.MustSetup(lc)
	if verbose {
		logx.SetLevel(logx.InfoLevel)
	} else {
		logx.SetLevel(logx.ErrorLevel)
	}
	if lc.Mode == "" || lc.Mode == "console" {
		logx.SetWriter(logx.NewWriter(w))
	}
}

// interruptContext 第一次 Ctrl-C 取消 ctx 并恢复默认信号处理。
// 阶段内部不检查 ctx，再按一次 Ctrl-C 直接结束进程。
func interruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx, stop
}

// defaultLogConf 子命令不读配置文件，使用控制台输出
func defaultLogConf() logx.LogConf {
	return logx.LogConf{ServiceName: "syncbench", Mode: "console", Encoding: "plain", Level: "info"}
}

func runBench(ctx context.Context, c config.Config, stdout, stderr io.Writer) error {
	if c.Diagnostics.Gops {
		if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
			return xerrors.Errorf("start gops agent: %w", err)
		}
		defer agent.Close()
	}

	rep := report.NewReporter(report.WithOps(c.Bench.Threads * c.Bench.Iterations))
	opts := []bench.Option{bench.WithReporter(rep)}
	if c.Report.Format == "text" {
		opts = append(opts, bench.WithOutput(stdout))
	}
	var metrics *bench.Metrics
	if c.Report.Metrics {
		metrics = bench.NewMetrics()
		opts = append(opts, bench.WithMetrics(metrics))
	}

	if err := bench.NewRunner(c.Bench, opts...).Run(ctx); err != nil {
		return err
	}

	var err error
	if c.Report.Format == "json" {
		err = rep.WriteJSON(stdout)
	} else {
		err = rep.WriteText(stdout)
	}
	if err != nil {
		return err
	}
	if metrics != nil {
		return metrics.WriteText(stderr)
	}
	return nil
}
