package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"syncbench/internal/txagg"
)

const txaggUsage = "txagg <transaction_count> <thread_count> <operation> <start_date_days_ago> <end_date_days_ago>"

type txaggArgs struct {
	count        int
	threads      int
	operation    string
	startDaysAgo int
	endDaysAgo   int
}

// parseTxaggArgs 解析并校验位置参数，任何格式错误都按用法错误处理
func parseTxaggArgs(args []string) (txaggArgs, error) {
	var a txaggArgs
	if len(args) != 5 {
		return a, xerrors.Errorf("usage: %s", txaggUsage)
	}
	ints := []*int{&a.count, &a.threads, nil, &a.startDaysAgo, &a.endDaysAgo}
	for i, dst := range ints {
		if dst == nil {
			continue
		}
		n, err := cast.ToIntE(args[i])
		if err != nil {
			return a, xerrors.Errorf("argument %d %q is not an integer (usage: %s): %w", i+1, args[i], txaggUsage, err)
		}
		*dst = n
	}
	a.operation = args[2]
	if a.count < 0 {
		return a, xerrors.Errorf("transaction_count must be >= 0, got %d", a.count)
	}
	if a.threads < 1 {
		return a, xerrors.Errorf("thread_count must be >= 1, got %d", a.threads)
	}
	return a, nil
}

func newTxaggCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   txaggUsage,
		Short: "Sum filtered transactions single- and multi-threaded",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := parseTxaggArgs(args)
			if err != nil {
				return err
			}
			setupLogging(defaultLogConf(), *verbose, cmd.ErrOrStderr())
			return runTxagg(cmd, a, time.Now())
		},
	}
}

func runTxagg(cmd *cobra.Command, a txaggArgs, now time.Time) error {
	out := cmd.OutOrStdout()
	txs := txagg.Generate(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), now, a.count)
	f := txagg.Window(now, a.operation, a.startDaysAgo, a.endDaysAgo)

	if err := txagg.Print(out, txs, f); err != nil {
		return err
	}

	single := measure(out, "Single Thread", func() (float64, error) {
		return txagg.SumSequential(txs, f), nil
	})
	fmt.Fprintf(out, "Single Thread Result: %.2f\n", single)

	multi := measure(out, "Multi Thread", func() (float64, error) {
		return txagg.SumParallel(cmd.Context(), txs, f, a.threads)
	})
	fmt.Fprintf(out, "Multi Thread Result: %.2f\n", multi)
	return nil
}

func measure(out io.Writer, name string, fn func() (float64, error)) float64 {
	start := time.Now()
	result, err := fn()
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprintf(out, "%-20s: failed: %v\n", name, err)
		return 0
	}
	fmt.Fprintf(out, "%-20s: %d ms, Result: %.2f\n", name, elapsed.Milliseconds(), result)
	return result
}
