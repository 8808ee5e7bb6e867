package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"syncbench/internal/philosophers"
)

func newPhilosophersCmd(verbose *bool) *cobra.Command {
	var (
		strategy string
		cfg      = philosophers.Config{}
	)
	cmd := &cobra.Command{
		Use:   "philosophers",
		Short: "Dining philosophers with a deadlock-avoidance strategy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.Strategy = philosophers.Strategy(strategy)
			table, err := philosophers.NewTable(cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			setupLogging(defaultLogConf(), *verbose, cmd.ErrOrStderr())

			ctx, stop := interruptContext(cmd.Context())
			defer stop()
			stats, err := table.Dine(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for id := range stats.Meals {
				fmt.Fprintf(out, "Philosopher %d: meals=%d skipped=%d\n", id, stats.Meals[id], stats.Skipped[id])
			}
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&strategy, "strategy", string(philosophers.StrategyTryLock), "trylock | ordered")
	fs.IntVar(&cfg.Count, "count", 5, "number of philosophers (and forks)")
	fs.IntVar(&cfg.Rounds, "rounds", 10, "attempts per philosopher, 0 runs until interrupted")
	fs.DurationVar(&cfg.Think, "think", time.Second, "thinking time per round")
	fs.DurationVar(&cfg.Eat, "eat", time.Second, "eating time per meal")
	return cmd
}
