package txagg

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"
)

// 交易类型
const (
	OpDeposit    = "deposit"
	OpWithdrawal = "withdrawal"
	OpTransfer   = "transfer"
	OpPayment    = "payment"
)

// Operations 全部交易类型
var Operations = []string{OpDeposit, OpWithdrawal, OpTransfer, OpPayment}

const day = 24 * time.Hour

// Transaction 一笔银行交易
type Transaction struct {
	Holder    string
	Card      string
	Date      time.Time
	Operation string
	Amount    float64
}

// Filter 按类型与日期区间（闭区间）筛选
type Filter struct {
	Operation string
	From      time.Time
	To        time.Time
}

// Window 以“几天前”构造筛选区间，startDaysAgo 通常大于 endDaysAgo
func Window(now time.Time, op string, startDaysAgo, endDaysAgo int) Filter {
	return Filter{
		Operation: op,
		From:      now.Add(-time.Duration(startDaysAgo) * day),
		To:        now.Add(-time.Duration(endDaysAgo) * day),
	}
}

func (f Filter) Match(t Transaction) bool {
	return t.Operation == f.Operation && !t.Date.Before(f.From) && !t.Date.After(f.To)
}

// Generate 生成 n 笔随机交易，日期落在 now 之前 1~365 天
func Generate(rng *rand.Rand, now time.Time, n int) []Transaction {
	txs := make([]Transaction, n)
	for i := range txs {
		txs[i] = Transaction{
			Holder:    fmt.Sprintf("Holder %d", i),
			Card:      fmt.Sprintf("1234-5678-9012-%d", i),
			Date:      now.Add(-time.Duration(1+rng.IntN(365)) * day),
			Operation: Operations[rng.IntN(len(Operations))],
			Amount:    100 + rng.Float64()*9900,
		}
	}
	return txs
}

// SumSequential 单 goroutine 汇总
func SumSequential(txs []Transaction, f Filter) float64 {
	var sum float64
	for _, t := range txs {
		if f.Match(t) {
			sum += t.Amount
		}
	}
	return sum
}

// SumParallel 按连续分块并行汇总，最后一块承担余数。
// 每个 worker 只写自己的部分和，最后在调用方合并。
func SumParallel(ctx context.Context, txs []Transaction, f Filter, workers int) (float64, error) {
	if workers < 1 {
		workers = 1
	}
	partial := make([]float64, workers)
	chunk := len(txs) / workers

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		lo, hi := i*chunk, (i+1)*chunk
		if i == workers-1 {
			hi = len(txs)
		}
		g.Go(func() error {
			for _, t := range txs[lo:hi] {
				if f.Match(t) {
					partial[i] += t.Amount
				}
			}
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var sum float64
	for _, p := range partial {
		sum += p
	}
	return sum, nil
}

// Print 以表格输出匹配的交易
func Print(w io.Writer, txs []Transaction, f Filter) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Holder Name\tCard Number\tDate\tOperation\tAmount")
	for _, t := range txs {
		if f.Match(t) {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\n",
				t.Holder, t.Card, t.Date.Local().Format(time.DateTime), t.Operation, t.Amount)
		}
	}
	return tw.Flush()
}
