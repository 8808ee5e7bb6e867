package report

import (
	"errors"
	"io"
	"slices"
	"sync"

	"github.com/bytedance/sonic"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/xerrors"
)

// ErrDuplicate 同名结果已被记录
var ErrDuplicate = errors.New("duplicate result")

// Entry 一个阶段的结果：原语名称与耗时（秒），写入后不可变
type Entry struct {
	Name    string  `json:"name"`
	Seconds float64 `json:"seconds"`
}

// Ranked 排序后的结果，Rank 从 1 开始
type Ranked struct {
	Rank int `json:"rank"`
	Entry
	OpsPerSecond float64 `json:"ops_per_second,omitempty"`
}

// Reporter 收集各阶段结果并输出排名
type Reporter struct {
	mu      sync.Mutex
	entries []Entry
	index   map[string]struct{}
	ops     int
}

// Option 配置 Reporter
type Option func(r *Reporter)

// WithOps 设置每个阶段的总操作数，用于计算吞吐
func WithOps(ops int) Option {
	return func(r *Reporter) { r.ops = ops }
}

func NewReporter(opts ...Option) *Reporter {
	r := &Reporter{index: make(map[string]struct{})}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record 记录一个阶段的结果，重复名称返回 ErrDuplicate
func (r *Reporter) Record(name string, seconds float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.index[name]; ok {
		return xerrors.Errorf("%s: %w", name, ErrDuplicate)
	}
	r.index[name] = struct{}{}
	r.entries = append(r.entries, Entry{Name: name, Seconds: seconds})
	return nil
}

// Entries 按记录顺序返回全部结果
func (r *Reporter) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.entries)
}

// Ranked 按耗时升序排列，耗时相同时保持记录顺序
func (r *Reporter) Ranked() []Ranked {
	entries := r.Entries()
	slices.SortStableFunc(entries, func(a, b Entry) int {
		switch {
		case a.Seconds < b.Seconds:
			return -1
		case a.Seconds > b.Seconds:
			return 1
		}
		return 0
	})

	ranked := make([]Ranked, len(entries))
	for i, e := range entries {
		ranked[i] = Ranked{Rank: i + 1, Entry: e}
		if r.ops > 0 && e.Seconds > 0 {
			ranked[i].OpsPerSecond = float64(r.ops) / e.Seconds
		}
	}
	return ranked
}

// WriteText 输出对比表
func (r *Reporter) WriteText(w io.Writer) error {
	p := message.NewPrinter(language.English)
	if _, err := p.Fprintf(w, "\nComparison of synchronization primitives:\n"); err != nil {
		return err
	}
	for _, e := range r.Ranked() {
		var err error
		if e.OpsPerSecond > 0 {
			_, err = p.Fprintf(w, "%s: %.6f seconds (%.0f ops/s)\n", e.Name, e.Seconds, e.OpsPerSecond)
		} else {
			_, err = p.Fprintf(w, "%s: %.6f seconds\n", e.Name, e.Seconds)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

type jsonReport struct {
	Ops     int      `json:"ops,omitempty"`
	Results []Ranked `json:"results"`
}

// WriteJSON 以 JSON 输出排名
func (r *Reporter) WriteJSON(w io.Writer) error {
	data, err := sonic.ConfigStd.MarshalIndent(jsonReport{Ops: r.ops, Results: r.Ranked()}, "", "  ")
	if err != nil {
		return xerrors.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
