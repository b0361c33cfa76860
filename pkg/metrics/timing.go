// Package metrics keeps in-process timing counters for the filter, the
// loaders and the renderer. `hv --robot --timings` reports them.
//
// Collection is on unless HV_METRICS=0 is set.
//
//	defer metrics.Timer(metrics.TreeFilter)()
package metrics

import (
	"os"
	"sync/atomic"
	"time"
)

var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("HV_METRICS") != "0")
}

// Enabled reports whether timings are being collected.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled turns collection on or off.
func SetEnabled(on bool) {
	enabled.Store(on)
}

// Op accumulates the durations of one named operation. It is safe for
// concurrent use.
type Op struct {
	name  string
	count atomic.Int64
	total atomic.Int64 // ns
	max   atomic.Int64 // ns
	min   atomic.Int64 // ns, 0 until the first sample
}

// registry lists every Op in declaration order.
var registry []*Op

func newOp(name string) *Op {
	op := &Op{name: name}
	registry = append(registry, op)
	return op
}

// Timed operations.
var (
	TreeFilter   = newOp("tree_filter")
	NodeCount    = newOp("node_count")
	DatasetLoad  = newOp("dataset_load")
	JSONParsing  = newOp("json_parsing")
	CycleCheck   = newOp("cycle_check")
	SQLiteExport = newOp("sqlite_export")
	UIRender     = newOp("ui_render")
)

// Record adds one sample.
func (op *Op) Record(d time.Duration) {
	if !Enabled() {
		return
	}
	ns := d.Nanoseconds()
	op.count.Add(1)
	op.total.Add(ns)
	for cur := op.max.Load(); ns > cur; cur = op.max.Load() {
		if op.max.CompareAndSwap(cur, ns) {
			break
		}
	}
	for cur := op.min.Load(); cur == 0 || ns < cur; cur = op.min.Load() {
		if op.min.CompareAndSwap(cur, ns) {
			break
		}
	}
}

// Count returns the number of samples.
func (op *Op) Count() int64 {
	return op.count.Load()
}

// Reset drops all samples.
func (op *Op) Reset() {
	op.count.Store(0)
	op.total.Store(0)
	op.max.Store(0)
	op.min.Store(0)
}

// TimingStats is a snapshot of one Op, in milliseconds.
type TimingStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	MinMs   float64 `json:"min_ms,omitempty"`
}

// Stats returns a snapshot of op.
func (op *Op) Stats() TimingStats {
	n, total := op.count.Load(), op.total.Load()
	s := TimingStats{
		Name:    op.name,
		Count:   n,
		TotalMs: ms(total),
		MaxMs:   ms(op.max.Load()),
		MinMs:   ms(op.min.Load()),
	}
	if n > 0 {
		s.AvgMs = ms(total / n)
	}
	return s
}

func ms(ns int64) float64 {
	return float64(ns) / float64(time.Millisecond)
}

// Timer starts timing op and returns the function that records the
// sample.
func Timer(op *Op) func() {
	if op == nil || !Enabled() {
		return func() {}
	}
	start := time.Now()
	return func() {
		op.Record(time.Since(start))
	}
}

// AllTimingStats returns snapshots of the operations that have samples.
func AllTimingStats() []TimingStats {
	stats := make([]TimingStats, 0, len(registry))
	for _, op := range registry {
		if op.Count() > 0 {
			stats = append(stats, op.Stats())
		}
	}
	return stats
}

// ResetAll drops the samples of every operation.
func ResetAll() {
	for _, op := range registry {
		op.Reset()
	}
}
