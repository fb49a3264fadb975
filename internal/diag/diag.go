// Package diag provides throttled progress logging and optional
// memory/goroutine sampling for long-running cyclefind runs, grounded on the
// progress-throttling pattern the corpus uses for long syncs.
package diag

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

// maxLogFrequency caps how often Progress logs a repeated event, so a run
// over thousands of groups doesn't flood stderr with one line per group.
const maxLogFrequency = 5 * time.Second

// Progress tracks per-phase counters and throttles their log lines. It is
// safe for concurrent use, since the optional parallel-bucket mode drives
// BucketDone/GroupDone from multiple goroutines.
type Progress struct {
	mu               sync.Mutex
	totalBuckets     int
	bucketsProcessed int
	groupsProcessed  int
	lastBucketLog    time.Time
	lastGroupLog     time.Time
}

// NewProgress builds a Progress tracker for a run partitioning into
// totalBuckets buckets.
func NewProgress(totalBuckets int) *Progress {
	return &Progress{totalBuckets: totalBuckets}
}

// BucketDone records one finished bucket and logs at most once per
// maxLogFrequency.
func (p *Progress) BucketDone(ctx context.Context) {
	p.mu.Lock()
	p.bucketsProcessed++
	done, total := p.bucketsProcessed, p.totalBuckets
	log := time.Since(p.lastBucketLog) >= maxLogFrequency || done == total
	if log {
		p.lastBucketLog = time.Now()
	}
	p.mu.Unlock()

	if log {
		ctxzap.Extract(ctx).Info("bucket processed",
			zap.Int("buckets_processed", done),
			zap.Int("buckets_total", total),
		)
	}
}

// GroupDone records one finished (claim_id, status_code) group.
func (p *Progress) GroupDone(ctx context.Context) {
	p.mu.Lock()
	p.groupsProcessed++
	count := p.groupsProcessed
	log := time.Since(p.lastGroupLog) >= maxLogFrequency
	if log {
		p.lastGroupLog = time.Now()
	}
	p.mu.Unlock()

	if log {
		ctxzap.Extract(ctx).Info("groups processed", zap.Int("count", count))
	}
}

// LogMemory samples system-wide memory usage (gopsutil's VirtualMemory, not
// the process's own RSS) and the goroutine count and attaches them to a log
// line. internal/detector calls it once at the end of the run when
// --diagnostics is set.
func LogMemory(ctx context.Context, msg string) {
	l := ctxzap.Extract(ctx)
	vm, err := mem.VirtualMemory()
	if err != nil {
		l.Warn("failed to sample memory", zap.Error(err))
		return
	}
	l.Info(msg,
		zap.Uint64("mem_used_bytes", vm.Used),
		zap.Float64("mem_used_percent", vm.UsedPercent),
		zap.Int("goroutines", runtime.NumGoroutine()),
	)
}
