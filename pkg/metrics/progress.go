package metrics

import (
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// DefaultProgressEvery is the record interval between progress reports
const DefaultProgressEvery int64 = 100000

// ProgressReporter logs a progress line every N records. It is driven by
// the caller's loop and is not safe for concurrent use.
type ProgressReporter struct {
	logger *zap.Logger
	every  int64
	total  int64

	processed  int64
	startTime  time.Time
	lastReport time.Time
	lastCount  int64
	reports    int

	proc *process.Process
}

// NewProgressReporter creates a reporter that logs every `every` records.
// A non-positive interval falls back to DefaultProgressEvery.
func NewProgressReporter(logger *zap.Logger, every int64) *ProgressReporter {
	if every <= 0 {
		every = DefaultProgressEvery
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	now := time.Now()
	pr := &ProgressReporter{
		logger:     logger,
		every:      every,
		startTime:  now,
		lastReport: now,
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		pr.proc = proc
	}
	return pr
}

// SetTotal sets the expected number of records, 0 if unknown
func (pr *ProgressReporter) SetTotal(total int64) {
	pr.total = total
}

// Increment counts one record and reports when the interval is reached
func (pr *ProgressReporter) Increment() {
	pr.processed++
	if pr.processed%pr.every == 0 {
		pr.report()
	}
}

// Processed returns the number of records counted so far
func (pr *ProgressReporter) Processed() int64 {
	return pr.processed
}

// Reports returns how many progress lines have been logged
func (pr *ProgressReporter) Reports() int {
	return pr.reports
}

func (pr *ProgressReporter) report() {
	now := time.Now()
	interval := now.Sub(pr.lastReport)

	var throughput float64
	if interval > 0 {
		throughput = float64(pr.processed-pr.lastCount) / interval.Seconds()
	}

	fields := []zap.Field{
		zap.Int64("processed", pr.processed),
		zap.Float64("throughput", throughput),
		zap.Duration("elapsed", now.Sub(pr.startTime)),
	}
	if pr.total > 0 {
		fields = append(fields,
			zap.Int64("total", pr.total),
			zap.Float64("percentage", float64(pr.processed)/float64(pr.total)*100),
		)
	}
	if rss, ok := pr.residentMemory(); ok {
		fields = append(fields, zap.Uint64("rss_bytes", rss))
	}

	pr.logger.Info("progress update", fields...)

	pr.reports++
	pr.lastReport = now
	pr.lastCount = pr.processed
}

func (pr *ProgressReporter) residentMemory() (uint64, bool) {
	if pr.proc == nil {
		return 0, false
	}
	info, err := pr.proc.MemoryInfo()
	if err != nil {
		return 0, false
	}
	return info.RSS, true
}

// Finish logs the closing summary and returns the elapsed time
func (pr *ProgressReporter) Finish(msg string, extra ...zap.Field) time.Duration {
	elapsed := time.Since(pr.startTime)

	var avg float64
	if elapsed > 0 {
		avg = float64(pr.processed) / elapsed.Seconds()
	}

	fields := []zap.Field{
		zap.Int64("total_processed", pr.processed),
		zap.Duration("total_time", elapsed),
		zap.Float64("avg_throughput", avg),
	}
	pr.logger.Info(msg, append(fields, extra...)...)
	return elapsed
}
