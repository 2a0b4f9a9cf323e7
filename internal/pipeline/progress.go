package pipeline

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/oplogtools/logquery/internal/logging"
)

const (
	defaultPollInterval   = 30 * time.Second
	defaultReportInterval = 2 * time.Minute
)

// progress tracks file completion for one run and reports throughput
// periodically. Purely observational: workers only touch the atomic
// counter, and imprecise report timing is acceptable.
type progress struct {
	task      string
	total     int
	completed atomic.Int64

	start  time.Time
	poll   time.Duration
	report time.Duration
	log    *logging.Logger

	stopOnce sync.Once
	done     chan struct{}
}

func newProgress(task string, total int, poll, report time.Duration, log *logging.Logger) *progress {
	if poll <= 0 {
		poll = defaultPollInterval
	}
	if report <= 0 {
		report = defaultReportInterval
	}
	return &progress{
		task:   task,
		total:  total,
		start:  time.Now(),
		poll:   poll,
		report: report,
		log:    log,
		done:   make(chan struct{}),
	}
}

// run polls the completion counter until every file is accounted for or
// the pipeline stops it. The first report happens no earlier than one
// full report interval into the run.
func (p *progress) run() {
	ticker := time.NewTicker(p.poll)
	defer ticker.Stop()

	next := p.start.Add(p.report)
	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			n := p.completed.Load()
			if now := time.Now(); !now.Before(next) {
				p.emit(n, now)
				next = now.Add(p.report)
			}
			if n >= int64(p.total) {
				return
			}
		}
	}
}

func (p *progress) stop() {
	p.stopOnce.Do(func() { close(p.done) })
}

func (p *progress) emit(n int64, now time.Time) {
	elapsed := now.Sub(p.start)
	percent := 0
	if p.total > 0 {
		percent = int(float64(n) / float64(p.total) * 100)
	}
	rate := 0.0
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(n) / secs
	}
	p.log.Info("progress",
		zap.String("task", p.task),
		zap.Int64("completed", n),
		zap.Int("total", p.total),
		zap.Int("percent", percent),
		zap.Float64("files_per_sec", rate),
		zap.Duration("elapsed", elapsed))
}
