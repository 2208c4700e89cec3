// Package batch runs registration records through a processor one at a time
// and, in server mode, queues whole runs onto the single browser session.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/regbot/models"
)

// RecordProcessor handles one record. *form.Processor satisfies it.
type RecordProcessor interface {
	Process(ctx context.Context, index int, rec models.Record) models.RecordResult
}

// Runner drives records through a RecordProcessor strictly in order.
type Runner struct {
	proc   RecordProcessor
	pause  time.Duration
	logger *slog.Logger
	now    func() time.Time
	sleep  func(context.Context, time.Duration) error
}

// RunnerOption customises a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RunnerOption { return func(r *Runner) { r.logger = l } }

// WithClock overrides time.Now for synthesized results.
func WithClock(now func() time.Time) RunnerOption { return func(r *Runner) { r.now = now } }

// WithSleep overrides the pause between records.
func WithSleep(sleep func(context.Context, time.Duration) error) RunnerOption {
	return func(r *Runner) { r.sleep = sleep }
}

// NewRunner returns a Runner that waits pause between consecutive records.
func NewRunner(proc RecordProcessor, pause time.Duration, opts ...RunnerOption) *Runner {
	r := &Runner{
		proc:   proc,
		pause:  pause,
		logger: slog.Default(),
		now:    time.Now,
		sleep:  sleepCtx,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run processes every record and returns one result per record, in input
// order. See RunEach.
func (r *Runner) Run(ctx context.Context, recs []models.Record) []models.RecordResult {
	return r.RunEach(ctx, recs, nil)
}

// RunEach is Run that also calls onResult after each record.
//
// Once ctx is done the records not yet started are not processed; each gets a
// "Run interrupted" failure so the result count always equals the input count.
func (r *Runner) RunEach(ctx context.Context, recs []models.Record, onResult func(models.RecordResult)) []models.RecordResult {
	results := make([]models.RecordResult, 0, len(recs))
	emit := func(res models.RecordResult) {
		results = append(results, res)
		if onResult != nil {
			onResult(res)
		}
	}

	for i, rec := range recs {
		index := i + 1
		if ctx.Err() != nil {
			emit(models.NewRecordResult(index, rec,
				models.FailedWith(models.ErrCodeInterrupted, models.MsgInterrupted), r.now()))
			continue
		}

		r.logger.Info("processing test case", "record", index, "total", len(recs))
		emit(r.processOne(ctx, index, rec))

		if index < len(recs) {
			// An interrupted pause is picked up by the ctx check above.
			_ = r.sleep(ctx, r.pause)
		}
	}

	s := models.Summarize(results)
	r.logger.Info("run finished",
		"total", s.Total,
		"successful", s.Successful,
		"failed", s.Failed,
		"interrupted", ctx.Err() != nil,
	)
	return results
}

// processOne calls the processor, turning a panic into a failure result.
func (r *Runner) processOne(ctx context.Context, index int, rec models.Record) (res models.RecordResult) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("record processor panicked", "record", index, "panic", p)
			res = models.NewRecordResult(index, rec,
				models.FailedWith(models.ErrCodeUnexpected, fmt.Sprintf("Exception: %v", p)), r.now())
		}
	}()
	return r.proc.Process(ctx, index, rec)
}

// sleepCtx pauses for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
