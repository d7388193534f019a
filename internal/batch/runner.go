// Package batch resolves many schools with bounded concurrency while
// keeping results in input order.
package batch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/staff-finder/internal/model"
)

// DefaultConcurrency is the number of schools resolved in parallel.
const DefaultConcurrency = 5

// DefaultCheckpointEvery is how many completed rows trigger a checkpoint.
const DefaultCheckpointEvery = 250

// CancelledReasoning is recorded for rows never started because the run was cancelled.
const CancelledReasoning = model.CancelledReasoning

// Resolver resolves one school. It must not return errors; every failure
// is encoded in the Result.
type Resolver interface {
	Resolve(ctx context.Context, school model.SchoolRecord) model.Result
}

// ResolveFunc adapts a function to Resolver.
type ResolveFunc func(ctx context.Context, school model.SchoolRecord) model.Result

// Resolve calls f.
func (f ResolveFunc) Resolve(ctx context.Context, school model.SchoolRecord) model.Result {
	return f(ctx, school)
}

// Checkpoint receives a snapshot of the results so far. Rows not yet
// completed have an empty Outcome.
type Checkpoint func(ctx context.Context, snapshot []model.Result) error

// Options configure a Runner.
type Options struct {
	Concurrency     int
	CheckpointEvery int
	OnCheckpoint    Checkpoint
	// OnResult is called once per completed row, from worker goroutines.
	OnResult func(index int, r model.Result)
}

// Runner fans schools out to a Resolver.
type Runner struct {
	resolver Resolver
	opts     Options
}

// New creates a Runner. Zero options fall back to the defaults.
func New(r Resolver, opts Options) *Runner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.CheckpointEvery <= 0 {
		opts.CheckpointEvery = DefaultCheckpointEvery
	}
	return &Runner{resolver: r, opts: opts}
}

// Run resolves every school and returns results in input order, one per
// input. Cancelling ctx stops new rows from starting; in-flight rows finish
// with whatever their resolver returns and unstarted rows become
// ERROR_NOT_FOUND "cancelled". The error is non-nil only when a checkpoint
// write fails or ctx was cancelled.
func (r *Runner) Run(ctx context.Context, schools []model.SchoolRecord) ([]model.Result, model.Summary, error) {
	start := time.Now()
	results := make([]model.Result, len(schools))

	zap.L().Info("processing batch",
		zap.Int("schools", len(schools)),
		zap.Int("concurrency", r.opts.Concurrency),
	)

	var (
		mu        sync.Mutex // guards results and ckptErr
		ckptErr   error
		completed atomic.Int64
		found     atomic.Int64
		failed    atomic.Int64
	)

	// Workers never return errors, so the group context is only cancelled
	// by the parent.
	g := new(errgroup.Group)
	g.SetLimit(r.opts.Concurrency)

	launched := 0
	for i, school := range schools {
		if ctx.Err() != nil {
			break
		}
		launched = i + 1
		g.Go(func() error {
			var res model.Result
			if ctx.Err() != nil {
				res = model.CancelledResult(school)
			} else {
				res = r.resolveOne(ctx, school)
			}

			mu.Lock()
			results[i] = res
			n := completed.Add(1)
			var snap []model.Result
			if r.opts.OnCheckpoint != nil && n%int64(r.opts.CheckpointEvery) == 0 {
				snap = make([]model.Result, len(results))
				copy(snap, results)
			}
			mu.Unlock()

			switch res.Outcome {
			case model.OutcomeFound:
				found.Add(1)
			case model.OutcomeError:
				failed.Add(1)
			}
			if r.opts.OnResult != nil {
				r.opts.OnResult(i, res)
			}
			if snap != nil {
				r.checkpoint(ctx, snap, n, len(schools), &mu, &ckptErr)
			}
			return nil
		})
	}
	_ = g.Wait()

	for i := launched; i < len(schools); i++ {
		results[i] = model.CancelledResult(schools[i])
	}

	summary := model.Summarize(results)
	summary.Duration = time.Since(start)

	zap.L().Info("batch complete",
		zap.Int("total", summary.Total),
		zap.Int64("found", found.Load()),
		zap.Int64("errors", failed.Load()),
		zap.Int("not_started", len(schools)-launched),
		zap.Duration("elapsed", summary.Duration),
	)

	if ckptErr != nil {
		return results, summary, eris.Wrap(ckptErr, "batch: checkpoint")
	}
	if err := ctx.Err(); err != nil {
		return results, summary, eris.Wrap(err, "batch: cancelled")
	}
	return results, summary, nil
}

func (r *Runner) checkpoint(ctx context.Context, snap []model.Result, n int64, total int, mu *sync.Mutex, firstErr *error) {
	if err := r.opts.OnCheckpoint(ctx, snap); err != nil {
		zap.L().Error("checkpoint failed", zap.Int64("completed", n), zap.Error(err))
		mu.Lock()
		if *firstErr == nil {
			*firstErr = err
		}
		mu.Unlock()
		return
	}
	zap.L().Info("checkpoint written", zap.Int64("completed", n), zap.Int("total", total))
}

// resolveOne isolates a single row: a panic becomes an ERROR_NOT_FOUND result.
func (r *Runner) resolveOne(ctx context.Context, school model.SchoolRecord) (res model.Result) {
	defer func() {
		if p := recover(); p != nil {
			zap.L().Error("resolver panic",
				zap.Int("row", school.Row),
				zap.String("school", school.Name),
				zap.Any("panic", p),
			)
			res = model.ErrorResult(school, fmt.Sprintf("internal error: %v", p))
		}
	}()
	return r.resolver.Resolve(ctx, school)
}
