package render

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Job is one unit of work of a phase.
type Job[C any] func(ctx context.Context, c C) error

// RunJobs runs jobs concurrently against the shared phase context c and
// returns the first error. The context passed to the jobs is canceled once
// a job fails.
func RunJobs[C any](ctx context.Context, c C, jobs ...Job[C]) error {
	return RunJobsLimit(ctx, -1, c, jobs...)
}

// RunJobsLimit is RunJobs with at most limit jobs running at once. A
// limit of zero or less means no limit.
func RunJobsLimit[C any](ctx context.Context, limit int, c C, jobs ...Job[C]) error {
	if limit <= 0 {
		limit = -1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return job(gctx, c)
		})
	}
	return g.Wait()
}
