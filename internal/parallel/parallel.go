// Package parallel runs index ranges and task lists on a bounded set of
// goroutines.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the worker count used when callers pass zero.
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// For splits [0, n) into contiguous chunks of at least minChunk indices and
// runs fn on each chunk concurrently. The first error cancels ctx for the
// remaining chunks and is returned.
func For(ctx context.Context, n, minChunk, workers int, fn func(ctx context.Context, start, end int) error) error {
	if n <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if minChunk < 1 {
		minChunk = 1
	}
	if n <= minChunk || workers == 1 {
		return fn(ctx, 0, n)
	}
	workers = min(workers, n/minChunk)
	workers = max(workers, 1)
	chunk := (n + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, start, end)
		})
	}
	return g.Wait()
}

// Each runs fn(i) for i in [0, n) with at most workers calls in flight.
// Results are written by fn into caller-owned slots.
func Each(ctx context.Context, n, workers int, fn func(ctx context.Context, i int) error) error {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, i)
		})
	}
	return g.Wait()
}
