// Package concurrent bounds how many tool executions run at once.
package concurrent

import (
	"context"
	"sync"
)

// WorkerPool limits concurrent work with a semaphore.
type WorkerPool struct {
	maxWorkers int
	sem        chan struct{}
}

func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = 8
	}
	return &WorkerPool{
		maxWorkers: maxWorkers,
		sem:        make(chan struct{}, maxWorkers),
	}
}

// Do runs fn once a worker slot is free, or returns early when ctx is
// cancelled while waiting.
func (wp *WorkerPool) Do(ctx context.Context, fn func() error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case wp.sem <- struct{}{}:
		defer func() { <-wp.sem }()
		return fn()
	}
}

// Map runs fn over items with bounded concurrency, preserving order.
// Per-item errors land in the returned slice rather than aborting the
// batch, so one failed tool call never cancels its siblings.
func Map[T, R any](ctx context.Context, pool *WorkerPool, items []T, fn func(context.Context, T) (R, error)) ([]R, []error) {
	if len(items) == 0 {
		return nil, nil
	}

	results := make([]R, len(items))
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(idx int, val T) {
			defer wg.Done()
			errs[idx] = pool.Do(ctx, func() error {
				var err error
				results[idx], err = fn(ctx, val)
				return err
			})
		}(i, item)
	}
	wg.Wait()

	return results, errs
}
