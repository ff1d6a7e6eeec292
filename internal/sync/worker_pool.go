package sync

import (
	"context"
	stdsync "sync"
)

type task func(ctx context.Context) error

// workerPool runs per-source sync tasks on a bounded set of goroutines.
// The source count is small and fixed, so the pool never needs to grow.
type workerPool struct {
	workers int
	tasks   chan task
	wg      stdsync.WaitGroup
}

func newWorkerPool(workers, buffer int) *workerPool {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	return &workerPool{
		workers: workers,
		tasks:   make(chan task, buffer),
	}
}

func (p *workerPool) Submit(t task) {
	if t == nil {
		return
	}
	p.tasks <- t
}

// Close stops accepting tasks. Call after all Submits.
func (p *workerPool) Close() {
	close(p.tasks)
}

// Run starts the workers and returns a channel that yields one error value
// per executed task and closes when all tasks are done.
func (p *workerPool) Run(ctx context.Context) <-chan error {
	out := make(chan error, cap(p.tasks)+p.workers)

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t, ok := <-p.tasks:
					if !ok {
						return
					}
					err := t(ctx)
					select {
					case <-ctx.Done():
						return
					case out <- err:
					}
				}
			}
		}()
	}

	go func() {
		p.wg.Wait()
		close(out)
	}()

	return out
}
